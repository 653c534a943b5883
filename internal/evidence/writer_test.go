package evidence

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meteoval/internal/config"
	"meteoval/pkg/contracts/domain"
)

func newTestWriter(t *testing.T) (*Writer, *config.Paths) {
	t.Helper()
	paths := config.NewPaths(t.TempDir(), time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	require.NoError(t, paths.EnsureDirectories())
	return NewWriter(nil, paths), paths
}

func readCSVFile(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return records
}

func TestWriteSummary_SectionOrder(t *testing.T) {
	w, paths := newTestWriter(t)

	path, err := w.WriteSummary(SummaryInput{
		CSVRecord:     domain.IntegrityRecord{Path: "d.csv", SizeBytes: 10, Algorithm: domain.HashSHA256, Hash: "aa"},
		ParquetRecord: domain.IntegrityRecord{Path: "d.parquet", SizeBytes: 8, Algorithm: domain.HashSHA256, Hash: "bb"},
		CSVSchema:     domain.SchemaRecord{Rows: 3, Cols: 2},
		ParquetSchema: domain.SchemaRecord{Rows: 3, Cols: 2, Columns: []domain.ColumnSchema{{Column: "date_time"}, {Column: "v"}}},
		Comparison:    domain.SchemaComparison{SameShape: true, SameColumns: true},
		Head:          "head sample",
		Tail:          "tail sample",
	})
	require.NoError(t, err)
	assert.Equal(t, paths.SummaryPath(), path)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(raw)

	sections := []string{"[FILES]", "[STRUCTURE]", "[COLUMNS]", "[SAMPLE — head 5]", "[SAMPLE — tail 5]"}
	last := -1
	for _, section := range sections {
		idx := strings.Index(content, section)
		require.GreaterOrEqual(t, idx, 0, section)
		assert.Greater(t, idx, last, "section %s out of order", section)
		last = idx
	}

	assert.Contains(t, content, paths.RunID)
	assert.Contains(t, content, "d.parquet")
	assert.Contains(t, content, "Same shape (CSV vs Parquet): true")
	assert.Contains(t, content, "date_time, v")
	assert.Contains(t, content, "head sample")
	assert.Contains(t, content, "tail sample")
}

func TestWriteSchemaComparison(t *testing.T) {
	w, _ := newTestWriter(t)

	csvSchema := domain.SchemaRecord{Columns: []domain.ColumnSchema{
		{Column: "v", Type: "float64", NullCount: 0},
	}}
	parquetSchema := domain.SchemaRecord{Columns: []domain.ColumnSchema{
		{Column: "v", Type: "float64", NullCount: 2},
	}}

	path, err := w.WriteSchemaComparison(csvSchema, parquetSchema)
	require.NoError(t, err)

	records := readCSVFile(t, path)
	require.Len(t, records, 2)
	assert.Equal(t, []string{"column", "dtype_parquet", "dtype_csv", "nulls"}, records[0])
	assert.Equal(t, []string{"v", "float64", "float64", "2"}, records[1])
}

func TestWriteDescribe(t *testing.T) {
	w, _ := newTestWriter(t)

	t.Run("empty profile writes nothing", func(t *testing.T) {
		path, err := w.WriteDescribe(domain.ProfileReport{})
		require.NoError(t, err)
		assert.Empty(t, path)
	})

	t.Run("statistics are transposed", func(t *testing.T) {
		report := domain.ProfileReport{
			NumericColumns: []string{"v"},
			Describe: []domain.ColumnStats{
				{Column: "v", Count: 3, Mean: 2, Std: 1, Min: 1, Q25: 1.5, Median: 2, Q75: 2.5, Max: 3},
			},
		}
		path, err := w.WriteDescribe(report)
		require.NoError(t, err)

		records := readCSVFile(t, path)
		require.Len(t, records, 9)
		assert.Equal(t, []string{"statistic", "v"}, records[0])
		assert.Equal(t, []string{"count", "3"}, records[1])
		assert.Equal(t, []string{"max", "3"}, records[8])
	})
}

func TestWriteQuantiles(t *testing.T) {
	w, _ := newTestWriter(t)

	report := domain.ProfileReport{
		NumericColumns: []string{"v"},
		Quantiles: []domain.QuantileRow{
			{Q: 0.05, Values: map[string]float64{"v": 1.5}},
			{Q: 0.95, Values: map[string]float64{"v": 9.5}},
		},
	}
	path, err := w.WriteQuantiles(report)
	require.NoError(t, err)

	records := readCSVFile(t, path)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"quantile", "v"}, records[0])
	assert.Equal(t, []string{"0.05", "1.5"}, records[1])
	assert.Equal(t, []string{"0.95", "9.5"}, records[2])
}

func TestWriteRangeFlags(t *testing.T) {
	w, _ := newTestWriter(t)

	report := domain.ProfileReport{
		RangeFlags: []domain.RangeFlag{
			{Column: "v", Min: 1, Max: 9, Range: 8, Inverted: false, HighRange: true},
		},
	}
	path, err := w.WriteRangeFlags(report)
	require.NoError(t, err)

	records := readCSVFile(t, path)
	require.Len(t, records, 2)
	assert.Equal(t, []string{"v", "1", "9", "8", "false", "true"}, records[1])
}

func TestWriteTemporalProofAndDuplicates(t *testing.T) {
	w, _ := newTestWriter(t)

	proofPath, err := w.WriteTemporalProof(domain.CanonicalizationReport{
		Column: "date_time",
		Rows:   4,
		After:  domain.TemporalOrderProof{Monotonic: true, DuplicateCount: 1},
	})
	require.NoError(t, err)

	var report domain.CanonicalizationReport
	raw, err := os.ReadFile(proofPath)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &report))
	assert.True(t, report.After.Monotonic)
	assert.Equal(t, 1, report.After.DuplicateCount)

	dupPath, err := w.WriteDuplicates(domain.DuplicateReport{DuplicateRows: 2, ElapsedSec: 0.1})
	require.NoError(t, err)

	var dup domain.DuplicateReport
	raw, err = os.ReadFile(dupPath)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &dup))
	assert.Equal(t, 2, dup.DuplicateRows)
}

func TestWriteMetadata(t *testing.T) {
	w, paths := newTestWriter(t)

	meta := domain.RunMetadata{
		RunID:        paths.RunID,
		TimestampUTC: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
		Version:      "0.1.0",
		InputHashes:  map[string]string{"csv": "aa", "parquet": "bb"},
		Rows:         100,
		Cols:         4,
		Outputs:      map[string]string{"summary": "s.txt"},
		Success:      true,
	}
	path, err := w.WriteMetadata(meta)
	require.NoError(t, err)
	assert.Equal(t, paths.MetadataPath(), path)

	var got domain.RunMetadata
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, meta.RunID, got.RunID)
	assert.Equal(t, meta.InputHashes, got.InputHashes)
	assert.True(t, got.Success)
}
