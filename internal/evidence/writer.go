// Package evidence serializes validation results into durable, run-id keyed
// artifacts: a human-readable summary, machine-readable tables and a
// metadata record chaining provenance between runs. Artifacts are written
// once and never mutated; a new run produces a new run-id-suffixed set.
package evidence

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"meteoval/internal/config"
	apperrors "meteoval/internal/errors"
	"meteoval/pkg/contracts/domain"
)

// Writer produces the evidence bundle for one run.
type Writer struct {
	logger *slog.Logger
	paths  *config.Paths
	csv    *CSVWriter
}

// NewWriter creates an evidence writer rooted at the run's path set.
func NewWriter(logger *slog.Logger, paths *config.Paths) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{
		logger: logger,
		paths:  paths,
		csv:    NewCSVWriter(logger),
	}
}

// SummaryInput carries everything the human-readable report presents.
type SummaryInput struct {
	CSVRecord     domain.IntegrityRecord
	ParquetRecord domain.IntegrityRecord
	CSVSchema     domain.SchemaRecord
	ParquetSchema domain.SchemaRecord
	Comparison    domain.SchemaComparison
	Head          string
	Tail          string
}

// WriteSummary writes the summary text report with its fixed section order:
// file identity per encoding, structural comparison, column list, then head
// and tail samples.
func (w *Writer) WriteSummary(in SummaryInput) (string, error) {
	var lines []string
	lines = append(lines, fmt.Sprintf("DATASET CONFIRMATION — run %s", w.paths.RunID))
	lines = append(lines, fmt.Sprintf("Timestamp: %s", time.Now().Format("2006-01-02T15:04:05")))
	lines = append(lines, "")
	lines = append(lines, "[FILES]")
	lines = append(lines, formatRecord("CSV", in.CSVRecord)...)
	lines = append(lines, formatRecord("PARQUET", in.ParquetRecord)...)
	lines = append(lines, "")
	lines = append(lines, "[STRUCTURE]")
	lines = append(lines, fmt.Sprintf("Shape CSV:     N=%d  P=%d", in.CSVSchema.Rows, in.CSVSchema.Cols))
	lines = append(lines, fmt.Sprintf("Shape Parquet: N=%d  P=%d", in.ParquetSchema.Rows, in.ParquetSchema.Cols))
	lines = append(lines, fmt.Sprintf("Same shape (CSV vs Parquet): %t", in.Comparison.SameShape))
	lines = append(lines, fmt.Sprintf("Same columns (identical order): %t", in.Comparison.SameColumns))
	lines = append(lines, "")
	lines = append(lines, "[COLUMNS]")
	lines = append(lines, "Parquet columns:")
	lines = append(lines, "  "+strings.Join(in.ParquetSchema.ColumnNames(), ", "))
	lines = append(lines, "")
	lines = append(lines, "[SAMPLE — head 5]")
	lines = append(lines, in.Head)
	lines = append(lines, "")
	lines = append(lines, "[SAMPLE — tail 5]")
	lines = append(lines, in.Tail)
	lines = append(lines, "")

	path := w.paths.SummaryPath()
	if err := w.writeText(path, strings.Join(lines, "\n")+"\n"); err != nil {
		return "", err
	}
	return path, nil
}

// WriteSchemaComparison writes the schema table: one row per column with the
// declared type in each encoding plus the parquet-side null count.
func (w *Writer) WriteSchemaComparison(csvSchema, parquetSchema domain.SchemaRecord) (string, error) {
	csvTypes := make(map[string]string, len(csvSchema.Columns))
	for _, col := range csvSchema.Columns {
		csvTypes[col.Column] = col.Type
	}

	records := make([][]string, 0, len(parquetSchema.Columns))
	for _, col := range parquetSchema.Columns {
		records = append(records, []string{
			col.Column,
			col.Type,
			csvTypes[col.Column],
			strconv.Itoa(col.NullCount),
		})
	}

	path := w.paths.TablePath("schema", "csv")
	if err := w.csv.WriteSimpleCSV(path, []string{"column", "dtype_parquet", "dtype_csv", "nulls"}, records); err != nil {
		return "", apperrors.NewStorageError("failed to write schema table", err)
	}
	return path, nil
}

// WriteDuplicates writes the duplicate-row report as JSON.
func (w *Writer) WriteDuplicates(report domain.DuplicateReport) (string, error) {
	path := w.paths.TablePath("duplicates", "json")
	if err := w.writeJSON(path, report); err != nil {
		return "", err
	}
	return path, nil
}

// WriteTemporalProof writes the before/after ordering evidence as JSON.
func (w *Writer) WriteTemporalProof(report domain.CanonicalizationReport) (string, error) {
	path := w.paths.TablePath("temporal", "json")
	if err := w.writeJSON(path, report); err != nil {
		return "", err
	}
	return path, nil
}

// WriteDescribe writes the descriptive-statistics table: one row per
// statistic, one column per numeric field. Empty profiles produce no file.
func (w *Writer) WriteDescribe(report domain.ProfileReport) (string, error) {
	if len(report.Describe) == 0 {
		return "", nil
	}

	headers := append([]string{"statistic"}, report.NumericColumns...)
	byName := make(map[string]domain.ColumnStats, len(report.Describe))
	for _, s := range report.Describe {
		byName[s.Column] = s
	}

	rows := []struct {
		name  string
		value func(domain.ColumnStats) float64
	}{
		{"count", func(s domain.ColumnStats) float64 { return float64(s.Count) }},
		{"mean", func(s domain.ColumnStats) float64 { return s.Mean }},
		{"std", func(s domain.ColumnStats) float64 { return s.Std }},
		{"min", func(s domain.ColumnStats) float64 { return s.Min }},
		{"25%", func(s domain.ColumnStats) float64 { return s.Q25 }},
		{"50%", func(s domain.ColumnStats) float64 { return s.Median }},
		{"75%", func(s domain.ColumnStats) float64 { return s.Q75 }},
		{"max", func(s domain.ColumnStats) float64 { return s.Max }},
	}

	records := make([][]string, 0, len(rows))
	for _, row := range rows {
		record := make([]string, 0, len(headers))
		record = append(record, row.name)
		for _, col := range report.NumericColumns {
			record = append(record, formatFloat(row.value(byName[col])))
		}
		records = append(records, record)
	}

	path := w.paths.TablePath("describe", "csv")
	if err := w.csv.WriteSimpleCSV(path, headers, records); err != nil {
		return "", apperrors.NewStorageError("failed to write describe table", err)
	}
	return path, nil
}

// WriteQuantiles writes the quantile table: one row per probability point,
// one column per numeric field. Empty profiles produce no file.
func (w *Writer) WriteQuantiles(report domain.ProfileReport) (string, error) {
	if len(report.Quantiles) == 0 || len(report.NumericColumns) == 0 {
		return "", nil
	}

	headers := append([]string{"quantile"}, report.NumericColumns...)
	records := make([][]string, 0, len(report.Quantiles))
	for _, row := range report.Quantiles {
		record := make([]string, 0, len(headers))
		record = append(record, strconv.FormatFloat(row.Q, 'g', -1, 64))
		for _, col := range report.NumericColumns {
			record = append(record, formatFloat(row.Values[col]))
		}
		records = append(records, record)
	}

	path := w.paths.TablePath("quantiles", "csv")
	if err := w.csv.WriteSimpleCSV(path, headers, records); err != nil {
		return "", apperrors.NewStorageError("failed to write quantile table", err)
	}
	return path, nil
}

// WriteRangeFlags writes the range-anomaly table. Empty profiles produce no
// file.
func (w *Writer) WriteRangeFlags(report domain.ProfileReport) (string, error) {
	if len(report.RangeFlags) == 0 {
		return "", nil
	}

	records := make([][]string, 0, len(report.RangeFlags))
	for _, flag := range report.RangeFlags {
		records = append(records, []string{
			flag.Column,
			formatFloat(flag.Min),
			formatFloat(flag.Max),
			formatFloat(flag.Range),
			strconv.FormatBool(flag.Inverted),
			strconv.FormatBool(flag.HighRange),
		})
	}

	path := w.paths.TablePath("ranges_flags", "csv")
	headers := []string{"column", "min", "max", "range", "flag_inverted", "flag_high_range"}
	if err := w.csv.WriteSimpleCSV(path, headers, records); err != nil {
		return "", apperrors.NewStorageError("failed to write range-flags table", err)
	}
	return path, nil
}

// WriteMetadata writes the run provenance record. It is the last artifact
// of a run; fatal failures never reach it, so its presence with
// success=true is itself evidence the run completed.
func (w *Writer) WriteMetadata(meta domain.RunMetadata) (string, error) {
	path := w.paths.MetadataPath()
	if err := w.writeJSON(path, meta); err != nil {
		return "", err
	}
	w.logger.Info("wrote run metadata",
		slog.String("path", path),
		slog.Bool("success", meta.Success))
	return path, nil
}

// writeText writes a whole text artifact, creating parent directories.
func (w *Writer) writeText(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return apperrors.NewStorageError("failed to create evidence directory", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("failed to write %s", path), err)
	}
	w.logger.Info("wrote evidence artifact", slog.String("path", path))
	return nil
}

// writeJSON writes an indented JSON artifact, creating parent directories.
func (w *Writer) writeJSON(path string, v interface{}) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return apperrors.NewStorageError("failed to create evidence directory", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("failed to create %s", path), err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("failed to encode %s", path), err)
	}

	w.logger.Info("wrote evidence artifact", slog.String("path", path))
	return nil
}

func formatRecord(label string, record domain.IntegrityRecord) []string {
	return []string{
		fmt.Sprintf("%s: %s", label, record.Path),
		fmt.Sprintf("  size_bytes: %d", record.SizeBytes),
		fmt.Sprintf("  mtime:      %s", record.ModTime.Format("2006-01-02T15:04:05")),
		fmt.Sprintf("  %s:     %s", record.Algorithm, record.Hash),
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
