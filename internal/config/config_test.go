package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("", func(c *Config) {
		c.Inputs.CSVPath = "d.csv"
		c.Inputs.ParquetPath = "d.parquet"
	})
	require.NoError(t, err)

	assert.Equal(t, "sha256", cfg.Inputs.Hash)
	assert.Equal(t, "date_time", cfg.Temporal.DateColumn)
	assert.Equal(t, DefaultQuantiles, cfg.Profile.Quantiles)
	assert.Equal(t, 200000, cfg.Profile.SampleThreshold)
	assert.Equal(t, int64(42), cfg.Profile.SampleSeed)
	assert.Equal(t, 0.95, cfg.Profile.HighRangeQuantile)
	assert.Equal(t, "evidence", cfg.Output.Dir)
	assert.False(t, cfg.Output.Workbook)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoad_FromYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
inputs:
  csv_path: data/obs.csv
  parquet_path: data/obs.parquet
  hash: blake2b
temporal:
  date_column: observed_at
profile:
  quantiles: [0.1, 0.9]
output:
  dir: out
  workbook: true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "data/obs.csv", cfg.Inputs.CSVPath)
	assert.Equal(t, "blake2b", cfg.Inputs.Hash)
	assert.Equal(t, "observed_at", cfg.Temporal.DateColumn)
	assert.Equal(t, []float64{0.1, 0.9}, cfg.Profile.Quantiles)
	assert.Equal(t, "out", cfg.Output.Dir)
	assert.True(t, cfg.Output.Workbook)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
inputs:
  csv_path: data/obs.csv
  parquet_path: data/obs.parquet
  hash: blake2b
temporal:
  date_column: observed_at
output:
  dir: out
  workbook: true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv("METEOVAL_TEMPORAL_DATE_COLUMN", "measured_at")

	cfg, err := Load(path)
	require.NoError(t, err)

	// The variable that is set wins; everything the environment does not
	// name keeps its file value rather than falling back to a default.
	assert.Equal(t, "measured_at", cfg.Temporal.DateColumn)
	assert.Equal(t, "blake2b", cfg.Inputs.Hash)
	assert.Equal(t, "out", cfg.Output.Dir)
	assert.True(t, cfg.Output.Workbook)
}

func TestLoad_OptionsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"inputs:\n  csv_path: a.csv\n  parquet_path: a.parquet\n"), 0o644))

	cfg, err := Load(path, func(c *Config) {
		c.Inputs.CSVPath = "b.csv"
	})
	require.NoError(t, err)
	assert.Equal(t, "b.csv", cfg.Inputs.CSVPath)
	assert.Equal(t, "a.parquet", cfg.Inputs.ParquetPath)
}

func TestLoad_ValidationFailures(t *testing.T) {
	tests := []struct {
		name string
		opt  Option
	}{
		{
			name: "missing inputs",
			opt:  func(c *Config) {},
		},
		{
			name: "bad hash",
			opt: func(c *Config) {
				c.Inputs.CSVPath = "d.csv"
				c.Inputs.ParquetPath = "d.parquet"
				c.Inputs.Hash = "md5"
			},
		},
		{
			name: "quantile out of range",
			opt: func(c *Config) {
				c.Inputs.CSVPath = "d.csv"
				c.Inputs.ParquetPath = "d.parquet"
				c.Profile.Quantiles = []float64{1.5}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load("", tt.opt)
			assert.Error(t, err)
		})
	}
}

func TestNewPaths(t *testing.T) {
	now := time.Date(2024, 6, 1, 13, 45, 30, 0, time.UTC)
	paths := NewPaths("evidence", now)

	assert.Equal(t, "20240601_134530", paths.RunID)
	assert.Equal(t, filepath.Join("evidence", "logs", "run_20240601_134530.log"), paths.RunLogPath())
	assert.Equal(t, filepath.Join("evidence", "summary_20240601_134530.txt"), paths.SummaryPath())
	assert.Equal(t, filepath.Join("evidence", "tables", "describe_20240601_134530.csv"), paths.TablePath("describe", "csv"))
	assert.Equal(t, filepath.Join("evidence", "metadata", "run_20240601_134530.json"), paths.MetadataPath())
	assert.Equal(t, filepath.Join("evidence", "evidence_20240601_134530.xlsx"), paths.WorkbookPath())
}

func TestPaths_EnsureDirectories(t *testing.T) {
	root := filepath.Join(t.TempDir(), "evidence")
	paths := NewPaths(root, time.Now())

	require.NoError(t, paths.EnsureDirectories())

	for _, dir := range []string{paths.EvidenceDir, paths.LogsDir, paths.TablesDir, paths.MetadataDir} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}

func TestRunID_LexicographicOrder(t *testing.T) {
	earlier := NewPaths("e", time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC))
	later := NewPaths("e", time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC))
	assert.Less(t, earlier.RunID, later.RunID)
}
