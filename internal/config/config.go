package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration. Values are
// loaded from a YAML file first, then overridden by METEOVAL_* environment
// variables. There is no module-level mutable state: the loaded Config is
// passed explicitly into each pipeline stage constructor.
type Config struct {
	Inputs   InputsConfig   `yaml:"inputs" envconfig:"INPUTS"`
	Temporal TemporalConfig `yaml:"temporal" envconfig:"TEMPORAL"`
	Profile  ProfileConfig  `yaml:"profile" envconfig:"PROFILE"`
	Output   OutputConfig   `yaml:"output" envconfig:"OUTPUT"`
	Logging  LoggingConfig  `yaml:"logging" envconfig:"LOGGING"`
}

// InputsConfig names the two on-disk encodings of the logical dataset.
type InputsConfig struct {
	CSVPath     string `yaml:"csv_path" envconfig:"CSV_PATH" validate:"required"`
	ParquetPath string `yaml:"parquet_path" envconfig:"PARQUET_PATH" validate:"required"`
	// Candidates are alternative locations for the parquet input, tried in
	// order before ParquetPath; the first existing file wins and every probe
	// is logged so provenance stays traceable.
	Candidates []string `yaml:"candidates" envconfig:"CANDIDATES"`
	// Hash selects the integrity digest.
	Hash string `yaml:"hash" envconfig:"HASH" validate:"oneof=sha256 blake2b"`
}

// TemporalConfig designates the timestamp column.
type TemporalConfig struct {
	DateColumn string `yaml:"date_column" envconfig:"DATE_COLUMN" validate:"required"`
}

// ProfileConfig tunes the statistical profiler.
type ProfileConfig struct {
	// Quantiles are the probability points evaluated per numeric column.
	Quantiles []float64 `yaml:"quantiles" envconfig:"QUANTILES" validate:"dive,gt=0,lt=1"`
	// SampleThreshold bounds memory for sampling-based consumers; above it a
	// fixed-seed uniform sample of SampleThreshold rows is drawn.
	SampleThreshold int   `yaml:"sample_threshold" envconfig:"SAMPLE_THRESHOLD" validate:"gt=0"`
	SampleSeed      int64 `yaml:"sample_seed" envconfig:"SAMPLE_SEED"`
	// HighRangeQuantile is the dataset-local heuristic threshold for the
	// high_range flag. Kept configurable; it has no theoretical grounding.
	HighRangeQuantile float64 `yaml:"high_range_quantile" envconfig:"HIGH_RANGE_QUANTILE" validate:"gt=0,lt=1"`
}

// OutputConfig controls the evidence directory and optional extras.
type OutputConfig struct {
	Dir string `yaml:"dir" envconfig:"DIR" validate:"required"`
	// Workbook additionally consolidates all tables into one xlsx file.
	Workbook bool `yaml:"workbook" envconfig:"WORKBOOK"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
	Format   string `yaml:"format" envconfig:"FORMAT"`
	Output   string `yaml:"output" envconfig:"OUTPUT"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// DefaultQuantiles are the probability points used when none are configured:
// the 1st, 5th, 95th and 99th percentile.
var DefaultQuantiles = []float64{0.01, 0.05, 0.95, 0.99}

// Option mutates the configuration after file and environment loading but
// before defaulting and validation. Used for command-line overrides.
type Option func(*Config)

// Load loads configuration from an optional YAML file and the environment.
// Environment variables take precedence over file values; options take
// precedence over both.
func Load(configFile string, opts ...Option) (*Config, error) {
	var cfg Config

	if configFile != "" {
		if _, err := os.Stat(configFile); err == nil {
			fileCfg, err := loadFromFile(configFile)
			if err != nil {
				return nil, fmt.Errorf("failed to load config from file: %w", err)
			}
			cfg = *fileCfg
		}
	}

	if err := envconfig.Process("METEOVAL", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// loadFromFile loads configuration from YAML file
func loadFromFile(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// applyDefaults fills fields still unset after file, environment and option
// layering. Defaults live here rather than in struct tags so that envconfig
// never overwrites a value the YAML file already provided.
func (c *Config) applyDefaults() {
	if len(c.Profile.Quantiles) == 0 {
		c.Profile.Quantiles = append([]float64(nil), DefaultQuantiles...)
	}
	if c.Inputs.Hash == "" {
		c.Inputs.Hash = "sha256"
	}
	if c.Temporal.DateColumn == "" {
		c.Temporal.DateColumn = "date_time"
	}
	if c.Profile.SampleThreshold == 0 {
		c.Profile.SampleThreshold = 200000
	}
	if c.Profile.SampleSeed == 0 {
		c.Profile.SampleSeed = 42
	}
	if c.Profile.HighRangeQuantile == 0 {
		c.Profile.HighRangeQuantile = 0.95
	}
	if c.Output.Dir == "" {
		c.Output.Dir = "evidence"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "both"
	}
}

// Validate checks the configuration against its struct constraints.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}
