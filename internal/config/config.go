// Package config provides configuration management for the CORD-19 explorer.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Dataset mode constants, matching dataset.Mode values.
const (
	// ModeSample prefers the committed sample files.
	ModeSample = "sample"
	// ModeFull reads the complete metadata export with thinning.
	ModeFull = "full"
)

// Config holds all configuration for the CORD-19 explorer.
type Config struct {
	// Server contains HTTP server settings for the dashboard.
	Server ServerConfig `mapstructure:"server"`
	// Logging contains structured logging settings.
	Logging LoggingConfig `mapstructure:"logging"`
	// Metrics contains Prometheus metrics exposure settings.
	Metrics MetricsConfig `mapstructure:"metrics"`
	// Dataset contains metadata file location and thinning settings.
	Dataset DatasetConfig `mapstructure:"dataset"`
	// Analysis contains aggregation pipeline settings.
	Analysis AnalysisConfig `mapstructure:"analysis"`
	// Catalog contains the SQLite run catalog settings.
	Catalog CatalogConfig `mapstructure:"catalog"`
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	// Host is the address to bind the server to (default: 0.0.0.0).
	Host string `mapstructure:"host"`
	// HTTPPort is the HTTP server port (default: 8080).
	HTTPPort int `mapstructure:"http_port"`
	// MetricsPort is the metrics server port (default: 9091).
	MetricsPort int `mapstructure:"metrics_port"`
	// ReadTimeout is the maximum duration for reading request body.
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
	// WriteTimeout is the maximum duration for writing response.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// ShutdownTimeout is the maximum duration to wait for graceful shutdown.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the log level (trace, debug, info, warn, error, fatal, panic).
	Level string `mapstructure:"level"`
	// Format is the log format (json, console).
	Format string `mapstructure:"format"`
	// Output is the log output destination (stdout, stderr, file path).
	Output string `mapstructure:"output"`
	// TimeFormat is the timestamp format.
	TimeFormat string `mapstructure:"time_format"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	// Enabled enables metrics collection and exposure.
	Enabled bool `mapstructure:"enabled"`
	// Path is the HTTP path for metrics endpoint.
	Path string `mapstructure:"path"`
}

// DatasetConfig holds metadata file location and thinning settings.
type DatasetConfig struct {
	// Dir is the directory holding the metadata CSV files.
	Dir string `mapstructure:"dir"`
	// Mode selects the dataset variant (sample, full).
	Mode string `mapstructure:"mode"`
	// ThinChunkSize is the rows drawn per thinning step of a full read.
	ThinChunkSize int `mapstructure:"thin_chunk_size"`
	// ThinKeepFraction is the share of each chunk kept, in (0, 1].
	ThinKeepFraction float64 `mapstructure:"thin_keep_fraction"`
	// ThinMaxChunks caps chunks read from the full export. Negative reads
	// the export to exhaustion.
	ThinMaxChunks int `mapstructure:"thin_max_chunks"`
	// ThinSeed fixes the thinning row selection.
	ThinSeed int64 `mapstructure:"thin_seed"`
}

// AnalysisConfig holds aggregation pipeline settings.
type AnalysisConfig struct {
	// BatchSize is the number of rows cleaned and counted per step.
	BatchSize int `mapstructure:"batch_size"`
	// TopJournals is how many journals the reports rank.
	TopJournals int `mapstructure:"top_journals"`
	// TopWords is how many title words the reports rank.
	TopWords int `mapstructure:"top_words"`
	// TopSources is how many sources the reports rank.
	TopSources int `mapstructure:"top_sources"`
	// MinTokenLength is the shortest title word counted.
	MinTokenLength int `mapstructure:"min_token_length"`
	// ResultsDir is where CSV and text reports are written.
	ResultsDir string `mapstructure:"results_dir"`
	// ChartsDir is where chart images are written.
	ChartsDir string `mapstructure:"charts_dir"`
}

// CatalogConfig holds the SQLite run catalog settings.
type CatalogConfig struct {
	// Path is the SQLite database file. Empty disables the catalog.
	Path string `mapstructure:"path"`
	// MigrationAutoRun enables automatic migration on open (default: true).
	MigrationAutoRun bool `mapstructure:"migration_auto_run"`
}

// HTTPAddress returns the HTTP server address.
func (c *ServerConfig) HTTPAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.HTTPPort)
}

// MetricsAddress returns the metrics server address.
func (c *ServerConfig) MetricsAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.MetricsPort)
}

// Load loads configuration from environment variables and config files.
func Load() (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Read from environment variables
	v.SetEnvPrefix("CORD19")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file if present
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/cord19-explorer")

	if err := v.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is OK, we'll use env vars and defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.http_port", 8080)
	v.SetDefault("server.metrics_port", 9091)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "30s")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("logging.time_format", time.RFC3339)

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	// Dataset defaults
	v.SetDefault("dataset.dir", "data")
	v.SetDefault("dataset.mode", ModeSample)
	v.SetDefault("dataset.thin_chunk_size", 10000)
	v.SetDefault("dataset.thin_keep_fraction", 0.10)
	v.SetDefault("dataset.thin_max_chunks", 5)
	v.SetDefault("dataset.thin_seed", 42)

	// Analysis defaults
	v.SetDefault("analysis.batch_size", 1000)
	v.SetDefault("analysis.top_journals", 10)
	v.SetDefault("analysis.top_words", 15)
	v.SetDefault("analysis.top_sources", 10)
	v.SetDefault("analysis.min_token_length", 3)
	v.SetDefault("analysis.results_dir", "results")
	v.SetDefault("analysis.charts_dir", "images")

	// Catalog defaults
	v.SetDefault("catalog.path", "results/catalog.db")
	v.SetDefault("catalog.migration_auto_run", true)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	// Validate server ports
	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.Server.HTTPPort)
	}
	if c.Server.MetricsPort <= 0 || c.Server.MetricsPort > 65535 {
		return fmt.Errorf("invalid metrics port: %d", c.Server.MetricsPort)
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"trace": true, "debug": true, "info": true,
		"warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	// Validate dataset config
	if c.Dataset.Dir == "" {
		return fmt.Errorf("dataset dir is required")
	}
	if c.Dataset.Mode != ModeSample && c.Dataset.Mode != ModeFull {
		return fmt.Errorf("invalid dataset mode: %s", c.Dataset.Mode)
	}
	if c.Dataset.ThinChunkSize <= 0 {
		return fmt.Errorf("dataset thin_chunk_size must be positive")
	}
	if c.Dataset.ThinKeepFraction <= 0 || c.Dataset.ThinKeepFraction > 1 {
		return fmt.Errorf("dataset thin_keep_fraction must be in (0, 1]")
	}

	// Validate analysis config
	if c.Analysis.BatchSize <= 0 {
		return fmt.Errorf("analysis batch_size must be positive")
	}
	if c.Analysis.TopJournals <= 0 {
		return fmt.Errorf("analysis top_journals must be positive")
	}
	if c.Analysis.TopWords <= 0 {
		return fmt.Errorf("analysis top_words must be positive")
	}
	if c.Analysis.TopSources <= 0 {
		return fmt.Errorf("analysis top_sources must be positive")
	}
	if c.Analysis.MinTokenLength <= 0 {
		return fmt.Errorf("analysis min_token_length must be positive")
	}
	if c.Analysis.ResultsDir == "" {
		return fmt.Errorf("analysis results_dir is required")
	}
	if c.Analysis.ChartsDir == "" {
		return fmt.Errorf("analysis charts_dir is required")
	}

	// Validate metrics config
	if c.Metrics.Enabled && c.Metrics.Path == "" {
		return fmt.Errorf("metrics path is required when metrics are enabled")
	}

	return nil
}
