// Package config loads and validates Custodia's runtime configuration from
// a YAML file, with CUSTODIA_* environment variable overrides.
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration for Custodia.
type Config struct {
	Storage StorageConfig `yaml:"storage"`
	Scoring ScoringConfig `yaml:"scoring"`
	Rescore RescoreConfig `yaml:"rescore"`
	Metrics MetricsConfig `yaml:"metrics"`
	Logging LoggingConfig `yaml:"logging"`
}

// StorageConfig selects and tunes the persistence backend.
type StorageConfig struct {
	// Backend is "sqlite" (durable) or "memory" (tests/tooling).
	Backend string `yaml:"backend"`

	// Path is the SQLite database file path.
	Path string `yaml:"path"`

	// Driver selects the SQLite driver: "sqlite3" (cgo) or "sqlite"
	// (pure Go).
	Driver string `yaml:"driver"`

	MaxOpenConns int           `yaml:"max_open_conns"`
	MaxIdleConns int           `yaml:"max_idle_conns"`
	WALMode      bool          `yaml:"wal_mode"`
	BusyTimeout  time.Duration `yaml:"busy_timeout"`
}

// ScoringConfig points at the source-weight table.
type ScoringConfig struct {
	// WeightsFile is a YAML file overriding the built-in weight table.
	// Empty means use defaults.
	WeightsFile string `yaml:"weights_file"`

	// WatchWeights hot-reloads the weights file on change.
	WatchWeights bool `yaml:"watch_weights"`

	// DebounceInterval is the reload debounce for the file watcher.
	DebounceInterval time.Duration `yaml:"debounce_interval"`
}

// RescoreConfig drives the scheduled admissibility re-scoring sweep.
type RescoreConfig struct {
	// Schedule is a standard cron expression; empty disables the sweep.
	Schedule string `yaml:"schedule"`

	// Timeout bounds one sweep.
	Timeout time.Duration `yaml:"timeout"`
}

// LoggingConfig configures the structured logger used in run mode.
type LoggingConfig struct {
	// Level is "debug", "info", "warn" or "error".
	Level string `yaml:"level"`

	// Format is "json" or "text".
	Format string `yaml:"format"`

	// RedactValues scrubs personal data from logged values.
	RedactValues bool `yaml:"redact_values"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled       bool   `yaml:"enabled"`
	ListenAddress string `yaml:"listen_address"`
	Namespace     string `yaml:"namespace"`
	Subsystem     string `yaml:"subsystem"`
}

// ApplyDefaults fills in zero-valued fields with their defaults.
func ApplyDefaults(cfg *Config) {
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = "sqlite"
	}
	if cfg.Storage.Path == "" {
		cfg.Storage.Path = "data/custody.db"
	}
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = "sqlite3"
	}
	if cfg.Storage.MaxOpenConns == 0 {
		cfg.Storage.MaxOpenConns = 10
	}
	if cfg.Storage.MaxIdleConns == 0 {
		cfg.Storage.MaxIdleConns = 5
	}
	if cfg.Storage.BusyTimeout == 0 {
		cfg.Storage.BusyTimeout = 5 * time.Second
	}
	if cfg.Scoring.DebounceInterval == 0 {
		cfg.Scoring.DebounceInterval = 100 * time.Millisecond
	}
	if cfg.Rescore.Timeout == 0 {
		cfg.Rescore.Timeout = 5 * time.Minute
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Metrics.ListenAddress == "" {
		cfg.Metrics.ListenAddress = ":9464"
	}
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = "custodia"
	}
	if cfg.Metrics.Subsystem == "" {
		cfg.Metrics.Subsystem = "custody"
	}
}

// Validate checks the configuration for invalid combinations.
func Validate(cfg *Config) error {
	switch cfg.Storage.Backend {
	case "sqlite", "memory":
	default:
		return fmt.Errorf("unknown storage backend %q (want \"sqlite\" or \"memory\")", cfg.Storage.Backend)
	}

	switch cfg.Storage.Driver {
	case "sqlite3", "sqlite":
	default:
		return fmt.Errorf("unknown sqlite driver %q (want \"sqlite3\" or \"sqlite\")", cfg.Storage.Driver)
	}

	if cfg.Storage.MaxOpenConns < 1 {
		return fmt.Errorf("storage.max_open_conns must be at least 1, got %d", cfg.Storage.MaxOpenConns)
	}
	if cfg.Storage.MaxIdleConns < 0 {
		return fmt.Errorf("storage.max_idle_conns must not be negative, got %d", cfg.Storage.MaxIdleConns)
	}

	if cfg.Scoring.WatchWeights && cfg.Scoring.WeightsFile == "" {
		return fmt.Errorf("scoring.watch_weights requires scoring.weights_file")
	}

	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", cfg.Logging.Level)
	}
	switch cfg.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("unknown log format %q (want \"json\" or \"text\")", cfg.Logging.Format)
	}

	return nil
}
