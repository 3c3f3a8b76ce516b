package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Default returns a fully defaulted configuration, equivalent to loading
// an empty file.
func Default() *Config {
	cfg := &Config{
		Storage: StorageConfig{WALMode: true},
	}
	ApplyDefaults(cfg)
	return cfg
}

// LoadConfig loads configuration from a YAML file at the specified path.
// Unset fields fall back to defaults; `wal_mode: false` in the file still
// wins because unmarshalling happens over the defaulted struct.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg := &Config{Storage: StorageConfig{WALMode: true}}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and
// applies environment variable overrides. Environment variables follow the
// naming convention CUSTODIA_SECTION_FIELD (e.g. CUSTODIA_STORAGE_PATH)
// and always take precedence over file-based configuration.
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies CUSTODIA_* environment variable overrides.
func applyEnvOverrides(cfg *Config) {
	// Storage overrides
	if val := os.Getenv("CUSTODIA_STORAGE_BACKEND"); val != "" {
		cfg.Storage.Backend = val
	}
	if val := os.Getenv("CUSTODIA_STORAGE_PATH"); val != "" {
		cfg.Storage.Path = val
	}
	if val := os.Getenv("CUSTODIA_STORAGE_DRIVER"); val != "" {
		cfg.Storage.Driver = val
	}
	if val := os.Getenv("CUSTODIA_STORAGE_BUSY_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Storage.BusyTimeout = d
		}
	}

	// Scoring overrides
	if val := os.Getenv("CUSTODIA_SCORING_WEIGHTS_FILE"); val != "" {
		cfg.Scoring.WeightsFile = val
	}
	if val := os.Getenv("CUSTODIA_SCORING_WATCH_WEIGHTS"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Scoring.WatchWeights = b
		}
	}

	// Rescore overrides
	if val := os.Getenv("CUSTODIA_RESCORE_SCHEDULE"); val != "" {
		cfg.Rescore.Schedule = val
	}
	if val := os.Getenv("CUSTODIA_RESCORE_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Rescore.Timeout = d
		}
	}

	// Logging overrides
	if val := os.Getenv("CUSTODIA_LOGGING_LEVEL"); val != "" {
		cfg.Logging.Level = val
	}
	if val := os.Getenv("CUSTODIA_LOGGING_FORMAT"); val != "" {
		cfg.Logging.Format = val
	}

	// Metrics overrides
	if val := os.Getenv("CUSTODIA_METRICS_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Metrics.Enabled = b
		}
	}
	if val := os.Getenv("CUSTODIA_METRICS_LISTEN_ADDRESS"); val != "" {
		cfg.Metrics.ListenAddress = val
	}
}
