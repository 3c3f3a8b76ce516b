package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"custodia-hq/custodia/pkg/cli"
	"custodia-hq/custodia/pkg/config"
	"custodia-hq/custodia/pkg/custody/scoring"
	"custodia-hq/custodia/pkg/custody/service"
	"custodia-hq/custodia/pkg/custody/storage"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "custodia",
	Short: "Custodia - evidentiary integrity and custody ledger",
	Long: `Custodia is an evidentiary integrity and chain-of-custody ledger for
digital evidence.

It provides:
  - SHA-256 content fingerprinting and tamper detection
  - An append-only custody timeline per evidence item
  - Parent/child derivation tracking (e.g. an enhanced copy of a photo)
  - Admissibility scoring from source reliability and custody completeness
  - Cross-evidence corroboration per case

For more information, visit: https://github.com/custodia-hq/custodia`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global persistent flags (available to all subcommands)
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// loadConfig loads the configuration file named by --config. A missing
// file is not an error: one-shot commands run fine on defaults.
func loadConfig() (*config.Config, error) {
	if _, err := os.Stat(cfgFile); errors.Is(err, os.ErrNotExist) {
		return config.Default(), nil
	}
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return nil, cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}
	return cfg, nil
}

// openStorage creates the configured storage backend. The returned closer
// is never nil.
func openStorage(cfg *config.Config) (service.Stores, io.Closer, error) {
	switch cfg.Storage.Backend {
	case "sqlite":
		s, err := storage.NewSQLiteStorage(&storage.SQLiteConfig{
			Path:         cfg.Storage.Path,
			Driver:       cfg.Storage.Driver,
			MaxOpenConns: cfg.Storage.MaxOpenConns,
			MaxIdleConns: cfg.Storage.MaxIdleConns,
			WALMode:      cfg.Storage.WALMode,
			BusyTimeout:  cfg.Storage.BusyTimeout,
		})
		if err != nil {
			return service.Stores{}, nil, fmt.Errorf("failed to open sqlite storage: %w", err)
		}
		return service.Stores{Evidence: s, Events: s, Cases: s}, s, nil
	case "memory":
		s := storage.NewMemoryStorage()
		return service.Stores{Evidence: s, Events: s, Cases: s}, s, nil
	default:
		return service.Stores{}, nil, cli.NewConfigError("storage.backend", fmt.Sprintf("unsupported backend %q", cfg.Storage.Backend))
	}
}

// newScorer builds the scorer from config, loading the weights file when
// one is configured.
func newScorer(cfg *config.Config) (*scoring.Scorer, error) {
	if cfg.Scoring.WeightsFile == "" {
		return scoring.NewScorer(nil), nil
	}
	weights, err := scoring.LoadConfigFile(cfg.Scoring.WeightsFile)
	if err != nil {
		return nil, cli.NewConfigError("scoring.weights_file", err.Error())
	}
	return scoring.NewScorer(weights), nil
}

// openService wires a custody service for a one-shot command. The caller
// must close the returned closer.
func openService() (*service.Service, io.Closer, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	stores, closer, err := openStorage(cfg)
	if err != nil {
		return nil, nil, err
	}
	scorer, err := newScorer(cfg)
	if err != nil {
		closer.Close()
		return nil, nil, err
	}
	// One-shot commands skip metrics; only `run` serves an endpoint.
	return service.New(stores, scorer, nil), closer, nil
}
