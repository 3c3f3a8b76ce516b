package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"custodia-hq/custodia/pkg/cli"
	"custodia-hq/custodia/pkg/custody/rescore"
	"custodia-hq/custodia/pkg/custody/scoring"
	"custodia-hq/custodia/pkg/custody/service"
	"custodia-hq/custodia/pkg/telemetry/health"
	"custodia-hq/custodia/pkg/telemetry/logging"
	"custodia-hq/custodia/pkg/telemetry/metrics"
)

var runFlags struct {
	logLevel string
	dryRun   bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the long-lived custody service",
	Long: `Run Custodia as a long-lived process.

This mode serves the Prometheus metrics endpoint, runs the scheduled
admissibility re-scoring sweep, and hot-reloads the source-weight table
when the weights file changes.

Examples:
  # Run with default config
  custodia run

  # Run with custom config
  custodia run --config /etc/custodia/config.yaml

  # Validate config without starting
  custodia run --dry-run`,
	RunE: runService,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting")
}

func runService(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// --log-level wins over the config file when set.
	logLevel := cfg.Logging.Level
	if cmd.Flags().Changed("log-level") {
		logLevel = runFlags.logLevel
	}
	logger, err := logging.New(logging.Config{
		Level:        logLevel,
		Format:       cfg.Logging.Format,
		RedactValues: cfg.Logging.RedactValues,
	})
	if err != nil {
		return cli.NewConfigError("logging", err.Error())
	}
	slog.SetDefault(logger)

	if runFlags.dryRun {
		fmt.Println("✓ Configuration valid")
		return nil
	}

	fmt.Printf("Custodia v%s\n", Version)
	fmt.Printf("Loading configuration from: %s\n", cfgFile)
	fmt.Println("✓ Configuration loaded")

	stores, closer, err := openStorage(cfg)
	if err != nil {
		return err
	}
	defer closer.Close()
	fmt.Printf("✓ Storage initialized (%s)\n", cfg.Storage.Backend)

	scorer, err := newScorer(cfg)
	if err != nil {
		return err
	}

	var collector *metrics.Collector
	if cfg.Metrics.Enabled {
		collector = metrics.NewCollector(&metrics.Config{
			Namespace: cfg.Metrics.Namespace,
			Subsystem: cfg.Metrics.Subsystem,
		}, nil)
	}

	svc := service.New(stores, scorer, collector)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Weights hot-reload watcher
	if cfg.Scoring.WatchWeights {
		watcher := scoring.NewWatcher(scorer, cfg.Scoring.WeightsFile, cfg.Scoring.DebounceInterval)
		go func() {
			if err := watcher.Watch(ctx); err != nil {
				slog.Error("weights watcher stopped", "error", err)
			}
		}()
		fmt.Printf("✓ Watching weights file: %s\n", cfg.Scoring.WeightsFile)
	}

	// Scheduled re-scoring sweep
	if cfg.Rescore.Schedule != "" {
		scheduler := rescore.NewScheduler(svc, &rescore.Config{
			Schedule: cfg.Rescore.Schedule,
			Timeout:  cfg.Rescore.Timeout,
		})
		if err := scheduler.Start(ctx); err != nil {
			return cli.NewCommandError("run", err)
		}
		defer scheduler.Stop()
		if next := scheduler.NextRun(); next != nil {
			fmt.Printf("✓ Rescore scheduler started (next run: %s)\n", next.Format(time.RFC3339))
		}
	}

	// Metrics and health endpoints
	var metricsServer *http.Server
	errChan := make(chan error, 1)
	if cfg.Metrics.Enabled {
		checker := health.New(0)
		if pinger, ok := closer.(interface {
			Ping(ctx context.Context) error
		}); ok {
			checker.RegisterCheck("storage", pinger.Ping)
		}

		mux := http.NewServeMux()
		mux.Handle("/metrics", collector.Handler())
		health.Register(mux, checker, Version, GitCommit, BuildDate)
		metricsServer = &http.Server{
			Addr:              cfg.Metrics.ListenAddress,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			slog.Info("starting metrics server", "address", cfg.Metrics.ListenAddress)
			if err := metricsServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				errChan <- fmt.Errorf("metrics server error: %w", err)
			}
		}()
		fmt.Printf("✓ Metrics endpoint: http://%s/metrics\n", cfg.Metrics.ListenAddress)
		fmt.Printf("✓ Health endpoints: /health /ready /version\n")
	}

	fmt.Println("\nPress Ctrl+C to stop")

	sigChan := cli.WaitForShutdown()

	select {
	case err := <-errChan:
		return cli.NewCommandError("run", err)
	case sig := <-sigChan:
		fmt.Printf("\nReceived signal %s, shutting down gracefully...\n", sig)
		cancel()

		if metricsServer != nil {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer shutdownCancel()
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				slog.Error("shutdown failed", "error", err)
				return cli.NewCommandError("run", err)
			}
		}

		fmt.Println("✓ Service stopped")
		return nil
	}
}
