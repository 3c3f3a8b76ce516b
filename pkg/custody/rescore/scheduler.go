// Package rescore runs scheduled admissibility re-scoring sweeps. Scores
// are always derivable from registry and ledger state; the sweep keeps the
// stored values in step with that state after weight-table reloads or
// out-of-band custody activity. Nothing is ever deleted — evidence and
// custody events are retained for the process lifetime and beyond.
package rescore

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Rescorer is the subset of the custody service the scheduler drives.
type Rescorer interface {
	RescoreAll(ctx context.Context) (int, error)
}

// Config contains configuration for the rescore scheduler.
type Config struct {
	// Schedule is a standard cron expression (e.g. "0 3 * * *" for daily
	// at 3 AM). Empty disables the scheduler.
	Schedule string `yaml:"schedule"`

	// Timeout bounds one sweep. Default: 5 minutes.
	Timeout time.Duration `yaml:"timeout"`
}

// DefaultConfig returns the default scheduler configuration.
func DefaultConfig() *Config {
	return &Config{
		Schedule: "",
		Timeout:  5 * time.Minute,
	}
}

// Scheduler runs admissibility re-scoring sweeps on a cron schedule.
type Scheduler struct {
	rescorer Rescorer
	config   *Config
	cron     *cron.Cron
	mu       sync.Mutex
	logger   *slog.Logger
	running  bool
}

// NewScheduler creates a rescore scheduler. A nil config uses defaults.
func NewScheduler(rescorer Rescorer, config *Config) *Scheduler {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Timeout <= 0 {
		config.Timeout = 5 * time.Minute
	}
	return &Scheduler{
		rescorer: rescorer,
		config:   config,
		cron:     cron.New(),
		logger:   slog.Default().With("component", "custody.rescore"),
	}
}

// Start begins scheduled sweeps. If no schedule is configured the
// scheduler does nothing.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.config.Schedule == "" {
		s.logger.Info("rescore schedule not configured, skipping scheduler")
		return nil
	}

	if _, err := cron.ParseStandard(s.config.Schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", s.config.Schedule, err)
	}

	_, err := s.cron.AddFunc(s.config.Schedule, func() {
		s.runSweep(ctx)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule rescoring: %w", err)
	}

	s.cron.Start()
	s.running = true

	s.logger.Info("rescore scheduler started",
		"schedule", s.config.Schedule,
		"timeout", s.config.Timeout,
	)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// runSweep executes one re-scoring sweep.
func (s *Scheduler) runSweep(ctx context.Context) {
	sweepCtx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	start := time.Now()
	count, err := s.rescorer.RescoreAll(sweepCtx)
	if err != nil {
		s.logger.Error("scheduled rescoring failed",
			"rescored", count,
			"error", err,
		)
		return
	}

	s.logger.Info("scheduled rescoring completed",
		"rescored", count,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}

// Stop stops the scheduler and waits for a running sweep to complete.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil && s.running {
		ctx := s.cron.Stop()
		<-ctx.Done()
		s.running = false
		s.logger.Info("rescore scheduler stopped")
	}
}

// IsRunning reports whether the scheduler is running.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.running
}

// NextRun returns the next scheduled sweep time, or nil when idle.
func (s *Scheduler) NextRun() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.cron.Entries()
	if len(entries) == 0 {
		return nil
	}
	next := entries[0].Next
	return &next
}
