package rescore

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// fakeRescorer counts sweep invocations.
type fakeRescorer struct {
	mu    sync.Mutex
	calls int
	count int
	err   error
}

func (f *fakeRescorer) RescoreAll(ctx context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.count, f.err
}

func (f *fakeRescorer) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestSchedulerStartStop(t *testing.T) {
	scheduler := NewScheduler(&fakeRescorer{}, &Config{
		Schedule: "0 3 * * *",
		Timeout:  time.Minute,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := scheduler.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if !scheduler.IsRunning() {
		t.Error("IsRunning() = false after Start()")
	}
	if scheduler.NextRun() == nil {
		t.Error("NextRun() = nil while running")
	}

	scheduler.Stop()
	if scheduler.IsRunning() {
		t.Error("IsRunning() = true after Stop()")
	}
}

func TestSchedulerEmptyScheduleDisabled(t *testing.T) {
	scheduler := NewScheduler(&fakeRescorer{}, &Config{})

	if err := scheduler.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if scheduler.IsRunning() {
		t.Error("IsRunning() = true with no schedule configured")
	}
}

func TestSchedulerInvalidSchedule(t *testing.T) {
	scheduler := NewScheduler(&fakeRescorer{}, &Config{Schedule: "not a cron line"})

	if err := scheduler.Start(context.Background()); err == nil {
		t.Error("Start() should reject an invalid schedule")
	}
}

func TestSchedulerStopsOnContextCancel(t *testing.T) {
	scheduler := NewScheduler(&fakeRescorer{}, &Config{Schedule: "* * * * *"})

	ctx, cancel := context.WithCancel(context.Background())
	if err := scheduler.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	cancel()

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if !scheduler.IsRunning() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Error("scheduler still running after context cancellation")
}

func TestRunSweep(t *testing.T) {
	rescorer := &fakeRescorer{count: 7}
	scheduler := NewScheduler(rescorer, &Config{Schedule: "0 3 * * *", Timeout: time.Minute})

	scheduler.runSweep(context.Background())
	if rescorer.callCount() != 1 {
		t.Errorf("RescoreAll called %d times, want 1", rescorer.callCount())
	}

	// A failing sweep is logged, not fatal; the next sweep still runs.
	rescorer.err = errors.New("storage unavailable")
	scheduler.runSweep(context.Background())
	if rescorer.callCount() != 2 {
		t.Errorf("RescoreAll called %d times, want 2", rescorer.callCount())
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Schedule != "" {
		t.Errorf("Schedule = %q, want empty (disabled)", cfg.Schedule)
	}
	if cfg.Timeout != 5*time.Minute {
		t.Errorf("Timeout = %v, want 5m", cfg.Timeout)
	}
}
