package scoring

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// LoadConfigFile reads a scoring configuration from a YAML file. Missing
// fields fall back to defaults so a weights file only needs to list the
// overrides it cares about.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read weights file %q: %w", path, err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse weights file %q: %w", path, err)
	}

	for sourceType, weight := range cfg.Weights {
		if weight < 0 || weight > 1 {
			return nil, fmt.Errorf("weight for %q out of range [0,1]: %v", sourceType, weight)
		}
	}
	if cfg.DefaultWeight < 0 || cfg.DefaultWeight > 1 {
		return nil, fmt.Errorf("default weight out of range [0,1]: %v", cfg.DefaultWeight)
	}

	return cfg, nil
}

// Watcher watches a weights YAML file for changes and hot-reloads the
// scorer's configuration. It debounces rapid write bursts so a single save
// triggers a single reload.
type Watcher struct {
	scorer   *Scorer
	path     string
	debounce time.Duration
	logger   *slog.Logger

	mu      sync.Mutex
	running bool
}

// NewWatcher creates a watcher for the given weights file.
func NewWatcher(scorer *Scorer, path string, debounce time.Duration) *Watcher {
	if debounce <= 0 {
		debounce = 100 * time.Millisecond
	}
	return &Watcher{
		scorer:   scorer,
		path:     path,
		debounce: debounce,
		logger:   slog.Default().With("component", "custody.scoring.watcher"),
	}
}

// Watch loads the file once, then blocks reloading on every change until
// the context is cancelled. A reload that fails to parse keeps the previous
// table; a broken edit never degrades scoring to zero weights.
func (w *Watcher) Watch(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("watcher already running")
	}
	w.running = true
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
	}()

	if err := w.reload(); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory, not the file: editors replace files on save,
	// which drops a watch registered on the file itself.
	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("failed to watch %q: %w", w.path, err)
	}

	w.logger.Info("weights watcher started",
		"path", w.path,
		"debounce_ms", w.debounce.Milliseconds(),
	)

	var timer *time.Timer
	var timerCh <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("weights watcher stopped")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerCh = timer.C
			} else {
				timer.Reset(w.debounce)
			}

		case <-timerCh:
			timer = nil
			timerCh = nil
			if err := w.reload(); err != nil {
				w.logger.Error("weights reload failed, keeping previous table",
					"path", w.path,
					"error", err,
				)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("weights watcher error", "error", err)
		}
	}
}

// reload parses the weights file and swaps it into the scorer.
func (w *Watcher) reload() error {
	cfg, err := LoadConfigFile(w.path)
	if err != nil {
		return err
	}
	w.scorer.Reload(cfg)
	return nil
}
