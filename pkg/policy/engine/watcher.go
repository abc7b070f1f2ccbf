package engine

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ericmann/firebreak/pkg/policy"
)

// DefaultDebounceInterval is how long the watcher waits after a file event
// before reloading, so editors that write in multiple steps trigger one
// reload instead of a storm.
const DefaultDebounceInterval = 100 * time.Millisecond

// Watcher reloads the engine's policy when the backing file changes.
// A reload that fails validation keeps the previous policy in effect:
// load is all-or-nothing, so a broken edit can never leave the engine
// running without a valid policy.
type Watcher struct {
	engine   *Engine
	path     string
	debounce time.Duration
	logger   *slog.Logger
}

// NewWatcher creates a watcher for the given policy file.
func NewWatcher(engine *Engine, path string) *Watcher {
	return &Watcher{
		engine:   engine,
		path:     path,
		debounce: DefaultDebounceInterval,
		logger:   slog.Default().With("component", "policy.watcher"),
	}
}

// Watch blocks, reloading the policy on file changes, until ctx is
// cancelled. The parent directory is watched rather than the file itself so
// atomic rename-into-place saves are observed.
func (w *Watcher) Watch(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer fsw.Close()

	dir := filepath.Dir(w.path)
	if err := fsw.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %q: %w", dir, err)
	}

	w.logger.Info("policy watcher started",
		"path", w.path,
		"debounce_ms", w.debounce.Milliseconds(),
	)

	var timer *time.Timer
	var timerCh <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("policy watcher stopped")
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if !w.relevant(event) {
				continue
			}
			w.logger.Debug("policy file event",
				"path", event.Name,
				"op", event.Op.String(),
			)
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerCh = timer.C
			} else {
				timer.Reset(w.debounce)
			}

		case <-timerCh:
			timer = nil
			timerCh = nil
			w.reload()

		case err, ok := <-fsw.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.logger.Warn("policy watcher error", "error", err)
		}
	}
}

// relevant filters events down to writes of the watched policy file.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != filepath.Clean(w.path) {
		return false
	}
	return event.Op.Has(fsnotify.Write) || event.Op.Has(fsnotify.Create) || event.Op.Has(fsnotify.Rename)
}

// reload parses the file and swaps the policy in. Validation failures are
// logged and the previous policy stays active.
func (w *Watcher) reload() {
	p, err := policy.Load(w.path)
	if err != nil {
		w.logger.Error("policy reload failed, keeping previous policy",
			"path", w.path,
			"error", err,
		)
		return
	}
	w.engine.Reload(p)
}
