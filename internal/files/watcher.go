package files

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ChangeFunc is called once per burst of inbox changes.
type ChangeFunc func(ctx context.Context) error

// Watcher monitors an inbox directory and calls onChange after exports were
// created, rewritten or renamed into it. Events closer together than the
// debounce interval are folded into a single call.
type Watcher struct {
	dir      string
	debounce time.Duration
	onChange ChangeFunc
	logger   *slog.Logger
}

// NewWatcher creates an inbox watcher.
func NewWatcher(dir string, debounce time.Duration, onChange ChangeFunc, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	if debounce <= 0 {
		debounce = time.Second
	}
	return &Watcher{
		dir:      dir,
		debounce: debounce,
		onChange: onChange,
		logger:   logger.With(slog.String("component", "inbox_watcher"), slog.String("dir", dir)),
	}
}

// Run watches until ctx is cancelled. Errors from onChange are logged and
// watching continues.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}
	w.logger.Info("watching inbox", slog.Duration("debounce", w.debounce))

	// Reset discards a pending expiry since Go 1.23, so no draining is needed.
	timer := time.NewTimer(w.debounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil

		case evt, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !relevant(evt) {
				continue
			}
			w.logger.Debug("inbox change", slog.String("file", evt.Name), slog.String("op", evt.Op.String()))
			timer.Reset(w.debounce)

		case <-timer.C:
			if err := w.onChange(ctx); err != nil {
				w.logger.Error("inbox run failed", slog.String("error", err.Error()))
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", slog.String("error", err.Error()))
		}
	}
}

func relevant(evt fsnotify.Event) bool {
	if evt.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
		return false
	}
	return IsWorkbook(evt.Name)
}
