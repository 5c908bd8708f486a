// Package watch re-runs a callback when a file changes on disk.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Func is invoked once at start and after every debounced change.
type Func func(ctx context.Context) error

// Watcher monitors one file. The parent directory is watched so editors that
// save by rename are still picked up.
type Watcher struct {
	path     string
	debounce time.Duration
	fn       Func
	log      *zap.Logger
}

// New returns a Watcher for path. A non-positive debounce defaults to 300ms.
func New(path string, debounce time.Duration, fn Func, log *zap.Logger) *Watcher {
	if debounce <= 0 {
		debounce = 300 * time.Millisecond
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Watcher{path: filepath.Clean(path), debounce: debounce, fn: fn, log: log}
}

// Run blocks until ctx is done. Errors returned by fn are logged, not fatal.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()
	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(w.path), err)
	}
	w.log.Info("watching", zap.String("file", w.path))
	w.invoke(ctx)

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case evt, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(evt.Name) != w.path {
				continue
			}
			if evt.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.log.Debug("change", zap.String("file", evt.Name), zap.String("op", evt.Op.String()))
			timer.Reset(w.debounce)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watcher error", zap.Error(err))
		case <-timer.C:
			w.invoke(ctx)
		}
	}
}

func (w *Watcher) invoke(ctx context.Context) {
	if err := w.fn(ctx); err != nil {
		w.log.Error("run failed", zap.String("file", w.path), zap.Error(err))
	}
}
