package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const defaultDebounce = 200 * time.Millisecond

// Watcher re-runs a conversion whenever a single file changes. It watches
// the parent directory so that editors which save by rename are noticed.
type Watcher struct {
	path     string
	debounce time.Duration
	watcher  *fsnotify.Watcher
}

// NewWatcher prepares a watch on path. Call Run to start it.
func NewWatcher(path string, debounce time.Duration) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	return &Watcher{path: abs, debounce: debounce, watcher: fw}, nil
}

// Run calls fn once, then again after each burst of writes to the file,
// until ctx is cancelled. Errors from fn are logged, not returned, since
// the file may be caught mid-write. Run closes the underlying watcher.
func (w *Watcher) Run(ctx context.Context, fn func() error) error {
	defer w.watcher.Close()

	if err := fn(); err != nil {
		logger.Warn("conversion failed", zap.String("path", w.path), zap.Error(err))
	}

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			dbg("watch on %s stopped", w.path)
			return nil

		case ev, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			dbg("event %s", ev)
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			if err := fn(); err != nil {
				logger.Warn("conversion failed", zap.String("path", w.path), zap.Error(err))
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", zap.Error(err))
		}
	}
}
