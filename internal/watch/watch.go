// Package watch merges edits of a mapping file into a running store.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"ctrlvocab/internal/logging"
	"ctrlvocab/internal/snapshot"
	"ctrlvocab/internal/vocab"
)

const defaultDebounce = 200 * time.Millisecond

// Options tunes a Watcher.
type Options struct {
	// Debounce is the quiet period after the last change before the file
	// is re-read.
	Debounce time.Duration
	// LockTimeout bounds the wait for the snapshot lock on each reload.
	LockTimeout time.Duration
}

// Watcher re-reads a mapping file whenever it changes and merges keys the
// store does not know yet. Existing keys are never overwritten.
type Watcher struct {
	path    string
	store   *vocab.Store
	logger  *slog.Logger
	opts    Options
	watcher *fsnotify.Watcher

	reloads int
	added   int
}

// New starts watching the directory holding path. Editors often replace a
// file instead of writing it in place, so the directory is watched and
// events are filtered by name.
func New(path string, store *vocab.Store, logger *slog.Logger, opts Options) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}
	if opts.Debounce <= 0 {
		opts.Debounce = defaultDebounce
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}
	return &Watcher{
		path:    abs,
		store:   store,
		logger:  logging.NewComponentLogger(logger, "watch"),
		opts:    opts,
		watcher: fw,
	}, nil
}

// Run handles events until ctx ends, then releases the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	w.logger.Debug("watching mapping file", logging.String("path", w.path))
	for {
		select {
		case <-ctx.Done():
			w.logger.Debug("watch stopped",
				logging.Int("reloads", w.reloads),
				logging.Int("added", w.added),
			)
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.opts.Debounce)
			} else {
				timer.Reset(w.opts.Debounce)
			}
			fire = timer.C
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			logging.WarnWithContext(w.logger, "mapping watch error", "watch_error",
				logging.Error(err),
				logging.String(logging.FieldImpact, "edits to the mapping file may be missed"),
			)
		case <-fire:
			fire = nil
			w.reload(ctx)
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != w.path {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename)
}

func (w *Watcher) reload(ctx context.Context) {
	entries, err := snapshot.Load(ctx, w.path, snapshot.Options{LockTimeout: w.opts.LockTimeout, Logger: w.logger})
	if err != nil {
		logging.WarnWithContext(w.logger, "mapping reload failed", "watch_reload_failed",
			logging.String("path", w.path),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "fix the mapping file; it is re-read on the next save"),
		)
		return
	}
	w.reloads++
	added := w.store.Merge(entries)
	w.added += added
	if added > 0 {
		w.logger.Info("mapping file merged",
			logging.String("path", w.path),
			logging.Int("added", added),
		)
	}
}
