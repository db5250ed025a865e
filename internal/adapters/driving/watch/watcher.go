// Package watch triggers a sync when files under a directory change.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/sercha-chat/internal/adapters/driven/source/filesystem"
	"github.com/custodia-labs/sercha-chat/internal/core/domain"
	"github.com/custodia-labs/sercha-chat/internal/logger"
)

// DefaultDebounce is the quiet period used when none is configured.
const DefaultDebounce = 2 * time.Second

// Trigger starts a sync.
type Trigger func(ctx context.Context) error

// Watcher watches a directory tree and calls its trigger once changes
// have settled for the debounce period. Hidden paths are ignored.
type Watcher struct {
	root     string
	debounce time.Duration
	trigger  Trigger
}

// New creates a watcher for root.
func New(root string, debounce time.Duration, trigger Trigger) (*Watcher, error) {
	if root == "" {
		return nil, fmt.Errorf("%w: watch root is required", domain.ErrInvalidInput)
	}
	if trigger == nil {
		return nil, fmt.Errorf("%w: watch trigger is required", domain.ErrInvalidInput)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{root: root, debounce: debounce, trigger: trigger}, nil
}

// Run watches until ctx is cancelled. A cancelled context is not an error.
// Trigger failures are logged and watching continues.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	if err := w.addTree(fw, w.root); err != nil {
		return err
	}
	logger.Info("Watching %s", w.root)

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			logger.Debug("Change: %s %s", event.Op, event.Name)
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addTree(fw, event.Name); err != nil {
						logger.Warn("Watch %s: %v", event.Name, err)
					}
				}
			}
			timer.Reset(w.debounce)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error: %v", err)

		case <-timer.C:
			w.fire(ctx)
		}
	}
}

// fire runs the trigger once.
func (w *Watcher) fire(ctx context.Context) {
	err := w.trigger(ctx)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrSyncInProgress):
		logger.Info("Sync already running, skipping")
	case ctx.Err() != nil:
	default:
		logger.Warn("Sync failed: %v", err)
	}
}

// relevant reports whether an event should schedule a sync.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod || event.Op == 0 {
		return false
	}
	rel, err := filepath.Rel(w.root, event.Name)
	if err != nil {
		return false
	}
	return !filepath.IsAbs(rel) && !filesystem.IsHidden(rel)
}

// addTree adds dir and its non-hidden subdirectories.
func (w *Watcher) addTree(fw *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("walk %s: %w", path, err)
		}
		if !d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(w.root, path)
		if err != nil {
			return err
		}
		if rel != "." && filesystem.IsHidden(rel) {
			return filepath.SkipDir
		}
		if err := fw.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}
