package watch

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce is how long the tree has to be quiet before a rebuild
const DefaultDebounce = 500 * time.Millisecond

// Watcher reports batches of changed files under a directory tree
type Watcher struct {
	Root     string
	Debounce time.Duration
	// Ignore filters paths relative to Root, e.g. the packaging excludes
	Ignore func(rel string) bool
	Logger *zap.Logger
}

// Run watches Root until ctx is cancelled, calling onChange with the sorted
// relative paths that changed since the last call. onChange runs on the
// watcher goroutine, so changes that arrive while it runs are batched into
// the next call. An error from onChange is logged and watching continues.
func (w *Watcher) Run(ctx context.Context, onChange func(changed []string) error) error {
	logger := w.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	debounce := w.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = fw.Close() }()

	if err := w.addTree(fw, w.Root); err != nil {
		return err
	}

	pending := map[string]struct{}{}
	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			rel, err := filepath.Rel(w.Root, ev.Name)
			if err != nil || w.ignored(rel) {
				continue
			}
			if ev.Op == fsnotify.Chmod {
				continue
			}

			// new directories need their own watch
			if ev.Op.Has(fsnotify.Create) {
				if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
					if err := w.addTree(fw, ev.Name); err != nil {
						logger.Warn("failed to watch new directory", zap.String("dir", ev.Name), zap.Error(err))
					}
				}
			}

			logger.Debug("change detected", zap.String("path", rel), zap.String("op", ev.Op.String()))
			pending[filepath.ToSlash(rel)] = struct{}{}
			timer.Reset(debounce)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", zap.Error(err))

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			changed := make([]string, 0, len(pending))
			for p := range pending {
				changed = append(changed, p)
			}
			sort.Strings(changed)
			pending = map[string]struct{}{}

			if err := onChange(changed); err != nil {
				logger.Error("rebuild failed", zap.Error(err))
			}
		}
	}
}

func (w *Watcher) ignored(rel string) bool {
	return rel != "." && w.Ignore != nil && w.Ignore(rel)
}

// addTree watches dir and every non-ignored directory below it
func (w *Watcher) addTree(fw *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(w.Root, path)
		if err != nil {
			return err
		}
		if w.ignored(rel) {
			return filepath.SkipDir
		}
		if err := fw.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}
