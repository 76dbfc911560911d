package exporter

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceWindow coalesces the burst of writes Granola makes when it
// saves the cache file into a single trigger.
const debounceWindow = 2 * time.Second

// CacheWatcher watches the Granola cache file and signals when it has
// been rewritten, so a sync pass can run without waiting for the next
// scheduled tick.
type CacheWatcher struct {
	path   string
	logger *slog.Logger
}

// NewCacheWatcher creates a watcher for the cache file at path.
func NewCacheWatcher(path string, logger *slog.Logger) *CacheWatcher {
	return &CacheWatcher{path: path, logger: logger}
}

// Watch blocks until the context is cancelled, sending on trigger each
// time the cache file settles after a write. The send is non-blocking:
// a pass already pending absorbs further triggers.
func (w *CacheWatcher) Watch(ctx context.Context, trigger chan<- struct{}) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating fsnotify watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the containing directory: Granola replaces the cache file
	// atomically, so watching the file itself would lose the watch on
	// the first rename.
	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watching cache directory: %w", err)
	}

	var debounce *time.Timer

	var debounceC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return fmt.Errorf("fsnotify events channel closed")
			}

			if filepath.Clean(event.Name) != w.path {
				continue
			}

			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}

			if debounce == nil {
				debounce = time.NewTimer(debounceWindow)
				debounceC = debounce.C
			} else {
				if !debounce.Stop() {
					<-debounce.C
				}

				debounce.Reset(debounceWindow)
			}

		case <-debounceC:
			debounce = nil
			debounceC = nil

			w.logger.Debug("cache file changed", slog.String("path", w.path))

			select {
			case trigger <- struct{}{}:
			default:
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return fmt.Errorf("fsnotify errors channel closed")
			}

			w.logger.Warn("cache watcher error", slog.String("error", err.Error()))
		}
	}
}
