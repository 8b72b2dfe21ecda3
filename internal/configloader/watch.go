package configloader

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/yaklabco/gorulesync/internal/logging"
)

// watchedOps are the events that can change a watched file's content.
const watchedOps = fsnotify.Create | fsnotify.Write | fsnotify.Remove | fsnotify.Rename

// Watch calls onChange whenever the project file is created, written,
// removed or renamed. It blocks until ctx is done.
// Polling stays authoritative; Watch only shortens the delay.
func (r *Resolver) Watch(ctx context.Context, onChange func()) error {
	return WatchFile(ctx, r.Path(), onChange)
}

// WatchFile calls onChange whenever the file at path changes.
// The parent directory is watched so that editors replacing the file by
// rename are observed. It blocks until ctx is done.
func WatchFile(ctx context.Context, path string, onChange func()) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve absolute path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(absPath)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(absPath), err)
	}

	logger := logging.FromContext(ctx)
	logger.Debug("watching file", logging.FieldPath, absPath)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != absPath || !event.Op.Has(watchedOps) {
				continue
			}
			logger.Debug("file changed", logging.FieldPath, absPath, "op", event.Op.String())
			onChange()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error", logging.FieldPath, absPath, logging.FieldError, err)
		}
	}
}
