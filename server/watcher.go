package server

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"audioforge/cache"
	"audioforge/logger"
)

// WatchUploadsDir watches the local uploads directory and invalidates
// the metadata cache entry when a stored file disappears underneath the
// server. Metadata records are not touched; the stream route already
// reports "not found on disk" distinctly. Blocks until ctx is done.
func WatchUploadsDir(ctx context.Context, dir string, fileCache *cache.AudioFileCache) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return err
	}
	logger.Info("watching uploads directory", logger.String("dir", dir))

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			name := filepath.Base(event.Name)
			logger.Warn("uploaded file removed externally", logger.String("filename", name))
			fileCache.InvalidateByStoredName(ctx, name)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("uploads watcher error", logger.ErrorField(err))
		}
	}
}
