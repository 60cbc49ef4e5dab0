package storage

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// ModifiedCallback is called when a backing file changed on disk without
// going through this process. kind is "modified" or "removed".
type ModifiedCallback func(kind string, name string)

// Watch observes the data directory until ctx is cancelled and reports
// backing files whose content no longer matches the image this process last
// read or wrote. Stores are never reloaded: the in-memory state stays
// authoritative and the next mutation overwrites the outside change.
func (f *FS) Watch(ctx context.Context, logger *slog.Logger, cb ModifiedCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(f.root); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("root", f.root))

	for {
		select {
		case <-ctx.Done():
			logger.Info("watcher: stopped")
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			name := filepath.Base(ev.Name)
			if ignoredName(name) {
				continue
			}
			known, tracked := f.lastWritten(name)
			if !tracked {
				continue
			}

			switch {
			case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
				data, readErr := os.ReadFile(ev.Name)
				if readErr != nil {
					if !errors.Is(readErr, fs.ErrNotExist) {
						logger.Warn("watcher: read failed", slog.String("file", name), slog.String("error", readErr.Error()))
					}
					continue
				}
				if checksum(data) == known {
					continue
				}
				logger.Warn("backing file modified outside recipebox",
					slog.String("event_type", "storage_external_modification"),
					slog.String("file", name),
					slog.String("impact", "in-memory state is authoritative and will overwrite the file on the next change"))
				if cb != nil {
					cb("modified", name)
				}

			case ev.Op&fsnotify.Remove != 0:
				logger.Warn("backing file removed outside recipebox",
					slog.String("event_type", "storage_external_modification"),
					slog.String("file", name),
					slog.String("impact", "file is recreated on the next change"))
				if cb != nil {
					cb("removed", name)
				}
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// ignoredName filters temp files and the lock file.
func ignoredName(name string) bool {
	return name == lockName || strings.HasPrefix(name, ".recipebox-tmp-")
}
