package catalog

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultWatchInterval is the fallback poll interval for the media watcher.
const DefaultWatchInterval = 2 * time.Second

// Watcher re-runs catalog synchronization when the media directory changes.
// Filesystem events trigger an immediate resync; a ticker additionally
// compares the directory mtime every interval so mounts that do not deliver
// inotify events still converge within one cycle.
type Watcher struct {
	catalog  *Catalog
	interval time.Duration
	logger   *slog.Logger

	// sync is swappable for tests.
	sync func(context.Context) error

	lastMtime time.Time
}

// NewWatcher constructs a watcher over the catalog's media directory.
// Intervals below one second are raised to the default.
func NewWatcher(catalog *Catalog, interval time.Duration, logger *slog.Logger) *Watcher {
	if interval < time.Second {
		interval = DefaultWatchInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		catalog:  catalog,
		interval: interval,
		logger:   logger,
		sync:     catalog.Sync,
	}
}

// Run watches until ctx is cancelled. It always returns nil on cancellation
// so it composes with an errgroup without tearing the group down.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		w.logger.Warn("fsnotify unavailable, falling back to polling only", "error", err)
		fsw = nil
	} else {
		if err := fsw.Add(w.catalog.MediaDir()); err != nil {
			w.logger.Warn("failed to watch media directory, falling back to polling only",
				"dir", w.catalog.MediaDir(), "error", err)
			_ = fsw.Close()
			fsw = nil
		}
	}
	if fsw != nil {
		defer func() { _ = fsw.Close() }()
	}

	w.lastMtime = w.dirMtime()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	var events <-chan fsnotify.Event
	var errs <-chan error
	if fsw != nil {
		events = fsw.Events
		errs = fsw.Errors
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			w.resync(ctx)
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			w.logger.Warn("media watcher error", "error", err)
		case <-ticker.C:
			if mtime := w.dirMtime(); !mtime.Equal(w.lastMtime) {
				w.resync(ctx)
			}
		}
	}
}

// resync runs one synchronization and, on success, remembers the directory
// mtime observed after the sync completed. A failed sync leaves the
// remembered mtime unchanged so the next tick retries.
func (w *Watcher) resync(ctx context.Context) {
	if err := w.sync(ctx); err != nil {
		w.logger.Error("media synchronization failed", "error", err)
		return
	}
	w.lastMtime = w.dirMtime()
	w.logger.Debug("media directory synchronized", "dir", w.catalog.MediaDir())
}

func (w *Watcher) dirMtime() time.Time {
	info, err := os.Stat(w.catalog.MediaDir())
	if err != nil {
		return time.Time{}
	}
	return info.ModTime()
}
