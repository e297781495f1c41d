// Package catalog keeps the videos table synchronized with the .mp4 files in
// the media directory.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"reelroom/internal/observability/metrics"
	"reelroom/internal/storage"
)

// Catalog scans the media directory and reconciles the videos table.
type Catalog struct {
	store    *storage.Store
	mediaDir string
	logger   *slog.Logger
	metrics  *metrics.Recorder

	// One sync at a time; the watcher and list handlers may race otherwise.
	syncMu sync.Mutex
}

// New constructs a catalog over the provided store and media directory.
func New(store *storage.Store, mediaDir string, logger *slog.Logger, recorder *metrics.Recorder) *Catalog {
	if logger == nil {
		logger = slog.Default()
	}
	if recorder == nil {
		recorder = metrics.Default()
	}
	return &Catalog{store: store, mediaDir: mediaDir, logger: logger, metrics: recorder}
}

// MediaDir returns the directory the catalog watches.
func (c *Catalog) MediaDir() string {
	return c.mediaDir
}

// TitleFromFilename derives a display title from an on-disk basename: the
// final extension is dropped and underscores and dashes become spaces. An
// empty derivation falls back to the raw filename.
func TitleFromFilename(filename string) string {
	base := filepath.Base(filename)
	title := strings.TrimSuffix(base, filepath.Ext(base))
	title = strings.Map(func(r rune) rune {
		if r == '_' || r == '-' {
			return ' '
		}
		return r
	}, title)
	if title == "" {
		return filename
	}
	return title
}

func isMediaFile(name string) bool {
	if strings.HasPrefix(name, ".") {
		return false
	}
	return strings.EqualFold(filepath.Ext(name), ".mp4")
}

// Sync makes the videos table equal to the set of .mp4 files present in the
// media directory. Upsert failures abort the pass without pruning, so a
// transient store error never deletes catalog rows.
func (c *Catalog) Sync(ctx context.Context) error {
	c.syncMu.Lock()
	defer c.syncMu.Unlock()

	entries, err := os.ReadDir(c.mediaDir)
	if err != nil {
		c.metrics.ObserveCatalogSync(false)
		return fmt.Errorf("read media dir: %w", err)
	}

	live := make([]string, 0, len(entries))
	for _, entry := range entries {
		if ctx.Err() != nil {
			c.metrics.ObserveCatalogSync(false)
			return ctx.Err()
		}
		if !entry.Type().IsRegular() || !isMediaFile(entry.Name()) {
			continue
		}
		name := entry.Name()
		if _, err := c.store.UpsertVideo(TitleFromFilename(name), name, "", 0); err != nil {
			c.metrics.ObserveCatalogSync(false)
			return fmt.Errorf("upsert %s: %w", name, err)
		}
		live = append(live, name)
	}

	if err := c.store.PruneMissingVideos(live); err != nil {
		c.metrics.ObserveCatalogSync(false)
		return fmt.Errorf("prune: %w", err)
	}
	c.metrics.ObserveCatalogSync(true)
	return nil
}
