// Package thumbs maintains the on-disk poster-frame cache, regenerating
// stale entries through an external encoder.
package thumbs

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"

	"reelroom/internal/observability/metrics"
)

// DefaultEncoder is the encoder binary resolved from PATH.
const DefaultEncoder = "ffmpeg"

// Generator serves `<dir>/<videoID>.jpg`, regenerating when the source file
// is newer than the cached frame. Generation is serialized per video id so
// concurrent cache misses wait for the first encoder run instead of racing.
type Generator struct {
	dir     string
	encoder string
	logger  *slog.Logger
	metrics *metrics.Recorder

	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

// Option mutates generator configuration.
type Option func(*Generator)

// WithEncoder overrides the encoder binary (tests point this at a stub).
func WithEncoder(path string) Option {
	return func(g *Generator) {
		if path != "" {
			g.encoder = path
		}
	}
}

// New constructs a Generator writing into dir, creating it if needed.
func New(dir string, logger *slog.Logger, recorder *metrics.Recorder, opts ...Option) (*Generator, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure thumbnail dir: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	if recorder == nil {
		recorder = metrics.Default()
	}
	g := &Generator{
		dir:     dir,
		encoder: DefaultEncoder,
		logger:  logger,
		metrics: recorder,
		locks:   make(map[int64]*sync.Mutex),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	return g, nil
}

func (g *Generator) lockFor(videoID int64) *sync.Mutex {
	g.mu.Lock()
	defer g.mu.Unlock()
	lock, ok := g.locks[videoID]
	if !ok {
		lock = &sync.Mutex{}
		g.locks[videoID] = lock
	}
	return lock
}

// Ensure returns the cache path for videoID, generating the frame when the
// cached file is missing or older than the source.
func (g *Generator) Ensure(ctx context.Context, videoID int64, sourcePath string) (string, error) {
	thumbPath := filepath.Join(g.dir, strconv.FormatInt(videoID, 10)+".jpg")

	sourceInfo, err := os.Stat(sourcePath)
	if err != nil {
		return "", fmt.Errorf("stat source: %w", err)
	}

	lock := g.lockFor(videoID)
	lock.Lock()
	defer lock.Unlock()

	if thumbInfo, err := os.Stat(thumbPath); err == nil && !thumbInfo.ModTime().Before(sourceInfo.ModTime()) {
		g.metrics.ObserveThumbnail("hit")
		return thumbPath, nil
	}

	cmd := exec.CommandContext(ctx, g.encoder,
		"-y", "-loglevel", "error",
		"-ss", "5",
		"-i", sourcePath,
		"-vframes", "1",
		"-vf", "scale=320:-1",
		thumbPath,
	) // #nosec G204 -- fixed argv, paths come from the catalog, not clients
	if err := cmd.Run(); err != nil {
		_ = os.Remove(thumbPath)
		g.metrics.ObserveThumbnail("failure")
		g.logger.Error("thumbnail generation failed", "video_id", videoID, "source", sourcePath, "error", err)
		return "", fmt.Errorf("run encoder: %w", err)
	}
	if _, err := os.Stat(thumbPath); err != nil {
		g.metrics.ObserveThumbnail("failure")
		return "", fmt.Errorf("encoder produced no output: %w", err)
	}
	g.metrics.ObserveThumbnail("generated")
	return thumbPath, nil
}
