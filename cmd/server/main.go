// Command server starts the reelroom streaming HTTP service.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"reelroom/internal/api"
	"reelroom/internal/auth"
	"reelroom/internal/catalog"
	"reelroom/internal/observability/logging"
	"reelroom/internal/observability/metrics"
	"reelroom/internal/server"
	"reelroom/internal/serverutil"
	"reelroom/internal/storage"
	"reelroom/internal/thumbs"
)

func main() {
	var flags flagValues
	flag.StringVar(&flags.addr, "addr", "", "HTTP listen address (overrides PORT)")
	flag.StringVar(&flags.mediaDir, "media-dir", "", "directory scanned for .mp4 files")
	flag.StringVar(&flags.thumbDir, "thumb-dir", "", "directory holding cached thumbnails")
	flag.StringVar(&flags.dataDir, "data-dir", "", "directory holding the database file")
	flag.StringVar(&flags.dbPath, "db-path", "", "path to the SQLite database file")
	flag.StringVar(&flags.staticDir, "static-dir", "", "directory of static web assets")
	flag.StringVar(&flags.schemaPath, "schema-path", "", "path to the schema SQL file")
	flag.StringVar(&flags.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	flag.StringVar(&flags.logFormat, "log-format", "", "log format (json or text)")
	flag.Parse()

	logger := logging.Init(logging.Config{
		Level:  firstNonEmpty(flags.logLevel, os.Getenv("LOG_LEVEL")),
		Format: firstNonEmpty(flags.logFormat, os.Getenv("LOG_FORMAT")),
	})
	recorder := metrics.Default()

	cfg := loadConfig(flags)

	for _, dir := range []string{cfg.MediaDir, cfg.ThumbDir, cfg.DataDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logger.Error("failed to create directory", "dir", dir, "error", err)
			os.Exit(1)
		}
	}
	if info, err := os.Stat(cfg.StaticDir); err != nil || !info.IsDir() {
		logger.Error("static directory missing", "dir", cfg.StaticDir, "error", err)
		os.Exit(1)
	}
	schemaSQL, err := os.ReadFile(cfg.SchemaPath)
	if err != nil {
		logger.Error("failed to read schema file", "path", cfg.SchemaPath, "error", err)
		os.Exit(1)
	}

	store, err := storage.Open(cfg.DBPath, string(schemaSQL),
		storage.WithLogger(logging.WithComponent(logger, "storage")))
	if err != nil {
		logger.Error("failed to open database", "path", cfg.DBPath, "error", err)
		os.Exit(1)
	}

	if err := auth.EnsureDefaultUsers(store, logging.WithComponent(logger, "auth")); err != nil {
		logger.Error("failed to seed default users", "error", err)
		os.Exit(1)
	}

	sessions := auth.NewSessionManager(cfg.SessionTTL, auth.WithStore(store.Sessions()))
	if err := sessions.PurgeExpired(); err != nil {
		logger.Warn("failed to purge expired sessions at boot", "error", err)
	}

	cat := catalog.New(store, cfg.MediaDir, logging.WithComponent(logger, "catalog"), recorder)
	if err := cat.Sync(context.Background()); err != nil {
		logger.Error("initial catalog synchronization failed", "error", err)
		os.Exit(1)
	}

	generator, err := thumbs.New(cfg.ThumbDir, logging.WithComponent(logger, "thumbs"), recorder)
	if err != nil {
		logger.Error("failed to initialise thumbnail cache", "error", err)
		os.Exit(1)
	}

	handler := api.NewHandler(store, sessions)
	handler.Catalog = cat
	handler.Thumbs = generator
	handler.MediaDir = cfg.MediaDir
	handler.Logger = logging.WithComponent(logger, "api")

	srv, err := server.New(handler, server.Config{
		Addr:      cfg.Addr,
		StaticDir: cfg.StaticDir,
		Logger:    logger,
		Metrics:   recorder,
	})
	if err != nil {
		logger.Error("failed to initialise server", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	watcher := catalog.NewWatcher(cat, cfg.WatchInterval, logging.WithComponent(logger, "watcher"))

	group, groupCtx := errgroup.WithContext(ctx)
	ready := make(chan struct{})
	group.Go(func() error {
		return serverutil.Run(groupCtx, serverutil.Config{Server: srv.HTTPServer(), Ready: ready})
	})
	group.Go(func() error {
		select {
		case <-ready:
			logger.Info("reelroom listening", "addr", cfg.Addr,
				"media_dir", cfg.MediaDir, "static_dir", cfg.StaticDir)
		case <-groupCtx.Done():
		}
		return nil
	})
	group.Go(func() error {
		return watcher.Run(groupCtx)
	})
	group.Go(func() error {
		return runSessionPurger(groupCtx, logging.WithComponent(logger, "session-purger"), sessions, cfg.PurgeInterval)
	})

	exitCode := 0
	if err := group.Wait(); err != nil {
		logger.Error("server error", "error", err)
		exitCode = 1
	}

	if err := store.Close(); err != nil {
		logger.Warn("failed to close database", "error", err)
	}
	logger.Info("server stopped")
	if exitCode != 0 {
		os.Exit(exitCode)
	}
}
