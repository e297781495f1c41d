package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	defaultPort          = 3000
	defaultMediaDir      = "./media"
	defaultThumbDir      = "./web/thumbnails"
	defaultDataDir       = "./data"
	defaultStaticDir     = "./web/public"
	defaultSchemaPath    = "./schema.sql"
	defaultSessionHours  = 24
	defaultWatchSeconds  = 2
	defaultPurgeInterval = 15 * time.Minute
)

type config struct {
	Addr          string
	MediaDir      string
	ThumbDir      string
	DataDir       string
	DBPath        string
	StaticDir     string
	SchemaPath    string
	SessionTTL    time.Duration
	WatchInterval time.Duration
	PurgeInterval time.Duration
}

// loadConfig layers flag values over environment variables over defaults.
// Directory settings that are absent everywhere fall back to the first of
// `./<name>` and `../<name>` that exists, so the server starts from either
// the repository root or a subdirectory build tree.
func loadConfig(flags flagValues) config {
	cfg := config{
		Addr:          resolveAddr(flags.addr),
		MediaDir:      resolvePath(flags.mediaDir, "MEDIA_DIR", defaultMediaDir),
		ThumbDir:      resolvePath(flags.thumbDir, "THUMB_DIR", defaultThumbDir),
		DataDir:       resolvePath(flags.dataDir, "DATA_DIR", defaultDataDir),
		StaticDir:     resolvePath(flags.staticDir, "STATIC_DIR", defaultStaticDir),
		SchemaPath:    resolvePath(flags.schemaPath, "SCHEMA_PATH", defaultSchemaPath),
		SessionTTL:    time.Duration(envInt("SESSION_TTL_HOURS", defaultSessionHours)) * time.Hour,
		WatchInterval: time.Duration(envInt("MEDIA_WATCH_INTERVAL_SEC", defaultWatchSeconds)) * time.Second,
		PurgeInterval: defaultPurgeInterval,
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = defaultSessionHours * time.Hour
	}
	if cfg.WatchInterval < time.Second {
		cfg.WatchInterval = defaultWatchSeconds * time.Second
	}

	cfg.DBPath = strings.TrimSpace(flags.dbPath)
	if cfg.DBPath == "" {
		cfg.DBPath = strings.TrimSpace(os.Getenv("DB_PATH"))
	}
	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join(cfg.DataDir, "app.db")
	}
	return cfg
}

type flagValues struct {
	addr       string
	mediaDir   string
	thumbDir   string
	dataDir    string
	dbPath     string
	staticDir  string
	schemaPath string
	logLevel   string
	logFormat  string
}

func resolveAddr(flagValue string) string {
	if addr := strings.TrimSpace(flagValue); addr != "" {
		return addr
	}
	return fmt.Sprintf(":%d", envInt("PORT", defaultPort))
}

// resolvePath picks the flag value, then the environment variable, then the
// first existing candidate among the default path and its parent-directory
// twin, then the default itself.
func resolvePath(flagValue, envKey, fallback string) string {
	if v := strings.TrimSpace(flagValue); v != "" {
		return v
	}
	if v := strings.TrimSpace(os.Getenv(envKey)); v != "" {
		return v
	}
	for _, candidate := range []string{fallback, "../" + strings.TrimPrefix(fallback, "./")} {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return fallback
}

// envInt reads an integer environment variable, silently keeping the default
// when the variable is absent or unparsable.
func envInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
