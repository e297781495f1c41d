// Package api implements the JSON endpoints: authentication, the video
// catalog, streaming, thumbnails, and watch history.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"reelroom/internal/auth"
	"reelroom/internal/models"
)

// Store is the slice of the persistence layer the handlers touch.
type Store interface {
	GetUserCredentials(username string) (models.User, error)
	CreateUser(username string, hash, salt []byte) (int64, error)
	GetUsernameByID(id int64) (string, error)
	GetVideoByID(id int64) (models.Video, error)
	QueryVideos(search string, limit, offset int, emit func(models.Video) error) (bool, error)
	UpdateWatchHistory(userID, videoID int64, positionSeconds float64) error
	ListWatchHistory(userID int64, emit func(models.WatchEntry) error) error
	Ping(ctx context.Context) error
}

// CatalogSyncer reconciles the videos table with the media directory.
type CatalogSyncer interface {
	Sync(ctx context.Context) error
}

// Thumbnailer resolves a fresh poster frame for a video.
type Thumbnailer interface {
	Ensure(ctx context.Context, videoID int64, sourcePath string) (string, error)
}

// Handler carries the dependencies shared by every endpoint.
type Handler struct {
	Store    Store
	Sessions *auth.SessionManager
	Catalog  CatalogSyncer
	Thumbs   Thumbnailer
	MediaDir string
	Logger   *slog.Logger
}

// NewHandler constructs a Handler; a nil session manager falls back to an
// in-memory store for tests.
func NewHandler(store Store, sessions *auth.SessionManager) *Handler {
	if sessions == nil {
		sessions = auth.NewSessionManager(24 * time.Hour)
	}
	return &Handler{Store: store, Sessions: sessions, Logger: slog.Default()}
}

func (h *Handler) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// WriteError is an exported helper for returning JSON API errors.
func WriteError(w http.ResponseWriter, status int, err error) {
	writeError(w, status, err)
}

// decodeJSON reads the request body into dest. Unknown keys are ignored so
// clients may send extra fields without breaking.
func decodeJSON(r *http.Request, dest interface{}) error {
	if r.Body == nil {
		return errors.New("request body is required")
	}
	defer r.Body.Close()

	decoder := json.NewDecoder(r.Body)
	decoder.UseNumber()
	return decoder.Decode(dest)
}

// Health reports liveness plus store reachability.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Ping(r.Context()); err != nil {
		h.logger().Error("health check store ping failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
