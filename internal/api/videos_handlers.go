package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"reelroom/internal/models"
	"reelroom/internal/storage"
)

const (
	defaultPageLimit = 12
	maxPageLimit     = 50
)

type videoResponse struct {
	ID            int64   `json:"id"`
	Title         string  `json:"title"`
	Filename      string  `json:"filename"`
	Description   string  `json:"description"`
	Duration      int     `json:"duration"`
	ThumbnailURL  string  `json:"thumbnailUrl"`
	StreamURL     string  `json:"streamUrl"`
	ResumeSeconds float64 `json:"resumeSeconds"`
}

type videoListResponse struct {
	Videos     []videoResponse `json:"videos"`
	Cursor     int             `json:"cursor"`
	Limit      int             `json:"limit"`
	NextCursor int             `json:"nextCursor"`
	HasMore    bool            `json:"hasMore"`
	Query      string          `json:"query"`
}

func thumbnailURL(id int64) string {
	return fmt.Sprintf("/api/videos/%d/thumbnail", id)
}

func streamURL(id int64) string {
	return fmt.Sprintf("/api/videos/%d/stream", id)
}

// Videos serves GET /api/videos: a synchronized, paginated catalog listing
// with the caller's resume positions merged in.
func (h *Handler) Videos(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("method %s not allowed", r.Method))
		return
	}
	identity, ok := h.requireIdentity(w, r)
	if !ok {
		return
	}

	// Resync so the listing reflects the directory as of this request even
	// when the watcher is disabled. A failed sync still serves the last
	// known catalog.
	if h.Catalog != nil {
		if err := h.Catalog.Sync(r.Context()); err != nil {
			h.logger().Warn("catalog sync failed during listing", "error", err)
		}
	}

	query := r.URL.Query()
	cursor := 0
	if raw := query.Get("cursor"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed >= 0 {
			cursor = parsed
		}
	}
	limit := defaultPageLimit
	if raw := query.Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	search := strings.TrimSpace(query.Get("q"))

	// Buffer the resume map first: row callbacks hold the store mutex, so
	// the videos query must not start until history iteration has finished.
	resume := make(map[int64]float64)
	if err := h.Store.ListWatchHistory(identity.UserID, func(entry models.WatchEntry) error {
		resume[entry.VideoID] = entry.PositionSeconds
		return nil
	}); err != nil {
		h.logger().Error("history lookup failed", "error", err)
		writeError(w, http.StatusInternalServerError, errors.New("Failed to load history"))
		return
	}

	videos := make([]videoResponse, 0, limit)
	hasMore, err := h.Store.QueryVideos(search, limit, cursor, func(v models.Video) error {
		videos = append(videos, videoResponse{
			ID:            v.ID,
			Title:         v.Title,
			Filename:      v.Filename,
			Description:   v.Description,
			Duration:      v.DurationSeconds,
			ThumbnailURL:  thumbnailURL(v.ID),
			StreamURL:     streamURL(v.ID),
			ResumeSeconds: resume[v.ID],
		})
		return nil
	})
	if err != nil {
		h.logger().Error("video query failed", "error", err)
		writeError(w, http.StatusInternalServerError, errors.New("Failed to query videos"))
		return
	}

	writeJSON(w, http.StatusOK, videoListResponse{
		Videos:     videos,
		Cursor:     cursor,
		Limit:      limit,
		NextCursor: cursor + len(videos),
		HasMore:    hasMore,
		Query:      search,
	})
}

// VideoByID dispatches /api/videos/{id}/{stream|thumbnail}.
func (h *Handler) VideoByID(w http.ResponseWriter, r *http.Request) {
	trimmed := strings.TrimPrefix(r.URL.Path, "/api/videos/")
	parts := strings.Split(strings.Trim(trimmed, "/"), "/")
	if len(parts) != 2 {
		writeError(w, http.StatusNotFound, errors.New("Not Found"))
		return
	}
	videoID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil || videoID <= 0 {
		writeError(w, http.StatusBadRequest, errors.New("Invalid video id"))
		return
	}

	switch parts[1] {
	case "stream":
		h.stream(w, r, videoID)
	case "thumbnail":
		h.thumbnail(w, r, videoID)
	default:
		writeError(w, http.StatusNotFound, errors.New("Not Found"))
	}
}

// resolveMediaFile maps a video id to its on-disk path, 404ing when either
// the row or the file is gone.
func (h *Handler) resolveMediaFile(w http.ResponseWriter, videoID int64) (string, os.FileInfo, bool) {
	video, err := h.Store.GetVideoByID(videoID)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, errors.New("Video not found"))
		return "", nil, false
	}
	if err != nil {
		h.logger().Error("video lookup failed", "video_id", videoID, "error", err)
		writeError(w, http.StatusInternalServerError, errors.New("Failed to load video"))
		return "", nil, false
	}
	path := filepath.Join(h.MediaDir, video.Filename)
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		writeError(w, http.StatusNotFound, errors.New("Video not found"))
		return "", nil, false
	}
	return path, info, true
}

func (h *Handler) stream(w http.ResponseWriter, r *http.Request, videoID int64) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("method %s not allowed", r.Method))
		return
	}
	if _, ok := h.requireIdentity(w, r); !ok {
		return
	}
	path, info, ok := h.resolveMediaFile(w, videoID)
	if !ok {
		return
	}
	size := info.Size()

	file, err := os.Open(path)
	if err != nil {
		h.logger().Error("failed to open media file", "path", path, "error", err)
		writeError(w, http.StatusInternalServerError, errors.New("Failed to open video"))
		return
	}
	defer file.Close()

	w.Header().Set("Content-Type", "video/mp4")
	w.Header().Set("Accept-Ranges", "bytes")
	w.Header().Set("Last-Modified", info.ModTime().UTC().Format(http.TimeFormat))

	rangeHeader := r.Header.Get("Range")
	if rangeHeader == "" {
		w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
		w.WriteHeader(http.StatusOK)
		if _, err := io.Copy(w, file); err != nil {
			h.logger().Warn("stream aborted", "video_id", videoID, "error", err)
		}
		return
	}

	span, err := parseRange(rangeHeader, size)
	if err != nil {
		w.Header().Set("Content-Range", fmt.Sprintf("bytes */%d", size))
		writeError(w, http.StatusRequestedRangeNotSatisfiable, errors.New("Invalid range"))
		return
	}
	if _, err := file.Seek(span.start, io.SeekStart); err != nil {
		h.logger().Error("seek failed", "video_id", videoID, "error", err)
		writeError(w, http.StatusInternalServerError, errors.New("Failed to read video"))
		return
	}
	w.Header().Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", span.start, span.end, size))
	w.Header().Set("Content-Length", strconv.FormatInt(span.length, 10))
	w.WriteHeader(http.StatusPartialContent)
	if _, err := io.CopyN(w, file, span.length); err != nil {
		h.logger().Warn("range stream aborted", "video_id", videoID, "error", err)
	}
}

func (h *Handler) thumbnail(w http.ResponseWriter, r *http.Request, videoID int64) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("method %s not allowed", r.Method))
		return
	}
	if _, ok := h.requireIdentity(w, r); !ok {
		return
	}
	path, _, ok := h.resolveMediaFile(w, videoID)
	if !ok {
		return
	}

	thumbPath, err := h.Thumbs.Ensure(r.Context(), videoID, path)
	if err != nil {
		writeError(w, http.StatusInternalServerError, errors.New("Thumbnail error"))
		return
	}
	file, err := os.Open(thumbPath)
	if err != nil {
		h.logger().Error("failed to open thumbnail", "path", thumbPath, "error", err)
		writeError(w, http.StatusInternalServerError, errors.New("Thumbnail error"))
		return
	}
	defer file.Close()
	info, err := file.Stat()
	if err != nil {
		writeError(w, http.StatusInternalServerError, errors.New("Thumbnail error"))
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Content-Length", strconv.FormatInt(info.Size(), 10))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, file); err != nil {
		h.logger().Warn("thumbnail send aborted", "video_id", videoID, "error", err)
	}
}
