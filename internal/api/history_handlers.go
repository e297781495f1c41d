package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"reelroom/internal/models"
	"reelroom/internal/storage"
)

// completionEpsilonSeconds is how close to the end a position may land before
// it is recorded as finished (stored position 0).
const completionEpsilonSeconds = 5

type historyEntryResponse struct {
	VideoID      int64   `json:"videoId"`
	Position     float64 `json:"position"`
	UpdatedAt    string  `json:"updatedAt"`
	Title        string  `json:"title"`
	ThumbnailURL string  `json:"thumbnailUrl"`
	StreamURL    string  `json:"streamUrl"`
}

// History serves GET /api/history: the caller's watch entries, most recent
// first, joined with catalog metadata.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("method %s not allowed", r.Method))
		return
	}
	identity, ok := h.requireIdentity(w, r)
	if !ok {
		return
	}

	entries := make([]historyEntryResponse, 0, 16)
	err := h.Store.ListWatchHistory(identity.UserID, func(entry models.WatchEntry) error {
		entries = append(entries, historyEntryResponse{
			VideoID:      entry.VideoID,
			Position:     entry.PositionSeconds,
			UpdatedAt:    entry.UpdatedAt,
			Title:        entry.Title,
			ThumbnailURL: thumbnailURL(entry.VideoID),
			StreamURL:    streamURL(entry.VideoID),
		})
		return nil
	})
	if err != nil {
		h.logger().Error("history query failed", "error", err)
		writeError(w, http.StatusInternalServerError, errors.New("Failed to read history"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"history": entries})
}

type historyUpdateRequest struct {
	Position json.Number `json:"position"`
}

// HistoryByID serves POST /api/history/{id}: a last-writer-wins position
// upsert with completion normalization.
func (h *Handler) HistoryByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("method %s not allowed", r.Method))
		return
	}
	identity, ok := h.requireIdentity(w, r)
	if !ok {
		return
	}

	trimmed := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/history/"), "/")
	videoID, err := strconv.ParseInt(trimmed, 10, 64)
	if err != nil || videoID <= 0 {
		writeError(w, http.StatusBadRequest, errors.New("Invalid video id"))
		return
	}

	video, err := h.Store.GetVideoByID(videoID)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, errors.New("Video not found"))
		return
	}
	if err != nil {
		h.logger().Error("video lookup failed", "video_id", videoID, "error", err)
		writeError(w, http.StatusInternalServerError, errors.New("Failed to load video"))
		return
	}

	var req historyUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, errors.New("Missing payload"))
		return
	}
	position, err := req.Position.Float64()
	if err != nil || position < 0 {
		writeError(w, http.StatusBadRequest, errors.New("Invalid position"))
		return
	}

	// A position within the completion epsilon of the end restarts the
	// title: the UI treats it as finished rather than near-finished.
	if video.DurationSeconds > 0 && position >= float64(video.DurationSeconds-completionEpsilonSeconds) {
		position = 0
	}

	if err := h.Store.UpdateWatchHistory(identity.UserID, videoID, position); err != nil {
		h.logger().Error("history update failed", "video_id", videoID, "error", err)
		writeError(w, http.StatusInternalServerError, errors.New("Failed to update history"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
