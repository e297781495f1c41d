package storage

import (
	"fmt"

	"reelroom/internal/models"
)

// UpdateWatchHistory upserts the playback position for (userID, videoID) and
// stamps the row with the current time. Last writer wins by commit order.
func (s *Store) UpdateWatchHistory(userID, videoID int64, positionSeconds float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		`INSERT INTO watch_history(user_id, video_id, position_seconds, updated_at)
		 VALUES(?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(user_id, video_id) DO UPDATE SET
		   position_seconds = excluded.position_seconds,
		   updated_at = CURRENT_TIMESTAMP`,
		userID, videoID, positionSeconds,
	)
	if err != nil {
		return fmt.Errorf("update watch history: %w", err)
	}
	return nil
}

// ListWatchHistory streams the user's history rows joined with video titles,
// most recently updated first. emit runs with the store mutex held and must
// not re-enter the store.
func (s *Store) ListWatchHistory(userID int64, emit func(models.WatchEntry) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(
		`SELECT w.video_id, w.position_seconds, IFNULL(w.updated_at, ''), IFNULL(v.title, '')
		 FROM watch_history w JOIN videos v ON v.id = w.video_id
		 WHERE w.user_id = ? ORDER BY w.updated_at DESC`,
		userID,
	)
	if err != nil {
		return fmt.Errorf("list watch history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var entry models.WatchEntry
		if err := rows.Scan(&entry.VideoID, &entry.PositionSeconds, &entry.UpdatedAt, &entry.Title); err != nil {
			return fmt.Errorf("scan watch history: %w", err)
		}
		if err := emit(entry); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate watch history: %w", err)
	}
	return nil
}
