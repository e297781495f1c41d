package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"reelroom/internal/models"
)

// UpsertVideo inserts or updates a catalog row keyed by filename and returns
// the row id.
func (s *Store) UpsertVideo(title, filename, description string, durationSeconds int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var desc any
	if description != "" {
		desc = description
	}
	var id int64
	err := s.db.QueryRow(
		`INSERT INTO videos(title, filename, description, duration_seconds) VALUES(?, ?, ?, ?)
		 ON CONFLICT(filename) DO UPDATE SET
		   title = excluded.title,
		   description = excluded.description,
		   duration_seconds = excluded.duration_seconds
		 RETURNING id`,
		title, filename, desc, durationSeconds,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upsert video: %w", err)
	}
	return id, nil
}

// DeleteVideoByFilename removes a single catalog row.
func (s *Store) DeleteVideoByFilename(filename string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec(`DELETE FROM videos WHERE filename = ?`, filename); err != nil {
		return fmt.Errorf("delete video: %w", err)
	}
	return nil
}

// PruneMissingVideos deletes every video whose filename is not in live. The
// live set is staged in a temp table so the delete is one statement and no
// transaction nests on the shared handle. History rows referencing pruned
// videos cascade per the schema.
func (s *Store) PruneMissingVideos(live []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec(`CREATE TEMP TABLE IF NOT EXISTS live_files (filename TEXT PRIMARY KEY)`); err != nil {
		return fmt.Errorf("prune: create staging table: %w", err)
	}
	if _, err := s.db.Exec(`DELETE FROM live_files`); err != nil {
		return fmt.Errorf("prune: reset staging table: %w", err)
	}
	for _, name := range live {
		if _, err := s.db.Exec(`INSERT OR IGNORE INTO live_files(filename) VALUES(?)`, name); err != nil {
			return fmt.Errorf("prune: stage filename: %w", err)
		}
	}
	if _, err := s.db.Exec(`DELETE FROM videos WHERE filename NOT IN (SELECT filename FROM live_files)`); err != nil {
		return fmt.Errorf("prune: delete missing: %w", err)
	}
	_, _ = s.db.Exec(`DELETE FROM live_files`)
	return nil
}

// GetVideoByID returns one catalog row or ErrNotFound.
func (s *Store) GetVideoByID(id int64) (models.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	video := models.Video{ID: id}
	err := s.db.QueryRow(
		`SELECT title, filename, IFNULL(description, ''), duration_seconds FROM videos WHERE id = ?`, id,
	).Scan(&video.Title, &video.Filename, &video.Description, &video.DurationSeconds)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Video{}, ErrNotFound
	}
	if err != nil {
		return models.Video{}, fmt.Errorf("get video: %w", err)
	}
	return video, nil
}

// escapeLike escapes LIKE metacharacters so user input matches literally.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// QueryVideos streams up to limit catalog rows ordered by id, offset rows in,
// optionally filtered by a case-insensitive substring over title, filename,
// and description. It fetches one extra row to report hasMore without a
// second round-trip. emit runs with the store mutex held and must not
// re-enter the store.
func (s *Store) QueryVideos(search string, limit, offset int, emit func(models.Video) error) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		rows *sql.Rows
		err  error
	)
	if search != "" {
		pattern := "%" + escapeLike(search) + "%"
		rows, err = s.db.Query(
			`SELECT id, title, filename, IFNULL(description, ''), duration_seconds FROM videos
			 WHERE title LIKE ? ESCAPE '\' OR filename LIKE ? ESCAPE '\' OR IFNULL(description, '') LIKE ? ESCAPE '\'
			 ORDER BY id LIMIT ? OFFSET ?`,
			pattern, pattern, pattern, limit+1, offset,
		)
	} else {
		rows, err = s.db.Query(
			`SELECT id, title, filename, IFNULL(description, ''), duration_seconds FROM videos
			 ORDER BY id LIMIT ? OFFSET ?`,
			limit+1, offset,
		)
	}
	if err != nil {
		return false, fmt.Errorf("query videos: %w", err)
	}
	defer func() { _ = rows.Close() }()

	count := 0
	hasMore := false
	for rows.Next() {
		if count == limit {
			hasMore = true
			break
		}
		var v models.Video
		if err := rows.Scan(&v.ID, &v.Title, &v.Filename, &v.Description, &v.DurationSeconds); err != nil {
			return false, fmt.Errorf("scan video: %w", err)
		}
		if err := emit(v); err != nil {
			return false, err
		}
		count++
	}
	if err := rows.Err(); err != nil {
		return false, fmt.Errorf("iterate videos: %w", err)
	}
	return hasMore, nil
}
