package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"reelroom/internal/auth"
)

// sessionStore adapts the store to the auth.SessionStore contract.
type sessionStore struct {
	s *Store
}

// Sessions returns the session persistence view used by the session manager.
func (s *Store) Sessions() auth.SessionStore {
	return sessionStore{s: s}
}

// Save upserts a session row by token. Expiry instants are stored as unix
// seconds.
func (st sessionStore) Save(token string, userID int64, expiresAt time.Time) error {
	st.s.mu.Lock()
	defer st.s.mu.Unlock()

	_, err := st.s.db.Exec(
		`INSERT INTO sessions(token, user_id, expires_at) VALUES(?, ?, ?)
		 ON CONFLICT(token) DO UPDATE SET user_id = excluded.user_id, expires_at = excluded.expires_at`,
		token, userID, expiresAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Get returns the session for a token when present.
func (st sessionStore) Get(token string) (auth.SessionRecord, bool, error) {
	st.s.mu.Lock()
	defer st.s.mu.Unlock()

	var (
		userID    int64
		expiresAt int64
	)
	err := st.s.db.QueryRow(
		`SELECT user_id, expires_at FROM sessions WHERE token = ?`, token,
	).Scan(&userID, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return auth.SessionRecord{}, false, nil
	}
	if err != nil {
		return auth.SessionRecord{}, false, fmt.Errorf("get session: %w", err)
	}
	return auth.SessionRecord{
		Token:     token,
		UserID:    userID,
		ExpiresAt: time.Unix(expiresAt, 0),
	}, true, nil
}

// Delete removes a session row if present.
func (st sessionStore) Delete(token string) error {
	st.s.mu.Lock()
	defer st.s.mu.Unlock()

	if _, err := st.s.db.Exec(`DELETE FROM sessions WHERE token = ?`, token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// PurgeExpired removes every session whose expiry is at or before now.
func (st sessionStore) PurgeExpired(now time.Time) error {
	st.s.mu.Lock()
	defer st.s.mu.Unlock()

	if _, err := st.s.db.Exec(`DELETE FROM sessions WHERE expires_at <= ?`, now.Unix()); err != nil {
		return fmt.Errorf("purge sessions: %w", err)
	}
	return nil
}
