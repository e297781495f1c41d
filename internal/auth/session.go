package auth

import (
	"errors"
	"time"
)

// ErrInvalidUserID is returned when creating a session without a user.
var ErrInvalidUserID = errors.New("user id is required")

// SessionStore defines the persistence contract for session tokens.
type SessionStore interface {
	Save(token string, userID int64, expiresAt time.Time) error
	Get(token string) (SessionRecord, bool, error)
	Delete(token string) error
	PurgeExpired(now time.Time) error
}

// SessionRecord captures a session row retrieved from the backing store.
type SessionRecord struct {
	Token     string
	UserID    int64
	ExpiresAt time.Time
}

// SessionOption configures a SessionManager instance.
type SessionOption func(*SessionManager)

// WithStore injects a custom SessionStore implementation.
func WithStore(store SessionStore) SessionOption {
	return func(m *SessionManager) {
		m.store = store
	}
}

// SessionManager coordinates session creation and validation against a
// backing store. Sessions carry an absolute TTL; expired tokens are deleted
// opportunistically on lookup.
type SessionManager struct {
	store        SessionStore
	ttl          time.Duration
	tokenFactory func() (string, error)
	now          func() time.Time
}

// NewSessionManager constructs a SessionManager with the provided TTL and
// options. The manager defaults to a 24-hour TTL and an in-memory store for
// tests when no store is supplied.
func NewSessionManager(ttl time.Duration, opts ...SessionOption) *SessionManager {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	manager := &SessionManager{
		ttl:          ttl,
		tokenFactory: GenerateToken,
		now:          time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(manager)
		}
	}
	if manager.store == nil {
		manager.store = NewMemorySessionStore()
	}
	return manager
}

// TTL returns the absolute session lifetime.
func (m *SessionManager) TTL() time.Duration {
	return m.ttl
}

// Create issues a new session token for the provided user id.
func (m *SessionManager) Create(userID int64) (string, time.Time, error) {
	if userID <= 0 {
		return "", time.Time{}, ErrInvalidUserID
	}
	token, err := m.tokenFactory()
	if err != nil {
		return "", time.Time{}, err
	}
	expiresAt := m.now().Add(m.ttl)
	if err := m.store.Save(token, userID, expiresAt.UTC()); err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

// Validate checks the backing store for the provided token and returns the
// associated user id when the session is live. Expired sessions are deleted
// on sight so they become unreachable before the purge worker runs.
func (m *SessionManager) Validate(token string) (int64, bool, error) {
	if token == "" {
		return 0, false, nil
	}
	record, ok, err := m.store.Get(token)
	if err != nil {
		return 0, false, err
	}
	if !ok {
		return 0, false, nil
	}
	if !record.ExpiresAt.After(m.now()) {
		_ = m.store.Delete(token)
		return 0, false, nil
	}
	return record.UserID, true, nil
}

// Revoke deletes the session token from the backing store.
func (m *SessionManager) Revoke(token string) error {
	if token == "" {
		return nil
	}
	return m.store.Delete(token)
}

// PurgeExpired removes every expired session from the backing store.
func (m *SessionManager) PurgeExpired() error {
	return m.store.PurgeExpired(m.now())
}
