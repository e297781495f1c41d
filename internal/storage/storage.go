// Package storage persists users, sessions, videos, and watch history in a
// single SQLite file. All access is serialized through one mutex held for the
// full lifecycle of each statement; row callbacks run with the mutex held and
// must not re-enter the store.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	_ "modernc.org/sqlite" // pure Go driver, no CGO
)

var (
	// ErrNotFound reports a lookup miss, distinct from internal failures.
	ErrNotFound = errors.New("storage: not found")
	// ErrDuplicateUsername reports a username collision on create.
	ErrDuplicateUsername = errors.New("storage: username already exists")
)

// Store is the process-wide handle to the relational file.
type Store struct {
	mu     sync.Mutex
	db     *sql.DB
	logger *slog.Logger
}

// Option mutates store configuration.
type Option func(*Store)

// WithLogger installs a logger for store-level warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Open opens (creating if needed) the SQLite file at dbPath and applies
// schemaSQL. The connection enforces foreign keys and a 5-second busy
// timeout; the pool is pinned to a single connection so the serializing
// mutex covers every statement.
func Open(dbPath, schemaSQL string, opts ...Option) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)&_pragma=journal_mode(WAL)", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	store := &Store{db: db, logger: slog.Default()}
	for _, opt := range opts {
		if opt != nil {
			opt(store)
		}
	}
	return store, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// Ping verifies the database file is still reachable.
func (s *Store) Ping(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.PingContext(ctx)
}
