package storage

import (
	"database/sql"
	"errors"
	"fmt"

	"reelroom/internal/models"
)

// GetUserCredentials returns the id, hash, and salt for a username, or
// ErrNotFound when no such user exists.
func (s *Store) GetUserCredentials(username string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getUserCredentialsLocked(username)
}

func (s *Store) getUserCredentialsLocked(username string) (models.User, error) {
	user := models.User{Username: username}
	err := s.db.QueryRow(
		`SELECT id, password_hash, salt FROM users WHERE username = ?`, username,
	).Scan(&user.ID, &user.PasswordHash, &user.Salt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrNotFound
	}
	if err != nil {
		return models.User{}, fmt.Errorf("get user credentials: %w", err)
	}
	return user, nil
}

// CreateUser inserts a new user and returns its id. Returns
// ErrDuplicateUsername when the username is already taken. The existence
// check and the insert run under the same mutex hold, so the pair is atomic
// with respect to every other store caller.
func (s *Store) CreateUser(username string, hash, salt []byte) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.getUserCredentialsLocked(username); err == nil {
		return 0, ErrDuplicateUsername
	} else if !errors.Is(err, ErrNotFound) {
		return 0, err
	}

	res, err := s.db.Exec(
		`INSERT INTO users(username, password_hash, salt) VALUES(?, ?, ?)`,
		username, hash, salt,
	)
	if err != nil {
		return 0, fmt.Errorf("create user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("create user id: %w", err)
	}
	return id, nil
}

// UpsertUser inserts or replaces credential material for a username. Used
// only by seeding.
func (s *Store) UpsertUser(username string, hash, salt []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		`INSERT INTO users(username, password_hash, salt) VALUES(?, ?, ?)
		 ON CONFLICT(username) DO UPDATE SET password_hash = excluded.password_hash, salt = excluded.salt`,
		username, hash, salt,
	)
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

// GetUsernameByID resolves a user id to its username, or ErrNotFound.
func (s *Store) GetUsernameByID(id int64) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var username string
	err := s.db.QueryRow(`SELECT username FROM users WHERE id = ?`, id).Scan(&username)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get username: %w", err)
	}
	return username, nil
}
