// Package models defines the durable entities shared across the storage,
// auth, and API layers.
package models

import "time"

// User is an account row. PasswordHash and Salt hold the raw PBKDF2 material
// (32 and 16 bytes respectively); neither is ever serialized to clients.
type User struct {
	ID           int64
	Username     string
	PasswordHash []byte
	Salt         []byte
}

// Video is one catalog entry, unique by on-disk basename.
type Video struct {
	ID              int64
	Title           string
	Filename        string
	Description     string
	DurationSeconds int
}

// Session binds an opaque token to a user until ExpiresAt.
type Session struct {
	Token     string
	UserID    int64
	ExpiresAt time.Time
}

// WatchEntry is one (user, video) playback position. UpdatedAt carries the
// store's timestamp text verbatim.
type WatchEntry struct {
	VideoID         int64
	Title           string
	PositionSeconds float64
	UpdatedAt       string
}
