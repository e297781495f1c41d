package auth

import (
	"fmt"
	"log/slog"

	"reelroom/internal/models"
)

// UserSeeder is the slice of the user store that seeding needs.
type UserSeeder interface {
	GetUserCredentials(username string) (models.User, error)
	UpsertUser(username string, hash, salt []byte) error
}

var defaultUsers = []struct {
	username string
	password string
}{
	{"test", "test1234"},
	{"demo", "demo1234"},
	{"guest", "guestpass"},
	{"sample", "sample1234"},
}

// EnsureDefaultUsers inserts the fixed development accounts, skipping any
// username that already has a row so operator-changed passwords survive
// restarts.
func EnsureDefaultUsers(store UserSeeder, logger *slog.Logger) error {
	for _, seed := range defaultUsers {
		if _, err := store.GetUserCredentials(seed.username); err == nil {
			continue
		}
		hash, salt, err := HashPassword(seed.password)
		if err != nil {
			return fmt.Errorf("seed user %s: %w", seed.username, err)
		}
		if err := store.UpsertUser(seed.username, hash, salt); err != nil {
			return fmt.Errorf("seed user %s: %w", seed.username, err)
		}
		if logger != nil {
			logger.Info("created default user", "username", seed.username)
		}
	}
	return nil
}
