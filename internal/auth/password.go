// Package auth implements credential derivation and the session lifecycle.
package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// SaltLength is the random salt size stored per user.
	SaltLength = 16
	// KeyLength is the derived key size stored per user.
	KeyLength = 32
	// Iterations is the fixed PBKDF2 iteration count.
	Iterations = 200000
)

// HashPassword derives fresh credential material for a password: a random
// 16-byte salt and a 32-byte PBKDF2-HMAC-SHA256 key.
func HashPassword(password string) (hash, salt []byte, err error) {
	salt = make([]byte, SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return nil, nil, fmt.Errorf("generate salt: %w", err)
	}
	hash = pbkdf2.Key([]byte(password), salt, Iterations, KeyLength, sha256.New)
	return hash, salt, nil
}

// VerifyPassword re-derives the key with the stored salt and compares it to
// the stored hash in constant time.
func VerifyPassword(password string, salt, expected []byte) bool {
	if len(salt) == 0 || len(expected) == 0 {
		return false
	}
	derived := pbkdf2.Key([]byte(password), salt, Iterations, len(expected), sha256.New)
	return subtle.ConstantTimeCompare(derived, expected) == 1
}
