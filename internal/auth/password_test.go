package auth

import (
	"bytes"
	"testing"
)

func TestHashPasswordProducesVerifiableHash(t *testing.T) {
	t.Parallel()

	hash, salt, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}
	if len(salt) != SaltLength {
		t.Fatalf("expected %d byte salt, got %d", SaltLength, len(salt))
	}
	if len(hash) != KeyLength {
		t.Fatalf("expected %d byte hash, got %d", KeyLength, len(hash))
	}
	if !VerifyPassword("correct horse battery staple", salt, hash) {
		t.Fatal("expected password to verify against its own hash")
	}
	if VerifyPassword("wrong password", salt, hash) {
		t.Fatal("expected mismatched password to fail verification")
	}
}

func TestHashPasswordSaltsAreUnique(t *testing.T) {
	t.Parallel()

	hash1, salt1, err := HashPassword("shared-password")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}
	hash2, salt2, err := HashPassword("shared-password")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}
	if bytes.Equal(salt1, salt2) {
		t.Fatal("expected distinct salts for independent hashes")
	}
	if bytes.Equal(hash1, hash2) {
		t.Fatal("expected distinct hashes under distinct salts")
	}
}

func TestVerifyPasswordRejectsTruncatedHash(t *testing.T) {
	t.Parallel()

	hash, salt, err := HashPassword("some-password")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}
	if VerifyPassword("some-password", salt, hash[:len(hash)-1]) {
		t.Fatal("expected truncated hash to fail verification")
	}
}
