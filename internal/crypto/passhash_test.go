package crypto

import (
	"bytes"
	"testing"
)

func TestRandBytes_LengthAndUniqueness(t *testing.T) {
	t.Parallel()

	const n = 64
	a, err := RandBytes(n)
	if err != nil {
		t.Fatalf("RandBytes: %v", err)
	}
	if len(a) != n {
		t.Fatalf("len=%d, want=%d", len(a), n)
	}
	b, err := RandBytes(n)
	if err != nil {
		t.Fatalf("RandBytes(2): %v", err)
	}
	if bytes.Equal(a, b) {
		t.Fatalf("two subsequent RandBytes(%d) are equal", n)
	}
}

func TestHashPassword_SaltAndPasswordMatter(t *testing.T) {
	t.Parallel()

	pw := []byte("hunter22")
	salt := []byte("0123456789abcdef")

	h1 := HashPassword(pw, salt)
	if !bytes.Equal(h1, HashPassword(pw, salt)) {
		t.Fatalf("hash not deterministic for same input")
	}
	if bytes.Equal(h1, HashPassword(pw, []byte("fedcba9876543210"))) {
		t.Fatalf("hash should differ when salt differs")
	}
	if bytes.Equal(h1, HashPassword([]byte("hunter23"), salt)) {
		t.Fatalf("hash should differ when password differs")
	}
}

func TestNewPasswordHash_Verify(t *testing.T) {
	t.Parallel()

	hash, salt, err := NewPasswordHash("secret-pass")
	if err != nil {
		t.Fatalf("NewPasswordHash: %v", err)
	}
	if len(salt) != SaltLen {
		t.Fatalf("salt len=%d, want %d", len(salt), SaltLen)
	}
	if !VerifyPassword([]byte("secret-pass"), salt, hash) {
		t.Fatalf("expected true for correct password")
	}
	if VerifyPassword([]byte("secret-pas"), salt, hash) {
		t.Fatalf("expected false for wrong password")
	}
	if VerifyPassword([]byte("secret-pass"), salt, nil) {
		t.Fatalf("expected false for empty stored hash")
	}
}
