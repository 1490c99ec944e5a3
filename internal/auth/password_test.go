package auth

import (
	"strings"
	"testing"
)

// newTestPasswordService uses bcrypt cost 4 (the library minimum) so the
// tests run in milliseconds instead of ~250ms per hash.
func newTestPasswordService() *PasswordService {
	return NewPasswordServiceForTest(4)
}

func TestHash_ReturnsBcryptHash(t *testing.T) {
	ps := newTestPasswordService()

	hash, err := ps.Hash("password1")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	if !strings.HasPrefix(hash, "$2") {
		t.Errorf("Hash() = %q, doesn't look like a bcrypt hash", hash)
	}
}

func TestHash_SamePasswordDifferentHashes(t *testing.T) {
	ps := newTestPasswordService()

	h1, err := ps.Hash("password1")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	h2, err := ps.Hash("password1")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	// Random salt means identical passwords never share a hash.
	if h1 == h2 {
		t.Error("two hashes of the same password are identical")
	}
}

func TestHash_RejectsOverlongPassword(t *testing.T) {
	ps := newTestPasswordService()

	if _, err := ps.Hash(strings.Repeat("x", 73)); err == nil {
		t.Error("Hash() accepted a password longer than 72 bytes")
	}
}

func TestVerify_CorrectPassword(t *testing.T) {
	ps := newTestPasswordService()

	hash, err := ps.Hash("password1")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	if err := ps.Verify(hash, "password1"); err != nil {
		t.Errorf("Verify() rejected the correct password: %v", err)
	}
}

func TestVerify_WrongPassword(t *testing.T) {
	ps := newTestPasswordService()

	hash, err := ps.Hash("password1")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	if err := ps.Verify(hash, "password2"); err == nil {
		t.Error("Verify() accepted a wrong password")
	}
}

func TestVerify_EmptyHash(t *testing.T) {
	// OAuth-created accounts have no password hash; password login for them
	// must always fail.
	ps := newTestPasswordService()

	if err := ps.Verify("", "anything"); err == nil {
		t.Error("Verify() accepted a password against an empty hash")
	}
}
