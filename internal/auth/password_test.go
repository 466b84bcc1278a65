package auth

import (
	"strings"
	"testing"
)

// Cost 4 is the bcrypt minimum; production cost makes every test take
// a quarter second.
func newTestPasswordService(t *testing.T) *PasswordService {
	t.Helper()
	return NewPasswordServiceForTest(4)
}

func TestHashAndVerify_RoundTrip(t *testing.T) {
	ps := newTestPasswordService(t)

	hash, err := ps.Hash("correct horse battery staple")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	if hash == "" {
		t.Fatal("Hash() returned empty string")
	}
	if hash == "correct horse battery staple" {
		t.Fatal("Hash() returned the plaintext unchanged")
	}

	if err := ps.Verify(hash, "correct horse battery staple"); err != nil {
		t.Errorf("Verify() with correct password error = %v", err)
	}
}

func TestVerify_WrongPassword(t *testing.T) {
	ps := newTestPasswordService(t)

	hash, _ := ps.Hash("the-real-password")

	if err := ps.Verify(hash, "a-guess"); err == nil {
		t.Error("Verify() should fail for a wrong password")
	}
}

func TestHash_SamePasswordDifferentHashes(t *testing.T) {
	ps := newTestPasswordService(t)

	// bcrypt salts every hash, so two hashes of the same password must
	// differ. Otherwise rainbow tables would work.
	h1, _ := ps.Hash("same-password")
	h2, _ := ps.Hash("same-password")

	if h1 == h2 {
		t.Error("Hash() produced identical hashes for the same password")
	}
}

func TestHash_RejectsOverlongPassword(t *testing.T) {
	ps := newTestPasswordService(t)

	// bcrypt silently truncates at 72 bytes; we reject instead.
	long := strings.Repeat("x", 73)
	if _, err := ps.Hash(long); err == nil {
		t.Error("Hash() should reject passwords longer than 72 bytes")
	}
}

func TestVerify_GarbageHash(t *testing.T) {
	ps := newTestPasswordService(t)

	if err := ps.Verify("not-a-bcrypt-hash", "password"); err == nil {
		t.Error("Verify() should fail for a malformed hash")
	}
}
