package accountsvc

import "testing"

func TestHashPasswordRoundTrip(t *testing.T) {
	hash, err := hashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("hashPassword: %v", err)
	}
	if !verifyPassword(hash, "correct horse battery staple") {
		t.Fatal("expected verifyPassword to accept the original password")
	}
	if verifyPassword(hash, "wrong password") {
		t.Fatal("expected verifyPassword to reject a different password")
	}
}

func TestVerifyPasswordRejectsMalformedEncoding(t *testing.T) {
	if verifyPassword("not-a-valid-hash", "anything") {
		t.Fatal("expected malformed encoding to fail verification")
	}
	if verifyPassword("argon2id$onlyonepart", "anything") {
		t.Fatal("expected short encoding to fail verification")
	}
}

func TestHashPasswordProducesUniqueSalts(t *testing.T) {
	a, err := hashPassword("same-password")
	if err != nil {
		t.Fatalf("hashPassword: %v", err)
	}
	b, err := hashPassword("same-password")
	if err != nil {
		t.Fatalf("hashPassword: %v", err)
	}
	if a == b {
		t.Fatal("expected two hashes of the same password to differ by salt")
	}
}
