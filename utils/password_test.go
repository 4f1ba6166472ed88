package utils

import "testing"

func TestHashPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("correct horse battery")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hash == "correct horse battery" {
		t.Fatal("hash must not equal the plaintext")
	}

	if !CheckPasswordHash("correct horse battery", hash) {
		t.Fatal("correct password must verify")
	}
	if CheckPasswordHash("wrong password", hash) {
		t.Fatal("wrong password must not verify")
	}
}

func TestValidatePassword(t *testing.T) {
	if ok, reason := ValidatePassword("short"); ok {
		t.Fatal("passwords under 8 characters must be rejected")
	} else if reason == "" {
		t.Fatal("rejection must carry a reason")
	}

	if ok, _ := ValidatePassword("longenough"); !ok {
		t.Fatal("8+ character password must be accepted")
	}
}
