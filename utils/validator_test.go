package utils

import "testing"

func TestValidateEmail(t *testing.T) {
	valid := []string{"alice@co.com", "a.b+tag@sub.example.org"}
	for _, email := range valid {
		if !ValidateEmail(email) {
			t.Fatalf("expected %q to be valid", email)
		}
	}

	invalid := []string{"", "alice", "alice@", "@co.com", "alice@co", "alice co@co.com"}
	for _, email := range invalid {
		if ValidateEmail(email) {
			t.Fatalf("expected %q to be invalid", email)
		}
	}
}

func TestNormalizeEmail(t *testing.T) {
	if got := NormalizeEmail("  Alice@Co.COM "); got != "alice@co.com" {
		t.Fatalf("unexpected normalization: %q", got)
	}
}

func TestSanitizeInput(t *testing.T) {
	if got := SanitizeInput("  hello\x00world  "); got != "helloworld" {
		t.Fatalf("unexpected sanitization: %q", got)
	}
}
