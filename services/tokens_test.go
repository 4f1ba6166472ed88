package services

import (
	"testing"
	"time"

	"contract-review-api/models"
)

func TestGenerateBearerTokenUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		token, err := generateBearerToken()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(token) != 64 {
			t.Fatalf("expected 64 hex chars, got %d", len(token))
		}
		if seen[token] {
			t.Fatal("duplicate token generated")
		}
		seen[token] = true
	}
}

func TestIssueOrReuseApprovalToken(t *testing.T) {
	now := time.Now()
	token := "live-token"
	expires := now.Add(time.Hour)
	review := &models.Review{
		ApprovalStatus: models.ApprovalStatusPending,
		ApprovalToken:  &token,
		TokenExpiresAt: &expires,
	}

	if err := issueOrReuseApprovalToken(review, now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if *review.ApprovalToken != "live-token" {
		t.Fatal("pending review with a live token must keep it")
	}
	if !review.TokenExpiresAt.Equal(expires) {
		t.Fatal("reuse must not extend expiry")
	}
}

func TestIssueReplacesExpiredToken(t *testing.T) {
	now := time.Now()
	token := "stale-token"
	expired := now.Add(-time.Minute)
	review := &models.Review{
		ApprovalStatus: models.ApprovalStatusPending,
		ApprovalToken:  &token,
		TokenExpiresAt: &expired,
	}

	if err := issueOrReuseApprovalToken(review, now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if *review.ApprovalToken == "stale-token" {
		t.Fatal("expired token must be replaced")
	}
	if !review.TokenExpiresAt.After(now.Add(6 * 24 * time.Hour)) {
		t.Fatalf("fresh token expiry too soon: %v", review.TokenExpiresAt)
	}
}

func TestIssueMintsForDraft(t *testing.T) {
	now := time.Now()
	token := "live-token"
	expires := now.Add(time.Hour)
	review := &models.Review{
		ApprovalStatus: models.ApprovalStatusDraft,
		ApprovalToken:  &token,
		TokenExpiresAt: &expires,
	}

	if err := issueOrReuseApprovalToken(review, now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Reuse only applies while pending; a draft always gets a fresh token.
	if *review.ApprovalToken == "live-token" {
		t.Fatal("draft review must receive a fresh token")
	}
}

func TestCCTokenIndependentOfApprovalToken(t *testing.T) {
	now := time.Now()
	review := &models.Review{ApprovalStatus: models.ApprovalStatusDraft}

	if err := issueOrReuseApprovalToken(review, now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ensureCCToken(review, now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if *review.ApprovalToken == *review.CCToken {
		t.Fatal("approval and cc tokens must differ")
	}

	// Rotating the approval token leaves the cc token untouched.
	ccToken := *review.CCToken
	ccExpiry := *review.CCTokenExpiresAt
	expired := now.Add(-time.Minute)
	review.TokenExpiresAt = &expired
	if err := issueOrReuseApprovalToken(review, now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if *review.CCToken != ccToken || !review.CCTokenExpiresAt.Equal(ccExpiry) {
		t.Fatal("approval token rotation must not touch the cc token")
	}
}

func TestEnsureCCTokenReusesLive(t *testing.T) {
	now := time.Now()
	review := &models.Review{}
	if err := ensureCCToken(review, now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	first := *review.CCToken

	if err := ensureCCToken(review, now.Add(time.Hour)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if *review.CCToken != first {
		t.Fatal("live cc token must be reused")
	}
}
