package services

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"contract-review-api/models"
)

// TokenTTL is the lifetime of approval and CC tokens. Expiry is enforced at
// validation time; nothing evicts tokens in the background.
const TokenTTL = 7 * 24 * time.Hour

// TokenKind distinguishes the two bearer token kinds held by a review.
type TokenKind string

const (
	TokenKindApproval TokenKind = "approval"
	TokenKindCC       TokenKind = "cc"
)

// generateBearerToken returns an unguessable opaque token.
func generateBearerToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// hasLiveApprovalToken reports whether the review holds an approval token
// that has not expired at the given instant.
func hasLiveApprovalToken(review *models.Review, now time.Time) bool {
	return review.ApprovalToken != nil && *review.ApprovalToken != "" &&
		review.TokenExpiresAt != nil && review.TokenExpiresAt.After(now)
}

// issueOrReuseApprovalToken applies the reuse rule: a pending review with a
// live token keeps it, so links already emailed to approvers stay valid.
// Everything else gets a fresh token with a fresh expiry. The gorm store
// re-applies the same rule inside the submission transaction, so a stale
// in-process read can never clobber a token another request just issued.
func issueOrReuseApprovalToken(review *models.Review, now time.Time) error {
	if review.ApprovalStatus == models.ApprovalStatusPending && hasLiveApprovalToken(review, now) {
		return nil
	}
	token, err := generateBearerToken()
	if err != nil {
		return err
	}
	expires := now.Add(TokenTTL)
	review.ApprovalToken = &token
	review.TokenExpiresAt = &expires
	return nil
}

// hasLiveCCToken reports whether the review holds a CC token that has not
// expired at the given instant.
func hasLiveCCToken(review *models.Review, now time.Time) bool {
	return review.CCToken != nil && *review.CCToken != "" &&
		review.CCTokenExpiresAt != nil && review.CCTokenExpiresAt.After(now)
}

// ensureCCToken mints a CC token unless the review already carries a live
// one. CC tokens are independent of approval tokens: issuing or rotating one
// never touches the other, so each kind keeps its own expiry.
func ensureCCToken(review *models.Review, now time.Time) error {
	if hasLiveCCToken(review, now) {
		return nil
	}
	token, err := generateBearerToken()
	if err != nil {
		return err
	}
	expires := now.Add(TokenTTL)
	review.CCToken = &token
	review.CCTokenExpiresAt = &expires
	return nil
}
