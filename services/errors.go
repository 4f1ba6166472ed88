package services

import "errors"

// Workflow errors surfaced to callers. Controllers translate these to HTTP
// status codes with errors.Is.
var (
	// ErrReviewNotFound is returned when the referenced review does not exist
	// or has been soft-deleted.
	ErrReviewNotFound = errors.New("review not found")

	// ErrInvalidToken is returned for malformed or unknown bearer tokens, and
	// for tokens that lack the capability the operation requires.
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenExpired is returned when a token is recognized but past its
	// expiry. The review record itself is untouched.
	ErrTokenExpired = errors.New("token expired")

	// ErrAlreadyDecided is returned when a terminal review receives a second,
	// different decision, or a terminal review is re-submitted.
	ErrAlreadyDecided = errors.New("review already decided")
)

// ValidationError reports malformed caller input (bad email lists, missing
// required submission fields). It is distinct from the sentinel errors above
// because the message carries the field-level detail.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func newValidationError(message string) error {
	return &ValidationError{Message: message}
}

// IsValidationError reports whether err is a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
