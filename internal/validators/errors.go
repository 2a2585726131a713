package validators

import "errors"

// Sentinel errors returned by credential validation. Callers should use
// [errors.Is] to match against these values.
var (
	// ErrWeakPassword is returned when a password fails the security
	// policy: too short, missing character classes, or too guessable.
	ErrWeakPassword = errors.New("password does not meet policy requirements")

	// ErrInvalidUsername is returned for empty, oversized, or non-UTF-8
	// usernames.
	ErrInvalidUsername = errors.New("invalid username")
)
