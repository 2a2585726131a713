package hashing

import "errors"

// Sentinel errors returned by the hashing services. Callers should use
// [errors.Is] to match against these values.
var (
	// ErrInvalidSalt is returned when a salted algorithm is invoked with an
	// empty salt.
	ErrInvalidSalt = errors.New("invalid or empty salt")

	// ErrUnknownAlgorithm is returned when an algorithm identifier is
	// outside the closed enum.
	ErrUnknownAlgorithm = errors.New("unknown hash algorithm")

	// ErrFIPSUnavailable is returned when FIPS mode is requested but the
	// runtime was not started with a FIPS-validated crypto module.
	ErrFIPSUnavailable = errors.New("fips mode is not available in this runtime")
)
