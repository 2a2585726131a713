package fec

import "errors"

// Sentinel errors returned by the codec. Callers should use [errors.Is] to
// match against these values.
var (
	// ErrInvalidRedundancy is returned by [New] when the requested
	// redundancy percentage is outside the supported 5-50 range.
	ErrInvalidRedundancy = errors.New("redundancy percentage must be between 5 and 50")

	// ErrInvalidData is returned when input is structurally unusable:
	// empty data, an encoded length that is not a whole number of blocks,
	// or an original length larger than the encoded data can hold. It is
	// distinct from ErrDecodingFailed, which means correction was
	// attempted and exceeded.
	ErrInvalidData = errors.New("invalid or empty data")

	// ErrDecodingFailed is returned when corruption exceeds the correction
	// capacity of the configured redundancy. The data is structurally
	// well-formed but unrecoverable.
	ErrDecodingFailed = errors.New("fec decoding failed: data too corrupted")
)
