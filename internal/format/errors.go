package format

import "errors"

// Sentinel errors returned by the container codec. Callers should use
// [errors.Is] to match against these values.
var (
	// ErrCorruptedFile is returned for any structural defect: truncated
	// input, bad magic, an oversized or zero header-length field, or field
	// values outside their documented ranges.
	ErrCorruptedFile = errors.New("corrupted vault file")

	// ErrUnsupportedVersion is returned when the magic is recognized but
	// the format version is not one this codec can parse, including the
	// legacy V1 format passed to the V2 reader.
	ErrUnsupportedVersion = errors.New("unsupported vault format version")

	// ErrFECDecodingFailed is returned when the header's forward error
	// correction was attempted and exceeded. Distinct from
	// ErrCorruptedFile: the structure was intact but unrecoverable.
	ErrFECDecodingFailed = errors.New("header fec decoding failed")

	// ErrInvalidParameter is returned when a caller-supplied parameter
	// (e.g. a redundancy percentage above 50) cannot be serialized.
	ErrInvalidParameter = errors.New("invalid format parameter")
)
