package store

import "errors"

// Sentinel errors returned by the file service. Callers should use
// [errors.Is] to match against these values.
var (
	// ErrFileNotFound is returned when the vault file (or a requested
	// backup) does not exist.
	ErrFileNotFound = errors.New("vault file not found")

	// ErrPermissionDenied is returned when a vault file is accessible by
	// group or other users. Such files are rejected before a single byte
	// is parsed.
	ErrPermissionDenied = errors.New("vault file permissions too open")

	// ErrFileWrite is returned when writing, syncing, or renaming the
	// vault file fails. The previous file contents are left intact.
	ErrFileWrite = errors.New("vault file write failed")

	// ErrNoBackups is returned by restore when no backup files exist for
	// the requested path.
	ErrNoBackups = errors.New("no backup files found")
)
