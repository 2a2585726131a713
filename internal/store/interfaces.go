package store

// VaultFiles is the filesystem contract consumed by the vault manager.
// Implementations must guarantee that a write either fully replaces the
// target file or leaves it untouched; partial files must never be visible
// at the vault path.
type VaultFiles interface {
	// Read returns the file contents after verifying the file is
	// accessible only by its owner.
	Read(path string) ([]byte, error)

	// Write atomically replaces the file at path with data, creating it
	// owner-read/write only.
	Write(path string, data []byte) error

	// CreateBackup copies the current file to a timestamped sibling and
	// returns the backup path.
	CreateBackup(path string) (string, error)

	// ListBackups returns existing backup paths, newest first.
	ListBackups(path string) ([]string, error)

	// CleanupBackups deletes all but the keep most recent backups.
	CleanupBackups(path string, keep int) error

	// RestoreLatestBackup copies the most recent backup over the live
	// path.
	RestoreLatestBackup(path string) error
}
