package service

import "errors"

// Sentinel errors returned by the vault manager. Callers match them with
// errors.Is; the wrapped messages carry operation context.
var (
	// ErrVaultNotOpen indicates an operation that requires an open vault
	// was called on a closed manager.
	ErrVaultNotOpen = errors.New("vault is not open")

	// ErrVaultAlreadyOpen indicates Create or Open was called while a
	// vault is already open on this manager.
	ErrVaultAlreadyOpen = errors.New("vault is already open")

	// ErrAuthenticationFailed indicates the username/password pair (and
	// token response, when enrolled) did not unlock any key slot. The
	// error is identical for every failure cause so callers cannot probe
	// which usernames exist.
	ErrAuthenticationFailed = errors.New("authentication failed")

	// ErrPermissionDenied indicates the authenticated user lacks the role
	// required for the operation.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrPasswordChangeRequired indicates the session is restricted until
	// the user changes their password.
	ErrPasswordChangeRequired = errors.New("password change required")

	// ErrUserAlreadyExists indicates a slot for the username is already
	// active.
	ErrUserAlreadyExists = errors.New("user already exists")

	// ErrUserNotFound indicates no active slot matches the username.
	ErrUserNotFound = errors.New("user not found")

	// ErrSelfRemovalNotAllowed indicates a user attempted to remove their
	// own slot.
	ErrSelfRemovalNotAllowed = errors.New("cannot remove own user")

	// ErrLastAdministrator indicates the operation would leave the vault
	// without an active administrator.
	ErrLastAdministrator = errors.New("cannot remove last administrator")

	// ErrSlotTableFull indicates the vault already holds the maximum
	// number of key slots.
	ErrSlotTableFull = errors.New("key slot table is full")

	// ErrPasswordReused indicates the new password matches one of the
	// retained history entries.
	ErrPasswordReused = errors.New("password was used before")

	// ErrRecordNotFound indicates no account record matches the given ID.
	ErrRecordNotFound = errors.New("record not found")

	// ErrGroupNotFound indicates no group matches the given ID.
	ErrGroupNotFound = errors.New("group not found")

	// ErrNoTokenProvider indicates a hardware-token operation was
	// requested but no TokenProvider is attached to the manager.
	ErrNoTokenProvider = errors.New("no token provider available")

	// ErrTokenFailure indicates the hardware token rejected or failed a
	// challenge-response operation.
	ErrTokenFailure = errors.New("hardware token operation failed")

	// ErrLegacyVault indicates a version 1 container, which this manager
	// reads parameters from but never opens or converts.
	ErrLegacyVault = errors.New("legacy vault format")
)
