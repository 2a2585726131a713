// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TJDev Engineering

package models

// Role identifies the permission level a key slot grants its user.
type Role uint8

const (
	// RoleStandardUser can read and modify vault records and change their
	// own password, but cannot manage other users or the security policy.
	RoleStandardUser Role = 0

	// RoleAdministrator can additionally add and remove users, reset
	// passwords, and update the security policy.
	RoleAdministrator Role = 1
)

// String returns a human-readable role name.
func (r Role) String() string {
	switch r {
	case RoleAdministrator:
		return "administrator"
	case RoleStandardUser:
		return "standard user"
	default:
		return "unknown"
	}
}

// MigrationStatus records how far a key slot has progressed through a
// username-hash algorithm migration.
type MigrationStatus uint8

const (
	// MigrationUnmigrated means the slot's username hash was computed with
	// an algorithm that predates the current policy value.
	MigrationUnmigrated MigrationStatus = 0x00

	// MigrationMigrated means the slot has been rehashed with the policy's
	// current algorithm. The transition is one-way: a migrated slot
	// authenticates only via its own recorded algorithm from then on.
	MigrationMigrated MigrationStatus = 0x01

	// MigrationPending marks a slot whose migration was started but not yet
	// persisted. Written only transiently inside a save cycle.
	MigrationPending MigrationStatus = 0xFF
)

// KEKAlgorithm identifies the key-derivation function that turns a user
// password into the key-encryption key for that slot.
type KEKAlgorithm uint8

const (
	// KEKAlgorithmPBKDF2 is PBKDF2-HMAC-SHA256. The only FIPS-approved
	// choice, and the substitute for every non-KDF hash preference.
	KEKAlgorithmPBKDF2 KEKAlgorithm = 0x04

	// KEKAlgorithmArgon2id is Argon2id parameterized by the security policy.
	KEKAlgorithmArgon2id KEKAlgorithm = 0x05
)

// Fixed key-slot field sizes shared by the crypto and format layers.
const (
	// MaxKeySlots is the hard ceiling of active slots per vault.
	MaxKeySlots = 32

	// UsernameHashFieldSize is the fixed on-disk size of the username-hash
	// field. Shorter digests are zero-padded; the real length is stored
	// alongside.
	UsernameHashFieldSize = 64

	// UsernameSaltSize is the salt length for username hashing.
	UsernameSaltSize = 16

	// KEKSaltSize is the salt length for KEK derivation.
	KEKSaltSize = 32

	// WrappedDEKSize is the length of a DEK wrapped with AES-256 key
	// wrapping: 32 key bytes plus an 8-byte integrity block.
	WrappedDEKSize = 40

	// MaxUsernameLength bounds the in-memory username in bytes.
	MaxUsernameLength = 255
)

// KeySlot is the per-user record of a multi-user vault. Each active slot
// holds an independently wrapped copy of the vault DEK together with the
// material needed to locate and authenticate the slot by username.
//
// The plaintext username is never serialized; on disk a slot is identified
// only by its salted username hash. Username is populated in memory when the
// slot is created or successfully authenticated.
type KeySlot struct {
	// Active reports whether this slot is in use. Inactive slots are
	// retained on disk as tombstones so slot indices stay stable.
	Active bool

	// KEKAlgorithm is the KDF used to derive this slot's KEK.
	KEKAlgorithm KEKAlgorithm

	// UsernameHashAlgorithm is the hash algorithm this slot's UsernameHash
	// was computed with. For a MIGRATED slot this recorded value always
	// wins over the live policy when authenticating.
	UsernameHashAlgorithm HashAlgorithm

	// UsernameHash is the salted one-way hash of the username,
	// UsernameHashSize bytes of it significant.
	UsernameHash []byte

	// UsernameHashSize is the significant length of UsernameHash.
	UsernameHashSize uint8

	// UsernameSalt is the 16-byte salt for UsernameHash.
	UsernameSalt []byte

	// KEKSalt is the 32-byte salt for KEK derivation.
	KEKSalt []byte

	// WrappedDEK is this user's copy of the vault DEK wrapped under their
	// KEK, always WrappedDEKSize bytes.
	WrappedDEK []byte

	// Role is the permission level this slot grants.
	Role Role

	// MustChangePassword forces a password change on the next login.
	// Set when an administrator resets the user's password.
	MustChangePassword bool

	// PasswordChangedAt is the Unix timestamp (seconds, UTC) of the last
	// password change. Zero means never recorded.
	PasswordChangedAt int64

	// LastLoginAt is the Unix timestamp of the last successful login.
	LastLoginAt int64

	// TokenEnrolled reports whether a hardware token is enrolled for this
	// slot. When set, the KEK is combined with the token's
	// challenge-response before unwrapping the DEK.
	TokenEnrolled bool

	// TokenChallenge is the 32-byte fixed challenge sent to the token.
	TokenChallenge []byte

	// TokenSerial is the serial number of the enrolled token.
	TokenSerial string

	// TokenEnrolledAt is the Unix timestamp of token enrollment.
	TokenEnrolledAt int64

	// EncryptedPIN is the token PIN encrypted with the vault DEK,
	// IV-prefixed. Empty when no PIN is stored.
	EncryptedPIN []byte

	// CredentialID is an opaque credential identifier for FIDO2-style
	// tokens. Empty for challenge-response tokens.
	CredentialID []byte

	// PasswordHistory holds hashes of previously used passwords, newest
	// first, bounded by the policy's history depth.
	PasswordHistory []PasswordHistoryEntry

	// MigrationStatus tracks username-hash algorithm migration.
	MigrationStatus MigrationStatus

	// MigratedAt is the Unix timestamp when migration completed.
	MigratedAt int64

	// Username is the plaintext username. In-memory only, never written
	// to disk.
	Username string `json:"-"`
}

// IsAdministrator reports whether the slot grants administrator rights.
func (s *KeySlot) IsAdministrator() bool {
	return s.Role == RoleAdministrator
}
