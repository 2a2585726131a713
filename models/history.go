// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TJDev Engineering

package models

// Password history hashing parameters. Each retained entry is a slow hash so
// that a stolen vault file does not expose previous passwords any faster
// than the current one.
const (
	// PasswordHistorySaltSize is the per-entry salt length.
	PasswordHistorySaltSize = 32

	// PasswordHistoryHashSize is the PBKDF2-HMAC-SHA512 output length.
	PasswordHistoryHashSize = 48

	// PasswordHistoryIterations is the fixed PBKDF2 iteration count for
	// history entries.
	PasswordHistoryIterations = 600_000

	// PasswordHistoryEntrySize is the serialized entry size:
	// timestamp(8) + salt(32) + hash(48).
	PasswordHistoryEntrySize = 8 + PasswordHistorySaltSize + PasswordHistoryHashSize
)

// PasswordHistoryEntry is one retained password hash in a key slot's
// reuse-prevention list.
type PasswordHistoryEntry struct {
	// Timestamp is the Unix time the password was set.
	Timestamp int64

	// Salt is the 32-byte per-entry salt.
	Salt []byte

	// Hash is the 48-byte PBKDF2-HMAC-SHA512 hash of the password.
	Hash []byte
}
