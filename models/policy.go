// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TJDev Engineering

package models

import "fmt"

// SecurityPolicy range bounds enforced on deserialization and update.
const (
	MinPasswordLengthFloor   = 8
	MinPasswordLengthCeiling = 128

	PBKDF2IterationsFloor   = 100_000
	PBKDF2IterationsCeiling = 1_000_000

	PasswordHistoryDepthCeiling = 24

	Argon2MemoryKBFloor   = 8192
	Argon2MemoryKBCeiling = 1_048_576
	Argon2IterationsFloor = 1
	Argon2IterationsCeil  = 10
	Argon2ParallelismMin  = 1
	Argon2ParallelismMax  = 16
)

// Migration flag bits stored in SecurityPolicy.MigrationFlags.
const (
	// MigrationFlagEnabled activates two-phase authentication: slots whose
	// hash fails under the current algorithm are retried with the previous
	// one and migrated in place on success.
	MigrationFlagEnabled uint8 = 0x01

	// MigrationFlagMask covers all defined flag bits.
	MigrationFlagMask uint8 = 0x03
)

// TokenChallengeSize is the fixed size of the policy-level hardware-token
// challenge field.
const TokenChallengeSize = 64

// SecurityPolicy is the vault-wide security configuration stored in the
// container header. Updating it is the only trigger for username-hash
// algorithm migration: the caller sets PreviousHashAlgorithm to the old
// current value, points UsernameHashAlgorithm at the target, and sets
// MigrationFlagEnabled. Clearing the flag stops new migrations without
// reverting slots that already migrated.
type SecurityPolicy struct {
	// RequireToken forces hardware-token enrollment for every user.
	RequireToken bool

	// TokenAlgorithm is the token HMAC algorithm identifier. New vaults
	// use 0x02 (SHA-256); lower values are rejected.
	TokenAlgorithm uint8

	// MinPasswordLength is the minimum accepted password length, 8 to 128.
	MinPasswordLength uint32

	// PBKDF2Iterations is the iteration count for PBKDF2 KEK derivation,
	// 100,000 to 1,000,000.
	PBKDF2Iterations uint32

	// PasswordHistoryDepth is how many previous password hashes each slot
	// retains for reuse prevention, 0 to 24.
	PasswordHistoryDepth uint32

	// UsernameHashAlgorithm is the current algorithm for hashing usernames
	// in new or migrated slots.
	UsernameHashAlgorithm HashAlgorithm

	// Argon2MemoryKB, Argon2Iterations, and Argon2Parallelism parameterize
	// Argon2id wherever the policy selects it.
	Argon2MemoryKB    uint32
	Argon2Iterations  uint32
	Argon2Parallelism uint8

	// TokenChallenge is the vault-wide 64-byte token challenge.
	TokenChallenge []byte

	// PreviousHashAlgorithm is the algorithm being migrated away from.
	// Meaningful only while MigrationEnabled reports true.
	PreviousHashAlgorithm HashAlgorithm

	// MigrationStartedAt is the Unix timestamp when the current migration
	// was initiated. Zero when no migration has ever run.
	MigrationStartedAt int64

	// MigrationFlags holds MigrationFlag* bits.
	MigrationFlags uint8
}

// DefaultSecurityPolicy returns the policy applied to newly created vaults.
func DefaultSecurityPolicy() SecurityPolicy {
	return SecurityPolicy{
		TokenAlgorithm:        0x02,
		MinPasswordLength:     12,
		PBKDF2Iterations:      100_000,
		PasswordHistoryDepth:  5,
		UsernameHashAlgorithm: HashSHA3_256,
		Argon2MemoryKB:        65536,
		Argon2Iterations:      3,
		Argon2Parallelism:     4,
		TokenChallenge:        make([]byte, TokenChallengeSize),
	}
}

// MigrationEnabled reports whether two-phase authentication is active.
func (p *SecurityPolicy) MigrationEnabled() bool {
	return p.MigrationFlags&MigrationFlagEnabled != 0
}

// Validate checks every field against its documented range. A policy read
// from disk that fails validation means the file is corrupted or was written
// by incompatible software.
func (p *SecurityPolicy) Validate() error {
	if p.TokenAlgorithm < 0x02 {
		return fmt.Errorf("token algorithm 0x%02x below SHA-256 minimum", p.TokenAlgorithm)
	}
	if p.MinPasswordLength < MinPasswordLengthFloor || p.MinPasswordLength > MinPasswordLengthCeiling {
		return fmt.Errorf("min password length %d outside [%d, %d]",
			p.MinPasswordLength, MinPasswordLengthFloor, MinPasswordLengthCeiling)
	}
	if p.PBKDF2Iterations < PBKDF2IterationsFloor || p.PBKDF2Iterations > PBKDF2IterationsCeiling {
		return fmt.Errorf("pbkdf2 iterations %d outside [%d, %d]",
			p.PBKDF2Iterations, PBKDF2IterationsFloor, PBKDF2IterationsCeiling)
	}
	if p.PasswordHistoryDepth > PasswordHistoryDepthCeiling {
		return fmt.Errorf("password history depth %d exceeds %d",
			p.PasswordHistoryDepth, PasswordHistoryDepthCeiling)
	}
	if !p.UsernameHashAlgorithm.Valid() {
		return fmt.Errorf("unknown username hash algorithm %d", p.UsernameHashAlgorithm)
	}
	if p.Argon2MemoryKB < Argon2MemoryKBFloor || p.Argon2MemoryKB > Argon2MemoryKBCeiling {
		return fmt.Errorf("argon2 memory %d KiB outside [%d, %d]",
			p.Argon2MemoryKB, Argon2MemoryKBFloor, Argon2MemoryKBCeiling)
	}
	if p.Argon2Iterations < Argon2IterationsFloor || p.Argon2Iterations > Argon2IterationsCeil {
		return fmt.Errorf("argon2 iterations %d outside [%d, %d]",
			p.Argon2Iterations, Argon2IterationsFloor, Argon2IterationsCeil)
	}
	if p.Argon2Parallelism < Argon2ParallelismMin || p.Argon2Parallelism > Argon2ParallelismMax {
		return fmt.Errorf("argon2 parallelism %d outside [%d, %d]",
			p.Argon2Parallelism, Argon2ParallelismMin, Argon2ParallelismMax)
	}
	if p.MigrationFlags&^MigrationFlagMask != 0 {
		return fmt.Errorf("undefined migration flag bits 0x%02x", p.MigrationFlags)
	}
	return nil
}
