// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TJDev Engineering

package models

import (
	"fmt"
	"strings"
)

// HashAlgorithm is the closed set of username-hash and KEK-preference
// algorithms. All variants are known at compile time; every consumer
// dispatches with a switch rather than dynamic polymorphism.
type HashAlgorithm uint8

const (
	// HashPlaintextLegacy stores the raw username bytes. Back-compat only;
	// never chosen for new vaults.
	HashPlaintextLegacy HashAlgorithm = 0

	// HashSHA3_256 is SHA3-256 over username||salt (32-byte digest).
	HashSHA3_256 HashAlgorithm = 1

	// HashSHA3_384 is SHA3-384 over username||salt (48-byte digest).
	HashSHA3_384 HashAlgorithm = 2

	// HashSHA3_512 is SHA3-512 over username||salt (64-byte digest).
	HashSHA3_512 HashAlgorithm = 3

	// HashPBKDF2SHA256 is PBKDF2-HMAC-SHA256 (32 bytes, iteration count
	// from the security policy, floored at 1000).
	HashPBKDF2SHA256 HashAlgorithm = 4

	// HashArgon2id is Argon2id (32 bytes, parameters from the security
	// policy).
	HashArgon2id HashAlgorithm = 5
)

// Valid reports whether a is a known algorithm identifier.
func (a HashAlgorithm) Valid() bool {
	return a <= HashArgon2id
}

// OutputSize returns the digest length in bytes, or 0 for
// HashPlaintextLegacy whose "digest" is the variable-length username itself.
func (a HashAlgorithm) OutputSize() int {
	switch a {
	case HashSHA3_256, HashPBKDF2SHA256, HashArgon2id:
		return 32
	case HashSHA3_384:
		return 48
	case HashSHA3_512:
		return 64
	default:
		return 0
	}
}

// FIPSApproved reports whether the algorithm may be used while FIPS mode is
// active. The SHA3 family and PBKDF2 are approved; plaintext pass-through
// and Argon2id are not.
func (a HashAlgorithm) FIPSApproved() bool {
	switch a {
	case HashSHA3_256, HashSHA3_384, HashSHA3_512, HashPBKDF2SHA256:
		return true
	default:
		return false
	}
}

// ParseHashAlgorithm resolves a configuration string such as "sha3-256" or
// "argon2id" to its [HashAlgorithm] value. Matching is case-insensitive.
func ParseHashAlgorithm(name string) (HashAlgorithm, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "sha3-256":
		return HashSHA3_256, nil
	case "sha3-384":
		return HashSHA3_384, nil
	case "sha3-512":
		return HashSHA3_512, nil
	case "pbkdf2", "pbkdf2-sha256":
		return HashPBKDF2SHA256, nil
	case "argon2id":
		return HashArgon2id, nil
	default:
		return 0, fmt.Errorf("unknown hash algorithm %q", name)
	}
}

// String returns the display name of the algorithm.
func (a HashAlgorithm) String() string {
	switch a {
	case HashPlaintextLegacy:
		return "plaintext (legacy)"
	case HashSHA3_256:
		return "SHA3-256"
	case HashSHA3_384:
		return "SHA3-384"
	case HashSHA3_512:
		return "SHA3-512"
	case HashPBKDF2SHA256:
		return "PBKDF2-HMAC-SHA256"
	case HashArgon2id:
		return "Argon2id"
	default:
		return "unknown"
	}
}
