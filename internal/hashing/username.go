// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TJDev Engineering

// Package hashing computes salted one-way hashes of usernames, resolves the
// effective KEK derivation algorithm from configuration, and owns the
// process-wide FIPS mode state.
//
// Key slots are located on disk by username hash, never by plaintext
// username, so hashing must be deterministic per (input, salt, algorithm,
// parameters) and verification must be constant-time.
package hashing

import (
	"crypto/sha256"
	"crypto/subtle"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/pbkdf2"
	"golang.org/x/crypto/sha3"

	"github.com/tjdeveng/KeepTower-sub001/internal/logger"
	"github.com/tjdeveng/KeepTower-sub001/models"
)

// usernamePBKDF2MinIterations is the silent floor for PBKDF2 username
// hashing. Lower requests are raised, not rejected.
const usernamePBKDF2MinIterations = 1000

// Service computes and verifies username hashes. All parameter material
// comes from the security policy passed per call, so one Service works for
// every vault regardless of configuration.
type Service struct {
	log *logger.Logger
}

// NewService constructs a username hashing Service.
func NewService(log *logger.Logger) *Service {
	return &Service{log: log}
}

// HashUsername computes the salted hash of username under alg.
//
// The SHA3 family hashes username||salt. PBKDF2 and Argon2id treat the
// username as the passphrase and take their cost parameters from policy;
// PBKDF2 iteration counts below 1000 are silently raised to 1000.
// HashPlaintextLegacy returns the raw username bytes and ignores the salt.
//
// Returns ErrUnknownAlgorithm for an identifier outside the enum, or
// ErrInvalidSalt when a salted algorithm receives an empty salt.
func (s *Service) HashUsername(alg models.HashAlgorithm, username string, salt []byte, policy *models.SecurityPolicy) ([]byte, error) {
	if !alg.Valid() {
		return nil, ErrUnknownAlgorithm
	}
	if alg != models.HashPlaintextLegacy && len(salt) == 0 {
		return nil, ErrInvalidSalt
	}

	switch alg {
	case models.HashPlaintextLegacy:
		return []byte(username), nil

	case models.HashSHA3_256:
		sum := sha3.Sum256(saltedInput(username, salt))
		return sum[:], nil

	case models.HashSHA3_384:
		sum := sha3.Sum384(saltedInput(username, salt))
		return sum[:], nil

	case models.HashSHA3_512:
		sum := sha3.Sum512(saltedInput(username, salt))
		return sum[:], nil

	case models.HashPBKDF2SHA256:
		iterations := int(policy.PBKDF2Iterations)
		if iterations < usernamePBKDF2MinIterations {
			iterations = usernamePBKDF2MinIterations
		}
		return pbkdf2.Key([]byte(username), salt, iterations, alg.OutputSize(), sha256.New), nil

	case models.HashArgon2id:
		return argon2.IDKey(
			[]byte(username),
			salt,
			policy.Argon2Iterations,
			policy.Argon2MemoryKB,
			policy.Argon2Parallelism,
			uint32(alg.OutputSize()),
		), nil
	}

	return nil, ErrUnknownAlgorithm
}

// VerifyUsername reports whether username hashes to expected under alg and
// salt. The comparison is constant-time. Any parameter or algorithm mismatch
// is a verification failure, never an error or panic.
func (s *Service) VerifyUsername(alg models.HashAlgorithm, username string, salt, expected []byte, policy *models.SecurityPolicy) bool {
	computed, err := s.HashUsername(alg, username, salt, policy)
	if err != nil {
		return false
	}
	if len(computed) != len(expected) {
		return false
	}
	return subtle.ConstantTimeCompare(computed, expected) == 1
}

// saltedInput builds the username||salt preimage for the SHA3 family.
func saltedInput(username string, salt []byte) []byte {
	input := make([]byte, 0, len(username)+len(salt))
	input = append(input, username...)
	input = append(input, salt...)
	return input
}

// ResolveKEKAlgorithm maps a configured hash algorithm preference to the
// effective KEK derivation algorithm.
//
// The SHA3 family is valid for identity hashing but far too fast for
// password protection, so it is substituted with PBKDF2. FIPS mode forces
// PBKDF2 regardless of preference because Argon2id is not FIPS-approved.
// Unknown or legacy preferences also fall back to PBKDF2.
func ResolveKEKAlgorithm(preference models.HashAlgorithm, fipsEnabled bool) models.KEKAlgorithm {
	if fipsEnabled {
		return models.KEKAlgorithmPBKDF2
	}
	if preference == models.HashArgon2id {
		return models.KEKAlgorithmArgon2id
	}
	return models.KEKAlgorithmPBKDF2
}
