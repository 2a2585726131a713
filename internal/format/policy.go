// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TJDev Engineering

package format

import (
	"fmt"

	"github.com/tjdeveng/KeepTower-sub001/models"
)

// policySize is the fixed serialized size of a SecurityPolicy:
// flags and algorithm bytes, four 32-bit parameters, the 64-byte token
// challenge, migration fields, and a 43-byte reserved tail.
const policySize = 141

const policyReservedSize = 43

// encodePolicy serializes p into exactly policySize bytes. Multi-byte
// fields are big-endian.
func encodePolicy(w *byteWriter, p *models.SecurityPolicy) {
	w.bool(p.RequireToken)
	w.u8(p.TokenAlgorithm)
	w.u32(p.MinPasswordLength)
	w.u32(p.PBKDF2Iterations)
	w.u32(p.PasswordHistoryDepth)
	w.u8(uint8(p.UsernameHashAlgorithm))
	w.u32(p.Argon2MemoryKB)
	w.u32(p.Argon2Iterations)
	w.u8(p.Argon2Parallelism)
	w.fixedBytes(p.TokenChallenge, models.TokenChallengeSize)
	w.u8(uint8(p.PreviousHashAlgorithm))
	w.i64(p.MigrationStartedAt)
	w.u8(p.MigrationFlags)
	w.fixedBytes(nil, policyReservedSize)
}

// decodePolicy reads a SecurityPolicy and validates every field range.
func decodePolicy(r *byteReader) (models.SecurityPolicy, error) {
	var p models.SecurityPolicy

	p.RequireToken = r.u8() != 0
	p.TokenAlgorithm = r.u8()
	p.MinPasswordLength = r.u32()
	p.PBKDF2Iterations = r.u32()
	p.PasswordHistoryDepth = r.u32()
	p.UsernameHashAlgorithm = models.HashAlgorithm(r.u8())
	p.Argon2MemoryKB = r.u32()
	p.Argon2Iterations = r.u32()
	p.Argon2Parallelism = r.u8()
	p.TokenChallenge = r.bytes(models.TokenChallengeSize)
	p.PreviousHashAlgorithm = models.HashAlgorithm(r.u8())
	p.MigrationStartedAt = r.i64()
	p.MigrationFlags = r.u8()
	r.bytes(policyReservedSize)

	if r.failed {
		return p, fmt.Errorf("%w: truncated security policy", ErrCorruptedFile)
	}
	if err := p.Validate(); err != nil {
		return p, fmt.Errorf("%w: %v", ErrCorruptedFile, err)
	}
	return p, nil
}
