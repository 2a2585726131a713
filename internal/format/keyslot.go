// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TJDev Engineering

package format

import (
	"fmt"

	"github.com/tjdeveng/KeepTower-sub001/models"
)

const tokenChallengeSlotSize = 32

// encodeSlot serializes one key slot. Variable-length fields carry an
// explicit length prefix; the username itself is never written.
func encodeSlot(w *byteWriter, s *models.KeySlot) error {
	if len(s.TokenSerial) > 255 {
		return fmt.Errorf("%w: token serial exceeds 255 bytes", ErrInvalidParameter)
	}
	if len(s.EncryptedPIN) > 0xFFFF || len(s.CredentialID) > 0xFFFF {
		return fmt.Errorf("%w: slot field exceeds 65535 bytes", ErrInvalidParameter)
	}
	if len(s.PasswordHistory) > 255 {
		return fmt.Errorf("%w: password history exceeds 255 entries", ErrInvalidParameter)
	}

	w.bool(s.Active)
	w.u8(uint8(s.KEKAlgorithm))
	w.u8(uint8(s.UsernameHashAlgorithm))
	w.fixedBytes(s.UsernameHash, models.UsernameHashFieldSize)
	w.u8(s.UsernameHashSize)
	w.fixedBytes(s.UsernameSalt, models.UsernameSaltSize)
	w.fixedBytes(s.KEKSalt, models.KEKSaltSize)
	w.fixedBytes(s.WrappedDEK, models.WrappedDEKSize)
	w.u8(uint8(s.Role))
	w.bool(s.MustChangePassword)
	w.i64(s.PasswordChangedAt)
	w.i64(s.LastLoginAt)
	w.bool(s.TokenEnrolled)
	w.fixedBytes(s.TokenChallenge, tokenChallengeSlotSize)
	w.u8(uint8(len(s.TokenSerial)))
	w.bytes([]byte(s.TokenSerial))
	w.i64(s.TokenEnrolledAt)
	w.u16(uint16(len(s.EncryptedPIN)))
	w.bytes(s.EncryptedPIN)
	w.u16(uint16(len(s.CredentialID)))
	w.bytes(s.CredentialID)

	w.u8(uint8(len(s.PasswordHistory)))
	for _, entry := range s.PasswordHistory {
		w.i64(entry.Timestamp)
		w.fixedBytes(entry.Salt, models.PasswordHistorySaltSize)
		w.fixedBytes(entry.Hash, models.PasswordHistoryHashSize)
	}

	w.u8(uint8(s.MigrationStatus))
	w.i64(s.MigratedAt)
	return nil
}

// decodeSlot reads one key slot and validates its enum fields.
func decodeSlot(r *byteReader) (models.KeySlot, error) {
	var s models.KeySlot

	s.Active = r.u8() != 0
	s.KEKAlgorithm = models.KEKAlgorithm(r.u8())
	s.UsernameHashAlgorithm = models.HashAlgorithm(r.u8())
	s.UsernameHash = r.bytes(models.UsernameHashFieldSize)
	s.UsernameHashSize = r.u8()
	s.UsernameSalt = r.bytes(models.UsernameSaltSize)
	s.KEKSalt = r.bytes(models.KEKSaltSize)
	s.WrappedDEK = r.bytes(models.WrappedDEKSize)
	s.Role = models.Role(r.u8())
	s.MustChangePassword = r.u8() != 0
	s.PasswordChangedAt = r.i64()
	s.LastLoginAt = r.i64()
	s.TokenEnrolled = r.u8() != 0
	s.TokenChallenge = r.bytes(tokenChallengeSlotSize)
	s.TokenSerial = string(r.bytes(int(r.u8())))
	s.TokenEnrolledAt = r.i64()
	s.EncryptedPIN = r.bytes(int(r.u16()))
	s.CredentialID = r.bytes(int(r.u16()))

	historyCount := int(r.u8())
	s.PasswordHistory = make([]models.PasswordHistoryEntry, 0, historyCount)
	for i := 0; i < historyCount; i++ {
		s.PasswordHistory = append(s.PasswordHistory, models.PasswordHistoryEntry{
			Timestamp: r.i64(),
			Salt:      r.bytes(models.PasswordHistorySaltSize),
			Hash:      r.bytes(models.PasswordHistoryHashSize),
		})
	}

	s.MigrationStatus = models.MigrationStatus(r.u8())
	s.MigratedAt = r.i64()

	if r.failed {
		return s, fmt.Errorf("%w: truncated key slot", ErrCorruptedFile)
	}
	if s.Active {
		if s.KEKAlgorithm != models.KEKAlgorithmPBKDF2 && s.KEKAlgorithm != models.KEKAlgorithmArgon2id {
			return s, fmt.Errorf("%w: unknown kek algorithm 0x%02x", ErrCorruptedFile, uint8(s.KEKAlgorithm))
		}
		if !s.UsernameHashAlgorithm.Valid() {
			return s, fmt.Errorf("%w: unknown username hash algorithm %d", ErrCorruptedFile, s.UsernameHashAlgorithm)
		}
	}
	if int(s.UsernameHashSize) > models.UsernameHashFieldSize {
		return s, fmt.Errorf("%w: username hash size %d exceeds %d",
			ErrCorruptedFile, s.UsernameHashSize, models.UsernameHashFieldSize)
	}
	if s.Role != models.RoleStandardUser && s.Role != models.RoleAdministrator {
		return s, fmt.Errorf("%w: unknown role %d", ErrCorruptedFile, uint8(s.Role))
	}
	switch s.MigrationStatus {
	case models.MigrationUnmigrated, models.MigrationMigrated, models.MigrationPending:
	default:
		return s, fmt.Errorf("%w: unknown migration status 0x%02x", ErrCorruptedFile, uint8(s.MigrationStatus))
	}

	return s, nil
}
