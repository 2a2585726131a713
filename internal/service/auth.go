// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TJDev Engineering

package service

import (
	"fmt"

	"github.com/tjdeveng/KeepTower-sub001/internal/crypto"
	"github.com/tjdeveng/KeepTower-sub001/internal/format"
	"github.com/tjdeveng/KeepTower-sub001/internal/hashing"
	"github.com/tjdeveng/KeepTower-sub001/models"
)

// newSlot builds a fully populated key slot for username. The slot's
// username hash uses the policy's current algorithm; the KEK algorithm is
// resolved from the same preference and the process FIPS state.
func (m *Manager) newSlot(username, password string, role models.Role, mustChange bool,
	dek []byte, policy *models.SecurityPolicy) (models.KeySlot, error) {

	usernameSalt, err := m.keys.GenerateUsernameSalt()
	if err != nil {
		return models.KeySlot{}, fmt.Errorf("generating username salt: %w", err)
	}
	alg := policy.UsernameHashAlgorithm
	usernameHash, err := m.hasher.HashUsername(alg, username, usernameSalt, policy)
	if err != nil {
		return models.KeySlot{}, fmt.Errorf("hashing username: %w", err)
	}

	kekAlg := hashing.ResolveKEKAlgorithm(alg, hashing.FIPSEnabled())
	kek, kekSalt, err := m.keys.DeriveKEK(password, nil, kekAlg, policy)
	if err != nil {
		return models.KeySlot{}, fmt.Errorf("deriving KEK: %w", err)
	}
	wrapped, err := m.keys.WrapDEK(dek, kek)
	crypto.SecureClear(kek)
	if err != nil {
		return models.KeySlot{}, fmt.Errorf("wrapping DEK: %w", err)
	}

	ts := now()
	slot := models.KeySlot{
		Active:                true,
		KEKAlgorithm:          kekAlg,
		UsernameHashAlgorithm: alg,
		UsernameHash:          usernameHash,
		UsernameHashSize:      uint8(len(usernameHash)),
		UsernameSalt:          usernameSalt,
		KEKSalt:               kekSalt,
		WrappedDEK:            wrapped,
		Role:                  role,
		MustChangePassword:    mustChange,
		PasswordChangedAt:     ts,
		MigrationStatus:       models.MigrationMigrated,
		Username:              username,
	}

	if policy.PasswordHistoryDepth > 0 {
		entry, err := m.historyEntry(password)
		if err != nil {
			return models.KeySlot{}, err
		}
		slot.PasswordHistory = []models.PasswordHistoryEntry{entry}
	}

	return slot, nil
}

// historyEntry hashes password into a fresh reuse-prevention entry.
func (m *Manager) historyEntry(password string) (models.PasswordHistoryEntry, error) {
	salt, err := m.keys.GenerateKEKSalt()
	if err != nil {
		return models.PasswordHistoryEntry{}, fmt.Errorf("generating history salt: %w", err)
	}
	return models.PasswordHistoryEntry{
		Timestamp: now(),
		Salt:      salt,
		Hash:      crypto.PasswordHistoryHash(password, salt),
	}, nil
}

// authenticateUser runs two-phase authentication against the container's
// slot table. It returns the matched slot index, the unwrapped DEK, and
// whether the slot authenticated via the previous algorithm and was rehashed
// in memory (the caller persists). A negative index means failure; the
// caller maps it to the single authentication error.
func (m *Manager) authenticateUser(c *format.Container, username, password string) (int, []byte, bool) {
	policy := &c.Header.Policy

	// Phase 1: the slot's effective algorithm. A migrated slot's recorded
	// algorithm always wins over the live policy.
	for i := range c.Header.Slots {
		slot := &c.Header.Slots[i]
		if !slot.Active {
			continue
		}
		alg := policy.UsernameHashAlgorithm
		if slot.MigrationStatus == models.MigrationMigrated {
			alg = slot.UsernameHashAlgorithm
		}
		if !m.hasher.VerifyUsername(alg, username, slot.UsernameSalt,
			slot.UsernameHash[:slot.UsernameHashSize], policy) {
			continue
		}
		dek, err := m.unlockSlot(slot, password, policy)
		if err != nil {
			m.log.Debug().Int("slot", i).Msg("slot unlock failed")
			return -1, nil, false
		}
		return i, dek, false
	}

	if !policy.MigrationEnabled() {
		return -1, nil, false
	}

	// Phase 2: retry non-migrated slots with the previous algorithm.
	for i := range c.Header.Slots {
		slot := &c.Header.Slots[i]
		if !slot.Active || slot.MigrationStatus == models.MigrationMigrated {
			continue
		}
		if !m.hasher.VerifyUsername(policy.PreviousHashAlgorithm, username, slot.UsernameSalt,
			slot.UsernameHash[:slot.UsernameHashSize], policy) {
			continue
		}
		dek, err := m.unlockSlot(slot, password, policy)
		if err != nil {
			m.log.Debug().Int("slot", i).Msg("slot unlock failed")
			return -1, nil, false
		}
		m.rehashSlot(slot, username, policy)
		return i, dek, true
	}

	return -1, nil, false
}

// unlockSlot derives the slot's KEK from password, mixes in the token
// response when one is enrolled, and unwraps the DEK.
func (m *Manager) unlockSlot(slot *models.KeySlot, password string, policy *models.SecurityPolicy) ([]byte, error) {
	kek, _, err := m.keys.DeriveKEK(password, slot.KEKSalt, slot.KEKAlgorithm, policy)
	if err != nil {
		return nil, err
	}
	defer func() { crypto.SecureClear(kek) }()

	if slot.TokenEnrolled {
		if m.token == nil {
			return nil, ErrNoTokenProvider
		}
		response, err := m.token.ChallengeResponse(slot.TokenChallenge)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrTokenFailure, err)
		}
		combined, err := m.keys.CombineKEKWithToken(kek, response)
		if err != nil {
			return nil, err
		}
		crypto.SecureClear(kek)
		kek = combined
	}

	return m.keys.UnwrapDEK(slot.WrappedDEK, kek)
}

// rehashSlot rewrites the slot's username hash under the policy's current
// algorithm with a fresh salt and marks it migrated. In-memory only.
func (m *Manager) rehashSlot(slot *models.KeySlot, username string, policy *models.SecurityPolicy) {
	salt, err := m.keys.GenerateUsernameSalt()
	if err != nil {
		m.log.Warn().Err(err).Msg("slot migration skipped")
		return
	}
	hash, err := m.hasher.HashUsername(policy.UsernameHashAlgorithm, username, salt, policy)
	if err != nil {
		m.log.Warn().Err(err).Msg("slot migration skipped")
		return
	}

	slot.UsernameHashAlgorithm = policy.UsernameHashAlgorithm
	slot.UsernameHash = hash
	slot.UsernameHashSize = uint8(len(hash))
	slot.UsernameSalt = salt
	slot.MigrationStatus = models.MigrationMigrated
	slot.MigratedAt = now()

	m.log.Info().
		Str("algorithm", policy.UsernameHashAlgorithm.String()).
		Msg("key slot migrated to current hash algorithm")
}

// persistMigration writes a slot migration back to disk. Best effort: the
// user already holds a valid session, so a write failure is logged and the
// migration retried on a later login.
func (m *Manager) persistMigration(idx int) {
	if err := m.persistHeader(); err != nil {
		// The on-disk slot keeps its old hash and migrates again on a
		// later login.
		m.log.Warn().Err(err).Int("slot", idx).Msg("persisting slot migration failed")
	}
}
