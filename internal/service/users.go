// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TJDev Engineering

package service

import (
	"bytes"
	"fmt"

	"github.com/tjdeveng/KeepTower-sub001/internal/crypto"
	"github.com/tjdeveng/KeepTower-sub001/internal/hashing"
	"github.com/tjdeveng/KeepTower-sub001/internal/validators"
	"github.com/tjdeveng/KeepTower-sub001/models"
)

// UserInfo is the listable view of a key slot. Usernames are stored only as
// one-way hashes, so Username is populated solely for the authenticated
// user's own slot.
type UserInfo struct {
	SlotIndex          int
	Username           string
	Role               models.Role
	MustChangePassword bool
	TokenEnrolled      bool
	PasswordChangedAt  int64
	LastLoginAt        int64
	MigrationStatus    models.MigrationStatus
	HashAlgorithm      models.HashAlgorithm
}

// ListUsers returns one entry per active key slot.
func (m *Manager) ListUsers() ([]UserInfo, error) {
	if err := m.requireOpen(); err != nil {
		return nil, err
	}

	var users []UserInfo
	for i := range m.header.Slots {
		slot := &m.header.Slots[i]
		if !slot.Active {
			continue
		}
		info := UserInfo{
			SlotIndex:          i,
			Role:               slot.Role,
			MustChangePassword: slot.MustChangePassword,
			TokenEnrolled:      slot.TokenEnrolled,
			PasswordChangedAt:  slot.PasswordChangedAt,
			LastLoginAt:        slot.LastLoginAt,
			MigrationStatus:    slot.MigrationStatus,
			HashAlgorithm:      slot.UsernameHashAlgorithm,
		}
		if i == m.session.SlotIndex {
			info.Username = m.session.Username
		}
		users = append(users, info)
	}
	return users, nil
}

// AddUser creates a key slot for a new user sharing the open vault's DEK.
// Administrator only. mustChange forces a password change on the user's
// first login.
func (m *Manager) AddUser(username, password string, role models.Role, mustChange bool) error {
	if err := m.requireAdmin(); err != nil {
		return err
	}
	if err := validators.ValidateUsername(username); err != nil {
		return err
	}
	if err := validators.ValidatePassword(password, &m.header.Policy, username); err != nil {
		return err
	}
	if m.findSlot(username) >= 0 {
		return ErrUserAlreadyExists
	}

	slot, err := m.newSlot(username, password, role, mustChange, m.dek, &m.header.Policy)
	if err != nil {
		return err
	}

	// Reuse a tombstone before growing the table.
	idx := -1
	for i := range m.header.Slots {
		if !m.header.Slots[i].Active {
			idx = i
			break
		}
	}
	switch {
	case idx >= 0:
		m.header.Slots[idx] = slot
	case len(m.header.Slots) < models.MaxKeySlots:
		m.header.Slots = append(m.header.Slots, slot)
	default:
		return ErrSlotTableFull
	}

	if err := m.persistHeader(); err != nil {
		return err
	}
	m.log.Info().Str("role", role.String()).Msg("user added")
	return nil
}

// RemoveUser deactivates the named user's key slot. Administrator only;
// self-removal and removing the last administrator are rejected.
func (m *Manager) RemoveUser(username string) error {
	if err := m.requireAdmin(); err != nil {
		return err
	}

	idx := m.findSlot(username)
	if idx < 0 {
		return ErrUserNotFound
	}
	if idx == m.session.SlotIndex {
		return ErrSelfRemovalNotAllowed
	}
	slot := &m.header.Slots[idx]
	if slot.IsAdministrator() && m.activeAdmins() == 1 {
		return ErrLastAdministrator
	}

	// Tombstone the slot and drop its secrets.
	*slot = models.KeySlot{}

	if err := m.persistHeader(); err != nil {
		return err
	}
	m.log.Info().Int("slot", idx).Msg("user removed")
	return nil
}

// ChangeUserPassword changes the authenticated user's own password after
// verifying the old one. The new password is validated against the policy
// and rejected if it matches any retained history entry.
func (m *Manager) ChangeUserPassword(oldPassword, newPassword string) error {
	if !m.IsOpen() {
		return ErrVaultNotOpen
	}

	slot := &m.header.Slots[m.session.SlotIndex]
	dek, err := m.unlockSlot(slot, oldPassword, &m.header.Policy)
	if err != nil {
		return ErrAuthenticationFailed
	}
	crypto.SecureClear(dek)

	if err := validators.ValidatePassword(newPassword, &m.header.Policy, m.session.Username); err != nil {
		return err
	}
	for _, entry := range slot.PasswordHistory {
		if bytes.Equal(crypto.PasswordHistoryHash(newPassword, entry.Salt), entry.Hash) {
			return ErrPasswordReused
		}
	}

	if err := m.rewrapSlot(slot, newPassword); err != nil {
		return err
	}
	slot.MustChangePassword = false
	slot.PasswordChangedAt = now()

	if depth := int(m.header.Policy.PasswordHistoryDepth); depth > 0 {
		entry, err := m.historyEntry(newPassword)
		if err != nil {
			return err
		}
		slot.PasswordHistory = append([]models.PasswordHistoryEntry{entry}, slot.PasswordHistory...)
		if len(slot.PasswordHistory) > depth {
			slot.PasswordHistory = slot.PasswordHistory[:depth]
		}
	}

	if err := m.persistHeader(); err != nil {
		return err
	}
	m.session.PasswordChangeRequired = false
	m.log.Info().Msg("password changed")
	return nil
}

// AdminResetUserPassword replaces another user's password without knowing
// the old one. The target's history is cleared, reseeded with the reset
// password, and the user must change it on next login.
func (m *Manager) AdminResetUserPassword(username, newPassword string) error {
	if err := m.requireAdmin(); err != nil {
		return err
	}

	idx := m.findSlot(username)
	if idx < 0 {
		return ErrUserNotFound
	}
	if err := validators.ValidatePassword(newPassword, &m.header.Policy, username); err != nil {
		return err
	}

	slot := &m.header.Slots[idx]
	if err := m.rewrapSlot(slot, newPassword); err != nil {
		return err
	}
	slot.MustChangePassword = true
	slot.PasswordChangedAt = now()
	slot.PasswordHistory = nil
	if m.header.Policy.PasswordHistoryDepth > 0 {
		entry, err := m.historyEntry(newPassword)
		if err != nil {
			return err
		}
		slot.PasswordHistory = []models.PasswordHistoryEntry{entry}
	}

	if err := m.persistHeader(); err != nil {
		return err
	}
	m.log.Info().Int("slot", idx).Msg("password reset by administrator")
	return nil
}

// ClearUserPasswordHistory drops the named user's reuse-prevention list.
// Administrator only.
func (m *Manager) ClearUserPasswordHistory(username string) error {
	if err := m.requireAdmin(); err != nil {
		return err
	}
	idx := m.findSlot(username)
	if idx < 0 {
		return ErrUserNotFound
	}
	m.header.Slots[idx].PasswordHistory = nil
	return m.persistHeader()
}

// SetUserRole changes the named user's role. Administrator only; demoting
// the last administrator is rejected.
func (m *Manager) SetUserRole(username string, role models.Role) error {
	if err := m.requireAdmin(); err != nil {
		return err
	}
	idx := m.findSlot(username)
	if idx < 0 {
		return ErrUserNotFound
	}

	slot := &m.header.Slots[idx]
	if slot.IsAdministrator() && role != models.RoleAdministrator && m.activeAdmins() == 1 {
		return ErrLastAdministrator
	}
	slot.Role = role
	if idx == m.session.SlotIndex {
		m.session.Role = role
	}

	if err := m.persistHeader(); err != nil {
		return err
	}
	m.log.Info().Int("slot", idx).Str("role", role.String()).Msg("user role changed")
	return nil
}

// UpdateSecurityPolicy validates and installs a new vault-wide policy.
// Administrator only. Changing the username hash algorithm arms a live
// migration: the old algorithm is recorded as previous and two-phase
// authentication starts rehashing slots on their next successful login.
func (m *Manager) UpdateSecurityPolicy(policy models.SecurityPolicy) error {
	if err := m.requireAdmin(); err != nil {
		return err
	}
	if err := policy.Validate(); err != nil {
		return fmt.Errorf("invalid security policy: %w", err)
	}
	if hashing.FIPSEnabled() && !policy.UsernameHashAlgorithm.FIPSApproved() {
		return fmt.Errorf("%w: %s is not FIPS approved",
			ErrPermissionDenied, policy.UsernameHashAlgorithm)
	}

	old := m.header.Policy
	if len(policy.TokenChallenge) != models.TokenChallengeSize {
		policy.TokenChallenge = old.TokenChallenge
	}

	algChanged := policy.UsernameHashAlgorithm != old.UsernameHashAlgorithm
	if algChanged {
		// Callers may pre-arm the migration fields themselves; the arm here
		// makes the algorithm change alone a sufficient trigger. Previous
		// always records the outgoing algorithm.
		policy.PreviousHashAlgorithm = old.UsernameHashAlgorithm
		policy.MigrationStartedAt = now()
		policy.MigrationFlags |= models.MigrationFlagEnabled

		m.log.Info().
			Str("from", policy.PreviousHashAlgorithm.String()).
			Str("to", policy.UsernameHashAlgorithm.String()).
			Msg("username hash migration started")
	}
	if algChanged || policy.MigrationEnabled() {
		// Slots hashed under another algorithm authenticate through phase
		// two until they are rehashed.
		for i := range m.header.Slots {
			slot := &m.header.Slots[i]
			if slot.Active && slot.UsernameHashAlgorithm != policy.UsernameHashAlgorithm {
				slot.MigrationStatus = models.MigrationUnmigrated
			}
		}
	}

	m.header.Policy = policy
	return m.persistHeader()
}

// MigrationReport summarizes a username-hash algorithm migration.
type MigrationReport struct {
	Enabled   bool
	Current   models.HashAlgorithm
	Previous  models.HashAlgorithm
	StartedAt int64
	Migrated  int
	Remaining int
}

// MigrationStatus reports how far the active migration has progressed
// across the vault's slots.
func (m *Manager) MigrationStatus() (MigrationReport, error) {
	if err := m.requireOpen(); err != nil {
		return MigrationReport{}, err
	}

	policy := &m.header.Policy
	report := MigrationReport{
		Enabled:   policy.MigrationEnabled(),
		Current:   policy.UsernameHashAlgorithm,
		Previous:  policy.PreviousHashAlgorithm,
		StartedAt: policy.MigrationStartedAt,
	}
	for i := range m.header.Slots {
		slot := &m.header.Slots[i]
		if !slot.Active {
			continue
		}
		if slot.MigrationStatus == models.MigrationMigrated {
			report.Migrated++
		} else {
			report.Remaining++
		}
	}
	return report, nil
}

// findSlot locates the active slot for username by verifying against each
// slot's recorded algorithm and salt. Returns -1 when no slot matches.
func (m *Manager) findSlot(username string) int {
	for i := range m.header.Slots {
		slot := &m.header.Slots[i]
		if !slot.Active {
			continue
		}
		if m.hasher.VerifyUsername(slot.UsernameHashAlgorithm, username, slot.UsernameSalt,
			slot.UsernameHash[:slot.UsernameHashSize], &m.header.Policy) {
			return i
		}
	}
	return -1
}

func (m *Manager) activeAdmins() int {
	count := 0
	for i := range m.header.Slots {
		if m.header.Slots[i].Active && m.header.Slots[i].IsAdministrator() {
			count++
		}
	}
	return count
}

// rewrapSlot wraps the open vault's DEK for slot under a KEK derived from
// password with a fresh salt. Token enrollment is preserved by remixing the
// enrolled challenge response.
func (m *Manager) rewrapSlot(slot *models.KeySlot, password string) error {
	kekAlg := hashing.ResolveKEKAlgorithm(m.header.Policy.UsernameHashAlgorithm, hashing.FIPSEnabled())
	kek, kekSalt, err := m.keys.DeriveKEK(password, nil, kekAlg, &m.header.Policy)
	if err != nil {
		return fmt.Errorf("deriving KEK: %w", err)
	}
	defer func() { crypto.SecureClear(kek) }()

	if slot.TokenEnrolled {
		if m.token == nil {
			return ErrNoTokenProvider
		}
		response, err := m.token.ChallengeResponse(slot.TokenChallenge)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrTokenFailure, err)
		}
		combined, err := m.keys.CombineKEKWithToken(kek, response)
		if err != nil {
			return err
		}
		crypto.SecureClear(kek)
		kek = combined
	}

	wrapped, err := m.keys.WrapDEK(m.dek, kek)
	if err != nil {
		return fmt.Errorf("wrapping DEK: %w", err)
	}
	slot.KEKAlgorithm = kekAlg
	slot.KEKSalt = kekSalt
	slot.WrappedDEK = wrapped
	return nil
}
