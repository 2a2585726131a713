// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TJDev Engineering

package service

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tjdeveng/KeepTower-sub001/models"
)

// armMigration switches the open vault's username hash algorithm to target,
// which starts a live migration.
func armMigration(t *testing.T, m *Manager, target models.HashAlgorithm) {
	t.Helper()
	policy := m.header.Policy
	policy.UsernameHashAlgorithm = target
	require.NoError(t, m.UpdateSecurityPolicy(policy))
}

func TestUpdateSecurityPolicy_ArmsMigration(t *testing.T) {
	m, _ := createWithUsers(t)

	armMigration(t, m, models.HashPBKDF2SHA256)

	policy := &m.header.Policy
	assert.True(t, policy.MigrationEnabled())
	assert.Equal(t, models.HashPBKDF2SHA256, policy.UsernameHashAlgorithm)
	assert.Equal(t, models.HashSHA3_256, policy.PreviousHashAlgorithm)
	assert.NotZero(t, policy.MigrationStartedAt)

	report, err := m.MigrationStatus()
	require.NoError(t, err)
	assert.True(t, report.Enabled)
	assert.Equal(t, 0, report.Migrated)
	assert.Equal(t, 2, report.Remaining)
}

func TestUpdateSecurityPolicy_CallerArmedMigration(t *testing.T) {
	m, path := createWithUsers(t)

	// Arm the migration fields explicitly instead of relying on the
	// algorithm change to arm them.
	policy := m.header.Policy
	policy.PreviousHashAlgorithm = policy.UsernameHashAlgorithm
	policy.UsernameHashAlgorithm = models.HashPBKDF2SHA256
	policy.MigrationFlags |= models.MigrationFlagEnabled
	policy.MigrationStartedAt = 1
	require.NoError(t, m.UpdateSecurityPolicy(policy))

	report, err := m.MigrationStatus()
	require.NoError(t, err)
	assert.True(t, report.Enabled)
	assert.Equal(t, 0, report.Migrated)
	assert.Equal(t, 2, report.Remaining)
	m.Close()

	// bob authenticates through the second phase and is rehashed.
	session, err := m.Open(path, bobUser, bobPass)
	require.NoError(t, err)
	slot := &m.header.Slots[session.SlotIndex]
	assert.Equal(t, models.HashPBKDF2SHA256, slot.UsernameHashAlgorithm)
	assert.Equal(t, models.MigrationMigrated, slot.MigrationStatus)
}

func TestUpdateSecurityPolicy_RequiresAdministrator(t *testing.T) {
	m, path := createWithUsers(t)
	m.Close()
	_, err := m.Open(path, bobUser, bobPass)
	require.NoError(t, err)

	policy := m.header.Policy
	policy.UsernameHashAlgorithm = models.HashSHA3_512
	assert.ErrorIs(t, m.UpdateSecurityPolicy(policy), ErrPermissionDenied)
}

func TestUpdateSecurityPolicy_RejectsInvalidPolicy(t *testing.T) {
	m, _ := createWithUsers(t)

	policy := m.header.Policy
	policy.PBKDF2Iterations = 1
	require.Error(t, m.UpdateSecurityPolicy(policy))
}

func TestMigration_SecondPhaseLoginRehashesSlot(t *testing.T) {
	m, path := createWithUsers(t)
	armMigration(t, m, models.HashPBKDF2SHA256)
	m.Close()

	// bob's slot was hashed under SHA3-256 and now authenticates through
	// the second phase, which rehashes it in place.
	session, err := m.Open(path, bobUser, bobPass)
	require.NoError(t, err)
	assert.Equal(t, bobUser, session.Username)

	slot := &m.header.Slots[session.SlotIndex]
	assert.Equal(t, models.MigrationMigrated, slot.MigrationStatus)
	assert.Equal(t, models.HashPBKDF2SHA256, slot.UsernameHashAlgorithm)
	assert.NotZero(t, slot.MigratedAt)

	// The migration was persisted with a backup of the previous file.
	backups, err := m.files.ListBackups(path)
	require.NoError(t, err)
	assert.NotEmpty(t, backups)
	m.Close()

	// The next login authenticates directly via the recorded algorithm.
	session, err = m.Open(path, bobUser, bobPass)
	require.NoError(t, err)

	report, err := m.MigrationStatus()
	require.NoError(t, err)
	assert.Equal(t, 1, report.Migrated)
	assert.Equal(t, 1, report.Remaining)
}

func TestMigration_WrongPasswordStillFailsIdentically(t *testing.T) {
	m, path := createWithUsers(t)
	armMigration(t, m, models.HashPBKDF2SHA256)
	m.Close()

	_, err := m.Open(path, bobUser, "Wrong-Password-55&z")
	assert.ErrorIs(t, err, ErrAuthenticationFailed)

	// The failed attempt must not have migrated the slot.
	_, err = m.Open(path, bobUser, bobPass)
	require.NoError(t, err)
}

func TestMigration_PolicyRollbackRehashesAgain(t *testing.T) {
	m, path := createWithUsers(t)
	armMigration(t, m, models.HashPBKDF2SHA256)
	m.Close()

	// Migrate bob to PBKDF2.
	_, err := m.Open(path, bobUser, bobPass)
	require.NoError(t, err)
	m.Close()

	// Roll the policy back to SHA3-256. bob's slot records PBKDF2 and
	// must migrate once more through the second phase.
	_, err = m.Open(path, adminUser, adminPass)
	require.NoError(t, err)
	armMigration(t, m, models.HashSHA3_256)
	assert.Equal(t, models.HashPBKDF2SHA256, m.header.Policy.PreviousHashAlgorithm)
	m.Close()

	session, err := m.Open(path, bobUser, bobPass)
	require.NoError(t, err)
	slot := &m.header.Slots[session.SlotIndex]
	assert.Equal(t, models.HashSHA3_256, slot.UsernameHashAlgorithm)
	assert.Equal(t, models.MigrationMigrated, slot.MigrationStatus)
}

func TestMigration_AllSlots(t *testing.T) {
	if testing.Short() {
		t.Skip("full slot table migration is slow")
	}

	m, path := newTestManager(t, nil)
	require.NoError(t, m.Create(path, adminUser, adminPass, nil))

	users := make(map[string]string)
	for i := 1; i < models.MaxKeySlots; i++ {
		name := fmt.Sprintf("user%02d", i)
		pass := fmt.Sprintf("Rotating-Vault-Pass-%02d!", i)
		require.NoError(t, m.AddUser(name, pass, models.RoleStandardUser, false))
		users[name] = pass
	}

	armMigration(t, m, models.HashSHA3_512)
	m.Close()

	for name, pass := range users {
		_, err := m.Open(path, name, pass)
		require.NoError(t, err)
		m.Close()
	}
	_, err := m.Open(path, adminUser, adminPass)
	require.NoError(t, err)

	report, err := m.MigrationStatus()
	require.NoError(t, err)
	assert.Equal(t, models.MaxKeySlots, report.Migrated)
	assert.Equal(t, 0, report.Remaining)
}
