// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TJDev Engineering

package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tjdeveng/KeepTower-sub001/models"
)

// createWithUsers builds a vault with an administrator and one standard user
// and leaves the administrator session open.
func createWithUsers(t *testing.T) (*Manager, string) {
	t.Helper()
	m, path := newTestManager(t, nil)
	require.NoError(t, m.Create(path, adminUser, adminPass, nil))
	require.NoError(t, m.AddUser(bobUser, bobPass, models.RoleStandardUser, false))
	return m, path
}

func TestAddUser_NewUserCanOpen(t *testing.T) {
	m, path := createWithUsers(t)
	m.Close()

	session, err := m.Open(path, bobUser, bobPass)
	require.NoError(t, err)
	assert.Equal(t, bobUser, session.Username)
	assert.Equal(t, models.RoleStandardUser, session.Role)

	// Both users share the same payload.
	_, err = m.ListAccounts()
	require.NoError(t, err)
}

func TestAddUser_Duplicate(t *testing.T) {
	m, _ := createWithUsers(t)
	err := m.AddUser(bobUser, "Another-Passw0rd-Here!", models.RoleStandardUser, false)
	assert.ErrorIs(t, err, ErrUserAlreadyExists)
}

func TestAddUser_RequiresAdministrator(t *testing.T) {
	m, path := createWithUsers(t)
	m.Close()
	_, err := m.Open(path, bobUser, bobPass)
	require.NoError(t, err)

	err = m.AddUser("carol", "Quiet-Meadow-Nine9#", models.RoleStandardUser, false)
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestAddUser_MustChangeRestrictsSession(t *testing.T) {
	m, path := newTestManager(t, nil)
	require.NoError(t, m.Create(path, adminUser, adminPass, nil))
	require.NoError(t, m.AddUser(bobUser, bobPass, models.RoleStandardUser, true))
	m.Close()

	session, err := m.Open(path, bobUser, bobPass)
	require.NoError(t, err)
	require.True(t, session.PasswordChangeRequired)

	_, err = m.ListAccounts()
	assert.ErrorIs(t, err, ErrPasswordChangeRequired)

	const newPass = "Fresh-Morning-Dew-88$"
	require.NoError(t, m.ChangeUserPassword(bobPass, newPass))
	assert.False(t, m.Session().PasswordChangeRequired)

	_, err = m.ListAccounts()
	require.NoError(t, err)
	m.Close()

	// The cleared flag was persisted; a second login is unrestricted.
	session, err = m.Open(path, bobUser, newPass)
	require.NoError(t, err)
	assert.False(t, session.PasswordChangeRequired)

	_, err = m.ListAccounts()
	require.NoError(t, err)
}

func TestRemoveUser(t *testing.T) {
	m, path := createWithUsers(t)

	require.NoError(t, m.RemoveUser(bobUser))
	assert.ErrorIs(t, m.RemoveUser(bobUser), ErrUserNotFound)

	m.Close()
	_, err := m.Open(path, bobUser, bobPass)
	assert.ErrorIs(t, err, ErrAuthenticationFailed)
}

func TestRemoveUser_SelfRemovalRejected(t *testing.T) {
	m, _ := createWithUsers(t)
	assert.ErrorIs(t, m.RemoveUser(adminUser), ErrSelfRemovalNotAllowed)
}

func TestRemoveUser_LastAdministratorProtected(t *testing.T) {
	m, path := createWithUsers(t)
	require.NoError(t, m.SetUserRole(bobUser, models.RoleAdministrator))
	m.Close()

	// With two administrators, bob may remove alice.
	_, err := m.Open(path, bobUser, bobPass)
	require.NoError(t, err)
	require.NoError(t, m.RemoveUser(adminUser))

	// bob is now the last administrator and cannot demote himself.
	err = m.SetUserRole(bobUser, models.RoleStandardUser)
	assert.ErrorIs(t, err, ErrLastAdministrator)
}

func TestSetUserRole_PromoteAndDemote(t *testing.T) {
	m, _ := createWithUsers(t)

	require.NoError(t, m.SetUserRole(bobUser, models.RoleAdministrator))
	users, err := m.ListUsers()
	require.NoError(t, err)

	admins := 0
	for _, u := range users {
		if u.Role == models.RoleAdministrator {
			admins++
		}
	}
	assert.Equal(t, 2, admins)

	// With two administrators either one may be demoted.
	require.NoError(t, m.SetUserRole(bobUser, models.RoleStandardUser))

	// Demoting the last administrator is rejected.
	err = m.SetUserRole(adminUser, models.RoleStandardUser)
	assert.ErrorIs(t, err, ErrLastAdministrator)
}

func TestChangeUserPassword(t *testing.T) {
	m, path := createWithUsers(t)
	m.Close()
	_, err := m.Open(path, bobUser, bobPass)
	require.NoError(t, err)

	assert.ErrorIs(t, m.ChangeUserPassword("Wrong-Old-Pass-11!", "Next-Sierra-Willow-5%"), ErrAuthenticationFailed)

	// Reusing the current password is caught by the history check.
	assert.ErrorIs(t, m.ChangeUserPassword(bobPass, bobPass), ErrPasswordReused)

	const newPass = "Next-Sierra-Willow-5%"
	require.NoError(t, m.ChangeUserPassword(bobPass, newPass))

	m.Close()
	_, err = m.Open(path, bobUser, bobPass)
	assert.ErrorIs(t, err, ErrAuthenticationFailed)
	_, err = m.Open(path, bobUser, newPass)
	require.NoError(t, err)

	// The replaced password stays rejected while it remains in history.
	assert.ErrorIs(t, m.ChangeUserPassword(newPass, bobPass), ErrPasswordReused)
}

func TestAdminResetUserPassword(t *testing.T) {
	m, path := createWithUsers(t)

	const resetPass = "Temporary-Reset-Pass3*"
	require.NoError(t, m.AdminResetUserPassword(bobUser, resetPass))
	m.Close()

	_, err := m.Open(path, bobUser, bobPass)
	assert.ErrorIs(t, err, ErrAuthenticationFailed)

	session, err := m.Open(path, bobUser, resetPass)
	require.NoError(t, err)
	assert.True(t, session.PasswordChangeRequired)
}

func TestClearUserPasswordHistory(t *testing.T) {
	m, path := createWithUsers(t)
	require.NoError(t, m.ClearUserPasswordHistory(bobUser))
	m.Close()

	// With no history, changing back to the same password is allowed.
	_, err := m.Open(path, bobUser, bobPass)
	require.NoError(t, err)
	require.NoError(t, m.ChangeUserPassword(bobPass, bobPass))
}

func TestListUsers_OwnUsernameOnly(t *testing.T) {
	m, _ := createWithUsers(t)

	users, err := m.ListUsers()
	require.NoError(t, err)
	require.Len(t, users, 2)

	for _, u := range users {
		if u.SlotIndex == m.Session().SlotIndex {
			assert.Equal(t, adminUser, u.Username)
		} else {
			// Other usernames exist on disk only as one-way hashes.
			assert.Empty(t, u.Username)
		}
	}
}

func TestSlotTable_ReusesTombstones(t *testing.T) {
	m, _ := createWithUsers(t)

	require.NoError(t, m.RemoveUser(bobUser))
	slots := len(m.header.Slots)

	require.NoError(t, m.AddUser("carol", "Quiet-Meadow-Nine9#", models.RoleStandardUser, false))
	assert.Equal(t, slots, len(m.header.Slots))
}
