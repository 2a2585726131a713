// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TJDev Engineering

package service

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/tjdeveng/KeepTower-sub001/models"
)

// Record operations mutate the in-memory payload only; call Save to persist.

// AddAccount stores a new credential record and returns its assigned ID.
func (m *Manager) AddAccount(account models.Account) (string, error) {
	if err := m.requireOpen(); err != nil {
		return "", err
	}
	if account.Name == "" {
		return "", fmt.Errorf("account name must not be empty")
	}
	if account.GroupID != "" && m.findGroup(account.GroupID) < 0 {
		return "", ErrGroupNotFound
	}

	account.ID = uuid.NewString()
	account.CreatedAt = now()
	account.ModifiedAt = account.CreatedAt
	m.data.Accounts = append(m.data.Accounts, account)
	return account.ID, nil
}

// GetAccount returns the record with the given ID.
func (m *Manager) GetAccount(id string) (models.Account, error) {
	if err := m.requireOpen(); err != nil {
		return models.Account{}, err
	}
	idx := m.findAccount(id)
	if idx < 0 {
		return models.Account{}, ErrRecordNotFound
	}
	return m.data.Accounts[idx], nil
}

// UpdateAccount replaces the stored record with the same ID. Creation time
// is preserved; modification time is refreshed.
func (m *Manager) UpdateAccount(account models.Account) error {
	if err := m.requireOpen(); err != nil {
		return err
	}
	idx := m.findAccount(account.ID)
	if idx < 0 {
		return ErrRecordNotFound
	}
	if account.Name == "" {
		return fmt.Errorf("account name must not be empty")
	}
	if account.GroupID != "" && m.findGroup(account.GroupID) < 0 {
		return ErrGroupNotFound
	}

	account.CreatedAt = m.data.Accounts[idx].CreatedAt
	account.ModifiedAt = now()
	m.data.Accounts[idx] = account
	return nil
}

// RemoveAccount deletes the record with the given ID.
func (m *Manager) RemoveAccount(id string) error {
	if err := m.requireOpen(); err != nil {
		return err
	}
	idx := m.findAccount(id)
	if idx < 0 {
		return ErrRecordNotFound
	}
	m.data.Accounts = append(m.data.Accounts[:idx], m.data.Accounts[idx+1:]...)
	return nil
}

// ListAccounts returns a copy of all stored records.
func (m *Manager) ListAccounts() ([]models.Account, error) {
	if err := m.requireOpen(); err != nil {
		return nil, err
	}
	out := make([]models.Account, len(m.data.Accounts))
	copy(out, m.data.Accounts)
	return out, nil
}

// SearchAccounts returns records whose name, username, URL, or notes contain
// query, case-insensitively.
func (m *Manager) SearchAccounts(query string) ([]models.Account, error) {
	if err := m.requireOpen(); err != nil {
		return nil, err
	}
	q := strings.ToLower(query)
	var out []models.Account
	for _, a := range m.data.Accounts {
		if strings.Contains(strings.ToLower(a.Name), q) ||
			strings.Contains(strings.ToLower(a.Username), q) ||
			strings.Contains(strings.ToLower(a.URL), q) ||
			strings.Contains(strings.ToLower(a.Notes), q) {
			out = append(out, a)
		}
	}
	return out, nil
}

// SetFavorite flags or unflags a record for quick access.
func (m *Manager) SetFavorite(id string, favorite bool) error {
	if err := m.requireOpen(); err != nil {
		return err
	}
	idx := m.findAccount(id)
	if idx < 0 {
		return ErrRecordNotFound
	}
	m.data.Accounts[idx].Favorite = favorite
	m.data.Accounts[idx].ModifiedAt = now()
	return nil
}

// AddGroup creates a group under parentID (empty for top level) and returns
// its assigned ID.
func (m *Manager) AddGroup(name, parentID string) (string, error) {
	if err := m.requireOpen(); err != nil {
		return "", err
	}
	if name == "" {
		return "", fmt.Errorf("group name must not be empty")
	}
	if parentID != "" && m.findGroup(parentID) < 0 {
		return "", ErrGroupNotFound
	}

	group := models.Group{
		ID:       uuid.NewString(),
		Name:     name,
		ParentID: parentID,
	}
	m.data.Groups = append(m.data.Groups, group)
	return group.ID, nil
}

// RenameGroup changes a group's display name.
func (m *Manager) RenameGroup(id, name string) error {
	if err := m.requireOpen(); err != nil {
		return err
	}
	idx := m.findGroup(id)
	if idx < 0 {
		return ErrGroupNotFound
	}
	if name == "" {
		return fmt.Errorf("group name must not be empty")
	}
	m.data.Groups[idx].Name = name
	return nil
}

// RemoveGroup deletes a group. Member accounts become ungrouped and child
// groups are reparented to the removed group's parent.
func (m *Manager) RemoveGroup(id string) error {
	if err := m.requireOpen(); err != nil {
		return err
	}
	idx := m.findGroup(id)
	if idx < 0 {
		return ErrGroupNotFound
	}
	parent := m.data.Groups[idx].ParentID

	for i := range m.data.Accounts {
		if m.data.Accounts[i].GroupID == id {
			m.data.Accounts[i].GroupID = ""
		}
	}
	for i := range m.data.Groups {
		if m.data.Groups[i].ParentID == id {
			m.data.Groups[i].ParentID = parent
		}
	}
	m.data.Groups = append(m.data.Groups[:idx], m.data.Groups[idx+1:]...)
	return nil
}

// ListGroups returns a copy of all groups.
func (m *Manager) ListGroups() ([]models.Group, error) {
	if err := m.requireOpen(); err != nil {
		return nil, err
	}
	out := make([]models.Group, len(m.data.Groups))
	copy(out, m.data.Groups)
	return out, nil
}

// AssignAccountToGroup moves a record into a group, or out of all groups
// when groupID is empty.
func (m *Manager) AssignAccountToGroup(accountID, groupID string) error {
	if err := m.requireOpen(); err != nil {
		return err
	}
	idx := m.findAccount(accountID)
	if idx < 0 {
		return ErrRecordNotFound
	}
	if groupID != "" && m.findGroup(groupID) < 0 {
		return ErrGroupNotFound
	}
	m.data.Accounts[idx].GroupID = groupID
	m.data.Accounts[idx].ModifiedAt = now()
	return nil
}

func (m *Manager) findAccount(id string) int {
	for i := range m.data.Accounts {
		if m.data.Accounts[i].ID == id {
			return i
		}
	}
	return -1
}

func (m *Manager) findGroup(id string) int {
	for i := range m.data.Groups {
		if m.data.Groups[i].ID == id {
			return i
		}
	}
	return -1
}
