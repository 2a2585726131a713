// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TJDev Engineering

package models

// UserSession describes the authenticated user of an open vault. Sessions
// live only in memory for the lifetime of the open handle; they are never
// serialized or transmitted.
type UserSession struct {
	// Username is the authenticated plaintext username.
	Username string

	// Role is the permission level of the authenticated slot.
	Role Role

	// SlotIndex is the index of the authenticated slot in the header's
	// slot table.
	SlotIndex int

	// PasswordChangeRequired mirrors the slot's MustChangePassword flag at
	// login time. Callers should force a password change before allowing
	// other operations.
	PasswordChangeRequired bool

	// AuthenticatedAt is the Unix timestamp of the successful login.
	AuthenticatedAt int64
}

// IsAdministrator reports whether the session grants administrator rights.
func (s *UserSession) IsAdministrator() bool {
	return s.Role == RoleAdministrator
}
