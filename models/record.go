// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TJDev Engineering

package models

// VaultData is the decrypted payload of an open vault: every stored account
// record plus the group tree. It is serialized with CBOR, encrypted with the
// vault DEK, and exists in plaintext only in the memory of an open handle.
type VaultData struct {
	// Accounts is the flat list of stored credential records.
	Accounts []Account `cbor:"accounts"`

	// Groups is the flat list of groups; accounts reference groups by ID.
	Groups []Group `cbor:"groups"`
}

// Account is a single stored credential record.
type Account struct {
	// ID is a UUID string assigned at creation and never reused.
	ID string `cbor:"id"`

	// Name is the user-visible title of the record.
	Name string `cbor:"name"`

	// Username is the stored login name for the target service.
	Username string `cbor:"username"`

	// Password is the stored secret. Plaintext only inside an open vault.
	Password string `cbor:"password"`

	// URL is the optional target address.
	URL string `cbor:"url,omitempty"`

	// Notes is optional free-form text.
	Notes string `cbor:"notes,omitempty"`

	// GroupID references the containing group, empty for ungrouped.
	GroupID string `cbor:"group_id,omitempty"`

	// Favorite marks the record for quick access.
	Favorite bool `cbor:"favorite,omitempty"`

	// CreatedAt and ModifiedAt are Unix timestamps.
	CreatedAt  int64 `cbor:"created_at"`
	ModifiedAt int64 `cbor:"modified_at"`
}

// Group is a named collection of accounts.
type Group struct {
	// ID is a UUID string assigned at creation.
	ID string `cbor:"id"`

	// Name is the user-visible group name.
	Name string `cbor:"name"`

	// ParentID references the parent group, empty for top level.
	ParentID string `cbor:"parent_id,omitempty"`
}
