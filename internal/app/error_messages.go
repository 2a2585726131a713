// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TJDev Engineering

// Package app contains shared application-layer constants used across the
// keeptower command surface.
//
// All Msg* constants are human-readable message strings written to the
// terminal or log entries to describe the outcome of an operation. Keeping
// them in one place ensures consistent wording throughout the tool.
package app

import (
	"errors"

	"github.com/tjdeveng/KeepTower-sub001/internal/format"
	"github.com/tjdeveng/KeepTower-sub001/internal/service"
	"github.com/tjdeveng/KeepTower-sub001/internal/store"
	"github.com/tjdeveng/KeepTower-sub001/internal/validators"
)

const (
	// MsgInvalidLoginPassword is shown when the supplied username/password
	// combination does not unlock any key slot. It never reveals which
	// part was wrong.
	MsgInvalidLoginPassword = "invalid username or password"

	// MsgPermissionDenied is shown when the authenticated user lacks the
	// role required for the operation.
	MsgPermissionDenied = "administrator rights required"

	// MsgPasswordChangeRequired is shown while a session is restricted to
	// a forced password change.
	MsgPasswordChangeRequired = "you must change your password before continuing"

	// MsgWeakPassword is shown when a new password fails the policy's
	// length, character-class, or strength checks.
	MsgWeakPassword = "password does not meet the security policy"

	// MsgPasswordReused is shown when a new password matches a retained
	// history entry.
	MsgPasswordReused = "password was used before, choose a different one"

	// MsgVaultCorrupted is shown when the vault file cannot be parsed even
	// after error correction.
	MsgVaultCorrupted = "vault file is corrupted"

	// MsgVaultNotFound is shown when the vault file does not exist.
	MsgVaultNotFound = "vault file not found"

	// MsgVaultPermissions is shown when the vault file is readable by
	// group or other users.
	MsgVaultPermissions = "vault file permissions are too open, expected 0600"

	// MsgLegacyVault is shown for version 1 containers.
	MsgLegacyVault = "this vault uses the legacy version 1 format and cannot be opened"

	// MsgTokenRequired is shown when a slot needs a hardware token but
	// none is attached.
	MsgTokenRequired = "a hardware token is required to unlock this vault"

	// MsgInternalError is shown for unexpected failures the user cannot
	// resolve; details go to the log.
	MsgInternalError = "internal error"
)

// UserMessage maps an error from the vault manager to the message shown on
// the terminal. Unrecognized errors fall through to their own text so
// wrapped context is not lost.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, service.ErrAuthenticationFailed):
		return MsgInvalidLoginPassword
	case errors.Is(err, service.ErrPermissionDenied):
		return MsgPermissionDenied
	case errors.Is(err, service.ErrPasswordChangeRequired):
		return MsgPasswordChangeRequired
	case errors.Is(err, service.ErrPasswordReused):
		return MsgPasswordReused
	case errors.Is(err, service.ErrNoTokenProvider):
		return MsgTokenRequired
	case errors.Is(err, service.ErrLegacyVault):
		return MsgLegacyVault
	case errors.Is(err, validators.ErrWeakPassword):
		return MsgWeakPassword
	case errors.Is(err, store.ErrFileNotFound):
		return MsgVaultNotFound
	case errors.Is(err, store.ErrPermissionDenied):
		return MsgVaultPermissions
	case errors.Is(err, format.ErrCorruptedFile), errors.Is(err, format.ErrFECDecodingFailed):
		return MsgVaultCorrupted
	default:
		return err.Error()
	}
}
