// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TJDev Engineering

// Package validators enforces credential policy before any key material is
// derived. Validation failures are user-facing and retryable; they never
// touch the vault file.
package validators

import (
	"fmt"
	"unicode"
	"unicode/utf8"

	"github.com/nbutton23/zxcvbn-go"

	"github.com/tjdeveng/KeepTower-sub001/models"
)

// minZxcvbnScore is the minimum acceptable zxcvbn strength score (0-4).
// Scores below 2 are crackable within hours on commodity hardware.
const minZxcvbnScore = 2

// ValidatePassword checks password against the vault security policy:
// minimum length, all four character classes, and an estimated strength
// floor. userInputs (username, vault name) are penalized as guessable
// context. Returns a wrapped ErrWeakPassword describing the first failed
// requirement.
func ValidatePassword(password string, policy *models.SecurityPolicy, userInputs ...string) error {
	if utf8.RuneCountInString(password) < int(policy.MinPasswordLength) {
		return fmt.Errorf("%w: must be at least %d characters", ErrWeakPassword, policy.MinPasswordLength)
	}

	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		default:
			hasSpecial = true
		}
	}
	switch {
	case !hasUpper:
		return fmt.Errorf("%w: must contain an uppercase letter", ErrWeakPassword)
	case !hasLower:
		return fmt.Errorf("%w: must contain a lowercase letter", ErrWeakPassword)
	case !hasDigit:
		return fmt.Errorf("%w: must contain a digit", ErrWeakPassword)
	case !hasSpecial:
		return fmt.Errorf("%w: must contain a special character", ErrWeakPassword)
	}

	if strength := zxcvbn.PasswordStrength(password, userInputs); strength.Score < minZxcvbnScore {
		return fmt.Errorf("%w: too guessable (score %d of 4)", ErrWeakPassword, strength.Score)
	}
	return nil
}

// ValidateUsername checks that username is non-empty, at most
// models.MaxUsernameLength bytes, and valid UTF-8. Usernames are
// case-sensitive and otherwise unrestricted.
func ValidateUsername(username string) error {
	if username == "" {
		return fmt.Errorf("%w: must not be empty", ErrInvalidUsername)
	}
	if len(username) > models.MaxUsernameLength {
		return fmt.Errorf("%w: exceeds %d bytes", ErrInvalidUsername, models.MaxUsernameLength)
	}
	if !utf8.ValidString(username) {
		return fmt.Errorf("%w: not valid utf-8", ErrInvalidUsername)
	}
	return nil
}
