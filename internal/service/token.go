// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TJDev Engineering

package service

import (
	"crypto/rand"
	"fmt"
	"io"

	"github.com/tjdeveng/KeepTower-sub001/internal/crypto"
)

// slotChallengeSize is the per-slot hardware-token challenge length.
const slotChallengeSize = 32

// EnrollToken binds the attached hardware token to the authenticated user's
// slot. The password is re-verified, a fresh per-slot challenge is
// generated, and the DEK is rewrapped under the token-combined KEK. An
// optional PIN is stored encrypted with the vault DEK.
func (m *Manager) EnrollToken(password, pin string) error {
	if !m.IsOpen() {
		return ErrVaultNotOpen
	}
	if m.token == nil {
		return ErrNoTokenProvider
	}

	slot := &m.header.Slots[m.session.SlotIndex]
	dek, err := m.unlockSlot(slot, password, &m.header.Policy)
	if err != nil {
		return ErrAuthenticationFailed
	}
	crypto.SecureClear(dek)

	challenge := make([]byte, slotChallengeSize)
	if _, err := io.ReadFull(rand.Reader, challenge); err != nil {
		return fmt.Errorf("generating token challenge: %w", err)
	}
	serial, err := m.token.Serial()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTokenFailure, err)
	}

	slot.TokenEnrolled = true
	slot.TokenChallenge = challenge
	slot.TokenSerial = serial
	slot.TokenEnrolledAt = now()

	if err := m.rewrapSlot(slot, password); err != nil {
		slot.TokenEnrolled = false
		slot.TokenChallenge = nil
		slot.TokenSerial = ""
		slot.TokenEnrolledAt = 0
		return err
	}

	if pin != "" {
		encrypted, err := m.keys.EncryptPIN(pin, m.dek)
		if err != nil {
			return fmt.Errorf("encrypting PIN: %w", err)
		}
		slot.EncryptedPIN = encrypted
	}

	if err := m.persistHeader(); err != nil {
		return err
	}
	m.log.Info().Str("serial", serial).Msg("hardware token enrolled")
	return nil
}

// UnenrollToken removes the hardware-token binding from the authenticated
// user's slot after re-verifying the password, rewrapping the DEK under the
// password-only KEK.
func (m *Manager) UnenrollToken(password string) error {
	if !m.IsOpen() {
		return ErrVaultNotOpen
	}

	slot := &m.header.Slots[m.session.SlotIndex]
	if !slot.TokenEnrolled {
		return nil
	}

	dek, err := m.unlockSlot(slot, password, &m.header.Policy)
	if err != nil {
		return ErrAuthenticationFailed
	}
	crypto.SecureClear(dek)

	slot.TokenEnrolled = false
	slot.TokenChallenge = nil
	slot.TokenSerial = ""
	slot.TokenEnrolledAt = 0
	slot.EncryptedPIN = nil

	if err := m.rewrapSlot(slot, password); err != nil {
		return err
	}

	if err := m.persistHeader(); err != nil {
		return err
	}
	m.log.Info().Msg("hardware token unenrolled")
	return nil
}

// TokenPIN decrypts and returns the stored PIN for the authenticated user's
// slot. Empty when no PIN is stored.
func (m *Manager) TokenPIN() (string, error) {
	if !m.IsOpen() {
		return "", ErrVaultNotOpen
	}
	slot := &m.header.Slots[m.session.SlotIndex]
	if len(slot.EncryptedPIN) == 0 {
		return "", nil
	}
	return m.keys.DecryptPIN(slot.EncryptedPIN, m.dek)
}
