// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TJDev Engineering

// Package service implements the vault manager: the single entry point that
// ties the container format, key management, username hashing, and file
// storage together into multi-user vault operations.
package service

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/tjdeveng/KeepTower-sub001/internal/config"
	"github.com/tjdeveng/KeepTower-sub001/internal/crypto"
	"github.com/tjdeveng/KeepTower-sub001/internal/format"
	"github.com/tjdeveng/KeepTower-sub001/internal/hashing"
	"github.com/tjdeveng/KeepTower-sub001/internal/logger"
	"github.com/tjdeveng/KeepTower-sub001/internal/store"
	"github.com/tjdeveng/KeepTower-sub001/internal/validators"
	"github.com/tjdeveng/KeepTower-sub001/models"
)

// Manager owns at most one open vault at a time. It is not safe for
// concurrent use; callers serialize access.
type Manager struct {
	files  store.VaultFiles
	keys   crypto.KeyService
	hasher *hashing.Service
	cfg    *config.StructuredConfig
	log    *logger.Logger
	token  TokenProvider

	path    string
	header  *format.Header
	dek     []byte
	data    *models.VaultData
	session *models.UserSession
}

// NewManager wires a vault manager from its collaborators. The token
// provider is optional; attach one with SetTokenProvider before operating on
// vaults that require hardware tokens.
func NewManager(files store.VaultFiles, keys crypto.KeyService, hasher *hashing.Service,
	cfg *config.StructuredConfig, log *logger.Logger) *Manager {
	return &Manager{
		files:  files,
		keys:   keys,
		hasher: hasher,
		cfg:    cfg,
		log:    log,
	}
}

// SetTokenProvider attaches a hardware-token backend to the manager.
func (m *Manager) SetTokenProvider(tp TokenProvider) {
	m.token = tp
}

// IsOpen reports whether a vault is currently open.
func (m *Manager) IsOpen() bool {
	return m.header != nil
}

// Session returns the current user session, or nil when no vault is open.
func (m *Manager) Session() *models.UserSession {
	return m.session
}

// Path returns the file path of the open vault, empty when closed.
func (m *Manager) Path() string {
	return m.path
}

// Create builds a new vault at path with a single administrator slot for
// username and leaves it open with that user's session. The security policy
// comes from the configuration; the payload starts empty.
//
// progress, when non-nil, receives coarse stage notifications.
func (m *Manager) Create(path, username, password string, progress ProgressFunc) error {
	if m.IsOpen() {
		return ErrVaultAlreadyOpen
	}

	if err := m.initFIPS(); err != nil {
		return err
	}

	policy, err := m.cfg.Security.Policy()
	if err != nil {
		return fmt.Errorf("building security policy: %w", err)
	}
	if hashing.FIPSEnabled() && !policy.UsernameHashAlgorithm.FIPSApproved() {
		m.log.Warn().
			Str("requested", policy.UsernameHashAlgorithm.String()).
			Msg("username hash algorithm not FIPS approved, substituting SHA3-256")
		policy.UsernameHashAlgorithm = models.HashSHA3_256
	}

	report(progress, 5, "validating credentials")
	if err := validators.ValidateUsername(username); err != nil {
		return err
	}
	if err := validators.ValidatePassword(password, &policy, username); err != nil {
		return err
	}

	report(progress, 25, "generating key material")
	dek, err := m.keys.GenerateDEK()
	if err != nil {
		return fmt.Errorf("generating DEK: %w", err)
	}

	policy.TokenChallenge = make([]byte, models.TokenChallengeSize)
	if _, err := io.ReadFull(rand.Reader, policy.TokenChallenge); err != nil {
		return fmt.Errorf("generating token challenge: %w", err)
	}

	report(progress, 50, "creating administrator slot")
	slot, err := m.newSlot(username, password, models.RoleAdministrator, false, dek, &policy)
	if err != nil {
		crypto.SecureClear(dek)
		return err
	}

	report(progress, 75, "encrypting vault")
	plaintext, err := cbor.Marshal(&models.VaultData{})
	if err != nil {
		crypto.SecureClear(dek)
		return fmt.Errorf("encoding payload: %w", err)
	}
	ciphertext, iv, err := m.keys.EncryptVaultData(plaintext, dek)
	if err != nil {
		crypto.SecureClear(dek)
		return fmt.Errorf("encrypting payload: %w", err)
	}
	payloadSalt, err := m.keys.GenerateKEKSalt()
	if err != nil {
		crypto.SecureClear(dek)
		return fmt.Errorf("generating payload salt: %w", err)
	}

	header := &format.Header{
		Version:          format.VersionV2,
		PBKDF2Iterations: policy.PBKDF2Iterations,
		FECEnabled:       !m.cfg.Vault.DisableFEC,
		Redundancy:       uint8(m.cfg.Vault.FECRedundancy),
		Policy:           policy,
		Slots:            []models.KeySlot{slot},
		PayloadSalt:      payloadSalt,
		PayloadIV:        iv,
	}

	raw, err := format.WriteContainer(&format.Container{Header: *header, Ciphertext: ciphertext})
	if err != nil {
		crypto.SecureClear(dek)
		return fmt.Errorf("encoding container: %w", err)
	}
	if err := m.files.Write(path, raw); err != nil {
		crypto.SecureClear(dek)
		return fmt.Errorf("writing vault: %w", err)
	}
	report(progress, 100, "vault written")

	m.path = path
	m.header = header
	m.dek = dek
	m.data = &models.VaultData{}
	m.session = &models.UserSession{
		Username:        username,
		Role:            models.RoleAdministrator,
		SlotIndex:       0,
		AuthenticatedAt: time.Now().Unix(),
	}

	m.log.Info().Str("path", path).Msg("vault created")
	return nil
}

// Open authenticates username/password against the vault at path and loads
// its payload. Authentication runs in up to two phases: first against each
// slot's effective algorithm, then, while a policy migration is active,
// against the previous algorithm; a slot that succeeds in the second phase
// is rehashed in place. Both phases fail with the same error.
func (m *Manager) Open(path, username, password string) (*models.UserSession, error) {
	if m.IsOpen() {
		return nil, ErrVaultAlreadyOpen
	}

	if err := m.initFIPS(); err != nil {
		return nil, err
	}

	raw, err := m.files.Read(path)
	if err != nil {
		return nil, err
	}

	version, err := format.DetectVersion(raw)
	if err != nil {
		return nil, err
	}
	if version == format.VersionV1 {
		return nil, fmt.Errorf("%w: version 1 containers are not supported", ErrLegacyVault)
	}

	container, err := format.ReadContainer(raw)
	if err != nil {
		return nil, err
	}

	idx, dek, migrated := m.authenticateUser(container, username, password)
	if idx < 0 {
		return nil, ErrAuthenticationFailed
	}

	plaintext, err := m.keys.DecryptVaultData(container.Ciphertext, dek, container.Header.PayloadIV)
	if err != nil {
		crypto.SecureClear(dek)
		return nil, fmt.Errorf("decrypting payload: %w", err)
	}
	var data models.VaultData
	if err := cbor.Unmarshal(plaintext, &data); err != nil {
		crypto.SecureClear(dek)
		crypto.SecureClear(plaintext)
		return nil, fmt.Errorf("decoding payload: %w", err)
	}
	crypto.SecureClear(plaintext)

	slot := &container.Header.Slots[idx]
	slot.Username = username
	slot.LastLoginAt = time.Now().Unix()

	m.path = path
	m.header = &container.Header
	m.dek = dek
	m.data = &data
	m.session = &models.UserSession{
		Username:               username,
		Role:                   slot.Role,
		SlotIndex:              idx,
		PasswordChangeRequired: slot.MustChangePassword,
		AuthenticatedAt:        slot.LastLoginAt,
	}

	if migrated {
		m.persistMigration(idx)
	}

	m.log.Info().
		Str("path", path).
		Int("slot", idx).
		Str("role", slot.Role.String()).
		Msg("vault opened")
	return m.session, nil
}

// Save re-encrypts the payload and atomically replaces the vault file. The
// previous file is backed up first and old backups beyond the configured
// retention are pruned.
func (m *Manager) Save() error {
	if !m.IsOpen() {
		return ErrVaultNotOpen
	}

	plaintext, err := cbor.Marshal(m.data)
	if err != nil {
		return fmt.Errorf("encoding payload: %w", err)
	}
	ciphertext, iv, err := m.keys.EncryptVaultData(plaintext, m.dek)
	crypto.SecureClear(plaintext)
	if err != nil {
		return fmt.Errorf("encrypting payload: %w", err)
	}
	m.header.PayloadIV = iv

	return m.persist(ciphertext)
}

// Close discards the open vault and scrubs key material. Unsaved payload
// changes are lost; call Save first.
func (m *Manager) Close() {
	if !m.IsOpen() {
		return
	}
	crypto.SecureClear(m.dek)
	m.path = ""
	m.header = nil
	m.dek = nil
	m.data = nil
	m.session = nil
	m.log.Debug().Msg("vault closed")
}

// persist encodes the current header with the given ciphertext and replaces
// the vault file, backing up the existing one first.
func (m *Manager) persist(ciphertext []byte) error {
	// Keep the prefix copy of the iteration count in sync with the policy.
	m.header.PBKDF2Iterations = m.header.Policy.PBKDF2Iterations

	raw, err := format.WriteContainer(&format.Container{Header: *m.header, Ciphertext: ciphertext})
	if err != nil {
		return fmt.Errorf("encoding container: %w", err)
	}

	if _, err := m.files.CreateBackup(m.path); err != nil && !errors.Is(err, store.ErrFileNotFound) {
		return fmt.Errorf("backing up vault: %w", err)
	}
	if err := m.files.Write(m.path, raw); err != nil {
		return fmt.Errorf("writing vault: %w", err)
	}
	if err := m.files.CleanupBackups(m.path, m.cfg.Backup.Retention); err != nil {
		m.log.Warn().Err(err).Msg("backup cleanup failed")
	}
	return nil
}

// persistHeader re-encrypts the current payload and persists. Used by
// operations that change only the header.
func (m *Manager) persistHeader() error {
	plaintext, err := cbor.Marshal(m.data)
	if err != nil {
		return fmt.Errorf("encoding payload: %w", err)
	}
	ciphertext, iv, err := m.keys.EncryptVaultData(plaintext, m.dek)
	crypto.SecureClear(plaintext)
	if err != nil {
		return fmt.Errorf("encrypting payload: %w", err)
	}
	m.header.PayloadIV = iv
	return m.persist(ciphertext)
}

func (m *Manager) initFIPS() error {
	if !m.cfg.Security.FIPSMode {
		return nil
	}
	if _, err := hashing.FIPSInit(true); err != nil {
		return fmt.Errorf("enabling FIPS mode: %w", err)
	}
	return nil
}

// requireOpen fails when no vault is open or the session is restricted to a
// forced password change.
func (m *Manager) requireOpen() error {
	if !m.IsOpen() {
		return ErrVaultNotOpen
	}
	if m.session.PasswordChangeRequired {
		return ErrPasswordChangeRequired
	}
	return nil
}

func (m *Manager) requireAdmin() error {
	if err := m.requireOpen(); err != nil {
		return err
	}
	if !m.session.IsAdministrator() {
		return ErrPermissionDenied
	}
	return nil
}

func report(progress ProgressFunc, percent int, stage string) {
	if progress != nil {
		progress(percent, stage)
	}
}

func now() int64 {
	return time.Now().Unix()
}
