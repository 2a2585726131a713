// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TJDev Engineering

package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeToken deterministically answers challenges with HMAC-SHA256 under a
// fixed device secret, mimicking a YubiKey in challenge-response mode.
type fakeToken struct {
	secret []byte
	serial string
	fail   bool
}

func (f *fakeToken) ChallengeResponse(challenge []byte) ([]byte, error) {
	if f.fail {
		return nil, errors.New("device removed")
	}
	mac := hmac.New(sha256.New, f.secret)
	mac.Write(challenge)
	return mac.Sum(nil), nil
}

func (f *fakeToken) Serial() (string, error) {
	return f.serial, nil
}

func TestEnrollToken_RequiredForSubsequentLogins(t *testing.T) {
	m, path := newTestManager(t, nil)
	require.NoError(t, m.Create(path, adminUser, adminPass, nil))

	token := &fakeToken{secret: []byte("device-secret"), serial: "YK-123456"}
	m.SetTokenProvider(token)
	require.NoError(t, m.EnrollToken(adminPass, "1234"))
	m.Close()

	// Without the token the password alone no longer unlocks the slot.
	m.SetTokenProvider(nil)
	_, err := m.Open(path, adminUser, adminPass)
	assert.ErrorIs(t, err, ErrAuthenticationFailed)

	// A different device produces a different response and fails too.
	m.SetTokenProvider(&fakeToken{secret: []byte("other-device"), serial: "YK-999999"})
	_, err = m.Open(path, adminUser, adminPass)
	assert.ErrorIs(t, err, ErrAuthenticationFailed)

	m.SetTokenProvider(token)
	session, err := m.Open(path, adminUser, adminPass)
	require.NoError(t, err)
	assert.Equal(t, adminUser, session.Username)

	pin, err := m.TokenPIN()
	require.NoError(t, err)
	assert.Equal(t, "1234", pin)

	users, err := m.ListUsers()
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.True(t, users[0].TokenEnrolled)
}

func TestEnrollToken_WrongPassword(t *testing.T) {
	m, path := newTestManager(t, nil)
	require.NoError(t, m.Create(path, adminUser, adminPass, nil))
	m.SetTokenProvider(&fakeToken{secret: []byte("device-secret"), serial: "YK-123456"})

	err := m.EnrollToken("Wrong-Password-42@q", "1234")
	assert.ErrorIs(t, err, ErrAuthenticationFailed)
}

func TestEnrollToken_NoProvider(t *testing.T) {
	m, path := newTestManager(t, nil)
	require.NoError(t, m.Create(path, adminUser, adminPass, nil))

	assert.ErrorIs(t, m.EnrollToken(adminPass, ""), ErrNoTokenProvider)
}

func TestUnenrollToken_RestoresPasswordOnlyAccess(t *testing.T) {
	m, path := newTestManager(t, nil)
	require.NoError(t, m.Create(path, adminUser, adminPass, nil))

	token := &fakeToken{secret: []byte("device-secret"), serial: "YK-123456"}
	m.SetTokenProvider(token)
	require.NoError(t, m.EnrollToken(adminPass, ""))
	require.NoError(t, m.UnenrollToken(adminPass))
	m.Close()

	m.SetTokenProvider(nil)
	session, err := m.Open(path, adminUser, adminPass)
	require.NoError(t, err)
	assert.Equal(t, adminUser, session.Username)

	pin, err := m.TokenPIN()
	require.NoError(t, err)
	assert.Empty(t, pin)
}

func TestOpen_TokenDeviceFailure(t *testing.T) {
	m, path := newTestManager(t, nil)
	require.NoError(t, m.Create(path, adminUser, adminPass, nil))

	token := &fakeToken{secret: []byte("device-secret"), serial: "YK-123456"}
	m.SetTokenProvider(token)
	require.NoError(t, m.EnrollToken(adminPass, ""))
	m.Close()

	token.fail = true
	_, err := m.Open(path, adminUser, adminPass)
	assert.ErrorIs(t, err, ErrAuthenticationFailed)
}
