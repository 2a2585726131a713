// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TJDev Engineering

package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tjdeveng/KeepTower-sub001/models"
)

func TestSecurityPolicy_Defaults(t *testing.T) {
	policy, err := Security{}.Policy()
	require.NoError(t, err)
	assert.Equal(t, models.DefaultSecurityPolicy(), policy)
}

func TestSecurityPolicy_Overrides(t *testing.T) {
	sec := Security{
		UsernameHashAlgorithm: "argon2id",
		PBKDF2Iterations:      500000,
		Argon2MemoryKB:        131072,
		Argon2Iterations:      5,
		Argon2Parallelism:     8,
		MinPasswordLength:     20,
		PasswordHistoryDepth:  12,
		RequireToken:          true,
	}

	policy, err := sec.Policy()
	require.NoError(t, err)

	assert.Equal(t, models.HashArgon2id, policy.UsernameHashAlgorithm)
	assert.Equal(t, uint32(500000), policy.PBKDF2Iterations)
	assert.Equal(t, uint32(131072), policy.Argon2MemoryKB)
	assert.Equal(t, uint32(5), policy.Argon2Iterations)
	assert.Equal(t, uint8(8), policy.Argon2Parallelism)
	assert.Equal(t, uint32(20), policy.MinPasswordLength)
	assert.Equal(t, uint32(12), policy.PasswordHistoryDepth)
	assert.True(t, policy.RequireToken)
}

func TestSecurityPolicy_UnknownAlgorithm(t *testing.T) {
	_, err := Security{UsernameHashAlgorithm: "md5"}.Policy()
	require.Error(t, err)
}

func TestSecurityPolicy_OutOfRangeParams(t *testing.T) {
	_, err := Security{PBKDF2Iterations: 1}.Policy()
	require.Error(t, err)

	_, err = Security{MinPasswordLength: 4}.Policy()
	require.Error(t, err)

	_, err = Security{PasswordHistoryDepth: 99}.Policy()
	require.Error(t, err)
}

func TestValidate_BackupRetention(t *testing.T) {
	cfg := &StructuredConfig{Backup: Backup{Retention: -1}}
	err := cfg.validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidBackupConfigs)
}
