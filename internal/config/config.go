// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TJDev Engineering

package config

import (
	"github.com/tjdeveng/KeepTower-sub001/models"
)

// StructuredConfig is the top-level configuration container for the
// keeptower application. It aggregates all sub-configurations and is
// populated by merging values from environment variables, command-line flags,
// and an optional JSON file.
//
// Struct tags:
//   - envPrefix — prefix applied to all nested env tag lookups (caarlos0/env).
//   - env       — direct environment variable name for scalar fields.
type StructuredConfig struct {
	// Vault holds settings for the encrypted vault container itself:
	// its file path and the forward-error-correction parameters used
	// when writing headers.
	Vault Vault `envPrefix:"VAULT_"`

	// Backup holds settings for the timestamped backup copies created
	// before every destructive vault write.
	Backup Backup `envPrefix:"BACKUP_"`

	// Security holds the knobs that feed the vault security policy:
	// username hashing algorithm, KDF parameters, password rules, and
	// the FIPS-mode switch.
	Security Security `envPrefix:"SECURITY_"`

	// Log holds logging settings.
	Log Log `envPrefix:"LOG_"`

	// JSONFilePath is the optional path to a JSON configuration file.
	// When non-empty, the file is parsed and merged on top of the values
	// already loaded from environment variables and flags.
	// Populated via the CONFIG environment variable or the -c / -config flag.
	JSONFilePath string `env:"CONFIG"`
}

// Vault holds container-level settings.
type Vault struct {
	// Path is the vault file location on disk.
	// Env: VAULT_PATH
	Path string `env:"PATH"`

	// FECRedundancy is the Reed-Solomon redundancy percentage (5-50)
	// applied to the container header on write. Zero selects the default.
	// Env: VAULT_FEC_REDUNDANCY
	FECRedundancy int `env:"FEC_REDUNDANCY"`

	// DisableFEC turns off header error correction for newly written
	// containers. Existing FEC-protected files are still readable.
	// Env: VAULT_DISABLE_FEC
	DisableFEC bool `env:"DISABLE_FEC"`
}

// Backup holds backup retention settings.
type Backup struct {
	// Retention is the number of timestamped backups kept per vault file.
	// Older backups are pruned after each successful save. Zero selects
	// the default.
	// Env: BACKUP_RETENTION
	Retention int `env:"RETENTION"`
}

// Security holds the configurable parts of the vault security policy.
// Zero-valued fields fall back to the policy defaults in
// [models.DefaultSecurityPolicy].
type Security struct {
	// UsernameHashAlgorithm names the algorithm used to hash usernames in
	// key slots: "sha3-256", "sha3-384", "sha3-512", "pbkdf2" or
	// "argon2id".
	// Env: SECURITY_USERNAME_HASH_ALGORITHM
	UsernameHashAlgorithm string `env:"USERNAME_HASH_ALGORITHM"`

	// PBKDF2Iterations is the iteration count for PBKDF2-based key
	// derivation (100000-1000000).
	// Env: SECURITY_PBKDF2_ITERATIONS
	PBKDF2Iterations uint32 `env:"PBKDF2_ITERATIONS"`

	// Argon2MemoryKB is the Argon2id memory cost in KiB (8192-1048576).
	// Env: SECURITY_ARGON2_MEMORY_KB
	Argon2MemoryKB uint32 `env:"ARGON2_MEMORY_KB"`

	// Argon2Iterations is the Argon2id time cost (1-10).
	// Env: SECURITY_ARGON2_ITERATIONS
	Argon2Iterations uint32 `env:"ARGON2_ITERATIONS"`

	// Argon2Parallelism is the Argon2id lane count (1-16).
	// Env: SECURITY_ARGON2_PARALLELISM
	Argon2Parallelism uint8 `env:"ARGON2_PARALLELISM"`

	// MinPasswordLength is the minimum accepted password length (8-128).
	// Env: SECURITY_MIN_PASSWORD_LENGTH
	MinPasswordLength uint32 `env:"MIN_PASSWORD_LENGTH"`

	// PasswordHistoryDepth is how many previous password hashes are kept
	// per user to reject reuse (0-24).
	// Env: SECURITY_PASSWORD_HISTORY_DEPTH
	PasswordHistoryDepth uint32 `env:"PASSWORD_HISTORY_DEPTH"`

	// RequireToken makes hardware-token second factors mandatory for all
	// users of a newly created vault.
	// Env: SECURITY_REQUIRE_TOKEN
	RequireToken bool `env:"REQUIRE_TOKEN"`

	// FIPSMode restricts the vault to FIPS-approved algorithms. The flag
	// is honored only when the Go FIPS 140-3 module is linked in.
	// Env: SECURITY_FIPS_MODE
	FIPSMode bool `env:"FIPS_MODE"`
}

// Log holds logging settings.
type Log struct {
	// Level is the zerolog level name ("debug", "info", "warn", "error").
	// Env: LOG_LEVEL
	Level string `env:"LEVEL"`
}

// Policy materializes a [models.SecurityPolicy] from the security section,
// starting from the policy defaults and overriding every field the
// configuration sets explicitly. The returned policy is validated by the
// caller before it is written into a vault.
func (s Security) Policy() (models.SecurityPolicy, error) {
	policy := models.DefaultSecurityPolicy()

	if s.UsernameHashAlgorithm != "" {
		alg, err := models.ParseHashAlgorithm(s.UsernameHashAlgorithm)
		if err != nil {
			return models.SecurityPolicy{}, err
		}
		policy.UsernameHashAlgorithm = alg
	}
	if s.PBKDF2Iterations != 0 {
		policy.PBKDF2Iterations = s.PBKDF2Iterations
	}
	if s.Argon2MemoryKB != 0 {
		policy.Argon2MemoryKB = s.Argon2MemoryKB
	}
	if s.Argon2Iterations != 0 {
		policy.Argon2Iterations = s.Argon2Iterations
	}
	if s.Argon2Parallelism != 0 {
		policy.Argon2Parallelism = s.Argon2Parallelism
	}
	if s.MinPasswordLength != 0 {
		policy.MinPasswordLength = s.MinPasswordLength
	}
	if s.PasswordHistoryDepth != 0 {
		policy.PasswordHistoryDepth = s.PasswordHistoryDepth
	}
	policy.RequireToken = s.RequireToken

	return policy, policy.Validate()
}

// GetStructuredConfig loads, merges, and validates the application
// configuration from all available sources in the following priority order
// (earlier sources win for non-zero fields):
//  1. Environment variables
//  2. Command-line flags
//  3. JSON file (path resolved from sources 1 and 2)
//  4. Built-in defaults
//
// Returns a fully populated *StructuredConfig or an error if any source
// fails to load or the final config fails validation.
func GetStructuredConfig() (*StructuredConfig, error) {
	return newConfigBuilder().
		withEnv().
		withFlags().
		withJSON().
		build()
}
