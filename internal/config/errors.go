package config

import "errors"

// Validation errors returned by [StructuredConfig.validate] when required
// configuration groups are incomplete or invalid.
var (
	// ErrInvalidVaultConfigs indicates invalid vault container settings
	// (for example, an out-of-range error-correction redundancy).
	ErrInvalidVaultConfigs = errors.New("invalid vault configuration")
	// ErrInvalidBackupConfigs indicates invalid backup settings
	// (for example, a negative retention count).
	ErrInvalidBackupConfigs = errors.New("invalid backup configuration")
	// ErrInvalidSecurityConfigs indicates security settings that cannot
	// produce a valid vault policy (for example, an unknown hash
	// algorithm name).
	ErrInvalidSecurityConfigs = errors.New("invalid security configuration")
)
