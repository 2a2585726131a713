// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TJDev Engineering

package config

import (
	"fmt"

	"github.com/tjdeveng/KeepTower-sub001/internal/fec"
)

// validate checks that the final merged [StructuredConfig] satisfies all
// application invariants before it is used at startup.
//
// Returns nil if the configuration is valid, or a descriptive error otherwise.
func (cfg *StructuredConfig) validate() error {
	if cfg.Vault.FECRedundancy != 0 &&
		(cfg.Vault.FECRedundancy < fec.MinRedundancy || cfg.Vault.FECRedundancy > fec.MaxRedundancy) {
		return fmt.Errorf("%w: fec redundancy %d outside [%d, %d]",
			ErrInvalidVaultConfigs, cfg.Vault.FECRedundancy, fec.MinRedundancy, fec.MaxRedundancy)
	}

	if cfg.Backup.Retention < 0 {
		return fmt.Errorf("%w: retention %d is negative", ErrInvalidBackupConfigs, cfg.Backup.Retention)
	}

	if _, err := cfg.Security.Policy(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSecurityConfigs, err)
	}

	return nil
}
