// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TJDev Engineering

package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// fromEnv loads the environment-variable source. Field mapping comes from
// the env and envPrefix struct tags on [StructuredConfig] and its sections;
// unset variables leave their fields zero for a later source or the defaults
// to fill.
func fromEnv() (*StructuredConfig, error) {
	cfg := &StructuredConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("reading environment configuration: %w", err)
	}
	return cfg, nil
}
