// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TJDev Engineering

package config

import (
	"errors"
	"fmt"

	"dario.cat/mergo"
)

// configBuilder accumulates configuration sources in priority order. Sources
// added earlier win for every field they set; build fills the remaining gaps
// from the built-in defaults.
type configBuilder struct {
	sources []*StructuredConfig
	errs    []error
}

func newConfigBuilder() *configBuilder {
	return &configBuilder{}
}

// add records a source, or its load error. A failed source does not stop the
// chain; build reports all collected errors at once.
func (b *configBuilder) add(cfg *StructuredConfig, err error) *configBuilder {
	if err != nil {
		b.errs = append(b.errs, err)
		return b
	}
	b.sources = append(b.sources, cfg)
	return b
}

func (b *configBuilder) withEnv() *configBuilder {
	return b.add(fromEnv())
}

func (b *configBuilder) withFlags() *configBuilder {
	return b.add(ParseFlags(), nil)
}

// withJSON loads the JSON file named by the highest-priority source that set
// one. No source naming a file is not an error; the stage is skipped.
func (b *configBuilder) withJSON() *configBuilder {
	for _, src := range b.sources {
		if src.JSONFilePath != "" {
			return b.add(parseJSON(src.JSONFilePath))
		}
	}
	return b
}

// build merges the collected sources, applies defaults to whatever is still
// unset, and validates the result.
func (b *configBuilder) build() (*StructuredConfig, error) {
	if len(b.errs) > 0 {
		return nil, fmt.Errorf("building configuration: %w", errors.Join(b.errs...))
	}

	merged := new(StructuredConfig)
	for _, src := range b.sources {
		if err := mergo.Merge(merged, src); err != nil {
			return nil, fmt.Errorf("merging configuration sources: %w", err)
		}
	}
	if err := mergo.Merge(merged, defaultConfig()); err != nil {
		return nil, fmt.Errorf("applying configuration defaults: %w", err)
	}

	return merged, merged.validate()
}
