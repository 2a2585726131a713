// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TJDev Engineering

package hashing

import (
	"crypto/fips140"
	"sync/atomic"
)

// Process-wide FIPS mode state. Initialization is single-shot: the first
// FIPSInit call wins and later calls return the cached result, so every
// component in the process observes the same answer.
var fipsState struct {
	initialized atomic.Bool
	enabled     atomic.Bool
}

// FIPSAvailable reports whether the runtime exposes a FIPS-validated crypto
// module (the Go FIPS 140-3 module, enabled via GODEBUG=fips140=on).
func FIPSAvailable() bool {
	return fips140.Enabled()
}

// FIPSInit initializes process-wide FIPS state and returns whether FIPS mode
// is enabled. Only the first call takes effect; subsequent calls ignore
// enable and return the cached result.
//
// Requesting enable when no FIPS module is available leaves FIPS mode off
// and returns ErrFIPSUnavailable.
func FIPSInit(enable bool) (bool, error) {
	if fipsState.initialized.CompareAndSwap(false, true) {
		if enable && !FIPSAvailable() {
			fipsState.enabled.Store(false)
			return false, ErrFIPSUnavailable
		}
		fipsState.enabled.Store(enable)
	}
	return fipsState.enabled.Load(), nil
}

// FIPSEnabled reports whether FIPS mode is active. Before FIPSInit it
// reports false.
func FIPSEnabled() bool {
	return fipsState.enabled.Load()
}

// FIPSSetEnabled flips FIPS mode after initialization. Enabling fails with
// ErrFIPSUnavailable when no FIPS module is available; disabling always
// succeeds.
func FIPSSetEnabled(enable bool) error {
	if enable && !FIPSAvailable() {
		return ErrFIPSUnavailable
	}
	fipsState.initialized.Store(true)
	fipsState.enabled.Store(enable)
	return nil
}
