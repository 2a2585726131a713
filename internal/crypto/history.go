// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TJDev Engineering

package crypto

import (
	"crypto/sha512"

	"golang.org/x/crypto/pbkdf2"

	"github.com/tjdeveng/KeepTower-sub001/models"
)

// PasswordHistoryHash computes the slow hash retained in a key slot's
// password-history list: PBKDF2-HMAC-SHA512 with a fixed iteration count and
// a per-entry salt. The same password with the same salt always produces the
// same hash, which is how reuse is detected.
func PasswordHistoryHash(password string, salt []byte) []byte {
	return pbkdf2.Key([]byte(password), salt,
		models.PasswordHistoryIterations, models.PasswordHistoryHashSize, sha512.New)
}
