// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TJDev Engineering

package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	keywrap "github.com/NickBall/go-aes-key-wrap"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/pbkdf2"

	"github.com/tjdeveng/KeepTower-sub001/models"
)

// Fixed key material sizes.
const (
	dekSize          = 32
	kekSize          = 32
	gcmIVSize        = 12
	kekSaltSize      = models.KEKSaltSize
	usernameSaltSize = models.UsernameSaltSize
)

// keyService is the private implementation of [KeyService].
type keyService struct{}

// NewKeyService constructs a [KeyService]. The service is stateless and safe
// for concurrent use.
func NewKeyService() KeyService {
	return &keyService{}
}

// GenerateDEK implements [KeyService]. It reads 32 random bytes from the OS
// CSPRNG and returns them as the data-encryption key.
func (k *keyService) GenerateDEK() ([]byte, error) {
	return randomBytes(dekSize)
}

// GenerateKEKSalt implements [KeyService].
func (k *keyService) GenerateKEKSalt() ([]byte, error) {
	return randomBytes(kekSaltSize)
}

// GenerateUsernameSalt implements [KeyService].
func (k *keyService) GenerateUsernameSalt() ([]byte, error) {
	return randomBytes(usernameSaltSize)
}

// DeriveKEK implements [KeyService]. It derives a 256-bit key-encryption key
// from password and salt using the selected KDF with cost parameters from
// policy. When salt is nil a fresh 32-byte salt is generated and returned
// alongside the key.
func (k *keyService) DeriveKEK(password string, salt []byte, alg models.KEKAlgorithm, policy *models.SecurityPolicy) ([]byte, []byte, error) {
	if salt == nil {
		var err error
		salt, err = randomBytes(kekSaltSize)
		if err != nil {
			return nil, nil, err
		}
	}
	if len(salt) != kekSaltSize {
		return nil, nil, fmt.Errorf("%w: kek salt must be %d bytes, got %d", ErrInvalidKeySize, kekSaltSize, len(salt))
	}

	switch alg {
	case models.KEKAlgorithmArgon2id:
		kek := argon2.IDKey(
			[]byte(password),
			salt,
			policy.Argon2Iterations,
			policy.Argon2MemoryKB,
			policy.Argon2Parallelism,
			kekSize,
		)
		return kek, salt, nil

	case models.KEKAlgorithmPBKDF2:
		kek := pbkdf2.Key([]byte(password), salt, int(policy.PBKDF2Iterations), kekSize, sha256.New)
		return kek, salt, nil

	default:
		return nil, nil, fmt.Errorf("%w: unknown kek algorithm 0x%02x", ErrInvalidKeySize, uint8(alg))
	}
}

// WrapDEK implements [KeyService]. It wraps the DEK under the KEK with
// AES-256 key wrapping (RFC 3394), producing a 40-byte blob that fails
// integrity checking when unwrapped with any other key.
func (k *keyService) WrapDEK(dek, kek []byte) ([]byte, error) {
	if len(dek) != dekSize || len(kek) != kekSize {
		return nil, fmt.Errorf("%w: dek %d, kek %d", ErrInvalidKeySize, len(dek), len(kek))
	}

	block, err := aes.NewCipher(kek)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}

	wrapped, err := keywrap.Wrap(block, dek)
	if err != nil {
		return nil, fmt.Errorf("wrap dek: %w", err)
	}
	return wrapped, nil
}

// UnwrapDEK implements [KeyService]. It unwraps a 40-byte blob produced by
// [keyService.WrapDEK]. A wrong KEK or a malformed blob fails closed with
// ErrUnwrapFailed.
func (k *keyService) UnwrapDEK(wrapped, kek []byte) ([]byte, error) {
	if len(wrapped) != models.WrappedDEKSize || len(kek) != kekSize {
		return nil, fmt.Errorf("%w: wrapped %d, kek %d", ErrInvalidKeySize, len(wrapped), len(kek))
	}

	block, err := aes.NewCipher(kek)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}

	dek, err := keywrap.Unwrap(block, wrapped)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnwrapFailed, err)
	}
	return dek, nil
}

// EncryptVaultData implements [KeyService]. It encrypts plaintext with the
// DEK using AES-256-GCM and a fresh random 12-byte IV. The IV is returned
// separately; the ciphertext carries the authentication tag.
func (k *keyService) EncryptVaultData(plaintext, dek []byte) ([]byte, []byte, error) {
	gcm, err := newGCM(dek)
	if err != nil {
		return nil, nil, err
	}

	iv, err := randomBytes(gcmIVSize)
	if err != nil {
		return nil, nil, err
	}

	return gcm.Seal(nil, iv, plaintext, nil), iv, nil
}

// DecryptVaultData implements [KeyService]. An error here almost always
// means the wrong DEK (wrong password upstream) or a tampered file.
func (k *keyService) DecryptVaultData(ciphertext, dek, iv []byte) ([]byte, error) {
	gcm, err := newGCM(dek)
	if err != nil {
		return nil, err
	}
	if len(iv) != gcm.NonceSize() {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrInvalidIVSize, len(iv), gcm.NonceSize())
	}

	plaintext, err := gcm.Open(nil, iv, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecryptionFailed, err)
	}
	return plaintext, nil
}

// EncryptPIN implements [KeyService]. The blob layout is iv ‖ ciphertext so
// a slot can store the PIN as a single opaque field.
func (k *keyService) EncryptPIN(pin string, dek []byte) ([]byte, error) {
	ciphertext, iv, err := k.EncryptVaultData([]byte(pin), dek)
	if err != nil {
		return nil, err
	}
	return append(iv, ciphertext...), nil
}

// DecryptPIN implements [KeyService]. It splits the IV prefix off the blob
// and decrypts the remainder.
func (k *keyService) DecryptPIN(blob, dek []byte) (string, error) {
	if len(blob) < gcmIVSize {
		return "", fmt.Errorf("%w: pin blob too short", ErrDecryptionFailed)
	}

	plaintext, err := k.DecryptVaultData(blob[gcmIVSize:], dek, blob[:gcmIVSize])
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}

// CombineKEKWithToken implements [KeyService]. The token response is
// normalized to 32 bytes (zero-padded if shorter, SHA-256 compressed if
// longer) and XORed into the KEK. Same inputs always produce the same
// combined key.
func (k *keyService) CombineKEKWithToken(kek, response []byte) ([]byte, error) {
	if len(kek) != kekSize {
		return nil, fmt.Errorf("%w: kek must be %d bytes, got %d", ErrInvalidKeySize, kekSize, len(kek))
	}
	if len(response) == 0 {
		return nil, ErrInvalidTokenResponse
	}

	var normalized [kekSize]byte
	if len(response) <= kekSize {
		copy(normalized[:], response)
	} else {
		normalized = sha256.Sum256(response)
	}
	// An all-zero response would XOR to the password-only KEK.
	if normalized == [kekSize]byte{} {
		return nil, ErrInvalidTokenResponse
	}

	combined := make([]byte, kekSize)
	for i := range combined {
		combined[i] = kek[i] ^ normalized[i]
	}
	return combined, nil
}

// SecureClear overwrites b with zeros. Every owner of DEK, KEK, or password
// material must call it at end of scope, including on error paths.
func SecureClear(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != dekSize {
		return nil, fmt.Errorf("%w: key must be %d bytes, got %d", ErrInvalidKeySize, dekSize, len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create gcm: %w", err)
	}
	return gcm, nil
}

func randomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return nil, err
	}
	return b, nil
}
