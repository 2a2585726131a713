package crypto

import "github.com/tjdeveng/KeepTower-sub001/models"

// KeyService owns every keyed operation in the vault's trust chain.
// It knows nothing about files, slots, or users; its single job is to
// generate, derive, wrap, and apply keys.
//
// The chain for one user:
//
//	DEK          = GenerateDEK()                           (once per vault)
//	KEK, salt    = DeriveKEK(password, nil, alg, policy)   (once per slot)
//	wrapped      = WrapDEK(DEK, KEK)                       (stored in slot)
//	ct, iv       = EncryptVaultData(payload, DEK)          (stored in file)
type KeyService interface {
	// GenerateDEK returns a fresh 32-byte data-encryption key from the OS
	// CSPRNG. Two calls must never return the same key.
	GenerateDEK() ([]byte, error)

	// GenerateKEKSalt returns a fresh 32-byte KEK derivation salt.
	GenerateKEKSalt() ([]byte, error)

	// GenerateUsernameSalt returns a fresh 16-byte username-hash salt.
	GenerateUsernameSalt() ([]byte, error)

	// DeriveKEK derives a 32-byte key-encryption key from password using
	// alg with cost parameters taken from policy. A nil salt generates a
	// fresh one; supplying a salt makes derivation deterministic. Returns
	// the KEK and the salt actually used.
	//
	// Empty passwords still produce a valid-length key; password policy is
	// enforced by the vault manager, not here.
	DeriveKEK(password string, salt []byte, alg models.KEKAlgorithm, policy *models.SecurityPolicy) (kek, usedSalt []byte, err error)

	// WrapDEK wraps a 32-byte DEK under a 32-byte KEK with AES key
	// wrapping, producing a 40-byte blob (key material plus an 8-byte
	// integrity block).
	WrapDEK(dek, kek []byte) ([]byte, error)

	// UnwrapDEK reverses WrapDEK. A wrong KEK or malformed blob fails
	// closed with ErrUnwrapFailed; garbage key bytes are never returned.
	UnwrapDEK(wrapped, kek []byte) ([]byte, error)

	// EncryptVaultData encrypts plaintext with the DEK using authenticated
	// encryption and a fresh IV. The IV is returned separately because the
	// container header stores it apart from the ciphertext.
	EncryptVaultData(plaintext, dek []byte) (ciphertext, iv []byte, err error)

	// DecryptVaultData reverses EncryptVaultData. Any bit-flip in the
	// ciphertext, wrong key, or wrong IV yields ErrDecryptionFailed.
	DecryptVaultData(ciphertext, dek, iv []byte) ([]byte, error)

	// EncryptPIN encrypts a short secondary secret (hardware-token PIN)
	// with the DEK. The output blob is IV-prefixed ciphertext.
	EncryptPIN(pin string, dek []byte) ([]byte, error)

	// DecryptPIN reverses EncryptPIN.
	DecryptPIN(blob, dek []byte) (string, error)

	// CombineKEKWithToken deterministically mixes a hardware-token
	// challenge response into a password-derived KEK. Responses up to 32
	// bytes are zero-padded; longer responses are compressed with SHA-256.
	// The combined key always differs from the password-only KEK.
	CombineKEKWithToken(kek, response []byte) ([]byte, error)
}
