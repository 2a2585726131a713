package crypto

import "errors"

// Sentinel errors returned by the key service. Callers should use
// [errors.Is] to match against these values.
var (
	// ErrInvalidKeySize is returned when a key or wrapped blob has the
	// wrong length for the requested operation.
	ErrInvalidKeySize = errors.New("invalid key size")

	// ErrInvalidIVSize is returned when an initialization vector does not
	// match the AEAD nonce size.
	ErrInvalidIVSize = errors.New("invalid iv size")

	// ErrUnwrapFailed is returned when key unwrapping fails its integrity
	// check, almost always because the KEK is wrong.
	ErrUnwrapFailed = errors.New("key unwrap failed")

	// ErrDecryptionFailed is returned when authenticated decryption fails:
	// wrong key, wrong IV, or tampered ciphertext.
	ErrDecryptionFailed = errors.New("decryption failed")

	// ErrInvalidTokenResponse is returned when a hardware-token response is
	// empty and therefore cannot strengthen the KEK.
	ErrInvalidTokenResponse = errors.New("invalid token response")
)
