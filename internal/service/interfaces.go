package service

// TokenProvider abstracts a hardware token capable of HMAC
// challenge-response (e.g. a YubiKey in HMAC-SHA1/SHA256 mode). The vault
// manager mixes the response into the password-derived KEK, so the token
// must produce identical responses for identical challenges.
type TokenProvider interface {
	// ChallengeResponse sends challenge to the token and returns its
	// response. Blocking (a touch-required token waits for the user).
	ChallengeResponse(challenge []byte) ([]byte, error)

	// Serial returns the token's serial number for enrollment records.
	Serial() (string, error)
}

// ProgressFunc receives coarse progress notifications during long vault
// operations such as creation. percent is 0-100; stage is a short
// human-readable description. Implementations must not block.
type ProgressFunc func(percent int, stage string)
