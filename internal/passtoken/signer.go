package passtoken

import (
	"crypto/hmac"
	"crypto/sha256"
)

// Signer binds encoded payload bytes to a server-held secret using
// HMAC-SHA256. It is pure: no state beyond the secret, no side effects.
type Signer struct {
	secret []byte
}

// NewSigner builds a signer around the shared secret. The secret is
// injected here rather than read from a global so tests can supply a
// deterministic one and startup can fail fast on a missing value.
func NewSigner(secret []byte) *Signer {
	return &Signer{secret: secret}
}

// Sign computes the MAC over data.
func (s *Signer) Sign(data []byte) []byte {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write(data)
	return mac.Sum(nil)
}

// Verify recomputes the MAC and compares in constant time.
func (s *Signer) Verify(data, signature []byte) bool {
	return hmac.Equal(s.Sign(data), signature)
}
