package passtoken

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// nonceBytes is the random width of a nonce: 128 bits, rendered hex.
const nonceBytes = 16

// Issuer mints signed pass tokens for a purpose and subject.
type Issuer struct {
	signer     *Signer
	defaultTTL time.Duration
	now        func() time.Time
}

// NewIssuer builds an issuer. ttl is the default lifetime applied when
// a caller does not override it; non-positive values fall back to an hour.
func NewIssuer(signer *Signer, ttl time.Duration) *Issuer {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Issuer{signer: signer, defaultTTL: ttl, now: time.Now}
}

// Issue builds, encodes and signs a payload for the given purpose and
// subject. ttl <= 0 selects the issuer default. Issuance never touches
// the replay ledger: only validation consumes a nonce, so an issued
// token that is never presented is expected and harmless.
func (i *Issuer) Issue(purpose Purpose, subjectID, label string, ttl time.Duration) (string, *Payload, error) {
	if !purpose.Valid() {
		return "", nil, fmt.Errorf("%w: %q", ErrInvalidPurpose, purpose)
	}
	if subjectID == "" {
		return "", nil, fmt.Errorf("%w: empty subject", ErrInvalidPurpose)
	}
	if ttl <= 0 {
		ttl = i.defaultTTL
	}

	nonce, err := newNonce()
	if err != nil {
		return "", nil, fmt.Errorf("generate nonce: %w", err)
	}

	issuedAt := i.now().Unix()
	payload := &Payload{
		Label:     label,
		Purpose:   purpose,
		SubjectID: subjectID,
		Nonce:     nonce,
		IssuedAt:  issuedAt,
		ExpiresAt: issuedAt + int64(ttl/time.Second),
	}

	payloadJSON, err := encodePayload(payload)
	if err != nil {
		return "", nil, err
	}
	return assembleToken(payloadJSON, i.signer.Sign(payloadJSON)), payload, nil
}

func newNonce() (string, error) {
	buf := make([]byte, nonceBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
