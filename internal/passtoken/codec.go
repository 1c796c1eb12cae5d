package passtoken

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Payload is the signed unit carried inside a pass token. Field names
// and order are fixed: the signer signs the marshalled bytes, so the
// same payload must always encode identically.
type Payload struct {
	Label     string  `json:"sub"`
	Purpose   Purpose `json:"type"`
	SubjectID string  `json:"userId"`
	Nonce     string  `json:"nonce"`
	IssuedAt  int64   `json:"iat"`
	ExpiresAt int64   `json:"exp"`
}

var (
	// ErrInvalidFormat covers every structural decode failure: wrong
	// part count, bad base64, bad JSON, missing fields, oversized input.
	ErrInvalidFormat = errors.New("invalid token format")

	// ErrInvalidPurpose marks a purpose outside the closed set. It is a
	// caller-side programming error at issuance, not a security failure.
	ErrInvalidPurpose = errors.New("invalid token purpose")
)

// maxTokenLength bounds decode input so garbage cannot force large
// base64 allocations.
const maxTokenLength = 4096

const tokenSeparator = "."

// encodePayload marshals the payload to its canonical JSON form.
func encodePayload(p *Payload) ([]byte, error) {
	if !p.Purpose.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPurpose, p.Purpose)
	}
	return json.Marshal(p)
}

// assembleToken concatenates encoded payload and signature into the
// wire format <base64url(payload)>.<base64url(signature)>, unpadded.
func assembleToken(payloadJSON, signature []byte) string {
	return base64.RawURLEncoding.EncodeToString(payloadJSON) +
		tokenSeparator +
		base64.RawURLEncoding.EncodeToString(signature)
}

// splitToken separates a presented token into decoded payload bytes
// and signature bytes. Both padded and unpadded base64 are accepted.
func splitToken(token string) (payloadJSON, signature []byte, err error) {
	if token == "" || len(token) > maxTokenLength {
		return nil, nil, ErrInvalidFormat
	}
	parts := strings.Split(token, tokenSeparator)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return nil, nil, ErrInvalidFormat
	}
	payloadJSON, err = decodeBase64(parts[0])
	if err != nil {
		return nil, nil, ErrInvalidFormat
	}
	signature, err = decodeBase64(parts[1])
	if err != nil {
		return nil, nil, ErrInvalidFormat
	}
	return payloadJSON, signature, nil
}

// parsePayload unmarshals payload bytes and enforces structural
// invariants on the result.
func parsePayload(payloadJSON []byte) (*Payload, error) {
	var p Payload
	if err := json.Unmarshal(payloadJSON, &p); err != nil {
		return nil, ErrInvalidFormat
	}
	if !p.Purpose.Valid() {
		return nil, ErrInvalidFormat
	}
	if p.SubjectID == "" || p.Nonce == "" {
		return nil, ErrInvalidFormat
	}
	if p.IssuedAt <= 0 || p.ExpiresAt <= p.IssuedAt {
		return nil, ErrInvalidFormat
	}
	return &p, nil
}

func decodeBase64(segment string) ([]byte, error) {
	if strings.ContainsRune(segment, '=') {
		return base64.URLEncoding.DecodeString(segment)
	}
	return base64.RawURLEncoding.DecodeString(segment)
}
