package passtoken

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	issuer := NewIssuer(NewSigner([]byte("test-secret")), time.Hour)

	token, payload, err := issuer.Issue(PurposeVisit, "member-1", "Visit pass", 0)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	payloadJSON, _, err := splitToken(token)
	require.NoError(t, err)

	decoded, err := parsePayload(payloadJSON)
	require.NoError(t, err)
	require.Equal(t, payload, decoded)
}

func TestSplitTokenRejectsMalformedInput(t *testing.T) {
	valid, _, err := NewIssuer(NewSigner([]byte("s")), time.Hour).Issue(PurposePromo, "m", "", 0)
	require.NoError(t, err)

	cases := map[string]string{
		"empty":            "",
		"no separator":     "not-a-token",
		"extra separators": valid + ".extra",
		"empty payload":    "." + strings.SplitN(valid, ".", 2)[1],
		"empty signature":  strings.SplitN(valid, ".", 2)[0] + ".",
		"invalid base64":   "!!!.???",
		"oversized":        strings.Repeat("a", maxTokenLength+1) + ".b",
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, _, err := splitToken(input)
			require.ErrorIs(t, err, ErrInvalidFormat)
		})
	}
}

func TestSplitTokenAcceptsPaddedBase64(t *testing.T) {
	payloadJSON := []byte(`{"sub":"x","type":"visit","userId":"m","nonce":"abc","iat":1,"exp":2}`)
	padded := base64.URLEncoding.EncodeToString(payloadJSON) + "." + base64.URLEncoding.EncodeToString([]byte("sig"))

	gotPayload, gotSig, err := splitToken(padded)
	require.NoError(t, err)
	require.Equal(t, payloadJSON, gotPayload)
	require.Equal(t, []byte("sig"), gotSig)
}

func TestParsePayloadStructuralChecks(t *testing.T) {
	cases := map[string]string{
		"not json":        `garbage`,
		"wrong type":      `{"sub":1,"type":"visit","userId":"m","nonce":"n","iat":1,"exp":2}`,
		"unknown purpose": `{"sub":"x","type":"discount","userId":"m","nonce":"n","iat":1,"exp":2}`,
		"missing subject": `{"sub":"x","type":"visit","nonce":"n","iat":1,"exp":2}`,
		"missing nonce":   `{"sub":"x","type":"visit","userId":"m","iat":1,"exp":2}`,
		"exp before iat":  `{"sub":"x","type":"visit","userId":"m","nonce":"n","iat":10,"exp":5}`,
		"zero timestamps": `{"sub":"x","type":"visit","userId":"m","nonce":"n","iat":0,"exp":0}`,
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := parsePayload([]byte(input))
			require.ErrorIs(t, err, ErrInvalidFormat)
		})
	}
}

func TestEncodeIsDeterministic(t *testing.T) {
	p := &Payload{Label: "l", Purpose: PurposeReferral, SubjectID: "m", Nonce: "n", IssuedAt: 1, ExpiresAt: 2}

	first, err := encodePayload(p)
	require.NoError(t, err)
	second, err := encodePayload(p)
	require.NoError(t, err)
	require.Equal(t, first, second)
}
