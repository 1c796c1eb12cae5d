package passtoken

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSignerVerify(t *testing.T) {
	s := NewSigner([]byte("test-secret"))
	data := []byte(`{"sub":"x"}`)

	sig := s.Sign(data)
	require.True(t, s.Verify(data, sig))
	require.False(t, s.Verify([]byte(`{"sub":"y"}`), sig))
	require.False(t, NewSigner([]byte("other-secret")).Verify(data, sig))
}

func TestSignerTamperSensitivity(t *testing.T) {
	s := NewSigner([]byte("test-secret"))
	data := []byte(`{"sub":"x","type":"visit","userId":"m","nonce":"n","iat":1,"exp":2}`)
	sig := s.Sign(data)

	for i := range data {
		for bit := 0; bit < 8; bit++ {
			tampered := append([]byte(nil), data...)
			tampered[i] ^= 1 << bit
			require.False(t, s.Verify(tampered, sig), "flipped bit %d of byte %d", bit, i)
		}
	}
}
