package auth

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/loyalty-service/internal/domain"
)

func TestTokenManagerRoundTrip(t *testing.T) {
	tm := NewTokenManager("session-secret", 60)
	role := domain.StaffRoleAdmin

	token, exp, err := tm.GenerateToken("staff-1", domain.SubjectTypeStaff, &role)
	require.NoError(t, err)
	require.False(t, exp.IsZero())

	claims, err := tm.ParseToken(token)
	require.NoError(t, err)
	require.Equal(t, "staff-1", claims.SubjectID)
	require.Equal(t, domain.SubjectTypeStaff, claims.Subject)
	require.NotNil(t, claims.Role)
	require.Equal(t, role, *claims.Role)
}

func TestTokenManagerRejectsForeignSecret(t *testing.T) {
	token, _, err := NewTokenManager("secret-a", 60).GenerateToken("member-1", domain.SubjectTypeMember, nil)
	require.NoError(t, err)

	_, err = NewTokenManager("secret-b", 60).ParseToken(token)
	require.Error(t, err)
}
