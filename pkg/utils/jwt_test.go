package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	SetSecret("test-secret")

	token, err := GenerateToken("alice", "alice@example.com", "Alice Doe", "ops-maker",
		[]string{"transactions:refund:maker", "transactions:read"}, false)
	require.NoError(t, err)

	claims, err := ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "alice@example.com", claims.Email)
	assert.Equal(t, "ops-maker", claims.Role)
	assert.False(t, claims.System)
	assert.True(t, claims.HasPermission("transactions:read"))
	assert.False(t, claims.HasPermission("transactions:refund:checker"))
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	SetSecret("first-secret")
	token, err := GenerateToken("alice", "", "", "ops-maker", nil, false)
	require.NoError(t, err)

	SetSecret("rotated-secret")
	_, err = ValidateToken(token)
	require.Error(t, err)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	SetSecret("test-secret")
	_, err := ValidateToken("not.a.token")
	require.Error(t, err)
}
