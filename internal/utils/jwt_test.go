package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/legacy-vault/internal/auth"
)

const testSecret = "test-secret"

func parseClaims(t *testing.T, token string) jwt.MapClaims {
	t.Helper()
	tok, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		return []byte(testSecret), nil
	})
	require.NoError(t, err)
	require.True(t, tok.Valid)
	claims, ok := tok.Claims.(jwt.MapClaims)
	require.True(t, ok)
	return claims
}

func TestNewAccessTokenBothRole(t *testing.T) {
	id := auth.Resolved{Role: auth.RoleBoth, UserID: 3, BeneficiaryID: 9, Email: "a@x.com"}
	at, err := NewAccessToken(testSecret, id, 15)
	require.NoError(t, err)

	claims := parseClaims(t, at.Token)
	assert.Equal(t, "both", claims["role"])
	assert.Equal(t, "a@x.com", claims["email"])
	assert.EqualValues(t, 3, claims["sub"])
	assert.EqualValues(t, 3, claims["user_id"])
	assert.EqualValues(t, 9, claims["beneficiary_id"])
	assert.WithinDuration(t, time.Now().UTC().Add(15*time.Minute), at.Exp, 5*time.Second)
}

func TestNewAccessTokenBeneficiaryOnly(t *testing.T) {
	id := auth.Resolved{Role: auth.RoleBeneficiary, BeneficiaryID: 11, Email: "b@x.com"}
	at, err := NewAccessToken(testSecret, id, 15)
	require.NoError(t, err)

	claims := parseClaims(t, at.Token)
	assert.Equal(t, "beneficiary", claims["role"])
	// sub falls back to the beneficiary id and no user_id claim is emitted.
	assert.EqualValues(t, 11, claims["sub"])
	_, hasUserID := claims["user_id"]
	assert.False(t, hasUserID)
}

func TestAccessTokenRejectsWrongSecret(t *testing.T) {
	id := auth.Resolved{Role: auth.RoleUser, UserID: 1, Email: "a@x.com"}
	at, err := NewAccessToken(testSecret, id, 15)
	require.NoError(t, err)

	_, err = jwt.Parse(at.Token, func(t *jwt.Token) (interface{}, error) {
		return []byte("other-secret"), nil
	})
	assert.Error(t, err)
}

func TestNewRefreshToken(t *testing.T) {
	a, err := NewRefreshToken(30)
	require.NoError(t, err)
	b, err := NewRefreshToken(30)
	require.NoError(t, err)

	assert.Len(t, a.Raw, 96) // 48 random bytes hex-encoded
	assert.NotEqual(t, a.Raw, b.Raw)
	assert.WithinDuration(t, time.Now().UTC().Add(30*24*time.Hour), a.Exp, 5*time.Second)

	// The stored form is a stable digest of the raw token.
	assert.Equal(t, HashRefreshRaw(a.Raw), HashRefreshRaw(a.Raw))
	assert.NotEqual(t, HashRefreshRaw(a.Raw), HashRefreshRaw(b.Raw))
	assert.Len(t, HashRefreshRaw(a.Raw), 64)
}
