package util

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)

	token, err := issuer.GenerateToken(7, "admin")
	require.NoError(t, err)

	claims, err := issuer.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, "admin", claims.Role)
}

func TestValidateTokenRejects(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)

	other, err := NewTokenIssuer("other", time.Hour).GenerateToken(1, "admin")
	require.NoError(t, err)
	_, err = issuer.ValidateToken(other)
	assert.Error(t, err)

	expired, err := NewTokenIssuer("secret", time.Nanosecond).GenerateToken(1, "admin")
	require.NoError(t, err)
	time.Sleep(time.Second)
	_, err = issuer.ValidateToken(expired)
	assert.Error(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"user_id": 1}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = issuer.ValidateToken(none)
	assert.Error(t, err)
}
