package services

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignAccessTokenClaims(t *testing.T) {
	now := time.Now().UTC()
	signed, err := SignAccessToken("secret", 42, "a@b.com", DefaultScopes, 45*time.Hour, now)
	require.NoError(t, err)

	claims := jwt.MapClaims{}
	_, err = jwt.ParseWithClaims(signed, claims, func(*jwt.Token) (interface{}, error) {
		return []byte("secret"), nil
	})
	require.NoError(t, err)

	assert.Equal(t, "42", claims["sub"])
	assert.Equal(t, "read:foo write:foo update:foo", claims["scope"])
	assert.EqualValues(t, now.Add(45*time.Hour).Unix(), claims["exp"])
}
