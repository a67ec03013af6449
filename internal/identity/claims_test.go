package identity

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func TestTokenClaims(t *testing.T) {
	t.Run("extracts subject, email and expiry", func(t *testing.T) {
		exp := time.Now().Add(time.Hour).Truncate(time.Second)
		token := signedToken(t, jwt.MapClaims{
			"sub":   "user-1",
			"email": "alex@example.com",
			"exp":   exp.Unix(),
		})

		subject, email, expiresAt, err := tokenClaims(token)
		require.NoError(t, err)
		assert.Equal(t, "user-1", subject)
		assert.Equal(t, "alex@example.com", email)
		assert.True(t, expiresAt.Equal(exp))
	})

	t.Run("missing subject is rejected", func(t *testing.T) {
		token := signedToken(t, jwt.MapClaims{"email": "alex@example.com"})

		_, _, _, err := tokenClaims(token)
		require.Error(t, err)
	})

	t.Run("garbage is rejected", func(t *testing.T) {
		_, _, _, err := tokenClaims("not-a-jwt")
		require.Error(t, err)
	})
}
