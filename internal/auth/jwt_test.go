package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/cobill/internal/models"
)

func TestJWTManager(t *testing.T) {
	manager := NewJWTManager("test-secret", time.Hour)
	user := &models.User{ID: 42, Email: "alice@example.com"}

	t.Run("round trip", func(t *testing.T) {
		token, err := manager.Generate(user)
		require.NoError(t, err)

		claims, err := manager.Validate(token)
		require.NoError(t, err)
		assert.Equal(t, int64(42), claims.UserID)
		assert.Equal(t, "alice@example.com", claims.Email)
		assert.Equal(t, "42", claims.Subject)
	})

	t.Run("empty token", func(t *testing.T) {
		_, err := manager.Validate("")
		assert.ErrorIs(t, err, ErrMissingToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		token, err := NewJWTManager("other-secret", time.Hour).Generate(user)
		require.NoError(t, err)

		_, err = manager.Validate(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		past := NewJWTManager("test-secret", time.Minute)
		past.now = func() time.Time { return time.Now().Add(-time.Hour) }
		token, err := past.Generate(user)
		require.NoError(t, err)

		_, err = manager.Validate(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("rejects other algorithms", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{UserID: 42})
		signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = manager.Validate(signed)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := manager.Validate("not.a.jwt")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
