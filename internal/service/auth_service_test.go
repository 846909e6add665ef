package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/cobill/internal/apperr"
)

func TestAuthService(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	t.Run("register returns a token", func(t *testing.T) {
		res, err := env.auth.Register(ctx, "alice@example.com", "Alice", "password123")
		require.NoError(t, err)
		assert.NotEmpty(t, res.Token)
		assert.NotZero(t, res.User.ID)
	})

	t.Run("register errors", func(t *testing.T) {
		_, err := env.auth.Register(ctx, "alice@example.com", "Alice", "password123")
		assert.True(t, apperr.Is(err, apperr.KindConflict))

		_, err = env.auth.Register(ctx, "bob@example.com", "Bob", "short")
		assert.True(t, apperr.Is(err, apperr.KindValidation))

		_, err = env.auth.Register(ctx, "", "Nobody", "password123")
		assert.True(t, apperr.Is(err, apperr.KindValidation))
	})

	t.Run("login", func(t *testing.T) {
		res, err := env.auth.Login(ctx, "alice@example.com", "password123")
		require.NoError(t, err)
		assert.Equal(t, "Alice", res.User.DisplayName)

		_, err = env.auth.Login(ctx, "alice@example.com", "wrong-password")
		assert.True(t, apperr.Is(err, apperr.KindUnauthorized))

		_, err = env.auth.Login(ctx, "alice@example.com", "")
		assert.True(t, apperr.Is(err, apperr.KindValidation))
	})

	t.Run("current user", func(t *testing.T) {
		res, err := env.auth.Login(ctx, "alice@example.com", "password123")
		require.NoError(t, err)

		user, err := env.auth.CurrentUser(ctx, res.User.ID)
		require.NoError(t, err)
		assert.Equal(t, "alice@example.com", user.Email)

		_, err = env.auth.CurrentUser(ctx, 9999)
		assert.True(t, apperr.Is(err, apperr.KindUnauthorized))
	})
}
