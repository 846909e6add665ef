package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/cobill/internal/apperr"
	"github.com/mmynk/cobill/internal/auth"
	"github.com/mmynk/cobill/internal/models"
)

func TestRequireAuth(t *testing.T) {
	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	token, err := jwtManager.Generate(&models.User{ID: 42, Email: "alice@example.com"})
	require.NoError(t, err)

	e := echo.New()
	var seenID int64
	var seenCtxID int64
	handler := RequireAuth(jwtManager)(func(c echo.Context) error {
		seenID, _ = UserID(c)
		seenCtxID = GetUserID(c.Request().Context())
		return c.NoContent(http.StatusNoContent)
	})

	tests := []struct {
		name   string
		header string
		ok     bool
	}{
		{"valid bearer", "Bearer " + token, true},
		{"lowercase scheme", "bearer " + token, true},
		{"missing header", "", false},
		{"wrong scheme", "Basic " + token, false},
		{"no token", "Bearer ", false},
		{"garbage token", "Bearer not.a.jwt", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seenID, seenCtxID = 0, 0
			req := httptest.NewRequest(http.MethodGet, "/api/auth/verify-token", nil)
			if tt.header != "" {
				req.Header.Set(echo.HeaderAuthorization, tt.header)
			}
			rec := httptest.NewRecorder()

			err := handler(e.NewContext(req, rec))
			if !tt.ok {
				assert.True(t, apperr.Is(err, apperr.KindUnauthorized), "got %v", err)
				assert.Zero(t, seenID)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, int64(42), seenID)
			assert.Equal(t, int64(42), seenCtxID)
		})
	}
}

func TestRequireAuth_ExpiredToken(t *testing.T) {
	jwtManager := auth.NewJWTManager("test-secret", -time.Minute)
	token, err := jwtManager.Generate(&models.User{ID: 1, Email: "old@example.com"})
	require.NoError(t, err)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)

	err = RequireAuth(jwtManager)(func(c echo.Context) error { return nil })(e.NewContext(req, httptest.NewRecorder()))
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized))
}
