// Package middleware holds the echo middleware shared by every API route.
package middleware

import (
	"context"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/mmynk/cobill/internal/apperr"
	"github.com/mmynk/cobill/internal/auth"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// UserIDKey is the key under which the authenticated user ID is stored,
	// both in the echo context and in the request context.
	UserIDKey contextKey = "user_id"
	// EmailKey holds the authenticated user's email.
	EmailKey contextKey = "email"
)

// GetUserID extracts the user ID from a request context. It returns 0 when
// the request was not authenticated.
func GetUserID(ctx context.Context) int64 {
	userID, _ := ctx.Value(UserIDKey).(int64)
	return userID
}

// UserID returns the authenticated user ID stored by RequireAuth.
func UserID(c echo.Context) (int64, bool) {
	userID, ok := c.Get(string(UserIDKey)).(int64)
	return userID, ok && userID > 0
}

// Email returns the authenticated user's email stored by RequireAuth.
func Email(c echo.Context) string {
	email, _ := c.Get(string(EmailKey)).(string)
	return email
}

// RequireAuth returns a middleware that validates bearer JWTs. It extracts the
// token from the Authorization header, validates it, and stores the user ID
// and email on the echo context and the request context.
func RequireAuth(jwtManager *auth.JWTManager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return apperr.Unauthorized("%s", auth.ErrMissingToken.Error())
			}

			scheme, token, found := strings.Cut(authHeader, " ")
			if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
				return apperr.Unauthorized("%s", auth.ErrInvalidToken.Error())
			}

			claims, err := jwtManager.Validate(token)
			if err != nil {
				return apperr.Unauthorized("%s", err.Error())
			}

			c.Set(string(UserIDKey), claims.UserID)
			c.Set(string(EmailKey), claims.Email)

			req := c.Request()
			ctx := context.WithValue(req.Context(), UserIDKey, claims.UserID)
			ctx = context.WithValue(ctx, EmailKey, claims.Email)
			c.SetRequest(req.WithContext(ctx))

			return next(c)
		}
	}
}
