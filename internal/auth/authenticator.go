// Package auth issues and verifies the bearer credentials required by the
// session, participant and item routes.
package auth

import (
	"context"
	"errors"

	"github.com/mmynk/cobill/internal/models"
)

// Errors shared by every Authenticator.
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
	ErrEmailExists        = errors.New("email already registered")
)

// Authenticator creates accounts and checks login credentials. AuthService
// depends only on this, so the password scheme can be replaced.
type Authenticator interface {
	// Register creates an account. Emails are compared case-insensitively;
	// a taken email returns ErrEmailExists, a rejected credential
	// ErrWeakPassword.
	Register(ctx context.Context, email, displayName, credential string) (*models.User, error)

	// Authenticate returns the account for email when credential matches.
	// An unknown email and a wrong credential both return
	// ErrInvalidCredentials.
	Authenticate(ctx context.Context, email, credential string) (*models.User, error)
}

var _ Authenticator = (*PasswordAuthenticator)(nil)
