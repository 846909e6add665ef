package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/mmynk/cobill/internal/apperr"
	"github.com/mmynk/cobill/internal/auth"
	"github.com/mmynk/cobill/internal/models"
	"github.com/mmynk/cobill/internal/storage"
)

// AuthResult is returned by Register and Login.
type AuthResult struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// AuthService registers users and exchanges credentials for tokens.
type AuthService struct {
	authenticator auth.Authenticator
	jwtManager    *auth.JWTManager
	users         storage.UserStore
}

// NewAuthService creates a new authentication service.
func NewAuthService(authenticator auth.Authenticator, jwtManager *auth.JWTManager, users storage.UserStore) *AuthService {
	return &AuthService{
		authenticator: authenticator,
		jwtManager:    jwtManager,
		users:         users,
	}
}

// Register creates a new user account and returns a token for it.
func (s *AuthService) Register(ctx context.Context, email, displayName, password string) (*AuthResult, error) {
	slog.Info("Register request", "email", email)

	if strings.TrimSpace(email) == "" || strings.TrimSpace(displayName) == "" {
		return nil, apperr.Validation("email and display_name are required")
	}

	user, err := s.authenticator.Register(ctx, email, displayName, password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrEmailExists):
			return nil, apperr.Conflict("%s", err.Error())
		case errors.Is(err, auth.ErrWeakPassword):
			return nil, apperr.Validation("%s", err.Error())
		}
		return nil, apperr.Storage("register user", err)
	}

	token, err := s.jwtManager.Generate(user)
	if err != nil {
		return nil, apperr.Storage("generate token", err)
	}

	slog.Info("User registered successfully", "user_id", user.ID, "email", user.Email)
	return &AuthResult{Token: token, User: user}, nil
}

// Login authenticates a user and returns a JWT token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, apperr.Validation("email and password are required")
	}

	user, err := s.authenticator.Authenticate(ctx, email, password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			slog.Warn("Login failed", "email", email)
			return nil, apperr.Unauthorized("%s", err.Error())
		}
		return nil, apperr.Storage("authenticate user", err)
	}

	token, err := s.jwtManager.Generate(user)
	if err != nil {
		return nil, apperr.Storage("generate token", err)
	}

	slog.Info("User logged in successfully", "user_id", user.ID)
	return &AuthResult{Token: token, User: user}, nil
}

// CurrentUser returns the account behind a verified token. A token for a
// deleted account is rejected.
func (s *AuthService) CurrentUser(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperr.Unauthorized("%s", auth.ErrInvalidToken.Error())
		}
		return nil, apperr.Storage("get current user", err)
	}
	return user, nil
}
