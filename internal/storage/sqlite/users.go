package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mmynk/cobill/internal/models"
)

// CreateUser inserts a new user into the database and sets user.ID.
func (s *SQLiteStore) CreateUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (email, display_name, password_hash, created_at)
		VALUES (?, ?, ?, ?)
	`

	if user.CreatedAt.IsZero() {
		user.CreatedAt = fromMillis(nowMillis())
	}

	res, err := s.db.ExecContext(ctx, query,
		user.Email,
		user.DisplayName,
		user.PasswordHash,
		toMillis(user.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", mapError(err))
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read user id: %w", err)
	}
	user.ID = id

	return nil
}

// GetUserByEmail retrieves a user by their email address.
func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `
		SELECT id, email, display_name, password_hash, created_at
		FROM users
		WHERE email = ?
	`

	user, err := scanUser(s.db.QueryRowContext(ctx, query, email))
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", mapError(err))
	}
	return user, nil
}

// GetUserByID retrieves a user by their ID.
func (s *SQLiteStore) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	query := `
		SELECT id, email, display_name, password_hash, created_at
		FROM users
		WHERE id = ?
	`

	user, err := scanUser(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get user by ID: %w", mapError(err))
	}
	return user, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func scanUser(row rowScanner) (*models.User, error) {
	user := &models.User{}
	var createdAt int64
	if err := row.Scan(
		&user.ID,
		&user.Email,
		&user.DisplayName,
		&user.PasswordHash,
		&createdAt,
	); err != nil {
		return nil, err
	}
	user.CreatedAt = fromMillis(createdAt)
	return user, nil
}
