// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/mmynk/cobill/internal/models"
)

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a write violates a uniqueness constraint.
	ErrConflict = errors.New("conflict")

	// ErrReference is returned when a write points at a row that does not exist.
	ErrReference = errors.New("referenced row does not exist")
)

// UserStore persists registered users.
type UserStore interface {
	// CreateUser inserts a user and sets user.ID. Returns ErrConflict when the
	// email is already registered.
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByEmail returns ErrNotFound when no user has that email.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// GetUserByID returns ErrNotFound when the user does not exist.
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
}

// SessionStore persists expense sessions.
type SessionStore interface {
	// CreateSession inserts a session and sets session.ID. Returns ErrConflict
	// when session.Code is already taken.
	CreateSession(ctx context.Context, session *models.Session) error

	// CreateSessionWithCreator inserts session and its first participant in
	// one transaction, setting both IDs and creator.SessionID. Nothing is
	// written when either insert fails.
	CreateSessionWithCreator(ctx context.Context, session *models.Session, creator *models.Participant) error

	// GetSessionByCode is an exact, case-sensitive lookup.
	GetSessionByCode(ctx context.Context, code string) (*models.Session, error)

	GetSessionByID(ctx context.Context, id int64) (*models.Session, error)

	// UpdateSession applies the non-nil fields of upd. It reports whether a row
	// was affected; an empty update performs no write and returns false.
	UpdateSession(ctx context.Context, id int64, upd models.SessionUpdate) (bool, error)
}

// ParticipantStore persists session participants. Reads resolve DisplayName.
type ParticipantStore interface {
	// CreateParticipant inserts a participant and sets its ID and JoinedAt.
	// Returns ErrConflict when the same identity already joined the session.
	CreateParticipant(ctx context.Context, p *models.Participant) error

	// FindParticipantByUser returns the participant for userID in the session.
	FindParticipantByUser(ctx context.Context, sessionID, userID int64) (*models.Participant, error)

	// FindParticipantByGuest returns the guest participant with that name.
	FindParticipantByGuest(ctx context.Context, sessionID int64, guestName string) (*models.Participant, error)

	GetParticipant(ctx context.Context, id int64) (*models.Participant, error)

	// ListParticipantsBySession orders by join time.
	ListParticipantsBySession(ctx context.Context, sessionID int64) ([]*models.Participant, error)
}

// ItemStore persists expense items and aggregates them.
type ItemStore interface {
	// CreateItem inserts an item and sets its ID and RecordedAt.
	CreateItem(ctx context.Context, item *models.Item) error

	ListItemsByParticipant(ctx context.Context, participantID int64) ([]*models.Item, error)

	// ListItemsBySession groups a participant's items contiguously, ordered by
	// participant ID then recording time.
	ListItemsBySession(ctx context.Context, sessionID int64) ([]*models.SessionItem, error)

	// SumItemsByParticipant returns zero when the participant has no items.
	SumItemsByParticipant(ctx context.Context, participantID int64) (decimal.Decimal, error)

	// SumItemsBySession returns zero when the session has no items.
	SumItemsBySession(ctx context.Context, sessionID int64) (decimal.Decimal, error)
}

// Store defines the full set of persistence operations.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL)
// without changing the service layer.
type Store interface {
	UserStore
	SessionStore
	ParticipantStore
	ItemStore

	// Close releases any resources held by the store.
	Close() error
}
