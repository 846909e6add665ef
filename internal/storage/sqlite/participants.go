package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/samber/lo"

	"github.com/mmynk/cobill/internal/models"
)

const participantSelect = `
	SELECT p.id, p.session_id, p.user_id, p.guest_name, p.joined_at,
	       COALESCE(u.display_name, p.guest_name, '')
	FROM participants p
	LEFT JOIN users u ON u.id = p.user_id
`

// CreateParticipant inserts a participant and sets its ID, JoinedAt and
// DisplayName.
func (s *SQLiteStore) CreateParticipant(ctx context.Context, p *models.Participant) error {
	id, err := insertParticipant(ctx, s.db, p)
	if err != nil {
		return err
	}

	stored, err := s.GetParticipant(ctx, id)
	if err != nil {
		return err
	}
	*p = *stored
	return nil
}

func insertParticipant(ctx context.Context, q execer, p *models.Participant) (int64, error) {
	if p.JoinedAt.IsZero() {
		p.JoinedAt = fromMillis(nowMillis())
	}

	res, err := q.ExecContext(ctx,
		`INSERT INTO participants (session_id, user_id, guest_name, joined_at) VALUES (?, ?, ?, ?)`,
		p.SessionID, p.UserID, p.GuestName, toMillis(p.JoinedAt),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert participant: %w", mapError(err))
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read participant id: %w", err)
	}
	return id, nil
}

// FindParticipantByUser retrieves the participant a user holds in a session.
func (s *SQLiteStore) FindParticipantByUser(ctx context.Context, sessionID, userID int64) (*models.Participant, error) {
	p, err := scanParticipant(s.db.QueryRowContext(ctx,
		participantSelect+` WHERE p.session_id = ? AND p.user_id = ?`,
		sessionID, userID,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to find participant by user: %w", mapError(err))
	}
	return p, nil
}

// FindParticipantByGuest retrieves a guest participant by name.
func (s *SQLiteStore) FindParticipantByGuest(ctx context.Context, sessionID int64, guestName string) (*models.Participant, error) {
	p, err := scanParticipant(s.db.QueryRowContext(ctx,
		participantSelect+` WHERE p.session_id = ? AND p.user_id IS NULL AND p.guest_name = ?`,
		sessionID, guestName,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to find participant by guest name: %w", mapError(err))
	}
	return p, nil
}

// GetParticipant retrieves a participant by ID.
func (s *SQLiteStore) GetParticipant(ctx context.Context, id int64) (*models.Participant, error) {
	p, err := scanParticipant(s.db.QueryRowContext(ctx, participantSelect+` WHERE p.id = ?`, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get participant: %w", mapError(err))
	}
	return p, nil
}

// ListParticipantsBySession retrieves all participants of a session in join order.
func (s *SQLiteStore) ListParticipantsBySession(ctx context.Context, sessionID int64) ([]*models.Participant, error) {
	rows, err := s.db.QueryContext(ctx,
		participantSelect+` WHERE p.session_id = ? ORDER BY p.joined_at, p.id`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	defer rows.Close()

	participants := []*models.Participant{}
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		participants = append(participants, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate participants: %w", err)
	}

	return participants, nil
}

func scanParticipant(row rowScanner) (*models.Participant, error) {
	p := &models.Participant{}
	var (
		userID    sql.NullInt64
		guestName sql.NullString
		joinedAt  int64
	)
	if err := row.Scan(&p.ID, &p.SessionID, &userID, &guestName, &joinedAt, &p.DisplayName); err != nil {
		return nil, err
	}

	if userID.Valid {
		p.UserID = lo.ToPtr(userID.Int64)
	}
	if guestName.Valid {
		p.GuestName = lo.ToPtr(guestName.String)
	}
	p.JoinedAt = fromMillis(joinedAt)
	return p, nil
}
