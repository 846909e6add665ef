package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/mmynk/cobill/internal/models"
)

const sessionColumns = `id, code, display_name, creator_user_id, tip_percent, status, created_at`

// CreateSession persists a new session and sets its ID and CreatedAt.
func (s *Store) CreateSession(ctx context.Context, session *models.Session) error {
	return insertSession(ctx, s.db, session)
}

// CreateSessionWithCreator persists a session and its creator atomically.
func (s *Store) CreateSessionWithCreator(ctx context.Context, session *models.Session, creator *models.Participant) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := insertSession(ctx, tx, session); err != nil {
		return err
	}
	creator.SessionID = session.ID
	id, err := insertParticipant(ctx, tx, creator)
	if err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit session: %w", mapError(err))
	}

	stored, err := s.GetParticipant(ctx, id)
	if err != nil {
		return err
	}
	*creator = *stored
	return nil
}

func insertSession(ctx context.Context, q execer, session *models.Session) error {
	if session.Status == "" {
		session.Status = models.StatusOpen
	}

	err := q.QueryRowContext(ctx,
		`INSERT INTO sessions (code, display_name, creator_user_id, tip_percent, status)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`,
		session.Code, session.DisplayName, session.CreatorUserID, session.TipPercent, session.Status,
	).Scan(&session.ID, &session.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", mapError(err))
	}
	session.CreatedAt = session.CreatedAt.UTC()
	return nil
}

// GetSessionByCode retrieves a session by its public code.
func (s *Store) GetSessionByCode(ctx context.Context, code string) (*models.Session, error) {
	session, err := scanSession(s.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE code = $1`, code,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to get session by code: %w", mapError(err))
	}
	return session, nil
}

// GetSessionByID retrieves a session by ID.
func (s *Store) GetSessionByID(ctx context.Context, id int64) (*models.Session, error) {
	session, err := scanSession(s.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE id = $1`, id,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", mapError(err))
	}
	return session, nil
}

// UpdateSession applies the set fields of upd to the session.
func (s *Store) UpdateSession(ctx context.Context, id int64, upd models.SessionUpdate) (bool, error) {
	if upd.Empty() {
		return false, nil
	}

	var (
		sets []string
		args []any
	)
	if upd.Status != nil {
		args = append(args, *upd.Status)
		sets = append(sets, fmt.Sprintf("status = $%d", len(args)))
	}
	if upd.TipPercent != nil {
		args = append(args, *upd.TipPercent)
		sets = append(sets, fmt.Sprintf("tip_percent = $%d", len(args)))
	}
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE sessions SET %s WHERE id = $%d`, strings.Join(sets, ", "), len(args))
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to update session: %w", mapError(err))
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n > 0, nil
}

func scanSession(row rowScanner) (*models.Session, error) {
	session := &models.Session{}
	var (
		displayName sql.NullString
		creatorID   sql.NullInt64
	)
	if err := row.Scan(
		&session.ID, &session.Code, &displayName, &creatorID,
		&session.TipPercent, &session.Status, &session.CreatedAt,
	); err != nil {
		return nil, err
	}

	if displayName.Valid {
		session.DisplayName = lo.ToPtr(displayName.String)
	}
	if creatorID.Valid {
		session.CreatorUserID = lo.ToPtr(creatorID.Int64)
	}
	session.CreatedAt = session.CreatedAt.UTC()
	return session, nil
}
