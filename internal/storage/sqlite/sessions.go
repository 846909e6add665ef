package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/mmynk/cobill/internal/models"
)

const sessionColumns = `id, code, display_name, creator_user_id, tip_percent, status, created_at`

// CreateSession persists a new session and sets its ID.
func (s *SQLiteStore) CreateSession(ctx context.Context, session *models.Session) error {
	return insertSession(ctx, s.db, session)
}

// CreateSessionWithCreator persists a session and its creator atomically.
func (s *SQLiteStore) CreateSessionWithCreator(ctx context.Context, session *models.Session, creator *models.Participant) error {
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
	if session.CreatedAt.IsZero() {
		session.CreatedAt = fromMillis(nowMillis())
	}
	if session.Status == "" {
		session.Status = models.StatusOpen
	}

	res, err := q.ExecContext(ctx,
		`INSERT INTO sessions (code, display_name, creator_user_id, tip_percent, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		session.Code, session.DisplayName, session.CreatorUserID,
		session.TipPercent, session.Status, toMillis(session.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", mapError(err))
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read session id: %w", err)
	}
	session.ID = id

	return nil
}

// GetSessionByCode retrieves a session by its public code.
func (s *SQLiteStore) GetSessionByCode(ctx context.Context, code string) (*models.Session, error) {
	session, err := scanSession(s.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE code = ?`, code,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to get session by code: %w", mapError(err))
	}
	return session, nil
}

// GetSessionByID retrieves a session by ID.
func (s *SQLiteStore) GetSessionByID(ctx context.Context, id int64) (*models.Session, error) {
	session, err := scanSession(s.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", mapError(err))
	}
	return session, nil
}

// UpdateSession applies the set fields of upd to the session.
func (s *SQLiteStore) UpdateSession(ctx context.Context, id int64, upd models.SessionUpdate) (bool, error) {
	if upd.Empty() {
		return false, nil
	}

	var (
		sets []string
		args []any
	)
	if upd.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, *upd.Status)
	}
	if upd.TipPercent != nil {
		sets = append(sets, "tip_percent = ?")
		args = append(args, *upd.TipPercent)
	}
	args = append(args, id)

	res, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...,
	)
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
		createdAt   int64
	)
	if err := row.Scan(
		&session.ID, &session.Code, &displayName, &creatorID,
		&session.TipPercent, &session.Status, &createdAt,
	); err != nil {
		return nil, err
	}

	if displayName.Valid {
		session.DisplayName = lo.ToPtr(displayName.String)
	}
	if creatorID.Valid {
		session.CreatorUserID = lo.ToPtr(creatorID.Int64)
	}
	session.CreatedAt = fromMillis(createdAt)
	return session, nil
}
