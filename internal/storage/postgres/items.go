package postgres

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mmynk/cobill/internal/models"
)

// CreateItem persists a new item and sets its ID and RecordedAt.
func (s *Store) CreateItem(ctx context.Context, item *models.Item) error {
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO items (participant_id, description, amount) VALUES ($1, $2, $3)
		 RETURNING id, recorded_at`,
		item.ParticipantID, item.Description, item.Amount,
	).Scan(&item.ID, &item.RecordedAt)
	if err != nil {
		return fmt.Errorf("failed to insert item: %w", mapError(err))
	}
	item.RecordedAt = item.RecordedAt.UTC()
	return nil
}

// ListItemsByParticipant retrieves a participant's items in recording order.
func (s *Store) ListItemsByParticipant(ctx context.Context, participantID int64) ([]*models.Item, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, participant_id, description, amount, recorded_at
		 FROM items WHERE participant_id = $1 ORDER BY recorded_at, id`,
		participantID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list items by participant: %w", err)
	}
	defer rows.Close()

	items := []*models.Item{}
	for rows.Next() {
		item := &models.Item{}
		if err := rows.Scan(&item.ID, &item.ParticipantID, &item.Description, &item.Amount, &item.RecordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		item.RecordedAt = item.RecordedAt.UTC()
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate items: %w", err)
	}
	return items, nil
}

// ListItemsBySession retrieves every item recorded in a session.
func (s *Store) ListItemsBySession(ctx context.Context, sessionID int64) ([]*models.SessionItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT i.id, i.participant_id, i.description, i.amount, i.recorded_at,
		       COALESCE(u.display_name, p.guest_name, ''), s.code, s.tip_percent
		FROM items i
		JOIN participants p ON p.id = i.participant_id
		JOIN sessions s ON s.id = p.session_id
		LEFT JOIN users u ON u.id = p.user_id
		WHERE p.session_id = $1
		ORDER BY p.id, i.recorded_at, i.id`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list items by session: %w", err)
	}
	defer rows.Close()

	items := []*models.SessionItem{}
	for rows.Next() {
		item := &models.SessionItem{}
		if err := rows.Scan(
			&item.ID, &item.ParticipantID, &item.Description, &item.Amount, &item.RecordedAt,
			&item.ParticipantName, &item.SessionCode, &item.TipPercent,
		); err != nil {
			return nil, fmt.Errorf("failed to scan session item: %w", err)
		}
		item.RecordedAt = item.RecordedAt.UTC()
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate session items: %w", err)
	}
	return items, nil
}

// SumItemsByParticipant totals a participant's items.
func (s *Store) SumItemsByParticipant(ctx context.Context, participantID int64) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM items WHERE participant_id = $1`,
		participantID,
	).Scan(&sum)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum participant items: %w", err)
	}
	return sum, nil
}

// SumItemsBySession totals every item in a session.
func (s *Store) SumItemsBySession(ctx context.Context, sessionID int64) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(i.amount), 0)
		FROM items i
		JOIN participants p ON p.id = i.participant_id
		WHERE p.session_id = $1`,
		sessionID,
	).Scan(&sum)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum session items: %w", err)
	}
	return sum, nil
}
