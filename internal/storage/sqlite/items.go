package sqlite

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mmynk/cobill/internal/calculator"
	"github.com/mmynk/cobill/internal/models"
)

// CreateItem persists a new item and sets its ID and RecordedAt.
func (s *SQLiteStore) CreateItem(ctx context.Context, item *models.Item) error {
	if item.RecordedAt.IsZero() {
		item.RecordedAt = fromMillis(nowMillis())
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO items (participant_id, description, amount, recorded_at) VALUES (?, ?, ?, ?)`,
		item.ParticipantID, item.Description, item.Amount, toMillis(item.RecordedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert item: %w", mapError(err))
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read item id: %w", err)
	}
	item.ID = id

	return nil
}

// ListItemsByParticipant retrieves a participant's items in recording order.
func (s *SQLiteStore) ListItemsByParticipant(ctx context.Context, participantID int64) ([]*models.Item, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, participant_id, description, amount, recorded_at
		 FROM items WHERE participant_id = ? ORDER BY recorded_at, id`,
		participantID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list items by participant: %w", err)
	}
	defer rows.Close()

	items := []*models.Item{}
	for rows.Next() {
		item := &models.Item{}
		var recordedAt int64
		if err := rows.Scan(&item.ID, &item.ParticipantID, &item.Description, &item.Amount, &recordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		item.RecordedAt = fromMillis(recordedAt)
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate items: %w", err)
	}

	return items, nil
}

// ListItemsBySession retrieves every item recorded in a session, decorated
// with participant and session details.
func (s *SQLiteStore) ListItemsBySession(ctx context.Context, sessionID int64) ([]*models.SessionItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT i.id, i.participant_id, i.description, i.amount, i.recorded_at,
		       COALESCE(u.display_name, p.guest_name, ''), s.code, s.tip_percent
		FROM items i
		JOIN participants p ON p.id = i.participant_id
		JOIN sessions s ON s.id = p.session_id
		LEFT JOIN users u ON u.id = p.user_id
		WHERE p.session_id = ?
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
		var recordedAt int64
		if err := rows.Scan(
			&item.ID, &item.ParticipantID, &item.Description, &item.Amount, &recordedAt,
			&item.ParticipantName, &item.SessionCode, &item.TipPercent,
		); err != nil {
			return nil, fmt.Errorf("failed to scan session item: %w", err)
		}
		item.RecordedAt = fromMillis(recordedAt)
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate session items: %w", err)
	}

	return items, nil
}

// SumItemsByParticipant totals a participant's items.
// Amounts are stored as text, so the sum is taken in Go to stay exact.
func (s *SQLiteStore) SumItemsByParticipant(ctx context.Context, participantID int64) (decimal.Decimal, error) {
	return s.sumAmounts(ctx, `SELECT amount FROM items WHERE participant_id = ?`, participantID)
}

// SumItemsBySession totals every item in a session.
func (s *SQLiteStore) SumItemsBySession(ctx context.Context, sessionID int64) (decimal.Decimal, error) {
	return s.sumAmounts(ctx, `
		SELECT i.amount FROM items i
		JOIN participants p ON p.id = i.participant_id
		WHERE p.session_id = ?`,
		sessionID,
	)
}

func (s *SQLiteStore) sumAmounts(ctx context.Context, query string, arg int64) (decimal.Decimal, error) {
	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum items: %w", err)
	}
	defer rows.Close()

	var amounts []decimal.Decimal
	for rows.Next() {
		var amount decimal.Decimal
		if err := rows.Scan(&amount); err != nil {
			return decimal.Zero, fmt.Errorf("failed to scan amount: %w", err)
		}
		amounts = append(amounts, amount)
	}
	if err := rows.Err(); err != nil {
		return decimal.Zero, fmt.Errorf("failed to iterate amounts: %w", err)
	}

	return calculator.Sum(amounts), nil
}
