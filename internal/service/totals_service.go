package service

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/mmynk/cobill/internal/calculator"
	"github.com/mmynk/cobill/internal/models"
	"github.com/mmynk/cobill/internal/storage"
)

// TotalsService derives monetary totals from the items in the store.
// Nothing is cached; every call re-reads.
type TotalsService struct {
	store storage.Store
}

// NewTotalsService creates a TotalsService over store.
func NewTotalsService(store storage.Store) *TotalsService {
	return &TotalsService{store: store}
}

// ForParticipant returns the sum of a participant's items, or zero when the
// participant has none.
func (s *TotalsService) ForParticipant(ctx context.Context, participantID int64) (decimal.Decimal, error) {
	sum, err := s.store.SumItemsByParticipant(ctx, participantID)
	if err != nil {
		return decimal.Zero, notFoundOr(err, "sum participant items", "participant %d not found", participantID)
	}
	return sum, nil
}

// ForSession returns the session's subtotal, tip percentage and payable total.
// A session without items totals to zero at its stored tip percentage.
func (s *TotalsService) ForSession(ctx context.Context, sessionID int64) (models.SessionTotals, error) {
	session, err := s.store.GetSessionByID(ctx, sessionID)
	if err != nil {
		return models.SessionTotals{}, notFoundOr(err, "get session", "session %d not found", sessionID)
	}

	subtotal, err := s.store.SumItemsBySession(ctx, sessionID)
	if err != nil {
		return models.SessionTotals{}, notFoundOr(err, "sum session items", "session %d not found", sessionID)
	}

	return calculator.SessionTotals(subtotal, session.TipPercent), nil
}
