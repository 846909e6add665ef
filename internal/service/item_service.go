package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mmynk/cobill/internal/apperr"
	"github.com/mmynk/cobill/internal/metrics"
	"github.com/mmynk/cobill/internal/models"
	"github.com/mmynk/cobill/internal/realtime"
	"github.com/mmynk/cobill/internal/storage"
)

// AddItemParams describes one expense line.
type AddItemParams struct {
	ParticipantID int64
	Description   string
	Amount        decimal.Decimal
}

// ItemService records expense items and announces the resulting totals.
type ItemService struct {
	store       storage.Store
	broadcaster realtime.Broadcaster
	totals      *TotalsService
}

// NewItemService creates an ItemService.
func NewItemService(store storage.Store, broadcaster realtime.Broadcaster, totals *TotalsService) *ItemService {
	return &ItemService{store: store, broadcaster: broadcaster, totals: totals}
}

// AddItem records an item for a participant, then publishes item_added and
// a fresh totals_updated snapshot for the participant's session. A failure to
// compute totals after the item is stored is logged, not returned.
func (s *ItemService) AddItem(ctx context.Context, params AddItemParams) (*models.Item, error) {
	description := strings.TrimSpace(params.Description)
	if description == "" {
		return nil, apperr.Validation("description is required")
	}
	if err := checkMoney("amount", params.Amount); err != nil {
		return nil, err
	}
	if params.ParticipantID <= 0 {
		return nil, apperr.Validation("participant_id must be a positive integer")
	}

	participant, err := s.store.GetParticipant(ctx, params.ParticipantID)
	if err != nil {
		return nil, notFoundOr(err, "get participant", "participant %d not found", params.ParticipantID)
	}

	item := &models.Item{
		ParticipantID: participant.ID,
		Description:   description,
		Amount:        params.Amount,
	}
	if err := s.store.CreateItem(ctx, item); err != nil {
		return nil, notFoundOr(err, "create item", "participant %d not found", params.ParticipantID)
	}
	metrics.ItemsAdded.Inc()
	slog.Info("Item added",
		"item_id", item.ID,
		"participant_id", participant.ID,
		"session_id", participant.SessionID,
		"amount", item.Amount.String(),
	)

	room := realtime.SessionRoom(participant.SessionID)
	s.broadcaster.Publish(ctx, room, realtime.EventItemAdded, ItemAddedEvent{
		Item:          item,
		ParticipantID: participant.ID,
		SessionID:     participant.SessionID,
	})

	totals, err := s.totals.ForSession(ctx, participant.SessionID)
	if err != nil {
		slog.Error("failed to compute totals after item insert",
			"session_id", participant.SessionID,
			"item_id", item.ID,
			"error", err,
		)
		return item, nil
	}
	s.broadcaster.Publish(ctx, room, realtime.EventTotalsUpdated, TotalsUpdatedEvent{
		SessionID:     participant.SessionID,
		SessionTotals: totals,
	})

	return item, nil
}

// ListByParticipant returns a participant's items in recording order.
func (s *ItemService) ListByParticipant(ctx context.Context, participantID int64) ([]*models.Item, error) {
	items, err := s.store.ListItemsByParticipant(ctx, participantID)
	if err != nil {
		return nil, apperr.Storage("list participant items", err)
	}
	return items, nil
}

// ListBySession returns all items of a session grouped by participant.
func (s *ItemService) ListBySession(ctx context.Context, sessionID int64) ([]*models.SessionItem, error) {
	items, err := s.store.ListItemsBySession(ctx, sessionID)
	if err != nil {
		return nil, apperr.Storage("list session items", err)
	}
	return items, nil
}
