package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/mmynk/cobill/internal/apperr"
	"github.com/mmynk/cobill/internal/codegen"
	"github.com/mmynk/cobill/internal/metrics"
	"github.com/mmynk/cobill/internal/models"
	"github.com/mmynk/cobill/internal/realtime"
	"github.com/mmynk/cobill/internal/storage"
)

// maxCodeAttempts bounds how many codes Create draws before giving up.
const maxCodeAttempts = 10

// CreatorGuestName is the guest name given to the first participant of a
// session opened without a creator account.
const CreatorGuestName = "Session Creator"

var errCodeSpaceExhausted = errors.New("no free session code found")

// CreateSessionParams holds the optional inputs of a new session.
type CreateSessionParams struct {
	DisplayName   *string
	CreatorUserID *int64
	TipPercent    *decimal.Decimal
}

// SessionService manages the lifecycle of expense sessions.
type SessionService struct {
	store       storage.Store
	broadcaster realtime.Broadcaster
	totals      *TotalsService

	codes      *codegen.Generator
	codeLength int
	defaultTip decimal.Decimal
}

// SessionOption customizes a SessionService.
type SessionOption func(*SessionService)

// WithCodeGenerator replaces the random source used for session codes.
func WithCodeGenerator(g *codegen.Generator) SessionOption {
	return func(s *SessionService) { s.codes = g }
}

// WithCodeLength sets the session code length.
func WithCodeLength(n int) SessionOption {
	return func(s *SessionService) { s.codeLength = n }
}

// WithDefaultTip sets the tip applied when none is given.
func WithDefaultTip(tip decimal.Decimal) SessionOption {
	return func(s *SessionService) { s.defaultTip = tip }
}

// NewSessionService creates a SessionService.
func NewSessionService(store storage.Store, broadcaster realtime.Broadcaster, totals *TotalsService, opts ...SessionOption) *SessionService {
	s := &SessionService{
		store:       store,
		broadcaster: broadcaster,
		totals:      totals,
		codeLength:  codegen.DefaultLength,
		defaultTip:  models.DefaultTipPercent,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create persists a new session under a freshly generated unique code.
func (s *SessionService) Create(ctx context.Context, params CreateSessionParams) (*models.Session, error) {
	return s.create(ctx, params, s.store.CreateSession)
}

// create validates params and retries insert under new codes until one is
// free.
func (s *SessionService) create(ctx context.Context, params CreateSessionParams, insert func(context.Context, *models.Session) error) (*models.Session, error) {
	tip := s.defaultTip
	if params.TipPercent != nil {
		tip = *params.TipPercent
	}
	if err := checkMoney("tip_percent", tip); err != nil {
		return nil, err
	}

	if params.CreatorUserID != nil {
		if _, err := s.store.GetUserByID(ctx, *params.CreatorUserID); err != nil {
			return nil, notFoundOr(err, "get creator", "user %d not found", *params.CreatorUserID)
		}
	}

	var displayName *string
	if params.DisplayName != nil {
		displayName = lo.EmptyableToPtr(strings.TrimSpace(*params.DisplayName))
	}

	for attempt := 1; attempt <= maxCodeAttempts; attempt++ {
		code, err := s.codes.Generate(s.codeLength)
		if err != nil {
			return nil, apperr.Storage("generate session code", err)
		}

		_, err = s.store.GetSessionByCode(ctx, code)
		switch {
		case err == nil:
			metrics.CodeCollisions.Inc()
			slog.Debug("session code already taken", "code", code, "attempt", attempt)
			continue
		case !errors.Is(err, storage.ErrNotFound):
			return nil, apperr.Storage("check session code", err)
		}

		session := &models.Session{
			Code:          code,
			DisplayName:   displayName,
			CreatorUserID: params.CreatorUserID,
			TipPercent:    tip,
			Status:        models.StatusOpen,
		}
		err = insert(ctx, session)
		switch {
		case err == nil:
			metrics.SessionsCreated.Inc()
			slog.Info("Session created", "session_id", session.ID, "code", session.Code)
			return session, nil
		case errors.Is(err, storage.ErrConflict):
			// Another request took the code between the check and the insert.
			metrics.CodeCollisions.Inc()
			continue
		case errors.Is(err, storage.ErrReference):
			return nil, apperr.NotFound("user %d not found", lo.FromPtr(params.CreatorUserID))
		default:
			return nil, apperr.Storage("create session", err)
		}
	}

	slog.Error("session code space exhausted", "attempts", maxCodeAttempts, "length", s.codeLength)
	return nil, apperr.Storage("create session", fmt.Errorf("%w after %d attempts", errCodeSpaceExhausted, maxCodeAttempts))
}

// Start creates a session and admits its creator as the first participant:
// the creator's account when CreatorUserID is set, otherwise a guest named
// CreatorGuestName. Both rows are written together or not at all. It
// publishes session_created.
func (s *SessionService) Start(ctx context.Context, params CreateSessionParams) (*models.Session, *models.Participant, error) {
	participant := &models.Participant{}
	if params.CreatorUserID != nil {
		participant.UserID = params.CreatorUserID
	} else {
		participant.GuestName = lo.ToPtr(CreatorGuestName)
	}

	session, err := s.create(ctx, params, func(ctx context.Context, session *models.Session) error {
		return s.store.CreateSessionWithCreator(ctx, session, participant)
	})
	if err != nil {
		return nil, nil, err
	}

	s.broadcaster.Publish(ctx, realtime.SessionRoom(session.ID), realtime.EventSessionCreated, SessionCreatedEvent{
		Session:     session,
		Participant: participant,
	})
	return session, participant, nil
}

// GetByCode looks a session up by its exact public code.
func (s *SessionService) GetByCode(ctx context.Context, code string) (*models.Session, error) {
	if code == "" {
		return nil, apperr.Validation("code is required")
	}
	session, err := s.store.GetSessionByCode(ctx, code)
	if err != nil {
		return nil, notFoundOr(err, "get session by code", "session with code %q not found", code)
	}
	return session, nil
}

// GetByID looks a session up by ID.
func (s *SessionService) GetByID(ctx context.Context, id int64) (*models.Session, error) {
	session, err := s.store.GetSessionByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "get session", "session %d not found", id)
	}
	return session, nil
}

// Authorize reports whether userID may modify session. Sessions opened by a
// registered user are reserved to that user.
func (s *SessionService) Authorize(_ context.Context, session *models.Session, userID int64) error {
	if session.CreatorUserID != nil && *session.CreatorUserID != userID {
		return apperr.Forbidden("only the session creator may update session %d", session.ID)
	}
	return nil
}

// Update applies a partial update. It returns false without writing when upd
// is empty or no session has that id. On success it publishes session_updated,
// followed by totals_updated when the tip changed.
func (s *SessionService) Update(ctx context.Context, id int64, upd models.SessionUpdate) (bool, error) {
	if upd.Empty() {
		return false, nil
	}
	if upd.TipPercent != nil {
		if err := checkMoney("tip_percent", *upd.TipPercent); err != nil {
			return false, err
		}
	}
	if upd.Status != nil {
		status := strings.TrimSpace(*upd.Status)
		if status == "" {
			return false, apperr.Validation("status must not be empty")
		}
		upd.Status = &status
	}

	updated, err := s.store.UpdateSession(ctx, id, upd)
	if err != nil {
		return false, apperr.Storage("update session", err)
	}
	if !updated {
		return false, nil
	}

	session, err := s.store.GetSessionByID(ctx, id)
	if err != nil {
		return false, notFoundOr(err, "get session", "session %d not found", id)
	}
	slog.Info("Session updated", "session_id", id, "status", session.Status, "tip_percent", session.TipPercent.String())

	room := realtime.SessionRoom(id)
	s.broadcaster.Publish(ctx, room, realtime.EventSessionUpdated, SessionUpdatedEvent{
		ID:         session.ID,
		Status:     session.Status,
		TipPercent: session.TipPercent,
	})

	if upd.TipPercent != nil {
		totals, err := s.totals.ForSession(ctx, id)
		if err != nil {
			slog.Error("failed to recompute totals after tip change", "session_id", id, "error", err)
			return true, nil
		}
		s.broadcaster.Publish(ctx, room, realtime.EventTotalsUpdated, TotalsUpdatedEvent{SessionID: id, SessionTotals: totals})
	}

	return true, nil
}
