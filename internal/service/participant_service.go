package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/samber/lo"

	"github.com/mmynk/cobill/internal/apperr"
	"github.com/mmynk/cobill/internal/metrics"
	"github.com/mmynk/cobill/internal/models"
	"github.com/mmynk/cobill/internal/realtime"
	"github.com/mmynk/cobill/internal/storage"
)

// JoinParams identifies who joins which session. UserID takes precedence
// over GuestName when both are set.
type JoinParams struct {
	Code      string
	UserID    *int64
	GuestName *string
}

// ParticipantService admits registered users and guests into sessions.
type ParticipantService struct {
	store       storage.Store
	broadcaster realtime.Broadcaster
}

// NewParticipantService creates a ParticipantService.
func NewParticipantService(store storage.Store, broadcaster realtime.Broadcaster) *ParticipantService {
	return &ParticipantService{store: store, broadcaster: broadcaster}
}

// Join adds the identity in params to the session with params.Code. Joining
// twice is idempotent: the existing participant is returned with
// created=false. participant_joined is published in both cases.
func (s *ParticipantService) Join(ctx context.Context, params JoinParams) (*models.Participant, *models.Session, bool, error) {
	code := strings.TrimSpace(params.Code)
	if code == "" {
		return nil, nil, false, apperr.Validation("code is required")
	}
	guestName := strings.TrimSpace(lo.FromPtr(params.GuestName))
	if params.UserID == nil && guestName == "" {
		return nil, nil, false, apperr.Validation("either user_id or guest_name is required")
	}

	session, err := s.store.GetSessionByCode(ctx, code)
	if err != nil {
		return nil, nil, false, notFoundOr(err, "get session by code", "session with code %q not found", code)
	}

	candidate := &models.Participant{SessionID: session.ID}
	if params.UserID != nil {
		if _, err := s.store.GetUserByID(ctx, *params.UserID); err != nil {
			return nil, nil, false, notFoundOr(err, "get user", "user %d not found", *params.UserID)
		}
		candidate.UserID = params.UserID
	} else {
		candidate.GuestName = &guestName
	}

	participant, err := s.find(ctx, candidate)
	created := false
	switch {
	case err == nil:
	case errors.Is(err, storage.ErrNotFound):
		participant, created, err = s.insert(ctx, candidate)
		if err != nil {
			return nil, nil, false, err
		}
	default:
		return nil, nil, false, apperr.Storage("find participant", err)
	}

	metrics.ParticipantsJoined.WithLabelValues(lo.Ternary(created, "created", "existing")).Inc()
	slog.Info("Participant joined",
		"session_id", session.ID,
		"participant_id", participant.ID,
		"created", created,
	)

	s.broadcaster.Publish(ctx, realtime.SessionRoom(session.ID), realtime.EventParticipantJoined, ParticipantJoinedEvent{
		Participant: participant,
		SessionID:   session.ID,
	})
	return participant, session, created, nil
}

func (s *ParticipantService) find(ctx context.Context, p *models.Participant) (*models.Participant, error) {
	if p.UserID != nil {
		return s.store.FindParticipantByUser(ctx, p.SessionID, *p.UserID)
	}
	return s.store.FindParticipantByGuest(ctx, p.SessionID, *p.GuestName)
}

// insert creates p. A uniqueness conflict means a concurrent identical join
// won; the row it wrote is returned instead.
func (s *ParticipantService) insert(ctx context.Context, p *models.Participant) (*models.Participant, bool, error) {
	err := s.store.CreateParticipant(ctx, p)
	switch {
	case err == nil:
		return p, true, nil
	case errors.Is(err, storage.ErrConflict):
		existing, findErr := s.find(ctx, p)
		if findErr != nil {
			return nil, false, apperr.Storage("re-read participant after conflict", findErr)
		}
		return existing, false, nil
	case errors.Is(err, storage.ErrReference):
		return nil, false, apperr.NotFound("session %d not found", p.SessionID)
	default:
		return nil, false, apperr.Storage("create participant", err)
	}
}

// ListBySession returns the session's participants in join order. An unknown
// session has no participants.
func (s *ParticipantService) ListBySession(ctx context.Context, sessionID int64) ([]*models.Participant, error) {
	participants, err := s.store.ListParticipantsBySession(ctx, sessionID)
	if err != nil {
		return nil, apperr.Storage("list participants", err)
	}
	return participants, nil
}

// GetByID returns a participant with its display name resolved.
func (s *ParticipantService) GetByID(ctx context.Context, id int64) (*models.Participant, error) {
	p, err := s.store.GetParticipant(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "get participant", "participant %d not found", id)
	}
	return p, nil
}
