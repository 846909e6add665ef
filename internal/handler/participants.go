package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mmynk/cobill/internal/models"
	"github.com/mmynk/cobill/internal/service"
)

type joinRequest struct {
	Code      string  `json:"code" validate:"required"`
	UserID    *int64  `json:"user_id" validate:"omitempty,gt=0"`
	GuestName *string `json:"guest_name"`
}

type joinResponse struct {
	Participant *models.Participant `json:"participant"`
	Session     *models.Session     `json:"session"`
}

// JoinSession handles POST /api/participants/join. It answers 201 for a new
// participant and 200 when the identity had already joined.
func (h *Handler) JoinSession(c echo.Context) error {
	var req joinRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	participant, session, created, err := h.participants.Join(c.Request().Context(), service.JoinParams{
		Code:      req.Code,
		UserID:    req.UserID,
		GuestName: req.GuestName,
	})
	if err != nil {
		return err
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	return c.JSON(status, joinResponse{Participant: participant, Session: session})
}

// ListParticipants handles GET /api/participants/session/:session_id.
func (h *Handler) ListParticipants(c echo.Context) error {
	sessionID, err := pathID(c, "session_id")
	if err != nil {
		return err
	}

	participants, err := h.participants.ListBySession(c.Request().Context(), sessionID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, orEmpty(participants))
}
