package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/mmynk/cobill/internal/apperr"
	"github.com/mmynk/cobill/internal/middleware"
	"github.com/mmynk/cobill/internal/models"
	"github.com/mmynk/cobill/internal/service"
)

type createSessionRequest struct {
	DisplayName   *string          `json:"display_name"`
	CreatorUserID *int64           `json:"creator_user_id" validate:"omitempty,gt=0"`
	TipPercent    *decimal.Decimal `json:"tip_percent"`
}

type createSessionResponse struct {
	Session     *models.Session     `json:"session"`
	Participant *models.Participant `json:"participant"`
}

type updateSessionRequest struct {
	Status     *string          `json:"status"`
	TipPercent *decimal.Decimal `json:"tip_percent"`
}

// CreateSession handles POST /api/sessions. The creator is admitted as the
// first participant.
func (h *Handler) CreateSession(c echo.Context) error {
	var req createSessionRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	session, participant, err := h.sessions.Start(c.Request().Context(), service.CreateSessionParams{
		DisplayName:   req.DisplayName,
		CreatorUserID: req.CreatorUserID,
		TipPercent:    req.TipPercent,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, createSessionResponse{Session: session, Participant: participant})
}

// GetSession handles GET /api/sessions/:code.
func (h *Handler) GetSession(c echo.Context) error {
	session, err := h.sessions.GetByCode(c.Request().Context(), c.Param("code"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, session)
}

// UpdateSession handles PUT /api/sessions/:id.
func (h *Handler) UpdateSession(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req updateSessionRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	upd := models.SessionUpdate{Status: req.Status, TipPercent: req.TipPercent}
	if upd.Empty() {
		return apperr.Validation("at least one of status or tip_percent is required")
	}

	ctx := c.Request().Context()
	session, err := h.sessions.GetByID(ctx, id)
	if err != nil {
		return err
	}
	userID, _ := middleware.UserID(c)
	if err := h.sessions.Authorize(ctx, session, userID); err != nil {
		return err
	}

	updated, err := h.sessions.Update(ctx, id, upd)
	if err != nil {
		return err
	}
	if !updated {
		return apperr.NotFound("session %d not found", id)
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "session updated"})
}
