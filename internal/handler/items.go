package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/mmynk/cobill/internal/models"
	"github.com/mmynk/cobill/internal/service"
)

type addItemRequest struct {
	ParticipantID int64            `json:"participant_id" validate:"required"`
	Description   string           `json:"description" validate:"required"`
	Amount        *decimal.Decimal `json:"amount" validate:"required"`
}

type participantTotalResponse struct {
	TotalConsumed decimal.Decimal `json:"total_consumed"`
}

// AddItem handles POST /api/items.
func (h *Handler) AddItem(c echo.Context) error {
	var req addItemRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	item, err := h.items.AddItem(c.Request().Context(), service.AddItemParams{
		ParticipantID: req.ParticipantID,
		Description:   req.Description,
		Amount:        *req.Amount,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, map[string]*models.Item{"item": item})
}

// ListParticipantItems handles GET /api/items/participant/:id.
func (h *Handler) ListParticipantItems(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	items, err := h.items.ListByParticipant(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, orEmpty(items))
}

// ListSessionItems handles GET /api/items/session/:id.
func (h *Handler) ListSessionItems(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	items, err := h.items.ListBySession(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, orEmpty(items))
}

// ParticipantTotal handles GET /api/items/participant/:id/total.
func (h *Handler) ParticipantTotal(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	total, err := h.totals.ForParticipant(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, participantTotalResponse{TotalConsumed: total})
}

// SessionTotal handles GET /api/items/session/:id/total.
func (h *Handler) SessionTotal(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	totals, err := h.totals.ForSession(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, totals)
}
