package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mmynk/cobill/internal/apperr"
	"github.com/mmynk/cobill/internal/middleware"
)

type registerRequest struct {
	DisplayName string `json:"display_name" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Register handles POST /api/auth/register.
func (h *Handler) Register(c echo.Context) error {
	var req registerRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	res, err := h.auth.Register(c.Request().Context(), req.Email, req.DisplayName, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, res)
}

// Login handles POST /api/auth/login.
func (h *Handler) Login(c echo.Context) error {
	var req loginRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	res, err := h.auth.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

// VerifyToken handles GET /api/auth/verify-token.
func (h *Handler) VerifyToken(c echo.Context) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return apperr.Unauthorized("authorization token required")
	}

	user, err := h.auth.CurrentUser(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"user": user})
}
