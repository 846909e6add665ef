package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mmynk/cobill/internal/apperr"
)

var kindStatus = map[apperr.Kind]int{
	apperr.KindValidation:   http.StatusBadRequest,
	apperr.KindUnauthorized: http.StatusUnauthorized,
	apperr.KindForbidden:    http.StatusForbidden,
	apperr.KindNotFound:     http.StatusNotFound,
	apperr.KindConflict:     http.StatusConflict,
	apperr.KindInternal:     http.StatusInternalServerError,
}

// HTTPErrorHandler writes err as {"message": ...} with the status of its
// kind. Internal errors are logged and answered with a generic message.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status, message := resolve(err)
	if status >= http.StatusInternalServerError {
		slog.Error("Request error",
			"method", c.Request().Method,
			"path", c.Request().URL.Path,
			"request_id", c.Response().Header().Get(echo.HeaderXRequestID),
			"error", err,
		)
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, messageResponse{Message: message})
	}
	if err != nil {
		slog.Error("failed to write error response", "error", err)
	}
}

func resolve(err error) (int, string) {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if msg, ok := he.Message.(string); ok {
			return he.Code, msg
		}
		return he.Code, http.StatusText(he.Code)
	}

	status, ok := kindStatus[apperr.KindOf(err)]
	if !ok {
		status = http.StatusInternalServerError
	}
	return status, apperr.PublicMessage(err)
}
