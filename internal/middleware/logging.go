package middleware

import (
	"log/slog"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mmynk/cobill/internal/metrics"
)

// RequestLogger logs every request once it completes and records it in the
// HTTP metrics. Handler errors are resolved through the echo error handler
// here, so the logged status is the one sent to the client.
func RequestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			if err := next(c); err != nil {
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()
			duration := time.Since(start)
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}

			metrics.HTTPRequests.WithLabelValues(req.Method, route, strconv.Itoa(res.Status)).Inc()
			metrics.HTTPDuration.WithLabelValues(req.Method, route).Observe(duration.Seconds())

			attrs := []any{
				"method", req.Method,
				"path", req.URL.Path,
				"status", res.Status,
				"request_id", res.Header().Get(echo.HeaderXRequestID),
				"duration_ms", duration.Milliseconds(),
			}
			if userID, ok := UserID(c); ok {
				attrs = append(attrs, "user_id", userID)
			}

			switch {
			case res.Status >= 500:
				slog.Error("Request failed", attrs...)
			case res.Status >= 400:
				slog.Warn("Request rejected", attrs...)
			default:
				slog.Info("Request completed", attrs...)
			}
			return nil
		}
	}
}
