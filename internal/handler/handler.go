// Package handler exposes the services over a JSON REST API built on echo.
package handler

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mmynk/cobill/internal/apperr"
	"github.com/mmynk/cobill/internal/auth"
	"github.com/mmynk/cobill/internal/middleware"
	"github.com/mmynk/cobill/internal/service"
)

// Handler serves the /api routes.
type Handler struct {
	sessions     *service.SessionService
	participants *service.ParticipantService
	items        *service.ItemService
	totals       *service.TotalsService
	auth         *service.AuthService
}

// New creates a Handler over the given services.
func New(
	sessions *service.SessionService,
	participants *service.ParticipantService,
	items *service.ItemService,
	totals *service.TotalsService,
	authService *service.AuthService,
) *Handler {
	return &Handler{
		sessions:     sessions,
		participants: participants,
		items:        items,
		totals:       totals,
		auth:         authService,
	}
}

// maxBodySize caps every request body.
const maxBodySize = "64K"

// RouterConfig holds the transport settings of NewRouter.
type RouterConfig struct {
	// CORSOrigins lists allowed browser origins; empty allows any.
	CORSOrigins []string

	// StaticPath, when set, is served at the root for the web client.
	StaticPath string

	// WebSocket, when set, is mounted at /ws.
	WebSocket http.Handler
}

// NewRouter builds the echo instance with middleware and every route.
func NewRouter(h *Handler, jwtManager *auth.JWTManager, cfg RouterConfig) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = HTTPErrorHandler
	e.Validator = NewValidator()

	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(middleware.RequestLogger())
	e.Use(echomw.Recover())
	e.Use(echomw.BodyLimit(maxBodySize))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:  origins,
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowHeaders:  []string{echo.HeaderAuthorization, echo.HeaderContentType, echo.HeaderXRequestID},
		ExposeHeaders: []string{echo.HeaderXRequestID},
	}))

	e.GET("/healthz", h.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	if cfg.WebSocket != nil {
		e.GET("/ws", echo.WrapHandler(cfg.WebSocket))
	}

	requireAuth := middleware.RequireAuth(jwtManager)
	api := e.Group("/api")

	authRoutes := api.Group("/auth")
	authRoutes.POST("/register", h.Register)
	authRoutes.POST("/login", h.Login)
	authRoutes.GET("/verify-token", h.VerifyToken, requireAuth)

	sessions := api.Group("/sessions", requireAuth)
	sessions.POST("", h.CreateSession)
	sessions.GET("/:code", h.GetSession)
	sessions.PUT("/:id", h.UpdateSession)

	participants := api.Group("/participants", requireAuth)
	participants.POST("/join", h.JoinSession)
	participants.GET("/session/:session_id", h.ListParticipants)

	items := api.Group("/items", requireAuth)
	items.POST("", h.AddItem)
	items.GET("/participant/:id", h.ListParticipantItems)
	items.GET("/participant/:id/total", h.ParticipantTotal)
	items.GET("/session/:id", h.ListSessionItems)
	items.GET("/session/:id/total", h.SessionTotal)

	if cfg.StaticPath != "" {
		e.Static("/", cfg.StaticPath)
	}

	return e
}

// Health reports liveness.
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

type messageResponse struct {
	Message string `json:"message"`
}

// bind decodes and validates a request body.
func bind(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return err
	}
	return c.Validate(req)
}

// pathID parses a positive integer path parameter.
func pathID(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Validation("%s must be a positive integer", name)
	}
	return id, nil
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
