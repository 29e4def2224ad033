package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/pailler/qrlink/internal/app/service"
	"github.com/pailler/qrlink/internal/http/middleware"
	"go.uber.org/zap"
)

// SessionDeps groups dependencies required by the session handlers.
type SessionDeps struct {
	Logger   *zap.Logger
	Sessions service.SessionService
	// DefaultHours is used when the request does not specify a
	// lifetime. Non-positive falls back to the service default.
	DefaultHours int
}

// SessionHandler issues and revokes the anonymous session tokens that
// identify callers who are not authenticated through a gateway.
type SessionHandler struct {
	logger       *zap.Logger
	sessions     service.SessionService
	defaultHours int
}

// NewSessionHandler creates a session handler with the provided
// dependencies.
func NewSessionHandler(deps SessionDeps) *SessionHandler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	defaultHours := deps.DefaultHours
	if defaultHours <= 0 {
		defaultHours = service.DefaultSessionHours
	}
	return &SessionHandler{
		logger:       logger,
		sessions:     deps.Sessions,
		defaultHours: defaultHours,
	}
}

// Register wires session routes. Creation is ungated; revocation only
// needs the token being revoked.
func (h *SessionHandler) Register(router fiber.Router) {
	router.Post("/sessions", h.CreateSession)
	router.Delete("/sessions", h.DeleteSession)
}

// CreateSessionRequest optionally overrides the session lifetime.
type CreateSessionRequest struct {
	DurationHours *int `json:"duration_hours,omitempty"`
}

// SessionResponse is the wire shape of a freshly minted session.
type SessionResponse struct {
	SessionToken string    `json:"session_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// CreateSession handles POST /api/sessions
func (h *SessionHandler) CreateSession(c *fiber.Ctx) error {
	durationHours := h.defaultHours
	if len(c.Body()) > 0 {
		var req CreateSessionRequest
		if err := c.BodyParser(&req); err != nil {
			return respond(c, fiber.StatusBadRequest, "validation_error", "invalid request body")
		}
		if req.DurationHours != nil {
			durationHours = *req.DurationHours
		}
	}

	session, err := h.sessions.Create(c.UserContext(), c.Get(fiber.HeaderUserAgent), c.IP(), durationHours)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.Status(fiber.StatusCreated).JSON(SessionResponse{
		SessionToken: session.SessionToken,
		ExpiresAt:    session.ExpiresAt,
	})
}

// DeleteSession handles DELETE /api/sessions
func (h *SessionHandler) DeleteSession(c *fiber.Ctx) error {
	token := c.Get(middleware.SessionHeader)
	if token == "" {
		token = c.Query("session_id")
	}
	if token == "" {
		return respond(c, fiber.StatusUnauthorized, "session_required", "a session token is required")
	}

	if err := h.sessions.Deactivate(c.UserContext(), token); err != nil {
		return respondError(c, h.logger, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
