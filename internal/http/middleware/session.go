package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/pailler/qrlink/internal/app/service"
	"go.uber.org/zap"
)

const (
	// SessionHeader carries the opaque anonymous-session token.
	SessionHeader = "X-Session-Id"
	// UserHeader carries the authenticated user id, set by the upstream
	// gateway after token verification. Token mechanics live there, not
	// here.
	UserHeader = "X-User-Id"
)

// Session resolves the caller's identity into a service.Principal stored
// in locals. An authenticated user id wins; otherwise the session token
// (header or session_id query parameter) must map to a live session.
func Session(sessions service.SessionService, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if userID := c.Get(UserHeader); userID != "" {
			id := userID
			c.Locals("principal", service.Principal{UserID: &id})
			return c.Next()
		}

		token := c.Get(SessionHeader)
		if token == "" {
			token = c.Query("session_id")
		}
		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error":   "session_required",
				"message": "session token required",
			})
		}

		session, err := sessions.Find(c.UserContext(), token)
		if err != nil {
			logger.Error("session lookup failed", zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error":   "storage_error",
				"message": "internal server error",
			})
		}
		if session == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error":   "session_invalid",
				"message": "session invalid or expired",
			})
		}

		sessionID := session.ID
		c.Locals("principal", service.Principal{SessionID: &sessionID})
		c.Locals("session_token", token)
		return c.Next()
	}
}
