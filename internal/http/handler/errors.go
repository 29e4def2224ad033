package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/pailler/qrlink/internal/app/service"
	"github.com/pailler/qrlink/internal/qr"
	"go.uber.org/zap"
)

// respondError maps the service error taxonomy onto HTTP statuses with
// distinguishable, human-readable reasons. Anything unclassified is a
// storage-level failure: logged, surfaced as a plain 500.
func respondError(c *fiber.Ctx, logger *zap.Logger, err error) error {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return respond(c, fiber.StatusNotFound, "not_found", "not found")
	case errors.Is(err, service.ErrExpired):
		return respond(c, fiber.StatusGone, "expired", "link expired")
	case errors.Is(err, service.ErrLimitReached):
		return respond(c, fiber.StatusGone, "limit_reached", "link click limit reached")
	case errors.Is(err, service.ErrPasswordRequired):
		return respond(c, fiber.StatusUnauthorized, "password_required", "link requires a password")
	case errors.Is(err, service.ErrSessionRequired):
		return respond(c, fiber.StatusUnauthorized, "session_required", "session token required")
	case errors.Is(err, service.ErrSessionInvalid):
		return respond(c, fiber.StatusUnauthorized, "session_invalid", "session invalid or expired")
	case errors.Is(err, service.ErrValidation):
		return respond(c, fiber.StatusBadRequest, "validation_error", err.Error())
	case errors.Is(err, qr.ErrRenderFailed):
		return respond(c, fiber.StatusUnprocessableEntity, "render_failed", err.Error())
	default:
		logger.Error("request failed", zap.Error(err), zap.String("path", c.Path()))
		return respond(c, fiber.StatusInternalServerError, "storage_error", "internal server error")
	}
}

func respond(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error":   code,
		"message": message,
	})
}

// principalFrom returns the identity placed in locals by the session
// middleware.
func principalFrom(c *fiber.Ctx) service.Principal {
	if p, ok := c.Locals("principal").(service.Principal); ok {
		return p
	}
	return service.Principal{}
}
