package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/pailler/qrlink/internal/app/service"
	"go.uber.org/zap"
)

// RedirectDeps groups dependencies required by the redirect handler.
type RedirectDeps struct {
	Logger   *zap.Logger
	Resolver *service.Resolver
}

// RedirectHandler serves the public short-link surface.
type RedirectHandler struct {
	logger   *zap.Logger
	resolver *service.Resolver
}

// NewRedirectHandler creates a redirect handler with the provided
// dependencies.
func NewRedirectHandler(deps RedirectDeps) *RedirectHandler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedirectHandler{
		logger:   logger,
		resolver: deps.Resolver,
	}
}

// Register wires redirect routes onto the provided router. The :code
// route must be registered last so it does not shadow fixed paths.
func (h *RedirectHandler) Register(router fiber.Router) {
	router.Get("/", h.Health)
	router.Get("/health", h.Health)
	router.Get("/:code", h.Resolve)
}

// Health is a simple root endpoint so we know the service is running.
func (h *RedirectHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"service": "qrlink",
		"status":  "ok",
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// Resolve handles GET /:code. A qr query parameter attributes the click
// to the QR code whose image encoded it; password unlocks gated links.
func (h *RedirectHandler) Resolve(c *fiber.Ctx) error {
	code := c.Params("code")

	req := service.RequestContext{
		IPAddress: c.IP(),
		UserAgent: c.Get(fiber.HeaderUserAgent),
		Referrer:  c.Get(fiber.HeaderReferer),
		Password:  c.Query("password"),
	}
	if qrID := c.Query("qr"); qrID != "" {
		req.QRCodeID = &qrID
	}

	resolution, err := h.resolver.Resolve(c.UserContext(), code, req)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.Redirect(resolution.DestinationURL, fiber.StatusFound)
}
