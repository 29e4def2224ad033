package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/pailler/qrlink/internal/app/service"
	"go.uber.org/zap"
)

// StatsDeps groups dependencies required by the analytics handlers.
type StatsDeps struct {
	Logger       *zap.Logger
	StatsService service.StatsService
}

// StatsHandler serves link- and QR-scoped click analytics.
type StatsHandler struct {
	logger       *zap.Logger
	statsService service.StatsService
}

// NewStatsHandler creates a stats handler with the provided dependencies.
func NewStatsHandler(deps StatsDeps) *StatsHandler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatsHandler{
		logger:       logger,
		statsService: deps.StatsService,
	}
}

// Register wires stats routes onto the provided (session-gated) router.
func (h *StatsHandler) Register(router fiber.Router) {
	router.Get("/links/:id/stats", h.LinkStats)
	router.Get("/links/:id/stats/realtime", h.LinkRealtime)
	router.Get("/qr/:id/stats", h.QRStats)
}

// LinkStats handles GET /api/links/:id/stats?timeframe=
func (h *StatsHandler) LinkStats(c *fiber.Ctx) error {
	report, err := h.statsService.LinkStats(c.UserContext(), principalFrom(c), c.Params("id"), c.Query("timeframe"))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(report)
}

// LinkRealtime handles GET /api/links/:id/stats/realtime?hours=
func (h *StatsHandler) LinkRealtime(c *fiber.Ctx) error {
	stats, err := h.statsService.LinkRealtime(c.UserContext(), principalFrom(c), c.Params("id"), c.QueryInt("hours"))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(stats)
}

// QRStats handles GET /api/qr/:id/stats?timeframe=
func (h *StatsHandler) QRStats(c *fiber.Ctx) error {
	report, err := h.statsService.QRStats(c.UserContext(), principalFrom(c), c.Params("id"), c.Query("timeframe"))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(report)
}
