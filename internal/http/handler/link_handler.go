package handler

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/pailler/qrlink/internal/app/model"
	"github.com/pailler/qrlink/internal/app/service"
	"go.uber.org/zap"
)

// LinkDeps groups dependencies required by the link API handlers.
type LinkDeps struct {
	Logger      *zap.Logger
	LinkService service.LinkService
	BaseURL     string
}

// LinkHandler implements the link management API.
type LinkHandler struct {
	logger      *zap.Logger
	linkService service.LinkService
	baseURL     string
}

// NewLinkHandler creates a link handler with the provided dependencies.
func NewLinkHandler(deps LinkDeps) *LinkHandler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LinkHandler{
		logger:      logger,
		linkService: deps.LinkService,
		baseURL:     deps.BaseURL,
	}
}

// Register wires link routes onto the provided (session-gated) router.
func (h *LinkHandler) Register(router fiber.Router) {
	links := router.Group("/links")
	{
		links.Post("/", h.CreateLink)
		links.Get("/", h.ListLinks)
		links.Get("/:id", h.GetLink)
		links.Patch("/:id", h.UpdateLink)
		links.Delete("/:id", h.DeleteLink)
	}
}

// CreateLinkRequest represents the request body for creating a link.
type CreateLinkRequest struct {
	DestinationURL string     `json:"destination_url"`
	CustomAlias    string     `json:"custom_alias,omitempty"`
	Title          string     `json:"title,omitempty"`
	Description    string     `json:"description,omitempty"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
	MaxClicks      *int       `json:"max_clicks,omitempty"`
	Password       string     `json:"password,omitempty"`
}

// LinkResponse is the wire shape of a link. The password itself never
// leaves the service; only the fact that one is set does.
type LinkResponse struct {
	ID             string     `json:"id"`
	ShortCode      string     `json:"short_code"`
	ShortURL       string     `json:"short_url"`
	DestinationURL string     `json:"destination_url"`
	Title          string     `json:"title,omitempty"`
	Description    string     `json:"description,omitempty"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
	MaxClicks      *int       `json:"max_clicks,omitempty"`
	HasPassword    bool       `json:"has_password"`
	ClickCount     int        `json:"click_count"`
	CreatedAt      time.Time  `json:"created_at"`
}

func (h *LinkHandler) linkResponse(link *model.Link) LinkResponse {
	return LinkResponse{
		ID:             link.ID,
		ShortCode:      link.ShortCode,
		ShortURL:       fmt.Sprintf("%s/%s", h.baseURL, link.ShortCode),
		DestinationURL: link.DestinationURL,
		Title:          link.Title,
		Description:    link.Description,
		ExpiresAt:      link.ExpiresAt,
		MaxClicks:      link.MaxClicks,
		HasPassword:    link.PasswordProtected(),
		ClickCount:     link.ClickCount,
		CreatedAt:      link.CreatedAt,
	}
}

// CreateLink handles POST /api/links
func (h *LinkHandler) CreateLink(c *fiber.Ctx) error {
	var req CreateLinkRequest
	if err := c.BodyParser(&req); err != nil {
		return respond(c, fiber.StatusBadRequest, "validation_error", "invalid request body")
	}

	link, err := h.linkService.CreateLink(c.UserContext(), principalFrom(c), service.CreateLinkInput{
		DestinationURL: req.DestinationURL,
		CustomAlias:    req.CustomAlias,
		Title:          req.Title,
		Description:    req.Description,
		ExpiresAt:      req.ExpiresAt,
		MaxClicks:      req.MaxClicks,
		Password:       req.Password,
	})
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.Status(fiber.StatusCreated).JSON(h.linkResponse(link))
}

// ListLinks handles GET /api/links
func (h *LinkHandler) ListLinks(c *fiber.Ctx) error {
	limit := 20
	offset := 0

	if parsed := c.QueryInt("limit"); parsed > 0 && parsed <= 100 {
		limit = parsed
	}
	if parsed := c.QueryInt("offset"); parsed > 0 {
		offset = parsed
	}

	links, err := h.linkService.ListLinks(c.UserContext(), principalFrom(c), limit, offset)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	response := make([]LinkResponse, len(links))
	for i := range links {
		response[i] = h.linkResponse(&links[i])
	}

	return c.JSON(fiber.Map{
		"links":  response,
		"limit":  limit,
		"offset": offset,
		"count":  len(response),
	})
}

// GetLink handles GET /api/links/:id
func (h *LinkHandler) GetLink(c *fiber.Ctx) error {
	link, err := h.linkService.GetLink(c.UserContext(), principalFrom(c), c.Params("id"))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(h.linkResponse(link))
}

// UpdateLinkRequest represents the request body for updating a link.
// The clear flags unset their optional field; omitting a field leaves
// it untouched, so expiry, cap and password stay revocable over PATCH.
type UpdateLinkRequest struct {
	DestinationURL *string    `json:"destination_url,omitempty"`
	Title          *string    `json:"title,omitempty"`
	Description    *string    `json:"description,omitempty"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
	MaxClicks      *int       `json:"max_clicks,omitempty"`
	Password       *string    `json:"password,omitempty"`
	ClearExpiry    bool       `json:"clear_expiry,omitempty"`
	ClearMaxClicks bool       `json:"clear_max_clicks,omitempty"`
	ClearPassword  bool       `json:"clear_password,omitempty"`
}

// UpdateLink handles PATCH /api/links/:id
func (h *LinkHandler) UpdateLink(c *fiber.Ctx) error {
	var req UpdateLinkRequest
	if err := c.BodyParser(&req); err != nil {
		return respond(c, fiber.StatusBadRequest, "validation_error", "invalid request body")
	}

	link, err := h.linkService.UpdateLink(c.UserContext(), principalFrom(c), c.Params("id"), service.UpdateLinkInput{
		DestinationURL: req.DestinationURL,
		Title:          req.Title,
		Description:    req.Description,
		ExpiresAt:      req.ExpiresAt,
		MaxClicks:      req.MaxClicks,
		Password:       req.Password,
		ClearExpiry:    req.ClearExpiry,
		ClearMaxClicks: req.ClearMaxClicks,
		ClearPassword:  req.ClearPassword,
	})
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(h.linkResponse(link))
}

// DeleteLink handles DELETE /api/links/:id
func (h *LinkHandler) DeleteLink(c *fiber.Ctx) error {
	if err := h.linkService.DeleteLink(c.UserContext(), principalFrom(c), c.Params("id")); err != nil {
		return respondError(c, h.logger, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
