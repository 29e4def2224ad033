package handler

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/pailler/qrlink/internal/app/model"
	"github.com/pailler/qrlink/internal/app/service"
	httpUtil "github.com/pailler/qrlink/internal/http/util"
	"go.uber.org/zap"
)

// Download links stay valid long enough for a dashboard page to use
// them, not long enough to be worth sharing.
const downloadTokenTTL = 15 * time.Minute

// QRDeps groups dependencies required by the QR code handlers.
type QRDeps struct {
	Logger    *zap.Logger
	QRService service.QRCodeService
	Secret    []byte
	BaseURL   string
}

// QRHandler implements the QR code management API and the token-gated
// image download.
type QRHandler struct {
	logger    *zap.Logger
	qrService service.QRCodeService
	tokens    *httpUtil.DownloadTokenSigner
	baseURL   string
}

// NewQRHandler creates a QR handler with the provided dependencies.
func NewQRHandler(deps QRDeps) *QRHandler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QRHandler{
		logger:    logger,
		qrService: deps.QRService,
		tokens:    httpUtil.NewDownloadTokenSigner(deps.Secret, downloadTokenTTL),
		baseURL:   deps.BaseURL,
	}
}

// Register wires management routes onto the session-gated router.
func (h *QRHandler) Register(router fiber.Router) {
	qr := router.Group("/qr")
	{
		qr.Post("/", h.CreateQRCode)
		qr.Get("/:id", h.GetQRCode)
		qr.Patch("/:id", h.UpdateQRCode)
		qr.Delete("/:id", h.DeleteQRCode)
	}
	router.Get("/links/:id/qr", h.ListQRCodes)
}

// RegisterPublic wires the download route onto the ungated router; the
// signed token is the access control.
func (h *QRHandler) RegisterPublic(router fiber.Router) {
	router.Get("/qr/:id/download", h.Download)
}

// CreateQRCodeRequest represents the request body for creating a QR
// code. Omitted fields take the synthesizer defaults.
type CreateQRCodeRequest struct {
	LinkID          string  `json:"link_id"`
	Name            string  `json:"name,omitempty"`
	Description     string  `json:"description,omitempty"`
	ImageFormat     string  `json:"image_format,omitempty"`
	SizePx          int     `json:"size_px,omitempty"`
	ForegroundColor string  `json:"foreground_color,omitempty"`
	BackgroundColor string  `json:"background_color,omitempty"`
	LogoRef         *string `json:"logo_ref,omitempty"`
	LogoSizePx      int     `json:"logo_size_px,omitempty"`
}

// QRCodeResponse is the wire shape of a QR code record.
type QRCodeResponse struct {
	ID              string    `json:"id"`
	LinkID          string    `json:"link_id"`
	Name            string    `json:"name,omitempty"`
	Description     string    `json:"description,omitempty"`
	ImageFormat     string    `json:"image_format"`
	SizePx          int       `json:"size_px"`
	ForegroundColor string    `json:"foreground_color"`
	BackgroundColor string    `json:"background_color"`
	LogoRef         *string   `json:"logo_ref,omitempty"`
	LogoSizePx      int       `json:"logo_size_px"`
	DownloadURL     string    `json:"download_url"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (h *QRHandler) qrResponse(record *model.QRCode) QRCodeResponse {
	response := QRCodeResponse{
		ID:              record.ID,
		LinkID:          record.LinkID,
		Name:            record.Name,
		Description:     record.Description,
		ImageFormat:     record.ImageFormat,
		SizePx:          record.SizePx,
		ForegroundColor: record.ForegroundColor,
		BackgroundColor: record.BackgroundColor,
		LogoRef:         record.LogoRef,
		LogoSizePx:      record.LogoSizePx,
		CreatedAt:       record.CreatedAt,
		UpdatedAt:       record.UpdatedAt,
	}

	token, err := h.tokens.Issue(record.ID)
	if err != nil {
		// The record is still useful without a download URL; the
		// client can re-fetch once the secret is configured.
		h.logger.Warn("failed to issue download token", zap.Error(err))
		return response
	}
	response.DownloadURL = fmt.Sprintf("%s/qr/%s/download?token=%s", h.baseURL, record.ID, token)
	return response
}

// CreateQRCode handles POST /api/qr
func (h *QRHandler) CreateQRCode(c *fiber.Ctx) error {
	var req CreateQRCodeRequest
	if err := c.BodyParser(&req); err != nil {
		return respond(c, fiber.StatusBadRequest, "validation_error", "invalid request body")
	}
	if req.LinkID == "" {
		return respond(c, fiber.StatusBadRequest, "validation_error", "link_id is required")
	}

	record, err := h.qrService.Create(c.UserContext(), principalFrom(c), service.CreateQRCodeInput{
		LinkID:          req.LinkID,
		Name:            req.Name,
		Description:     req.Description,
		ImageFormat:     req.ImageFormat,
		SizePx:          req.SizePx,
		ForegroundColor: req.ForegroundColor,
		BackgroundColor: req.BackgroundColor,
		LogoRef:         req.LogoRef,
		LogoSizePx:      req.LogoSizePx,
	})
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.Status(fiber.StatusCreated).JSON(h.qrResponse(record))
}

// GetQRCode handles GET /api/qr/:id
func (h *QRHandler) GetQRCode(c *fiber.Ctx) error {
	record, err := h.qrService.Get(c.UserContext(), principalFrom(c), c.Params("id"))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(h.qrResponse(record))
}

// ListQRCodes handles GET /api/links/:id/qr
func (h *QRHandler) ListQRCodes(c *fiber.Ctx) error {
	records, err := h.qrService.ListByLink(c.UserContext(), principalFrom(c), c.Params("id"))
	if err != nil {
		return respondError(c, h.logger, err)
	}

	responses := make([]QRCodeResponse, 0, len(records))
	for i := range records {
		responses = append(responses, h.qrResponse(&records[i]))
	}
	return c.JSON(responses)
}

// UpdateQRCodeRequest represents the request body for updating a QR
// code. Changing a visual field regenerates the stored image.
type UpdateQRCodeRequest struct {
	Name            *string `json:"name,omitempty"`
	Description     *string `json:"description,omitempty"`
	ImageFormat     *string `json:"image_format,omitempty"`
	SizePx          *int    `json:"size_px,omitempty"`
	ForegroundColor *string `json:"foreground_color,omitempty"`
	BackgroundColor *string `json:"background_color,omitempty"`
	LogoRef         *string `json:"logo_ref,omitempty"`
	ClearLogo       bool    `json:"clear_logo,omitempty"`
	LogoSizePx      *int    `json:"logo_size_px,omitempty"`
}

// UpdateQRCode handles PATCH /api/qr/:id
func (h *QRHandler) UpdateQRCode(c *fiber.Ctx) error {
	var req UpdateQRCodeRequest
	if err := c.BodyParser(&req); err != nil {
		return respond(c, fiber.StatusBadRequest, "validation_error", "invalid request body")
	}

	record, err := h.qrService.Update(c.UserContext(), principalFrom(c), c.Params("id"), service.UpdateQRCodeInput{
		Name:            req.Name,
		Description:     req.Description,
		ImageFormat:     req.ImageFormat,
		SizePx:          req.SizePx,
		ForegroundColor: req.ForegroundColor,
		BackgroundColor: req.BackgroundColor,
		LogoRef:         req.LogoRef,
		ClearLogo:       req.ClearLogo,
		LogoSizePx:      req.LogoSizePx,
	})
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(h.qrResponse(record))
}

// DeleteQRCode handles DELETE /api/qr/:id
func (h *QRHandler) DeleteQRCode(c *fiber.Ctx) error {
	if err := h.qrService.Delete(c.UserContext(), principalFrom(c), c.Params("id")); err != nil {
		return respondError(c, h.logger, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Download handles GET /qr/:id/download?token=
func (h *QRHandler) Download(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.tokens.Validate(id, c.Query("token")); err != nil {
		return respond(c, fiber.StatusUnauthorized, "invalid_token", "download token invalid or expired")
	}

	record, data, err := h.qrService.Image(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	c.Set(fiber.HeaderContentType, record.ContentType())
	c.Set(fiber.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="qr-%s.%s"`, record.ID, record.ImageFormat))
	return c.Send(data)
}
