package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/pailler/qrlink/internal/app/model"
	"github.com/pailler/qrlink/internal/app/repository"
	infraProm "github.com/pailler/qrlink/internal/infra/prometheus"
	"github.com/pailler/qrlink/internal/qr"
	"github.com/pailler/qrlink/internal/storage"
	"go.uber.org/zap"
)

// QRCodeService owns the lifecycle of QR code records and their stored
// images.
type QRCodeService interface {
	Create(ctx context.Context, principal Principal, input CreateQRCodeInput) (*model.QRCode, error)
	Get(ctx context.Context, principal Principal, id string) (*model.QRCode, error)
	ListByLink(ctx context.Context, principal Principal, linkID string) ([]model.QRCode, error)
	Update(ctx context.Context, principal Principal, id string, input UpdateQRCodeInput) (*model.QRCode, error)
	Delete(ctx context.Context, principal Principal, id string) error
	// Image returns the stored bytes for streaming to the caller.
	Image(ctx context.Context, id string) (*model.QRCode, []byte, error)
}

// CreateQRCodeInput captures data required to create a QR code. Zero
// values take the synthesizer defaults.
type CreateQRCodeInput struct {
	LinkID          string
	Name            string
	Description     string
	ImageFormat     string
	SizePx          int
	ForegroundColor string
	BackgroundColor string
	LogoRef         *string
	LogoSizePx      int
}

// UpdateQRCodeInput captures changeable fields. Changing any visual
// parameter triggers regeneration; name and description alone do not.
type UpdateQRCodeInput struct {
	Name            *string
	Description     *string
	ImageFormat     *string
	SizePx          *int
	ForegroundColor *string
	BackgroundColor *string
	LogoRef         *string
	ClearLogo       bool
	LogoSizePx      *int
}

// QRCodeServiceDeps groups what the service needs.
type QRCodeServiceDeps struct {
	Links   repository.LinkRepository
	QRCodes repository.QRCodeRepository
	Store   *storage.BlobStore
	BaseURL string
	Logger  *zap.Logger
}

type qrCodeService struct {
	links   repository.LinkRepository
	qrCodes repository.QRCodeRepository
	store   *storage.BlobStore
	baseURL string
	logger  *zap.Logger
}

// NewQRCodeService returns the blob-store-backed implementation.
func NewQRCodeService(deps QRCodeServiceDeps) QRCodeService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &qrCodeService{
		links:   deps.Links,
		qrCodes: deps.QRCodes,
		store:   deps.Store,
		baseURL: deps.BaseURL,
		logger:  logger,
	}
}

func (s *qrCodeService) Create(ctx context.Context, principal Principal, input CreateQRCodeInput) (*model.QRCode, error) {
	link, err := s.ownedLink(ctx, principal, input.LinkID)
	if err != nil {
		return nil, err
	}

	record := &model.QRCode{
		ID:              uuid.New().String(),
		LinkID:          link.ID,
		Name:            input.Name,
		Description:     input.Description,
		ImageFormat:     input.ImageFormat,
		SizePx:          input.SizePx,
		ForegroundColor: input.ForegroundColor,
		BackgroundColor: input.BackgroundColor,
		LogoRef:         input.LogoRef,
		LogoSizePx:      input.LogoSizePx,
	}
	applyQRDefaults(record)

	ref, err := s.renderAndStore(record, link.ShortCode)
	if err != nil {
		return nil, err
	}
	record.StoredImageRef = ref

	if err := s.qrCodes.Create(ctx, record); err != nil {
		// The row never existed; do not leave the blob behind.
		s.store.RemoveBestEffort(ref)
		return nil, fmt.Errorf("%w: create qr code: %v", ErrStorage, err)
	}
	return record, nil
}

func (s *qrCodeService) Get(ctx context.Context, principal Principal, id string) (*model.QRCode, error) {
	record, err := s.qrCodes.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrQRCodeNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get qr code: %w", err)
	}
	if _, err := s.ownedLink(ctx, principal, record.LinkID); err != nil {
		return nil, err
	}
	return record, nil
}

func (s *qrCodeService) ListByLink(ctx context.Context, principal Principal, linkID string) ([]model.QRCode, error) {
	if _, err := s.ownedLink(ctx, principal, linkID); err != nil {
		return nil, err
	}
	records, err := s.qrCodes.ListByLink(ctx, linkID)
	if err != nil {
		return nil, fmt.Errorf("list qr codes: %w", err)
	}
	return records, nil
}

func (s *qrCodeService) Update(ctx context.Context, principal Principal, id string, input UpdateQRCodeInput) (*model.QRCode, error) {
	record, err := s.Get(ctx, principal, id)
	if err != nil {
		return nil, err
	}
	link, err := s.links.GetByID(ctx, record.LinkID)
	if err != nil {
		return nil, fmt.Errorf("load link: %w", err)
	}

	visualChanged := applyQRUpdate(record, input)

	if visualChanged {
		oldRef := record.StoredImageRef
		ref, err := s.renderAndStore(record, link.ShortCode)
		if err != nil {
			return nil, err
		}
		record.StoredImageRef = ref

		if err := s.qrCodes.Update(ctx, record); err != nil {
			s.store.RemoveBestEffort(ref)
			return nil, fmt.Errorf("update qr code: %w", err)
		}
		// The old image is orphaned now; losing the delete is a lesser
		// harm than failing the update.
		s.store.RemoveBestEffort(oldRef)
		return record, nil
	}

	if err := s.qrCodes.Update(ctx, record); err != nil {
		return nil, fmt.Errorf("update qr code: %w", err)
	}
	return record, nil
}

func (s *qrCodeService) Delete(ctx context.Context, principal Principal, id string) error {
	record, err := s.Get(ctx, principal, id)
	if err != nil {
		return err
	}
	if err := s.qrCodes.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete qr code: %w", err)
	}
	s.store.RemoveBestEffort(record.StoredImageRef)
	return nil
}

func (s *qrCodeService) Image(ctx context.Context, id string) (*model.QRCode, []byte, error) {
	record, err := s.qrCodes.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrQRCodeNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, fmt.Errorf("get qr code: %w", err)
	}

	data, err := s.store.Load(record.StoredImageRef)
	if err != nil {
		if errors.Is(err, storage.ErrBlobNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, fmt.Errorf("%w: load qr image: %v", ErrStorage, err)
	}
	return record, data, nil
}

// renderAndStore synthesizes the image for the record's current visual
// parameters and stores it under a fresh key.
func (s *qrCodeService) renderAndStore(record *model.QRCode, shortCode string) (string, error) {
	var logo []byte
	if record.LogoRef != nil {
		data, err := s.store.Load(*record.LogoRef)
		if err != nil {
			return "", fmt.Errorf("%w: load logo %q: %v", qr.ErrRenderFailed, *record.LogoRef, err)
		}
		logo = data
	}

	// The encoded URL carries the QR id, so scans through this image are
	// attributed to it.
	target := fmt.Sprintf("%s/%s?qr=%s", s.baseURL, shortCode, record.ID)

	image, err := qr.Render(target, qr.Options{
		SizePx:          record.SizePx,
		ForegroundColor: record.ForegroundColor,
		BackgroundColor: record.BackgroundColor,
		Format:          record.ImageFormat,
		Logo:            logo,
		LogoSizePx:      record.LogoSizePx,
	})
	if err != nil {
		return "", err
	}

	ref := fmt.Sprintf("%s.%s", uuid.New().String(), record.ImageFormat)
	if err := s.store.Save(ref, image); err != nil {
		return "", fmt.Errorf("%w: store qr image: %v", ErrStorage, err)
	}

	infraProm.QRRendersTotal.WithLabelValues(record.ImageFormat).Inc()
	return ref, nil
}

func (s *qrCodeService) ownedLink(ctx context.Context, principal Principal, linkID string) (*model.Link, error) {
	link, err := s.links.GetByID(ctx, linkID)
	if err != nil {
		if errors.Is(err, repository.ErrLinkNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load link: %w", err)
	}
	if !principal.owns(link) {
		return nil, ErrNotFound
	}
	return link, nil
}

func applyQRDefaults(record *model.QRCode) {
	if record.ImageFormat == "" {
		record.ImageFormat = model.QRFormatPNG
	}
	if record.SizePx == 0 {
		record.SizePx = qr.DefaultSizePx
	}
	if record.ForegroundColor == "" {
		record.ForegroundColor = qr.DefaultForeground
	}
	if record.BackgroundColor == "" {
		record.BackgroundColor = qr.DefaultBackground
	}
	if record.LogoSizePx == 0 {
		record.LogoSizePx = qr.DefaultLogoSizePx
	}
}

// applyQRUpdate mutates the record and reports whether any parameter
// affecting the rendered image changed.
func applyQRUpdate(record *model.QRCode, input UpdateQRCodeInput) bool {
	visualChanged := false

	if input.Name != nil {
		record.Name = *input.Name
	}
	if input.Description != nil {
		record.Description = *input.Description
	}
	if input.ImageFormat != nil && *input.ImageFormat != record.ImageFormat {
		record.ImageFormat = *input.ImageFormat
		visualChanged = true
	}
	if input.SizePx != nil && *input.SizePx != record.SizePx {
		record.SizePx = *input.SizePx
		visualChanged = true
	}
	if input.ForegroundColor != nil && *input.ForegroundColor != record.ForegroundColor {
		record.ForegroundColor = *input.ForegroundColor
		visualChanged = true
	}
	if input.BackgroundColor != nil && *input.BackgroundColor != record.BackgroundColor {
		record.BackgroundColor = *input.BackgroundColor
		visualChanged = true
	}
	if input.ClearLogo {
		if record.LogoRef != nil {
			record.LogoRef = nil
			visualChanged = true
		}
	} else if input.LogoRef != nil {
		if record.LogoRef == nil || *record.LogoRef != *input.LogoRef {
			record.LogoRef = input.LogoRef
			visualChanged = true
		}
	}
	if input.LogoSizePx != nil && *input.LogoSizePx != record.LogoSizePx {
		record.LogoSizePx = *input.LogoSizePx
		visualChanged = true
	}

	return visualChanged
}
