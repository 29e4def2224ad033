package repository

import (
	"context"
	"errors"

	"github.com/pailler/qrlink/internal/app/model"
	"gorm.io/gorm"
)

// ErrQRCodeNotFound signals that the requested QR code does not exist.
var ErrQRCodeNotFound = errors.New("qr code not found")

// QRCodeRepository defines the data access contract for QR code records.
type QRCodeRepository interface {
	Create(ctx context.Context, qr *model.QRCode) error
	GetByID(ctx context.Context, id string) (*model.QRCode, error)
	ListByLink(ctx context.Context, linkID string) ([]model.QRCode, error)
	Update(ctx context.Context, qr *model.QRCode) error
	Delete(ctx context.Context, id string) error
}

type qrCodeRepository struct {
	db *gorm.DB
}

// NewQRCodeRepository returns a GORM-backed QRCodeRepository.
func NewQRCodeRepository(db *gorm.DB) QRCodeRepository {
	return &qrCodeRepository{db: db}
}

func (r *qrCodeRepository) Create(ctx context.Context, qr *model.QRCode) error {
	return r.db.WithContext(ctx).Create(qr).Error
}

func (r *qrCodeRepository) GetByID(ctx context.Context, id string) (*model.QRCode, error) {
	var qr model.QRCode
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&qr).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrQRCodeNotFound
		}
		return nil, err
	}
	return &qr, nil
}

func (r *qrCodeRepository) ListByLink(ctx context.Context, linkID string) ([]model.QRCode, error) {
	var result []model.QRCode
	if err := r.db.WithContext(ctx).
		Where("link_id = ?", linkID).
		Order("created_at DESC").
		Find(&result).Error; err != nil {
		return nil, err
	}
	return result, nil
}

func (r *qrCodeRepository) Update(ctx context.Context, qr *model.QRCode) error {
	result := r.db.WithContext(ctx).
		Model(&model.QRCode{}).
		Where("id = ?", qr.ID).
		Updates(map[string]interface{}{
			"name":             qr.Name,
			"description":      qr.Description,
			"image_format":     qr.ImageFormat,
			"size_px":          qr.SizePx,
			"foreground_color": qr.ForegroundColor,
			"background_color": qr.BackgroundColor,
			"logo_ref":         qr.LogoRef,
			"logo_size_px":     qr.LogoSizePx,
			"stored_image_ref": qr.StoredImageRef,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrQRCodeNotFound
	}
	return r.db.WithContext(ctx).Where("id = ?", qr.ID).First(qr).Error
}

func (r *qrCodeRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.QRCode{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrQRCodeNotFound
	}
	return nil
}
