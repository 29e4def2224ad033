package model

import "time"

// Image formats a QR code can be rendered in.
const (
	QRFormatPNG = "png"
	QRFormatSVG = "svg"
)

// QRCode is one rendered variant of a link's short URL. StoredImageRef is
// an opaque blob-store key owned exclusively by this row; regenerating the
// image replaces the blob and the ref together.
type QRCode struct {
	ID              string    `db:"id" gorm:"primaryKey;size:36"`
	LinkID          string    `db:"link_id" gorm:"size:36;not null;index"`
	Name            string    `db:"name" gorm:"size:255"`
	Description     string    `db:"description" gorm:"type:text"`
	ImageFormat     string    `db:"image_format" gorm:"size:10;not null;default:png"`
	SizePx          int       `db:"size_px" gorm:"not null;default:300"`
	ForegroundColor string    `db:"foreground_color" gorm:"size:7;not null;default:#000000"`
	BackgroundColor string    `db:"background_color" gorm:"size:7;not null;default:#FFFFFF"`
	LogoRef         *string   `db:"logo_ref" gorm:"size:255"`
	LogoSizePx      int       `db:"logo_size_px" gorm:"not null;default:50"`
	StoredImageRef  string    `db:"stored_image_ref" gorm:"size:255;not null"`
	CreatedAt       time.Time `db:"created_at" gorm:"autoCreateTime"`
	UpdatedAt       time.Time `db:"updated_at" gorm:"autoUpdateTime"`
}

// TableName pins the table name; the default naming strategy mangles the
// QR initialism.
func (QRCode) TableName() string { return "qr_codes" }

// ContentType returns the MIME type matching the stored image format.
func (q *QRCode) ContentType() string {
	if q.ImageFormat == QRFormatSVG {
		return "image/svg+xml"
	}
	return "image/png"
}
