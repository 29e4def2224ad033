package model

import "time"

// ClickEvent is one recorded resolution of a short link or scan of a QR
// code. Rows are append-only; only the retention purge removes them.
type ClickEvent struct {
	ID            string    `db:"id" gorm:"primaryKey;size:36" json:"id"`
	LinkID        string    `db:"link_id" gorm:"size:36;not null;index" json:"link_id"`
	QRCodeID      *string   `db:"qr_code_id" gorm:"size:36;index" json:"qr_code_id,omitempty"`
	IPAddress     string    `db:"ip_address" gorm:"size:45" json:"ip_address"`
	UserAgent     string    `db:"user_agent" gorm:"type:text" json:"user_agent"`
	Referrer      *string   `db:"referrer" gorm:"type:text" json:"referrer,omitempty"`
	Country       *string   `db:"country" gorm:"size:100" json:"country,omitempty"`
	City          *string   `db:"city" gorm:"size:100" json:"city,omitempty"`
	DeviceType    *string   `db:"device_type" gorm:"size:20" json:"device_type,omitempty"`
	Browser       *string   `db:"browser" gorm:"size:50" json:"browser,omitempty"`
	OS            *string   `db:"os" gorm:"size:50" json:"os,omitempty"`
	ReferrerClass string    `db:"referrer_class" gorm:"size:20;not null;default:Direct" json:"referrer_class"`
	OccurredAt    time.Time `db:"occurred_at" gorm:"not null;index" json:"occurred_at"`
}

const (
	ClickStreamName     = "CLICKS"
	ClickStreamSubject  = "clicks.events"
	ClickConsumerName   = "click-writer"
	ClickStreamMaxBytes = 1024 * 1024 * 100 // 100MB
)
