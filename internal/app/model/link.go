package model

import "time"

// Link describes the core short-link entity stored in Postgres.
//
// A link without OwnerID belongs to the anonymous session referenced by
// SessionID. ClickCount only ever moves forward and is advanced by the
// conditional consume in the repository, never by plain writes.
type Link struct {
	ID             string     `db:"id" gorm:"primaryKey;size:36"`
	OwnerID        *string    `db:"owner_id" gorm:"size:64;index"`
	SessionID      *string    `db:"session_id" gorm:"size:36;index"`
	ShortCode      string     `db:"short_code" gorm:"size:32;uniqueIndex;not null"`
	DestinationURL string     `db:"destination_url" gorm:"type:text;not null"`
	Title          string     `db:"title" gorm:"size:255"`
	Description    string     `db:"description" gorm:"type:text"`
	ExpiresAt      *time.Time `db:"expires_at" gorm:"index"`
	MaxClicks      *int       `db:"max_clicks"`
	PasswordHash   *string    `db:"password_hash" gorm:"size:255"`
	ClickCount     int        `db:"click_count" gorm:"not null;default:0"`
	CreatedAt      time.Time  `db:"created_at" gorm:"autoCreateTime"`
	UpdatedAt      time.Time  `db:"updated_at" gorm:"autoUpdateTime"`
}

// Expired reports whether the link's expiry has passed at the given instant.
func (l *Link) Expired(now time.Time) bool {
	return l.ExpiresAt != nil && now.After(*l.ExpiresAt)
}

// CapReached reports whether the click cap has been consumed.
func (l *Link) CapReached() bool {
	return l.MaxClicks != nil && l.ClickCount >= *l.MaxClicks
}

// PasswordProtected reports whether resolution requires a password.
func (l *Link) PasswordProtected() bool {
	return l.PasswordHash != nil && *l.PasswordHash != ""
}
