package model

import "time"

// Session is the anonymous owner surrogate for links created without an
// authenticated user. Usable iff IsActive and not yet expired; the sweep
// hard-deletes rows that fail either condition.
type Session struct {
	ID           string    `db:"id" gorm:"primaryKey;size:36"`
	SessionToken string    `db:"session_token" gorm:"size:64;uniqueIndex;not null"`
	UserAgent    string    `db:"user_agent" gorm:"type:text"`
	IPAddress    string    `db:"ip_address" gorm:"size:45"`
	ExpiresAt    time.Time `db:"expires_at" gorm:"not null;index"`
	IsActive     bool      `db:"is_active" gorm:"not null;default:true"`
	CreatedAt    time.Time `db:"created_at" gorm:"autoCreateTime"`
}

// Usable reports the liveness predicate at the given instant.
func (s *Session) Usable(now time.Time) bool {
	return s.IsActive && now.Before(s.ExpiresAt)
}
