package repository

import (
	"context"
	"errors"
	"time"

	"github.com/pailler/qrlink/internal/app/model"
	"gorm.io/gorm"
)

// ErrSessionNotFound signals that no session exists for the given token.
var ErrSessionNotFound = errors.New("session not found")

// SessionRepository defines the data access contract for anonymous
// sessions.
type SessionRepository interface {
	Create(ctx context.Context, session *model.Session) error
	GetByToken(ctx context.Context, token string) (*model.Session, error)
	// Deactivate soft-deletes by token. Already-inactive and missing
	// sessions are both no-ops, keeping the call idempotent.
	Deactivate(ctx context.Context, token string) error
	// SweepExpired hard-deletes sessions that are expired or already
	// deactivated and reports how many rows went away.
	SweepExpired(ctx context.Context, now time.Time) (int64, error)
}

type sessionRepository struct {
	db *gorm.DB
}

// NewSessionRepository returns a GORM-backed SessionRepository.
func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) Create(ctx context.Context, session *model.Session) error {
	return r.db.WithContext(ctx).Create(session).Error
}

func (r *sessionRepository) GetByToken(ctx context.Context, token string) (*model.Session, error) {
	var session model.Session
	if err := r.db.WithContext(ctx).Where("session_token = ?", token).First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepository) Deactivate(ctx context.Context, token string) error {
	return r.db.WithContext(ctx).
		Model(&model.Session{}).
		Where("session_token = ?", token).
		Update("is_active", false).Error
}

func (r *sessionRepository) SweepExpired(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("expires_at < ? OR is_active = ?", now, false).
		Delete(&model.Session{})
	return result.RowsAffected, result.Error
}
