package repository

import (
	"context"
	"time"

	"github.com/pailler/qrlink/internal/app/model"
	"gorm.io/gorm"
)

// ClickEventRepository defines the data access contract for click events.
// Events are append-only; the only delete is the retention purge.
type ClickEventRepository interface {
	Create(ctx context.Context, event *model.ClickEvent) error
	PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type clickEventRepository struct {
	db *gorm.DB
}

// NewClickEventRepository returns a GORM-backed ClickEventRepository.
func NewClickEventRepository(db *gorm.DB) ClickEventRepository {
	return &clickEventRepository{db: db}
}

func (r *clickEventRepository) Create(ctx context.Context, event *model.ClickEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *clickEventRepository) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("occurred_at < ?", cutoff).
		Delete(&model.ClickEvent{})
	return result.RowsAffected, result.Error
}
