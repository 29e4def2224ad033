package repository

import (
	"context"
	"errors"

	"github.com/pailler/qrlink/internal/app/model"
	"gorm.io/gorm"
)

// ErrLinkCapReached signals that the link's click cap was already fully
// consumed when the conditional increment ran.
var ErrLinkCapReached = errors.New("link click cap reached")

// ResolutionRepository owns the write path of a resolution: advancing a
// link's click counter under its cap, optionally recording the click
// event in the same transaction.
//
// The counter update is a single conditional UPDATE, so two concurrent
// resolutions of a link one click under its cap cannot both succeed; the
// row lock serializes them and the guard rejects the loser.
type ResolutionRepository interface {
	// ConsumeClick increments click_count iff the cap allows it. A link
	// row that no longer exists reports ErrLinkNotFound, not a cap hit.
	ConsumeClick(ctx context.Context, linkID string) error
	// ConsumeClickAndRecord does the same and inserts the click event
	// atomically: both happen or neither.
	ConsumeClickAndRecord(ctx context.Context, linkID string, event *model.ClickEvent) error
}

type resolutionRepository struct {
	db *gorm.DB
}

// NewResolutionRepository returns a GORM-backed ResolutionRepository.
func NewResolutionRepository(db *gorm.DB) ResolutionRepository {
	return &resolutionRepository{db: db}
}

func (r *resolutionRepository) ConsumeClick(ctx context.Context, linkID string) error {
	return consumeClick(r.db.WithContext(ctx), linkID)
}

func (r *resolutionRepository) ConsumeClickAndRecord(ctx context.Context, linkID string, event *model.ClickEvent) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := consumeClick(tx, linkID); err != nil {
			return err
		}
		return tx.Create(event).Error
	})
}

func consumeClick(tx *gorm.DB, linkID string) error {
	result := tx.Model(&model.Link{}).
		Where("id = ? AND (max_clicks IS NULL OR click_count < max_clicks)", linkID).
		UpdateColumn("click_count", gorm.Expr("click_count + 1"))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		// Zero rows also covers a link deleted since the caller's policy
		// read; distinguish so that case surfaces as a missing link
		// rather than an exhausted cap.
		var count int64
		if err := tx.Model(&model.Link{}).Where("id = ?", linkID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrLinkNotFound
		}
		return ErrLinkCapReached
	}
	return nil
}
