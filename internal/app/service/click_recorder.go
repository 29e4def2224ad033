package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/pailler/qrlink/internal/app/model"
	"github.com/pailler/qrlink/internal/app/repository"
	infraProm "github.com/pailler/qrlink/internal/infra/prometheus"
	"go.uber.org/zap"
)

// ClickRecorder advances the link's click counter under its cap and
// durably records the click event. Implementations return
// repository.ErrLinkCapReached when the cap rejects the consume.
type ClickRecorder interface {
	ConsumeAndRecord(ctx context.Context, event *model.ClickEvent) error
}

// syncRecorder runs the counter consume and the event insert in one
// database transaction: both happen or neither.
type syncRecorder struct {
	resolutions repository.ResolutionRepository
	bestEffort  bool
	logger      *zap.Logger
}

// NewSyncClickRecorder builds the transactional recorder. With
// bestEffort set, a failed event insert degrades to a bare counter
// consume and a logged warning instead of failing the resolution.
func NewSyncClickRecorder(resolutions repository.ResolutionRepository, bestEffort bool, logger *zap.Logger) ClickRecorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &syncRecorder{resolutions: resolutions, bestEffort: bestEffort, logger: logger}
}

func (r *syncRecorder) ConsumeAndRecord(ctx context.Context, event *model.ClickEvent) error {
	err := r.resolutions.ConsumeClickAndRecord(ctx, event.LinkID, event)
	if err == nil {
		infraProm.ClicksStoredTotal.WithLabelValues("sync").Inc()
		return nil
	}
	if errors.Is(err, repository.ErrLinkCapReached) || errors.Is(err, repository.ErrLinkNotFound) {
		return err
	}
	if !r.bestEffort {
		return fmt.Errorf("record click: %w", err)
	}

	// Degraded mode: keep the redirect alive, still hold the cap.
	r.logger.Warn("click event dropped in best-effort mode",
		zap.String("link_id", event.LinkID), zap.Error(err))
	if err := r.resolutions.ConsumeClick(ctx, event.LinkID); err != nil {
		if errors.Is(err, repository.ErrLinkCapReached) {
			return err
		}
		return fmt.Errorf("consume click: %w", err)
	}
	return nil
}

// streamRecorder commits the counter consume first and then publishes
// the event durably to JetStream; the consumer stores it. The publish
// ack is the durability point, so a failed publish fails the resolution
// unless best-effort is configured.
type streamRecorder struct {
	resolutions repository.ResolutionRepository
	publisher   *ClickPublisher
	bestEffort  bool
	logger      *zap.Logger
}

// NewStreamClickRecorder builds the JetStream-backed recorder.
func NewStreamClickRecorder(resolutions repository.ResolutionRepository, publisher *ClickPublisher, bestEffort bool, logger *zap.Logger) ClickRecorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &streamRecorder{
		resolutions: resolutions,
		publisher:   publisher,
		bestEffort:  bestEffort,
		logger:      logger,
	}
}

func (r *streamRecorder) ConsumeAndRecord(ctx context.Context, event *model.ClickEvent) error {
	if err := r.resolutions.ConsumeClick(ctx, event.LinkID); err != nil {
		if errors.Is(err, repository.ErrLinkCapReached) || errors.Is(err, repository.ErrLinkNotFound) {
			return err
		}
		return fmt.Errorf("consume click: %w", err)
	}

	if err := r.publisher.Publish(event); err != nil {
		if !r.bestEffort {
			return fmt.Errorf("publish click: %w", err)
		}
		r.logger.Warn("click event dropped in best-effort mode",
			zap.String("link_id", event.LinkID), zap.Error(err))
	}
	return nil
}
