package service

import (
	"context"
	"errors"
	"testing"

	"github.com/pailler/qrlink/internal/app/model"
	"github.com/pailler/qrlink/internal/app/repository"
)

type mockResolutionRepository struct {
	consumeFn    func(ctx context.Context, linkID string) error
	consumeRecFn func(ctx context.Context, linkID string, event *model.ClickEvent) error
}

func (m *mockResolutionRepository) ConsumeClick(ctx context.Context, linkID string) error {
	if m.consumeFn != nil {
		return m.consumeFn(ctx, linkID)
	}
	return nil
}

func (m *mockResolutionRepository) ConsumeClickAndRecord(ctx context.Context, linkID string, event *model.ClickEvent) error {
	if m.consumeRecFn != nil {
		return m.consumeRecFn(ctx, linkID, event)
	}
	return nil
}

func TestSyncClickRecorder_Success(t *testing.T) {
	recorded := false
	repo := &mockResolutionRepository{
		consumeRecFn: func(ctx context.Context, linkID string, event *model.ClickEvent) error {
			recorded = true
			return nil
		},
	}

	r := NewSyncClickRecorder(repo, false, nil)
	if err := r.ConsumeAndRecord(context.Background(), &model.ClickEvent{LinkID: "link-1"}); err != nil {
		t.Fatalf("ConsumeAndRecord error: %v", err)
	}
	if !recorded {
		t.Fatal("expected the transactional path to run")
	}
}

func TestSyncClickRecorder_CapPassesThrough(t *testing.T) {
	repo := &mockResolutionRepository{
		consumeRecFn: func(ctx context.Context, linkID string, event *model.ClickEvent) error {
			return repository.ErrLinkCapReached
		},
	}

	r := NewSyncClickRecorder(repo, false, nil)
	err := r.ConsumeAndRecord(context.Background(), &model.ClickEvent{LinkID: "link-1"})
	if !errors.Is(err, repository.ErrLinkCapReached) {
		t.Fatalf("expected ErrLinkCapReached, got %v", err)
	}
}

func TestSyncClickRecorder_FailsClosed(t *testing.T) {
	repo := &mockResolutionRepository{
		consumeRecFn: func(ctx context.Context, linkID string, event *model.ClickEvent) error {
			return errors.New("insert failed")
		},
	}

	r := NewSyncClickRecorder(repo, false, nil)
	if err := r.ConsumeAndRecord(context.Background(), &model.ClickEvent{LinkID: "link-1"}); err == nil {
		t.Fatal("expected the resolution to fail when the event cannot be stored")
	}
}

// Best-effort degrades to a bare counter consume so the redirect stays
// alive and the cap still holds.
func TestSyncClickRecorder_BestEffortFallback(t *testing.T) {
	consumed := false
	repo := &mockResolutionRepository{
		consumeRecFn: func(ctx context.Context, linkID string, event *model.ClickEvent) error {
			return errors.New("insert failed")
		},
		consumeFn: func(ctx context.Context, linkID string) error {
			consumed = true
			return nil
		},
	}

	r := NewSyncClickRecorder(repo, true, nil)
	if err := r.ConsumeAndRecord(context.Background(), &model.ClickEvent{LinkID: "link-1"}); err != nil {
		t.Fatalf("ConsumeAndRecord error: %v", err)
	}
	if !consumed {
		t.Fatal("expected the bare consume fallback to run")
	}
}

func TestSyncClickRecorder_BestEffortStillHoldsCap(t *testing.T) {
	repo := &mockResolutionRepository{
		consumeRecFn: func(ctx context.Context, linkID string, event *model.ClickEvent) error {
			return errors.New("insert failed")
		},
		consumeFn: func(ctx context.Context, linkID string) error {
			return repository.ErrLinkCapReached
		},
	}

	r := NewSyncClickRecorder(repo, true, nil)
	err := r.ConsumeAndRecord(context.Background(), &model.ClickEvent{LinkID: "link-1"})
	if !errors.Is(err, repository.ErrLinkCapReached) {
		t.Fatalf("expected ErrLinkCapReached, got %v", err)
	}
}
