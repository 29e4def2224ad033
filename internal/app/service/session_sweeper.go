package service

import (
	"context"
	"time"

	infraProm "github.com/pailler/qrlink/internal/infra/prometheus"
	"go.uber.org/zap"
)

// SessionSweeper periodically hard-deletes expired and deactivated
// sessions. Safe to run alongside live validation and safe to run twice:
// a second pass just finds nothing left to delete.
type SessionSweeper struct {
	logger   *zap.Logger
	sessions SessionService
	interval time.Duration
	stopChan chan struct{}
}

// NewSessionSweeper creates a sweeper that runs every interval.
func NewSessionSweeper(logger *zap.Logger, sessions SessionService, interval time.Duration) *SessionSweeper {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &SessionSweeper{
		logger:   logger,
		sessions: sessions,
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

// Start begins the periodic sweep.
func (s *SessionSweeper) Start() {
	go s.run()
}

// Stop stops the periodic sweep.
func (s *SessionSweeper) Stop() {
	close(s.stopChan)
}

func (s *SessionSweeper) run() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.stopChan:
			s.logger.Info("session sweeper stopped")
			return
		}
	}
}

func (s *SessionSweeper) sweep() {
	ctx := context.Background()

	removed, err := s.sessions.SweepExpired(ctx)
	if err != nil {
		// Logged and retried on the next tick; request-path validation
		// is unaffected.
		s.logger.Error("session sweep failed", zap.Error(err))
		return
	}

	if removed > 0 {
		infraProm.SessionsSweptTotal.Add(float64(removed))
		s.logger.Info("swept expired sessions", zap.Int64("count", removed))
	}
}
