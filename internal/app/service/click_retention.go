package service

import (
	"context"
	"time"

	apprepository "github.com/pailler/qrlink/internal/app/repository"
	infraProm "github.com/pailler/qrlink/internal/infra/prometheus"
	"go.uber.org/zap"
)

// ClickRetentionJob periodically deletes click events older than the
// configured horizon. The ledger is append-only otherwise.
type ClickRetentionJob struct {
	logger        *zap.Logger
	repo          apprepository.ClickEventRepository
	retentionDays int
	interval      time.Duration
	stopChan      chan struct{}
}

// NewClickRetentionJob creates the job. retentionDays must be positive;
// callers disable retention by not starting the job.
func NewClickRetentionJob(logger *zap.Logger, repo apprepository.ClickEventRepository, retentionDays int, interval time.Duration) *ClickRetentionJob {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &ClickRetentionJob{
		logger:        logger,
		repo:          repo,
		retentionDays: retentionDays,
		interval:      interval,
		stopChan:      make(chan struct{}),
	}
}

// Start begins the periodic purge.
func (j *ClickRetentionJob) Start() {
	go j.run()
}

// Stop stops the periodic purge.
func (j *ClickRetentionJob) Stop() {
	close(j.stopChan)
}

func (j *ClickRetentionJob) run() {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			j.purge()
		case <-j.stopChan:
			j.logger.Info("click retention job stopped")
			return
		}
	}
}

func (j *ClickRetentionJob) purge() {
	ctx := context.Background()
	cutoff := time.Now().AddDate(0, 0, -j.retentionDays)

	removed, err := j.repo.PurgeOlderThan(ctx, cutoff)
	if err != nil {
		j.logger.Error("click retention purge failed", zap.Error(err))
		return
	}

	if removed > 0 {
		infraProm.ClicksPurgedTotal.Add(float64(removed))
		j.logger.Info("purged old click events",
			zap.Int64("count", removed),
			zap.Time("cutoff", cutoff),
		)
	}
}
