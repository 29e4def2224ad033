package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/pailler/qrlink/internal/app/model"
	"github.com/pailler/qrlink/internal/app/repository"
)

// Timeframes accepted by the stats endpoints, mapped to window length
// and bucket width.
var timeframes = map[string]struct {
	days        int
	granularity repository.Granularity
}{
	"24h":  {1, repository.GranularityHour},
	"7d":   {7, repository.GranularityDay},
	"30d":  {30, repository.GranularityDay},
	"90d":  {90, repository.GranularityWeek},
	"365d": {365, repository.GranularityMonth},
}

const defaultTimeframe = "30d"

// StatsReport is the composite analytics payload for one link or QR
// code.
type StatsReport struct {
	Timeframe        string                     `json:"timeframe"`
	Summary          *model.StatsSummary        `json:"summary"`
	Buckets          []model.TimeBucket         `json:"buckets"`
	Countries        []model.DimensionCount     `json:"countries"`
	Cities           []model.DimensionCount     `json:"cities"`
	DeviceTypes      []model.DimensionCount     `json:"device_types"`
	Browsers         []model.DimensionCount     `json:"browsers"`
	OperatingSystems []model.DimensionCount     `json:"operating_systems"`
	ReferrerClasses  []model.DimensionCount     `json:"referrer_classes"`
	HourOfDay        []model.DistributionBucket `json:"hour_of_day"`
	DayOfWeek        []model.DistributionBucket `json:"day_of_week"`
}

// StatsService shapes ledger aggregations for the HTTP layer, enforcing
// ownership before any query runs.
type StatsService interface {
	LinkStats(ctx context.Context, principal Principal, linkID, timeframe string) (*StatsReport, error)
	QRStats(ctx context.Context, principal Principal, qrCodeID, timeframe string) (*StatsReport, error)
	LinkRealtime(ctx context.Context, principal Principal, linkID string, windowHours int) (*model.RealtimeStats, error)
}

type statsService struct {
	links   repository.LinkRepository
	qrCodes repository.QRCodeRepository
	stats   repository.ClickStatsRepository
}

// NewStatsService returns the repository-backed implementation.
func NewStatsService(links repository.LinkRepository, qrCodes repository.QRCodeRepository, stats repository.ClickStatsRepository) StatsService {
	return &statsService{links: links, qrCodes: qrCodes, stats: stats}
}

func (s *statsService) LinkStats(ctx context.Context, principal Principal, linkID, timeframe string) (*StatsReport, error) {
	if err := s.checkLinkOwnership(ctx, principal, linkID); err != nil {
		return nil, err
	}
	return s.report(ctx, repository.LinkScope(linkID), timeframe)
}

func (s *statsService) QRStats(ctx context.Context, principal Principal, qrCodeID, timeframe string) (*StatsReport, error) {
	record, err := s.qrCodes.GetByID(ctx, qrCodeID)
	if err != nil {
		if errors.Is(err, repository.ErrQRCodeNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get qr code: %w", err)
	}
	if err := s.checkLinkOwnership(ctx, principal, record.LinkID); err != nil {
		return nil, err
	}
	return s.report(ctx, repository.QRScope(qrCodeID), timeframe)
}

func (s *statsService) LinkRealtime(ctx context.Context, principal Principal, linkID string, windowHours int) (*model.RealtimeStats, error) {
	if err := s.checkLinkOwnership(ctx, principal, linkID); err != nil {
		return nil, err
	}
	if windowHours == 0 {
		windowHours = 1
	}

	stats, err := s.stats.Realtime(ctx, repository.LinkScope(linkID), windowHours)
	if err != nil {
		if errors.Is(err, repository.ErrInvalidWindow) {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		return nil, fmt.Errorf("%w: realtime stats: %v", ErrStorage, err)
	}
	return stats, nil
}

func (s *statsService) report(ctx context.Context, scope repository.Scope, timeframe string) (*StatsReport, error) {
	if timeframe == "" {
		timeframe = defaultTimeframe
	}
	frame, ok := timeframes[timeframe]
	if !ok {
		return nil, fmt.Errorf("%w: unknown timeframe %q", ErrValidation, timeframe)
	}
	window, err := repository.NewWindow(frame.days)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	report := &StatsReport{Timeframe: timeframe}

	if report.Summary, err = s.stats.Summary(ctx, scope); err != nil {
		return nil, fmt.Errorf("%w: summary: %v", ErrStorage, err)
	}
	if report.Buckets, err = s.stats.ByTimeBucket(ctx, scope, frame.granularity, window); err != nil {
		return nil, fmt.Errorf("%w: time buckets: %v", ErrStorage, err)
	}

	dimensions := []struct {
		dimension repository.Dimension
		target    *[]model.DimensionCount
	}{
		{repository.DimensionCountry, &report.Countries},
		{repository.DimensionCity, &report.Cities},
		{repository.DimensionDeviceType, &report.DeviceTypes},
		{repository.DimensionBrowser, &report.Browsers},
		{repository.DimensionOS, &report.OperatingSystems},
	}
	for _, d := range dimensions {
		counts, err := s.stats.ByDimension(ctx, scope, d.dimension)
		if err != nil {
			return nil, fmt.Errorf("%w: %s breakdown: %v", ErrStorage, d.dimension, err)
		}
		*d.target = counts
	}

	if report.ReferrerClasses, err = s.stats.ByReferrerClass(ctx, scope); err != nil {
		return nil, fmt.Errorf("%w: referrer breakdown: %v", ErrStorage, err)
	}
	if report.HourOfDay, err = s.stats.HourOfDayDistribution(ctx, scope, window); err != nil {
		return nil, fmt.Errorf("%w: hour distribution: %v", ErrStorage, err)
	}
	if report.DayOfWeek, err = s.stats.DayOfWeekDistribution(ctx, scope, window); err != nil {
		return nil, fmt.Errorf("%w: day distribution: %v", ErrStorage, err)
	}

	return report, nil
}

func (s *statsService) checkLinkOwnership(ctx context.Context, principal Principal, linkID string) error {
	link, err := s.links.GetByID(ctx, linkID)
	if err != nil {
		if errors.Is(err, repository.ErrLinkNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("load link: %w", err)
	}
	if !principal.owns(link) {
		return ErrNotFound
	}
	return nil
}
