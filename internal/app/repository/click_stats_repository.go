package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pailler/qrlink/internal/app/model"
)

// Aggregation inputs are closed sets so no caller-supplied string ever
// reaches SQL as anything but a bound parameter.

// Granularity selects the time-bucket width.
type Granularity string

const (
	GranularityHour  Granularity = "hour"
	GranularityDay   Granularity = "day"
	GranularityWeek  Granularity = "week"
	GranularityMonth Granularity = "month"
)

// Dimension selects the categorical column of a breakdown.
type Dimension string

const (
	DimensionCountry    Dimension = "country"
	DimensionCity       Dimension = "city"
	DimensionDeviceType Dimension = "device_type"
	DimensionBrowser    Dimension = "browser"
	DimensionOS         Dimension = "os"
)

var (
	// ErrInvalidGranularity signals a bucket width outside the closed set.
	ErrInvalidGranularity = errors.New("invalid time-bucket granularity")
	// ErrInvalidDimension signals a breakdown column outside the closed set.
	ErrInvalidDimension = errors.New("invalid breakdown dimension")
)

// Scope restricts an aggregation to the events of one link or one QR
// code. Only the two constructors can produce a valid scope, so the
// column name is never caller-controlled.
type Scope struct {
	column string
	id     string
}

// LinkScope aggregates over every click of a link.
func LinkScope(linkID string) Scope { return Scope{column: "link_id", id: linkID} }

// QRScope aggregates over the scans attributed to one QR code.
func QRScope(qrCodeID string) Scope { return Scope{column: "qr_code_id", id: qrCodeID} }

// ClickStatsRepository is the read side of the click ledger: pure
// aggregations over immutable rows, safe to run concurrently with
// appends.
type ClickStatsRepository interface {
	Summary(ctx context.Context, scope Scope) (*model.StatsSummary, error)
	ByTimeBucket(ctx context.Context, scope Scope, granularity Granularity, window Window) ([]model.TimeBucket, error)
	ByDimension(ctx context.Context, scope Scope, dimension Dimension) ([]model.DimensionCount, error)
	ByReferrerClass(ctx context.Context, scope Scope) ([]model.DimensionCount, error)
	HourOfDayDistribution(ctx context.Context, scope Scope, window Window) ([]model.DistributionBucket, error)
	DayOfWeekDistribution(ctx context.Context, scope Scope, window Window) ([]model.DistributionBucket, error)
	Realtime(ctx context.Context, scope Scope, windowHours int) (*model.RealtimeStats, error)
}

// statsPool is the slice of pgxpool.Pool the aggregations use. Tests
// substitute a mocked connection.
type statsPool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type clickStatsRepository struct {
	pool statsPool
}

// NewClickStatsRepository returns a pgx-backed ClickStatsRepository.
// Aggregations bypass the ORM on purpose: they are plain SQL rollups.
func NewClickStatsRepository(pool *pgxpool.Pool) ClickStatsRepository {
	return &clickStatsRepository{pool: pool}
}

func (r *clickStatsRepository) Summary(ctx context.Context, scope Scope) (*model.StatsSummary, error) {
	query := fmt.Sprintf(`
		SELECT COUNT(*),
		       COUNT(DISTINCT ip_address),
		       COUNT(DISTINCT date_trunc('day', occurred_at)),
		       MIN(occurred_at),
		       MAX(occurred_at)
		FROM click_events
		WHERE %s = $1`, scope.column)

	var summary model.StatsSummary
	err := r.pool.QueryRow(ctx, query, scope.id).Scan(
		&summary.TotalClicks,
		&summary.UniqueVisitors,
		&summary.ActiveDays,
		&summary.FirstClickAt,
		&summary.LastClickAt,
	)
	if err != nil {
		return nil, fmt.Errorf("click stats summary: %w", err)
	}
	return &summary, nil
}

func (r *clickStatsRepository) ByTimeBucket(ctx context.Context, scope Scope, granularity Granularity, window Window) ([]model.TimeBucket, error) {
	switch granularity {
	case GranularityHour, GranularityDay, GranularityWeek, GranularityMonth:
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidGranularity, granularity)
	}

	query := fmt.Sprintf(`
		SELECT date_trunc($2, occurred_at) AS bucket_start,
		       COUNT(*) AS clicks,
		       COUNT(DISTINCT ip_address) AS unique_visitors
		FROM click_events
		WHERE %s = $1
		  AND occurred_at >= now() - ($3 * interval '1 day')
		GROUP BY 1
		ORDER BY 1 DESC`, scope.column)

	rows, err := r.pool.Query(ctx, query, scope.id, string(granularity), window.Days())
	if err != nil {
		return nil, fmt.Errorf("click stats time buckets: %w", err)
	}
	defer rows.Close()

	var buckets []model.TimeBucket
	for rows.Next() {
		var b model.TimeBucket
		if err := rows.Scan(&b.BucketStart, &b.Clicks, &b.UniqueVisitors); err != nil {
			return nil, fmt.Errorf("click stats time buckets: %w", err)
		}
		buckets = append(buckets, b)
	}
	return buckets, rows.Err()
}

func (r *clickStatsRepository) ByDimension(ctx context.Context, scope Scope, dimension Dimension) ([]model.DimensionCount, error) {
	switch dimension {
	case DimensionCountry, DimensionCity, DimensionDeviceType, DimensionBrowser, DimensionOS:
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidDimension, dimension)
	}

	query := fmt.Sprintf(`
		SELECT %s AS value,
		       COUNT(*) AS clicks,
		       COUNT(DISTINCT ip_address) AS unique_visitors
		FROM click_events
		WHERE %s = $1 AND %s IS NOT NULL
		GROUP BY 1
		ORDER BY 2 DESC`, dimension, scope.column, dimension)

	return r.queryDimensionCounts(ctx, query, scope.id)
}

func (r *clickStatsRepository) ByReferrerClass(ctx context.Context, scope Scope) ([]model.DimensionCount, error) {
	// referrer_class is never null: Direct is written for empty
	// referrers at record time.
	query := fmt.Sprintf(`
		SELECT referrer_class AS value,
		       COUNT(*) AS clicks,
		       COUNT(DISTINCT ip_address) AS unique_visitors
		FROM click_events
		WHERE %s = $1
		GROUP BY 1
		ORDER BY 2 DESC`, scope.column)

	return r.queryDimensionCounts(ctx, query, scope.id)
}

func (r *clickStatsRepository) queryDimensionCounts(ctx context.Context, query, id string) ([]model.DimensionCount, error) {
	rows, err := r.pool.Query(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("click stats breakdown: %w", err)
	}
	defer rows.Close()

	var counts []model.DimensionCount
	for rows.Next() {
		var c model.DimensionCount
		if err := rows.Scan(&c.Value, &c.Clicks, &c.UniqueVisitors); err != nil {
			return nil, fmt.Errorf("click stats breakdown: %w", err)
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

func (r *clickStatsRepository) HourOfDayDistribution(ctx context.Context, scope Scope, window Window) ([]model.DistributionBucket, error) {
	query := fmt.Sprintf(`
		SELECT EXTRACT(HOUR FROM occurred_at)::int AS key,
		       COUNT(*) AS clicks
		FROM click_events
		WHERE %s = $1
		  AND occurred_at >= now() - ($2 * interval '1 day')
		GROUP BY 1
		ORDER BY 1 ASC`, scope.column)

	return r.queryDistribution(ctx, query, scope.id, window.Days())
}

func (r *clickStatsRepository) DayOfWeekDistribution(ctx context.Context, scope Scope, window Window) ([]model.DistributionBucket, error) {
	// ISODOW: Monday=1 .. Sunday=7.
	query := fmt.Sprintf(`
		SELECT EXTRACT(ISODOW FROM occurred_at)::int AS key,
		       COUNT(*) AS clicks
		FROM click_events
		WHERE %s = $1
		  AND occurred_at >= now() - ($2 * interval '1 day')
		GROUP BY 1
		ORDER BY 1 ASC`, scope.column)

	return r.queryDistribution(ctx, query, scope.id, window.Days())
}

func (r *clickStatsRepository) queryDistribution(ctx context.Context, query, id string, windowDays int) ([]model.DistributionBucket, error) {
	rows, err := r.pool.Query(ctx, query, id, windowDays)
	if err != nil {
		return nil, fmt.Errorf("click stats distribution: %w", err)
	}
	defer rows.Close()

	var buckets []model.DistributionBucket
	for rows.Next() {
		var b model.DistributionBucket
		if err := rows.Scan(&b.Key, &b.Clicks); err != nil {
			return nil, fmt.Errorf("click stats distribution: %w", err)
		}
		buckets = append(buckets, b)
	}
	return buckets, rows.Err()
}

func (r *clickStatsRepository) Realtime(ctx context.Context, scope Scope, windowHours int) (*model.RealtimeStats, error) {
	if windowHours < 1 || windowHours > 168 {
		return nil, fmt.Errorf("%w: %d hours (want 1..168)", ErrInvalidWindow, windowHours)
	}

	query := fmt.Sprintf(`
		SELECT COUNT(*),
		       COUNT(DISTINCT ip_address)
		FROM click_events
		WHERE %s = $1
		  AND occurred_at >= now() - ($2 * interval '1 hour')`, scope.column)

	stats := model.RealtimeStats{WindowHours: windowHours}
	err := r.pool.QueryRow(ctx, query, scope.id, windowHours).Scan(&stats.Clicks, &stats.UniqueVisitors)
	if err != nil {
		return nil, fmt.Errorf("click stats realtime: %w", err)
	}
	return &stats, nil
}
