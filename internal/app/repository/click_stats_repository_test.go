package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v3"
)

// The bucket query must restrict rows to the trailing window and hand
// buckets back newest first. The mock matches on both clauses, so a
// regression in either breaks the expectation.
func TestByTimeBucketOrdersDescendingWithinWindow(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("new mock pool: %v", err)
	}
	defer mock.Close()

	window, err := NewWindow(30)
	if err != nil {
		t.Fatalf("new window: %v", err)
	}

	newer := time.Date(2026, time.August, 29, 0, 0, 0, 0, time.UTC)
	older := time.Date(2026, time.August, 27, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`(?s)occurred_at >= now\(\) - \(\$3 \* interval '1 day'\).*ORDER BY 1 DESC`).
		WithArgs("link-1", "day", 30).
		WillReturnRows(pgxmock.NewRows([]string{"bucket_start", "clicks", "unique_visitors"}).
			AddRow(newer, int64(5), int64(3)).
			AddRow(older, int64(2), int64(1)))

	repo := &clickStatsRepository{pool: mock}
	buckets, err := repo.ByTimeBucket(context.Background(), LinkScope("link-1"), GranularityDay, window)
	if err != nil {
		t.Fatalf("ByTimeBucket: %v", err)
	}
	if len(buckets) != 2 {
		t.Fatalf("expected 2 buckets, got %d", len(buckets))
	}
	if !buckets[0].BucketStart.Equal(newer) || !buckets[1].BucketStart.Equal(older) {
		t.Fatalf("buckets out of order: %v then %v", buckets[0].BucketStart, buckets[1].BucketStart)
	}
	if buckets[0].Clicks != 5 || buckets[0].UniqueVisitors != 3 {
		t.Fatalf("unexpected first bucket: %+v", buckets[0])
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestByTimeBucketRejectsUnknownGranularity(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("new mock pool: %v", err)
	}
	defer mock.Close()

	window, err := NewWindow(7)
	if err != nil {
		t.Fatalf("new window: %v", err)
	}

	repo := &clickStatsRepository{pool: mock}
	_, err = repo.ByTimeBucket(context.Background(), LinkScope("link-1"), Granularity("minute"), window)
	if !errors.Is(err, ErrInvalidGranularity) {
		t.Fatalf("expected ErrInvalidGranularity, got %v", err)
	}

	// The guard must reject before any SQL runs.
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unexpected query issued: %v", err)
	}
}

func TestHourOfDayDistributionPassesWindow(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("new mock pool: %v", err)
	}
	defer mock.Close()

	window, err := NewWindow(7)
	if err != nil {
		t.Fatalf("new window: %v", err)
	}

	mock.ExpectQuery(`(?s)EXTRACT\(HOUR FROM occurred_at\).*occurred_at >= now\(\) - \(\$2 \* interval '1 day'\).*ORDER BY 1 ASC`).
		WithArgs("link-1", 7).
		WillReturnRows(pgxmock.NewRows([]string{"key", "clicks"}).
			AddRow(9, int64(4)).
			AddRow(17, int64(2)))

	repo := &clickStatsRepository{pool: mock}
	buckets, err := repo.HourOfDayDistribution(context.Background(), LinkScope("link-1"), window)
	if err != nil {
		t.Fatalf("HourOfDayDistribution: %v", err)
	}
	if len(buckets) != 2 || buckets[0].Key != 9 || buckets[1].Key != 17 {
		t.Fatalf("unexpected buckets: %+v", buckets)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
