package model

import "time"

// StatsSummary is the all-time rollup for one link or QR code.
type StatsSummary struct {
	TotalClicks    int64      `json:"total_clicks"`
	UniqueVisitors int64      `json:"unique_visitors"`
	ActiveDays     int64      `json:"active_days"`
	FirstClickAt   *time.Time `json:"first_click_at,omitempty"`
	LastClickAt    *time.Time `json:"last_click_at,omitempty"`
}

// TimeBucket is one point of a bucketed series, ordered newest first.
type TimeBucket struct {
	BucketStart    time.Time `json:"bucket_start"`
	Clicks         int64     `json:"clicks"`
	UniqueVisitors int64     `json:"unique_visitors"`
}

// DimensionCount is one row of a categorical breakdown (country, device
// type, browser, referrer class, ...), ordered by clicks descending.
type DimensionCount struct {
	Value          string `json:"value"`
	Clicks         int64  `json:"clicks"`
	UniqueVisitors int64  `json:"unique_visitors"`
}

// DistributionBucket is one slot of an hour-of-day (0-23) or ISO
// day-of-week (1-7) distribution, ordered by key ascending.
type DistributionBucket struct {
	Key    int   `json:"key"`
	Clicks int64 `json:"clicks"`
}

// RealtimeStats covers the trailing window of the realtime endpoint.
type RealtimeStats struct {
	WindowHours    int   `json:"window_hours"`
	Clicks         int64 `json:"clicks"`
	UniqueVisitors int64 `json:"unique_visitors"`
}
