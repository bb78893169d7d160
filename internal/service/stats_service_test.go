package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedViews(repo *fakeViewRepo, postID int64, day string, hashes ...string) {
	for _, h := range hashes {
		d, _ := time.Parse("2006-01-02", day)
		_, _ = repo.RecordViewIfAbsent(context.Background(), postID, d, h)
	}
}

func TestPostViewsForDay(t *testing.T) {
	viewRepo := &fakeViewRepo{}
	seedViews(viewRepo, 7, "2025-06-15", "aaa", "bbb")
	seedViews(viewRepo, 7, "2025-06-16", "ccc")
	seedViews(viewRepo, 8, "2025-06-15", "ddd")

	svc := NewStatsService(viewRepo, nil, newTestLogger(t))

	ts := time.Date(2025, 6, 15, 17, 30, 0, 0, time.UTC).Unix()
	count, err := svc.PostViewsForDay(context.Background(), 7, ts)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestPostViewsForMonth(t *testing.T) {
	viewRepo := &fakeViewRepo{}
	seedViews(viewRepo, 7, "2025-06-01", "aaa")
	seedViews(viewRepo, 7, "2025-06-30", "bbb")
	seedViews(viewRepo, 7, "2025-07-01", "ccc")

	svc := NewStatsService(viewRepo, nil, newTestLogger(t))

	ts := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC).Unix()
	count, err := svc.PostViewsForMonth(context.Background(), 7, ts)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count, "July rows must not leak into June")
}

func TestSiteViewsForDayCountsDistinctAcrossPosts(t *testing.T) {
	viewRepo := &fakeViewRepo{}
	// Same visitor on two posts counts once sitewide
	seedViews(viewRepo, 7, "2025-06-15", "aaa")
	seedViews(viewRepo, 8, "2025-06-15", "aaa", "bbb")

	svc := NewStatsService(viewRepo, nil, newTestLogger(t))

	ts := time.Date(2025, 6, 15, 8, 0, 0, 0, time.UTC).Unix()
	count, err := svc.SiteViewsForDay(context.Background(), ts)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestSiteStats(t *testing.T) {
	viewRepo := &fakeViewRepo{}
	seedViews(viewRepo, 7, "2025-06-15", "aaa", "bbb")
	seedViews(viewRepo, 7, "2025-06-01", "ccc")

	svc := NewStatsService(viewRepo, nil, newTestLogger(t)).(*statsService)
	svc.now = func() time.Time { return time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC) }

	stats, err := svc.SiteStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.Today)
	assert.Equal(t, int64(3), stats.Monthly)
}

func TestPostViewsUsesCache(t *testing.T) {
	viewRepo := &fakeViewRepo{}
	seedViews(viewRepo, 7, "2025-06-15", "aaa", "bbb")

	_, redisClient := newTestRedis(t)
	svc := NewStatsService(viewRepo, redisClient, newTestLogger(t))

	ts := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC).Unix()
	ctx := context.Background()

	count, err := svc.PostViewsForDay(ctx, 7, ts)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	// New rows are invisible until the cache entry expires
	seedViews(viewRepo, 7, "2025-06-15", "ccc")
	count, err = svc.PostViewsForDay(ctx, 7, ts)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count, "cached value should be served within TTL")
}

func TestStatsCacheExpiryFallsBackToStore(t *testing.T) {
	viewRepo := &fakeViewRepo{}
	seedViews(viewRepo, 7, "2025-06-15", "aaa")

	mr, redisClient := newTestRedis(t)
	svc := NewStatsService(viewRepo, redisClient, newTestLogger(t))

	ts := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC).Unix()
	ctx := context.Background()

	_, err := svc.PostViewsForDay(ctx, 7, ts)
	require.NoError(t, err)

	seedViews(viewRepo, 7, "2025-06-15", "bbb")
	mr.FastForward(2 * time.Hour)

	count, err := svc.PostViewsForDay(ctx, 7, ts)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestMonthBounds(t *testing.T) {
	tests := []struct {
		name  string
		in    time.Time
		start string
		end   string
	}{
		{
			name:  "Mid-month",
			in:    time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC),
			start: "2025-06-01",
			end:   "2025-06-30",
		},
		{
			name:  "February non-leap",
			in:    time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC),
			start: "2025-02-01",
			end:   "2025-02-28",
		},
		{
			name:  "February leap year",
			in:    time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
			start: "2024-02-01",
			end:   "2024-02-29",
		},
		{
			name:  "December crosses year end",
			in:    time.Date(2025, 12, 31, 23, 59, 59, 0, time.UTC),
			start: "2025-12-01",
			end:   "2025-12-31",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := monthBounds(tt.in)
			assert.Equal(t, tt.start, start.Format("2006-01-02"))
			assert.Equal(t, tt.end, end.Format("2006-01-02"))
		})
	}
}
