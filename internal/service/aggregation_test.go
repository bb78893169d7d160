package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pagepilot/internal/domain"
)

func newTestScheduler(t *testing.T, viewRepo *fakeViewRepo, postRepo *fakePostRepo, now time.Time) *AggregationScheduler {
	t.Helper()

	s := NewAggregationScheduler(viewRepo, postRepo, nil, newTestLogger(t))
	s.now = func() time.Time { return now }
	return s
}

func TestRunDailyOverwritesMeta(t *testing.T) {
	viewRepo := &fakeViewRepo{}
	postRepo := newFakePostRepo()

	// Yesterday relative to the fixed clock
	seedViews(viewRepo, 7, "2025-06-14", "aaa", "bbb", "ccc")
	seedViews(viewRepo, 8, "2025-06-14", "ddd")
	// Today's open window must not be rolled up
	seedViews(viewRepo, 7, "2025-06-15", "eee")

	s := newTestScheduler(t, viewRepo, postRepo, time.Date(2025, 6, 15, 0, 10, 0, 0, time.UTC))

	require.NoError(t, s.RunDaily(context.Background()))
	assert.Equal(t, "3", postRepo.metaValue(7, domain.MetaViewsDaily))
	assert.Equal(t, "1", postRepo.metaValue(8, domain.MetaViewsDaily))
}

func TestRunDailyIsIdempotent(t *testing.T) {
	viewRepo := &fakeViewRepo{}
	postRepo := newFakePostRepo()
	seedViews(viewRepo, 7, "2025-06-14", "aaa", "bbb")

	s := newTestScheduler(t, viewRepo, postRepo, time.Date(2025, 6, 15, 0, 10, 0, 0, time.UTC))

	require.NoError(t, s.RunDaily(context.Background()))
	first := postRepo.metaValue(7, domain.MetaViewsDaily)

	require.NoError(t, s.RunDaily(context.Background()))
	assert.Equal(t, first, postRepo.metaValue(7, domain.MetaViewsDaily),
		"re-running the same window must produce the same value")
}

func TestRunMonthlyRollsUpLastMonth(t *testing.T) {
	viewRepo := &fakeViewRepo{}
	postRepo := newFakePostRepo()

	seedViews(viewRepo, 7, "2025-05-01", "aaa")
	seedViews(viewRepo, 7, "2025-05-31", "bbb")
	seedViews(viewRepo, 7, "2025-06-01", "ccc") // current month, out of window

	s := newTestScheduler(t, viewRepo, postRepo, time.Date(2025, 6, 1, 0, 30, 0, 0, time.UTC))

	require.NoError(t, s.RunMonthly(context.Background()))
	assert.Equal(t, "2", postRepo.metaValue(7, domain.MetaViewsMonthly))
}

func TestRunMonthlyPrunesRetentionWindow(t *testing.T) {
	viewRepo := &fakeViewRepo{}
	postRepo := newFakePostRepo()

	// Exactly three months before the fixed clock is the cutoff; rows on
	// the cutoff day stay, older rows go
	seedViews(viewRepo, 7, "2025-02-28", "old")
	seedViews(viewRepo, 7, "2025-03-01", "boundary")
	seedViews(viewRepo, 7, "2025-05-20", "recent")

	s := newTestScheduler(t, viewRepo, postRepo, time.Date(2025, 6, 1, 0, 30, 0, 0, time.UTC))

	require.NoError(t, s.RunMonthly(context.Background()))

	var dates []string
	for _, r := range viewRepo.rows {
		dates = append(dates, r.date)
	}
	assert.ElementsMatch(t, []string{"2025-03-01", "2025-05-20"}, dates)
}

func TestRunDailyLeavesMetaOnRollupFailure(t *testing.T) {
	viewRepo := &fakeViewRepo{failWith: assert.AnError}
	postRepo := newFakePostRepo()

	s := newTestScheduler(t, viewRepo, postRepo, time.Date(2025, 6, 15, 0, 10, 0, 0, time.UTC))

	assert.Error(t, s.RunDaily(context.Background()))
	assert.Zero(t, postRepo.metaCalls, "meta must not be touched when the rollup fails")
}

func TestSchedulerStartTwiceIsNoop(t *testing.T) {
	viewRepo := &fakeViewRepo{}
	postRepo := newFakePostRepo()

	s := newTestScheduler(t, viewRepo, postRepo, time.Now().UTC())
	defer s.Stop()

	require.NoError(t, s.Start())
	require.NoError(t, s.Start())
	assert.Len(t, s.cron.Entries(), 2, "jobs must be registered exactly once")
}
