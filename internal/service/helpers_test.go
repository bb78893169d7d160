package service

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"pagepilot/internal/domain"
	"pagepilot/pkg/logger"
	"pagepilot/pkg/redis"
)

// newTestLogger returns a quiet logger for tests
func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	return &logger.Logger{Logger: zap.NewNop()}
}

// newTestRedis spins up a miniredis-backed client
func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client, err := redis.NewClient("redis://"+mr.Addr(), "test", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	return mr, client
}

// viewRow is one stored (post, day, visitor) triple
type viewRow struct {
	postID int64
	date   string
	hash   string
}

// fakeViewRepo is an in-memory ViewRepository honoring the uniqueness
// invariant
type fakeViewRepo struct {
	mu          sync.Mutex
	rows        []viewRow
	recordCalls int
	failWith    error
}

func (f *fakeViewRepo) RecordViewIfAbsent(_ context.Context, postID int64, date time.Time, hash string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.recordCalls++
	if f.failWith != nil {
		return false, f.failWith
	}

	day := date.Format("2006-01-02")
	for _, r := range f.rows {
		if r.postID == postID && r.date == day && r.hash == hash {
			return false, nil
		}
	}

	f.rows = append(f.rows, viewRow{postID: postID, date: day, hash: hash})
	return true, nil
}

func (f *fakeViewRepo) CountDistinctVisitors(_ context.Context, postID int64, start, end time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failWith != nil {
		return 0, f.failWith
	}

	seen := map[string]struct{}{}
	for _, r := range f.rows {
		if r.postID == postID && inRange(r.date, start, end) {
			seen[r.hash] = struct{}{}
		}
	}
	return int64(len(seen)), nil
}

func (f *fakeViewRepo) CountDistinctVisitorsSitewide(_ context.Context, start, end time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failWith != nil {
		return 0, f.failWith
	}

	seen := map[string]struct{}{}
	for _, r := range f.rows {
		if inRange(r.date, start, end) {
			seen[r.hash] = struct{}{}
		}
	}
	return int64(len(seen)), nil
}

func (f *fakeViewRepo) PruneOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failWith != nil {
		return 0, f.failWith
	}

	day := cutoff.Format("2006-01-02")
	var kept []viewRow
	var pruned int64
	for _, r := range f.rows {
		if r.date < day {
			pruned++
			continue
		}
		kept = append(kept, r)
	}
	f.rows = kept
	return pruned, nil
}

func (f *fakeViewRepo) RollupDaily(_ context.Context, date time.Time) ([]domain.PostViewCount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failWith != nil {
		return nil, f.failWith
	}

	day := date.Format("2006-01-02")
	perPost := map[int64]map[string]struct{}{}
	for _, r := range f.rows {
		if r.date != day {
			continue
		}
		if perPost[r.postID] == nil {
			perPost[r.postID] = map[string]struct{}{}
		}
		perPost[r.postID][r.hash] = struct{}{}
	}

	return toCounts(perPost), nil
}

func (f *fakeViewRepo) RollupMonthly(_ context.Context, start, end time.Time) ([]domain.PostViewCount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failWith != nil {
		return nil, f.failWith
	}

	perPost := map[int64]map[string]struct{}{}
	for _, r := range f.rows {
		if !inRange(r.date, start, end) {
			continue
		}
		if perPost[r.postID] == nil {
			perPost[r.postID] = map[string]struct{}{}
		}
		perPost[r.postID][r.date+"|"+r.hash] = struct{}{}
	}

	return toCounts(perPost), nil
}

func inRange(day string, start, end time.Time) bool {
	return day >= start.Format("2006-01-02") && day <= end.Format("2006-01-02")
}

func toCounts(perPost map[int64]map[string]struct{}) []domain.PostViewCount {
	var counts []domain.PostViewCount
	for postID, set := range perPost {
		counts = append(counts, domain.PostViewCount{PostID: postID, Views: int64(len(set))})
	}
	return counts
}

// fakePostRepo is an in-memory PostRepository covering meta operations
type fakePostRepo struct {
	mu        sync.Mutex
	meta      map[int64]map[string]string
	metaCalls int
	failWith  error
}

func newFakePostRepo() *fakePostRepo {
	return &fakePostRepo{meta: map[int64]map[string]string{}}
}

func (f *fakePostRepo) markTracked(postID int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.meta[postID] == nil {
		f.meta[postID] = map[string]string{}
	}
	f.meta[postID][domain.MetaProvenance] = "1"
}

func (f *fakePostRepo) metaValue(postID int64, key string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.meta[postID][key]
}

func (f *fakePostRepo) Create(_ context.Context, post *domain.Post) error {
	post.ID = 1
	f.markTracked(post.ID)
	return nil
}

func (f *fakePostRepo) Update(_ context.Context, _ *domain.UpdateRequest) error { return nil }
func (f *fakePostRepo) Delete(_ context.Context, _ int64) error                 { return nil }
func (f *fakePostRepo) GetByID(_ context.Context, _ int64) (*domain.Post, error) {
	return nil, nil
}
func (f *fakePostRepo) List(_ context.Context, _, _ int) ([]*domain.Post, error) {
	return nil, nil
}
func (f *fakePostRepo) Categories(_ context.Context) ([]*domain.Category, error) {
	return nil, nil
}

func (f *fakePostRepo) HasMeta(_ context.Context, postID int64, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failWith != nil {
		return false, f.failWith
	}
	_, ok := f.meta[postID][key]
	return ok, nil
}

func (f *fakePostRepo) OverwriteMeta(_ context.Context, key string, counts []domain.PostViewCount) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.metaCalls++
	if f.failWith != nil {
		return f.failWith
	}

	for _, c := range counts {
		if f.meta[c.PostID] == nil {
			f.meta[c.PostID] = map[string]string{}
		}
		f.meta[c.PostID][key] = formatViews(c.Views)
	}
	return nil
}

func formatViews(n int64) string {
	return strconv.FormatInt(n, 10)
}

// fakeOptionRepo is an in-memory OptionRepository with all-or-nothing writes
type fakeOptionRepo struct {
	mu       sync.Mutex
	values   map[string]string
	failWith error
}

func newFakeOptionRepo() *fakeOptionRepo {
	return &fakeOptionRepo{values: map[string]string{}}
}

func (f *fakeOptionRepo) Get(_ context.Context, name string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failWith != nil {
		return "", f.failWith
	}
	return f.values[name], nil
}

func (f *fakeOptionRepo) SetAll(_ context.Context, options map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failWith != nil {
		return f.failWith
	}
	for name, value := range options {
		f.values[name] = value
	}
	return nil
}
