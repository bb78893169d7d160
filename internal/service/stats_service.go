package service

import (
	"context"
	"strconv"
	"time"

	"pagepilot/internal/domain"
	"pagepilot/internal/repository"
	"pagepilot/pkg/logger"
	"pagepilot/pkg/redis"
)

const dateLayout = "2006-01-02"

// statsService serves distinct-visitor counts with a bounded-TTL cache in
// front of the view store. The cache is best effort; every read falls back
// cleanly to the database.
type statsService struct {
	viewRepo    repository.ViewRepository
	redisClient *redis.Client
	logger      *logger.Logger
	now         func() time.Time
}

// NewStatsService creates a new stats service. redisClient may be nil.
func NewStatsService(viewRepo repository.ViewRepository, redisClient *redis.Client, log *logger.Logger) StatsService {
	return &statsService{
		viewRepo:    viewRepo,
		redisClient: redisClient,
		logger:      log,
		now:         time.Now,
	}
}

// PostViewsForDay counts distinct visitors of one post on the day the
// timestamp falls in (UTC)
func (s *statsService) PostViewsForDay(ctx context.Context, postID, timestamp int64) (int64, error) {
	day := time.Unix(timestamp, 0).UTC()
	return s.postViews(ctx, postID, day, day)
}

// PostViewsForMonth counts distinct visitors of one post over the calendar
// month the timestamp falls in (UTC)
func (s *statsService) PostViewsForMonth(ctx context.Context, postID, timestamp int64) (int64, error) {
	start, end := monthBounds(time.Unix(timestamp, 0).UTC())
	return s.postViews(ctx, postID, start, end)
}

// SiteViewsForDay counts distinct visitors sitewide on the day the
// timestamp falls in (UTC)
func (s *statsService) SiteViewsForDay(ctx context.Context, timestamp int64) (int64, error) {
	day := time.Unix(timestamp, 0).UTC()
	return s.siteViews(ctx, day, day)
}

// SiteStats returns today's and the current month's sitewide counts
func (s *statsService) SiteStats(ctx context.Context) (*domain.SiteStats, error) {
	now := s.now().UTC()

	today, err := s.siteViews(ctx, now, now)
	if err != nil {
		return nil, err
	}

	start, end := monthBounds(now)
	monthly, err := s.siteViews(ctx, start, end)
	if err != nil {
		return nil, err
	}

	return &domain.SiteStats{Today: today, Monthly: monthly}, nil
}

// postViews serves one post's distinct-visitor count for an inclusive range
func (s *statsService) postViews(ctx context.Context, postID int64, start, end time.Time) (int64, error) {
	var cacheKey string
	if s.redisClient != nil {
		cacheKey = s.redisClient.KeyBuilder.KeyStatsPost(postID, start.Format(dateLayout), end.Format(dateLayout))
		if count, ok := s.cachedCount(ctx, cacheKey); ok {
			return count, nil
		}
	}

	count, err := s.viewRepo.CountDistinctVisitors(ctx, postID, start, end)
	if err != nil {
		return 0, err
	}

	s.cacheCount(ctx, cacheKey, count)
	return count, nil
}

// siteViews serves the sitewide distinct-visitor count for an inclusive range
func (s *statsService) siteViews(ctx context.Context, start, end time.Time) (int64, error) {
	var cacheKey string
	if s.redisClient != nil {
		cacheKey = s.redisClient.KeyBuilder.KeyStatsSite(start.Format(dateLayout), end.Format(dateLayout))
		if count, ok := s.cachedCount(ctx, cacheKey); ok {
			return count, nil
		}
	}

	count, err := s.viewRepo.CountDistinctVisitorsSitewide(ctx, start, end)
	if err != nil {
		return 0, err
	}

	s.cacheCount(ctx, cacheKey, count)
	return count, nil
}

// cachedCount reads a counter from the cache; any miss or error means the
// caller goes to the database
func (s *statsService) cachedCount(ctx context.Context, key string) (int64, bool) {
	val, err := s.redisClient.Get(ctx, key)
	if err != nil {
		if !redis.IsCacheMiss(err) {
			s.logger.WithError(err).Debug("Stats cache read failed")
		}
		return 0, false
	}

	count, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false
	}
	return count, true
}

// cacheCount stores a counter with the stats TTL, best effort
func (s *statsService) cacheCount(ctx context.Context, key string, count int64) {
	if s.redisClient == nil || key == "" {
		return
	}
	if err := s.redisClient.Set(ctx, key, count, redis.TTLStats); err != nil {
		s.logger.WithError(err).Debug("Stats cache write failed")
	}
}

// monthBounds returns the first and last day of t's calendar month
func monthBounds(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, -1)
	return start, end
}
