package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"pagepilot/internal/domain"
	"pagepilot/internal/repository"
	"pagepilot/pkg/logger"
	"pagepilot/pkg/redis"
)

// Aggregation schedule (UTC). Daily runs shortly after midnight so
// yesterday's window is closed; monthly runs on the 1st for last month.
const (
	dailyCronSpec   = "10 0 * * *"
	monthlyCronSpec = "30 0 1 * *"

	// retentionMonths is how long detail rows are kept before the monthly
	// job prunes them
	retentionMonths = 3

	// jobTimeout bounds a single aggregation run
	jobTimeout = 5 * time.Minute
)

// AggregationScheduler owns the recurring rollup jobs. Both jobs recompute
// and overwrite their window, so re-running either is safe.
type AggregationScheduler struct {
	viewRepo    repository.ViewRepository
	postRepo    repository.PostRepository
	redisClient *redis.Client
	logger      *logger.Logger
	cron        *cron.Cron
	now         func() time.Time

	mu        sync.Mutex
	isRunning bool
}

// NewAggregationScheduler creates a new aggregation scheduler.
// redisClient may be nil.
func NewAggregationScheduler(
	viewRepo repository.ViewRepository,
	postRepo repository.PostRepository,
	redisClient *redis.Client,
	log *logger.Logger,
) *AggregationScheduler {
	cronLog := cron.PrintfLogger(zap.NewStdLog(log.Logger))

	return &AggregationScheduler{
		viewRepo:    viewRepo,
		postRepo:    postRepo,
		redisClient: redisClient,
		logger:      log,
		now:         time.Now,
		cron: cron.New(
			cron.WithLocation(time.UTC),
			// At most one concurrent run per job kind
			cron.WithChain(cron.SkipIfStillRunning(cronLog), cron.Recover(cronLog)),
		),
	}
}

// Start registers the daily and monthly jobs and starts the scheduler.
// Calling Start twice is a no-op.
func (s *AggregationScheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	if _, err := s.cron.AddFunc(dailyCronSpec, s.runJob("daily", s.RunDaily)); err != nil {
		return fmt.Errorf("failed to schedule daily aggregation: %w", err)
	}
	if _, err := s.cron.AddFunc(monthlyCronSpec, s.runJob("monthly", s.RunMonthly)); err != nil {
		return fmt.Errorf("failed to schedule monthly aggregation: %w", err)
	}

	s.cron.Start()
	s.isRunning = true
	s.logger.Info("Aggregation scheduler started")
	return nil
}

// Stop halts the scheduler and waits for a running job to finish
func (s *AggregationScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	<-s.cron.Stop().Done()
	s.isRunning = false
	s.logger.Info("Aggregation scheduler stopped")
}

// runJob wraps a job with a bounded context and failure logging. A failed
// run is retried implicitly by the next scheduled fire.
func (s *AggregationScheduler) runJob(kind string, job func(context.Context) error) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		if err := job(ctx); err != nil {
			s.logger.WithError(err).WithField("job", kind).Error("Aggregation run failed")
		}
	}
}

// RunDaily rolls up yesterday's closed window and overwrites each post's
// daily views meta
func (s *AggregationScheduler) RunDaily(ctx context.Context) error {
	yesterday := s.now().UTC().AddDate(0, 0, -1)

	counts, err := s.viewRepo.RollupDaily(ctx, yesterday)
	if err != nil {
		return fmt.Errorf("daily rollup failed: %w", err)
	}

	if err := s.postRepo.OverwriteMeta(ctx, domain.MetaViewsDaily, counts); err != nil {
		return fmt.Errorf("failed to overwrite daily views meta: %w", err)
	}

	s.invalidateStatsCache(ctx)

	s.logger.WithFields(map[string]interface{}{
		"date":  yesterday.Format(dateLayout),
		"posts": len(counts),
	}).Info("Daily aggregation complete")
	return nil
}

// RunMonthly rolls up last calendar month, overwrites the monthly views
// meta, and prunes detail rows past the retention window
func (s *AggregationScheduler) RunMonthly(ctx context.Context) error {
	now := s.now().UTC()
	thisMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	start := thisMonth.AddDate(0, -1, 0)
	end := thisMonth.AddDate(0, 0, -1)

	counts, err := s.viewRepo.RollupMonthly(ctx, start, end)
	if err != nil {
		return fmt.Errorf("monthly rollup failed: %w", err)
	}

	if err := s.postRepo.OverwriteMeta(ctx, domain.MetaViewsMonthly, counts); err != nil {
		return fmt.Errorf("failed to overwrite monthly views meta: %w", err)
	}

	cutoff := now.AddDate(0, -retentionMonths, 0)
	pruned, err := s.viewRepo.PruneOlderThan(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("failed to prune old views: %w", err)
	}

	s.invalidateStatsCache(ctx)

	s.logger.WithFields(map[string]interface{}{
		"month":  start.Format("2006-01"),
		"posts":  len(counts),
		"pruned": pruned,
	}).Info("Monthly aggregation complete")
	return nil
}

// invalidateStatsCache drops cached stats ranges after meta was overwritten
func (s *AggregationScheduler) invalidateStatsCache(ctx context.Context) {
	if s.redisClient == nil {
		return
	}

	for _, pattern := range []string{
		s.redisClient.KeyBuilder.PatternStatsPost(),
		s.redisClient.KeyBuilder.PatternStatsSite(),
	} {
		if err := s.redisClient.InvalidatePattern(ctx, pattern); err != nil {
			s.logger.WithError(err).Warn("Failed to invalidate stats cache")
		}
	}
}
