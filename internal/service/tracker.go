package service

import (
	"context"
	"fmt"
	"time"

	"pagepilot/internal/domain"
	"pagepilot/internal/repository"
	"pagepilot/pkg/logger"
	"pagepilot/pkg/redis"
)

// viewTracker is the request-time entry point for view counting. It filters
// bots and untracked posts, fingerprints the visitor, and records at most
// one row per visitor/post/day.
type viewTracker struct {
	viewRepo    repository.ViewRepository
	postRepo    repository.PostRepository
	redisClient *redis.Client
	fingerprint *Fingerprinter
	bots        BotClassifier
	logger      *logger.Logger
	now         func() time.Time
}

// NewViewTracker creates a new view tracker. redisClient may be nil; dedup
// then falls through to the database on every view.
func NewViewTracker(
	viewRepo repository.ViewRepository,
	postRepo repository.PostRepository,
	redisClient *redis.Client,
	fingerprint *Fingerprinter,
	bots BotClassifier,
	log *logger.Logger,
) ViewTracker {
	return &viewTracker{
		viewRepo:    viewRepo,
		postRepo:    postRepo,
		redisClient: redisClient,
		fingerprint: fingerprint,
		bots:        bots,
		logger:      log,
		now:         time.Now,
	}
}

// Track records one page view if it qualifies. Bot traffic and posts
// without the provenance marker leave no trace at all. All dates are UTC.
func (t *viewTracker) Track(ctx context.Context, postID int64, ipAddress, userAgent string) (bool, error) {
	if t.bots.IsBot(userAgent) {
		return false, nil
	}

	tracked, err := t.isTrackedPost(ctx, postID)
	if err != nil {
		return false, fmt.Errorf("failed to check post provenance: %w", err)
	}
	if !tracked {
		return false, nil
	}

	today := t.now().UTC().Truncate(24 * time.Hour)
	visitorHash := t.fingerprint.Hash(ipAddress, userAgent)

	// Cache first: a positive dedup marker means the row already exists and
	// the database round trip can be skipped. Cache errors fall through to
	// the store, which owns the uniqueness invariant.
	var seenKey string
	if t.redisClient != nil {
		seenKey = t.redisClient.KeyBuilder.KeyViewSeen(postID, today.Format("2006-01-02"), visitorHash)
		n, err := t.redisClient.Exists(ctx, seenKey)
		if err == nil && n > 0 {
			return false, nil
		}
	}

	inserted, err := t.viewRepo.RecordViewIfAbsent(ctx, postID, today, visitorHash)
	if err != nil {
		return false, fmt.Errorf("failed to record view: %w", err)
	}

	if t.redisClient != nil {
		// Mark the triple as seen whether we inserted or lost the race;
		// either way the row exists now
		if err := t.redisClient.Set(ctx, seenKey, 1, redis.TTLViewSeen); err != nil {
			t.logger.WithError(err).Debug("Failed to set view dedup marker")
		}
	}

	if inserted {
		t.logger.WithFields(map[string]interface{}{
			"post_id":      postID,
			"visitor_hash": visitorHash[:8] + "...",
		}).Debug("View recorded")
	}

	return inserted, nil
}

// isTrackedPost reports whether the post carries the provenance marker,
// consulting the cache before the database
func (t *viewTracker) isTrackedPost(ctx context.Context, postID int64) (bool, error) {
	var cacheKey string
	if t.redisClient != nil {
		cacheKey = t.redisClient.KeyBuilder.KeyPostProvenance(postID)
		if val, err := t.redisClient.Get(ctx, cacheKey); err == nil {
			return val == "1", nil
		}
	}

	has, err := t.postRepo.HasMeta(ctx, postID, domain.MetaProvenance)
	if err != nil {
		return false, err
	}

	if t.redisClient != nil {
		val := "0"
		if has {
			val = "1"
		}
		if err := t.redisClient.Set(ctx, cacheKey, val, redis.TTLProvenance); err != nil {
			t.logger.WithError(err).Debug("Failed to cache post provenance")
		}
	}

	return has, nil
}
