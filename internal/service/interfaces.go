package service

import (
	"context"

	"pagepilot/internal/domain"
)

// ViewTracker defines the interface for the request-time tracking entry point
type ViewTracker interface {
	// Track records one page view if it qualifies; reports whether a new
	// row was stored
	Track(ctx context.Context, postID int64, ipAddress, userAgent string) (bool, error)
}

// StatsService defines the interface for analytics reads
type StatsService interface {
	// PostViewsForDay counts distinct visitors of one post on the day the
	// timestamp falls in
	PostViewsForDay(ctx context.Context, postID, timestamp int64) (int64, error)

	// PostViewsForMonth counts distinct visitors of one post over the
	// calendar month the timestamp falls in
	PostViewsForMonth(ctx context.Context, postID, timestamp int64) (int64, error)

	// SiteViewsForDay counts distinct visitors sitewide on the day the
	// timestamp falls in
	SiteViewsForDay(ctx context.Context, timestamp int64) (int64, error)

	// SiteStats returns today's and the current month's sitewide counts
	SiteStats(ctx context.Context) (*domain.SiteStats, error)
}

// KeyExchange defines the interface for the activation handshake
type KeyExchange interface {
	// Activate exchanges a human-entered activation code for the public and
	// private API secrets and stores their hashes; returns a user-facing
	// success message
	Activate(ctx context.Context, activationCode string, reconnect bool) (string, error)
}

// AuthGate defines the interface for bearer token verification
type AuthGate interface {
	// Verify checks a bearer token against the stored secret of the tier
	Verify(ctx context.Context, tier domain.Tier, token string) error
}

// BotClassifier decides whether a request comes from a non-human agent.
// Pluggable so the substring heuristic can be swapped without touching the
// tracker.
type BotClassifier interface {
	IsBot(userAgent string) bool
}

// Services aggregates all service interfaces
type Services struct {
	Tracker     ViewTracker
	Stats       StatsService
	KeyExchange KeyExchange
	Auth        AuthGate
}
