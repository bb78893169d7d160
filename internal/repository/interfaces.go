package repository

import (
	"context"
	"time"

	"pagepilot/internal/domain"
)

// ViewRepository defines the interface for deduplicated view storage
type ViewRepository interface {
	// RecordViewIfAbsent inserts a view row unless the (post, day, visitor)
	// triple already exists; reports whether a row was inserted
	RecordViewIfAbsent(ctx context.Context, postID int64, date time.Time, visitorHash string) (bool, error)

	// CountDistinctVisitors counts distinct visitors for one post within an
	// inclusive date range
	CountDistinctVisitors(ctx context.Context, postID int64, start, end time.Time) (int64, error)

	// CountDistinctVisitorsSitewide counts distinct visitors across all posts
	CountDistinctVisitorsSitewide(ctx context.Context, start, end time.Time) (int64, error)

	// PruneOlderThan deletes rows with view_date strictly before cutoff
	PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error)

	// RollupDaily returns per-post distinct-visitor counts for a single day
	RollupDaily(ctx context.Context, date time.Time) ([]domain.PostViewCount, error)

	// RollupMonthly returns per-post summed view counts for an inclusive range
	RollupMonthly(ctx context.Context, start, end time.Time) ([]domain.PostViewCount, error)
}

// PostRepository defines the interface for post and post-meta operations
type PostRepository interface {
	// Create stores a new post and marks it with the provenance meta
	Create(ctx context.Context, post *domain.Post) error

	// Update applies the non-nil fields of req to an existing post
	Update(ctx context.Context, req *domain.UpdateRequest) error

	// Delete removes a post together with its meta rows
	Delete(ctx context.Context, postID int64) error

	// GetByID retrieves a post by ID
	GetByID(ctx context.Context, postID int64) (*domain.Post, error)

	// List returns provenance-marked posts, newest first
	List(ctx context.Context, limit, offset int) ([]*domain.Post, error)

	// Categories returns all post categories
	Categories(ctx context.Context) ([]*domain.Category, error)

	// HasMeta reports whether a post carries the given meta key
	HasMeta(ctx context.Context, postID int64, key string) (bool, error)

	// OverwriteMeta upserts one meta value per post for the given key
	OverwriteMeta(ctx context.Context, key string, counts []domain.PostViewCount) error
}

// OptionRepository defines the interface for process-wide key/value options
type OptionRepository interface {
	// Get returns the option value, or "" when the option is not set
	Get(ctx context.Context, name string) (string, error)

	// SetAll upserts every pair in one transaction; partial writes never land
	SetAll(ctx context.Context, options map[string]string) error
}

// Repositories aggregates all repository interfaces
type Repositories struct {
	View   ViewRepository
	Post   PostRepository
	Option OptionRepository
}
