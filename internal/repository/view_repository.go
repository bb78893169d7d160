package repository

import (
	"context"
	"fmt"
	"time"

	"pagepilot/internal/domain"
	"pagepilot/pkg/database"
)

const dateLayout = "2006-01-02"

// viewRepository handles deduplicated view rows with PostgreSQL
type viewRepository struct {
	db *database.PostgresDB
}

// NewViewRepository creates a new view repository
func NewViewRepository(db *database.PostgresDB) ViewRepository {
	return &viewRepository{
		db: db,
	}
}

// RecordViewIfAbsent inserts a view row unless one exists for the triple.
// The unique index on (post_id, view_date, visitor_hash) makes concurrent
// inserts of the same triple collapse into a single row.
func (r *viewRepository) RecordViewIfAbsent(ctx context.Context, postID int64, date time.Time, visitorHash string) (bool, error) {
	query := `
		INSERT INTO post_views (post_id, view_date, view_count, visitor_hash)
		VALUES ($1, $2, 1, $3)
		ON CONFLICT (post_id, view_date, visitor_hash) DO NOTHING
	`

	tag, err := r.db.Pool.Exec(ctx, query, postID, date.Format(dateLayout), visitorHash)
	if err != nil {
		return false, fmt.Errorf("failed to record view: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

// CountDistinctVisitors counts distinct visitor hashes for one post within
// an inclusive date range
func (r *viewRepository) CountDistinctVisitors(ctx context.Context, postID int64, start, end time.Time) (int64, error) {
	query := `
		SELECT COUNT(DISTINCT visitor_hash)
		FROM post_views
		WHERE post_id = $1 AND view_date BETWEEN $2 AND $3
	`

	var count int64
	err := r.db.Pool.QueryRow(ctx, query, postID, start.Format(dateLayout), end.Format(dateLayout)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count distinct visitors: %w", err)
	}

	return count, nil
}

// CountDistinctVisitorsSitewide counts distinct visitor hashes across all posts
func (r *viewRepository) CountDistinctVisitorsSitewide(ctx context.Context, start, end time.Time) (int64, error) {
	query := `
		SELECT COUNT(DISTINCT visitor_hash)
		FROM post_views
		WHERE view_date BETWEEN $1 AND $2
	`

	var count int64
	err := r.db.Pool.QueryRow(ctx, query, start.Format(dateLayout), end.Format(dateLayout)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count sitewide visitors: %w", err)
	}

	return count, nil
}

// PruneOlderThan deletes rows with view_date strictly before cutoff
func (r *viewRepository) PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `
		DELETE FROM post_views
		WHERE view_date < $1
	`

	tag, err := r.db.Pool.Exec(ctx, query, cutoff.Format(dateLayout))
	if err != nil {
		return 0, fmt.Errorf("failed to prune old views: %w", err)
	}

	return tag.RowsAffected(), nil
}

// RollupDaily returns per-post distinct-visitor counts for a single day
func (r *viewRepository) RollupDaily(ctx context.Context, date time.Time) ([]domain.PostViewCount, error) {
	query := `
		SELECT post_id, COUNT(DISTINCT visitor_hash) AS views
		FROM post_views
		WHERE view_date = $1
		GROUP BY post_id
	`

	return r.queryCounts(ctx, query, date.Format(dateLayout))
}

// RollupMonthly returns per-post summed view counts for an inclusive range
func (r *viewRepository) RollupMonthly(ctx context.Context, start, end time.Time) ([]domain.PostViewCount, error) {
	query := `
		SELECT post_id, SUM(view_count) AS views
		FROM post_views
		WHERE view_date BETWEEN $1 AND $2
		GROUP BY post_id
	`

	return r.queryCounts(ctx, query, start.Format(dateLayout), end.Format(dateLayout))
}

// queryCounts runs a grouped count query and scans the per-post rows
func (r *viewRepository) queryCounts(ctx context.Context, query string, args ...interface{}) ([]domain.PostViewCount, error) {
	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query view counts: %w", err)
	}
	defer rows.Close()

	var counts []domain.PostViewCount
	for rows.Next() {
		var c domain.PostViewCount
		if err := rows.Scan(&c.PostID, &c.Views); err != nil {
			return nil, fmt.Errorf("failed to scan view count row: %w", err)
		}
		counts = append(counts, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error reading view count rows: %w", err)
	}

	return counts, nil
}
