package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"pagepilot/internal/domain"
	"pagepilot/pkg/database"
)

// postRepository handles post and post-meta operations with PostgreSQL
type postRepository struct {
	db *database.PostgresDB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *database.PostgresDB) PostRepository {
	return &postRepository{
		db: db,
	}
}

// Create stores a new post and marks it with the provenance meta in one
// transaction; an unmarked post would be invisible to tracking and listing
func (r *postRepository) Create(ctx context.Context, post *domain.Post) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO posts (title, content, status, category_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`

	err = tx.QueryRow(ctx, query,
		post.Title,
		post.Content,
		post.Status,
		post.CategoryID,
	).Scan(&post.ID, &post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create post: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO post_meta (post_id, meta_key, meta_value)
		VALUES ($1, $2, '1')
	`, post.ID, domain.MetaProvenance)
	if err != nil {
		return fmt.Errorf("failed to set provenance meta: %w", err)
	}

	return tx.Commit(ctx)
}

// Update applies the non-nil fields of req to an existing post
func (r *postRepository) Update(ctx context.Context, req *domain.UpdateRequest) error {
	query := `
		UPDATE posts
		SET title   = COALESCE($2, title),
		    content = COALESCE($3, content),
		    status  = COALESCE($4, status),
		    updated_at = NOW()
		WHERE id = $1
	`

	tag, err := r.db.Pool.Exec(ctx, query, req.PostID, req.Title, req.Content, req.Status)
	if err != nil {
		return fmt.Errorf("failed to update post: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}

	return nil
}

// Delete removes a post together with its meta rows
func (r *postRepository) Delete(ctx context.Context, postID int64) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM post_meta WHERE post_id = $1`, postID); err != nil {
		return fmt.Errorf("failed to delete post meta: %w", err)
	}

	tag, err := tx.Exec(ctx, `DELETE FROM posts WHERE id = $1`, postID)
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}

	return tx.Commit(ctx)
}

// GetByID retrieves a post by ID
func (r *postRepository) GetByID(ctx context.Context, postID int64) (*domain.Post, error) {
	query := `
		SELECT id, title, content, status, category_id, created_at, updated_at
		FROM posts
		WHERE id = $1
	`

	post := &domain.Post{}
	err := r.db.Pool.QueryRow(ctx, query, postID).Scan(
		&post.ID,
		&post.Title,
		&post.Content,
		&post.Status,
		&post.CategoryID,
		&post.CreatedAt,
		&post.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get post: %w", err)
	}

	return post, nil
}

// List returns provenance-marked posts, newest first
func (r *postRepository) List(ctx context.Context, limit, offset int) ([]*domain.Post, error) {
	query := `
		SELECT p.id, p.title, p.content, p.status, p.category_id, p.created_at, p.updated_at
		FROM posts p
		JOIN post_meta pm ON pm.post_id = p.id AND pm.meta_key = $1
		ORDER BY p.created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Pool.Query(ctx, query, domain.MetaProvenance, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	defer rows.Close()

	var posts []*domain.Post
	for rows.Next() {
		post := &domain.Post{}
		err := rows.Scan(
			&post.ID,
			&post.Title,
			&post.Content,
			&post.Status,
			&post.CategoryID,
			&post.CreatedAt,
			&post.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan post row: %w", err)
		}
		posts = append(posts, post)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error reading post rows: %w", err)
	}

	return posts, nil
}

// Categories returns all post categories
func (r *postRepository) Categories(ctx context.Context) ([]*domain.Category, error) {
	rows, err := r.db.Pool.Query(ctx, `SELECT id, name FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var categories []*domain.Category
	for rows.Next() {
		c := &domain.Category{}
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("failed to scan category row: %w", err)
		}
		categories = append(categories, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error reading category rows: %w", err)
	}

	return categories, nil
}

// HasMeta reports whether a post carries the given meta key
func (r *postRepository) HasMeta(ctx context.Context, postID int64, key string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM post_meta WHERE post_id = $1 AND meta_key = $2
		)
	`

	var exists bool
	if err := r.db.Pool.QueryRow(ctx, query, postID, key).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check post meta: %w", err)
	}

	return exists, nil
}

// OverwriteMeta upserts one meta value per post for the given key. Rollup
// jobs call this with recomputed counts, so repeated runs converge on the
// same values.
func (r *postRepository) OverwriteMeta(ctx context.Context, key string, counts []domain.PostViewCount) error {
	if len(counts) == 0 {
		return nil
	}

	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO post_meta (post_id, meta_key, meta_value)
		VALUES ($1, $2, $3)
		ON CONFLICT (post_id, meta_key) DO UPDATE SET
			meta_value = EXCLUDED.meta_value
	`

	for _, c := range counts {
		if _, err := tx.Exec(ctx, query, c.PostID, key, fmt.Sprintf("%d", c.Views)); err != nil {
			return fmt.Errorf("failed to overwrite meta for post %d: %w", c.PostID, err)
		}
	}

	return tx.Commit(ctx)
}
