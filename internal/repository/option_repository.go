package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"pagepilot/pkg/database"
)

// optionRepository handles process-wide key/value options with PostgreSQL
type optionRepository struct {
	db *database.PostgresDB
}

// NewOptionRepository creates a new option repository
func NewOptionRepository(db *database.PostgresDB) OptionRepository {
	return &optionRepository{
		db: db,
	}
}

// Get returns the option value, or "" when the option is not set
func (r *optionRepository) Get(ctx context.Context, name string) (string, error) {
	var value string
	err := r.db.Pool.QueryRow(ctx, `SELECT value FROM options WHERE name = $1`, name).Scan(&value)
	if err != nil {
		if err == pgx.ErrNoRows {
			return "", nil
		}
		return "", fmt.Errorf("failed to get option %s: %w", name, err)
	}

	return value, nil
}

// SetAll upserts every pair in one transaction. The key exchange depends on
// this: the public and private hashes land together or not at all.
func (r *optionRepository) SetAll(ctx context.Context, options map[string]string) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO options (name, value)
		VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET
			value = EXCLUDED.value
	`

	for name, value := range options {
		if _, err := tx.Exec(ctx, query, name, value); err != nil {
			return fmt.Errorf("failed to set option %s: %w", name, err)
		}
	}

	return tx.Commit(ctx)
}
