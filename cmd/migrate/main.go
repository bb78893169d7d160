package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is not set")
	}

	if len(os.Args) < 2 {
		fmt.Println("Usage: go run main.go [up|drop]")
		os.Exit(1)
	}

	command := os.Args[1]

	ctx := context.Background()
	conn, err := pgx.Connect(ctx, dbURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer conn.Close(ctx)

	switch command {
	case "up":
		if err := createTables(ctx, conn); err != nil {
			log.Fatalf("Failed to create tables: %v", err)
		}
		fmt.Println("All tables created successfully")

	case "drop":
		if err := dropTables(ctx, conn); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
		fmt.Println("All tables dropped successfully")

	default:
		fmt.Printf("Unknown command: %s\n", command)
		os.Exit(1)
	}
}

func createTables(ctx context.Context, conn *pgx.Conn) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS posts (
			id          BIGSERIAL PRIMARY KEY,
			title       TEXT NOT NULL,
			content     TEXT NOT NULL,
			status      TEXT NOT NULL DEFAULT 'publish',
			category_id BIGINT NOT NULL DEFAULT 0,
			created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS categories (
			id   BIGSERIAL PRIMARY KEY,
			name TEXT NOT NULL UNIQUE
		)`,

		`CREATE TABLE IF NOT EXISTS post_meta (
			post_id    BIGINT NOT NULL,
			meta_key   TEXT NOT NULL,
			meta_value TEXT NOT NULL,
			PRIMARY KEY (post_id, meta_key)
		)`,

		// The unique triple is what makes concurrent inserts of the same
		// visitor/post/day collapse into a single row
		`CREATE TABLE IF NOT EXISTS post_views (
			id           BIGSERIAL PRIMARY KEY,
			post_id      BIGINT NOT NULL,
			view_date    DATE NOT NULL,
			view_count   INTEGER NOT NULL DEFAULT 1,
			visitor_hash CHAR(64) NOT NULL,
			UNIQUE (post_id, view_date, visitor_hash)
		)`,

		`CREATE INDEX IF NOT EXISTS idx_post_views_date ON post_views (view_date)`,

		`CREATE TABLE IF NOT EXISTS options (
			name  TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
	}

	for _, stmt := range statements {
		if _, err := conn.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("statement failed: %w", err)
		}
	}

	return nil
}

func dropTables(ctx context.Context, conn *pgx.Conn) error {
	tables := []string{"post_views", "post_meta", "posts", "categories", "options"}

	for _, table := range tables {
		if _, err := conn.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE", table)); err != nil {
			return fmt.Errorf("failed to drop %s: %w", table, err)
		}
	}

	return nil
}
