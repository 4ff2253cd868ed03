package db

import (
	"context"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ApplyMigrations executes the schema file at path. The schema is written
// with IF NOT EXISTS guards so repeated startups are harmless.
func ApplyMigrations(ctx context.Context, pool *pgxpool.Pool, path string) error {
	sql, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read migrations file: %w", err)
	}

	if _, err := pool.Exec(ctx, string(sql)); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	return nil
}
