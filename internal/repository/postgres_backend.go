package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/prperemyshlev/pettracker-client/pkg/database"
)

// postgresBackend stores credential entries in the credentials table
type postgresBackend struct {
	db *database.Postgres
}

// NewPostgresBackend creates a PostgreSQL-backed credential backend.
// The credentials table is created by database.Migrate.
func NewPostgresBackend(db *database.Postgres) Backend {
	return &postgresBackend{db: db}
}

func (b *postgresBackend) Get(ctx context.Context, key string) (string, error) {
	query := `SELECT value FROM credentials WHERE key = $1`

	var value string
	err := b.db.DB.QueryRowContext(ctx, query, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("key %s: %w", key, ErrNotFound)
		}
		return "", fmt.Errorf("failed to get key %s: %w", key, err)
	}
	return value, nil
}

func (b *postgresBackend) Set(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO credentials (key, value, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()
	`

	if _, err := b.db.DB.ExecContext(ctx, query, key, value); err != nil {
		return fmt.Errorf("failed to set key %s: %w", key, err)
	}
	return nil
}

func (b *postgresBackend) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	query := `DELETE FROM credentials WHERE key = ANY($1)`

	if _, err := b.db.DB.ExecContext(ctx, query, pq.Array(keys)); err != nil {
		return fmt.Errorf("failed to delete keys: %w", err)
	}
	return nil
}

func (b *postgresBackend) Ping(ctx context.Context) error {
	return b.db.Ping(ctx)
}

func (b *postgresBackend) Close() error {
	return b.db.Close()
}
