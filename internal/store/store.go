package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS samples (
		id          UUID PRIMARY KEY,
		prompt      TEXT NOT NULL,
		result      JSONB,
		valid       BOOLEAN NOT NULL,
		reason      TEXT NOT NULL,
		imported_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS sample_steps (
		sample_id  UUID NOT NULL REFERENCES samples(id) ON DELETE CASCADE,
		step_index INT NOT NULL,
		op         TEXT NOT NULL,
		params     JSONB NOT NULL,
		PRIMARY KEY (sample_id, step_index)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sample_steps_op ON sample_steps(op)`,
}

// Migrate creates the sample tables if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
