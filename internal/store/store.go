// Package store records synthesis runs in PostgreSQL so repeated runs of the
// same cluster can be compared by graph digest.
package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
	CREATE TABLE IF NOT EXISTS synthesis_runs (
		id          TEXT PRIMARY KEY,
		cluster_id  TEXT NOT NULL,
		environment TEXT NOT NULL,
		projects    TEXT[] NOT NULL,
		digest      TEXT NOT NULL,
		output_dir  TEXT NOT NULL,
		status      TEXT NOT NULL,
		message     TEXT,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	CREATE INDEX IF NOT EXISTS synthesis_runs_cluster_idx
		ON synthesis_runs (cluster_id, created_at DESC);
`

// Store provides database operations
type Store struct {
	pool *pgxpool.Pool

	Runs *RunStore
}

// New creates a new Store with all sub-stores initialized
func New(pool *pgxpool.Pool) *Store {
	return &Store{
		pool: pool,
		Runs: &RunStore{pool: pool},
	}
}

// Open connects to the database and creates the schema
func Open(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := NewPool(ctx, DefaultConfig(databaseURL))
	if err != nil {
		return nil, err
	}

	s := New(pool)
	if err := s.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// Migrate creates the run table when it does not exist
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}

// Ping verifies the database connection is alive
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close closes the database connection pool
func (s *Store) Close() {
	s.pool.Close()
}
