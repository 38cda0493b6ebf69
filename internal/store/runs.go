package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jmcastellanojimenez/ekscompose/pkg/types"
)

// RunStore handles synthesis run records
type RunStore struct {
	pool *pgxpool.Pool
}

// Record inserts a run. A missing ID is generated.
func (s *RunStore) Record(ctx context.Context, run *types.Run) error {
	if run.ID == "" {
		run.ID = types.GenerateRunID()
	}

	query := `
		INSERT INTO synthesis_runs (
			id, cluster_id, environment, projects, digest, output_dir, status, message
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8
		)
		RETURNING created_at, updated_at
	`

	err := s.pool.QueryRow(ctx, query,
		run.ID,
		run.ClusterID,
		run.Environment,
		run.Projects,
		run.Digest,
		run.OutputDir,
		run.Status,
		run.Message,
	).Scan(&run.CreatedAt, &run.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	return nil
}

// Latest returns the most recent run of a cluster
func (s *RunStore) Latest(ctx context.Context, clusterID string) (*types.Run, error) {
	query := `
		SELECT id, cluster_id, environment, projects, digest, output_dir,
			status, message, created_at, updated_at
		FROM synthesis_runs
		WHERE cluster_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`

	var run types.Run
	err := s.pool.QueryRow(ctx, query, clusterID).Scan(
		&run.ID,
		&run.ClusterID,
		&run.Environment,
		&run.Projects,
		&run.Digest,
		&run.OutputDir,
		&run.Status,
		&run.Message,
		&run.CreatedAt,
		&run.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get latest run: %w", err)
	}

	return &run, nil
}

// UpdateStatus sets the status of a run after planning or applying
func (s *RunStore) UpdateStatus(ctx context.Context, id string, status types.RunStatus, message *string) error {
	query := `
		UPDATE synthesis_runs
		SET status = $1, message = $2, updated_at = NOW()
		WHERE id = $3
	`

	result, err := s.pool.Exec(ctx, query, status, message, id)
	if err != nil {
		return fmt.Errorf("update run status: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}
