package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quill-labs/quillflow"
)

const pgSchema = `
CREATE TABLE IF NOT EXISTS runs (
    id           TEXT PRIMARY KEY,
    pipeline_id  TEXT NOT NULL,
    project_id   TEXT NOT NULL DEFAULT '',
    status       TEXT NOT NULL,
    error        TEXT NOT NULL DEFAULT '',
    node_results JSONB NOT NULL DEFAULT '[]',
    created_at   TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_project ON runs(project_id, created_at);
`

// PostgresRunStore persists runs to Postgres via a pgx connection pool.
type PostgresRunStore struct {
	pool *pgxpool.Pool
}

// NewPostgresRunStore connects to the database and ensures the schema.
func NewPostgresRunStore(ctx context.Context, dsn string) (*PostgresRunStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgstore: connect: %w", err)
	}
	if _, err := pool.Exec(ctx, pgSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pgstore: create schema: %w", err)
	}
	return &PostgresRunStore{pool: pool}, nil
}

// Save upserts a run record.
func (s *PostgresRunStore) Save(ctx context.Context, run *quillflow.Run) error {
	results, err := json.Marshal(run.NodeResults)
	if err != nil {
		return fmt.Errorf("pgstore: marshal node results: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO runs (id, pipeline_id, project_id, status, error, node_results, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (id) DO UPDATE SET
		   status = EXCLUDED.status,
		   error = EXCLUDED.error,
		   node_results = EXCLUDED.node_results`,
		run.ID, run.PipelineID, run.ProjectID, string(run.Status), run.Error, results, run.CreatedAt)
	if err != nil {
		return fmt.Errorf("pgstore: save: %w", err)
	}
	return nil
}

// Get returns the run with the given ID.
func (s *PostgresRunStore) Get(ctx context.Context, id string) (*quillflow.Run, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, pipeline_id, project_id, status, error, node_results, created_at
		 FROM runs WHERE id = $1`, id)
	run, err := scanPgRun(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return run, err
}

// List returns the runs owned by a project, newest first.
func (s *PostgresRunStore) List(ctx context.Context, projectID string) ([]*quillflow.Run, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, pipeline_id, project_id, status, error, node_results, created_at
		 FROM runs WHERE project_id = $1 ORDER BY created_at DESC`, projectID)
	if err != nil {
		return nil, fmt.Errorf("pgstore: list: %w", err)
	}
	defer rows.Close()

	var runs []*quillflow.Run
	for rows.Next() {
		run, err := scanPgRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Delete removes a run record.
func (s *PostgresRunStore) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM runs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("pgstore: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Close releases the connection pool.
func (s *PostgresRunStore) Close() {
	s.pool.Close()
}

func scanPgRun(row pgx.Row) (*quillflow.Run, error) {
	var run quillflow.Run
	var status string
	var results []byte

	if err := row.Scan(&run.ID, &run.PipelineID, &run.ProjectID, &status, &run.Error, &results, &run.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("pgstore: scan: %w", err)
	}

	run.Status = quillflow.RunStatus(status)
	if err := json.Unmarshal(results, &run.NodeResults); err != nil {
		return nil, fmt.Errorf("pgstore: unmarshal node results: %w", err)
	}

	return &run, nil
}

var _ RunStore = (*PostgresRunStore)(nil)
