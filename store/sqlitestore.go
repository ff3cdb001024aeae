package store

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/quill-labs/quillflow"

	_ "modernc.org/sqlite"
)

//go:embed sqlite_schema.sql
var sqliteSchema string

// SQLiteRunStore persists runs to a SQLite database. WAL mode is enabled
// so readers can observe runs while a writer appends.
type SQLiteRunStore struct {
	db *sql.DB
}

// NewSQLiteRunStore opens (or creates) a SQLite run store at the given DSN.
func NewSQLiteRunStore(dsn string) (*SQLiteRunStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: open: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlitestore: set WAL mode: %w", err)
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlitestore: create schema: %w", err)
	}

	return &SQLiteRunStore{db: db}, nil
}

// Save upserts a run record.
func (s *SQLiteRunStore) Save(ctx context.Context, run *quillflow.Run) error {
	results, err := json.Marshal(run.NodeResults)
	if err != nil {
		return fmt.Errorf("sqlitestore: marshal node results: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (id, pipeline_id, project_id, status, error, node_results, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   status = excluded.status,
		   error = excluded.error,
		   node_results = excluded.node_results`,
		run.ID,
		run.PipelineID,
		run.ProjectID,
		string(run.Status),
		run.Error,
		string(results),
		run.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("sqlitestore: save: %w", err)
	}
	return nil
}

// Get returns the run with the given ID.
func (s *SQLiteRunStore) Get(ctx context.Context, id string) (*quillflow.Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, pipeline_id, project_id, status, error, node_results, created_at
		 FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return run, err
}

// List returns the runs owned by a project, newest first.
func (s *SQLiteRunStore) List(ctx context.Context, projectID string) ([]*quillflow.Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, pipeline_id, project_id, status, error, node_results, created_at
		 FROM runs WHERE project_id = ? ORDER BY created_at DESC`, projectID)
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: list: %w", err)
	}
	defer rows.Close()

	var runs []*quillflow.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Delete removes a run record.
func (s *SQLiteRunStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlitestore: delete: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlitestore: delete: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteRunStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*quillflow.Run, error) {
	var run quillflow.Run
	var status, results, createdAt string

	if err := row.Scan(&run.ID, &run.PipelineID, &run.ProjectID, &status, &run.Error, &results, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("sqlitestore: scan: %w", err)
	}

	run.Status = quillflow.RunStatus(status)
	if err := json.Unmarshal([]byte(results), &run.NodeResults); err != nil {
		return nil, fmt.Errorf("sqlitestore: unmarshal node results: %w", err)
	}
	t, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: parse created_at: %w", err)
	}
	run.CreatedAt = t

	return &run, nil
}

var _ RunStore = (*SQLiteRunStore)(nil)
