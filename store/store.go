// Package store provides pipeline and run persistence. The in-memory
// implementations back tests and single-process use; the SQLite and
// Postgres stores persist runs durably.
package store

import (
	"context"
	"errors"

	"github.com/quill-labs/quillflow"
)

// ErrNotFound is returned when a pipeline or run does not exist.
var ErrNotFound = errors.New("not found")

// PipelineStore loads pipeline snapshots for execution.
type PipelineStore interface {
	Load(ctx context.Context, id string) (*quillflow.Pipeline, error)
}

// RunStore persists run records. Runs are saved once terminal; Save
// overwrites any previous record with the same ID.
type RunStore interface {
	Save(ctx context.Context, run *quillflow.Run) error
	Get(ctx context.Context, id string) (*quillflow.Run, error)

	// List returns the runs owned by a project, newest first.
	List(ctx context.Context, projectID string) ([]*quillflow.Run, error)

	Delete(ctx context.Context, id string) error
}
