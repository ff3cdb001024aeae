package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/quill-labs/quillflow"
)

func openSQLite(t *testing.T) *SQLiteRunStore {
	t.Helper()
	s, err := NewSQLiteRunStore(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRunStore() error = %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteRunStore_RoundTrip(t *testing.T) {
	s := openSQLite(t)
	ctx := context.Background()

	run := testRun("r1", "proj", time.Now().UTC())
	if err := s.Save(ctx, run); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := s.Get(ctx, "r1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.PipelineID != "pipe-1" || got.ProjectID != "proj" {
		t.Errorf("Get() = %+v", got)
	}
	if got.Status != quillflow.RunStatusCompleted {
		t.Errorf("Status = %s", got.Status)
	}
	if len(got.NodeResults) != 1 || got.NodeResults[0].Output != "hello" {
		t.Errorf("NodeResults = %+v", got.NodeResults)
	}
	if !got.CreatedAt.Equal(run.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, run.CreatedAt)
	}
}

func TestSQLiteRunStore_SaveUpserts(t *testing.T) {
	s := openSQLite(t)
	ctx := context.Background()

	run := testRun("r1", "proj", time.Now().UTC())
	run.Status = quillflow.RunStatusRunning
	if err := s.Save(ctx, run); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	run.Status = quillflow.RunStatusError
	run.Error = "boom"
	if err := s.Save(ctx, run); err != nil {
		t.Fatalf("Save() again error = %v", err)
	}

	got, err := s.Get(ctx, "r1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Status != quillflow.RunStatusError || got.Error != "boom" {
		t.Errorf("Get() = %+v, want upserted status", got)
	}
}

func TestSQLiteRunStore_GetMissing(t *testing.T) {
	s := openSQLite(t)
	if _, err := s.Get(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get(missing) error = %v, want ErrNotFound", err)
	}
}

func TestSQLiteRunStore_ListNewestFirst(t *testing.T) {
	s := openSQLite(t)
	ctx := context.Background()
	base := time.Now().UTC()

	_ = s.Save(ctx, testRun("old", "proj", base.Add(-time.Hour)))
	_ = s.Save(ctx, testRun("new", "proj", base))
	_ = s.Save(ctx, testRun("other", "elsewhere", base))

	runs, err := s.List(ctx, "proj")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("len(runs) = %d, want 2", len(runs))
	}
	if runs[0].ID != "new" || runs[1].ID != "old" {
		t.Errorf("order = %s, %s, want new, old", runs[0].ID, runs[1].ID)
	}
}

func TestSQLiteRunStore_Delete(t *testing.T) {
	s := openSQLite(t)
	ctx := context.Background()

	_ = s.Save(ctx, testRun("r1", "proj", time.Now().UTC()))
	if err := s.Delete(ctx, "r1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := s.Delete(ctx, "r1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete() twice error = %v, want ErrNotFound", err)
	}
}
