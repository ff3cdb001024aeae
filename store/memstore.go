package store

import (
	"context"
	"sort"
	"sync"

	"github.com/quill-labs/quillflow"
)

// MemPipelineStore is a thread-safe in-memory pipeline store.
type MemPipelineStore struct {
	mu        sync.RWMutex
	pipelines map[string]*quillflow.Pipeline
}

// NewMemPipelineStore creates an empty in-memory pipeline store.
func NewMemPipelineStore() *MemPipelineStore {
	return &MemPipelineStore{pipelines: make(map[string]*quillflow.Pipeline)}
}

// Put stores a pipeline under its ID.
func (s *MemPipelineStore) Put(p *quillflow.Pipeline) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pipelines[p.ID] = p
}

// Load returns the pipeline with the given ID.
func (s *MemPipelineStore) Load(_ context.Context, id string) (*quillflow.Pipeline, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.pipelines[id]
	if !ok {
		return nil, ErrNotFound
	}
	return p, nil
}

// MemRunStore is a thread-safe in-memory run store.
type MemRunStore struct {
	mu   sync.RWMutex
	runs map[string]*quillflow.Run
}

// NewMemRunStore creates an empty in-memory run store.
func NewMemRunStore() *MemRunStore {
	return &MemRunStore{runs: make(map[string]*quillflow.Run)}
}

func (s *MemRunStore) Save(_ context.Context, run *quillflow.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[run.ID] = run.Snapshot()
	return nil
}

func (s *MemRunStore) Get(_ context.Context, id string) (*quillflow.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return run.Snapshot(), nil
}

func (s *MemRunStore) List(_ context.Context, projectID string) ([]*quillflow.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*quillflow.Run
	for _, run := range s.runs {
		if run.ProjectID == projectID {
			out = append(out, run.Snapshot())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemRunStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.runs[id]; !ok {
		return ErrNotFound
	}
	delete(s.runs, id)
	return nil
}

// Compile-time interface checks.
var (
	_ PipelineStore = (*MemPipelineStore)(nil)
	_ RunStore      = (*MemRunStore)(nil)
)
