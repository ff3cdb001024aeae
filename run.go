package quillflow

import (
	"time"
)

// RunStatus is the lifecycle state of a Run.
type RunStatus string

const (
	// RunStatusRunning means the run is in flight.
	RunStatusRunning RunStatus = "running"

	// RunStatusCompleted means every scheduled node executed. Per-node
	// provider failures are recorded as error-marker outputs and do not
	// change the terminal status.
	RunStatusCompleted RunStatus = "completed"

	// RunStatusError means a structural or fatal error aborted the run.
	RunStatusError RunStatus = "error"
)

// NodeResult is the recorded output of one executed node.
type NodeResult struct {
	NodeID string   `json:"node_id"`
	Label  string   `json:"label,omitempty"`
	Kind   NodeKind `json:"node_type"`
	Output any      `json:"output"`
}

// Run is one execution of a pipeline: an ordered list of per-node results.
// A run is append-only while in flight and immutable once terminal.
type Run struct {
	ID          string       `json:"id"`
	PipelineID  string       `json:"pipeline_id"`
	ProjectID   string       `json:"project_id,omitempty"`
	NodeResults []NodeResult `json:"node_results"`
	Status      RunStatus    `json:"status"`
	Error       string       `json:"error,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
}

// Snapshot returns a copy safe to publish to concurrent readers while the
// run is still being appended to.
func (r *Run) Snapshot() *Run {
	if r == nil {
		return nil
	}
	out := *r
	out.NodeResults = make([]NodeResult, len(r.NodeResults))
	copy(out.NodeResults, r.NodeResults)
	return &out
}
