package quillflow

import (
	"time"
)

// EventKind identifies the type of event emitted during execution.
type EventKind string

const (
	// EventRunStarted is emitted when a pipeline run begins.
	EventRunStarted EventKind = "run_started"

	// EventNodeStarted is emitted when a node begins execution.
	EventNodeStarted EventKind = "node_started"

	// EventNodeFinished is emitted when a node completes.
	EventNodeFinished EventKind = "node_finished"

	// EventNodeFailed is emitted when a node aborts the run.
	EventNodeFailed EventKind = "node_failed"

	// EventReviewPause marks a user_edit_list/user_review pass-through,
	// where an interactive caller would pause for the reviewer.
	EventReviewPause EventKind = "review_pause"

	// EventRunFinished is emitted when a pipeline run completes.
	EventRunFinished EventKind = "run_finished"
)

// Event is a structured record of what happened during execution.
// Payloads should stay small; node outputs live in the Run record.
type Event struct {
	Kind     EventKind
	RunID    string
	NodeID   string
	NodeKind NodeKind
	Time     time.Time
	Elapsed  time.Duration
	Payload  map[string]any
}

// NewEvent creates a new event with the current timestamp.
func NewEvent(kind EventKind, runID string) Event {
	return Event{
		Kind:    kind,
		RunID:   runID,
		Time:    time.Now(),
		Payload: make(map[string]any),
	}
}

// WithNode sets the node information on the event.
func (e Event) WithNode(nodeID string, nodeKind NodeKind) Event {
	e.NodeID = nodeID
	e.NodeKind = nodeKind
	return e
}

// WithElapsed sets the elapsed duration on the event.
func (e Event) WithElapsed(elapsed time.Duration) Event {
	e.Elapsed = elapsed
	return e
}

// WithPayload adds a key-value pair to the event payload.
func (e Event) WithPayload(key string, value any) Event {
	if e.Payload == nil {
		e.Payload = make(map[string]any)
	}
	e.Payload[key] = value
	return e
}

// EventHandler receives events during execution.
type EventHandler func(Event)
