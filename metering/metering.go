// Package metering records LLM token usage for billing and observability.
// Recording is best-effort: the engine logs failures and never lets them
// affect node output or run status.
package metering

import (
	"context"
)

// Usage is one LLM call's token accounting.
type Usage struct {
	OrgID            string
	UserID           string
	Model            string
	PromptTokens     int
	CompletionTokens int

	// Source tags where the call originated (e.g. "pipeline_run").
	Source string
}

// Recorder persists usage records.
type Recorder interface {
	Record(ctx context.Context, usage Usage) error
}

// Nop discards all usage records.
type Nop struct{}

// Record does nothing.
func (Nop) Record(context.Context, Usage) error { return nil }

var _ Recorder = Nop{}
