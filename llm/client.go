// Package llm defines the engine's LLM collaborator contract and adapters
// for the OpenAI and Anthropic APIs.
package llm

import (
	"context"
	"fmt"
)

// ReasoningEffort selects how much provider-side reasoning a call requests.
type ReasoningEffort string

const (
	EffortAuto    ReasoningEffort = "auto"
	EffortMinimal ReasoningEffort = "minimal"
	EffortLow     ReasoningEffort = "low"
	EffortMedium  ReasoningEffort = "medium"
	EffortHigh    ReasoningEffort = "high"
	EffortXHigh   ReasoningEffort = "xhigh"
)

// ParseEffort maps a config string onto an effort level.
// Unknown or empty values fall back to auto.
func ParseEffort(s string) ReasoningEffort {
	switch ReasoningEffort(s) {
	case EffortMinimal, EffortLow, EffortMedium, EffortHigh, EffortXHigh:
		return ReasoningEffort(s)
	default:
		return EffortAuto
	}
}

// Request is a single completion request.
type Request struct {
	System string
	Prompt string
	Effort ReasoningEffort
}

// Response is a completed call plus its token accounting.
type Response struct {
	Content          string
	Model            string
	PromptTokens     int
	CompletionTokens int
}

// Client abstracts a provider/model backend.
type Client interface {
	Call(ctx context.Context, req Request) (Response, error)
}

// ProviderError wraps a provider failure with a human-readable message.
type ProviderError struct {
	Provider string
	Message  string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
