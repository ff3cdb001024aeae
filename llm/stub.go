package llm

import (
	"context"
	"sync"
)

// StubClient is a deterministic Client for tests and offline runs.
// It records every request and returns a fixed response or error.
type StubClient struct {
	mu sync.Mutex

	// Content is returned verbatim. When empty, the prompt is echoed.
	Content string

	// Model reported in responses. Defaults to "stub".
	Model string

	// Err, when set, fails every call.
	Err error

	calls []Request
}

// Call records the request and returns the configured response.
func (c *StubClient) Call(_ context.Context, req Request) (Response, error) {
	c.mu.Lock()
	c.calls = append(c.calls, req)
	c.mu.Unlock()

	if c.Err != nil {
		return Response{}, c.Err
	}

	content := c.Content
	if content == "" {
		content = req.Prompt
	}
	model := c.Model
	if model == "" {
		model = "stub"
	}

	return Response{
		Content:          content,
		Model:            model,
		PromptTokens:     len(req.System)/4 + len(req.Prompt)/4,
		CompletionTokens: len(content) / 4,
	}, nil
}

// Calls returns a copy of the recorded requests.
func (c *StubClient) Calls() []Request {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Request, len(c.calls))
	copy(out, c.calls)
	return out
}

var _ Client = (*StubClient)(nil)
