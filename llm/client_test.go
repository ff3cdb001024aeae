package llm

import (
	"context"
	"errors"
	"testing"
)

func TestParseEffort(t *testing.T) {
	tests := []struct {
		in   string
		want ReasoningEffort
	}{
		{"", EffortAuto},
		{"auto", EffortAuto},
		{"minimal", EffortMinimal},
		{"low", EffortLow},
		{"medium", EffortMedium},
		{"high", EffortHigh},
		{"xhigh", EffortXHigh},
		{"turbo", EffortAuto},
		{"HIGH", EffortAuto},
	}

	for _, tt := range tests {
		if got := ParseEffort(tt.in); got != tt.want {
			t.Errorf("ParseEffort(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestStubClient_EchoesPromptByDefault(t *testing.T) {
	c := &StubClient{}
	resp, err := c.Call(context.Background(), Request{Prompt: "hello"})
	if err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	if resp.Content != "hello" {
		t.Errorf("Content = %q", resp.Content)
	}
	if resp.Model != "stub" {
		t.Errorf("Model = %q", resp.Model)
	}
}

func TestStubClient_FixedContentAndRecording(t *testing.T) {
	c := &StubClient{Content: "fixed", Model: "test-model"}

	resp, err := c.Call(context.Background(), Request{System: "sys", Prompt: "p1", Effort: EffortHigh})
	if err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	if resp.Content != "fixed" || resp.Model != "test-model" {
		t.Errorf("resp = %+v", resp)
	}

	_, _ = c.Call(context.Background(), Request{Prompt: "p2"})

	calls := c.Calls()
	if len(calls) != 2 {
		t.Fatalf("len(calls) = %d, want 2", len(calls))
	}
	if calls[0].System != "sys" || calls[0].Effort != EffortHigh || calls[1].Prompt != "p2" {
		t.Errorf("calls = %+v", calls)
	}
}

func TestStubClient_Err(t *testing.T) {
	boom := errors.New("boom")
	c := &StubClient{Err: boom}
	if _, err := c.Call(context.Background(), Request{Prompt: "p"}); !errors.Is(err, boom) {
		t.Fatalf("Call() error = %v, want boom", err)
	}
	// Failed calls are still recorded.
	if len(c.Calls()) != 1 {
		t.Errorf("len(calls) = %d, want 1", len(c.Calls()))
	}
}

func TestProviderError(t *testing.T) {
	inner := errors.New("http 429")
	err := &ProviderError{Provider: "openai", Message: "rate limited", Err: inner}

	if err.Error() != "openai: rate limited" {
		t.Errorf("Error() = %q", err.Error())
	}
	if !errors.Is(err, inner) {
		t.Error("Unwrap() lost the inner error")
	}
}
