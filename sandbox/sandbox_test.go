package sandbox

import (
	"context"
	"reflect"
	"testing"
	"time"
)

func TestRun_BareReturnValue(t *testing.T) {
	r := New(Config{})
	res := r.Run(context.Background(), `return "hello";`, Context{})
	if res.Failed() {
		t.Fatalf("unexpected failure: %s", res.Err)
	}
	if res.Output != "hello" {
		t.Errorf("Output = %v, want hello", res.Output)
	}
}

func TestRun_ResultObject(t *testing.T) {
	r := New(Config{})
	res := r.Run(context.Background(), `
return {
	output: ["a", "b"],
	done: true,
	promptVars: {topic: "go", count: 2},
};`, Context{})

	if res.Failed() {
		t.Fatalf("unexpected failure: %s", res.Err)
	}
	if !res.Done {
		t.Error("Done = false, want true")
	}
	if got, want := res.Output, []any{"a", "b"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Output = %v, want %v", got, want)
	}
	want := map[string]string{"topic": "go", "count": "2"}
	if !reflect.DeepEqual(res.PromptVars, want) {
		t.Errorf("PromptVars = %v, want %v", res.PromptVars, want)
	}
}

func TestRun_Bindings(t *testing.T) {
	r := New(Config{})
	res := r.Run(context.Background(), `
return input + "|" + prompt + "|" + iteration + "|" + batchSize + "|" + results.length + "|" + vars.name;`,
		Context{
			Input:     "in",
			Prompt:    "p",
			Iteration: 2,
			BatchSize: 5,
			Results:   []string{"r1", "r2", "r3"},
			Vars:      map[string]any{"name": "doc"},
		})

	if res.Failed() {
		t.Fatalf("unexpected failure: %s", res.Err)
	}
	if res.Output != "in|p|2|5|3|doc" {
		t.Errorf("Output = %v", res.Output)
	}
}

func TestRun_ThrowDegradesToPassThrough(t *testing.T) {
	r := New(Config{})
	res := r.Run(context.Background(), `throw new Error("boom");`, Context{Input: "original"})

	if !res.Failed() {
		t.Fatal("Failed() = false, want true")
	}
	if res.Output != "original" {
		t.Errorf("Output = %v, want the input passed through", res.Output)
	}
}

func TestRun_SyntaxErrorDegrades(t *testing.T) {
	r := New(Config{})
	res := r.Run(context.Background(), `this is not javascript {{{`, Context{Input: 42})

	if !res.Failed() {
		t.Fatal("Failed() = false, want true")
	}
	if res.Output != 42 {
		t.Errorf("Output = %v, want 42", res.Output)
	}
}

func TestRun_ErrorFieldInResult(t *testing.T) {
	r := New(Config{})
	res := r.Run(context.Background(), `return {error: "validation failed"};`, Context{Input: "x"})

	if res.Err != "validation failed" {
		t.Errorf("Err = %q", res.Err)
	}
	if res.Output != "x" {
		t.Errorf("Output = %v, want input fallback", res.Output)
	}
}

func TestRun_UndefinedReturn(t *testing.T) {
	r := New(Config{})
	res := r.Run(context.Background(), `var unused = 1;`, Context{Input: "x"})

	if res.Failed() {
		t.Fatalf("unexpected failure: %s", res.Err)
	}
	if res.Output != nil {
		t.Errorf("Output = %v, want nil", res.Output)
	}
}

func TestRun_TimeoutInterrupts(t *testing.T) {
	r := New(Config{Timeout: 50 * time.Millisecond})

	start := time.Now()
	res := r.Run(context.Background(), `while (true) {}`, Context{Input: "x"})
	elapsed := time.Since(start)

	if !res.Failed() {
		t.Fatal("Failed() = false, want timeout failure")
	}
	if res.Output != "x" {
		t.Errorf("Output = %v, want input passed through", res.Output)
	}
	if elapsed > 2*time.Second {
		t.Errorf("interrupt took %v", elapsed)
	}
}

func TestRun_ContextCancelInterrupts(t *testing.T) {
	r := New(Config{Timeout: 30 * time.Second})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	res := r.Run(ctx, `while (true) {}`, Context{Input: "x"})
	if !res.Failed() {
		t.Fatal("Failed() = false, want cancellation failure")
	}
}

func TestRun_VarsCopyDoesNotEscape(t *testing.T) {
	r := New(Config{})
	vars := map[string]any{"name": "keep"}
	res := r.Run(context.Background(), `vars.name = "mutated"; return vars.name;`, Context{Vars: vars})

	if res.Failed() {
		t.Fatalf("unexpected failure: %s", res.Err)
	}
	if vars["name"] != "keep" {
		t.Errorf("caller map mutated: %v", vars)
	}
}
