// Package sandbox evaluates user-supplied node scripts in a constrained
// JavaScript interpreter (goja). Scripts see a fixed set of read-only
// bindings and must return a small result object; any runtime failure
// degrades to a pass-through result so one bad script cannot abort a run.
package sandbox

import (
	"context"
	"fmt"
	"time"

	"github.com/dop251/goja"
	"github.com/rs/zerolog"
)

// DefaultTimeout caps script wall-clock time when Config.Timeout is zero.
const DefaultTimeout = 2 * time.Second

// Context carries the bindings exposed to a script. All fields are copied
// into the interpreter; mutations do not escape back to the engine.
type Context struct {
	Input     any
	Prompt    string
	Results   []string
	Iteration int
	BatchSize int
	Vars      map[string]any
}

// Result is the structurally-typed outcome of a script evaluation.
type Result struct {
	// Output is the script's result value, or the original input when the
	// script failed.
	Output any

	// Done signals a batch loop to stop iterating.
	Done bool

	// PromptVars are literal placeholder replacements for a borrowed prompt.
	PromptVars map[string]string

	// Err carries the failure message when the script threw or timed out.
	Err string
}

// Failed reports whether the script degraded to pass-through.
func (r Result) Failed() bool {
	return r.Err != ""
}

// Config configures a Runner.
type Config struct {
	// Timeout is the wall-clock cap per evaluation (default 2s).
	Timeout time.Duration

	// Logger receives script console output and failure logs.
	Logger zerolog.Logger
}

// Runner evaluates scripts. A Runner is safe for concurrent use; each
// evaluation gets a fresh interpreter with no shared state.
type Runner struct {
	timeout time.Duration
	log     zerolog.Logger
}

// New creates a Runner.
func New(cfg Config) *Runner {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Runner{
		timeout: cfg.Timeout,
		log:     cfg.Logger,
	}
}

// Run evaluates script as a function body with the context fields bound as
// globals. The returned object's output, done, and promptVars fields are
// extracted; a bare return value becomes Output directly. Throws, parse
// errors, timeouts, and context cancellation all degrade to
// {Output: sc.Input, Err: message}.
func (r *Runner) Run(ctx context.Context, script string, sc Context) (result Result) {
	vm := goja.New()
	vm.SetFieldNameMapper(goja.UncapFieldNameMapper())

	defer func() {
		if rec := recover(); rec != nil {
			r.log.Debug().Interface("panic", rec).Msg("script panicked")
			result = Result{Output: sc.Input, Err: fmt.Sprintf("script panic: %v", rec)}
		}
	}()

	bindings := map[string]any{
		"input":     sc.Input,
		"prompt":    sc.Prompt,
		"results":   copyStrings(sc.Results),
		"iteration": sc.Iteration,
		"batchSize": sc.BatchSize,
		"vars":      copyVars(sc.Vars),
	}
	for name, value := range bindings {
		if err := vm.Set(name, value); err != nil {
			return Result{Output: sc.Input, Err: fmt.Sprintf("binding %s: %v", name, err)}
		}
	}

	console := vm.NewObject()
	_ = console.Set("log", func(args ...any) {
		r.log.Debug().Interface("args", args).Msg("script console")
	})
	_ = vm.Set("console", console)

	// Interrupt on timeout or caller cancellation.
	done := make(chan struct{})
	defer close(done)
	timer := time.AfterFunc(r.timeout, func() { vm.Interrupt("script timeout") })
	defer timer.Stop()
	go func() {
		select {
		case <-ctx.Done():
			vm.Interrupt("run canceled")
		case <-done:
		}
	}()

	value, err := vm.RunString("(function() {\n" + script + "\n})()")
	if err != nil {
		r.log.Debug().Err(err).Msg("script failed")
		return Result{Output: sc.Input, Err: err.Error()}
	}

	return extract(value, sc.Input)
}

// extract maps the script's return value onto a Result.
func extract(value goja.Value, input any) Result {
	if value == nil || goja.IsUndefined(value) || goja.IsNull(value) {
		return Result{}
	}

	exported := value.Export()
	obj, ok := exported.(map[string]any)
	if !ok {
		return Result{Output: exported}
	}

	var result Result
	if out, ok := obj["output"]; ok {
		result.Output = out
	}
	if done, ok := obj["done"].(bool); ok {
		result.Done = done
	}
	if raw, ok := obj["promptVars"].(map[string]any); ok {
		result.PromptVars = make(map[string]string, len(raw))
		for k, v := range raw {
			if s, ok := v.(string); ok {
				result.PromptVars[k] = s
			} else {
				result.PromptVars[k] = fmt.Sprintf("%v", v)
			}
		}
	}
	if msg, ok := obj["error"].(string); ok && msg != "" {
		result.Err = msg
		if result.Output == nil {
			result.Output = input
		}
	}
	return result
}

func copyStrings(in []string) []string {
	if in == nil {
		return []string{}
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func copyVars(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
