package quillflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/quill-labs/quillflow/llm"
	"github.com/quill-labs/quillflow/metering"
	"github.com/quill-labs/quillflow/sandbox"
)

// Engine errors
var (
	ErrNilPipeline       = errors.New("pipeline is nil")
	ErrRunCanceled       = errors.New("run was canceled")
	ErrMissingDependency = errors.New("missing dependency output")
)

// FatalNodeError aborts a run: an ai_prompt or batch_loop node was asked
// to consume a dependency that produced no output.
type FatalNodeError struct {
	NodeID  string
	Missing []string
}

func (e *FatalNodeError) Error() string {
	return fmt.Sprintf("node %s: missing dependency output from [%s]", e.NodeID, strings.Join(e.Missing, ", "))
}

func (e *FatalNodeError) Unwrap() error {
	return ErrMissingDependency
}

// SourceProvider supplies a pre-rendered block of background material
// appended to every ai_prompt system message. The block is opaque to the
// engine.
type SourceProvider interface {
	Block(ctx context.Context) (string, error)
}

// EngineConfig wires the engine's collaborators. Zero values get safe
// defaults: a nop meter, a default sandbox, and a nop logger.
type EngineConfig struct {
	// Meter receives usage records for successful LLM calls.
	Meter metering.Recorder

	// Scripts evaluates per-node user scripts.
	Scripts *sandbox.Runner

	// Source, when set, contributes background text to ai_prompt calls.
	Source SourceProvider

	// Logger receives engine diagnostics.
	Logger zerolog.Logger

	// EventHandler receives execution events (run/node start and finish).
	EventHandler EventHandler
}

// Engine executes pipelines. An Engine is stateless across runs and safe
// for concurrent use; each run owns its outputs store and Run record.
type Engine struct {
	client  llm.Client
	meter   metering.Recorder
	scripts *sandbox.Runner
	source  SourceProvider
	log     zerolog.Logger
	handler EventHandler
}

// NewEngine creates an engine backed by the given LLM client.
// The client may be nil for pipelines that never reach an ai_prompt node;
// reaching one without a client produces a fenced error output.
func NewEngine(client llm.Client, cfg EngineConfig) *Engine {
	if cfg.Meter == nil {
		cfg.Meter = metering.Nop{}
	}
	if cfg.Scripts == nil {
		cfg.Scripts = sandbox.New(sandbox.Config{Logger: cfg.Logger})
	}
	return &Engine{
		client:  client,
		meter:   cfg.Meter,
		scripts: cfg.Scripts,
		source:  cfg.Source,
		log:     cfg.Logger,
		handler: cfg.EventHandler,
	}
}

// ExecuteOptions scopes a single run.
type ExecuteOptions struct {
	// ProjectID is the owner scope recorded on the Run.
	ProjectID string

	// OrgID and UserID scope metering records.
	OrgID  string
	UserID string

	// Vars seeds the outputs store before the first node executes,
	// e.g. the transcript text referenced by template placeholders.
	Vars map[string]any

	// Now provides the current time (for testing). If nil, uses time.Now.
	Now func() time.Time
}

// runState is the per-run mutable state: the outputs store, the set of
// prompt nodes consumed by batch loops, and the Run being recorded.
type runState struct {
	pipeline *Pipeline
	deps     map[string][]string
	order    []string
	outputs  map[string]any
	consumed map[string]bool
	run      *Run
	opts     ExecuteOptions
}

// Execute runs the pipeline to completion in topological order.
//
// Structural problems (duplicate IDs, dangling references, cycles) are
// reported before anything executes and no Run is created. Fatal errors
// mid-run (a prompt or batch node missing a dependency output) return the
// partial Run with status error. Per-node provider failures never abort:
// the node's output becomes a fenced error marker and execution continues,
// so the terminal status is still completed.
func (e *Engine) Execute(ctx context.Context, p *Pipeline, opts ExecuteOptions) (*Run, error) {
	if p == nil {
		return nil, ErrNilPipeline
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	if diags := p.Validate(); HasErrors(diags) {
		return nil, &DiagnosticError{Diagnostics: diags}
	}

	order, err := ExecutionOrder(p)
	if err != nil {
		return nil, err
	}

	rs := &runState{
		pipeline: p,
		deps:     Dependencies(p),
		order:    order,
		outputs:  make(map[string]any, len(p.Nodes)*2),
		consumed: make(map[string]bool),
		opts:     opts,
		run: &Run{
			ID:         uuid.NewString(),
			PipelineID: p.ID,
			ProjectID:  opts.ProjectID,
			Status:     RunStatusRunning,
			CreatedAt:  opts.Now(),
		},
	}
	for k, v := range opts.Vars {
		rs.outputs[k] = v
	}

	start := opts.Now()
	e.emit(NewEvent(EventRunStarted, rs.run.ID).
		WithPayload("pipeline", p.ID).
		WithPayload("nodes", len(order)))

	for i, nodeID := range order {
		if rs.consumed[nodeID] {
			e.log.Debug().Str("node", nodeID).Msg("prompt node consumed by batch loop, skipping")
			continue
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return e.fail(rs, start, opts, fmt.Errorf("%w: %v", ErrRunCanceled, ctxErr))
		}

		node := p.NodeByID(nodeID)
		nodeStart := opts.Now()
		e.emit(NewEvent(EventNodeStarted, rs.run.ID).
			WithNode(node.ID, node.Kind).
			WithElapsed(nodeStart.Sub(start)))

		output, nodeErr := e.executeNode(ctx, rs, i, node)
		if nodeErr != nil {
			e.emit(NewEvent(EventNodeFailed, rs.run.ID).
				WithNode(node.ID, node.Kind).
				WithElapsed(opts.Now().Sub(start)).
				WithPayload("error", nodeErr.Error()))
			return e.fail(rs, start, opts, fmt.Errorf("node %s: %w", node.ID, nodeErr))
		}

		rs.record(node, output)
		e.emit(NewEvent(EventNodeFinished, rs.run.ID).
			WithNode(node.ID, node.Kind).
			WithElapsed(opts.Now().Sub(start)))
	}

	rs.run.Status = RunStatusCompleted
	e.emit(NewEvent(EventRunFinished, rs.run.ID).
		WithElapsed(opts.Now().Sub(start)).
		WithPayload("status", string(RunStatusCompleted)))

	return rs.run, nil
}

// executeNode dispatches on the node kind. A returned error is fatal and
// aborts the run; recoverable failures are folded into the output.
func (e *Engine) executeNode(ctx context.Context, rs *runState, idx int, node *Node) (any, error) {
	switch node.Kind {
	case NodeKindTemplate:
		return e.execTemplate(rs, node)
	case NodeKindPrompt:
		return e.execPrompt(ctx, rs, node)
	case NodeKindParseList:
		return e.execParseList(ctx, rs, node)
	case NodeKindAggregate:
		return e.execAggregate(ctx, rs, node)
	case NodeKindBatchLoop:
		return e.execBatchLoop(ctx, rs, idx, node)
	case NodeKindEditList, NodeKindReview:
		return e.execReview(rs, node)
	default:
		return nil, fmt.Errorf("unknown node kind %q", node.Kind)
	}
}

// fail marks the run terminal with an error status.
func (e *Engine) fail(rs *runState, start time.Time, opts ExecuteOptions, err error) (*Run, error) {
	rs.run.Status = RunStatusError
	rs.run.Error = err.Error()
	e.emit(NewEvent(EventRunFinished, rs.run.ID).
		WithElapsed(opts.Now().Sub(start)).
		WithPayload("status", string(RunStatusError)).
		WithPayload("error", err.Error()))
	return rs.run, err
}

func (e *Engine) emit(event Event) {
	if e.handler != nil {
		e.handler(event)
	}
}

// inputFor resolves a node's input from its dependencies:
// no sources yields nil, a single source passes its raw output through
// unwrapped, and two or more sources yield a map keyed by source node ID.
// Sources with no recorded output are returned in missing; whether that is
// fatal depends on the node kind.
func (rs *runState) inputFor(node *Node) (any, []string) {
	ids := rs.deps[node.ID]

	var missing []string
	for _, id := range ids {
		if _, ok := rs.outputs[id]; !ok {
			missing = append(missing, id)
		}
	}

	switch len(ids) {
	case 0:
		return nil, nil
	case 1:
		return rs.outputs[ids[0]], missing
	default:
		fanIn := make(map[string]any, len(ids))
		for _, id := range ids {
			if value, ok := rs.outputs[id]; ok {
				fanIn[id] = value
			}
		}
		return fanIn, missing
	}
}

// record writes the node's output under its ID and label and appends the
// result to the run. Later writes to a colliding key win; validation warns
// about ambiguous labels up front.
func (rs *runState) record(node *Node, output any) {
	rs.outputs[node.ID] = output
	if node.Label != "" {
		rs.outputs[node.Label] = output
	}
	rs.run.NodeResults = append(rs.run.NodeResults, NodeResult{
		NodeID: node.ID,
		Label:  node.Label,
		Kind:   node.Kind,
		Output: output,
	})
}

// labelFor returns a node's label, falling back to its ID.
func (rs *runState) labelFor(id string) string {
	if node := rs.pipeline.NodeByID(id); node != nil && node.Label != "" {
		return node.Label
	}
	return id
}
