// Package telemetry translates engine events into OpenTelemetry spans.
package telemetry

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/quill-labs/quillflow"
)

// TracingHandler maintains a span per run and a child span per node,
// created and ended from execution events. Wire its Handle method as the
// engine's EventHandler; installing an SDK and exporter is the caller's
// concern.
type TracingHandler struct {
	tracer trace.Tracer

	mu        sync.Mutex
	runSpans  map[string]trace.Span
	runCtxs   map[string]context.Context
	nodeSpans map[string]trace.Span // runID:nodeID -> span
}

// NewTracingHandler creates a handler using the given tracer.
func NewTracingHandler(tracer trace.Tracer) *TracingHandler {
	return &TracingHandler{
		tracer:    tracer,
		runSpans:  make(map[string]trace.Span),
		runCtxs:   make(map[string]context.Context),
		nodeSpans: make(map[string]trace.Span),
	}
}

// Handle processes an engine event and creates or ends spans accordingly.
func (h *TracingHandler) Handle(e quillflow.Event) {
	switch e.Kind {
	case quillflow.EventRunStarted:
		h.runStarted(e)
	case quillflow.EventNodeStarted:
		h.nodeStarted(e)
	case quillflow.EventNodeFinished:
		h.nodeEnded(e, codes.Ok, "")
	case quillflow.EventNodeFailed:
		msg, _ := e.Payload["error"].(string)
		h.nodeEnded(e, codes.Error, msg)
	case quillflow.EventRunFinished:
		h.runFinished(e)
	}
}

func (h *TracingHandler) runStarted(e quillflow.Event) {
	pipelineID, _ := e.Payload["pipeline"].(string)

	ctx, span := h.tracer.Start(context.Background(), "pipeline_run",
		trace.WithAttributes(
			attribute.String("quillflow.run_id", e.RunID),
			attribute.String("quillflow.pipeline_id", pipelineID),
		),
		trace.WithTimestamp(e.Time),
	)

	h.mu.Lock()
	h.runSpans[e.RunID] = span
	h.runCtxs[e.RunID] = ctx
	h.mu.Unlock()
}

func (h *TracingHandler) nodeStarted(e quillflow.Event) {
	h.mu.Lock()
	parentCtx, ok := h.runCtxs[e.RunID]
	h.mu.Unlock()
	if !ok {
		parentCtx = context.Background()
	}

	_, span := h.tracer.Start(parentCtx, "node:"+e.NodeID,
		trace.WithAttributes(
			attribute.String("quillflow.run_id", e.RunID),
			attribute.String("quillflow.node_id", e.NodeID),
			attribute.String("quillflow.node_kind", string(e.NodeKind)),
		),
		trace.WithTimestamp(e.Time),
	)

	h.mu.Lock()
	h.nodeSpans[e.RunID+":"+e.NodeID] = span
	h.mu.Unlock()
}

func (h *TracingHandler) nodeEnded(e quillflow.Event, code codes.Code, msg string) {
	key := e.RunID + ":" + e.NodeID
	h.mu.Lock()
	span, ok := h.nodeSpans[key]
	delete(h.nodeSpans, key)
	h.mu.Unlock()
	if !ok {
		return
	}

	span.SetStatus(code, msg)
	span.End(trace.WithTimestamp(e.Time))
}

func (h *TracingHandler) runFinished(e quillflow.Event) {
	h.mu.Lock()
	span, ok := h.runSpans[e.RunID]
	delete(h.runSpans, e.RunID)
	delete(h.runCtxs, e.RunID)
	h.mu.Unlock()
	if !ok {
		return
	}

	if status, _ := e.Payload["status"].(string); status == string(quillflow.RunStatusError) {
		msg, _ := e.Payload["error"].(string)
		span.SetStatus(codes.Error, msg)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End(trace.WithTimestamp(e.Time))
}
