package quillflow

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestExecutionOrder_Linear(t *testing.T) {
	p := &Pipeline{
		Nodes: []Node{
			{ID: "c", Kind: NodeKindAggregate},
			{ID: "a", Kind: NodeKindTemplate},
			{ID: "b", Kind: NodeKindPrompt},
		},
		Edges: []Edge{
			{Source: "a", Target: "b"},
			{Source: "b", Target: "c"},
		},
	}

	order, err := ExecutionOrder(p)
	if err != nil {
		t.Fatalf("ExecutionOrder() error = %v", err)
	}
	want := []string{"a", "b", "c"}
	if !reflect.DeepEqual(order, want) {
		t.Errorf("order = %v, want %v", order, want)
	}
}

func TestExecutionOrder_SourcesPrecedeTargets(t *testing.T) {
	p := &Pipeline{
		Nodes: []Node{
			{ID: "merge", Kind: NodeKindAggregate},
			{ID: "left", Kind: NodeKindTemplate},
			{ID: "right", Kind: NodeKindTemplate},
			{ID: "sink", Kind: NodeKindReview},
		},
		Edges: []Edge{
			{Source: "left", Target: "merge"},
			{Source: "right", Target: "merge"},
			{Source: "merge", Target: "sink"},
		},
	}

	order, err := ExecutionOrder(p)
	if err != nil {
		t.Fatalf("ExecutionOrder() error = %v", err)
	}

	pos := make(map[string]int, len(order))
	for i, id := range order {
		pos[id] = i
	}
	for _, edge := range p.Edges {
		if pos[edge.Source] >= pos[edge.Target] {
			t.Errorf("edge %s->%s violated: order = %v", edge.Source, edge.Target, order)
		}
	}
}

func TestExecutionOrder_TiesByDeclarationOrder(t *testing.T) {
	// No edges at all: every node is a root, so the order must be exactly
	// the declaration order.
	p := &Pipeline{
		Nodes: []Node{
			{ID: "z", Kind: NodeKindTemplate},
			{ID: "m", Kind: NodeKindTemplate},
			{ID: "a", Kind: NodeKindTemplate},
		},
	}

	order, err := ExecutionOrder(p)
	if err != nil {
		t.Fatalf("ExecutionOrder() error = %v", err)
	}
	want := []string{"z", "m", "a"}
	if !reflect.DeepEqual(order, want) {
		t.Errorf("order = %v, want %v", order, want)
	}
}

func TestExecutionOrder_CycleError(t *testing.T) {
	p := &Pipeline{
		Nodes: []Node{
			{ID: "a", Kind: NodeKindTemplate},
			{ID: "b", Kind: NodeKindPrompt},
			{ID: "c", Kind: NodeKindAggregate},
		},
		Edges: []Edge{
			{Source: "a", Target: "b"},
			{Source: "b", Target: "c"},
			{Source: "c", Target: "b"},
		},
	}

	_, err := ExecutionOrder(p)
	if !errors.Is(err, ErrCycleDetected) {
		t.Fatalf("ExecutionOrder() error = %v, want ErrCycleDetected", err)
	}
	for _, id := range []string{"b", "c"} {
		if !strings.Contains(err.Error(), id) {
			t.Errorf("error %q does not name trapped node %q", err, id)
		}
	}
	if strings.Contains(err.Error(), "a,") || strings.Contains(err.Error(), "[a") {
		t.Errorf("error %q names node a, which is not in the cycle", err)
	}
}

func TestExecutionOrder_SelfLoop(t *testing.T) {
	p := &Pipeline{
		Nodes: []Node{
			{ID: "a", Kind: NodeKindTemplate},
		},
		Edges: []Edge{
			{Source: "a", Target: "a"},
		},
	}

	if _, err := ExecutionOrder(p); !errors.Is(err, ErrCycleDetected) {
		t.Fatalf("ExecutionOrder() error = %v, want ErrCycleDetected", err)
	}
}

func TestExecutionOrder_IgnoresDanglingEdges(t *testing.T) {
	p := &Pipeline{
		Nodes: []Node{
			{ID: "a", Kind: NodeKindTemplate},
		},
		Edges: []Edge{
			{Source: "ghost", Target: "a"},
		},
	}

	order, err := ExecutionOrder(p)
	if err != nil {
		t.Fatalf("ExecutionOrder() error = %v", err)
	}
	if !reflect.DeepEqual(order, []string{"a"}) {
		t.Errorf("order = %v, want [a]", order)
	}
}
