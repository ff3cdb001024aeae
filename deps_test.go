package quillflow

import (
	"reflect"
	"testing"
)

func TestDependencies_DataEdges(t *testing.T) {
	p := &Pipeline{
		Nodes: []Node{
			{ID: "a", Kind: NodeKindTemplate},
			{ID: "b", Kind: NodeKindPrompt},
			{ID: "c", Kind: NodeKindPrompt},
		},
		Edges: []Edge{
			{Source: "a", Target: "b", SourceHandle: "data-out"},
			{Source: "a", Target: "c"}, // flow only, no data marker
		},
	}

	deps := Dependencies(p)

	if got := deps["b"]; !reflect.DeepEqual(got, []string{"a"}) {
		t.Errorf("deps[b] = %v, want [a]", got)
	}
	if got := deps["c"]; len(got) != 0 {
		t.Errorf("deps[c] = %v, want empty", got)
	}
}

func TestDependencies_TargetHandleCountsToo(t *testing.T) {
	p := &Pipeline{
		Nodes: []Node{
			{ID: "a", Kind: NodeKindTemplate},
			{ID: "b", Kind: NodeKindPrompt},
		},
		Edges: []Edge{
			{Source: "a", Target: "b", TargetHandle: "data-in"},
		},
	}

	deps := Dependencies(p)
	if got := deps["b"]; !reflect.DeepEqual(got, []string{"a"}) {
		t.Errorf("deps[b] = %v, want [a]", got)
	}
}

func TestDependencies_InputFromOrderAfterEdges(t *testing.T) {
	p := &Pipeline{
		Nodes: []Node{
			{ID: "a", Kind: NodeKindTemplate},
			{ID: "b", Kind: NodeKindTemplate},
			{ID: "c", Kind: NodeKindAggregate, InputFrom: []string{"b", "a"}},
		},
		Edges: []Edge{
			{Source: "a", Target: "c", SourceHandle: "data"},
		},
	}

	deps := Dependencies(p)
	want := []string{"a", "b", "a"}
	if got := deps["c"]; !reflect.DeepEqual(got, want) {
		t.Errorf("deps[c] = %v, want %v", got, want)
	}
}

func TestDependencies_DuplicatesKept(t *testing.T) {
	p := &Pipeline{
		Nodes: []Node{
			{ID: "a", Kind: NodeKindTemplate},
			{ID: "b", Kind: NodeKindPrompt, InputFrom: []string{"a"}},
		},
		Edges: []Edge{
			{Source: "a", Target: "b", SourceHandle: "data"},
		},
	}

	deps := Dependencies(p)
	want := []string{"a", "a"}
	if got := deps["b"]; !reflect.DeepEqual(got, want) {
		t.Errorf("deps[b] = %v, want %v (no deduplication)", got, want)
	}
}
