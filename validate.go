package quillflow

import (
	"fmt"
	"strings"
)

// Diagnostic is a validation finding produced before execution.
type Diagnostic struct {
	Code     string `json:"code"`           // e.g. "PL-001"
	Severity string `json:"severity"`       // "error" or "warning"
	Message  string `json:"message"`        // human-readable description
	Path     string `json:"path,omitempty"` // JSON path to offending field
}

const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// HasErrors returns true if any diagnostic has error severity.
func HasErrors(diags []Diagnostic) bool {
	for _, d := range diags {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// DiagnosticError wraps error-severity diagnostics as a single error.
type DiagnosticError struct {
	Diagnostics []Diagnostic
}

func (e *DiagnosticError) Error() string {
	var errs []Diagnostic
	for _, d := range e.Diagnostics {
		if d.Severity == SeverityError {
			errs = append(errs, d)
		}
	}
	if len(errs) == 1 {
		return fmt.Sprintf("pipeline validation: %s", errs[0].Message)
	}
	return fmt.Sprintf("pipeline validation: %d errors (first: %s)", len(errs), errs[0].Message)
}

// Validate checks structural integrity of the pipeline:
//   - PL-001: duplicate node IDs
//   - PL-002: edge endpoints reference existing nodes
//   - PL-003: input_from entries reference existing nodes
//   - PL-004: cycle detection over the flow edges
//   - PL-005: batch_loop prompt_source_node references an existing ai_prompt
//   - PL-006: duplicate output keys (label colliding with an ID or another
//     label) — warning only; later writes win at run time
//
// A pipeline with error-severity diagnostics must not be executed.
func (p *Pipeline) Validate() []Diagnostic {
	var diags []Diagnostic

	ids := make(map[string]bool, len(p.Nodes))
	for i, node := range p.Nodes {
		if node.ID == "" {
			diags = append(diags, Diagnostic{
				Code:     "PL-001",
				Severity: SeverityError,
				Message:  "node has empty node_id",
				Path:     fmt.Sprintf("nodes[%d].node_id", i),
			})
			continue
		}
		if ids[node.ID] {
			diags = append(diags, Diagnostic{
				Code:     "PL-001",
				Severity: SeverityError,
				Message:  fmt.Sprintf("duplicate node_id %q", node.ID),
				Path:     fmt.Sprintf("nodes[%d].node_id", i),
			})
		}
		ids[node.ID] = true
	}

	for i, edge := range p.Edges {
		if !ids[edge.Source] {
			diags = append(diags, Diagnostic{
				Code:     "PL-002",
				Severity: SeverityError,
				Message:  fmt.Sprintf("edge source %q references unknown node", edge.Source),
				Path:     fmt.Sprintf("edges[%d].source", i),
			})
		}
		if !ids[edge.Target] {
			diags = append(diags, Diagnostic{
				Code:     "PL-002",
				Severity: SeverityError,
				Message:  fmt.Sprintf("edge target %q references unknown node", edge.Target),
				Path:     fmt.Sprintf("edges[%d].target", i),
			})
		}
	}

	for i, node := range p.Nodes {
		for j, src := range node.InputFrom {
			if !ids[src] {
				diags = append(diags, Diagnostic{
					Code:     "PL-003",
					Severity: SeverityError,
					Message:  fmt.Sprintf("node %q input_from references unknown node %q", node.ID, src),
					Path:     fmt.Sprintf("nodes[%d].input_from[%d]", i, j),
				})
			}
		}

		if node.Kind == NodeKindBatchLoop && node.Batch != nil && node.Batch.PromptSource != "" {
			ref := p.NodeByID(node.Batch.PromptSource)
			switch {
			case ref == nil:
				diags = append(diags, Diagnostic{
					Code:     "PL-005",
					Severity: SeverityError,
					Message:  fmt.Sprintf("batch_loop %q prompt_source_node %q does not exist", node.ID, node.Batch.PromptSource),
					Path:     fmt.Sprintf("nodes[%d].config.prompt_source_node", i),
				})
			case ref.Kind != NodeKindPrompt:
				diags = append(diags, Diagnostic{
					Code:     "PL-005",
					Severity: SeverityError,
					Message:  fmt.Sprintf("batch_loop %q prompt_source_node %q is a %s, want ai_prompt", node.ID, node.Batch.PromptSource, ref.Kind),
					Path:     fmt.Sprintf("nodes[%d].config.prompt_source_node", i),
				})
			}
		}
	}

	// Cycle detection is meaningless while edges dangle.
	if !hasEdgeErrors(diags) {
		if _, err := ExecutionOrder(p); err != nil {
			diags = append(diags, Diagnostic{
				Code:     "PL-004",
				Severity: SeverityError,
				Message:  err.Error(),
			})
		}
	}

	diags = append(diags, p.collisionWarnings(ids)...)

	return diags
}

// collisionWarnings reports output keys that more than one node writes.
// Outputs are recorded under both node_id and label, so a label shared with
// another node's ID or label is resolved by execution order (write-wins).
func (p *Pipeline) collisionWarnings(ids map[string]bool) []Diagnostic {
	var diags []Diagnostic
	labels := make(map[string]string) // label -> first node ID

	for i, node := range p.Nodes {
		if node.Label == "" || node.Label == node.ID {
			continue
		}
		if ids[node.Label] {
			diags = append(diags, Diagnostic{
				Code:     "PL-006",
				Severity: SeverityWarning,
				Message:  fmt.Sprintf("node %q label %q collides with another node_id; the later write wins", node.ID, node.Label),
				Path:     fmt.Sprintf("nodes[%d].label", i),
			})
			continue
		}
		if first, ok := labels[node.Label]; ok {
			diags = append(diags, Diagnostic{
				Code:     "PL-006",
				Severity: SeverityWarning,
				Message:  fmt.Sprintf("nodes %q and %q share label %q; the later write wins", first, node.ID, node.Label),
				Path:     fmt.Sprintf("nodes[%d].label", i),
			})
			continue
		}
		labels[node.Label] = node.ID
	}

	return diags
}

func hasEdgeErrors(diags []Diagnostic) bool {
	for _, d := range diags {
		if d.Code == "PL-001" || d.Code == "PL-002" {
			return true
		}
	}
	return false
}

// isDataHandle reports whether an edge handle declares a data dependency.
func isDataHandle(handle string) bool {
	return strings.Contains(handle, "data")
}
