package quillflow

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrCycleDetected is returned when the flow edges cannot be ordered.
var ErrCycleDetected = errors.New("cycle detected in pipeline")

// ExecutionOrder computes a total order over all node IDs using Kahn's
// algorithm over the full edge list. The queue is FIFO, seeded in node
// declaration order, so ties are broken by insertion order — downstream
// output-key collisions depend on this.
//
// Nodes trapped in a cycle make the whole pipeline invalid: unlike a
// best-effort partial order, the error names the nodes that could not be
// scheduled so the author can fix the graph.
func ExecutionOrder(p *Pipeline) ([]string, error) {
	exists := make(map[string]bool, len(p.Nodes))
	for _, node := range p.Nodes {
		exists[node.ID] = true
	}

	inDegree := make(map[string]int, len(p.Nodes))
	successors := make(map[string][]string, len(p.Nodes))
	for _, edge := range p.Edges {
		if !exists[edge.Source] || !exists[edge.Target] {
			continue
		}
		inDegree[edge.Target]++
		successors[edge.Source] = append(successors[edge.Source], edge.Target)
	}

	queue := make([]string, 0, len(p.Nodes))
	for _, node := range p.Nodes {
		if inDegree[node.ID] == 0 {
			queue = append(queue, node.ID)
		}
	}

	order := make([]string, 0, len(p.Nodes))
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		order = append(order, current)

		for _, succ := range successors[current] {
			inDegree[succ]--
			if inDegree[succ] == 0 {
				queue = append(queue, succ)
			}
		}
	}

	if len(order) != len(p.Nodes) {
		scheduled := make(map[string]bool, len(order))
		for _, id := range order {
			scheduled[id] = true
		}
		var trapped []string
		for _, node := range p.Nodes {
			if !scheduled[node.ID] {
				trapped = append(trapped, node.ID)
			}
		}
		sort.Strings(trapped)
		return nil, fmt.Errorf("%w: nodes [%s] cannot be ordered", ErrCycleDetected, strings.Join(trapped, ", "))
	}

	return order, nil
}
