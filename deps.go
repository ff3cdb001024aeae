package quillflow

// Dependencies derives, for every node, the ordered source node IDs whose
// output it consumes. Data-handle edges come first, then the node's declared
// input_from entries in order. Entries are not deduplicated: a node may
// depend on the same source through both channels, and consumers re-read the
// same cached output for each entry.
func Dependencies(p *Pipeline) map[string][]string {
	deps := make(map[string][]string, len(p.Nodes))
	for _, node := range p.Nodes {
		deps[node.ID] = nil
	}

	for _, edge := range p.Edges {
		if !isDataHandle(edge.SourceHandle) && !isDataHandle(edge.TargetHandle) {
			continue
		}
		if _, ok := deps[edge.Target]; !ok {
			continue
		}
		deps[edge.Target] = append(deps[edge.Target], edge.Source)
	}

	for _, node := range p.Nodes {
		deps[node.ID] = append(deps[node.ID], node.InputFrom...)
	}

	return deps
}
