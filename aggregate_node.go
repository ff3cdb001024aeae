package quillflow

import (
	"context"
	"sort"
	"strings"

	"github.com/quill-labs/quillflow/sandbox"
)

const defaultSeparator = "\n\n"

// execAggregate collapses the node's input into a single string. A script
// overrides the default policy. Otherwise: a fan-in map renders each entry
// as a "## <source label>" section in sorted-key order (Go maps have no
// iteration order, so the order is made deterministic explicitly), a list
// joins its entries, and a scalar is stringified.
func (e *Engine) execAggregate(ctx context.Context, rs *runState, node *Node) (any, error) {
	cfg := node.Aggregate
	if cfg == nil {
		cfg = &AggregateConfig{}
	}
	sep := cfg.Separator
	if sep == "" {
		sep = defaultSeparator
	}

	input, _ := rs.inputFor(node)

	if cfg.Script != "" {
		res := e.scripts.Run(ctx, cfg.Script, sandbox.Context{
			Input: input,
			Vars:  rs.outputs,
		})
		if res.Failed() {
			e.log.Warn().Str("node", node.ID).Str("error", res.Err).Msg("aggregate script failed, falling back to default policy")
		} else {
			return Stringify(res.Output), nil
		}
	}

	switch v := input.(type) {
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		sections := make([]string, 0, len(keys))
		for _, k := range keys {
			sections = append(sections, "## "+rs.labelFor(k)+"\n\n"+Stringify(v[k]))
		}
		return strings.Join(sections, sep), nil
	case []string:
		return strings.Join(v, sep), nil
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, Stringify(item))
		}
		return strings.Join(parts, sep), nil
	default:
		return Stringify(v), nil
	}
}
