package quillflow

import (
	"context"
	"regexp"
	"strings"

	"github.com/quill-labs/quillflow/sandbox"
)

// listPrefixRe matches numbered ("1.", "2)") and bulleted ("-", "*", "•")
// list markers at the start of a line.
var listPrefixRe = regexp.MustCompile(`^(\d+[.)]|[-*•])\s+`)

// execParseList turns the node's input into a list of strings. A configured
// script replaces the default policy entirely; otherwise the stringified
// input is split on newlines, trimmed, emptied lines dropped, and list
// markers stripped.
func (e *Engine) execParseList(ctx context.Context, rs *runState, node *Node) (any, error) {
	cfg := node.Parse
	if cfg == nil {
		cfg = &ParseConfig{}
	}

	input, _ := rs.inputFor(node)

	if cfg.Script != "" {
		res := e.scripts.Run(ctx, cfg.Script, sandbox.Context{
			Input: input,
			Vars:  rs.outputs,
		})
		if res.Failed() {
			e.log.Warn().Str("node", node.ID).Str("error", res.Err).Msg("parse script failed, falling back to default policy")
			return defaultParseList(Stringify(input)), nil
		}
		return coerceStringList(res.Output), nil
	}

	return defaultParseList(Stringify(input)), nil
}

// defaultParseList is the scriptless policy: newline split, trim, drop
// empties, strip leading list markers.
func defaultParseList(text string) []string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		out = append(out, listPrefixRe.ReplaceAllString(line, ""))
	}
	return out
}

// coerceStringList normalizes a script result into []string.
func coerceStringList(value any) []string {
	switch v := value.(type) {
	case nil:
		return []string{}
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, Stringify(item))
		}
		return out
	case string:
		return defaultParseList(v)
	default:
		return []string{Stringify(v)}
	}
}
