package quillflow

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var placeholderRe = regexp.MustCompile(`\{\{\s*([^{}\s][^{}]*?)\s*\}\}`)

// inputMarkers are resolved out-of-band by node executors after the generic
// pass: they bind to the node's resolved input, not to an outputs-store key.
var inputMarkers = map[string]bool{
	"input": true,
	"text":  true,
}

// Substitute replaces every {{name}} placeholder in text with the string
// form of outputs[name]. Names missing from the store become the empty
// string — a placeholder is never left intact and never raises. Names in
// reserved (plus the input/text markers) are skipped entirely so they stay
// literal for later per-iteration or per-node substitution.
func Substitute(text string, outputs map[string]any, reserved map[string]bool) string {
	if !strings.Contains(text, "{{") {
		return text
	}

	return placeholderRe.ReplaceAllStringFunc(text, func(match string) string {
		name := strings.TrimSpace(match[2 : len(match)-2])
		if inputMarkers[name] || reserved[name] {
			return match
		}
		value, ok := outputs[name]
		if !ok {
			return ""
		}
		return Stringify(value)
	})
}

// Stringify renders an output value deterministically:
// strings pass through, string and any slices join with newlines,
// maps render as JSON, everything else goes through %v.
func Stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case []string:
		return strings.Join(v, "\n")
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, Stringify(item))
		}
		return strings.Join(parts, "\n")
	case map[string]any:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(data)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// bindInput replaces the literal {{input}} and {{text}} markers with the
// node's stringified input. Executors call this after the generic pass.
func bindInput(text string, input any) string {
	if input == nil {
		return text
	}
	s := Stringify(input)
	text = strings.ReplaceAll(text, "{{input}}", s)
	text = strings.ReplaceAll(text, "{{text}}", s)
	return text
}

// reservedSet builds a lookup for a template node's loop variables.
func reservedSet(names []string) map[string]bool {
	if len(names) == 0 {
		return nil
	}
	set := make(map[string]bool, len(names))
	for _, name := range names {
		set[name] = true
	}
	return set
}
