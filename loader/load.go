// Package loader reads pipeline files in JSON or YAML form and validates
// them before execution.
package loader

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/quill-labs/quillflow"
)

// Load reads a pipeline file, converts YAML to JSON when the extension
// calls for it, and validates the result. Error-severity diagnostics are
// returned as a *quillflow.DiagnosticError.
func Load(path string) (*quillflow.Pipeline, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path from caller
	if err != nil {
		return nil, fmt.Errorf("reading file %s: %w", path, err)
	}
	return Parse(data, isYAML(path))
}

// Parse decodes and validates pipeline bytes.
func Parse(data []byte, fromYAML bool) (*quillflow.Pipeline, error) {
	if fromYAML {
		converted, err := yamlToJSON(data)
		if err != nil {
			return nil, err
		}
		data = converted
	}

	var p quillflow.Pipeline
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing pipeline: %w", err)
	}

	if diags := p.Validate(); quillflow.HasErrors(diags) {
		return nil, &quillflow.DiagnosticError{Diagnostics: diags}
	}

	return &p, nil
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// yamlToJSON converts YAML bytes to JSON bytes so a single decode path
// handles both formats.
func yamlToJSON(data []byte) ([]byte, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}
	out, err := json.Marshal(normalizeYAML(doc))
	if err != nil {
		return nil, fmt.Errorf("converting YAML: %w", err)
	}
	return out, nil
}

// normalizeYAML rewrites map[any]any keys (produced by some YAML shapes)
// into map[string]any for JSON marshalling.
func normalizeYAML(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = normalizeYAML(item)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[fmt.Sprintf("%v", k)] = normalizeYAML(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = normalizeYAML(item)
		}
		return out
	default:
		return v
	}
}
