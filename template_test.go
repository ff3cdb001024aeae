package quillflow

import (
	"reflect"
	"testing"
)

func TestSubstitute(t *testing.T) {
	outputs := map[string]any{
		"title":    "Q3 Report",
		"sections": []string{"intro", "body"},
		"count":    3,
	}

	tests := []struct {
		name string
		text string
		want string
	}{
		{"plain text untouched", "no placeholders here", "no placeholders here"},
		{"string value", "Title: {{title}}", "Title: Q3 Report"},
		{"whitespace inside braces", "Title: {{ title }}", "Title: Q3 Report"},
		{"list joins with newlines", "{{sections}}", "intro\nbody"},
		{"number through %v", "{{count}} items", "3 items"},
		{"missing becomes empty", "a{{nope}}b", "ab"},
		{"input marker stays literal", "use {{input}} here", "use {{input}} here"},
		{"text marker stays literal", "use {{text}} here", "use {{text}} here"},
		{"multiple occurrences", "{{title}}/{{title}}", "Q3 Report/Q3 Report"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Substitute(tt.text, outputs, nil); got != tt.want {
				t.Errorf("Substitute(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestSubstitute_ReservedNamesStayLiteral(t *testing.T) {
	outputs := map[string]any{
		"item":  "SHOULD NOT APPEAR",
		"title": "Report",
	}
	reserved := reservedSet([]string{"item"})

	got := Substitute("{{title}}: {{item}}", outputs, reserved)
	want := "Report: {{item}}"
	if got != want {
		t.Errorf("Substitute() = %q, want %q", got, want)
	}
}

func TestStringify(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  string
	}{
		{"nil", nil, ""},
		{"string", "hello", "hello"},
		{"string slice", []string{"a", "b"}, "a\nb"},
		{"any slice", []any{"a", 2}, "a\n2"},
		{"map as json", map[string]any{"k": "v"}, `{"k":"v"}`},
		{"int", 42, "42"},
		{"bool", true, "true"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Stringify(tt.value); got != tt.want {
				t.Errorf("Stringify(%v) = %q, want %q", tt.value, got, tt.want)
			}
		})
	}
}

func TestBindInput(t *testing.T) {
	if got := bindInput("before {{input}} after", "X"); got != "before X after" {
		t.Errorf("bindInput() = %q", got)
	}
	if got := bindInput("{{text}}", []string{"a", "b"}); got != "a\nb" {
		t.Errorf("bindInput() = %q", got)
	}
	// nil input leaves the marker alone rather than erasing it.
	if got := bindInput("{{input}}", nil); got != "{{input}}" {
		t.Errorf("bindInput(nil) = %q", got)
	}
}

func TestReservedSet(t *testing.T) {
	if got := reservedSet(nil); got != nil {
		t.Errorf("reservedSet(nil) = %v, want nil", got)
	}
	got := reservedSet([]string{"a", "b"})
	want := map[string]bool{"a": true, "b": true}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("reservedSet() = %v, want %v", got, want)
	}
}
