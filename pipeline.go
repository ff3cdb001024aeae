package quillflow

import (
	"encoding/json"
	"fmt"
)

// NodeKind identifies the type of a pipeline node.
// The set of kinds is fixed; unknown kinds are rejected at load time.
type NodeKind string

const (
	NodeKindPrompt    NodeKind = "ai_prompt"
	NodeKindParseList NodeKind = "parse_list"
	NodeKindBatchLoop NodeKind = "batch_loop"
	NodeKindAggregate NodeKind = "aggregate"
	NodeKindTemplate  NodeKind = "template"
	NodeKindEditList  NodeKind = "user_edit_list"
	NodeKindReview    NodeKind = "user_review"
)

// String returns the string representation of the NodeKind.
func (k NodeKind) String() string {
	return string(k)
}

func knownKind(k NodeKind) bool {
	switch k {
	case NodeKindPrompt, NodeKindParseList, NodeKindBatchLoop,
		NodeKindAggregate, NodeKindTemplate, NodeKindEditList, NodeKindReview:
		return true
	}
	return false
}

// PromptConfig configures an ai_prompt node.
type PromptConfig struct {
	// InlinePrompt is the user prompt; {{name}} placeholders are resolved
	// against the outputs store before the call.
	InlinePrompt string `json:"inline_prompt"`

	// SystemMessage is sent as the system prompt. A configured source
	// material block is appended to it by the engine.
	SystemMessage string `json:"system_message,omitempty"`

	// ReasoningEffort selects the provider effort level
	// (auto|minimal|low|medium|high|xhigh). Empty means auto.
	ReasoningEffort string `json:"reasoning_effort,omitempty"`

	// Script is an optional pre-call script; a returned promptVars map is
	// substituted into the prompt before generic resolution.
	Script string `json:"script,omitempty"`
}

// ParseConfig configures a parse_list node.
type ParseConfig struct {
	// Script overrides the default newline-split policy.
	Script string `json:"script,omitempty"`
}

// BatchConfig configures a batch_loop node.
type BatchConfig struct {
	// BatchSize is the number of items per iteration.
	// Zero or negative means all items in a single iteration.
	BatchSize int `json:"batch_size,omitempty"`

	// PromptSource names the ai_prompt node whose prompt the loop borrows.
	// When empty, the nearest subsequent ai_prompt in execution order is used.
	PromptSource string `json:"prompt_source_node,omitempty"`

	// Script drives each iteration. Without a script the loop passes the
	// item list straight through.
	Script string `json:"script,omitempty"`
}

// AggregateConfig configures an aggregate node.
type AggregateConfig struct {
	// Script overrides the default section/join policy.
	Script string `json:"script,omitempty"`

	// Separator joins list entries and fan-in sections. Defaults to "\n\n".
	Separator string `json:"separator,omitempty"`
}

// TemplateConfig configures a template node.
type TemplateConfig struct {
	// TemplateText is resolved against the outputs store, then a literal
	// {{input}} marker is replaced with the node's input.
	TemplateText string `json:"template_text"`

	// LoopVars lists placeholder names left unresolved by the generic pass
	// so a downstream batch_loop can substitute them per iteration.
	LoopVars []string `json:"loop_vars,omitempty"`

	// Default is used as the node's input when input_from is empty
	// (the interactive "ask the user" mode is not rendered headlessly).
	Default string `json:"default,omitempty"`
}

// Node is one typed step in a pipeline. Exactly one of the config pointers
// matching Kind is populated; the others are nil.
type Node struct {
	ID        string   `json:"node_id"`
	Label     string   `json:"label,omitempty"`
	Kind      NodeKind `json:"node_type"`
	InputFrom []string `json:"input_from,omitempty"`

	Prompt    *PromptConfig    `json:"-"`
	Parse     *ParseConfig     `json:"-"`
	Batch     *BatchConfig     `json:"-"`
	Aggregate *AggregateConfig `json:"-"`
	Template  *TemplateConfig  `json:"-"`
}

// nodeJSON is the wire form of a Node: common fields plus a raw config
// object decoded into the variant matching node_type.
type nodeJSON struct {
	ID        string          `json:"node_id"`
	Label     string          `json:"label,omitempty"`
	Kind      NodeKind        `json:"node_type"`
	InputFrom []string        `json:"input_from,omitempty"`
	Config    json.RawMessage `json:"config,omitempty"`
}

// UnmarshalJSON decodes the node_type tag and fills the matching config
// variant. Review kinds carry no config.
func (n *Node) UnmarshalJSON(data []byte) error {
	var raw nodeJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	n.ID = raw.ID
	n.Label = raw.Label
	n.Kind = raw.Kind
	n.InputFrom = raw.InputFrom

	if !knownKind(raw.Kind) {
		return fmt.Errorf("node %q: unknown node_type %q", raw.ID, raw.Kind)
	}

	cfg := raw.Config
	if len(cfg) == 0 {
		cfg = json.RawMessage("{}")
	}

	switch raw.Kind {
	case NodeKindPrompt:
		n.Prompt = &PromptConfig{}
		return json.Unmarshal(cfg, n.Prompt)
	case NodeKindParseList:
		n.Parse = &ParseConfig{}
		return json.Unmarshal(cfg, n.Parse)
	case NodeKindBatchLoop:
		n.Batch = &BatchConfig{}
		return json.Unmarshal(cfg, n.Batch)
	case NodeKindAggregate:
		n.Aggregate = &AggregateConfig{}
		return json.Unmarshal(cfg, n.Aggregate)
	case NodeKindTemplate:
		n.Template = &TemplateConfig{}
		return json.Unmarshal(cfg, n.Template)
	}
	return nil
}

// MarshalJSON renders the node back into its wire form.
func (n Node) MarshalJSON() ([]byte, error) {
	raw := nodeJSON{
		ID:        n.ID,
		Label:     n.Label,
		Kind:      n.Kind,
		InputFrom: n.InputFrom,
	}

	var cfg any
	switch {
	case n.Prompt != nil:
		cfg = n.Prompt
	case n.Parse != nil:
		cfg = n.Parse
	case n.Batch != nil:
		cfg = n.Batch
	case n.Aggregate != nil:
		cfg = n.Aggregate
	case n.Template != nil:
		cfg = n.Template
	}
	if cfg != nil {
		data, err := json.Marshal(cfg)
		if err != nil {
			return nil, err
		}
		raw.Config = data
	}

	return json.Marshal(raw)
}

// Edge is a directed link between two nodes. Every edge counts for
// execution ordering; an edge whose source or target handle contains the
// marker "data" additionally declares a data dependency.
type Edge struct {
	Source       string `json:"source"`
	Target       string `json:"target"`
	SourceHandle string `json:"sourceHandle,omitempty"`
	TargetHandle string `json:"targetHandle,omitempty"`
}

// Pipeline is a user-authored DAG of processing nodes.
// A pipeline is immutable during execution; a run reads a snapshot.
type Pipeline struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// NodeByID returns the node with the given ID, or nil.
func (p *Pipeline) NodeByID(id string) *Node {
	for i := range p.Nodes {
		if p.Nodes[i].ID == id {
			return &p.Nodes[i]
		}
	}
	return nil
}
