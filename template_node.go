package quillflow

// execTemplate resolves the node's template text against the outputs store,
// skipping declared loop variables so they stay literal for a downstream
// batch loop, then binds the literal {{input}} marker to the node's input.
// A template with no input_from is the interactive "ask the user" variant;
// headless execution passes the configured default (or blank) through as
// the input instead of rendering a form.
func (e *Engine) execTemplate(rs *runState, node *Node) (any, error) {
	cfg := node.Template
	if cfg == nil {
		cfg = &TemplateConfig{}
	}

	input, _ := rs.inputFor(node)
	if len(rs.deps[node.ID]) == 0 {
		input = cfg.Default
	}

	out := Substitute(cfg.TemplateText, rs.outputs, reservedSet(cfg.LoopVars))
	out = bindInput(out, input)
	return out, nil
}
