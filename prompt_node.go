package quillflow

import (
	"context"
	"strings"

	"github.com/quill-labs/quillflow/llm"
	"github.com/quill-labs/quillflow/metering"
	"github.com/quill-labs/quillflow/sandbox"
)

// execPrompt assembles the prompt and calls the LLM collaborator.
//
// Order of assembly: an optional pre-script may return promptVars applied
// as literal replacements, then the generic {{name}} pass runs against the
// outputs store, then {{input}}/{{text}} bind to the resolved input.
// A provider failure becomes a fenced error marker output so downstream
// nodes still execute; only a missing dependency output is fatal.
func (e *Engine) execPrompt(ctx context.Context, rs *runState, node *Node) (any, error) {
	cfg := node.Prompt
	if cfg == nil {
		cfg = &PromptConfig{}
	}

	input, missing := rs.inputFor(node)
	if len(missing) > 0 {
		return nil, missingDepsError(node, missing)
	}

	prompt := cfg.InlinePrompt
	if cfg.Script != "" {
		res := e.scripts.Run(ctx, cfg.Script, sandbox.Context{
			Input:  input,
			Prompt: prompt,
			Vars:   rs.outputs,
		})
		if res.Failed() {
			e.log.Warn().Str("node", node.ID).Str("error", res.Err).Msg("prompt script failed, continuing without promptVars")
		}
		for name, value := range res.PromptVars {
			prompt = strings.ReplaceAll(prompt, "{{"+name+"}}", value)
		}
	}

	prompt = Substitute(prompt, rs.outputs, nil)
	prompt = bindInput(prompt, input)

	content, err := e.callModel(ctx, rs, cfg.SystemMessage, prompt, cfg.ReasoningEffort)
	if err != nil {
		e.log.Warn().Err(err).Str("node", node.ID).Msg("LLM call failed, recording error marker")
		return errorMarker(err), nil
	}
	return content, nil
}

// callModel invokes the LLM collaborator with the source-material block (if
// configured) appended to the system message, and reports usage to the
// meter. Metering failure is logged, never fatal.
func (e *Engine) callModel(ctx context.Context, rs *runState, system, prompt, effort string) (string, error) {
	if e.client == nil {
		return "", &llm.ProviderError{Provider: "none", Message: "no LLM client configured"}
	}

	if e.source != nil {
		block, err := e.source.Block(ctx)
		switch {
		case err != nil:
			e.log.Warn().Err(err).Msg("source material unavailable")
		case block != "":
			system = strings.TrimSpace(system + "\n\n" + block)
		}
	}

	resp, err := e.client.Call(ctx, llm.Request{
		System: system,
		Prompt: prompt,
		Effort: llm.ParseEffort(effort),
	})
	if err != nil {
		return "", err
	}

	usage := metering.Usage{
		OrgID:            rs.opts.OrgID,
		UserID:           rs.opts.UserID,
		Model:            resp.Model,
		PromptTokens:     resp.PromptTokens,
		CompletionTokens: resp.CompletionTokens,
		Source:           "pipeline_run",
	}
	if err := e.meter.Record(ctx, usage); err != nil {
		e.log.Warn().Err(err).Msg("usage metering failed")
	}

	return resp.Content, nil
}

// errorMarker fences a provider failure into a visible output string.
func errorMarker(err error) string {
	return "[error: " + err.Error() + "]"
}

func missingDepsError(node *Node, missing []string) error {
	return &FatalNodeError{NodeID: node.ID, Missing: missing}
}
