package quillflow

import (
	"context"
	"strings"

	"github.com/quill-labs/quillflow/sandbox"
)

// execBatchLoop partitions the node's list input into batches and drives a
// borrowed ai_prompt node once per batch.
//
// The borrowed node comes from the validated prompt_source_node reference
// when configured, otherwise from a forward scan of the execution order for
// the nearest subsequent ai_prompt. Either way it is marked consumed and
// excluded from top-level execution; its output keys are back-filled with
// the loop's final result so direct dependents still resolve.
//
// Each iteration runs the configured script with the full item list, the
// iteration counter, the batch size, and the responses so far. A done
// signal stops the loop and uses the script's output as the result; a
// promptVars map drives one LLM call whose response is appended to the
// accumulator. Without a script the loop passes the raw item list through.
func (e *Engine) execBatchLoop(ctx context.Context, rs *runState, idx int, node *Node) (any, error) {
	cfg := node.Batch
	if cfg == nil {
		cfg = &BatchConfig{}
	}

	input, missing := rs.inputFor(node)
	if len(missing) > 0 {
		return nil, missingDepsError(node, missing)
	}

	items := coerceItems(input)
	bound := rs.resolveBoundPrompt(idx, cfg)
	if bound != nil {
		rs.consumed[bound.ID] = true
	}

	var output any
	if cfg.Script == "" {
		output = items
	} else {
		output = e.runBatchIterations(ctx, rs, node, cfg, items, bound)
	}

	if bound != nil {
		rs.outputs[bound.ID] = output
		if bound.Label != "" {
			rs.outputs[bound.Label] = output
		}
	}
	return output, nil
}

func (e *Engine) runBatchIterations(ctx context.Context, rs *runState, node *Node, cfg *BatchConfig, items []any, bound *Node) any {
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = len(items)
	}
	if batchSize < 1 {
		batchSize = 1
	}
	iterations := (len(items) + batchSize - 1) / batchSize

	var results []string
	for iteration := 0; iteration < iterations; iteration++ {
		res := e.scripts.Run(ctx, cfg.Script, sandbox.Context{
			Input:     items,
			Iteration: iteration,
			BatchSize: batchSize,
			Results:   results,
			Vars:      rs.outputs,
		})
		if res.Failed() {
			e.log.Warn().Str("node", node.ID).Int("iteration", iteration).
				Str("error", res.Err).Msg("batch script failed, skipping iteration")
			continue
		}

		if res.Done {
			if res.Output != nil {
				return res.Output
			}
			break
		}

		switch {
		case len(res.PromptVars) > 0 && bound != nil:
			results = append(results, e.batchPromptCall(ctx, rs, bound, items, res.PromptVars))
		case res.Output != nil:
			results = append(results, Stringify(res.Output))
		}
	}
	return results
}

// batchPromptCall substitutes the iteration's promptVars into the borrowed
// prompt, resolves the remaining variables, and invokes the LLM. Provider
// failure yields a fenced error marker entry, matching ai_prompt semantics.
func (e *Engine) batchPromptCall(ctx context.Context, rs *runState, bound *Node, items []any, promptVars map[string]string) string {
	cfg := bound.Prompt
	if cfg == nil {
		cfg = &PromptConfig{}
	}

	prompt := cfg.InlinePrompt
	for name, value := range promptVars {
		prompt = strings.ReplaceAll(prompt, "{{"+name+"}}", value)
	}
	prompt = Substitute(prompt, rs.outputs, nil)
	prompt = bindInput(prompt, items)

	content, err := e.callModel(ctx, rs, cfg.SystemMessage, prompt, cfg.ReasoningEffort)
	if err != nil {
		e.log.Warn().Err(err).Str("node", bound.ID).Msg("batched LLM call failed, recording error marker")
		return errorMarker(err)
	}
	return content
}

// resolveBoundPrompt picks the ai_prompt node the loop drives: the explicit
// prompt_source_node if configured, else the nearest unconsumed ai_prompt
// after the loop in execution order. Returns nil when the loop has no
// prompt to borrow.
func (rs *runState) resolveBoundPrompt(idx int, cfg *BatchConfig) *Node {
	if cfg.PromptSource != "" {
		return rs.pipeline.NodeByID(cfg.PromptSource)
	}
	for _, id := range rs.order[idx+1:] {
		node := rs.pipeline.NodeByID(id)
		if node != nil && node.Kind == NodeKindPrompt && !rs.consumed[id] {
			return node
		}
	}
	return nil
}

// coerceItems normalizes the loop input into a list; non-list inputs
// become an empty list.
func coerceItems(input any) []any {
	switch v := input.(type) {
	case []any:
		return v
	case []string:
		out := make([]any, len(v))
		for i, s := range v {
			out[i] = s
		}
		return out
	default:
		return []any{}
	}
}
