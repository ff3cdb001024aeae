package llm

import (
	"context"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicConfig configures an Anthropic-backed client.
type AnthropicConfig struct {
	APIKey    string
	Model     string // defaults to claude-sonnet-4-5
	MaxTokens int    // defaults to 4096
}

// AnthropicClient adapts the Anthropic messages API to the Client contract.
type AnthropicClient struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

// NewAnthropicClient creates an Anthropic client.
func NewAnthropicClient(cfg AnthropicConfig) *AnthropicClient {
	if cfg.Model == "" {
		cfg.Model = "claude-sonnet-4-5"
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 4096
	}
	return &AnthropicClient{
		client:    anthropic.NewClient(option.WithAPIKey(cfg.APIKey)),
		model:     cfg.Model,
		maxTokens: int64(cfg.MaxTokens),
	}
}

// Call sends a single-turn message. Effort levels at medium and above
// enable extended thinking with a budget scaled to the level.
func (c *AnthropicClient) Call(ctx context.Context, req Request) (Response, error) {
	msgReq := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: c.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	}
	if req.System != "" {
		msgReq.System = []anthropic.TextBlockParam{{Text: req.System}}
	}
	if budget := thinkingBudget(req.Effort); budget > 0 {
		msgReq.Thinking = anthropic.ThinkingConfigParamOfEnabled(budget)
		if c.maxTokens <= budget {
			msgReq.MaxTokens = budget + c.maxTokens
		}
	}

	resp, err := c.client.Messages.New(ctx, msgReq)
	if err != nil {
		return Response{}, &ProviderError{Provider: "anthropic", Message: err.Error(), Err: err}
	}

	var content strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			content.WriteString(block.Text)
		}
	}

	return Response{
		Content:          content.String(),
		Model:            string(resp.Model),
		PromptTokens:     int(resp.Usage.InputTokens),
		CompletionTokens: int(resp.Usage.OutputTokens),
	}, nil
}

// thinkingBudget maps effort onto an extended-thinking token budget.
// Levels below medium disable thinking.
func thinkingBudget(effort ReasoningEffort) int64 {
	switch effort {
	case EffortMedium:
		return 4096
	case EffortHigh:
		return 8192
	case EffortXHigh:
		return 16384
	default:
		return 0
	}
}

var _ Client = (*AnthropicClient)(nil)
