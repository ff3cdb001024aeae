package llm

import (
	"context"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIConfig configures an OpenAI-backed client.
type OpenAIConfig struct {
	APIKey  string
	Model   string // defaults to gpt-4o
	BaseURL string // optional, for compatible endpoints
}

// OpenAIClient adapts the OpenAI chat completions API to the Client contract.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

// NewOpenAIClient creates an OpenAI client.
func NewOpenAIClient(cfg OpenAIConfig) *OpenAIClient {
	if cfg.Model == "" {
		cfg.Model = openai.GPT4o
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &OpenAIClient{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
	}
}

// Call sends a system+user chat completion.
func (c *OpenAIClient) Call(ctx context.Context, req Request) (Response, error) {
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.Prompt,
	})

	chatReq := openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: messages,
	}
	if effort := openaiEffort(req.Effort); effort != "" {
		chatReq.ReasoningEffort = effort
	}

	resp, err := c.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return Response{}, &ProviderError{Provider: "openai", Message: err.Error(), Err: err}
	}
	if len(resp.Choices) == 0 {
		return Response{}, &ProviderError{Provider: "openai", Message: "empty response"}
	}

	return Response{
		Content:          resp.Choices[0].Message.Content,
		Model:            resp.Model,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
	}, nil
}

// openaiEffort maps the engine's effort enum onto the API's
// low/medium/high reasoning_effort values. Auto omits the parameter.
func openaiEffort(effort ReasoningEffort) string {
	switch effort {
	case EffortMinimal, EffortLow:
		return "low"
	case EffortMedium:
		return "medium"
	case EffortHigh, EffortXHigh:
		return "high"
	default:
		return ""
	}
}

var _ Client = (*OpenAIClient)(nil)
