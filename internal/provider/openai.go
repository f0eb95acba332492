package provider

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"

	"github.com/tordrt/schemadraft/internal/schema"
)

// DefaultOpenAIModel is used when no model is configured.
const DefaultOpenAIModel = "gpt-4o-mini"

const systemPrompt = "You are a database schema designer. Reply with a single JSON object of the form {\"tables\": [...]} and nothing else."

// OpenAI generates schemas with an OpenAI-compatible chat completions API.
type OpenAI struct {
	client *openai.Client
	model  string
}

// OpenAIOptions configures NewOpenAI. BaseURL targets a compatible server.
type OpenAIOptions struct {
	APIKey  string
	Model   string
	BaseURL string
}

// NewOpenAI creates an OpenAI client.
func NewOpenAI(opts OpenAIOptions) (*OpenAI, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("openai: API key is not set")
	}
	if opts.Model == "" {
		opts.Model = DefaultOpenAIModel
	}

	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}
	return &OpenAI{client: openai.NewClientWithConfig(cfg), model: opts.Model}, nil
}

// Generate implements Client.
func (o *OpenAI) Generate(ctx context.Context, req Request) ([]*schema.Table, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       o.model,
		Temperature: 0.1,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: BuildPrompt(req)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("openai: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai: no choices in response")
	}
	return ParseResponse(resp.Choices[0].Message.Content)
}
