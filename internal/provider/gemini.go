package provider

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/tordrt/schemadraft/internal/schema"
)

// DefaultGeminiModel is used when no model is configured.
const DefaultGeminiModel = "gemini-2.5-flash"

// Gemini generates schemas with the Gemini API.
type Gemini struct {
	client *genai.Client
	model  string
}

// GeminiOptions configures NewGemini. BaseURL overrides the API host.
type GeminiOptions struct {
	APIKey  string
	Model   string
	BaseURL string
}

// NewGemini creates a Gemini client.
func NewGemini(ctx context.Context, opts GeminiOptions) (*Gemini, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("gemini: API key is not set")
	}
	if opts.Model == "" {
		opts.Model = DefaultGeminiModel
	}

	cfg := &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if opts.BaseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: opts.BaseURL}
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return &Gemini{client: client, model: opts.Model}, nil
}

// Generate implements Client.
func (g *Gemini) Generate(ctx context.Context, req Request) ([]*schema.Table, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(BuildPrompt(req)), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}
	return ParseResponse(resp.Text())
}
