package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/tordrt/schemadraft/internal/schema"
)

// ErrNotConfigured is returned by the client of kind "none".
var ErrNotConfigured = errors.New("no schema provider configured")

// Kind names a Client implementation.
const (
	KindNone     = "none"
	KindEndpoint = "http"
	KindGemini   = "gemini"
	KindOpenAI   = "openai"
)

// Settings selects and configures a Client.
type Settings struct {
	Kind    string
	URL     string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// Open builds the Client described by s. KindNone yields a client that
// always fails, so the server can run without a model.
func Open(ctx context.Context, s Settings) (Client, error) {
	switch s.Kind {
	case "", KindNone:
		return ClientFunc(func(context.Context, Request) ([]*schema.Table, error) {
			return nil, ErrNotConfigured
		}), nil
	case KindEndpoint:
		if s.URL == "" {
			return nil, fmt.Errorf("provider %q requires a URL", s.Kind)
		}
		return NewEndpoint(s.URL, &http.Client{Timeout: s.Timeout}), nil
	case KindGemini:
		return NewGemini(ctx, GeminiOptions{APIKey: s.APIKey, Model: s.Model, BaseURL: s.URL})
	case KindOpenAI:
		return NewOpenAI(OpenAIOptions{APIKey: s.APIKey, Model: s.Model, BaseURL: s.URL})
	default:
		return nil, fmt.Errorf("unknown provider kind %q", s.Kind)
	}
}
