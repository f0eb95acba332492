package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/tordrt/schemadraft/internal/schema"
)

// Endpoint calls a remote generate-schema endpoint, such as another
// schemadraft server's POST /api/generate-schema.
type Endpoint struct {
	URL        string
	HTTPClient *http.Client
}

// NewEndpoint creates an Endpoint client. A nil httpClient uses
// http.DefaultClient.
func NewEndpoint(url string, httpClient *http.Client) *Endpoint {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Endpoint{URL: url, HTTPClient: httpClient}
}

// GenerateRequest is the generate-schema request body.
type GenerateRequest struct {
	Description   string `json:"description"`
	CurrentSchema string `json:"currentSchema,omitempty"`
}

// GenerateResponse is the generate-schema response body. Schema holds either
// {"tables": [...]} or a bare table array.
type GenerateResponse struct {
	Schema json.RawMessage `json:"schema,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// Generate implements Client.
func (e *Endpoint) Generate(ctx context.Context, req Request) ([]*schema.Table, error) {
	body := GenerateRequest{Description: req.Description}
	if req.Current != nil && req.Current.Len() > 0 {
		current, err := json.Marshal(req.Current)
		if err != nil {
			return nil, fmt.Errorf("encode current schema: %w", err)
		}
		body.CurrentSchema = string(current)
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, e.URL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := e.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var out GenerateResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if out.Error != "" {
			return nil, fmt.Errorf("API request failed: %s: %s", resp.Status, out.Error)
		}
		return nil, fmt.Errorf("API request failed: %s", resp.Status)
	}

	return schema.DecodeTables(out.Schema)
}
