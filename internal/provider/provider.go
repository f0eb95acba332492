// Package provider asks a language model for a schema.
//
// A Client performs one request and reports failures as errors. Provider
// wraps a Client with the failure policy the rest of the application relies
// on: RequestSchema never fails, it logs and returns an empty table list.
package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/tordrt/schemadraft/internal/schema"
)

// ErrEmptyDescription is returned when a request carries no description.
var ErrEmptyDescription = errors.New("description is required")

// Request is one schema generation request.
type Request struct {
	Description string
	// Current is the schema to extend, nil when starting fresh.
	Current *schema.Schema
}

// Client generates tables for a request.
type Client interface {
	Generate(ctx context.Context, req Request) ([]*schema.Table, error)
}

// ClientFunc adapts a function to the Client interface.
type ClientFunc func(ctx context.Context, req Request) ([]*schema.Table, error)

// Generate calls f.
func (f ClientFunc) Generate(ctx context.Context, req Request) ([]*schema.Table, error) {
	return f(ctx, req)
}

// Provider applies timeouts and the recover-to-empty policy around a Client.
type Provider struct {
	client  Client
	logger  *slog.Logger
	timeout time.Duration
}

// New creates a Provider. A zero timeout leaves cancellation to the caller.
func New(client Client, logger *slog.Logger, timeout time.Duration) *Provider {
	if logger == nil {
		logger = slog.Default()
	}
	return &Provider{client: client, logger: logger, timeout: timeout}
}

// Generate validates the request and calls the client, returning its error.
func (p *Provider) Generate(ctx context.Context, description string, current *schema.Schema) ([]*schema.Table, error) {
	if strings.TrimSpace(description) == "" {
		return nil, ErrEmptyDescription
	}
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	start := time.Now()
	tables, err := p.client.Generate(ctx, Request{Description: description, Current: current})
	if err != nil {
		return nil, fmt.Errorf("generate schema: %w", err)
	}
	p.logger.Debug("schema generated", "tables", len(tables), "duration_ms", time.Since(start).Milliseconds())
	return tables, nil
}

// RequestSchema is Generate with failures logged and mapped to an empty list.
func (p *Provider) RequestSchema(ctx context.Context, description string, current *schema.Schema) []*schema.Table {
	tables, err := p.Generate(ctx, description, current)
	if err != nil {
		p.logger.Warn("schema request failed", "error", err)
		return []*schema.Table{}
	}
	return tables
}

// Analyze asks for an analyzed and optimized version of current. On failure
// the input tables are returned unchanged.
func (p *Provider) Analyze(ctx context.Context, current *schema.Schema) []*schema.Table {
	return p.rework(ctx, "Analyze and optimize this existing database schema: ", current)
}

// Validate asks for a corrected version of current, or returns it unchanged
// on failure.
func (p *Provider) Validate(ctx context.Context, current *schema.Schema) []*schema.Table {
	return p.rework(ctx, "Validate and fix any issues in this database schema: ", current)
}

// Optimize asks for a performance-oriented version of current, or returns it
// unchanged on failure.
func (p *Provider) Optimize(ctx context.Context, current *schema.Schema) []*schema.Table {
	return p.rework(ctx, "Optimize this database schema for better performance and maintainability: ", current)
}

// Migrate applies description to current, or returns current's tables on
// failure.
func (p *Provider) Migrate(ctx context.Context, current *schema.Schema, description string) []*schema.Table {
	schema.MustNotBeNil(current)

	tables, err := p.Generate(ctx, description, current)
	if err != nil {
		p.logger.Warn("migration request failed", "error", err)
		return current.Tables()
	}
	return tables
}

func (p *Provider) rework(ctx context.Context, prefix string, current *schema.Schema) []*schema.Table {
	schema.MustNotBeNil(current)

	payload, err := json.Marshal(current)
	if err != nil {
		p.logger.Warn("failed to encode schema", "error", err)
		return current.Tables()
	}

	tables, err := p.Generate(ctx, prefix+string(payload), nil)
	if err != nil {
		p.logger.Warn("schema request failed", "error", err)
		return current.Tables()
	}
	return tables
}
