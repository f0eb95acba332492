package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/tordrt/schemadraft/internal/codegen"
)

const schemaURI = "schemadraft://schema"

func (s *MCPServer) registerResources(srv *server.MCPServer) {
	srv.AddResource(
		mcp.NewResource(
			schemaURI,
			"Current Schema",
			mcp.WithResourceDescription("The tables of the current design as JSON."),
			mcp.WithMIMEType("application/json"),
		),
		s.handleSchemaResource,
	)

	srv.AddResource(
		mcp.NewResource(
			schemaURI+"/sql",
			"Current Schema (SQL)",
			mcp.WithResourceDescription("CREATE TABLE statements for the current design."),
			mcp.WithMIMEType("application/sql"),
		),
		s.handleSQLResource,
	)
}

func (s *MCPServer) handleSchemaResource(
	ctx context.Context,
	request mcp.ReadResourceRequest,
) ([]mcp.ResourceContents, error) {

	b, err := json.MarshalIndent(s.session.Snapshot(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{URI: schemaURI, MIMEType: "application/json", Text: string(b)},
	}, nil
}

func (s *MCPServer) handleSQLResource(
	ctx context.Context,
	request mcp.ReadResourceRequest,
) ([]mcp.ResourceContents, error) {

	return []mcp.ResourceContents{
		mcp.TextResourceContents{URI: schemaURI + "/sql", MIMEType: "application/sql", Text: codegen.SQL(s.session.Snapshot())},
	}, nil
}
