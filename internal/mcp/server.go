// Package mcp exposes a design session to AI agents as MCP tools. The agent
// is the schema author: it delivers tables through render_schema and reads
// the result back as a schema or as generated code.
package mcp

import (
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/tordrt/schemadraft/internal/provider"
	"github.com/tordrt/schemadraft/internal/reconcile"
)

// MCPServer binds one reconcile.Session to an mcp-go server.
type MCPServer struct {
	session  *reconcile.Session
	provider *provider.Provider
	logger   *slog.Logger
	server   *server.MCPServer
}

// NewMCPServer registers the schemadraft tools and resources. prov may be
// nil, in which case the design_schema tool is not offered.
func NewMCPServer(session *reconcile.Session, prov *provider.Provider, version string, logger *slog.Logger) *MCPServer {
	s := &MCPServer{
		session:  session,
		provider: prov,
		logger:   logger,
	}

	mcpServer := server.NewMCPServer(
		"schemadraft",
		version,
		server.WithResourceCapabilities(true, false),
		server.WithToolCapabilities(true),
	)

	s.registerTools(mcpServer)
	s.registerResources(mcpServer)

	s.server = mcpServer
	return s
}

// Server returns the underlying mcp-go server.
func (s *MCPServer) Server() *server.MCPServer {
	return s.server
}

// ServeStdio serves over stdin/stdout until the client disconnects.
func (s *MCPServer) ServeStdio() error {
	s.logger.Info("starting MCP server in stdio mode", "session", s.session.ID())
	return server.ServeStdio(s.server)
}

// ServeHTTP serves the Streamable HTTP transport on addr.
func (s *MCPServer) ServeHTTP(addr string) error {
	httpServer := server.NewStreamableHTTPServer(s.server)
	s.logger.Info("MCP HTTP server starting", "addr", addr, "session", s.session.ID())
	return httpServer.Start(addr)
}

func readOnlyAnnotation() mcp.ToolAnnotation {
	return mcp.ToolAnnotation{ReadOnlyHint: boolPtr(true)}
}

func mutatingAnnotation() mcp.ToolAnnotation {
	return mcp.ToolAnnotation{ReadOnlyHint: boolPtr(false)}
}

func boolPtr(b bool) *bool {
	return &b
}
