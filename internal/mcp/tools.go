package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/tordrt/schemadraft/internal/codegen"
	"github.com/tordrt/schemadraft/internal/reconcile"
	"github.com/tordrt/schemadraft/internal/schema"
)

func (s *MCPServer) registerTools(srv *server.MCPServer) {
	srv.AddTool(
		mcp.NewTool("render_schema",
			mcp.WithDescription(
				"Deliver database tables to the design canvas. In \"full\" mode the tables "+
					"replace the whole schema. In \"update\" mode they are upserted by name, "+
					"tables named in removedTables are dropped and every other table is kept. "+
					"Each table is {name, columns: [{name, type, nullable, isPrimaryKey, "+
					"isUnique, defaultValue?, foreignKey?: {table, column}}]}.",
			),
			mcp.WithToolAnnotation(mutatingAnnotation()),
			mcp.WithString("mode",
				mcp.Description("full (default) or update"),
				mcp.Enum(string(reconcile.ModeFull), string(reconcile.ModeUpdate)),
			),
			mcp.WithArray("tables",
				mcp.Description("Tables to render"),
			),
			mcp.WithArray("removedTables",
				mcp.Description("Names of tables to remove (update mode only)"),
				mcp.WithStringItems(),
			),
		),
		s.handleRenderSchema,
	)

	srv.AddTool(
		mcp.NewTool("get_schema",
			mcp.WithDescription("Return the current schema as a JSON array of tables, with the status line."),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
		),
		s.handleGetSchema,
	)

	srv.AddTool(
		mcp.NewTool("generate_code",
			mcp.WithDescription("Render the current schema as SQL DDL, a Prisma schema or Drizzle table definitions."),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
			mcp.WithString("format",
				mcp.Required(),
				mcp.Description("sql, prisma or drizzle"),
				mcp.Enum(formatNames()...),
			),
		),
		s.handleGenerateCode,
	)

	if s.provider != nil {
		srv.AddTool(
			mcp.NewTool("design_schema",
				mcp.WithDescription(
					"Ask the configured model to design tables from a description and apply them. "+
						"In update mode the current schema is sent along and the result is merged into it.",
				),
				mcp.WithToolAnnotation(mutatingAnnotation()),
				mcp.WithString("description",
					mcp.Required(),
					mcp.Description("What the database should model"),
				),
				mcp.WithString("mode",
					mcp.Description("full (default) or update"),
					mcp.Enum(string(reconcile.ModeFull), string(reconcile.ModeUpdate)),
				),
			),
			s.handleDesignSchema,
		)

		reworks := []struct {
			name, description string
			rework            func(context.Context, *schema.Schema) []*schema.Table
		}{
			{"analyze_schema", "Ask the configured model to analyze the current schema and replace it with an improved version.", s.provider.Analyze},
			{"validate_schema", "Ask the configured model to find and fix problems in the current schema.", s.provider.Validate},
			{"optimize_schema", "Ask the configured model to rework the current schema for performance and maintainability.", s.provider.Optimize},
		}
		for _, rw := range reworks {
			srv.AddTool(
				mcp.NewTool(rw.name,
					mcp.WithDescription(rw.description+" The schema is left as is when the model fails."),
					mcp.WithToolAnnotation(mutatingAnnotation()),
				),
				s.reworkHandler(rw.rework),
			)
		}

		srv.AddTool(
			mcp.NewTool("migrate_schema",
				mcp.WithDescription(
					"Ask the configured model to apply a change description to the current schema. "+
						"The result replaces the schema; it is left as is when the model fails.",
				),
				mcp.WithToolAnnotation(mutatingAnnotation()),
				mcp.WithString("description",
					mcp.Required(),
					mcp.Description("The change to make, e.g. \"add soft deletes to posts\""),
				),
			),
			s.handleMigrateSchema,
		)
	}
}

type renderResult struct {
	Changed bool     `json:"changed"`
	Version uint64   `json:"version"`
	Status  string   `json:"status"`
	Tables  []string `json:"tables"`
}

func (s *MCPServer) result(changed bool) renderResult {
	return renderResult{
		Changed: changed,
		Version: s.session.Version(),
		Status:  s.session.Status(),
		Tables:  s.session.Snapshot().Names(),
	}
}

func (s *MCPServer) handleRenderSchema(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	mode, err := reconcile.ParseMode(request.GetString("mode", ""))
	if err != nil {
		return toolError("%v", err)
	}

	tables, err := tablesArg(request, "tables")
	if err != nil {
		return toolError("Invalid tables: %v", err)
	}
	removed := request.GetStringSlice("removedTables", nil)

	_, changed := s.session.Apply(reconcile.Update{Mode: mode, Tables: tables, Removed: removed})
	return successJSON(s.result(changed))
}

func (s *MCPServer) handleGetSchema(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	return successJSON(map[string]any{
		"status": s.session.Status(),
		"tables": s.session.Snapshot(),
	})
}

func (s *MCPServer) handleGenerateCode(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	name, err := request.RequireString("format")
	if err != nil {
		return toolError("missing required parameter %q", "format")
	}
	format, err := codegen.ParseFormat(name)
	if err != nil {
		return toolError("%v", err)
	}

	out, err := codegen.Generate(format, s.session.Snapshot())
	if err != nil {
		return toolError("%v", err)
	}
	return mcp.NewToolResultText(out), nil
}

func (s *MCPServer) handleDesignSchema(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	description, err := request.RequireString("description")
	if err != nil {
		return toolError("missing required parameter %q", "description")
	}
	mode, err := reconcile.ParseMode(request.GetString("mode", ""))
	if err != nil {
		return toolError("%v", err)
	}

	var current *schema.Schema
	if mode == reconcile.ModeUpdate {
		current = s.session.Snapshot()
	}

	s.session.SetStreaming(true, mode)
	defer s.session.SetStreaming(false, "")

	tables, err := s.provider.Generate(ctx, description, current)
	if err != nil {
		return toolError("Schema generation failed: %v", err)
	}

	_, changed := s.session.Apply(reconcile.Update{Mode: mode, Tables: tables})
	return successJSON(s.result(changed))
}

// reworkHandler sends the whole current schema through rework and applies
// the answer in full mode.
func (s *MCPServer) reworkHandler(
	rework func(context.Context, *schema.Schema) []*schema.Table,
) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		current := s.session.Snapshot()
		if current.Len() == 0 {
			return toolError("The schema is empty; render or design tables first")
		}

		s.session.SetStreaming(true, reconcile.ModeFull)
		defer s.session.SetStreaming(false, "")

		tables := rework(ctx, current)
		_, changed := s.session.Apply(reconcile.Update{Mode: reconcile.ModeFull, Tables: tables})
		return successJSON(s.result(changed))
	}
}

func (s *MCPServer) handleMigrateSchema(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	description, err := request.RequireString("description")
	if err != nil {
		return toolError("missing required parameter %q", "description")
	}

	s.session.SetStreaming(true, reconcile.ModeFull)
	defer s.session.SetStreaming(false, "")

	tables := s.provider.Migrate(ctx, s.session.Snapshot(), description)
	_, changed := s.session.Apply(reconcile.Update{Mode: reconcile.ModeFull, Tables: tables})
	return successJSON(s.result(changed))
}

// tablesArg re-encodes an array argument and decodes it with the same
// lenient rules as HTTP payloads.
func tablesArg(request mcp.CallToolRequest, key string) ([]*schema.Table, error) {
	raw, ok := request.GetArguments()[key]
	if !ok || raw == nil {
		return nil, nil
	}
	if str, ok := raw.(string); ok {
		return schema.DecodeTables([]byte(str))
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	return schema.DecodeTables(data)
}

func formatNames() []string {
	formats := codegen.Formats()
	names := make([]string, len(formats))
	for i, f := range formats {
		names[i] = string(f)
	}
	return names
}

func successJSON(data any) (*mcp.CallToolResult, error) {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal response: %w", err)
	}
	return mcp.NewToolResultText(string(b)), nil
}

// toolError reports a failure to the agent without ending the MCP session.
func toolError(format string, args ...any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultError(fmt.Sprintf(format, args...)), nil
}
