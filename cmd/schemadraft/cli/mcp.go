package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	smcp "github.com/tordrt/schemadraft/internal/mcp"
	"github.com/tordrt/schemadraft/internal/reconcile"
	"github.com/tordrt/schemadraft/internal/schema"
)

func newMCPCmd() *cobra.Command {
	var (
		transport string
		port      int
		from      string
	)

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start the MCP server for AI agents",
		Long: `Start a Model Context Protocol (MCP) server that lets an AI agent author the
schema directly. The agent delivers tables through render_schema and reads them
back through get_schema, generate_code and the schemadraft://schema resources.

When a provider is configured the design_schema tool is offered as well.`,
		Example: `  schemadraft mcp                            # stdio mode
  schemadraft mcp --from blog.json
  schemadraft mcp --transport http --port 3001`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger := newLogger()

			var initial *schema.Schema
			if from != "" {
				if initial, err = schema.ReadFile(from); err != nil {
					return err
				}
			}

			prov, err := openProvider(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}

			session := reconcile.NewSession("mcp", initial, logger)
			mcpSrv := smcp.NewMCPServer(session, prov, appVersion, logger)

			switch transport {
			case "stdio":
				return mcpSrv.ServeStdio()
			case "http":
				return mcpSrv.ServeHTTP(fmt.Sprintf(":%d", port))
			default:
				return fmt.Errorf("unsupported transport %q; use 'stdio' or 'http'", transport)
			}
		},
	}

	cmd.Flags().StringVar(&transport, "transport", "stdio", "Transport mode: stdio or http")
	cmd.Flags().IntVar(&port, "port", 3001, "HTTP port (only used with --transport http)")
	cmd.Flags().StringVar(&from, "from", "", "Schema file to start the session with")

	return cmd
}
