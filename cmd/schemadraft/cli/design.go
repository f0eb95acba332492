package cli

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/tordrt/schemadraft/internal/reconcile"
	"github.com/tordrt/schemadraft/internal/schema"
)

var (
	statusColor  = color.New(color.FgCyan).SprintFunc()
	changedColor = color.New(color.FgGreen).SprintFunc()
	removedColor = color.New(color.FgRed).SprintFunc()
)

func newDesignCmd() *cobra.Command {
	var (
		from       string
		modeName   string
		format     string
		outputFile string
	)

	cmd := &cobra.Command{
		Use:   "design <description>",
		Short: "Ask the configured model to design or extend a schema",
		Long: `Send a plain-language description to the configured model and reconcile the
answer into a schema. With --from the existing schema is loaded first; in update
mode it is sent along and the answer is merged into it.

The result is written to --output as JSON or YAML, or rendered to stdout in
--format.`,
		Example: `  schemadraft design "a blog with users, posts and comments" -o blog.json
  schemadraft design "add tags to posts" --from blog.json --mode update -o blog.json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger := newLogger()

			mode, err := reconcile.ParseMode(modeName)
			if err != nil {
				return err
			}

			var initial *schema.Schema
			if from != "" {
				if initial, err = readSchema(cmd.InOrStdin(), from); err != nil {
					return err
				}
			}

			prov, err := openProvider(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			if prov == nil {
				return fmt.Errorf("no provider configured (set provider.kind to http, gemini or openai)")
			}

			session := reconcile.NewSession("cli", initial, logger)
			events, unsubscribe := session.Subscribe(4)
			defer unsubscribe()

			var current *schema.Schema
			if mode == reconcile.ModeUpdate {
				current = session.Snapshot()
			}

			stderr := cmd.ErrOrStderr()
			printStatus := func(ev reconcile.Event) {
				for _, name := range ev.Changed {
					fmt.Fprintf(stderr, "  %s %s\n", changedColor("~"), name)
				}
				for _, name := range ev.Removed {
					fmt.Fprintf(stderr, "  %s %s\n", removedColor("-"), name)
				}
				if len(ev.Changed) == 0 && len(ev.Removed) == 0 {
					fmt.Fprintln(stderr, statusColor(reconcile.StatusLine(ev.Streaming, ev.Mode, ev.Schema.Len())))
				}
			}

			session.SetStreaming(true, mode)
			printStatus(<-events)

			tables, err := prov.Generate(cmd.Context(), strings.Join(args, " "), current)
			if err != nil {
				return err
			}

			result, changed := session.Apply(reconcile.Update{Mode: mode, Tables: tables})
			if changed {
				printStatus(<-events)
			}
			session.SetStreaming(false, "")
			printStatus(<-events)

			if outputFile != "" {
				return schema.WriteFile(outputFile, result)
			}
			return writeSchema(cmd.OutOrStdout(), format, result)
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "Existing schema file to start from")
	cmd.Flags().StringVarP(&modeName, "mode", "m", "full", "full replaces the schema, update merges into it")
	cmd.Flags().StringVarP(&format, "format", "f", "sql", "Stdout format when --output is not set")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Write the resulting schema to this .json or .yaml file")

	return cmd
}
