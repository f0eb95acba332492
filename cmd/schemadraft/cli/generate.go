package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tordrt/schemadraft/internal/codegen"
	"github.com/tordrt/schemadraft/internal/formatter"
)

func newGenerateCmd() *cobra.Command {
	var (
		format     string
		outputFile string
		outputDir  string
	)

	cmd := &cobra.Command{
		Use:   "generate <schema-file>",
		Short: "Render a schema file as SQL, Prisma or Drizzle",
		Long: `Render a schema file (.json, .yaml or .yml, or - for JSON on stdin) as copy-paste
source code. With --output-dir every format is written next to a markdown overview.`,
		Example: `  schemadraft generate schema.json --format prisma
  schemadraft generate schema.yaml -d ./generated`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if outputDir != "" && outputFile != "" {
				return fmt.Errorf("cannot use both --output-dir and --output flags")
			}

			s, err := readSchema(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}

			if outputDir != "" {
				var formats []codegen.Format
				if cmd.Flags().Changed("format") {
					f, err := codegen.ParseFormat(format)
					if err != nil {
						return err
					}
					formats = append(formats, f)
				}
				written, err := formatter.NewExporter(outputDir, formats...).Export(s)
				if err != nil {
					return fmt.Errorf("failed to export schema: %w", err)
				}
				for _, path := range written {
					fmt.Fprintln(cmd.OutOrStdout(), path)
				}
				return nil
			}

			if _, err := codegen.ParseFormat(format); err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), outputFile, format, s)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "sql", "Output format: sql, prisma or drizzle")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")
	cmd.Flags().StringVarP(&outputDir, "output-dir", "d", "", "Write every format into this directory")

	return cmd
}
