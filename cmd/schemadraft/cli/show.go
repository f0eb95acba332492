package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newShowCmd() *cobra.Command {
	var (
		format     string
		outputFile string
	)

	cmd := &cobra.Command{
		Use:   "show <schema-file>",
		Short: "Describe a schema in a compact text or markdown form",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "text" && format != "markdown" {
				return fmt.Errorf("invalid format: %s (must be 'text' or 'markdown')", format)
			}
			s, err := readSchema(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), outputFile, format, s)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text or markdown")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")

	return cmd
}
