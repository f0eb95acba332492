package cli

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/tordrt/schemadraft/internal/store"
)

func addDataDirFlag(cmd *cobra.Command) {
	cmd.Flags().String("data-dir", "", "Directory holding the share-code database (store.data_dir)")
}

// openStore opens the on-disk share store. An in-memory store would lose
// every code when the command exits, so a data directory is required.
func openStore(cmd *cobra.Command) (*store.Store, error) {
	if err := bindFlag(cmd, "store.data_dir", "data-dir"); err != nil {
		return nil, err
	}
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if cfg.Store.DataDir == "" {
		return nil, errors.New("no data directory: pass --data-dir or set store.data_dir")
	}
	st, err := store.NewStore(cfg.Store.DataDir)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}
	return st, nil
}

func newShareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "share <schema-file>",
		Short: "Store a schema and print its share code",
		Long: `Store a schema file in the share-code database and print the code. The same
database backs the server's /api/schema routes, so codes printed here can be
loaded over HTTP and the other way round.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := readSchema(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			if s.Len() == 0 {
				return errors.New("schema has no tables")
			}

			st, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer st.Close()

			code := store.NewCode()
			if err := st.Save(cmd.Context(), code, s); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), code)
			return nil
		},
	}
	addDataDirFlag(cmd)
	return cmd
}

func newLoadCmd() *cobra.Command {
	var (
		format     string
		outputFile string
	)

	cmd := &cobra.Command{
		Use:   "load <code>",
		Short: "Print a shared schema",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer st.Close()

			snap, err := st.Load(cmd.Context(), args[0])
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("no schema shared under %q", args[0])
			}
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), outputFile, format, snap.Schema)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "json", "Output format: json, yaml, text, markdown, sql, prisma or drizzle")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")
	addDataDirFlag(cmd)
	return cmd
}

func newSharesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shares",
		Short: "List or delete shared schemas",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List share codes, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer st.Close()

			entries, err := st.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.ErrOrStderr(), "No shared schemas")
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "CODE\tTABLES\tCREATED")
			for _, e := range entries {
				fmt.Fprintf(tw, "%s\t%d\t%s\n", e.Code, e.Tables, e.CreatedAt.Local().Format(time.DateTime))
			}
			return tw.Flush()
		},
	}
	addDataDirFlag(list)

	del := &cobra.Command{
		Use:     "delete <code>...",
		Aliases: []string{"rm"},
		Short:   "Delete shared schemas",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer st.Close()

			for _, code := range args {
				err := st.Delete(cmd.Context(), code)
				if errors.Is(err, store.ErrNotFound) {
					return fmt.Errorf("no schema shared under %q", code)
				}
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "deleted", code)
			}
			return nil
		},
	}
	addDataDirFlag(del)

	cmd.AddCommand(list, del)
	return cmd
}
