// Package cli implements the schemadraft command tree.
package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tordrt/schemadraft/internal/config"
)

var (
	cfgFile    string
	verbose    bool
	appVersion string

	cfgViper *viper.Viper
	cfgErr   error
)

// Execute creates the root command tree and runs it.
func Execute(version, commit, date string) error {
	appVersion = version
	rootCmd := newRootCmd(version, commit, date)
	return rootCmd.Execute()
}

func newRootCmd(version, commit, date string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schemadraft",
		Short: "Design database schemas with an AI model and export them as SQL, Prisma or Drizzle",
		Long: `schemadraft turns a plain-language description into a relational schema,
keeps refining it through follow-up requests, and renders it as SQL DDL, a
Prisma schema or Drizzle table definitions.

It can also start from an existing PostgreSQL, MySQL or SQLite database, serve
the design workflow over HTTP, and expose it to AI agents as an MCP server.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./schemadraft.yaml)")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	cobra.OnInitialize(initConfig)

	cmd.AddCommand(newGenerateCmd())
	cmd.AddCommand(newShowCmd())
	cmd.AddCommand(newDesignCmd())
	cmd.AddCommand(newImportCmd())
	cmd.AddCommand(newShareCmd())
	cmd.AddCommand(newLoadCmd())
	cmd.AddCommand(newSharesCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newMCPCmd())
	cmd.AddCommand(newVersionCmd(version, commit, date))

	return cmd
}

func initConfig() {
	cfgViper, cfgErr = config.NewViper(cfgFile)
}

// loadConfig resolves the configuration after flags have been bound.
func loadConfig() (config.Config, error) {
	if cfgErr != nil {
		return config.Config{}, cfgErr
	}
	if cfgViper == nil {
		initConfig()
		if cfgErr != nil {
			return config.Config{}, cfgErr
		}
	}
	return config.Load(cfgViper)
}

// bindFlag maps a command flag onto a config key so that an explicit flag
// wins over the file and environment.
func bindFlag(cmd *cobra.Command, key, flag string) error {
	if cfgViper == nil {
		return nil
	}
	return cfgViper.BindPFlag(key, cmd.Flags().Lookup(flag))
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
