package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tordrt/schemadraft/internal/provider"
	"github.com/tordrt/schemadraft/internal/reconcile"
	"github.com/tordrt/schemadraft/internal/server"
	"github.com/tordrt/schemadraft/internal/store"
)

func newServeCmd() *cobra.Command {
	var (
		port    int
		host    string
		dataDir string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the schemadraft HTTP server",
		Long: `Start the HTTP server that generates schemas, stores share codes and hosts live
design sessions with code previews and a diagram layout.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			for key, flag := range map[string]string{
				"server.port":    "port",
				"server.host":    "host",
				"store.data_dir": "data-dir",
			} {
				if err := bindFlag(cmd, key, flag); err != nil {
					return err
				}
			}
			return runServe(cmd)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 8080, "HTTP listen port")
	cmd.Flags().StringVar(&host, "host", "0.0.0.0", "HTTP listen host")
	cmd.Flags().StringVar(&dataDir, "data-dir", "", "Directory for the share-code database (default: in memory)")

	return cmd
}

func runServe(cmd *cobra.Command) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger()

	st, err := store.NewStore(cfg.Store.DataDir)
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	defer st.Close()
	if cfg.Store.DataDir == "" {
		logger.Warn("share codes are kept in memory and lost on restart; set store.data_dir to persist them")
	} else {
		logger.Info("store initialized", "path", cfg.Store.DataDir)
	}

	client, err := provider.Open(cmd.Context(), cfg.Provider)
	if err != nil {
		return fmt.Errorf("init provider: %w", err)
	}
	logger.Info("provider configured", "kind", cfg.Provider.Kind, "model", cfg.Provider.Model)

	sessions := reconcile.NewRegistry(logger)
	srv := server.New(cfg, sessions, st, provider.New(client, logger, cfg.Provider.Timeout), logger)
	return srv.ListenAndServe()
}
