package main

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/storypath/storypath-cli/internal/backend"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the development data backend",
	Long: "Serve the PostgREST-shaped /project, /location and /tracking endpoints " +
		"over a local SQLite file or a Postgres database, for offline development " +
		"and integration tests.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openBackendStore(cmd)
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.Migrate(cmd.Context()); err != nil {
			return err
		}

		srv := backend.NewServer(store, zap.L())
		zap.L().Info("serving", zap.String("addr", cfg.Server.Addr), zap.String("driver", cfg.Server.Driver))
		return http.ListenAndServe(cfg.Server.Addr, srv.Routes())
	},
}

func openBackendStore(cmd *cobra.Command) (backend.Store, error) {
	switch cfg.Server.Driver {
	case "sqlite", "":
		return backend.NewSQLite(cfg.Server.DatabaseURL)
	case "postgres":
		return backend.NewPostgres(cmd.Context(), cfg.Server.DatabaseURL)
	default:
		return nil, fmt.Errorf("unknown server driver %q", cfg.Server.Driver)
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
