package ui

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/pupitre/internal/server"
)

func (a *App) serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the local database over HTTP",
		Long: `Serve the local SQLite database on the REST surface the http backend
uses. Useful to try the http backend without a school server.

Example:
  pupitre serve --addr=:8080`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			if addr == "" {
				addr = a.config.Server.Addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			fmt.Fprintf(cmd.OutOrStdout(), "Serving %s on %s\n", a.config.Storage.DBPath, addr)
			return server.New(store, a.log.Named("server")).ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default: server.addr)")
	return cmd
}

func (a *App) seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Fill an empty local database with demo data",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			seeded, err := store.Seed(cmd.Context())
			if err != nil {
				return fmt.Errorf("seeding: %w", err)
			}
			if !seeded {
				fmt.Fprintln(cmd.OutOrStdout(), "Database already has periods, nothing seeded")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatOK("Seeded demo data"))
			return nil
		},
	}
}
