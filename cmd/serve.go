package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"invoicing/internal/api"
	"invoicing/internal/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the invoice HTTP API",
	Long: `Start the HTTP API serving invoice management, reporting and export endpoints.

Swagger UI is available under /swagger/index.html.

Environment variables:
  HTTP_ADDR         - Listen address (default :8080)
  STORE_DRIVER      - memory or postgres (default memory)
  DATABASE_URL      - Postgres DSN, required for STORE_DRIVER=postgres
  REDIS_URL         - Optional Redis URL for a shared invoice number sequence
  DEFAULT_PAGE_SIZE - Page size used when a listing omits ?size=`,
	Example: `  # Serve with the in-memory store
  invoicing serve

  # Serve from Postgres on a custom address
  STORE_DRIVER=postgres DATABASE_URL=postgres://localhost/invoices invoicing serve --addr :9090`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "Listen address (overrides HTTP_ADDR)")
}

func runServe(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("serve")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, log)
	if err != nil {
		log.Error().Err(err).Msg("Failed to initialize application")
		return err
	}
	defer a.Close()

	addr, _ := cmd.Flags().GetString("addr")
	if addr == "" {
		addr = a.cfg.HTTPAddr
	}

	handler := api.NewHandler(a.invoices, a.reports, a.exporter, a.cfg.DefaultPageSize)
	server := api.NewServer(addr, api.NewRouter(handler))

	if err := server.Run(ctx); err != nil {
		log.Error().Err(err).Msg("HTTP server failed")
		return err
	}

	log.Info().Msg("HTTP server stopped")
	return nil
}
