package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/transitops/shuttleplan-go/internal/adapters/httpapi"
)

// NewServeCommand creates the serve command
func NewServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the planning HTTP API",
		Long: `Start the HTTP API server and block until interrupted.

Endpoints:
  POST /v1/routes/plan  run the planning pipeline
  GET  /healthz         liveness probe
  GET  /metrics         Prometheus scrape endpoint (when metrics are enabled)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := buildContainer(configPath)
			if err != nil {
				return err
			}

			handler := &httpapi.Handler{Planner: c.Planner}
			server := httpapi.New(c.Config.Server, handler, httpapi.Options{
				Registry:    c.Registry,
				MetricsPath: c.Config.Metrics.Path,
				Logger:      c.Logger,
			})

			addr, err := server.Start()
			if err != nil {
				return err
			}
			c.Logger.Log("INFO", "API server listening", map[string]interface{}{
				"addr": addr,
			})

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			<-ctx.Done()

			c.Logger.Log("INFO", "Shutting down", nil)
			shutdownCtx, cancel := context.WithTimeout(context.Background(), c.Config.Server.ShutdownTimeout)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		},
	}

	return cmd
}
