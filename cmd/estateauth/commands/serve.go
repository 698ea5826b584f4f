package commands

import (
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/peanechestate/estateauth/internal/server"
	promexport "github.com/peanechestate/estateauth/metrics/export/prometheus"
)

func newServeCommand(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the auth endpoints, the guarded dashboard and /metrics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			engine, client, closeEngine, err := a.openEngine(ctx)
			if err != nil {
				return err
			}
			defer closeEngine()

			exporter, err := promexport.NewExporter(engine)
			if err != nil {
				return err
			}

			handler, err := server.NewRouter(server.Deps{
				Engine:  engine,
				Logger:  a.logger,
				Metrics: exporter.Handler(),
				Health: func(r *http.Request) error {
					return client.Ping(r.Context()).Err()
				},
			})
			if err != nil {
				return err
			}

			opts := server.Options{
				Addr:            a.cfg.Server.Addr,
				ReadTimeout:     a.cfg.Server.ReadTimeout,
				WriteTimeout:    a.cfg.Server.WriteTimeout,
				ShutdownTimeout: a.cfg.Server.ShutdownTimeout,
			}
			if addr != "" {
				opts.Addr = addr
			}

			a.logger.Info().Stringer("phase", engine.Phase()).Msg("session recovered")
			return server.New(handler, opts, a.logger).Run(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")
	return cmd
}
