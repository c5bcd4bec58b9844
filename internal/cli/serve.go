package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/merlin-energy/truequote/internal/api"
	"github.com/merlin-energy/truequote/internal/engine"
	"github.com/merlin-energy/truequote/internal/logging"
	"github.com/merlin-energy/truequote/internal/metrics"
)

func newServeCmd(a *app) *cobra.Command {
	var addr, pricingTable string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the quote API over HTTP",
		Long: `Serves template lookup, load profile and quote endpoints under /api/v1.
Prometheus metrics are exposed at /metrics unless server.metrics is false.
The server shuts down gracefully on SIGINT or SIGTERM.`,
		Example: `  truequote serve
  truequote serve --addr 127.0.0.1:9090`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srvCfg := a.cfg.Server
			if addr != "" {
				srvCfg.Addr = addr
			}
			log := logging.ComponentLogger(*logging.FromContext(ctx), "api")

			var engOpts []engine.Option
			routerOpts := []api.Option{api.WithLogger(log)}
			if srvCfg.Metrics {
				m := metrics.New(true)
				engOpts = append(engOpts, engine.WithRecorder(m))
				routerOpts = append(routerOpts, api.WithMetricsHandler(m.Handler()))
			}

			eng, err := a.engine(ctx, pricingTable, engOpts...)
			if err != nil {
				return err
			}

			srv := api.NewServer(srvCfg.Addr, api.NewRouter(eng, routerOpts...), srvCfg.ReadTimeout, srvCfg.WriteTimeout)
			log.Info().
				Ctx(ctx).
				Str("addr", srvCfg.Addr).
				Int("templates", len(eng.Templates().IDs())).
				Bool("metrics", srvCfg.Metrics).
				Msg("serving quote API")
			return api.Serve(ctx, srv)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	cmd.Flags().StringVar(&pricingTable, "pricing-table", "", "pricing table file (overrides config)")
	return cmd
}
