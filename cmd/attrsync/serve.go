package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"

	"github.com/vango-dev/attrsync/internal/config"
	"github.com/vango-dev/attrsync/pkg/live"
	"github.com/vango-dev/attrsync/pkg/reconcile"
)

func serveCmd(flags *globalFlags) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the live reconciliation server",
		Long: `Run the live reconciliation server.

Clients connect to /ws and send desired element state as JSON. The
server answers each message with a binary patches frame. Prometheus
metrics are served on /metrics.

Examples:
  attrsync serve
  attrsync serve --addr=:9000 --log-level=debug`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.loadConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Address = addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (default from "+config.ConfigFileName+")")

	return cmd
}

func runServe(ctx context.Context, cfg *config.Config) error {
	logger := newLogger(cfg)

	metrics := reconcile.NewMetrics(
		reconcile.WithMetricsNamespace(cfg.Metrics.Namespace),
		reconcile.WithMetricsSubsystem(cfg.Metrics.Subsystem),
		reconcile.WithRegistry(prometheus.DefaultRegisterer),
	)
	opts := append(cfg.ReconcileOptions(),
		reconcile.WithMetrics(metrics),
		reconcile.WithTracer(otel.Tracer(cfg.Tracing.TracerName)),
	)

	srv := live.New(&live.Config{
		Address:      cfg.Server.Address,
		ReadLimit:    cfg.Server.ReadLimit,
		WriteTimeout: cfg.WriteTimeoutDuration(),
		Gatherer:     prometheus.DefaultGatherer,
		Metrics: live.NewMetrics(
			reconcile.WithMetricsNamespace(cfg.Metrics.Namespace),
			reconcile.WithRegistry(prometheus.DefaultRegisterer),
		),
		Reconciler: opts,
	})
	srv.SetLogger(logger)

	return srv.Run(ctx)
}
