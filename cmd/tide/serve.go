package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/vango-dev/tide/internal/config"
	"github.com/vango-dev/tide/internal/demo"
	"github.com/vango-dev/tide/internal/errors"
	"github.com/vango-dev/tide/internal/logging"
	"github.com/vango-dev/tide/pkg/middleware"
	"github.com/vango-dev/tide/pkg/server"
)

func serveCmd(opts *rootOptions) *cobra.Command {
	var (
		addr  string
		every time.Duration
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the demo application",
		Long: `Serve the demo application over HTTP and WebSocket.

Every browser connection gets its own session with a private runtime
and document. Metrics and tracing are enabled from the config file.

Examples:
  tide serve
  tide serve --addr localhost:3000
  tide serve --config deploy/tide.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cmd, opts, addr, every)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (default from config)")
	cmd.Flags().DurationVar(&every, "every", demo.DefaultEvery, "Demo timer period")

	return cmd
}

func runServe(ctx context.Context, cmd *cobra.Command, opts *rootOptions, addr string, every time.Duration) error {
	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Log, cmd.ErrOrStderr())
	if err != nil {
		return errors.FromError(err, "E121")
	}
	defer logger.Close()

	scfg := cfg.ServerConfig()
	if addr != "" {
		scfg.Address = addr
	}

	root := demo.App(demo.Options{Every: every, Logger: logger.Logger})
	srv := server.New(scfg, root, serverOptions(cfg, logger.Logger)...)

	logger.Info("starting tide",
		"version", version,
		"address", scfg.Address,
		"metrics", cfg.Metrics.Enabled,
		"tracing", cfg.Tracing.Enabled)

	if err := srv.Run(ctx); err != nil {
		return errors.New("E140").WithDetail(scfg.Address).Wrap(err)
	}
	logger.Info("tide stopped")
	return nil
}

// serverOptions wires logging, HTTP middleware, metrics and tracing from
// cfg.
func serverOptions(cfg *config.Config, logger *slog.Logger) []server.Option {
	opts := []server.Option{
		server.WithLogger(logger),
		server.WithHTTPMiddleware(chimw.RequestID, chimw.RealIP, chimw.Recoverer),
	}

	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		m := middleware.NewMetrics(
			middleware.WithRegistry(reg),
			middleware.WithNamespace(cfg.Metrics.Namespace),
		)
		opts = append(opts, m.ServerOptions(reg, cfg.Metrics.Path)...)
	}

	if cfg.Tracing.Enabled {
		name := middleware.WithTracerName(cfg.Tracing.TracerName)
		opts = append(opts,
			server.WithMiddleware(middleware.OpenTelemetry(name)),
			server.WithFlushHook(middleware.TraceFlushes(name)),
		)
	}
	return opts
}
