package commands

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hupe1980/segmento"
	"github.com/hupe1980/segmento/internal/config"
	"github.com/hupe1980/segmento/internal/server"
)

const shutdownTimeout = 10 * time.Second

type serveOptions struct {
	config  configFlags
	listen  string
	maxBody int64
}

// NewServeCmd creates the serve command
func NewServeCmd() *cobra.Command {
	opts := &serveOptions{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve predictions and segment analytics over HTTP",
		Long: `Load the bundle once and serve it until interrupted.

A bundle that fails to load does not stop the server: /healthz reports 503
and every API route answers NOT_READY, so orchestrators can tell the two
states apart.

Examples:
  segmentd serve --dir ./model
  segmentd serve --config /etc/segmentd.yaml --listen :9000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, opts, nil)
		},
	}
	opts.config.bind(cmd)
	cmd.Flags().StringVar(&opts.listen, "listen", "", "Listen address (overrides the config)")
	cmd.Flags().Int64Var(&opts.maxBody, "max-body-bytes", server.DefaultMaxBodyBytes, "Maximum request body size")
	return cmd
}

// runServe blocks until ctx is done or the listener fails. When ready is
// non-nil it receives the bound address once the server accepts connections.
func runServe(ctx context.Context, opts *serveOptions, ready chan<- net.Addr) error {
	cfg, err := opts.config.load()
	if err != nil {
		return err
	}
	if opts.listen != "" {
		cfg.Listen = opts.listen
	}

	logger, err := cfg.Log.Logger()
	if err != nil {
		return err
	}
	metrics := server.NewPrometheusCollector()

	gate, err := openGate(ctx, cfg, logger, metrics)
	if err != nil {
		return err
	}
	defer gate.Close()

	handler := server.New(gate,
		server.WithLogger(logger),
		server.WithMetricsHandler(metrics.Handler()),
		server.WithMaxBodyBytes(opts.maxBody),
	).Handler()

	ln, err := net.Listen("tcp", cfg.Listen)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.Listen, err)
	}
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	logger.Info("segmentd listening", "addr", ln.Addr().String(), "ready", gate.Ready())
	if ready != nil {
		ready <- ln.Addr()
	}

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	logger.Info("segmentd shutting down")
	return srv.Shutdown(shutdownCtx)
}

func openGate(ctx context.Context, cfg config.Config, logger *segmento.Logger, mc segmento.MetricsCollector) (*segmento.Gate, error) {
	src, err := cfg.Storage.Source(ctx)
	if err != nil {
		return nil, err
	}
	gate := segmento.OpenGate(ctx, src, cfg.Options(logger, mc)...)
	if !gate.Ready() {
		logger.Error("bundle not loaded, serving not ready", "source", src.String(), "error", gate.Err())
	}
	return gate, nil
}
