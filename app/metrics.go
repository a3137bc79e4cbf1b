package app

import (
	"context"
	"net"
	"net/http"

	"github.com/advdv/bserve"
	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// NewRegistry creates the Prometheus registry of the app with the Go runtime and process
// collectors registered.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// NewMetrics registers the server metrics on the app registry.
func NewMetrics(reg *prometheus.Registry) *bserve.Metrics {
	return bserve.NewMetrics(reg)
}

// MetricsServer exposes the registry on BSERVE_METRICS_ADDR. It is disabled when the address is
// empty.
type MetricsServer struct {
	addr string
	srv  *http.Server
	ln   net.Listener
}

// NewMetricsServer creates the metrics server.
func NewMetricsServer(env Environment, reg *prometheus.Registry) *MetricsServer {
	addr := env.metricsAddr()
	if addr == "" {
		return &MetricsServer{}
	}

	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	readHeaderTimeout, _, _, _ := env.serverTimeouts().ServerTimeouts()

	return &MetricsServer{
		addr: addr,
		srv:  &http.Server{Handler: mux, ReadHeaderTimeout: readHeaderTimeout},
	}
}

// Addr returns the bound address, nil when disabled or not started.
func (s *MetricsServer) Addr() net.Addr {
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Start binds the socket and serves in the background.
func (s *MetricsServer) Start(ctx context.Context, logger *zap.Logger) error {
	if s.srv == nil {
		return nil
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.addr)
	if err != nil {
		return errors.Wrapf(err, "listen on %s", s.addr)
	}
	s.ln = ln

	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server error", zap.Error(err))
		}
	}()

	return nil
}

// Stop shuts the server down.
func (s *MetricsServer) Stop(ctx context.Context) error {
	if s.srv == nil || s.ln == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

// startMetricsHook registers lifecycle hooks for the metrics server.
func startMetricsHook(lc fx.Lifecycle, srv *MetricsServer, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := srv.Start(ctx, logger); err != nil {
				return err
			}
			if addr := srv.Addr(); addr != nil {
				logger.Info("serving metrics", zap.Stringer("addr", addr))
			}
			return nil
		},
		OnStop: srv.Stop,
	})
}
