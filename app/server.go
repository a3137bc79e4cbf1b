package app

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/advdv/bserve"
	"github.com/advdv/bserve/session"
	"github.com/cockroachdb/errors"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Transports understood by BSERVE_TRANSPORT.
const (
	TransportNative = "native"
	TransportStdlib = "stdlib"
)

// ServerConfig holds optional configuration for the dispatcher.
type ServerConfig struct {
	HealthHandler bserve.Handler
	ErrorHandlers []bserve.ErrorHandler
	Serializers   []bserve.Serializer
	Middlewares   []bserve.Middleware
}

// DispatcherParams holds the dependencies for creating the dispatcher.
type DispatcherParams struct {
	fx.In

	Env        Environment
	Mux        *Mux
	Logger     *zap.Logger
	Sessions   *session.Codec
	Metrics    *bserve.Metrics
	TracerProv trace.TracerProvider
	Propagator propagation.TextMapPropagator
}

// NewDispatcher creates the dispatcher with all middleware and the health route configured. It
// must run before any route is registered on the mux.
func NewDispatcher(params DispatcherParams, cfg ServerConfig) *bserve.Dispatcher {
	d := &requestDep{
		logger: params.Logger,
	}

	params.Mux.Use(withRequestDep(d))
	params.Mux.Use(WithRequestTimeout(params.Env.serverTimeouts().RequestTimeout))
	params.Mux.Use(cfg.Middlewares...)

	healthHandler := cfg.HealthHandler
	if healthHandler == nil {
		healthHandler = defaultHealthHandler
	}
	params.Mux.Handle("GET "+params.Env.healthPath(), healthHandler, "health")

	logs := newZapBServeLogger(params.Logger)

	return bserve.NewDispatcher(params.Mux,
		bserve.WithEngine(bserve.NewEngine(cfg.Serializers...)),
		bserve.WithRecovery(bserve.NewRecovery(logs, cfg.ErrorHandlers...)),
		bserve.WithSessionCodec(params.Sessions),
		bserve.WithLogger(logs),
		bserve.WithMetrics(params.Metrics),
		bserve.WithTracerProvider(params.TracerProv),
		bserve.WithPropagator(params.Propagator),
	)
}

// Transport serves the dispatcher on a socket.
type Transport interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Addr() net.Addr
}

// TransportParams holds the dependencies for creating the transport.
type TransportParams struct {
	fx.In

	Env        Environment
	Dispatcher *bserve.Dispatcher
	Logger     *zap.Logger
	TracerProv trace.TracerProvider
	Propagator propagation.TextMapPropagator
}

// NewTransport creates the transport selected by BSERVE_TRANSPORT: the bserve connection loop or
// a net/http server with otelhttp in front of the dispatcher.
func NewTransport(params TransportParams) (Transport, error) {
	tc := params.Env.serverTimeouts()

	switch params.Env.transport() {
	case TransportNative, "":
		return bserve.NewServer(params.Dispatcher, tc.ServerConfig(params.Env.addr())), nil
	case TransportStdlib:
		handler := withTracing(params.TracerProv, params.Propagator,
			params.Env.serviceName(), params.Env.healthPath())(params.Dispatcher)

		readHeaderTimeout, readTimeout, writeTimeout, idleTimeout := tc.ServerTimeouts()

		return &stdlibTransport{
			logger: params.Logger,
			srv: &http.Server{
				Addr:              params.Env.addr(),
				Handler:           handler,
				ReadHeaderTimeout: readHeaderTimeout,
				ReadTimeout:       readTimeout,
				WriteTimeout:      writeTimeout,
				IdleTimeout:       idleTimeout,
				ErrorLog:          zap.NewStdLog(params.Logger.Named("http")),
			},
		}, nil
	default:
		return nil, errors.Newf("unsupported BSERVE_TRANSPORT: %q", params.Env.transport())
	}
}

type stdlibTransport struct {
	logger *zap.Logger
	srv    *http.Server
	ln     net.Listener
}

func (t *stdlibTransport) Start(ctx context.Context) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", t.srv.Addr)
	if err != nil {
		return errors.Wrapf(err, "listen on %s", t.srv.Addr)
	}
	t.ln = ln

	go func() {
		if err := t.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			t.logger.Error("server error", zap.Error(err))
		}
	}()

	return nil
}

func (t *stdlibTransport) Stop(ctx context.Context) error {
	if err := t.srv.Shutdown(ctx); err != nil {
		_ = t.srv.Close()
		return err
	}
	return nil
}

func (t *stdlibTransport) Addr() net.Addr {
	if t.ln == nil {
		return nil
	}
	return t.ln.Addr()
}

// startServerHook registers lifecycle hooks for the transport.
func startServerHook(lc fx.Lifecycle, t Transport, env Environment, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := t.Start(ctx); err != nil {
				return err
			}
			logger.Info("started server",
				zap.Stringer("addr", t.Addr()),
				zap.String("transport", env.transport()))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("stopping server")

			// leave time to close what is left after draining gave up
			if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) > 2*DefaultShutdownBuffer {
				var cancel context.CancelFunc
				ctx, cancel = context.WithDeadline(ctx, deadline.Add(-DefaultShutdownBuffer))
				defer cancel()
			}

			return t.Stop(ctx)
		},
	})
}

var defaultHealthHandler = bserve.HandlerFunc(func(*bserve.Context, *http.Request) (*bserve.Result, error) {
	return bserve.OkText("ok").Text().NoCache(), nil
})
