package app

import (
	"context"
	"net/http"

	"github.com/advdv/bserve"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Mux is the router of the app.
type Mux = bserve.Mux

// App wraps an fx.App for lifecycle management.
type App struct {
	app *fx.App
}

// AppConfig holds configuration for the app.
type AppConfig struct {
	ServerConfig
	FxOptions []fx.Option
}

// Option configures the App.
type Option func(*AppConfig)

// runtimeProviderParams holds dependencies for Runtime.
type runtimeProviderParams[E Environment] struct {
	fx.In

	Env          E
	Mux          *Mux
	SecretReader SecretReader
	Transport    http.RoundTripper
}

// WithAWSClient registers an AWS SDK v2 client for dependency injection.
// Clients are injected directly into handler constructors via fx.
//
// By default, clients target the local region (AWS_REGION env var):
//
//	app.WithAWSClient(func(cfg aws.Config) *ssm.Client {
//	    return ssm.NewFromConfig(cfg)
//	})
//
// For a fixed region, wrap with InRegion[T] and use ForRegion():
//
//	app.WithAWSClient(func(cfg aws.Config) *app.InRegion[ssm.Client] {
//	    return app.NewInRegion(ssm.NewFromConfig(cfg), "eu-west-1")
//	}, app.ForRegion("eu-west-1"))
func WithAWSClient[T any](factory func(aws.Config) T, opts ...ClientOption) Option {
	return func(c *AppConfig) {
		c.FxOptions = append(c.FxOptions, AWSClientProvider(factory, opts...))
	}
}

// WithFx adds fx options for dependency injection.
func WithFx(fxOpts ...fx.Option) Option {
	return func(c *AppConfig) {
		c.FxOptions = append(c.FxOptions, fxOpts...)
	}
}

// WithHealthHandler sets a custom health check handler.
// If not set, a default handler returning 200 "ok" is used.
func WithHealthHandler(h bserve.Handler) Option {
	return func(c *AppConfig) {
		c.HealthHandler = h
	}
}

// WithErrorHandlers appends error handlers to the recovery chain, in order.
func WithErrorHandlers(hs ...bserve.ErrorHandler) Option {
	return func(c *AppConfig) {
		c.ErrorHandlers = append(c.ErrorHandlers, hs...)
	}
}

// WithSerializers adds serializers to the content engine, replacing built-in ones for the same
// content type.
func WithSerializers(ss ...bserve.Serializer) Option {
	return func(c *AppConfig) {
		c.Serializers = append(c.Serializers, ss...)
	}
}

// WithMiddleware adds middleware to every route. It runs inside the app's own middleware, so
// [Log] is available.
func WithMiddleware(mws ...bserve.Middleware) Option {
	return func(c *AppConfig) {
		c.Middlewares = append(c.Middlewares, mws...)
	}
}

// FxOptions returns the complete dependency graph of an app. [NewApp] runs it; tests can run it
// with fxtest.
//
// The routing function can request any types that are provided via fx options.
// At minimum, it should accept *Mux for routing.
func FxOptions[E Environment](routing any, opts ...Option) []fx.Option {
	var cfg AppConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	baseOpts := make([]fx.Option, 0, 24+len(cfg.FxOptions))
	baseOpts = append(baseOpts, []fx.Option{
		fx.Provide(ParseEnv[E]()),
		fx.Provide(func(e E) Environment { return e }),
		fx.Provide(bserve.NewMux),
		fx.Provide(func(e E) (*zap.Logger, error) { return NewLogger(e) }),
		fx.Provide(NewTracerProvider),
		fx.Provide(NewPropagator),
		fx.Provide(func(tp trace.TracerProvider, prop propagation.TextMapPropagator) http.RoundTripper {
			return NewHTTPTransport(tp, prop)
		}),
		fx.Provide(provideAWSConfig),
		fx.Provide(func(cfg aws.Config, env Environment) (SecretReader, error) {
			r, err := NewAWSSecretReader(regionalConfig(cfg, env, SecretsRegion()))
			if err != nil {
				return nil, err
			}
			return r, nil
		}),
		fx.Provide(func(cfg aws.Config, env Environment) *SSMParameterReader {
			return NewSSMParameterReader(ssm.NewFromConfig(regionalConfig(cfg, env, SecretsRegion())))
		}),
		fx.Provide(NewSessionCodec),
		fx.Provide(NewRegistry),
		fx.Provide(NewMetrics),
		fx.Provide(NewMetricsServer),
		fx.Supply(cfg.ServerConfig),
		fx.Provide(NewDispatcher),
		fx.Provide(NewTransport),
		fx.Provide(func(p runtimeProviderParams[E]) *Runtime[E] {
			return NewRuntime(p.Env, p.Mux, RuntimeParams{SecretReader: p.SecretReader, Transport: p.Transport})
		}),
		fx.Invoke(startMetricsHook),
		fx.Invoke(startServerHook),
		fx.Invoke(routing),
	}...)

	return append(baseOpts, cfg.FxOptions...)
}

// NewApp creates a batteries-included app with dependency injection.
//
// Example:
//
//	app.NewApp[Env](func(m *app.Mux, h *Handlers) {
//	    m.HandleFunc("GET /items/{id}", h.GetItem, "get-item")
//	},
//	    app.WithFx(fx.Provide(NewHandlers)),
//	).Run()
func NewApp[E Environment](routing any, opts ...Option) *App {
	return &App{
		app: fx.New(append([]fx.Option{fx.NopLogger}, FxOptions[E](routing, opts...)...)...),
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() {
	a.app.Run()
}

// Start starts the application with the given context and stops it once ctx is done.
func (a *App) Start(ctx context.Context) error {
	if err := a.app.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.app.StopTimeout())
	defer cancel()

	return a.app.Stop(stopCtx)
}
