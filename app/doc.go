// Package app runs a bserve dispatcher as a complete service.
//
// # Overview
//
// app wires the parts every service needs around a [bserve.Dispatcher]: environment parsing,
// structured logging, OpenTelemetry tracing, session signing keys from AWS, Prometheus metrics
// and graceful shutdown. A complete application is a single call:
//
//	app.NewApp[Env](func(m *app.Mux, h *Handlers) {
//	    m.HandleFunc("GET /items", h.ListItems)
//	    m.HandleFunc("GET /items/{id}", h.GetItem, "get-item")
//	},
//	    app.WithFx(fx.Provide(NewHandlers)),
//	).Run()
//
// # Environment Configuration
//
// Define your environment by embedding [BaseEnvironment]:
//
//	type Env struct {
//	    app.BaseEnvironment
//	    UpstreamURL string `env:"UPSTREAM_URL,required"`
//	}
//
// BaseEnvironment reads:
//
//	| Variable                      | Default        | Description                                 |
//	|-------------------------------|----------------|---------------------------------------------|
//	| BSERVE_SERVICE_NAME           | (required)     | Service name for logging and tracing        |
//	| BSERVE_ADDR                   | 127.0.0.1:9000 | Listen address                              |
//	| BSERVE_HEALTH_PATH            | /healthz       | Health route                                |
//	| BSERVE_LOG_LEVEL              | info           | debug, info, warn or error                  |
//	| BSERVE_OTEL_EXPORTER          | stdout         | stdout, xrayudp or none                     |
//	| BSERVE_TRANSPORT              | native         | native or stdlib                            |
//	| BSERVE_METRICS_ADDR           |                | Prometheus endpoint, disabled when empty    |
//	| BSERVE_READ_TIMEOUT           | 30s            | Read timeout per request                    |
//	| BSERVE_WRITE_TIMEOUT          | 30s            | Write timeout per response                  |
//	| BSERVE_IDLE_TIMEOUT           | 5m             | Keep-alive idle timeout                     |
//	| BSERVE_REQUEST_TIMEOUT        |                | Handler context deadline, none when empty   |
//	| BSERVE_SESSION_COOKIE         | WISDOM_SESSION | Session cookie name                         |
//	| BSERVE_SESSION_SECURE         | false          | Secure attribute of the session cookie      |
//	| BSERVE_SESSION_SECRET_SOURCE  | env            | env, secretsmanager or ssm                  |
//	| BSERVE_SESSION_SECRET         |                | Signing key for source env                  |
//	| BSERVE_SESSION_SECRET_ID      |                | Secret id or parameter name                 |
//	| BSERVE_SESSION_SECRET_PATH    |                | gjson path into a JSON secret               |
//	| AWS_REGION                    | us-east-1      | Region of AWS clients                       |
//	| BSERVE_SECRETS_REGION         | AWS_REGION     | Region of the secret readers                |
//
// # Transports
//
// The native transport is [bserve.Server], which runs the dispatch loop per connection. The stdlib
// transport serves the dispatcher with net/http behind otelhttp. Both shut down gracefully within
// the fx stop timeout.
//
// # Runtime
//
// [Runtime] provides access to app-scoped dependencies and should be injected into handler
// constructors via fx:
//   - [Runtime.Env] returns the typed environment configuration
//   - [Runtime.Reverse] generates URLs for named routes
//   - [Runtime.Secret] retrieves secrets from AWS Secrets Manager
//   - [Runtime.NewRequest] starts a traced outbound request
//
// # Request Context
//
// Request-scoped values are read from the handler context:
//
//	func (h *Handlers) GetItem(c *bserve.Context, r *http.Request) (*bserve.Result, error) {
//	    app.Log(c).Info("getting item", zap.String("id", r.PathValue("id")))
//	    app.Span(c).AddEvent("lookup")
//	    // ...
//	}
package app
