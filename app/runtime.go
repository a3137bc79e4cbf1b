package app

import (
	"context"
	"net/http"

	"github.com/carlmjohnson/requests"
	"github.com/cockroachdb/errors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// Runtime provides access to app-scoped dependencies.
// Inject this into handler constructors via fx instead of pulling from context.
//
// Example:
//
//	type Handlers struct {
//	    rt *app.Runtime[Env]
//	}
//
//	func NewHandlers(rt *app.Runtime[Env]) *Handlers {
//	    return &Handlers{rt: rt}
//	}
//
//	func (h *Handlers) GetItem(c *bserve.Context, r *http.Request) (*bserve.Result, error) {
//	    self, _ := h.rt.Reverse("get-item", r.PathValue("id"))
//	    var item Item
//	    err := h.rt.NewRequest(h.rt.Env().UpstreamURL).Path(r.PathValue("id")).ToJSON(&item).Fetch(c)
//	    // ...
//	}
type Runtime[E Environment] struct {
	env          E
	mux          *Mux
	secretReader SecretReader
	transport    http.RoundTripper
}

// RuntimeParams holds optional dependencies for Runtime.
type RuntimeParams struct {
	SecretReader SecretReader
	Transport    http.RoundTripper
}

// NewRuntime creates a new Runtime with the given dependencies.
func NewRuntime[E Environment](env E, mux *Mux, params RuntimeParams) *Runtime[E] {
	transport := params.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}

	return &Runtime[E]{
		env:          env,
		mux:          mux,
		secretReader: params.SecretReader,
		transport:    transport,
	}
}

// Env returns the environment configuration.
func (r *Runtime[E]) Env() E {
	return r.env
}

// Reverse returns the URL for a named route with the given parameters.
// The route must have been registered with a name using Handle/HandleFunc.
func (r *Runtime[E]) Reverse(name string, params ...string) (string, error) {
	return r.mux.Reverse(name, params...)
}

// Secret retrieves a secret value from AWS Secrets Manager.
//
// If jsonPath is provided, the secret is parsed as JSON and the path is extracted
// using gjson syntax (e.g., "database.password", "api.keys.0").
// Secrets are cached but fetched per call to support rotation without redeployment.
func (r *Runtime[E]) Secret(ctx context.Context, secretID string, jsonPath ...string) (string, error) {
	if r.secretReader == nil {
		return "", errors.New("app: secret reader not configured")
	}
	return secretFromReader(ctx, r.secretReader, secretID, jsonPath...)
}

// NewRequest starts an outbound request to baseURL. The request runs over the traced transport
// so it shows up as a child span of the handler's span.
func (r *Runtime[E]) NewRequest(baseURL string) *requests.Builder {
	return requests.URL(baseURL).Transport(r.transport)
}

// HTTPClient returns a client on the traced transport, for libraries that want an *http.Client.
func (r *Runtime[E]) HTTPClient() *http.Client {
	return &http.Client{Transport: r.transport}
}

// NewHTTPTransport creates an HTTP RoundTripper instrumented with OpenTelemetry tracing.
func NewHTTPTransport(tp trace.TracerProvider, prop propagation.TextMapPropagator) http.RoundTripper {
	return otelhttp.NewTransport(http.DefaultTransport,
		otelhttp.WithTracerProvider(tp),
		otelhttp.WithPropagators(prop),
	)
}
