package bserve

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/advdv/bserve/session"
	"github.com/cockroachdb/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// State is a step in the life of a request.
type State int

const (
	StateAccepted State = iota + 1
	StateParsed
	StateRouted
	StateInvoked
	StateNegotiated
	StateWritten
	StateFailed
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateAccepted:
		return "accepted"
	case StateParsed:
		return "parsed"
	case StateRouted:
		return "routed"
	case StateInvoked:
		return "invoked"
	case StateNegotiated:
		return "negotiated"
	case StateWritten:
		return "written"
	case StateFailed:
		return "failed"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Dispatcher turns a parsed request into a [Response]: it decodes the session, asks the router for
// a route, invokes the handler, writes the session back and negotiates the body. Every failure on
// the way is handed to the [Recovery] chain. A Dispatcher is immutable after construction and
// safe for concurrent use.
type Dispatcher struct {
	router     Router
	engine     ContentEngine
	recovery   *Recovery
	sessions   *session.Codec
	logs       Logger
	metrics    *Metrics
	tracer     trace.Tracer
	propagator propagation.TextMapPropagator
}

// DispatcherOption configures a [Dispatcher].
type DispatcherOption func(*Dispatcher)

// WithEngine sets the content engine, [NewEngine] by default.
func WithEngine(e ContentEngine) DispatcherOption { return func(d *Dispatcher) { d.engine = e } }

// WithRecovery sets the error recovery chain. By default only the fallback result is used.
func WithRecovery(rc *Recovery) DispatcherOption { return func(d *Dispatcher) { d.recovery = rc } }

// WithSessionCodec sets the session codec, an unsigned [session.NewCodec] by default.
func WithSessionCodec(c *session.Codec) DispatcherOption {
	return func(d *Dispatcher) { d.sessions = c }
}

// WithLogger sets the logger, the standard library's default logger by default.
func WithLogger(l Logger) DispatcherOption { return func(d *Dispatcher) { d.logs = l } }

// WithMetrics enables Prometheus metrics.
func WithMetrics(m *Metrics) DispatcherOption { return func(d *Dispatcher) { d.metrics = m } }

// WithTracerProvider sets the provider of the per-request spans, the global one by default.
func WithTracerProvider(tp trace.TracerProvider) DispatcherOption {
	return func(d *Dispatcher) { d.tracer = tp.Tracer("github.com/advdv/bserve") }
}

// WithPropagator sets the propagator used to continue traces from request headers, the global
// one by default.
func WithPropagator(p propagation.TextMapPropagator) DispatcherOption {
	return func(d *Dispatcher) { d.propagator = p }
}

// NewDispatcher inits a dispatcher that routes with router.
func NewDispatcher(router Router, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		router:     router,
		engine:     NewEngine(),
		sessions:   session.NewCodec(),
		tracer:     otel.GetTracerProvider().Tracer("github.com/advdv/bserve"),
		propagator: otel.GetTextMapPropagator(),
	}
	for _, opt := range opts {
		opt(d)
	}

	if d.logs == nil {
		d.logs = NewStdLogger(log.Default())
	}

	if d.recovery == nil {
		d.recovery = NewRecovery(d.logs)
	}

	return d
}

// exchange tracks one request through the dispatcher.
type exchange struct {
	span   trace.Span
	states []State
}

func (ex *exchange) to(s State) {
	ex.states = append(ex.states, s)
	ex.span.AddEvent(s.String())
}

// Dispatch produces the response for r. It never fails and never panics because of a handler,
// serializer or error handler.
func (d *Dispatcher) Dispatch(r *http.Request) *Response {
	start := time.Now()

	ctx := d.propagator.Extract(r.Context(), propagation.HeaderCarrier(r.Header))
	ctx, span := d.tracer.Start(ctx, r.Method,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String("http.request.method", r.Method),
			attribute.String("url.path", r.URL.Path),
		))
	defer span.End()

	ex := &exchange{span: span}
	ex.to(StateParsed)

	resp := d.dispatch(ctx, r.WithContext(ctx), ex)
	resp.States = ex.states

	span.SetAttributes(attribute.Int("http.response.status_code", resp.Status))
	d.metrics.observeRequest(r.Method, resp.Status, time.Since(start))

	return resp
}

// ServeHTTP runs the dispatcher under net/http.
func (d *Dispatcher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := d.Dispatch(r).Write(w); err != nil {
		d.logs.LogWriteError(err)
	}
}

func (d *Dispatcher) dispatch(ctx context.Context, r *http.Request, ex *exchange) *Response {
	sess := d.sessions.Load(r)

	route, rr, ok := d.router.Lookup(r)
	if !ok {
		return d.fail(ctx, ex, newFailure(RoutingMiss, r,
			errors.Newf("no route for %s %s", r.Method, r.URL.Path)), nil)
	}

	ex.to(StateRouted)
	ex.span.SetAttributes(attribute.String("http.route", route.Pattern))

	res, err := invoke(route.Handler, NewContext(rr.Context(), sess, route), rr)
	if err != nil {
		return d.fail(ctx, ex, newFailure(HandlerFailure, rr, err), res)
	}

	if res == nil {
		return d.fail(ctx, ex, newFailure(HandlerFailure, rr, errors.New("handler returned no result")), nil)
	}

	ex.to(StateInvoked)

	if c, ok := d.sessions.Cookie(sess); ok {
		res.WithCookie(cookieFromStd(c))
	}

	resp, err := d.render(res)
	if err != nil {
		return d.fail(ctx, ex, newFailure(SerializationFailure, rr, err), res)
	}

	ex.to(StateNegotiated)

	return resp
}

func (d *Dispatcher) fail(ctx context.Context, ex *exchange, f *Failure, inflight *Result) *Response {
	ex.to(StateFailed)
	ex.span.RecordError(f)
	ex.span.SetStatus(codes.Error, f.Kind.String())
	d.metrics.observeFailure(f.Kind)

	if f.Kind != RoutingMiss {
		d.logs.LogHandlerFailure(f)
	}

	resp, err := d.render(d.recovery.Recover(ctx, f, inflight))
	if err != nil {
		resp = fallbackResponse(f)
	}

	ex.to(StateNegotiated)
	resp.Failure = f

	return resp
}

func (d *Dispatcher) render(res *Result) (*Response, error) {
	neg, err := Negotiate(d.engine, res)
	if err != nil {
		return nil, err
	}

	return materialize(res, neg)
}

// invoke calls the handler, turning a panic into an error.
func invoke(h Handler, ctx *Context, r *http.Request) (res *Result, err error) {
	defer func() {
		if v := recover(); v != nil {
			res, err = nil, errors.WithStack(&PanicError{Value: v})
		}
	}()

	return h.ServeBServe(ctx, r)
}

// fallbackResponse is written when even the recovered result cannot be serialized.
func fallbackResponse(f *Failure) *Response {
	res := FallbackResult(f)
	body, _ := TextSerializer{}.Serialize(res.Renderable())

	resp, err := materialize(res, Negotiated{ContentType: MimeText + "; charset=" + DefaultCharset, Body: body})
	if err != nil {
		panic("bserve: fallback response: " + err.Error())
	}

	return resp
}
