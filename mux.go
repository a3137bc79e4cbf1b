package bserve

import (
	"context"
	"net/http"

	"github.com/advdv/bserve/internal/httppattern"
)

// Mux is the default [Router]. Patterns use the syntax of net/http's ServeMux, which does the
// matching, so precedence rules and path values behave exactly like the standard library.
//
// The redirects ServeMux issues itself (a missing trailing slash, an unclean path) are answered
// with its status and Location header. A request whose path matches only with another method is
// a routing miss like any other: it gets a 404 and no Allow header.
type Mux struct {
	reverser    *Reverser
	mux         *http.ServeMux
	routes      []*Route
	middlewares struct {
		captured bool
		list     []Middleware
	}
}

// NewMux creates a new Mux with default settings.
func NewMux() *Mux {
	return NewMuxWith(http.NewServeMux(), NewReverser())
}

// NewMuxWith creates a Mux with custom settings.
func NewMuxWith(baseMux *http.ServeMux, reverser *Reverser) *Mux {
	return &Mux{
		reverser: reverser,
		mux:      baseMux,
	}
}

// Reverse returns the url based on the name and parameter values.
func (m *Mux) Reverse(name string, vals ...string) (string, error) {
	return m.reverser.Reverse(name, vals...)
}

// Use allows providing of middleware.
func (m *Mux) Use(mw ...Middleware) {
	m.ensureNoUseAfterHandle()
	m.middlewares.list = append(m.middlewares.list, mw...)
}

// HandleFunc handles the request given the pattern using a function.
func (m *Mux) HandleFunc(pattern string, handler HandlerFunc, name ...string) {
	m.Handle(pattern, handler, name...)
}

// HandleStd registers a standard library [http.Handler] for the given pattern. Middleware
// registered via [Mux.Use] is applied. The handler owns its response, including error responses.
func (m *Mux) HandleStd(pattern string, handler http.Handler, name ...string) {
	m.Handle(pattern, StdHandler(handler), name...)
}

// Handle handles the request given a handler.
func (m *Mux) Handle(pattern string, handler Handler, name ...string) {
	m.handle(pattern, Wrap(handler, m.middlewares.list...), name...)
}

// Routes returns the registered routes in registration order.
func (m *Mux) Routes() []*Route {
	return append([]*Route(nil), m.routes...)
}

type captureKey struct{}

type capture struct {
	route *Route
	req   *http.Request
}

// Lookup implements [Router]. The returned request carries the path values of the match.
func (m *Mux) Lookup(r *http.Request) (*Route, *http.Request, bool) {
	var c capture
	w := &missWriter{header: http.Header{}}
	m.mux.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), captureKey{}, &c)))

	if c.route == nil {
		if loc := w.header.Get("Location"); loc != "" && isRedirect(w.status) {
			return &Route{Method: r.Method, Handler: redirectHandler(w.status, loc)}, r, true
		}

		return nil, r, false
	}

	return c.route, c.req.WithContext(r.Context()), true
}

func isRedirect(status int) bool {
	return status >= http.StatusMultipleChoices && status < http.StatusBadRequest
}

func redirectHandler(status int, location string) Handler {
	return HandlerFunc(func(*Context, *http.Request) (*Result, error) {
		return NewResult(status).With("Location", location), nil
	})
}

var _ Router = &Mux{}

func (m *Mux) handle(pattern string, handler Handler, name ...string) {
	m.middlewares.captured = true

	route := &Route{Pattern: pattern, Handler: handler}
	if len(name) > 0 {
		route.Name = name[0]
		pattern = m.reverser.Named(name[0], pattern)
	}

	if pat, err := httppattern.ParsePattern(pattern); err == nil {
		route.Method = pat.Method()
	}

	m.mux.Handle(pattern, http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		if c, ok := r.Context().Value(captureKey{}).(*capture); ok {
			c.route, c.req = route, r
		}
	}))

	m.routes = append(m.routes, route)
}

func (m *Mux) ensureNoUseAfterHandle() {
	if m.middlewares.captured {
		panic("bserve: cannot call Use() after calling Handle")
	}
}

// missWriter records what net/http's ServeMux writes for requests it does not route to one of
// our handlers, such as its own 404, 405 and redirect responses.
type missWriter struct {
	header http.Header
	status int
}

func (w *missWriter) Header() http.Header         { return w.header }
func (w *missWriter) Write(b []byte) (int, error) { return len(b), nil }
func (w *missWriter) WriteHeader(status int)      { w.status = status }
