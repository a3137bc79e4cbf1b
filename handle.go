package bserve

import (
	"context"
	"net/http"

	"github.com/advdv/bserve/session"
)

// Context is handed to every handler. It carries the request's context, the session decoded from
// the request cookie and the route that matched.
type Context struct {
	context.Context
	session *session.Session
	route   *Route
}

// NewContext inits a handler context. The dispatcher builds one per request; tests and adapters
// may build their own.
func NewContext(ctx context.Context, sess *session.Session, route *Route) *Context {
	if sess == nil {
		sess = session.New()
	}

	return &Context{Context: ctx, session: sess, route: route}
}

// Session returns the request's session. Changes are written back to the client when the handler
// succeeds.
func (c *Context) Session() *session.Session { return c.session }

// Route returns the matched route, nil when the handler is invoked outside of a router.
func (c *Context) Route() *Route { return c.route }

// Handler produces the result for a request. Returning an error, or panicking, hands the request
// to the error recovery chain.
type Handler interface {
	ServeBServe(ctx *Context, r *http.Request) (*Result, error)
}

// HandlerFunc allow casting a function to imple [Handler].
type HandlerFunc func(*Context, *http.Request) (*Result, error)

// ServeBServe implements the [Handler] interface.
func (f HandlerFunc) ServeBServe(ctx *Context, r *http.Request) (*Result, error) {
	return f(ctx, r)
}

// Route binds a handler to a request pattern, optionally under a name for reversing.
type Route struct {
	Method  string
	Pattern string
	Name    string
	Handler Handler
}

// Router is consulted by the dispatcher for every request. Lookup returns the matched route and the
// request to hand to its handler, which may carry matched path values. It reports false when no
// route matches.
type Router interface {
	Lookup(r *http.Request) (*Route, *http.Request, bool)
}
