// Package example implements example middleware in an outside package.
package example

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/advdv/bserve"
)

// ctxKey type scopes middlware values.
type ctxKey string

// Middleware provides an example for middleware that adds a logger to the context.
func Middleware(logs *slog.Logger) bserve.Middleware {
	return func(n bserve.Handler) bserve.Handler {
		return bserve.HandlerFunc(func(c *bserve.Context, r *http.Request) (*bserve.Result, error) {
			logs := logs.With(slog.String("method", r.Method))
			if route := c.Route(); route != nil {
				logs = logs.With(slog.String("route", route.Pattern))
			}

			r = r.WithContext(context.WithValue(r.Context(), ctxKey("slog"), logs))

			return n.ServeBServe(bserve.NewContext(r.Context(), c.Session(), c.Route()), r)
		})
	}
}

func Log(ctx context.Context) *slog.Logger {
	v, _ := ctx.Value(ctxKey("slog")).(*slog.Logger)

	return v
}
