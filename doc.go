// Package bserve is a small HTTP/1.1 application server built around handlers that return results
// instead of writing responses.
//
// # Overview
//
// A handler receives a [*Context] and the request, and returns a [*Result] or an error. The
// [Dispatcher] decodes the session cookie, routes the request, invokes the handler, writes the
// session back and serializes the result's body with the [ContentEngine]. The [Server] runs the
// dispatcher on its own keep-alive connection loop; the dispatcher is also an http.Handler so it
// can run under net/http instead.
//
// A minimal example:
//
//	mux := bserve.NewMux()
//	mux.HandleFunc("GET /items/{id}", func(c *bserve.Context, r *http.Request) (*bserve.Result, error) {
//	    item, err := db.GetItem(r.PathValue("id"))
//	    if err != nil {
//	        return nil, bserve.NewError(bserve.CodeNotFound, err)
//	    }
//	    return bserve.Ok().JSON().Render(bserve.Value(item)), nil
//	}, "get-item")
//
//	srv := bserve.NewServer(bserve.NewDispatcher(mux), bserve.DefaultServerConfig())
//	if err := srv.Start(ctx); err != nil {
//	    return err
//	}
//	defer srv.Stop(ctx)
//
// # Results
//
// A [Result] is built fluently from a status constructor such as [Ok], [NotFound] or [Redirect].
// Its body is a [Renderable]: raw bytes, an arbitrary value or error content. Nothing is
// serialized until the dispatcher negotiates the result, so error handlers can still inspect and
// replace it.
//
//	bserve.Ok().With("Cache-Control", "max-age=60").Render(bserve.Text("hello"))
//	bserve.Created().JSON().Render(bserve.Value(item))
//	bserve.Ok().WithCookie(bserve.NewCookie("theme", "dark")).Without("legacy")
//
// # Content Negotiation
//
// The result's content type picks the serializer from the [Engine]. Without a content type the
// HTML serializer is used. The builtin serializers cover text/html, text/plain, application/json
// and application/xml; register your own with [NewEngine] to add or override one. The charset
// defaults to [DefaultCharset] and is appended to the Content-Type header.
//
// # Sessions
//
// The session is a flat string map stored in a cookie in the Play framework format, optionally
// signed with HMAC-SHA1. See package session. A session that was not modified is not written
// back; one that was cleared is deleted on the client.
//
// # Error Handling
//
// Every failure (no route, a handler error, a handler panic, a result that cannot be serialized)
// becomes a [*Failure] and is handed to the [Recovery] chain:
//
//   - [ErrorHandler]s are consulted in order, the first non-nil result wins
//   - a panicking error handler is logged and skipped
//   - without an answer the [FallbackResult] is used: the failure's status as plain text
//
// Handlers pick the status of their failure by returning an [*Error]:
//
//	return nil, bserve.NewError(bserve.CodeForbidden, errors.New("access denied"))
//
// Error handlers also see the in-flight result, the one the handler returned along with its error.
//
// # Routing and Middleware
//
// [Mux] routes with the standard library's pattern syntax and supports named routes for reverse
// routing with [Mux.Reverse]. Middleware wraps [Handler]s and must be registered with [Mux.Use]
// before any route. Standard library handlers run through [Mux.HandleStd] and [Mux.MountStd],
// their output is captured in a [ResponseBuffer].
//
//	mux.Use(authMiddleware, loggingMiddleware)
//	mux.Mount("/api", apiHandler)
//	url, err := mux.Reverse("get-item", "123") // "/items/123"
//
// # Observability
//
// The dispatcher starts an OpenTelemetry span per request and records every state the request
// passes through as a span event. [NewMetrics] registers Prometheus collectors for requests,
// failures and open connections. Important events are reported through the [Logger] interface.
package bserve
