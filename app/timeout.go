package app

import (
	"context"
	"net/http"
	"time"

	"github.com/advdv/bserve"
)

// DefaultShutdownBuffer is the time reserved at the end of the fx stop timeout for closing the
// remaining connections after draining gave up.
const DefaultShutdownBuffer = 500 * time.Millisecond

// TimeoutConfig holds the timeouts of the server and of every request.
type TimeoutConfig struct {
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// RequestTimeout bounds the context of each handler invocation. Zero leaves the context
	// without deadline.
	RequestTimeout time.Duration
}

// ServerConfig returns the native server configuration for addr.
func (tc TimeoutConfig) ServerConfig(addr string) bserve.ServerConfig {
	return bserve.ServerConfig{
		Addr:         addr,
		ReadTimeout:  tc.ReadTimeout,
		WriteTimeout: tc.WriteTimeout,
		IdleTimeout:  tc.IdleTimeout,
	}
}

// ServerTimeouts returns the http.Server timeout values for the stdlib transport. Zero values fall
// back to the native server's defaults so both transports behave alike.
func (tc TimeoutConfig) ServerTimeouts() (readHeaderTimeout, readTimeout, writeTimeout, idleTimeout time.Duration) {
	def := bserve.DefaultServerConfig()

	readTimeout = cmpOr(tc.ReadTimeout, def.ReadTimeout)
	writeTimeout = cmpOr(tc.WriteTimeout, def.WriteTimeout)
	idleTimeout = cmpOr(tc.IdleTimeout, def.IdleTimeout)
	readHeaderTimeout = min(readTimeout, 5*time.Second)

	return
}

func cmpOr(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}

// WithRequestTimeout returns middleware that bounds the request context by timeout. Handlers and
// their downstream calls observe the deadline through the context; the response is still written
// by the dispatcher once the handler returns. A timeout of zero or less disables the middleware.
func WithRequestTimeout(timeout time.Duration) bserve.Middleware {
	return func(next bserve.Handler) bserve.Handler {
		if timeout <= 0 {
			return next
		}

		return bserve.HandlerFunc(func(c *bserve.Context, r *http.Request) (*bserve.Result, error) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			return next.ServeBServe(bserve.NewContext(ctx, c.Session(), c.Route()), r.WithContext(ctx))
		})
	}
}

// RequestRemainingTime returns the duration until the request context deadline.
// Returns 0 if no deadline is set or if the deadline has passed.
func RequestRemainingTime(ctx context.Context) time.Duration {
	deadline, ok := ctx.Deadline()
	if !ok {
		return 0
	}
	remaining := time.Until(deadline)
	if remaining < 0 {
		return 0
	}
	return remaining
}
