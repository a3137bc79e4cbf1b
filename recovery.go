package bserve

import (
	"context"
	"net/http"
)

// ErrorHandler gets a say in the response of a failed request. It receives the failure and the
// result the handler produced before failing, which is nil when there was none. Returning nil
// means the handler has no opinion and the next one is asked.
type ErrorHandler interface {
	OnError(ctx context.Context, f *Failure, inflight *Result) *Result
}

// ErrorHandlerFunc allow casting a function to imple [ErrorHandler].
type ErrorHandlerFunc func(ctx context.Context, f *Failure, inflight *Result) *Result

// OnError implements the [ErrorHandler] interface.
func (fn ErrorHandlerFunc) OnError(ctx context.Context, f *Failure, inflight *Result) *Result {
	return fn(ctx, f, inflight)
}

// ForKind returns an error handler that only consults h for failures of the given kind.
func ForKind(kind FailureKind, h ErrorHandler) ErrorHandler {
	return ErrorHandlerFunc(func(ctx context.Context, f *Failure, inflight *Result) *Result {
		if f.Kind != kind {
			return nil
		}

		return h.OnError(ctx, f, inflight)
	})
}

// Recovery turns failures into results. Error handlers are consulted in registration order and
// the first non-nil result wins. When none answers, a minimal plain-text result is produced.
// Recovery is immutable after construction and safe for concurrent use.
type Recovery struct {
	logs     Logger
	handlers []ErrorHandler
}

// NewRecovery inits the recovery chain.
func NewRecovery(logs Logger, hs ...ErrorHandler) *Recovery {
	return &Recovery{logs: logs, handlers: append([]ErrorHandler(nil), hs...)}
}

// Recover produces the result for a failed request. It never panics: an error handler that panics
// is logged and treated as having no opinion.
func (rc *Recovery) Recover(ctx context.Context, f *Failure, inflight *Result) *Result {
	if rc != nil {
		for _, h := range rc.handlers {
			if res := rc.consult(ctx, h, f, inflight); res != nil {
				return res
			}
		}
	}

	return FallbackResult(f)
}

func (rc *Recovery) consult(ctx context.Context, h ErrorHandler, f *Failure, inflight *Result) (res *Result) {
	defer func() {
		if v := recover(); v != nil {
			if rc.logs != nil {
				rc.logs.LogErrorHandlerPanic(v)
			}

			res = nil
		}
	}()

	return h.OnError(ctx, f, inflight)
}

// FallbackResult is the result used when no error handler answers: the failure's status with its
// status text as a plain-text body.
func FallbackResult(f *Failure) *Result {
	status := http.StatusInternalServerError
	if f != nil {
		status = f.Status()
	}

	return NewResult(status).Text().Render(Text(http.StatusText(status)))
}
