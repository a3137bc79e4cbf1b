package bserve_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/advdv/bserve"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func textOf(t *testing.T, res *bserve.Result) string {
	t.Helper()

	b, ok := res.Renderable().Bytes()
	require.True(t, ok)

	return string(b)
}

func TestRecoveryFallback(t *testing.T) {
	rc := bserve.NewRecovery(bserve.NewTestLogger(t))

	res := rc.Recover(t.Context(), &bserve.Failure{Kind: bserve.RoutingMiss, Err: errors.New("miss")}, nil)
	require.Equal(t, http.StatusNotFound, res.StatusCode())
	require.Equal(t, bserve.MimeText, res.ContentType())
	require.Equal(t, "Not Found", textOf(t, res))

	res = rc.Recover(t.Context(), &bserve.Failure{Kind: bserve.HandlerFailure, Err: errors.New("boom")}, nil)
	require.Equal(t, http.StatusInternalServerError, res.StatusCode())
	require.Equal(t, "Internal Server Error", textOf(t, res))

	res = rc.Recover(t.Context(), &bserve.Failure{
		Kind: bserve.HandlerFailure,
		Err:  bserve.NewError(bserve.CodeTooManyRequests, errors.New("slow down")),
	}, nil)
	require.Equal(t, http.StatusTooManyRequests, res.StatusCode())
	require.Equal(t, "Too Many Requests", textOf(t, res))

	require.Equal(t, 500, bserve.FallbackResult(nil).StatusCode())

	var nilRecovery *bserve.Recovery
	require.Equal(t, 500, nilRecovery.Recover(t.Context(), &bserve.Failure{
		Kind: bserve.HandlerFailure, Err: errors.New("x"),
	}, nil).StatusCode())
}

func TestRecoveryOrder(t *testing.T) {
	var calls []string
	record := func(name string, res *bserve.Result) bserve.ErrorHandler {
		return bserve.ErrorHandlerFunc(func(context.Context, *bserve.Failure, *bserve.Result) *bserve.Result {
			calls = append(calls, name)
			return res
		})
	}

	rc := bserve.NewRecovery(bserve.NewTestLogger(t),
		record("first", nil),
		record("second", bserve.OkText("handled").Status(http.StatusTeapot)),
		record("third", bserve.OkText("never")),
	)

	res := rc.Recover(t.Context(), &bserve.Failure{Kind: bserve.HandlerFailure, Err: errors.New("x")}, nil)
	require.Equal(t, http.StatusTeapot, res.StatusCode())
	require.Equal(t, "handled", textOf(t, res))
	require.Equal(t, []string{"first", "second"}, calls)
}

func TestRecoveryPanickingHandlerIsSkipped(t *testing.T) {
	logs := bserve.NewTestLogger(t)
	rc := bserve.NewRecovery(logs,
		bserve.ErrorHandlerFunc(func(context.Context, *bserve.Failure, *bserve.Result) *bserve.Result {
			panic("error handler broke")
		}),
		bserve.ErrorHandlerFunc(func(context.Context, *bserve.Failure, *bserve.Result) *bserve.Result {
			return bserve.OkText("second opinion").Status(502)
		}),
	)

	var res *bserve.Result
	require.NotPanics(t, func() {
		res = rc.Recover(t.Context(), &bserve.Failure{Kind: bserve.HandlerFailure, Err: errors.New("x")}, nil)
	})

	require.Equal(t, 502, res.StatusCode())
	require.Equal(t, int64(1), logs.NumLogErrorHandlerPanic)
}

func TestRecoveryInflightAndForKind(t *testing.T) {
	inflight := bserve.Ok().With("X-Partial", "1")

	rc := bserve.NewRecovery(bserve.NewTestLogger(t),
		bserve.ForKind(bserve.RoutingMiss, bserve.ErrorHandlerFunc(
			func(_ context.Context, _ *bserve.Failure, _ *bserve.Result) *bserve.Result {
				return bserve.NotFound().HTML().Render(bserve.Text("<h1>gone</h1>"))
			})),
		bserve.ErrorHandlerFunc(func(_ context.Context, f *bserve.Failure, in *bserve.Result) *bserve.Result {
			assert.Same(t, inflight, in)
			return bserve.InternalServerError(f.Err)
		}),
	)

	res := rc.Recover(t.Context(), &bserve.Failure{Kind: bserve.RoutingMiss, Err: errors.New("x")}, nil)
	require.Equal(t, "<h1>gone</h1>", textOf(t, res))

	res = rc.Recover(t.Context(), &bserve.Failure{Kind: bserve.HandlerFailure, Err: errors.New("db down")}, inflight)
	msg, _, ok := res.Renderable().Error()
	require.True(t, ok)
	require.Equal(t, "db down", msg)
}
