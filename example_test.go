package bserve_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"

	"github.com/advdv/bserve"
	"github.com/cockroachdb/errors"
)

func Example() {
	mux := bserve.NewMux()

	mux.HandleFunc("GET /items/{id}", func(_ *bserve.Context, r *http.Request) (*bserve.Result, error) {
		return bserve.Ok().JSON().Render(bserve.Value(map[string]string{
			"id":   r.PathValue("id"),
			"name": "Example Item",
		})), nil
	}, "get-item")

	// Generate URL by route name
	url, _ := mux.Reverse("get-item", "123")
	fmt.Println("URL:", url)

	resp := bserve.NewDispatcher(mux).Dispatch(httptest.NewRequest(http.MethodGet, "/items/42", nil))

	fmt.Println("Status:", resp.Status)
	fmt.Println("Body:", string(resp.Body))
	// Output:
	// URL: /items/123
	// Status: 200
	// Body: {"id":"42","name":"Example Item"}
}

func ExampleNewError() {
	mux := bserve.NewMux()

	mux.HandleFunc("GET /protected", func(_ *bserve.Context, r *http.Request) (*bserve.Result, error) {
		token := r.Header.Get("Authorization")
		if token == "" {
			return nil, bserve.NewError(bserve.CodeUnauthorized, errors.New("missing token"))
		}
		if token != "Bearer secret" {
			return nil, bserve.NewError(bserve.CodeForbidden, errors.New("invalid token"))
		}

		return bserve.OkText("welcome"), nil
	})

	d := bserve.NewDispatcher(mux)

	resp := d.Dispatch(httptest.NewRequest(http.MethodGet, "/protected", nil))
	fmt.Println("No token:", resp.Status)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	fmt.Println("Wrong token:", d.Dispatch(req).Status)

	req = httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer secret")
	fmt.Println("Valid token:", d.Dispatch(req).Status)
	// Output:
	// No token: 401
	// Wrong token: 403
	// Valid token: 200
}

func ExampleNewRecovery() {
	mux := bserve.NewMux()
	mux.HandleFunc("GET /boom", func(*bserve.Context, *http.Request) (*bserve.Result, error) {
		return nil, errors.New("database is down")
	})

	recovery := bserve.NewRecovery(nil,
		bserve.ForKind(bserve.RoutingMiss, bserve.ErrorHandlerFunc(
			func(context.Context, *bserve.Failure, *bserve.Result) *bserve.Result {
				return bserve.NotFound().JSON().Render(bserve.Value(map[string]string{"error": "no such page"}))
			})),
		bserve.ErrorHandlerFunc(func(_ context.Context, f *bserve.Failure, _ *bserve.Result) *bserve.Result {
			return bserve.NewResult(f.Status()).HTML().Render(bserve.Text("<h1>Sorry</h1>"))
		}))

	d := bserve.NewDispatcher(mux, bserve.WithRecovery(recovery), bserve.WithLogger(discardLogger{}))

	for _, path := range []string{"/nope", "/boom"} {
		resp := d.Dispatch(httptest.NewRequest(http.MethodGet, path, nil))
		fmt.Println(resp.Status, resp.Header.Get("Content-Type"), string(resp.Body))
	}
	// Output:
	// 404 application/json; charset=utf-8 {"error":"no such page"}
	// 500 text/html; charset=utf-8 <h1>Sorry</h1>
}

func ExampleResult() {
	res := bserve.Ok().
		With("Cache-Control", "no-store").
		WithCookie(bserve.NewCookie("theme", "dark")).
		Without("legacy").
		Render(bserve.Text("<p>hi</p>"))

	mux := bserve.NewMux()
	mux.HandleFunc("GET /", func(*bserve.Context, *http.Request) (*bserve.Result, error) { return res, nil })

	rec := httptest.NewRecorder()
	bserve.NewDispatcher(mux).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	fmt.Println(rec.Code, rec.Header().Get("Content-Type"))
	fmt.Println(rec.Header().Values("Set-Cookie"))
	fmt.Println(rec.Body.String())
	// Output:
	// 200 text/html; charset=utf-8
	// [theme=dark; Path=/ legacy=; Path=/; Max-Age=0]
	// <p>hi</p>
}

type discardLogger struct{}

func (discardLogger) LogHandlerFailure(*bserve.Failure) {}
func (discardLogger) LogErrorHandlerPanic(any)          {}
func (discardLogger) LogWriteError(error)               {}
func (discardLogger) LogConnError(error)                {}
