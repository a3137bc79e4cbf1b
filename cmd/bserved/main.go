// Command bserved runs a small demo application on top of bserve.
package main

import (
	"context"
	"net/http"
	"strconv"

	"github.com/advdv/bserve"
	"github.com/advdv/bserve/app"
	"github.com/cockroachdb/errors"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Env is the configuration of the demo.
type Env struct {
	app.BaseEnvironment

	Greeting string `env:"BSERVED_GREETING" envDefault:"Hello"`
}

// Handlers holds the demo routes.
type Handlers struct {
	rt *app.Runtime[Env]
}

// NewHandlers creates the handlers.
func NewHandlers(rt *app.Runtime[Env]) *Handlers {
	return &Handlers{rt: rt}
}

// Index greets plainly.
func (h *Handlers) Index(*bserve.Context, *http.Request) (*bserve.Result, error) {
	return bserve.OkText(h.rt.Env().Greeting + ", World!"), nil
}

// Hello greets by name, in whatever format the client accepts.
func (h *Handlers) Hello(ctx *bserve.Context, r *http.Request) (*bserve.Result, error) {
	name := r.PathValue("name")
	app.Log(ctx).Info("greeting", zap.String("name", name))

	self, err := h.rt.Reverse("hello", name)
	if err != nil {
		return nil, errors.Wrap(err, "reverse")
	}

	return bserve.Ok().Render(bserve.Value(map[string]string{
		"greeting": h.rt.Env().Greeting + ", " + name,
		"self":     self,
	})), nil
}

// Visits counts requests in the session cookie.
func (h *Handlers) Visits(ctx *bserve.Context, _ *http.Request) (*bserve.Result, error) {
	sess := ctx.Session()

	v, _ := sess.Get("visits")
	n, _ := strconv.Atoi(v)
	n++
	sess.Set("visits", strconv.Itoa(n))

	return bserve.OkText("visits: " + strconv.Itoa(n)).NoCache(), nil
}

// Forbidden always refuses.
func (h *Handlers) Forbidden(*bserve.Context, *http.Request) (*bserve.Result, error) {
	return nil, bserve.NewError(bserve.CodeForbidden, errors.New("nobody gets in"))
}

func main() {
	app.NewApp[Env](func(m *app.Mux, h *Handlers) {
		m.HandleFunc("GET /{$}", h.Index, "index")
		m.HandleFunc("GET /hello/{name}", h.Hello, "hello")
		m.HandleFunc("GET /visits", h.Visits, "visits")
		m.HandleFunc("GET /forbidden", h.Forbidden, "forbidden")
	},
		app.WithFx(fx.Provide(NewHandlers)),
		app.WithErrorHandlers(bserve.ErrorHandlerFunc(
			func(_ context.Context, f *bserve.Failure, _ *bserve.Result) *bserve.Result {
				if f.Status() != http.StatusForbidden {
					return nil
				}
				return bserve.Forbidden().Render(bserve.Text("go away"))
			})),
	).Run()
}
