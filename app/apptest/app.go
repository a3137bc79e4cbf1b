// Package apptest provides test helpers for bserve applications.
//
// It constructs the identical DI graph as [app.NewApp] but uses
// [fxtest.App] which fails the test immediately on DI errors.
//
// Example:
//
//	apptest.SetBaseEnv(t)
//	tapp := apptest.New[TestEnv](t, routing, app.WithErrorHandlers(...))
//	tapp.RequireStart()
//	t.Cleanup(tapp.RequireStop)
//	res, err := http.Get(tapp.URL("/items/1"))
package apptest

import (
	"net/url"
	"testing"

	"github.com/advdv/bserve/app"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
)

// App embeds *fxtest.App for testing bserve applications.
type App struct {
	*fxtest.App

	Transport app.Transport
	Metrics   *app.MetricsServer
	Registry  *prometheus.Registry
}

// New creates a test app with the same DI graph as [app.NewApp].
func New[E app.Environment](t testing.TB, routing any, opts ...app.Option) *App {
	ta := &App{}
	fxOpts := append(app.FxOptions[E](routing, opts...),
		fx.Populate(&ta.Transport, &ta.Metrics, &ta.Registry))

	ta.App = fxtest.New(t, fxOpts...)
	return ta
}

// URL returns the address of path on the started app.
func (a *App) URL(path string) string {
	return (&url.URL{Scheme: "http", Host: a.Transport.Addr().String(), Path: path}).String()
}

// MetricsURL returns the address of the metrics endpoint on the started app.
func (a *App) MetricsURL() string {
	return (&url.URL{Scheme: "http", Host: a.Metrics.Addr().String(), Path: "/metrics"}).String()
}
