package apptest

import (
	"testing"
)

// Env provides a chainable builder for setting [app.BaseEnvironment] env vars
// via t.Setenv. Create one with [SetBaseEnv].
type Env struct {
	t testing.TB
}

// SetBaseEnv sets all [app.BaseEnvironment] env vars to sensible test defaults.
// The server binds a free port so tests can run side by side.
//
// Defaults:
//   - BSERVE_ADDR: "127.0.0.1:0"
//   - BSERVE_SERVICE_NAME: "test"
//   - BSERVE_HEALTH_PATH: "/healthz"
//   - BSERVE_OTEL_EXPORTER: "none"
//   - BSERVE_TRANSPORT: "native"
//   - BSERVE_SESSION_SECRET_SOURCE: "env"
//   - BSERVE_SESSION_SECRET: "test-secret"
//   - AWS_REGION: "us-east-1"
//   - AWS_ACCESS_KEY_ID: "test"
//   - AWS_SECRET_ACCESS_KEY: "test"
//
// Use the returned [Env] to override individual values:
//
//	apptest.SetBaseEnv(t).Transport("stdlib").MetricsAddr("127.0.0.1:0")
func SetBaseEnv(t testing.TB) *Env {
	t.Helper()
	t.Setenv("BSERVE_ADDR", "127.0.0.1:0")
	t.Setenv("BSERVE_SERVICE_NAME", "test")
	t.Setenv("BSERVE_HEALTH_PATH", "/healthz")
	t.Setenv("BSERVE_OTEL_EXPORTER", "none")
	t.Setenv("BSERVE_TRANSPORT", "native")
	t.Setenv("BSERVE_SESSION_SECRET_SOURCE", "env")
	t.Setenv("BSERVE_SESSION_SECRET", "test-secret")
	t.Setenv("AWS_REGION", "us-east-1")
	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test")
	return &Env{t: t}
}

func (e *Env) set(key, value string) *Env {
	e.t.Helper()
	e.t.Setenv(key, value)
	return e
}

// ServiceName overrides BSERVE_SERVICE_NAME.
func (e *Env) ServiceName(name string) *Env { return e.set("BSERVE_SERVICE_NAME", name) }

// HealthPath overrides BSERVE_HEALTH_PATH.
func (e *Env) HealthPath(path string) *Env { return e.set("BSERVE_HEALTH_PATH", path) }

// Transport overrides BSERVE_TRANSPORT.
func (e *Env) Transport(name string) *Env { return e.set("BSERVE_TRANSPORT", name) }

// MetricsAddr overrides BSERVE_METRICS_ADDR.
func (e *Env) MetricsAddr(addr string) *Env { return e.set("BSERVE_METRICS_ADDR", addr) }

// RequestTimeout overrides BSERVE_REQUEST_TIMEOUT.
func (e *Env) RequestTimeout(d string) *Env { return e.set("BSERVE_REQUEST_TIMEOUT", d) }

// SessionSecret overrides BSERVE_SESSION_SECRET.
func (e *Env) SessionSecret(secret string) *Env { return e.set("BSERVE_SESSION_SECRET", secret) }

// AWSRegion overrides AWS_REGION.
func (e *Env) AWSRegion(region string) *Env { return e.set("AWS_REGION", region) }

// SecretsRegion overrides BSERVE_SECRETS_REGION.
func (e *Env) SecretsRegion(region string) *Env { return e.set("BSERVE_SECRETS_REGION", region) }
