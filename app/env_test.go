package app_test

import (
	"testing"
	"time"

	"github.com/advdv/bserve/app"
	"github.com/advdv/bserve/app/apptest"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

type envWithExtra struct {
	app.BaseEnvironment

	Upstream string `env:"UPSTREAM_URL,required"`
}

func TestParseEnvDefaults(t *testing.T) {
	t.Setenv("BSERVE_SERVICE_NAME", "svc")

	env, err := app.ParseEnv[app.BaseEnvironment]()()
	require.NoError(t, err)

	require.Equal(t, "svc", env.ServiceName)
	require.Equal(t, "127.0.0.1:9000", env.Addr)
	require.Equal(t, "/healthz", env.HealthPath)
	require.Equal(t, zapcore.InfoLevel, env.LogLevel)
	require.Equal(t, app.ExporterStdout, env.OtelExporter)
	require.Equal(t, app.TransportNative, env.Transport)
	require.Empty(t, env.MetricsAddr)
	require.Equal(t, 30*time.Second, env.ReadTimeout)
	require.Equal(t, 30*time.Second, env.WriteTimeout)
	require.Equal(t, 5*time.Minute, env.IdleTimeout)
	require.Zero(t, env.RequestTimeout)
	require.Equal(t, "WISDOM_SESSION", env.Session.CookieName)
	require.Equal(t, app.SecretSourceEnv, env.Session.SecretSource)
	require.False(t, env.Session.Secure)
}

func TestParseEnvOverrides(t *testing.T) {
	apptest.SetBaseEnv(t).
		Transport("stdlib").
		MetricsAddr("127.0.0.1:9100").
		RequestTimeout("2s").
		SecretsRegion("eu-west-1")
	t.Setenv("BSERVE_LOG_LEVEL", "debug")
	t.Setenv("BSERVE_SESSION_SECURE", "true")
	t.Setenv("BSERVE_SESSION_COOKIE", "sid")
	t.Setenv("UPSTREAM_URL", "http://upstream")

	env, err := app.ParseEnv[envWithExtra]()()
	require.NoError(t, err)

	require.Equal(t, "http://upstream", env.Upstream)
	require.Equal(t, app.TransportStdlib, env.Transport)
	require.Equal(t, "127.0.0.1:9100", env.MetricsAddr)
	require.Equal(t, 2*time.Second, env.RequestTimeout)
	require.Equal(t, "eu-west-1", env.SecretsRegion)
	require.Equal(t, zapcore.DebugLevel, env.LogLevel)
	require.True(t, env.Session.Secure)
	require.Equal(t, "sid", env.Session.CookieName)
	require.Equal(t, "test-secret", env.Session.Secret)
}

func TestParseEnvErrors(t *testing.T) {
	t.Run("missing required", func(t *testing.T) {
		apptest.SetBaseEnv(t)

		_, err := app.ParseEnv[envWithExtra]()()
		require.ErrorContains(t, err, "UPSTREAM_URL")
	})

	t.Run("bad transport", func(t *testing.T) {
		apptest.SetBaseEnv(t).Transport("carrier-pigeon")

		_, err := app.ParseEnv[app.BaseEnvironment]()()
		require.EqualError(t, err, `unsupported BSERVE_TRANSPORT: "carrier-pigeon" (supported: native, stdlib)`)
	})

	t.Run("bad log level", func(t *testing.T) {
		apptest.SetBaseEnv(t)
		t.Setenv("BSERVE_LOG_LEVEL", "loud")

		_, err := app.ParseEnv[app.BaseEnvironment]()()
		require.ErrorContains(t, err, "failed to parse environment")
	})
}
