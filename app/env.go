package app

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap/zapcore"
)

// Environment defines the interface that all environment configurations must implement.
// Embed BaseEnvironment in your struct to satisfy this interface.
type Environment interface {
	addr() string
	serviceName() string
	healthPath() string
	logLevel() zapcore.Level
	otelExporter() string
	transport() string
	serverTimeouts() TimeoutConfig
	metricsAddr() string
	sessionConfig() SessionConfig
	awsRegion() string
	secretsRegion() string
}

// SessionConfig describes where the session cookie and its signing secret come from.
type SessionConfig struct {
	CookieName string `env:"BSERVE_SESSION_COOKIE" envDefault:"WISDOM_SESSION"`
	Secure     bool   `env:"BSERVE_SESSION_SECURE"`
	// SecretSource is one of "env", "secretsmanager" or "ssm".
	SecretSource string `env:"BSERVE_SESSION_SECRET_SOURCE" envDefault:"env"`
	// Secret is the signing key itself when SecretSource is "env". Empty disables signing.
	Secret string `env:"BSERVE_SESSION_SECRET"`
	// SecretID names the Secrets Manager secret or SSM parameter holding the key.
	SecretID string `env:"BSERVE_SESSION_SECRET_ID"`
	// SecretPath optionally selects a field of a JSON secret, in gjson syntax.
	SecretPath string `env:"BSERVE_SESSION_SECRET_PATH"`
}

// BaseEnvironment contains the variables every bserve application reads.
// Embed this in your custom environment struct.
type BaseEnvironment struct {
	Addr         string        `env:"BSERVE_ADDR" envDefault:"127.0.0.1:9000"`
	ServiceName  string        `env:"BSERVE_SERVICE_NAME,required"`
	HealthPath   string        `env:"BSERVE_HEALTH_PATH" envDefault:"/healthz"`
	LogLevel     zapcore.Level `env:"BSERVE_LOG_LEVEL" envDefault:"info"`
	OtelExporter string        `env:"BSERVE_OTEL_EXPORTER" envDefault:"stdout"`
	// Transport is "native" for the bserve connection loop or "stdlib" for net/http.
	Transport   string `env:"BSERVE_TRANSPORT" envDefault:"native"`
	MetricsAddr string `env:"BSERVE_METRICS_ADDR"`

	ReadTimeout    time.Duration `env:"BSERVE_READ_TIMEOUT" envDefault:"30s"`
	WriteTimeout   time.Duration `env:"BSERVE_WRITE_TIMEOUT" envDefault:"30s"`
	IdleTimeout    time.Duration `env:"BSERVE_IDLE_TIMEOUT" envDefault:"5m"`
	RequestTimeout time.Duration `env:"BSERVE_REQUEST_TIMEOUT"`

	Session SessionConfig

	AWSRegion     string `env:"AWS_REGION" envDefault:"us-east-1"`
	SecretsRegion string `env:"BSERVE_SECRETS_REGION"`
}

func (e BaseEnvironment) addr() string {
	return e.Addr
}

func (e BaseEnvironment) serviceName() string {
	return e.ServiceName
}

func (e BaseEnvironment) healthPath() string {
	return e.HealthPath
}

func (e BaseEnvironment) logLevel() zapcore.Level {
	return e.LogLevel
}

func (e BaseEnvironment) otelExporter() string {
	return e.OtelExporter
}

func (e BaseEnvironment) transport() string {
	return e.Transport
}

func (e BaseEnvironment) serverTimeouts() TimeoutConfig {
	return TimeoutConfig{
		ReadTimeout:    e.ReadTimeout,
		WriteTimeout:   e.WriteTimeout,
		IdleTimeout:    e.IdleTimeout,
		RequestTimeout: e.RequestTimeout,
	}
}

func (e BaseEnvironment) metricsAddr() string {
	return e.MetricsAddr
}

func (e BaseEnvironment) sessionConfig() SessionConfig {
	return e.Session
}

func (e BaseEnvironment) awsRegion() string {
	return e.AWSRegion
}

func (e BaseEnvironment) secretsRegion() string {
	return e.SecretsRegion
}

var _ Environment = BaseEnvironment{}

// ParseEnv parses environment variables into the given Environment type.
func ParseEnv[E Environment]() func() (E, error) {
	return func() (e E, err error) {
		if err := env.Parse(&e); err != nil {
			return e, errors.Wrap(err, "failed to parse environment")
		}

		switch e.transport() {
		case TransportNative, TransportStdlib:
		default:
			return e, errors.Newf("unsupported BSERVE_TRANSPORT: %q (supported: native, stdlib)", e.transport())
		}

		return e, nil
	}
}
