package app

import (
	"github.com/advdv/bserve"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger creates a zap logger configured from the environment.
// Uses JSON encoding. BSERVE_LOG_LEVEL controls the level (debug, info, warn, error).
func NewLogger(env Environment) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(env.logLevel())
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg.Build()
}

type zapLogger struct{ *zap.Logger }

func (l zapLogger) LogHandlerFailure(f *bserve.Failure) {
	fields := []zap.Field{
		zap.Stringer("kind", f.Kind),
		zap.Int("status", f.Status()),
		zap.Error(f.Err),
	}
	if f.Request != nil {
		fields = append(fields,
			zap.String("method", f.Request.Method),
			zap.String("path", f.Request.URL.Path))
		fields = append(fields, traceFields(f.Request.Context())...)
	}

	l.Logger.Error("request failed", fields...)
}

func (l zapLogger) LogErrorHandlerPanic(v any) {
	l.Logger.Error("error handler panicked", zap.Any("value", v))
}

func (l zapLogger) LogWriteError(err error) {
	l.Logger.Warn("error while writing response", zap.Error(err))
}

func (l zapLogger) LogConnError(err error) {
	l.Logger.Warn("connection error", zap.Error(err))
}

func newZapBServeLogger(l *zap.Logger) bserve.Logger {
	return zapLogger{l.Named("bserve")}
}
