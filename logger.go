package bserve

import (
	"log"
	"sync/atomic"
	"testing"
)

// Logger can be implemented to get informed about important states.
type Logger interface {
	LogHandlerFailure(f *Failure)
	LogErrorHandlerPanic(v any)
	LogWriteError(err error)
	LogConnError(err error)
}

type stdLogger struct{ *log.Logger }

func (l stdLogger) LogHandlerFailure(f *Failure) {
	l.Logger.Printf("bserve: %s on %s: %s", f.Kind, requestLine(f), f.Err)
}

func (l stdLogger) LogErrorHandlerPanic(v any) {
	l.Logger.Printf("bserve: error handler panicked: %v", v)
}

func (l stdLogger) LogWriteError(err error) {
	l.Logger.Printf("bserve: error while writing response: %s", err)
}

func (l stdLogger) LogConnError(err error) {
	l.Logger.Printf("bserve: connection error: %s", err)
}

// NewStdLogger returns a [Logger] that prints to l.
func NewStdLogger(l *log.Logger) Logger {
	return stdLogger{l}
}

// TestLogger counts every hook call and forwards the message to the test log.
type TestLogger struct {
	tb testing.TB

	NumLogHandlerFailure    int64
	NumLogErrorHandlerPanic int64
	NumLogWriteError        int64
	NumLogConnError         int64
}

func NewTestLogger(tb testing.TB) *TestLogger {
	return &TestLogger{tb: tb}
}

func (l *TestLogger) LogHandlerFailure(f *Failure) {
	atomic.AddInt64(&l.NumLogHandlerFailure, 1)
	l.tb.Logf("bserve: %s on %s: %s", f.Kind, requestLine(f), f.Err)
}

func (l *TestLogger) LogErrorHandlerPanic(v any) {
	atomic.AddInt64(&l.NumLogErrorHandlerPanic, 1)
	l.tb.Logf("bserve: error handler panicked: %v", v)
}

func (l *TestLogger) LogWriteError(err error) {
	atomic.AddInt64(&l.NumLogWriteError, 1)
	l.tb.Logf("bserve: error while writing response: %s", err)
}

func (l *TestLogger) LogConnError(err error) {
	atomic.AddInt64(&l.NumLogConnError, 1)
	l.tb.Logf("bserve: connection error: %s", err)
}

var _ Logger = &TestLogger{}

func requestLine(f *Failure) string {
	if f.Request == nil || f.Request.URL == nil {
		return "<no request>"
	}

	return f.Request.Method + " " + f.Request.URL.Path
}
