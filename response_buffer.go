package bserve

import (
	"bytes"
	"mime"
	"net/http"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
)

// ErrBufferFull is returned when the write limit of a [ResponseBuffer] would be exceeded.
var ErrBufferFull = errors.New("buffer is full")

var bufPool = sync.Pool{New: func() any { return new(bytes.Buffer) }}

// ResponseBuffer is an http.ResponseWriter that keeps the whole response in memory so that a
// standard library handler can run inside the dispatcher. What it captured is turned into a
// [Result] with [ResponseBuffer.Result].
type ResponseBuffer struct {
	header   http.Header
	snapshot http.Header
	status   int
	buf      *bytes.Buffer
	limit    int
}

// NewResponseBuffer inits a buffer. A limit of zero or less means writes are never limited.
func NewResponseBuffer(limit int) *ResponseBuffer {
	buf, _ := bufPool.Get().(*bytes.Buffer)
	buf.Reset()

	return &ResponseBuffer{header: http.Header{}, buf: buf, limit: limit}
}

// Header implements http.ResponseWriter.
func (w *ResponseBuffer) Header() http.Header { return w.header }

// WriteHeader implements http.ResponseWriter. Only the first call has effect, like with net/http.
func (w *ResponseBuffer) WriteHeader(statusCode int) {
	if w.status != 0 {
		return
	}

	w.status = statusCode
	w.snapshot = w.header.Clone()
}

// Write implements http.ResponseWriter.
func (w *ResponseBuffer) Write(p []byte) (int, error) {
	w.WriteHeader(http.StatusOK)

	if w.limit > 0 && w.buf.Len()+len(p) > w.limit {
		return 0, ErrBufferFull
	}

	return w.buf.Write(p)
}

// Flush is a no-op: the response is only written once the handler returns.
func (w *ResponseBuffer) Flush() {}

// Reset discards everything written so far, including headers and status.
func (w *ResponseBuffer) Reset() {
	w.header = http.Header{}
	w.snapshot = nil
	w.status = 0
	w.buf.Reset()
}

// Free returns the underlying buffer to the pool. The ResponseBuffer must not be used afterwards.
func (w *ResponseBuffer) Free() {
	if w.buf == nil {
		return
	}

	bufPool.Put(w.buf)
	w.buf = nil
}

// Result converts the captured response. Headers set after the status was written are ignored,
// Set-Cookie headers become result cookies, and a missing Content-Type is sniffed from the body
// the way net/http does.
func (w *ResponseBuffer) Result() *Result {
	status, header := w.status, w.snapshot
	if status == 0 {
		status, header = http.StatusOK, w.header
	}

	res := NewResult(status)
	if w.buf.Len() > 0 {
		res.Render(Bytes(bytes.Clone(w.buf.Bytes())))
	}

	for _, c := range (&http.Response{Header: header}).Cookies() {
		res.WithCookie(cookieFromStd(c))
	}

	for name, vals := range header {
		switch name {
		case "Set-Cookie", "Content-Type", "Content-Length":
		default:
			res.With(name, strings.Join(vals, ", "))
		}
	}

	ct := header.Get("Content-Type")
	if ct == "" && w.buf.Len() > 0 {
		ct = http.DetectContentType(w.buf.Bytes())
	}

	if mt, params, err := mime.ParseMediaType(ct); err == nil {
		res.As(mt).WithCharset(params["charset"])
	}

	return res
}

// StdHandler runs a standard library handler as a [Handler]. The handler owns its response,
// including error responses, and writes into a [ResponseBuffer] of unlimited size.
func StdHandler(h http.Handler) Handler {
	return HandlerFunc(func(_ *Context, r *http.Request) (*Result, error) {
		buf := NewResponseBuffer(-1)
		defer buf.Free()

		h.ServeHTTP(buf, r)

		return buf.Result(), nil
	})
}
