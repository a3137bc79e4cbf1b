package bserve

import (
	"bufio"
	"context"
	"io"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	"golang.org/x/net/http/httpguts"
)

// maxDrainBytes is how much of an unread request body is discarded to keep the connection usable.
const maxDrainBytes = 256 << 10

// conn is one client connection. It serves requests one after the other until the client or the
// protocol asks to close, or the server stops.
type conn struct {
	netConn net.Conn
	br      *bufio.Reader
	bw      *bufio.Writer

	idle   atomic.Bool
	closed atomic.Bool
}

func newConn(c net.Conn) *conn {
	return &conn{
		netConn: c,
		br:      bufio.NewReader(c),
		bw:      bufio.NewWriter(c),
	}
}

func (c *conn) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}

	return c.netConn.Close()
}

func (s *Server) serveConn(ctx context.Context, c *conn) {
	defer s.untrack(c)
	defer c.Close()

	for {
		// idle is stored before running is checked, Stop does the reverse.
		c.idle.Store(true)
		if !s.running.Load() {
			return
		}

		// First byte: allow idle timeout (connection can stay idle between requests).
		if err := c.netConn.SetReadDeadline(time.Now().Add(s.cfg.IdleTimeout)); err != nil {
			return
		}

		if _, err := c.br.Peek(1); err != nil {
			s.logReadError(err)
			return
		}

		// A Stop landing between Peek and this store may still close the connection as idle and
		// drop the request unanswered, as net/http does.
		c.idle.Store(false)

		// After first byte: tighten to the per-request read timeout.
		if err := c.netConn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout)); err != nil {
			return
		}

		req, err := http.ReadRequest(c.br)
		if err != nil {
			if !errors.Is(err, io.EOF) && !isTimeout(err) {
				s.writeBadRequest(c)
			}

			s.logReadError(err)
			return
		}

		closing := s.serveRequest(ctx, c, req)
		if closing {
			return
		}
	}
}

// serveRequest dispatches one request and writes the response. It reports whether the connection
// must be closed afterwards.
func (s *Server) serveRequest(ctx context.Context, c *conn, req *http.Request) bool {
	req.RemoteAddr = c.netConn.RemoteAddr().String()
	req = req.WithContext(ctx)
	closing := shouldClose(req)

	if req.ProtoAtLeast(1, 1) && httpguts.HeaderValuesContainsToken(req.Header["Expect"], "100-continue") {
		if err := s.writeRaw(c, "HTTP/1.1 100 Continue\r\n\r\n"); err != nil {
			s.logs.LogWriteError(err)
			return true
		}
	}

	resp := s.dispatcher.Dispatch(req)

	if !drainBody(req.Body) {
		closing = true
	}

	if err := c.netConn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout)); err != nil {
		return true
	}

	if err := resp.wire(req, closing).Write(c.bw); err != nil {
		s.logs.LogWriteError(errors.Wrap(err, "write response"))
		return true
	}

	if err := c.bw.Flush(); err != nil {
		s.logs.LogWriteError(errors.Wrap(err, "flush response"))
		return true
	}

	return closing
}

func (s *Server) writeRaw(c *conn, raw string) error {
	if err := c.netConn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout)); err != nil {
		return err
	}

	if _, err := c.bw.WriteString(raw); err != nil {
		return err
	}

	return c.bw.Flush()
}

func (s *Server) writeBadRequest(c *conn) {
	res := NewResult(http.StatusBadRequest).Text().Render(Text(http.StatusText(http.StatusBadRequest)))
	body, _ := TextSerializer{}.Serialize(res.Renderable())

	resp, err := materialize(res, Negotiated{ContentType: MimeText + "; charset=" + DefaultCharset, Body: body})
	if err != nil {
		return
	}

	if err := c.netConn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout)); err != nil {
		return
	}

	if err := resp.wire(nil, true).Write(c.bw); err != nil {
		s.logs.LogWriteError(err)
		return
	}

	if err := c.bw.Flush(); err != nil {
		s.logs.LogWriteError(err)
	}
}

func (s *Server) logReadError(err error) {
	switch {
	case errors.Is(err, io.EOF), errors.Is(err, net.ErrClosed), isTimeout(err):
	default:
		s.logs.LogConnError(err)
	}
}

// shouldClose reports whether the connection ends after this request: HTTP/1.1 keeps it open
// unless the client sent "Connection: close", HTTP/1.0 only keeps it open with
// "Connection: keep-alive".
func shouldClose(r *http.Request) bool {
	tokens := r.Header["Connection"]
	if httpguts.HeaderValuesContainsToken(tokens, "close") {
		return true
	}

	if r.ProtoAtLeast(1, 1) {
		return false
	}

	return !httpguts.HeaderValuesContainsToken(tokens, "keep-alive")
}

// drainBody discards what the handler left unread. It reports false when the body was too large
// or broken, in which case the connection cannot be reused.
func drainBody(body io.ReadCloser) bool {
	if body == nil || body == http.NoBody {
		return true
	}

	n, err := io.Copy(io.Discard, io.LimitReader(body, maxDrainBytes+1))
	switch {
	case errors.Is(err, http.ErrBodyReadAfterClose):
		return true // closing the body already consumed it
	case err != nil, n > maxDrainBytes:
		return false
	}

	return body.Close() == nil
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
