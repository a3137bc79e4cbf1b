package bserve

import (
	"context"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
)

// ServerConfig holds the connection loop configuration.
type ServerConfig struct {
	// Addr is the TCP address to listen on, port 0 picks a free port.
	Addr string
	// ReadTimeout bounds reading one request once its first byte arrived.
	ReadTimeout time.Duration
	// WriteTimeout bounds writing one response.
	WriteTimeout time.Duration
	// IdleTimeout bounds how long a keep-alive connection may wait for its next request.
	IdleTimeout time.Duration
}

// DefaultServerConfig returns the default configuration.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:         "127.0.0.1:9000",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  5 * time.Minute,
	}
}

const (
	minAcceptDelay = 5 * time.Millisecond
	maxAcceptDelay = time.Second
)

// Server accepts connections and runs every request through a [Dispatcher]. Each connection is
// served by its own goroutine; requests on one connection are served one after the other.
type Server struct {
	cfg        ServerConfig
	dispatcher *Dispatcher
	logs       Logger
	metrics    *Metrics

	ln      net.Listener
	quit    chan struct{}
	running atomic.Bool
	wg      sync.WaitGroup

	mu    sync.Mutex
	conns map[*conn]struct{}
}

// NewServer inits a server. Zero timeouts in cfg are replaced by the defaults.
func NewServer(d *Dispatcher, cfg ServerConfig) *Server {
	def := DefaultServerConfig()
	if cfg.Addr == "" {
		cfg.Addr = def.Addr
	}

	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = def.ReadTimeout
	}

	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = def.WriteTimeout
	}

	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = def.IdleTimeout
	}

	return &Server{
		cfg:        cfg,
		dispatcher: d,
		logs:       d.logs,
		metrics:    d.metrics,
		conns:      make(map[*conn]struct{}),
	}
}

// Start binds the listening socket and starts accepting in the background. Requests are served
// with a context derived from ctx that is not canceled when ctx is.
func (s *Server) Start(ctx context.Context) error {
	if s.ln != nil {
		return errors.New("server already started")
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.cfg.Addr)
	if err != nil {
		return errors.Wrapf(err, "listen on %s", s.cfg.Addr)
	}

	return s.Serve(ctx, ln)
}

// Serve starts accepting on ln in the background, like [Server.Start] does for the socket it
// binds. The server owns ln from then on and closes it on [Server.Stop].
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	if s.ln != nil {
		return errors.New("server already started")
	}

	s.ln = ln
	s.quit = make(chan struct{})
	s.running.Store(true)

	base := context.WithoutCancel(ctx)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.acceptLoop(base)
	}()

	return nil
}

// Addr returns the address the server listens on, nil before Start.
func (s *Server) Addr() net.Addr {
	if s.ln == nil {
		return nil
	}

	return s.ln.Addr()
}

// Host returns the host part of the listen address.
func (s *Server) Host() string {
	if tcp, ok := s.Addr().(*net.TCPAddr); ok {
		return tcp.IP.String()
	}

	return ""
}

// Port returns the port the server listens on, 0 before Start.
func (s *Server) Port() int {
	if tcp, ok := s.Addr().(*net.TCPAddr); ok {
		return tcp.Port
	}

	return 0
}

// Stop stops accepting, closes idle connections and waits for in-flight requests to be written.
// When ctx expires first the remaining connections are closed abruptly and ctx's error returned.
func (s *Server) Stop(ctx context.Context) error {
	if s.ln == nil {
		return nil
	}

	if s.running.CompareAndSwap(true, false) {
		close(s.quit)
	}

	var firstErr error
	if err := s.ln.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		firstErr = err
	}

	s.closeConns(true)

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		s.closeConns(false)

		return ctx.Err()
	}

	return firstErr
}

// acceptLoop accepts until the server stops. Accept errors, such as running out of file
// descriptors, are logged and retried with a backoff of 5ms doubling up to 1s.
func (s *Server) acceptLoop(ctx context.Context) {
	var delay time.Duration

	for {
		nc, err := s.ln.Accept()
		if err != nil {
			if !s.running.Load() || errors.Is(err, net.ErrClosed) {
				return
			}

			delay = min(max(2*delay, minAcceptDelay), maxAcceptDelay)
			s.logs.LogConnError(errors.Wrapf(err, "accept (retrying in %v)", delay))

			select {
			case <-time.After(delay):
				continue
			case <-s.quit:
				return
			}
		}

		delay = 0

		c := newConn(nc)
		if !s.track(c) {
			_ = c.Close()
			return
		}

		s.metrics.connOpened()

		go func() {
			defer s.wg.Done()
			s.serveConn(ctx, c)
		}()
	}
}

// track registers the connection unless the server is stopping.
func (s *Server) track(c *conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running.Load() {
		return false
	}

	s.conns[c] = struct{}{}
	s.wg.Add(1)

	return true
}

func (s *Server) untrack(c *conn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.conns[c]; ok {
		delete(s.conns, c)
		s.metrics.connClosed()
	}
}

// closeConns closes the idle connections, or all of them when idleOnly is false.
func (s *Server) closeConns(idleOnly bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for c := range s.conns {
		if idleOnly && !c.idle.Load() {
			continue
		}

		_ = c.Close()
	}
}
