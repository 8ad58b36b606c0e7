// Package httpd is a static file server speaking HTTP/1.0: one request per
// connection, a fixed cross-origin isolation and no-cache header set on every
// response, and an optional dual-stack listener.
package httpd

import (
	"context"
	"errors"
	"io"
	"log"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-git/go-billy/v5"
	"golang.org/x/net/netutil"

	"coi-devserver/rootfs"
	"coi-devserver/utils"
)

type Server struct {
	cfg           ServerConfig
	fs            billy.Filesystem
	logger        *log.Logger
	connStateHook func(net.Conn, ConnState)

	ln      net.Listener
	wg      sync.WaitGroup
	closing atomic.Bool
	done    chan struct{}
}

type Option func(*Server)

// WithConnStateHook registers fn to observe every connection state change.
// fn runs on the connection's goroutine and must not block.
func WithConnStateHook(fn func(net.Conn, ConnState)) Option {
	return func(s *Server) {
		s.connStateHook = fn
	}
}

// Start binds the listener described by cfg and serves fsys on it in the
// background. A nil fsys serves cfg.ServedRoot. Bind failures come back as
// *utils.BindError.
func Start(cfg ServerConfig, fsys billy.Filesystem, logger *log.Logger, opts ...Option) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if fsys == nil {
		var err error
		if fsys, err = rootfs.New(cfg.ServedRoot); err != nil {
			return nil, err
		}
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	ln, err := utils.ListenTCP(context.Background(), cfg.BindAddress, cfg.Port, cfg.DualStack)
	if err != nil {
		return nil, err
	}
	if cfg.MaxConns > 0 {
		ln = netutil.LimitListener(ln, cfg.MaxConns)
	}

	s := &Server{
		cfg:    cfg,
		fs:     fsys,
		logger: logger,
		ln:     ln,
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	go func() {
		defer close(s.done)
		logger.Printf("http server listening on %s serving %q", ln.Addr(), cfg.ServedRoot)
		if err := s.acceptLoop(); err != nil {
			logger.Printf("http serve error: %v", err)
		}
	}()
	return s, nil
}

// Addr is the bound address, useful when cfg.Port was 0.
func (s *Server) Addr() net.Addr {
	return s.ln.Addr()
}

func (s *Server) Config() ServerConfig {
	return s.cfg
}

// acceptLoop hands every accepted connection to its own goroutine and never
// waits on them.
func (s *Server) acceptLoop() error {
	var backoff time.Duration
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if s.closing.Load() || errors.Is(err, net.ErrClosed) {
				return nil
			}
			if backoff == 0 {
				backoff = 5 * time.Millisecond
			} else {
				backoff *= 2
			}
			if backoff > time.Second {
				backoff = time.Second
			}
			s.logger.Printf("accept error: %v; retrying in %v", err, backoff)
			time.Sleep(backoff)
			continue
		}
		backoff = 0

		s.wg.Add(1)
		go s.handleConnection(conn)
	}
}

// Shutdown stops accepting and waits for in-flight connections to finish or
// for ctx to end, whichever comes first.
func (s *Server) Shutdown(ctx context.Context) error {
	if !s.closing.CompareAndSwap(false, true) {
		return nil
	}
	err := s.ln.Close()
	<-s.done

	drained := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(drained)
	}()
	select {
	case <-drained:
	case <-ctx.Done():
		return ctx.Err()
	}
	if errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}
