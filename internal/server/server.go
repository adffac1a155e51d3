// Package server accepts TCP connections and answers one static file request
// per connection.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"path/filepath"
	"sync"

	"github.com/LulzSec6824/StaticServer/internal/config"
	"github.com/LulzSec6824/StaticServer/internal/mime"
)

// StartupError is returned by New when the listening socket cannot be set up.
// It is fatal: the process cannot serve anything.
type StartupError struct {
	Addr string
	Err  error
}

func (e *StartupError) Error() string {
	return fmt.Sprintf("failed to listen on %s: %v", e.Addr, e.Err)
}

func (e *StartupError) Unwrap() error { return e.Err }

// Option customizes a Server.
type Option func(*Server)

// WithLogger sends the server's log lines to l instead of the standard logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// Server owns the listening socket and a fixed pool of workers. Every
// accepted connection goes to exactly one worker and is closed when its
// single request is answered.
type Server struct {
	cfg      config.Config
	root     string
	mime     *mime.Table
	logger   *log.Logger
	listener net.Listener

	connection chan net.Conn
	active     sync.Map // connection id -> net.Conn
	workers    sync.WaitGroup
	quit       chan struct{}

	startOnce sync.Once
	stopOnce  sync.Once
}

// New binds 0.0.0.0:cfg.Port. The root directory is made absolute but not
// checked for existence.
func New(cfg config.Config, opts ...Option) (*Server, error) {
	cfg.Normalize()

	root, err := filepath.Abs(cfg.RootDirectory)
	if err != nil {
		return nil, &StartupError{Addr: cfg.Address(), Err: err}
	}

	lc := net.ListenConfig{Control: reuseAddr}
	listener, err := lc.Listen(context.Background(), "tcp", cfg.Address())
	if err != nil {
		return nil, &StartupError{Addr: cfg.Address(), Err: err}
	}

	s := &Server{
		cfg:        cfg,
		root:       root,
		mime:       mime.New(),
		logger:     log.Default(),
		listener:   listener,
		connection: make(chan net.Conn),
		quit:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Addr is the address the listener is bound to.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Start launches the workers and the accept loop, then returns.
func (s *Server) Start() {
	s.startOnce.Do(func() {
		s.logger.Printf("Server listening on %s, serving %s with %d workers",
			s.listener.Addr(), s.root, s.cfg.MaxClients)

		s.workers.Add(s.cfg.MaxClients)
		for i := 0; i < s.cfg.MaxClients; i++ {
			go s.worker()
		}
		go s.acceptLoop()
	})
}

// Serve starts the server and blocks until ctx is done, then stops it.
func (s *Server) Serve(ctx context.Context) error {
	s.Start()
	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownGrace)
	defer cancel()
	return s.Stop(stopCtx)
}

// Stop closes the listener and waits for in-flight connections. When ctx or
// the shutdown grace period expires first, the remaining connections are
// closed and the context error is returned.
func (s *Server) Stop(ctx context.Context) error {
	s.stopOnce.Do(func() {
		close(s.quit)
		if err := s.listener.Close(); err != nil {
			s.logger.Printf("Error closing listener: %v", err)
		}
	})

	ctx, cancel := context.WithTimeout(ctx, s.cfg.ShutdownGrace)
	defer cancel()

	done := make(chan struct{})
	go func() {
		s.workers.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Printf("Server stopped")
		return nil
	case <-ctx.Done():
		s.logger.Printf("Grace period exceeded, closing remaining connections")
		s.active.Range(func(key, value any) bool {
			if conn, ok := value.(net.Conn); ok {
				conn.Close()
			}
			return true
		})
		<-done
		return ctx.Err()
	}
}

// --- Accept loop ---

func (s *Server) acceptLoop() {
	// Workers exit once the channel is drained and closed.
	defer close(s.connection)

	for {
		// Wait for and accept a new client connection
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.quit:
				return
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			s.logger.Printf("Error accepting connection: %v", err)
			continue // Don't crash the server
		}

		// Blocks while every worker is busy; the OS backlog queues the rest.
		select {
		case s.connection <- conn:
		case <-s.quit:
			conn.Close()
			return
		}
	}
}

func (s *Server) worker() {
	defer s.workers.Done()
	for conn := range s.connection {
		s.handleConnection(conn)
	}
}
