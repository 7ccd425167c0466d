package gateway

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/muurk/wifiprov/internal/logging"
	"github.com/muurk/wifiprov/internal/metrics"
)

// DefaultAddr is the portal listen address.
const DefaultAddr = ":80"

// MaxConfigureBody is the largest accepted /configure body in bytes.
const MaxConfigureBody = 200

// Config holds the HTTP server configuration
type Config struct {
	Addr     string
	PagePath string // served at / when set, else the embedded page

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.Addr == "" {
		c.Addr = DefaultAddr
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 10 * time.Second
	}
	if c.WriteTimeout == 0 {
		// scans block for several seconds
		c.WriteTimeout = 30 * time.Second
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = 5 * time.Second
	}
	return c
}

// Server is the provisioning portal's HTTP server.
type Server struct {
	config   Config
	gateway  *Gateway
	metrics  *metrics.Metrics
	handler  http.Handler
	upgrader websocket.Upgrader

	mu          sync.Mutex
	httpServer  *http.Server
	listener    net.Listener
	activeConns map[*websocket.Conn]struct{}
	wg          sync.WaitGroup
	done        chan struct{}
}

// NewServer creates a portal server for g. m may be nil.
func NewServer(g *Gateway, config Config, m *metrics.Metrics) *Server {
	s := &Server{
		config:      config.withDefaults(),
		gateway:     g,
		metrics:     m,
		activeConns: make(map[*websocket.Conn]struct{}),
		done:        make(chan struct{}),
	}
	s.handler = s.routes()
	return s
}

// Handler returns the portal's routes wrapped in request logging.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Addr returns the bound address once listening.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return s.config.Addr
	}
	return s.listener.Addr().String()
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Addr, err)
	}
	return s.Serve(ctx, listener)
}

// Serve serves on listener until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	srv := &http.Server{
		Handler:      s.handler,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.mu.Lock()
	s.httpServer = srv
	s.listener = listener
	s.mu.Unlock()

	logging.Info("Provisioning portal listening",
		zap.String("addr", listener.Addr().String()),
		zap.String("page", s.pageSource()),
	)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Serve(listener)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	case err := <-errChan:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// Shutdown stops accepting requests, closes event streams and waits for
// in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down provisioning portal...")

	s.mu.Lock()
	srv := s.httpServer
	select {
	case <-s.done:
	default:
		close(s.done)
	}
	for conn := range s.activeConns {
		_ = conn.Close()
	}
	s.mu.Unlock()

	var err error
	if srv != nil {
		err = srv.Shutdown(ctx)
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logging.Info("All connections closed gracefully")
	case <-ctx.Done():
		logging.Warn("Shutdown timeout, forcing close")
	}
	return err
}

// ActiveStreams returns the number of open /events connections.
func (s *Server) ActiveStreams() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.activeConns)
}

func (s *Server) pageSource() string {
	if s.config.PagePath != "" {
		return s.config.PagePath
	}
	return "embedded"
}
