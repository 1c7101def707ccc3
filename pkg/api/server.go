package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/marmos91/lotpurge/internal/logger"
)

// stopTimeout bounds the graceful shutdown Start performs on cancellation.
// It is shorter than the default write timeout: an in-flight triggered cycle
// is abandoned rather than holding up the process.
const stopTimeout = 5 * time.Second

// Server serves the routes of NewRouter until its context is cancelled.
type Server struct {
	http *http.Server
	port int

	stopOnce sync.Once
	stopErr  error
}

// NewServer returns a stopped server. cfg defaults are applied here as well
// as at config load, so a zero APIConfig is usable.
func NewServer(cfg APIConfig, deps Deps) *Server {
	cfg.ApplyDefaults()

	return &Server{
		http: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      NewRouter(deps),
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
		},
		port: cfg.Port,
	}
}

// Start binds the port and serves until ctx is cancelled or Stop is called.
// A bind failure is returned before anything is served.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return fmt.Errorf("API server failed to listen on %s: %w", s.http.Addr, err)
	}
	logger.Info("API server listening", "addr", ln.Addr().String())

	served := make(chan error, 1)
	go func() { served <- s.http.Serve(ln) }()

	select {
	case <-ctx.Done():
		stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
		defer cancel()
		return s.Stop(stopCtx)
	case err := <-served:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("API server failed: %w", err)
	}
}

// Stop shuts the server down gracefully. Later calls return the first
// call's result.
func (s *Server) Stop(ctx context.Context) error {
	s.stopOnce.Do(func() {
		if err := s.http.Shutdown(ctx); err != nil {
			s.stopErr = fmt.Errorf("API server shutdown: %w", err)
			return
		}
		logger.Info("API server stopped")
	})
	return s.stopErr
}

// Port returns the configured port.
func (s *Server) Port() int {
	return s.port
}
