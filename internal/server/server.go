package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/ternarybob/serendib/internal/app"
)

// Server owns the http.Server for the site and its routes
type Server struct {
	app    *app.App
	server *http.Server
}

// New builds the routed server. Nothing listens until Start or Serve.
func New(application *app.App) *Server {
	s := &Server{app: application}

	cfg := application.Config
	s.server = &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:           s.withMiddleware(s.setupRoutes()),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		// a planner submission holds its request open for the whole dispatch
		WriteTimeout: cfg.Planner.DispatchTimeoutDuration() + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}
	if application.WSHandler != nil {
		// Shutdown does not track hijacked connections
		s.server.RegisterOnShutdown(application.WSHandler.CloseAll)
	}
	return s
}

// Handler returns the routed handler with middleware applied
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start listens on the configured address and serves until Shutdown
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.server.Addr, err)
	}
	return s.Serve(ln)
}

// Serve serves on ln. It returns nil after a graceful Shutdown.
func (s *Server) Serve(ln net.Listener) error {
	s.app.Logger.Info().
		Str("address", ln.Addr().String()).
		Str("url", s.app.Config.Site.BaseURL).
		Msg("HTTP server listening")

	if err := s.server.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.app.Logger.Info().Msg("HTTP server stopped")
	return nil
}
