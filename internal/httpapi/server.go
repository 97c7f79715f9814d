// Package httpapi exposes the completion engine over HTTP: one completion
// endpoint, a health probe, and the middleware chain around them.
package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/lorebind/lorebind/internal/config"
	"github.com/lorebind/lorebind/internal/httpapi/middleware"
	"github.com/lorebind/lorebind/internal/observability"
)

// Server owns the net/http lifecycle around the handler.
type Server struct {
	config      config.ServerConfig
	handler     *Handler
	middlewares middleware.Middleware
	srv         *http.Server
}

// NewServer wires the handler and middleware chain into a server bound to
// the configured port (DI constructor).
func NewServer(
	cfg *config.Config,
	handler *Handler,
	middlewares middleware.Middleware,
) *Server {
	return &Server{
		config:      cfg.Server,
		handler:     handler,
		middlewares: middlewares,
	}
}

// Start registers the routes and serves until the listener fails or
// Shutdown is called.
func (s *Server) Start() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/completions", s.handler.HandleCompletion)
	mux.HandleFunc("/health", s.handler.HandleHealth)

	s.srv = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.config.Port),
		Handler: s.middlewares(mux),
		// The write timeout has to outlast a whole completion chain,
		// rate-window waits and backoff sleeps included.
		ReadTimeout:  time.Duration(s.config.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.config.WriteTimeout) * time.Second,
	}

	observability.FromContext(context.Background()).Info("listening",
		observability.Int("port", s.config.Port))

	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}

	observability.FromContext(ctx).Info("shutting down HTTP server")

	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	return nil
}
