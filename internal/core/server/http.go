// Package server provides HTTP server lifecycle management.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bkarjoo/fastgtd-sub000/internal/core/api"
	"github.com/bkarjoo/fastgtd-sub000/internal/core/config"
)

// HTTPServer manages HTTP server lifecycle.
type HTTPServer struct {
	server *http.Server
	config *config.ServerConfig
}

// NewHTTPServer builds the router, attaches middleware and routes, and
// prepares a server bound to the configured address.
func NewHTTPServer(cfg *config.ServerConfig, handlers *api.Handlers, log *slog.Logger) (*HTTPServer, error) {
	if cfg == nil {
		return nil, fmt.Errorf("cfg cannot be nil")
	}
	if handlers == nil {
		return nil, fmt.Errorf("handlers cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(api.RequestLogger(log))
	handlers.Register(router)

	return &HTTPServer{
		server: &http.Server{
			Addr:              cfg.Addr(),
			Handler:           router,
			ReadHeaderTimeout: cfg.RequestTimeout,
		},
		config: cfg,
	}, nil
}

// Start serves HTTP requests. Blocks until Shutdown is called; a clean
// shutdown returns nil.
func (s *HTTPServer) Start() error {
	err := s.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests, forcing close when the context or
// the configured shutdown timeout expires first.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		s.server.Close()
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}
