// Package api serves the integration catalog over HTTP for the marketing
// site's integrations page.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gnana997/intcat/pkg/catalog"
	"github.com/gnana997/intcat/pkg/searchlog"
)

const shutdownTimeout = 5 * time.Second

// Server holds the HTTP handlers and their dependencies.
type Server struct {
	store    *catalog.Store
	searches *searchlog.Store // nil when search logging is off
	logger   *slog.Logger
	router   *gin.Engine
}

// Option configures a Server.
type Option func(*Server)

// WithSearchLog records searches and enables /api/v1/searches/missed.
func WithSearchLog(s *searchlog.Store) Option {
	return func(srv *Server) { srv.searches = s }
}

func WithLogger(logger *slog.Logger) Option {
	return func(srv *Server) {
		if logger != nil {
			srv.logger = logger
		}
	}
}

// NewServer builds the router over store.
func NewServer(store *catalog.Store, opts ...Option) *Server {
	s := &Server{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestID(), accessLog(s.logger))

	router.GET("/health", s.health)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/categories", s.listCategories)

		integrations := v1.Group("/integrations")
		{
			integrations.GET("", s.filterIntegrations)
			integrations.GET("/popular", s.listPopular)
			integrations.GET("/:id", s.getIntegration)
		}

		v1.GET("/searches/missed", s.topMissed)
	}

	s.router = router
	return s
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.logger.Info("http server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	<-errCh
	return nil
}
