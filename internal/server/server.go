// Package server provides the HTTP server implementation.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/vyrodovalexey/product-api/internal/apperr"
	"github.com/vyrodovalexey/product-api/internal/auth"
	"github.com/vyrodovalexey/product-api/internal/config"
	"github.com/vyrodovalexey/product-api/internal/handler"
	"github.com/vyrodovalexey/product-api/internal/middleware"
	"github.com/vyrodovalexey/product-api/internal/store"
)

// Server represents the HTTP server.
type Server struct {
	httpServer *http.Server
	router     *mux.Router
	config     *config.Config
	logger     *zap.Logger
	translator *apperr.Translator
}

// New creates a new Server instance. Error details are exposed in responses
// unless the configured environment is production.
func New(
	cfg *config.Config,
	logger *zap.Logger,
	productStore store.Store,
	authenticator auth.Authenticator,
) *Server {
	router := mux.NewRouter()

	s := &Server{
		router:     router,
		config:     cfg,
		logger:     logger,
		translator: apperr.NewTranslator(logger, !cfg.IsProduction()),
	}

	s.setupMiddleware()
	s.setupRoutes(productStore, authenticator)
	s.setupHTTPServer()

	return s
}

func (s *Server) cors() middleware.Middleware {
	allowedOrigins := []string{"*"}
	allowedMethods := []string{
		http.MethodGet,
		http.MethodPost,
		http.MethodPut,
		http.MethodDelete,
		http.MethodOptions,
	}
	allowedHeaders := []string{
		"Content-Type",
		auth.APIKeyHeader,
		middleware.RequestIDHeader,
	}

	return middleware.CORS(allowedOrigins, allowedMethods, allowedHeaders)
}

// setupMiddleware configures the middleware chain.
func (s *Server) setupMiddleware() {
	// Apply middleware in order (first applied = outermost)
	s.router.Use(mux.MiddlewareFunc(middleware.Recovery(s.logger, s.translator)))
	s.router.Use(mux.MiddlewareFunc(middleware.RequestID()))

	// Add metrics middleware if enabled
	if s.config.MetricsEnabled {
		s.router.Use(mux.MiddlewareFunc(middleware.Metrics()))
	}

	s.router.Use(mux.MiddlewareFunc(middleware.Logging(s.logger)))
	s.router.Use(mux.MiddlewareFunc(s.cors()))
}

// setupRoutes configures the API routes.
func (s *Server) setupRoutes(productStore store.Store, authenticator auth.Authenticator) {
	restHandler := handler.NewRESTHandler(
		productStore,
		s.logger,
		s.translator,
		authenticator,
		s.config.ProtectReads(),
	)
	restHandler.RegisterRoutes(s.router)

	// Metrics endpoint
	if s.config.MetricsEnabled {
		s.router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	}

	// Router middleware only wraps matched routes, so the fallbacks get the
	// route-independent part of the chain here. CORS answers preflights
	// before the fallback runs.
	fallback := middleware.Chain(
		middleware.Recovery(s.logger, s.translator),
		middleware.RequestID(),
		middleware.Logging(s.logger),
		s.cors(),
	)
	s.router.NotFoundHandler = fallback(s.router.NotFoundHandler)
	s.router.MethodNotAllowedHandler = fallback(s.router.MethodNotAllowedHandler)
}

// setupHTTPServer configures the HTTP server.
func (s *Server) setupHTTPServer() {
	s.httpServer = &http.Server{
		Addr:              s.config.Address(),
		Handler:           s.router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1 MB
	}
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info("starting server",
		zap.String("address", s.config.Address()),
		zap.String("environment", s.config.Environment),
		zap.String("auth_scope", s.config.AuthScope),
		zap.Bool("metrics_enabled", s.config.MetricsEnabled),
	)

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server listen and serve: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down server")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	s.logger.Info("server shutdown complete")
	return nil
}

// Router returns the server's router for testing purposes.
func (s *Server) Router() *mux.Router {
	return s.router
}
