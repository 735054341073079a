// Package server provides the HTTP server implementation for the health gateway.
package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/TorkeTejas/bus-management-cc/internal/config"
	apierrors "github.com/TorkeTejas/bus-management-cc/internal/errors"
	"github.com/TorkeTejas/bus-management-cc/internal/handler"
	"github.com/TorkeTejas/bus-management-cc/internal/metrics"
	"github.com/TorkeTejas/bus-management-cc/internal/middleware"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Translator turns a service name into a user-facing message.
type Translator interface {
	Translate(serviceName string) string
}

// Server represents the HTTP server.
type Server struct {
	router       *mux.Router
	httpServer   *http.Server
	handlers     *handler.Handlers
	errorHandler *apierrors.Handler
	translator   Translator
	metrics      *metrics.Metrics
	logger       *zap.Logger
	cfg          *config.Config
}

// NewServer creates a new HTTP server.
func NewServer(
	cfg *config.Config,
	handlers *handler.Handlers,
	errorHandler *apierrors.Handler,
	tr Translator,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Server {
	router := mux.NewRouter()

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return &Server{
		router:       router,
		httpServer:   httpServer,
		handlers:     handlers,
		errorHandler: errorHandler,
		translator:   tr,
		metrics:      m,
		logger:       logger,
		cfg:          cfg,
	}
}

// SetupRoutes configures all HTTP routes.
func (s *Server) SetupRoutes() {
	middlewareChain := []func(http.Handler) http.Handler{
		middleware.Recovery(s.translator, s.cfg.SupportContact, s.logger),
		middleware.RequestID,
		middleware.ProcessTime,
		middleware.Logging(s.logger),
		middleware.CORS(s.cfg.Server.AllowedOrigins),
		metrics.MetricsMiddleware(s.metrics, routeTemplate),
	}

	if s.cfg.RateLimiter.Enabled {
		rateLimiter := middleware.NewRateLimiter(
			s.cfg.RateLimiter.RequestsPerSecond,
			s.cfg.RateLimiter.BurstSize,
			s.errorHandler,
			s.logger,
		)
		middlewareChain = append(middlewareChain, rateLimiter.Limit)
	}

	chain := middleware.Chain(middlewareChain...)
	s.router.Use(func(next http.Handler) http.Handler {
		return chain(next)
	})

	s.router.HandleFunc("/livez", s.handlers.Livez).Methods(http.MethodGet)

	// Health and error log
	s.router.HandleFunc("/health", s.handlers.HealthAll).Methods(http.MethodGet)
	s.router.HandleFunc("/health/{name}", s.handlers.HealthOne).Methods(http.MethodGet)
	s.router.HandleFunc("/errors", s.handlers.RecentErrors).Methods(http.MethodGet)
	s.router.HandleFunc("/errors/{name}", s.handlers.ServiceErrors).Methods(http.MethodGet)
	s.router.HandleFunc("/errors/id/{id}", s.handlers.ErrorByID).Methods(http.MethodGet)

	s.router.HandleFunc("/proxy", s.handlers.Proxy).Methods(http.MethodPost)

	// Registry management
	s.router.HandleFunc("/registry", s.handlers.ListRegistry).Methods(http.MethodGet)
	s.router.HandleFunc("/registry/{name}", s.handlers.RegisterService).Methods(http.MethodPost)
	s.router.HandleFunc("/registry/{name}", s.handlers.DeregisterService).Methods(http.MethodDelete)

	for _, route := range handler.GatewayRoutes() {
		s.router.HandleFunc(route.Path, s.handlers.Gateway(route)).Methods(route.Method)
	}

	// preflight requests are answered by the CORS middleware
	s.router.MatcherFunc(isPreflight).HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.errorHandler.WriteErrorResponse(w, http.StatusNotFound, apierrors.ErrorResponse{
			Detail:    "Not Found",
			ErrorCode: apierrors.ErrorCodeEndpointNotFound,
			RequestID: r.Header.Get("X-Request-ID"),
		})
	})

	s.router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.errorHandler.WriteErrorResponse(w, http.StatusMethodNotAllowed, apierrors.ErrorResponse{
			Detail:    "Method Not Allowed",
			ErrorCode: apierrors.ErrorCodeMethodNotAllowed,
			RequestID: r.Header.Get("X-Request-ID"),
		})
	})
}

// isPreflight matches OPTIONS on any path. A Methods matcher would turn every
// unknown path into a 405.
func isPreflight(r *http.Request, _ *mux.RouteMatch) bool {
	return r.Method == http.MethodOptions
}

// routeTemplate labels metrics by route template so path variables do not
// explode label cardinality.
func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tmpl, err := route.GetPathTemplate(); err == nil {
			return tmpl
		}
	}
	return "unmatched"
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server",
		zap.Int("port", s.cfg.Server.Port),
	)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

// GetHandler returns the http.Handler for the server.
func (s *Server) GetHandler() http.Handler {
	return s.router
}
