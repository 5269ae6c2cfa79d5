package authmiddleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jupyter-infra/gcp-iap-auth/internal/iap"
	"github.com/jupyter-infra/gcp-iap-auth/internal/stackdriver"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server represents the HTTP server for authentication middleware
type Server struct {
	config     *Config
	components *iap.Components
	registry   *prometheus.Registry
	metrics    *iap.Metrics
	logger     *slog.Logger
	httpServer *http.Server
}

// NewServer creates a new server instance
func NewServer(config *Config, components *iap.Components, logger *slog.Logger) *Server {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Server{
		config:     config,
		components: components,
		registry:   registry,
		metrics:    iap.NewMetrics(registry),
		logger:     logger,
	}
}

// Handler returns the router with every route and the request middlewares applied
func (s *Server) Handler() (http.Handler, error) {
	router := http.NewServeMux()

	router.HandleFunc(RouteHealth, s.handleHealth)
	router.Handle(RouteMetrics, promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	if s.components.Enabled() {
		authenticate, err := iap.Middleware(s.components, s.metrics)
		if err != nil {
			return nil, fmt.Errorf("failed to create IAP middleware: %w", err)
		}
		router.Handle(RouteVerify, authenticate(http.HandlerFunc(s.handleVerify)))
	} else {
		s.logger.Warn("IAP authentication is disabled, " + RouteVerify + " accepts every request")
		router.HandleFunc(RouteVerify, s.handleVerify)
	}

	return stackdriver.TraceMiddleware(s.withRequestLogger(router)), nil
}

// withRequestLogger stores a trace-correlated logger in the request context
func (s *Server) withRequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := stackdriver.NewRequestLogger(r.Context(), s.logger.Handler()).
			WithValues("method", r.Method, "path", r.URL.Path)
		next.ServeHTTP(w, r.WithContext(stackdriver.AddLoggerToContext(r.Context(), logger)))
	})
}

// Start initializes and starts the HTTP server
func (s *Server) Start() error {
	handler, err := s.Handler()
	if err != nil {
		return err
	}

	// Configure HTTP server
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      handler,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	// Channel for handling shutdown
	idleConnsClosed := make(chan struct{})

	// Setup graceful shutdown
	go s.handleShutdown(idleConnsClosed)

	s.logger.Info("Starting IAP authentication service", "port", s.config.Port)
	if err := s.httpServer.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	<-idleConnsClosed
	s.logger.Info("Server stopped")
	return nil
}

// handleShutdown handles graceful server shutdown
func (s *Server) handleShutdown(idleConnsClosed chan struct{}) {
	sigint := make(chan os.Signal, 1)
	signal.Notify(sigint, syscall.SIGINT, syscall.SIGTERM)
	<-sigint

	s.logger.Info("Received shutdown signal")

	ctx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()

	// Doesn't block if no connections, but will otherwise wait
	// until the timeout deadline
	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("Server shutdown error", "error", err)
	}

	close(idleConnsClosed)
}

// Handler methods are implemented in separate files:
// - serverroute_verify.go
// - serverroute_health.go
