// Package server assembles the chi router, middleware chain and routes of the
// OneStopMed API and manages the HTTP server lifecycle.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Tejas-dj/OneStopMed-v1/config"
	"github.com/Tejas-dj/OneStopMed-v1/interfaces"
	"github.com/Tejas-dj/OneStopMed-v1/logging"
	"github.com/Tejas-dj/OneStopMed-v1/metrics"
)

// Server represents the HTTP server
type Server struct {
	server         *http.Server
	router         chi.Router
	config         *config.Config
	httpHandler    interfaces.HTTPHandler
	authMiddleware func(http.Handler) http.Handler
	limiter        *RateLimiter

	stopCleanup context.CancelFunc

	mu       sync.Mutex
	listener net.Listener
}

// NewServer creates a server routing to httpHandler. authMiddleware guards
// the prescription endpoint.
func NewServer(cfg *config.Config, httpHandler interfaces.HTTPHandler, authMiddleware func(http.Handler) http.Handler) *Server {
	router := chi.NewRouter()

	s := &Server{
		server: &http.Server{
			Handler:           router,
			Addr:              net.JoinHostPort(cfg.Address, cfg.Port),
			ReadTimeout:       15 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
			MaxHeaderBytes:    int(cfg.MaxHeaderSize),
		},
		router:         router,
		config:         cfg,
		httpHandler:    httpHandler,
		authMiddleware: authMiddleware,
		limiter:        NewRateLimiter(rateLimitRate, rateLimitCapacity),
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// setupMiddleware configures all middleware
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	if s.config.RequireProxy {
		s.router.Use(BlockDirectAccessMiddleware) // before RealIP, needs the original RemoteAddr
	}
	s.router.Use(RealIPMiddleware)
	s.router.Use(metrics.Metrics)
	s.router.Use(logging.LoggingMiddleware(logging.Logger()))
	s.router.Use(middleware.RedirectSlashes)
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.config.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Content-Disposition", "X-Visit-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	s.router.Use(RequestSizeMiddleware(s.config))
	s.router.Use(s.limiter.Middleware)
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	s.router.Get("/search", s.httpHandler.SearchDrugs)
	s.router.Get("/classify", s.httpHandler.ClassifyDrug)
	s.router.Get("/drugs/{pageNumber}", s.httpHandler.ServePagedDrugs)

	auth := s.authMiddleware
	if auth == nil {
		auth = func(next http.Handler) http.Handler { return next }
	}
	s.router.With(auth).Post("/generate_pdf", s.httpHandler.GeneratePrescription)

	s.router.Get("/health", s.httpHandler.HealthCheck)
	s.router.Handle("/metrics", promhttp.Handler())

	if s.config.IsDevelopment() {
		s.router.Mount("/debug", middleware.Profiler())
	}
}

// Handler returns the configured router
func (s *Server) Handler() http.Handler {
	return s.router
}

// Addr returns the bound address once Start has opened its listener, else the configured one
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.server.Addr
}

// Start listens and serves until Shutdown. It returns http.ErrServerClosed after a clean shutdown.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.mu.Lock()
	s.listener = ln
	s.stopCleanup = cancel
	s.mu.Unlock()

	s.limiter.StartCleanup(ctx, 30*time.Minute)

	logging.Info("Starting server", "addr", ln.Addr().String(), "env", s.config.Env.String())
	return s.server.Serve(ln)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down server...")

	s.mu.Lock()
	if s.stopCleanup != nil {
		s.stopCleanup()
	}
	s.mu.Unlock()

	if err := s.server.Shutdown(ctx); err != nil {
		logging.Error("Server forced to shutdown", "error", err)
		if closeErr := s.server.Close(); closeErr != nil && !errors.Is(closeErr, http.ErrServerClosed) {
			logging.Error("Server close error", "error", closeErr)
			return closeErr
		}
	}

	logging.Info("Server shutdown complete")
	return nil
}
