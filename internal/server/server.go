// Package server provides the HTTP server and routing for the visualizer.
package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/OwenQuipo/Bloch-Sphere-Visualizer/internal/config"
	"github.com/OwenQuipo/Bloch-Sphere-Visualizer/internal/database"
	circuitshandlers "github.com/OwenQuipo/Bloch-Sphere-Visualizer/internal/modules/circuits/handlers"
	quantumhandlers "github.com/OwenQuipo/Bloch-Sphere-Visualizer/internal/modules/quantum/handlers"
	"github.com/OwenQuipo/Bloch-Sphere-Visualizer/internal/scheduler"
)

// requestTimeout bounds every request except websocket upgrades.
const requestTimeout = 60 * time.Second

// Config holds server configuration
type Config struct {
	Log             zerolog.Logger
	CircuitsDB      *database.DB
	Config          *config.Config
	Gatherer        prometheus.Gatherer
	CircuitHandlers *circuitshandlers.Handler
	QuantumHandlers *quantumhandlers.Handler
	Scheduler       *scheduler.Scheduler
	Jobs            []scheduler.Job
}

// Server represents the HTTP server
type Server struct {
	router          *chi.Mux
	server          *http.Server
	log             zerolog.Logger
	cfg             *config.Config
	gatherer        prometheus.Gatherer
	circuitHandlers *circuitshandlers.Handler
	quantumHandlers *quantumhandlers.Handler
	systemHandlers  *SystemHandlers
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	if cfg.Gatherer == nil {
		cfg.Gatherer = prometheus.DefaultGatherer
	}

	s := &Server{
		router:          chi.NewRouter(),
		log:             cfg.Log.With().Str("component", "server").Logger(),
		cfg:             cfg.Config,
		gatherer:        cfg.Gatherer,
		circuitHandlers: cfg.CircuitHandlers,
		quantumHandlers: cfg.QuantumHandlers,
		systemHandlers:  NewSystemHandlers(cfg.Log, cfg.Config.DataDir, cfg.CircuitsDB, cfg.Scheduler, cfg.Jobs),
	}

	s.setupMiddleware(cfg.Config.DevMode)
	s.setupRoutes()

	// No WriteTimeout: playback websockets stay open for the length of a circuit
	s.server = &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.Config.Port),
		Handler:     s.router,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	return s
}

// Handler returns the root handler, for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(devMode bool) {
	// Recovery from panics
	s.router.Use(middleware.Recoverer)

	// Request ID
	s.router.Use(middleware.RequestID)

	// Real IP
	s.router.Use(middleware.RealIP)

	// Logging
	s.router.Use(s.loggingMiddleware)

	// Timeout
	s.router.Use(timeoutUnlessUpgrade(requestTimeout))

	// CORS
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Compress responses
	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)
	s.router.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	s.router.Route("/api", func(r chi.Router) {
		r.Route("/system", func(r chi.Router) {
			r.Get("/stats", s.systemHandlers.HandleSystemStats)
			r.Get("/database", s.systemHandlers.HandleDatabaseStats)
			r.Get("/jobs", s.systemHandlers.HandleJobsStatus)
			r.Post("/jobs/{name}", s.systemHandlers.HandleTriggerJob)
		})

		if s.quantumHandlers != nil {
			s.quantumHandlers.RegisterRoutes(r)
		}
		if s.circuitHandlers != nil {
			s.circuitHandlers.RegisterRoutes(r)
		}
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Int("port", s.cfg.Port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// timeoutUnlessUpgrade applies middleware.Timeout to every request that is not
// a websocket upgrade.
func timeoutUnlessUpgrade(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		timed := middleware.Timeout(d)(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
				next.ServeHTTP(w, r)
				return
			}
			timed.ServeHTTP(w, r)
		})
	}
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
