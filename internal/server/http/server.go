// Package httpserver provides the HTTP REST API server for the citation
// service.
package httpserver

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/citehub/citation-service/internal/citation"
	"github.com/citehub/citation-service/internal/database"
	"github.com/citehub/citation-service/internal/observability"
	"github.com/citehub/citation-service/internal/repository"
)

// Server is the HTTP REST API server.
type Server struct {
	router      chi.Router
	httpServer  *http.Server
	users       repository.UserRepository
	sources     repository.SourceRepository
	submissions repository.SubmissionRepository
	resolver    *citation.Resolver
	db          *database.DB
	metrics     *observability.Metrics
	logger      zerolog.Logger
	metricsPath string
}

// Config holds HTTP server configuration. An empty MetricsPath disables the
// Prometheus endpoint.
type Config struct {
	Address         string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	MetricsPath     string
}

// NewServer creates a new HTTP server with all dependencies.
func NewServer(
	cfg Config,
	users repository.UserRepository,
	sources repository.SourceRepository,
	submissions repository.SubmissionRepository,
	resolver *citation.Resolver,
	db *database.DB,
	metrics *observability.Metrics,
	logger zerolog.Logger,
) *Server {
	s := &Server{
		users:       users,
		sources:     sources,
		submissions: submissions,
		resolver:    resolver,
		db:          db,
		metrics:     metrics,
		logger:      logger.With().Str("component", "http-server").Logger(),
		metricsPath: cfg.MetricsPath,
	}

	s.router = s.buildRouter()

	s.httpServer = &http.Server{
		Addr:         cfg.Address,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s
}

// buildRouter creates the chi router with all middleware and routes.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(correlationIDMiddleware)
	r.Use(jsonContentTypeMiddleware)

	// Health and metrics endpoints
	r.Get("/healthz", s.healthHandler)
	r.Get("/readyz", s.readinessHandler)
	if s.metricsPath != "" {
		r.Method(http.MethodGet, s.metricsPath, promhttp.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/users", s.createUser)
		r.Get("/users/{userID}", s.getUser)
		r.Delete("/users/{userID}", s.deleteUser)
		r.Post("/users/{userID}/submissions", s.createSubmission)
		r.Get("/users/{userID}/submissions", s.listUserSubmissions)

		r.Post("/sources", s.createSource)
		r.Get("/sources", s.listSources)
		r.Get("/sources/{mediaType}/{sourceID}", s.getSource)
		r.Put("/sources/{mediaType}/{sourceID}", s.updateSource)
		r.Delete("/sources/{mediaType}/{sourceID}", s.deleteSource)
		r.Get("/sources/{mediaType}/{sourceID}/citation", s.getSourceCitation)

		r.Get("/submissions/{submissionID}", s.getSubmission)
		r.Delete("/submissions/{submissionID}", s.deleteSubmission)
		r.Post("/submissions/{submissionID}/citations", s.addCitation)
		r.Delete("/submissions/{submissionID}/citations/{citationID}", s.removeCitation)
		r.Get("/submissions/{submissionID}/citations/formatted", s.getFormattedCitations)
	})

	return r
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info().Str("address", s.httpServer.Addr).Msg("HTTP server starting")
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen on HTTP address: %w", err)
	}
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// healthHandler returns basic liveness status.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	health := s.db.Health(r.Context())
	if health.Status == "healthy" {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "database": health.Status})
		return
	}
	writeJSON(w, http.StatusServiceUnavailable, map[string]string{
		"status":   "unhealthy",
		"database": health.Status,
		"error":    health.Error,
	})
}

// readinessHandler reports whether the service can take traffic.
func (s *Server) readinessHandler(w http.ResponseWriter, r *http.Request) {
	health := s.db.Health(r.Context())
	if health.Status != "healthy" {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status":   "not_ready",
			"database": health.Status,
			"error":    health.Error,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":   "ready",
		"database": "healthy",
	})
}
