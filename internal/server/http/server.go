// Package httpserver provides the HTTP dashboard for the CORD-19 explorer:
// HTML pages, a JSON API over the filtered dataset views, rendered chart
// images, and read access to the run catalog.
package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/fredxotic/cord19-explorer/internal/catalog"
	"github.com/fredxotic/cord19-explorer/internal/explorer"
	"github.com/fredxotic/cord19-explorer/internal/observability"
)

// Server is the dashboard HTTP server.
type Server struct {
	router     chi.Router
	httpServer *http.Server
	service    *explorer.Service
	runs       catalog.RunRepository
	store      *catalog.Store
	validate   *validator.Validate
	metrics    *observability.Metrics
	logger     zerolog.Logger
}

// Config holds HTTP server configuration.
type Config struct {
	Address         string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// NewServer creates a new dashboard server. The run repository, catalog
// store, and metrics may all be nil; the affected endpoints degrade to
// empty responses instead of failing.
func NewServer(
	cfg Config,
	service *explorer.Service,
	runs catalog.RunRepository,
	store *catalog.Store,
	metrics *observability.Metrics,
	logger zerolog.Logger,
) *Server {
	s := &Server{
		service:  service,
		runs:     runs,
		store:    store,
		validate: validator.New(),
		metrics:  metrics,
		logger:   logger.With().Str("component", "http-server").Logger(),
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
	r.Use(s.requestLoggerMiddleware)

	// Health endpoints
	r.Get("/healthz", s.healthHandler)
	r.Get("/readyz", s.readinessHandler)

	// Dashboard pages and chart images
	r.Get("/", s.redirectToDashboard)
	r.Get("/dashboard", s.getDashboard)
	r.Get("/charts/{chart}.png", s.getChart)

	// JSON API
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/overview", s.getOverview)
		r.Get("/years", s.getYears)
		r.Get("/journals", s.getJournals)
		r.Get("/sources", s.getSources)
		r.Get("/words", s.getWords)
		r.Get("/sample", s.getSample)
		r.Get("/sample.csv", s.downloadSampleCSV)
		r.Get("/runs", s.listRuns)
		r.Get("/runs/{runID}", s.getRun)
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
	resp := map[string]string{"status": "ok", "catalog": "disabled"}
	if s.store != nil {
		if err := s.store.Ping(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status":  "unhealthy",
				"catalog": "unreachable",
			})
			return
		}
		resp["catalog"] = "healthy"
	}
	writeJSON(w, http.StatusOK, resp)
}

// readinessHandler reports whether the dataset and catalog are usable.
// The dataset file is required; the catalog only when configured.
func (s *Server) readinessHandler(w http.ResponseWriter, r *http.Request) {
	sel, err := s.service.CheckSource()
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status":  "not_ready",
			"dataset": "missing",
		})
		return
	}
	if s.store != nil {
		if err := s.store.Ping(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status":  "not_ready",
				"catalog": "unreachable",
			})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ready",
		"dataset": sel.Path,
	})
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Best-effort; headers already sent.
		_ = err
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{
		"error": message,
	})
}
