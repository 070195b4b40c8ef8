// Package httpserver provides the HTTP REST API server for the client registry service.
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
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/streetcare/client-registry-service/internal/database"
	"github.com/streetcare/client-registry-service/internal/domain"
	"github.com/streetcare/client-registry-service/internal/identity"
	"github.com/streetcare/client-registry-service/internal/repository"
)

// Reconciler defines the destructive operations the HTTP server exposes.
// Implemented by reconcile.Reconciler.
type Reconciler interface {
	Merge(ctx context.Context, keepID, dropID uuid.UUID, operator string) (*domain.ReconciliationEntry, error)
	Delete(ctx context.Context, id uuid.UUID, operator string) (*domain.ReconciliationEntry, error)
	VerifyMerge(ctx context.Context, keepID, dropID uuid.UUID) error
}

// healthChecker reports database health for the health endpoints.
// Implemented by database.DB.
type healthChecker interface {
	Health(ctx context.Context) database.HealthStatus
}

// handlerMetrics is the subset of observability.Metrics the handlers record.
type handlerMetrics interface {
	RecordSearch(resultCount int)
	RecordDuplicateScan(groupsFound int)
	RecordPrecheck(flagged bool)
	RecordClientCreated()
}

// Server is the HTTP REST API server.
type Server struct {
	router          chi.Router
	httpServer      *http.Server
	clientRepo      repository.ClientRepository
	encounterRepo   repository.EncounterRepository
	logRepo         repository.ReconciliationLogRepository
	reconciler      Reconciler
	searcher        *identity.Searcher
	prechecker      *identity.Prechecker
	precheckLimiter *rate.Limiter
	health          healthChecker
	metrics         handlerMetrics
	validate        *validator.Validate
	logger          zerolog.Logger
}

// Config holds HTTP server configuration.
type Config struct {
	Address           string
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration
	PrecheckRateRPS   float64
	PrecheckRateBurst int
}

// Deps bundles the server's dependencies.
type Deps struct {
	ClientRepo    repository.ClientRepository
	EncounterRepo repository.EncounterRepository
	LogRepo       repository.ReconciliationLogRepository
	Reconciler    Reconciler
	Searcher      *identity.Searcher
	Prechecker    *identity.Prechecker
	Health        healthChecker
	Metrics       handlerMetrics
	Logger        zerolog.Logger
}

// NewServer creates a new HTTP server with all dependencies.
func NewServer(cfg Config, deps Deps) *Server {
	rps := cfg.PrecheckRateRPS
	if rps <= 0 {
		rps = 5.0
	}
	burst := cfg.PrecheckRateBurst
	if burst <= 0 {
		burst = 10
	}

	s := &Server{
		clientRepo:      deps.ClientRepo,
		encounterRepo:   deps.EncounterRepo,
		logRepo:         deps.LogRepo,
		reconciler:      deps.Reconciler,
		searcher:        deps.Searcher,
		prechecker:      deps.Prechecker,
		precheckLimiter: rate.NewLimiter(rate.Limit(rps), burst),
		health:          deps.Health,
		metrics:         deps.Metrics,
		validate:        validator.New(),
		logger:          deps.Logger.With().Str("component", "http-server").Logger(),
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

	// Health endpoints
	r.Get("/healthz", s.healthHandler)
	r.Get("/readyz", s.readinessHandler)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(operatorContextMiddleware)

		r.Get("/clients", s.searchClients)
		r.Post("/clients", s.createClient)
		r.Post("/clients/duplicate-check", s.duplicateCheck)
		r.Get("/clients/{clientID}", s.getClient)
		r.Put("/clients/{clientID}", s.updateClient)
		r.Delete("/clients/{clientID}", s.deleteClient)
		r.Get("/clients/{clientID}/encounters", s.listEncounters)
		r.Post("/clients/{clientID}/encounters", s.createEncounter)

		r.Get("/duplicates", s.listDuplicates)
		r.Post("/duplicates/merge", s.mergeClients)
		r.Get("/duplicates/verify-merge", s.verifyMerge)

		r.Get("/reconciliations", s.listReconciliations)
	})

	return r
}

// Router returns the configured handler for testing and embedding.
func (s *Server) Router() http.Handler {
	return s.router
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
	health := s.health.Health(r.Context())
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

// readinessHandler returns readiness status.
func (s *Server) readinessHandler(w http.ResponseWriter, r *http.Request) {
	health := s.health.Health(r.Context())
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

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Best-effort log; headers already sent.
		_ = err
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{
		"error": message,
	})
}
