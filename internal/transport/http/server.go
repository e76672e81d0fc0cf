package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"ephcli/internal/app"
	"ephcli/internal/config"
	apierrors "ephcli/internal/errors"
	"ephcli/internal/infrastructure"
	custommiddleware "ephcli/internal/middleware"
)

// ResultsStore caches the latest pipeline results and guards concurrent
// re-runs.
type ResultsStore struct {
	runner *app.Runner

	mu      sync.RWMutex
	latest  *app.Results
	running bool
}

// NewResultsStore creates a store around the given runner.
func NewResultsStore(runner *app.Runner) *ResultsStore {
	return &ResultsStore{runner: runner}
}

// Latest returns the most recent results, or nil before the first run.
func (s *ResultsStore) Latest() *app.Results {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}

// Refresh executes a pipeline run and publishes its results. Only one
// refresh runs at a time; a concurrent call fails fast instead of queueing.
func (s *ResultsStore) Refresh(ctx context.Context, opts app.Options) (*app.Results, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil, fmt.Errorf("a pipeline run is already in progress")
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	results, err := s.runner.Run(ctx, opts)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.latest = results
	s.mu.Unlock()
	return results, nil
}

// Server is the results API server.
type Server struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   *ResultsStore
	metrics *infrastructure.PipelineMetrics
	// MetricsHandler serves the Prometheus scrape endpoint; nil disables it.
	MetricsHandler http.Handler
}

// NewServer creates the results API server.
func NewServer(cfg *config.Config, logger *slog.Logger, store *ResultsStore, metrics *infrastructure.PipelineMetrics) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		cfg:     cfg,
		logger:  logger,
		store:   store,
		metrics: metrics,
	}
}

// Router builds the full route tree with the middleware chain.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()

	r.Use(custommiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(custommiddleware.StructuredLogger(s.logger))
	r.Use(custommiddleware.Recoverer(s.logger))
	r.Use(custommiddleware.RequestMetrics(s.metrics))

	limiter := custommiddleware.NewRateLimiter(
		s.cfg.Server.RateLimitRPS, s.cfg.Server.RateLimitBurst, s.logger)
	r.Use(limiter.Handler)

	r.Get("/healthz", s.handleHealth)
	if s.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", s.MetricsHandler)
	}

	handler := NewResultsHandler(s.store, s.cfg.Analysis.RegionName, s.logger)
	r.Route("/api", func(r chi.Router) {
		r.Mount("/", handler.Routes())
		r.Post("/run", s.handleRun)
	})

	return r
}

// ListenAndServe runs the server until ctx is canceled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Server.Port),
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("results API listening", slog.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	}
	if latest := s.store.Latest(); latest != nil {
		status["last_run_id"] = latest.RunID
		status["last_run_at"] = latest.CompletedAt.UTC().Format(time.RFC3339)
	}
	render.JSON(w, r, status)
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	force := r.URL.Query().Get("force") == "true"

	results, err := s.store.Refresh(r.Context(), app.Options{Force: force})
	if err != nil {
		s.logger.ErrorContext(r.Context(), "pipeline run failed", slog.Any("error", err))
		render.Render(w, r, apierrors.NewAPIError(http.StatusInternalServerError,
			"RUN_FAILED", err.Error()))
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, map[string]interface{}{
		"run_id":       results.RunID,
		"completed_at": results.CompletedAt.UTC().Format(time.RFC3339),
		"rate_cells":   len(results.Rates),
	})
}
