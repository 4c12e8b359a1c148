// Package httpapi exposes the workflow over HTTP.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httplog"
	jsoniter "github.com/json-iterator/go"
	"golang.org/x/sync/semaphore"

	"form-agent/internal/application/port/input"
	"form-agent/internal/application/port/output"
	"form-agent/internal/domain/entity"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const maxBodyBytes = 1 << 20

type Config struct {
	Addr              string
	MaxConcurrentRuns int64
	ShutdownTimeout   time.Duration
	// RequestLog enables httplog access logging.
	RequestLog bool
}

type Server struct {
	runner  input.WorkflowRunner
	logger  output.LoggerPort
	sem     *semaphore.Weighted
	metrics http.Handler
	cfg     Config
	router  chi.Router
}

// NewServer wires the routes. metrics may be nil, in which case /metrics is
// not mounted.
func NewServer(runner input.WorkflowRunner, logger output.LoggerPort, metrics http.Handler, cfg Config) *Server {
	if cfg.MaxConcurrentRuns < 1 {
		cfg.MaxConcurrentRuns = 1
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}

	s := &Server{
		runner:  runner,
		logger:  logger,
		sem:     semaphore.NewWeighted(cfg.MaxConcurrentRuns),
		metrics: metrics,
		cfg:     cfg,
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	router := chi.NewRouter()
	if s.cfg.RequestLog {
		router.Use(httplog.RequestLogger(httplog.NewLogger("form-agent", httplog.Options{
			JSON:    true,
			Concise: true,
		})))
	}

	router.Get("/healthz", s.handleHealthz)
	if s.metrics != nil {
		router.Handle("/metrics", s.metrics)
	}
	router.Route("/api", func(r chi.Router) {
		r.Post("/workflows", s.handleRunWorkflow)
	})
	return router
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves until ctx is cancelled, then drains in-flight runs
// for up to the shutdown timeout.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", "addr", s.cfg.Addr)
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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	s.logger.Info("HTTP server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleRunWorkflow(w http.ResponseWriter, r *http.Request) {
	var objective entity.Objective
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&objective); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	if err := objective.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	if err := s.sem.Acquire(r.Context(), 1); err != nil {
		respondError(w, http.StatusServiceUnavailable, errors.New("too many concurrent runs"))
		return
	}
	defer s.sem.Release(1)

	result, err := s.runner.Run(r.Context(), objective)
	if err != nil {
		s.logger.Warn("Workflow request failed", "error", err)
		respondError(w, statusFor(err), err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	case errors.Is(err, entity.ErrInvalidObjective):
		return http.StatusBadRequest
	case entity.IsElementNotFound(err):
		return http.StatusUnprocessableEntity
	case entity.IsUpstream(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

type errorResponse struct {
	Error  string `json:"error"`
	Status int    `json:"status"`
}

func respondError(w http.ResponseWriter, status int, err error) {
	respondJSON(w, status, errorResponse{Error: err.Error(), Status: status})
}
