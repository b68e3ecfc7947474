package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"compactd/pkg/compaction"
	"compactd/pkg/dberrors"
	"compactd/pkg/planstore"
	"compactd/pkg/selection"
)

const (
	contentTypeJSON          = "application/json"
	defaultHTTPPort          = 8080
	defaultShutdownTimeout   = time.Second * 5
	defaultReadHeaderTimeout = time.Second
	maxBodyBytes             = 32 << 20
)

type iSelector interface {
	Select(ctx context.Context, req selection.Request) (compaction.Selection, error)
	StrategyName() string
}

// Options tunes the HTTP server. Zero values fall back to defaults.
type Options struct {
	Port              int
	ReadHeaderTimeout time.Duration
	ShutdownTimeout   time.Duration
	// Gatherer backs /metrics. Nil serves the default registry.
	Gatherer prometheus.Gatherer
}

// Server exposes compaction selection and the pending plan store over HTTP.
type Server struct {
	selector   iSelector
	plans      planstore.Store
	opts       Options
	httpServer *http.Server
	URL        string
	addr       string
}

// NewServer creates a new server instance
func NewServer(selector iSelector, plans planstore.Store, opts Options) *Server {
	if opts.Port == 0 {
		opts.Port = defaultHTTPPort
	}
	if opts.ReadHeaderTimeout <= 0 {
		opts.ReadHeaderTimeout = defaultReadHeaderTimeout
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = defaultShutdownTimeout
	}
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}

	port := strconv.Itoa(opts.Port)
	return &Server{
		selector: selector,
		plans:    plans,
		opts:     opts,
		URL:      "http://localhost:" + port,
		addr:     ":" + port,
	}
}

// Start starts the server
func (s *Server) Start() error {
	if err := s.startHTTPServer(); err != nil {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	return nil
}

// Stop stops the server
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}
	return nil
}

// createRouter builds chi router
func (s *Server) createRouter() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.opts.Gatherer, promhttp.HandlerOpts{}))

	r.Route("/api/compaction", func(r chi.Router) {
		r.Post("/select", s.handleSelect)
		r.Get("/plans", s.handleListPlans)
		r.Put("/plans", s.handlePutPlan)
		r.Get("/plans/{instant}", s.handleGetPlan)
		r.Delete("/plans/{instant}", s.handleDeletePlan)
	})

	return r
}

func (s *Server) startHTTPServer() error {
	// bind before returning so a taken port fails Start
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.addr, err)
	}

	s.httpServer = &http.Server{
		Addr:              s.addr,
		Handler:           s.createRouter(),
		ReadHeaderTimeout: s.opts.ReadHeaderTimeout,
	}

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
		}
	}()

	slog.Info("HTTP server started", "addr", s.URL)
	return nil
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Warn("Error encoding response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	s.writeJSON(w, statusFor(err), NewErrorResponse(err.Error()))
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, dberrors.ErrInvalidPartition):
		return http.StatusUnprocessableEntity
	case errors.Is(err, dberrors.ErrUnknownStrategy), errors.Is(err, dberrors.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, dberrors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, dberrors.ErrCompactionPending):
		return http.StatusConflict
	case errors.Is(err, dberrors.ErrClosed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		s.writeJSON(w, http.StatusBadRequest, NewErrorResponse("Failed to decode body: "+err.Error()))
		return false
	}
	return true
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, NewOKResponse())
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req SelectRequest
	if !s.decode(w, r, &req) {
		return
	}

	sel, err := s.selector.Select(r.Context(), selection.Request{
		Strategy:               req.Strategy,
		TargetPartitionsPerRun: req.TargetPartitionsPerRun,
		TargetIOPerRunMB:       req.TargetIOPerRunMB,
		Operations:             req.Operations,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	strategy := req.Strategy
	if strategy == "" {
		strategy = s.selector.StrategyName()
	}
	s.writeJSON(w, http.StatusOK, NewSelectResponse(strategy, sel))
}

func (s *Server) handleListPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := s.plans.List(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, PlansResponse{Status: StatusSuccess, Plans: plans})
}

func (s *Server) handlePutPlan(w http.ResponseWriter, r *http.Request) {
	var plan compaction.Plan
	if !s.decode(w, r, &plan) {
		return
	}

	if err := s.plans.Put(r.Context(), plan); err != nil {
		s.writeError(w, err)
		return
	}
	slog.Info("pending compaction plan stored", "instant", plan.InstantTime, "operations", len(plan.Operations))
	s.writeJSON(w, http.StatusOK, NewSuccessResponse())
}

func (s *Server) handleGetPlan(w http.ResponseWriter, r *http.Request) {
	plan, err := s.plans.Get(r.Context(), chi.URLParam(r, "instant"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, PlanResponse{Status: StatusSuccess, Plan: plan})
}

func (s *Server) handleDeletePlan(w http.ResponseWriter, r *http.Request) {
	instant := chi.URLParam(r, "instant")
	if err := s.plans.Delete(r.Context(), instant); err != nil {
		s.writeError(w, err)
		return
	}
	slog.Info("pending compaction plan removed", "instant", instant)
	s.writeJSON(w, http.StatusOK, NewSuccessResponse())
}
