// Package server exposes genealogy queries over HTTP.
//
// Routes:
//
//	GET /healthz                 liveness, loaded classifications, build info
//	GET /metrics                 Prometheus exposition (when a gatherer is set)
//	GET /v1/classifications      loaded classifications with their sizes
//	GET /v1/{op}?code=A&code=B   run one query
//
// Query parameters of /v1/{op}: code (repeatable), max_depth, shape,
// strategy, limit, classification (repeatable, restricts the unified graph)
// and format (json, text, dot or svg).
//
// Errors are JSON objects of the form
//
//	{"error": {"code": "INVALID_DEPTH", "message": "..."}}
//
// with 400 for validation failures, 404 for missing classifications and
// 422 when a path limit trips.
package server

import (
	"context"
	"io"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/matzehuels/lineage/pkg/classification"
	"github.com/matzehuels/lineage/pkg/errors"
	"github.com/matzehuels/lineage/pkg/pipeline"
)

// DefaultAddr is the listen address when none is configured.
const DefaultAddr = "127.0.0.1:8080"

// ShutdownTimeout bounds graceful shutdown.
const ShutdownTimeout = 10 * time.Second

// Server answers genealogy queries against the classifications of one
// repository. Unified graphs are built lazily per classification subset
// and kept for the lifetime of the server.
type Server struct {
	runner   *pipeline.Runner
	repo     *classification.Repository
	logger   *log.Logger
	gatherer prometheus.Gatherer

	mu     sync.RWMutex
	snaps  map[string]*pipeline.Snapshot
	flight singleflight.Group

	router chi.Router
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithGatherer enables GET /metrics for the given registry.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) { s.gatherer = g }
}

// WithSnapshot seeds the snapshot used when a request names no
// classification, e.g. one loaded from the graph cache at startup.
func WithSnapshot(snap *pipeline.Snapshot) Option {
	return func(s *Server) {
		if snap != nil {
			s.snaps[""] = snap
		}
	}
}

// New creates a server over repo. A nil runner gets an uncached one.
func New(runner *pipeline.Runner, repo *classification.Repository, opts ...Option) *Server {
	s := &Server{
		runner: runner,
		repo:   repo,
		logger: log.NewWithOptions(io.Discard, log.Options{}),
		snaps:  make(map[string]*pipeline.Snapshot),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.runner == nil {
		s.runner = pipeline.NewRunner(nil, nil, s.logger)
	}
	s.router = s.routes()
	return s
}

// Handler returns the HTTP handler serving every route.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.instrument)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	if s.gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	r.Route("/v1", func(r chi.Router) {
		r.Get("/classifications", s.handleClassifications)
		r.Get("/{op}", s.handleQuery)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, errors.New(errors.ErrCodeNotFound, "no route for %s", r.URL.Path))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: errorDetail{
			Code:    string(errors.ErrCodeUnsupported),
			Message: "method not allowed: " + r.Method,
		}})
	})
	return r
}

// snapshot returns the unified graph for the given classification subset,
// building it on first use. Concurrent first requests share one build.
func (s *Server) snapshot(ctx context.Context, names []string) (*pipeline.Snapshot, error) {
	for _, name := range names {
		if err := errors.ValidateName(name); err != nil {
			return nil, err
		}
	}
	names = slices.Compact(slices.Sorted(slices.Values(names)))
	key := strings.Join(names, ",")

	s.mu.RLock()
	snap, ok := s.snaps[key]
	s.mu.RUnlock()
	if ok {
		return snap, nil
	}

	// The build outlives the request that started it.
	buildCtx := context.WithoutCancel(ctx)
	v, err, _ := s.flight.Do(key, func() (any, error) {
		snap, err := s.runner.Snapshot(buildCtx, s.repo, names...)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.snaps[key] = snap
		s.mu.Unlock()
		s.logger.Info("unified graph built", "classifications", snap.Classifications, "nodes", snap.NodeCount())
		return snap, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*pipeline.Snapshot), nil
}

// ListenAndServe serves until ctx is canceled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	if addr == "" {
		addr = DefaultAddr
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		s.logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
