// Package server provides the HTTP reporting API for reviewlens.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/hyperjump/reviewlens/internal/config"
	"github.com/hyperjump/reviewlens/internal/keyword"
	"github.com/hyperjump/reviewlens/internal/metrics"
	"github.com/hyperjump/reviewlens/internal/storage"
	"github.com/hyperjump/reviewlens/pkg/utils"
)

// Server serves the latest run report, store statistics and review search.
type Server struct {
	reports  ReportProvider
	store    storage.Store
	index    keyword.ReviewIndex
	registry *prometheus.Registry
	config   *config.ServerConfig
	logger   *zap.Logger
	server   *http.Server
}

// NewServer creates a server. store and index may be nil; the endpoints that
// need them then answer 503.
func NewServer(
	reports ReportProvider,
	store storage.Store,
	index keyword.ReviewIndex,
	registry *prometheus.Registry,
	cfg *config.ServerConfig,
	logger *zap.Logger,
) *Server {
	if registry == nil {
		registry = metrics.InitRegistry()
	}
	return &Server{
		reports:  reports,
		store:    store,
		index:    index,
		registry: registry,
		config:   cfg,
		logger:   utils.OrNop(logger),
	}
}

// Router returns the API routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(s.instrument)

	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", metrics.Handler(s.registry))
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/report", s.handleReport)
		r.Get("/banks/{bank}", s.handleBank)
		r.Get("/status", s.handleStatus)
		r.Get("/reviews/search", s.handleSearch)
	})
	return r
}

// instrument logs each request and records it in the HTTP metrics under its
// route pattern, so path parameters do not explode label cardinality.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		dur := time.Since(start)
		metrics.ObserveHTTP(route, r.Method, status, dur)
		s.logger.Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Duration("duration", dur),
			zap.String("request_id", middleware.GetReqID(r.Context())))
	})
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
