package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/site-cluster-map/internal/icon"
	"github.com/couchcryptid/site-cluster-map/internal/observability"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// LayerProvider returns the layer currently served, or nil before the first
// load completes.
type LayerProvider interface {
	Current() *icon.Layer
}

// Server exposes the map API alongside health, readiness, and metrics routes.
type Server struct {
	httpServer *http.Server
	layers     LayerProvider
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics, and the
// /api routes the map page calls.
func NewServer(addr string, layers LayerProvider, ready sharedobs.ReadinessChecker, metrics *observability.Metrics, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		layers:  layers,
		metrics: metrics,
		logger:  logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /api/features", s.withLayer(s.handleFeatures))
	mux.HandleFunc("GET /api/categories", s.withLayer(s.handleCategories))
	mux.HandleFunc("GET /api/cluster-options", s.withLayer(s.handleClusterOptions))
	mux.HandleFunc("GET /api/bounds", s.withLayer(s.handleBounds))
	mux.HandleFunc("GET /api/markers/{id}", s.withLayer(s.handleMarker))
	mux.HandleFunc("POST /api/cluster-icon", s.withLayer(s.handleClusterIcon))

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}
