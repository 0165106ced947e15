package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/klauspost/compress/gzhttp"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/nws-alert-map/internal/domain"
)

const contentTypeGeoJSON = "application/geo+json"

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// Server exposes the alert map GeoJSON plus health, readiness, and metrics
// endpoints.
type Server struct {
	httpServer *http.Server
	snapshots  *SnapshotStore
	states     []byte
	logger     *slog.Logger
}

// NewServer creates an HTTP server. states is the state-boundary GeoJSON
// served at /states.geojson; nil disables the route.
func NewServer(addr string, ready ReadinessChecker, snapshots *SnapshotStore, states []byte, logger *slog.Logger) *Server {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      r,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		snapshots: snapshots,
		states:    states,
		logger:    logger,
	}

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", handleReady(ready))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Method(http.MethodGet, "/alerts", gzhttp.GzipHandler(http.HandlerFunc(s.handleAlerts)))
	r.Method(http.MethodGet, "/states.geojson", gzhttp.GzipHandler(http.HandlerFunc(s.handleStates)))

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

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

// handleAlerts serves the latest snapshot. Without ?stage the enriched
// snapshot is preferred and the raw one is served until enrichment finishes.
func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	var (
		entry snapshotEntry
		ok    bool
	)
	if q := r.URL.Query().Get("stage"); q != "" {
		stage, err := domain.ParseStage(q)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		entry, ok = s.snapshots.latest(stage)
	} else {
		entry, ok = s.snapshots.latest(domain.StageEnriched)
		if !ok {
			entry, ok = s.snapshots.latest(domain.StageRaw)
		}
	}
	if !ok {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "no alert snapshot available yet"})
		return
	}

	w.Header().Set("Content-Type", contentTypeGeoJSON)
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Run-ID", entry.runID)
	w.Header().Set("X-Snapshot-Stage", string(entry.stage))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(entry.body); err != nil {
		s.logger.Debug("write alerts response", "error", err, "request_id", middleware.GetReqID(r.Context()))
	}
}

func (s *Server) handleStates(w http.ResponseWriter, _ *http.Request) {
	if s.states == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "state boundaries not configured"})
		return
	}
	w.Header().Set("Content-Type", contentTypeGeoJSON)
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.WriteHeader(http.StatusOK)
	w.Write(s.states) //nolint:errcheck // static asset
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort health response
}
