package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/covid-data-etl/internal/domain"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// SnapshotProvider returns the most recent snapshot, if any run has completed.
type SnapshotProvider interface {
	Latest() (domain.Snapshot, bool)
}

// Server exposes health, readiness, metrics, and snapshot HTTP endpoints.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics, and /snapshot routes.
func NewServer(addr string, ready ReadinessChecker, snapshots SnapshotProvider, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:        addr,
			Handler:     mux,
			ReadTimeout: 10 * time.Second,
			// A full snapshot is several hundred megabytes of JSON.
			WriteTimeout: 2 * time.Minute,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(ready))
	mux.HandleFunc("GET /snapshot", s.handleSnapshot(snapshots))
	mux.Handle("GET /metrics", promhttp.Handler())

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

// handleSnapshot serves the latest snapshot. The optional country and state
// query parameters select regions by exact match.
func (s *Server) handleSnapshot(provider SnapshotProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snapshot, ok := provider.Latest()
		if !ok {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "no snapshot available"})
			return
		}

		q := r.URL.Query()
		if !q.Has("country") && !q.Has("state") {
			writeJSON(w, http.StatusOK, snapshot)
			return
		}

		regions := make([]domain.Model, 0)
		for _, m := range snapshot.Regions {
			if q.Has("country") && m.Country != q.Get("country") {
				continue
			}
			if q.Has("state") && m.State != q.Get("state") {
				continue
			}
			regions = append(regions, m)
		}
		if len(regions) == 0 {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "no matching region"})
			return
		}

		s.logger.Debug("snapshot served", "regions", len(regions))
		writeJSON(w, http.StatusOK, domain.Snapshot{GeneratedAt: snapshot.GeneratedAt, Regions: regions})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
