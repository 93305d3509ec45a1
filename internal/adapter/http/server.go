package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/couchcryptid/aurora-sight/internal/domain"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// OutlookProvider computes outlooks from the latest forecast snapshot.
type OutlookProvider interface {
	Outlook(observer domain.Observer) (domain.Outlook, bool)
	SiteObserver() (domain.Observer, bool)
}

// Server exposes health, readiness, metrics, and outlook HTTP endpoints.
type Server struct {
	httpServer *http.Server
	provider   OutlookProvider
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics, and
// /v1/outlook routes.
func NewServer(addr string, ready ReadinessChecker, provider OutlookProvider, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		provider: provider,
		logger:   logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(ready))
	mux.HandleFunc("GET /v1/outlook", s.handleOutlook)
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

// handleOutlook computes a personalized outlook from the latest snapshot.
// Observer coordinates come from lat/lon/alt query parameters; when absent
// the configured site observer is used.
func (s *Server) handleOutlook(w http.ResponseWriter, r *http.Request) {
	observer, err := s.observerFromRequest(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	outlook, ok := s.provider.Outlook(observer)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error": "no forecast snapshot available yet",
		})
		return
	}

	writeJSON(w, http.StatusOK, outlook)
}

func (s *Server) observerFromRequest(r *http.Request) (domain.Observer, error) {
	q := r.URL.Query()
	latStr, lonStr := q.Get("lat"), q.Get("lon")

	if latStr == "" && lonStr == "" {
		if site, ok := s.provider.SiteObserver(); ok {
			return site, nil
		}
		return domain.Observer{}, errParams("lat and lon are required when no site observer is configured")
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil || lat < -90 || lat > 90 {
		return domain.Observer{}, errParams("lat must be a number in [-90, 90]")
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil || lon < -180 || lon >= 180 {
		return domain.Observer{}, errParams("lon must be a number in [-180, 180)")
	}

	var alt float64
	if altStr := q.Get("alt"); altStr != "" {
		alt, err = strconv.ParseFloat(altStr, 64)
		if err != nil {
			return domain.Observer{}, errParams("alt must be a number")
		}
	}

	return domain.Observer{Latitude: lat, Longitude: lon, AltitudeMeters: alt}, nil
}

type errParams string

func (e errParams) Error() string { return string(e) }

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort health response
}
