// Seismograph - Multi-Catalog Seismic Event Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seismograph

package ops

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/seismograph/internal/config"
	"github.com/tomtom215/seismograph/internal/logging"
)

// Pinger reports whether the backing database answers. *database.DB
// satisfies it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server builds the ops listener. Probes tolerate frequent polling; the
// per-IP limit exists to keep an open port from becoming a nuisance.
type Server struct {
	db        Pinger
	listen    string
	startTime time.Time

	// rateLimit is requests per IP per minute, overridable in tests.
	rateLimit int
}

// NewServer creates the ops server for the configured listen address.
func NewServer(db Pinger, cfg config.OpsConfig) *Server {
	return &Server{
		db:        db,
		listen:    cfg.Listen,
		startTime: time.Now(),
		rateLimit: 1000,
	}
}

// Handler assembles the ops router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(requestMetrics)
	r.Use(httprate.LimitByIP(s.rateLimit, time.Minute))

	r.Get("/healthz", s.handleHealthz)
	r.Get("/readyz", s.handleReadyz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	return r
}

// HTTPServer wraps the router in a server bound to the configured address,
// ready to hand to the supervisor.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         s.listen,
		Handler:      s.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// handleHealthz answers liveness probes. Reaching the handler is the check.
func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":         "ok",
		"uptime_seconds": time.Since(s.startTime).Seconds(),
	})
}

// handleReadyz answers readiness probes: ready means the database responds.
func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	dbConnected := s.db != nil && s.db.Ping(r.Context()) == nil

	status := "ready"
	code := http.StatusOK
	if !dbConnected {
		status = "not_ready"
		code = http.StatusServiceUnavailable
	}

	respondJSON(w, code, map[string]any{
		"status":             status,
		"database_connected": dbConnected,
	})
}

func respondJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.Err(err).Msg("Failed to encode ops response")
	}
}
