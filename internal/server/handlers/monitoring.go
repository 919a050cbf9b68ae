package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"git.home.luguber.info/inful/linkbio/internal/foundation/errors"
	"git.home.luguber.info/inful/linkbio/internal/logfields"
	"git.home.luguber.info/inful/linkbio/internal/server/responses"
	"git.home.luguber.info/inful/linkbio/internal/version"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// MonitoringHandlers contains monitoring-related HTTP handlers.
type MonitoringHandlers struct {
	db           Pinger
	startTime    time.Time
	errorAdapter *errors.HTTPErrorAdapter
}

// NewMonitoringHandlers creates a new monitoring handlers instance.
func NewMonitoringHandlers(db Pinger, adapter *errors.HTTPErrorAdapter) *MonitoringHandlers {
	return &MonitoringHandlers{
		db:           db,
		startTime:    time.Now(),
		errorAdapter: adapter,
	}
}

// HandleHealthCheck reports liveness.
func (h *MonitoringHandlers) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	health := &responses.HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Version:   version.Version,
		Uptime:    time.Since(h.startTime).Seconds(),
	}
	respond(w, r, h.errorAdapter, http.StatusOK, health)
}

// HandleReadiness reports ready only when the database answers a ping.
func (h *MonitoringHandlers) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := h.db.Ping(ctx); err != nil {
		slog.WarnContext(ctx, "Readiness check failed", logfields.Error(err))
		respond(w, r, h.errorAdapter, http.StatusServiceUnavailable, responses.ReadinessResponse{Status: "not ready", Database: "unreachable"})
		return
	}
	respond(w, r, h.errorAdapter, http.StatusOK, responses.ReadinessResponse{Status: "ready", Database: "ok"})
}
