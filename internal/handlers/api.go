package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/serendib/internal/common"
)

// HealthCheck reports one dependency. A nil error means healthy.
type HealthCheck func(ctx context.Context) error

// StatusFunc returns runtime counters shown by the health endpoint
type StatusFunc func() map[string]interface{}

// APIHandler serves the system endpoints
type APIHandler struct {
	checks  map[string]HealthCheck
	status  StatusFunc
	started time.Time
	logger  arbor.ILogger
}

// NewAPIHandler creates the system handler. checks and status may be nil.
func NewAPIHandler(checks map[string]HealthCheck, status StatusFunc, logger arbor.ILogger) *APIHandler {
	return &APIHandler{
		checks:  checks,
		status:  status,
		started: time.Now(),
		logger:  logger,
	}
}

// VersionHandler returns version information
func (h *APIHandler) VersionHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	WriteJSON(w, http.StatusOK, common.CurrentVersion())
}

// HealthHandler runs every dependency check. Any failure turns the response into a 503.
func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ok"
	checks := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			h.logger.Warn().Err(err).Str("check", name).Msg("Health check failed")
			checks[name] = err.Error()
			status = "degraded"
			continue
		}
		checks[name] = "ok"
	}

	body := map[string]interface{}{
		"status":         status,
		"uptime_seconds": int(time.Since(h.started).Seconds()),
		"checks":         checks,
	}
	if h.status != nil {
		body["runtime"] = h.status()
	}

	code := http.StatusOK
	if status != "ok" {
		code = http.StatusServiceUnavailable
	}
	WriteJSON(w, code, body)
}

// NotFoundHandler handles 404 errors with JSON response
func (h *APIHandler) NotFoundHandler(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusNotFound, map[string]interface{}{
		"error":   "Not Found",
		"path":    r.URL.Path,
		"message": "The requested endpoint does not exist",
	})
}
