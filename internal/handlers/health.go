package handlers

import (
	"net/http"
	"time"

	"github.com/muebleria/api/internal/repositories"
)

// BuildInfo carries the metadata reported by the health endpoints.
type BuildInfo struct {
	Version     string
	Environment string
	StartedAt   time.Time
}

// HealthHandlers serves the /healthz and /readyz probes.
type HealthHandlers struct {
	build  BuildInfo
	health repositories.HealthRepository
	clock  func() time.Time
}

// HealthOption customises the health handlers.
type HealthOption func(*HealthHandlers)

// NewHealthHandlers constructs the health endpoints.
func NewHealthHandlers(opts ...HealthOption) *HealthHandlers {
	h := &HealthHandlers{
		clock: time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.build.StartedAt.IsZero() {
		h.build.StartedAt = h.clock().UTC()
	}
	return h
}

// WithHealthBuildInfo sets the version metadata included in probe responses.
func WithHealthBuildInfo(build BuildInfo) HealthOption {
	return func(h *HealthHandlers) {
		h.build = build
	}
}

// WithHealthRepository wires the backend probe used by /readyz.
func WithHealthRepository(repo repositories.HealthRepository) HealthOption {
	return func(h *HealthHandlers) {
		h.health = repo
	}
}

// WithHealthClock overrides the clock, for tests.
func WithHealthClock(clock func() time.Time) HealthOption {
	return func(h *HealthHandlers) {
		if clock != nil {
			h.clock = clock
		}
	}
}

// Healthz reports liveness. It never touches the backend.
func (h *HealthHandlers) Healthz(w http.ResponseWriter, r *http.Request) {
	now := h.clock().UTC()
	writeJSONResponse(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"version":     h.build.Version,
		"environment": h.build.Environment,
		"uptime":      now.Sub(h.build.StartedAt).String(),
		"timestamp":   now.Format(time.RFC3339),
	})
}

// Readyz reports readiness by probing the datastore.
func (h *HealthHandlers) Readyz(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	httpStatus := http.StatusOK
	checks := map[string]any{}

	if h.health != nil {
		if err := h.health.Ping(r.Context()); err != nil {
			status = "degraded"
			httpStatus = http.StatusServiceUnavailable
			checks["firestore"] = map[string]any{"status": "degraded", "error": err.Error()}
		} else {
			checks["firestore"] = map[string]any{"status": "ok"}
		}
	}

	writeJSONResponse(w, httpStatus, map[string]any{
		"status":    status,
		"checks":    checks,
		"timestamp": h.clock().UTC().Format(time.RFC3339),
	})
}
