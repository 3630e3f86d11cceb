package api

import (
	"context"
	"net/http"
	"time"
)

// HealthChecker defines the interface for components that can be health
// checked.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// HealthHandlers provides liveness and readiness endpoints.
type HealthHandlers struct {
	dbChecker    HealthChecker
	redisChecker HealthChecker
}

// HealthHandlersConfig configures the health check handlers. Checkers
// are optional; nil checkers are skipped.
type HealthHandlersConfig struct {
	DBChecker    HealthChecker
	RedisChecker HealthChecker
}

// NewHealthHandlers creates a new health check handler.
func NewHealthHandlers(config HealthHandlersConfig) *HealthHandlers {
	return &HealthHandlers{
		dbChecker:    config.DBChecker,
		redisChecker: config.RedisChecker,
	}
}

// HealthResponse represents the JSON response for health checks.
type HealthResponse struct {
	Status    string            `json:"status"`
	Checks    map[string]string `json:"checks"`
	Timestamp string            `json:"timestamp"`
}

// Health handles GET /health (liveness probe). If we can respond, the
// process is alive.
func (h *HealthHandlers) Health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		errorWithCode(w, r, http.StatusMethodNotAllowed, ErrCodeBadRequest, "Method not allowed")
		return
	}

	response := HealthResponse{
		Status:    "healthy",
		Checks:    map[string]string{"runtime": "ok"},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	writeJSON(w, http.StatusOK, response)
}

// Ready handles GET /ready (readiness probe). Checks the database and
// the cache; the database is critical, the cache is not (the engine
// recomputes on misses), so a failing cache degrades but stays ready.
func (h *HealthHandlers) Ready(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		errorWithCode(w, r, http.StatusMethodNotAllowed, ErrCodeBadRequest, "Method not allowed")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	response := HealthResponse{
		Status:    "ready",
		Checks:    make(map[string]string),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	status := http.StatusOK

	if h.dbChecker != nil {
		if err := h.dbChecker.HealthCheck(ctx); err != nil {
			response.Checks["database"] = "unavailable: " + err.Error()
			response.Status = "not ready"
			status = http.StatusServiceUnavailable
		} else {
			response.Checks["database"] = "ok"
		}
	}

	if h.redisChecker != nil {
		if err := h.redisChecker.HealthCheck(ctx); err != nil {
			// Cache outage is non-critical; feeds recompute from the DB.
			response.Checks["redis"] = "degraded: " + err.Error()
		} else {
			response.Checks["redis"] = "ok"
		}
	}

	writeJSON(w, status, response)
}
