package handlers

import (
	"net/http"
	"time"

	"github.com/sidkm/sift/pkg/database"
	"github.com/sidkm/sift/pkg/logger"
	"github.com/sidkm/sift/pkg/redis"
)

// HealthHandler reports process and dependency health
type HealthHandler struct {
	db      *database.DB
	redis   *redis.Client
	logger  *logger.Logger
	started time.Time
}

// NewHealthHandler creates a new health handler. db and redis may be
// nil when those backends are not configured.
func NewHealthHandler(db *database.DB, rdb *redis.Client, log *logger.Logger) *HealthHandler {
	return &HealthHandler{
		db:      db,
		redis:   rdb,
		logger:  log,
		started: time.Now(),
	}
}

// Liveness answers as long as the process is serving
// GET /health
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"service": "sift-api",
		"uptime":  time.Since(h.started).Round(time.Second).String(),
	})
}

// Readiness checks the configured backends
// GET /health/deep
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	checks := map[string]interface{}{}
	healthy := true

	if h.db != nil {
		status, err := h.db.HealthCheck(ctx)
		checks["database"] = status
		if err != nil {
			healthy = false
		}
	} else {
		checks["database"] = "not configured"
	}

	if h.redis != nil && h.redis.Enabled() {
		if err := h.redis.Ping(ctx); err != nil {
			checks["redis"] = map[string]string{"error": err.Error()}
			healthy = false
		} else {
			checks["redis"] = "ok"
		}
	} else {
		checks["redis"] = "not configured"
	}

	status := http.StatusOK
	overall := "ok"
	if !healthy {
		status = http.StatusServiceUnavailable
		overall = "degraded"
	}

	respondJSON(w, status, map[string]interface{}{
		"status": overall,
		"checks": checks,
	})
}
