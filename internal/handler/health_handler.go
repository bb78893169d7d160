package handler

import (
	"net/http"
	"time"

	"pagepilot/pkg/database"
	"pagepilot/pkg/logger"
	"pagepilot/pkg/redis"
)

// HealthHandler reports service liveness and dependency health
type HealthHandler struct {
	db          *database.PostgresDB
	redisClient *redis.Client
	logger      *logger.Logger
}

// NewHealthHandler creates a new health handler. redisClient may be nil.
func NewHealthHandler(db *database.PostgresDB, redisClient *redis.Client, log *logger.Logger) *HealthHandler {
	return &HealthHandler{
		db:          db,
		redisClient: redisClient,
		logger:      log,
	}
}

// Check handles GET /health
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	status := http.StatusOK

	checks := map[string]string{}

	if err := h.db.Health(ctx); err != nil {
		checks["database"] = "unhealthy"
		status = http.StatusServiceUnavailable
	} else {
		checks["database"] = "healthy"
	}

	if h.redisClient != nil {
		if err := h.redisClient.Health(ctx); err != nil {
			// Cache is best effort, the service still works without it
			checks["redis"] = "unhealthy"
		} else {
			checks["redis"] = "healthy"
		}
	}

	respondJSON(w, status, map[string]interface{}{
		"checks":    checks,
		"timestamp": time.Now().UTC(),
	}, h.logger)
}
