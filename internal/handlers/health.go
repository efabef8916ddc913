package handlers

import (
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/bayanwatch/patrol-server/internal/models"
	"github.com/bayanwatch/patrol-server/internal/quota"
)

var startTime = time.Now()

const version = "1.3.0"

// HealthHandler provides health check endpoints
type HealthHandler struct {
	db     *pgxpool.Pool
	rdb    *redis.Client
	writer *quota.Writer
	logger *zap.SugaredLogger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db *pgxpool.Pool, rdb *redis.Client, writer *quota.Writer, logger *zap.SugaredLogger) *HealthHandler {
	return &HealthHandler{db: db, rdb: rdb, writer: writer, logger: logger}
}

// Check handles GET /health (liveness probe)
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, models.HealthStatus{
		Status:  "ok",
		Version: version,
		Uptime:  time.Since(startTime).String(),
	})
}

// Ready handles GET /health/ready (readiness probe). A tripped write
// breaker does not make the service unready; reads still work.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	status := models.HealthStatus{
		Status:   "ready",
		Version:  version,
		Uptime:   time.Since(startTime).String(),
		Database: "connected",
		Redis:    "connected",
		Writes:   "open",
	}

	if err := h.db.Ping(r.Context()); err != nil {
		status.Status = "not ready"
		status.Database = "disconnected"
		respondJSON(w, http.StatusServiceUnavailable, status)
		return
	}
	if err := h.rdb.Ping(r.Context()).Err(); err != nil {
		status.Redis = "disconnected"
	}
	if state, err := h.writer.Blocked(r.Context()); err == nil && state.IsBlocked {
		status.Writes = "quota-blocked"
	}

	respondJSON(w, http.StatusOK, status)
}
