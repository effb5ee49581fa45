package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"assist_server/pkg/metrics"
)

// HealthHandler serves liveness, readiness and pipeline metrics.
type HealthHandler struct {
	db      *sqlx.DB
	redis   *redis.Client
	metrics *metrics.StageMetrics
}

func NewHealthHandler(db *sqlx.DB, redisClient *redis.Client, m *metrics.StageMetrics) *HealthHandler {
	return &HealthHandler{db: db, redis: redisClient, metrics: m}
}

func (h *HealthHandler) Register(app *fiber.App) {
	app.Get("/health", h.Health)
	app.Get("/ready", h.Ready)
	app.Get("/metrics", h.Metrics)
}

func (h *HealthHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]string)
	allHealthy := true

	if h.db != nil {
		if err := h.db.PingContext(ctx); err != nil {
			checks["postgres"] = "unhealthy: " + err.Error()
			allHealthy = false
		} else {
			checks["postgres"] = "healthy"
		}
	} else {
		checks["postgres"] = "not configured"
	}

	if h.redis != nil {
		if err := h.redis.Ping(ctx).Err(); err != nil {
			checks["redis"] = "unhealthy: " + err.Error()
			allHealthy = false
		} else {
			checks["redis"] = "healthy"
		}
	} else {
		checks["redis"] = "not configured"
	}

	status := fiber.StatusOK
	if !allHealthy {
		status = fiber.StatusServiceUnavailable
	}
	return c.Status(status).JSON(fiber.Map{
		"ready":     allHealthy,
		"checks":    checks,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// Metrics exposes per-stage latency percentiles and fallback counts.
func (h *HealthHandler) Metrics(c *fiber.Ctx) error {
	if h.metrics == nil {
		return c.JSON(fiber.Map{"stages": []any{}})
	}
	return c.JSON(fiber.Map{"stages": h.metrics.Snapshot()})
}
