package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/veriscribe/signature-api/internal/core/ports"
)

const healthCheckTimeout = 2 * time.Second

// HealthHandler backs the liveness and readiness probes.
type HealthHandler struct {
	mongo  *mongo.Client
	redis  *redis.Client
	health ports.StoreHealth
}

func NewHealthHandler(mongoClient *mongo.Client, redisClient *redis.Client, health ports.StoreHealth) *HealthHandler {
	return &HealthHandler{mongo: mongoClient, redis: redisClient, health: health}
}

// Live reports process liveness only.
func (h *HealthHandler) Live(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// Ready pings the backing stores. Redis being down degrades (rate limiting
// fails open) but does not fail readiness; Mongo being down does.
func (h *HealthHandler) Ready(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), healthCheckTimeout)
	defer cancel()

	status := map[string]string{"mongo": "ok", "redis": "ok"}
	healthy := true

	if h.mongo == nil || h.mongo.Ping(ctx, readpref.Primary()) != nil {
		status["mongo"] = "unreachable"
		healthy = false
	}
	if h.redis == nil || h.redis.Ping(ctx).Err() != nil {
		status["redis"] = "unreachable"
	}

	code := http.StatusOK
	if !healthy {
		code = http.StatusServiceUnavailable
	}
	return c.JSON(code, map[string]any{
		"status":   status,
		"degraded": !h.health.Reachable(),
	})
}
