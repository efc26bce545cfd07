package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/lexilens/lexilens-go/internal/broadcast"
	"github.com/lexilens/lexilens-go/internal/docstore"
	"github.com/lexilens/lexilens-go/internal/store"
	"github.com/lexilens/lexilens-go/internal/ws"
)

type HealthHandler struct {
	remote    docstore.Store
	transport *broadcast.Redis
	store     *store.Store
	hub       *ws.Hub
	startAt   time.Time
}

func NewHealthHandler(remote docstore.Store, transport *broadcast.Redis, s *store.Store, hub *ws.Hub) *HealthHandler {
	return &HealthHandler{
		remote:    remote,
		transport: transport,
		store:     s,
		hub:       hub,
		startAt:   time.Now(),
	}
}

// Live handles GET /health/live — liveness probe.
func (h *HealthHandler) Live(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// Ready handles GET /health/ready — readiness probe with dependency checks.
func (h *HealthHandler) Ready(c fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 3*time.Second)
	defer cancel()

	checks := make(fiber.Map)
	overallStatus := "healthy"

	checks["docstore"] = checkDocstore(ctx, h.remote)
	if dc, ok := checks["docstore"].(fiber.Map); ok && dc["status"] != "up" {
		overallStatus = "degraded"
	}

	checks["broadcast"] = checkBroadcast(h.transport)

	checks["store"] = fiber.Map{
		"connected": h.store.IsConnected(),
		"user":      h.store.CurrentUser() != "",
	}
	if h.hub != nil {
		checks["websocket"] = fiber.Map{"clients": h.hub.ClientCount()}
	}

	resp := fiber.Map{
		"status":         overallStatus,
		"checks":         checks,
		"uptime_seconds": int(time.Since(h.startAt).Seconds()),
		"version":        "1.0.0",
	}

	status := fiber.StatusOK
	if overallStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
	}
	return c.Status(status).JSON(resp)
}

func checkDocstore(ctx context.Context, remote docstore.Store) fiber.Map {
	if remote == nil {
		return fiber.Map{"status": "disabled"}
	}

	start := time.Now()
	err := remote.Ping(ctx)
	latency := time.Since(start).Milliseconds()

	if err != nil {
		return fiber.Map{
			"status":     "down",
			"latency_ms": latency,
			"error":      "connection failed",
		}
	}
	return fiber.Map{
		"status":     "up",
		"latency_ms": latency,
	}
}

func checkBroadcast(transport *broadcast.Redis) fiber.Map {
	if transport == nil || !transport.Enabled() {
		return fiber.Map{"status": "disabled"}
	}
	return fiber.Map{"status": "up"}
}
