package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/lexilens/lexilens-go/internal/middleware"
	"github.com/lexilens/lexilens-go/internal/store"
)

type SyncHandler struct {
	store *store.Store
}

func NewSyncHandler(s *store.Store) *SyncHandler {
	return &SyncHandler{store: s}
}

// Trigger handles POST /api/sync — kicks off a full resync. The sync runs
// in the background; progress arrives over the websocket feed and
// GET /api/sync/state.
func (h *SyncHandler) Trigger(c fiber.Ctx) error {
	if h.store.CurrentUser() == "" {
		return middleware.ErrorResponse(c, fiber.StatusUnauthorized, "UNAUTHORIZED", "No user is logged in")
	}
	if !h.store.IsConnected() {
		return middleware.ErrorResponse(c, fiber.StatusServiceUnavailable, "OFFLINE", "Remote store is unreachable")
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()
		start := time.Now()
		ok := h.store.SyncAll(ctx)
		result := "ok"
		if !ok {
			result = "failed"
		}
		Metrics.SyncRunsTotal.WithLabelValues(result).Inc()
		Metrics.SyncDuration.Observe(time.Since(start).Seconds())
	}()

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"status": "started"})
}

// State handles GET /api/sync/state
func (h *SyncHandler) State(c fiber.Ctx) error {
	return c.JSON(h.store.GetSyncState())
}
