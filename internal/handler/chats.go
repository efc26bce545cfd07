package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/lexilens/lexilens-go/internal/middleware"
	"github.com/lexilens/lexilens-go/internal/model"
	"github.com/lexilens/lexilens-go/internal/store"
)

type ChatsHandler struct {
	store *store.Store
}

func NewChatsHandler(s *store.Store) *ChatsHandler {
	return &ChatsHandler{store: s}
}

// List handles GET /api/chats
func (h *ChatsHandler) List(c fiber.Ctx) error {
	return c.JSON(h.store.GetAllChats())
}

// Get handles GET /api/chats/:id
func (h *ChatsHandler) Get(c fiber.Ctx) error {
	id, errMsg := middleware.ValidateEntityID(c.Params("id"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	chat := h.store.GetChat(id)
	if chat == nil {
		return middleware.ErrorResponse(c, fiber.StatusNotFound, "NOT_FOUND", "Chat not found")
	}
	return c.JSON(chat)
}

// Save handles POST /api/chats
func (h *ChatsHandler) Save(c fiber.Ctx) error {
	var req model.Chat
	if err := c.Bind().JSON(&req); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_BODY", "Invalid request body")
	}

	tags, errMsg := middleware.ValidateTags(req.Tags)
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}
	req.Tags = tags
	for _, m := range req.Messages {
		if _, errMsg := middleware.ValidateContent(m.Content); errMsg != "" {
			return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
		}
	}

	saved := h.store.SaveChat(c.Context(), &req)
	if saved == nil {
		return middleware.ErrorResponse(c, fiber.StatusBadGateway, "WRITE_FAILED", "Chat could not be written to the remote store")
	}
	Metrics.SavesTotal.WithLabelValues("chats").Inc()
	return c.JSON(saved)
}

// Delete handles DELETE /api/chats/:id
func (h *ChatsHandler) Delete(c fiber.Ctx) error {
	id, errMsg := middleware.ValidateEntityID(c.Params("id"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	if !h.store.DeleteChat(c.Context(), id) {
		return middleware.ErrorResponse(c, fiber.StatusBadGateway, "WRITE_FAILED", "Chat could not be deleted from the remote store")
	}
	Metrics.DeletesTotal.WithLabelValues("chats").Inc()
	return c.JSON(fiber.Map{"success": true})
}
