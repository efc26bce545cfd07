package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/lexilens/lexilens-go/internal/middleware"
	"github.com/lexilens/lexilens-go/internal/model"
	"github.com/lexilens/lexilens-go/internal/store"
)

type UserHandler struct {
	store *store.Store
}

func NewUserHandler(s *store.Store) *UserHandler {
	return &UserHandler{store: s}
}

// Get handles GET /api/user
func (h *UserHandler) Get(c fiber.Ctx) error {
	ud := h.store.GetUserData()
	if ud == nil {
		return middleware.ErrorResponse(c, fiber.StatusNotFound, "NOT_FOUND", "No user profile loaded")
	}
	return c.JSON(ud)
}

// UpdateSettings handles PUT /api/user/settings
func (h *UserHandler) UpdateSettings(c fiber.Ctx) error {
	var req model.Settings
	if err := c.Bind().JSON(&req); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_BODY", "Invalid request body")
	}

	lang, errMsg := middleware.ValidateLanguage(req.Language)
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}
	if lang == "" {
		lang = model.DefaultSettings().Language
	}
	req.Language = lang
	if req.FontSize <= 0 || req.FontSize > 72 {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", "fontSize must be between 1 and 72")
	}

	updated := h.store.UpdateSettings(c.Context(), req)
	if updated == nil {
		return middleware.ErrorResponse(c, fiber.StatusBadGateway, "WRITE_FAILED", "Settings could not be written to the remote store")
	}
	return c.JSON(updated)
}
