package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/lexilens/lexilens-go/internal/middleware"
	"github.com/lexilens/lexilens-go/internal/model"
	"github.com/lexilens/lexilens-go/internal/store"
)

type WordsHandler struct {
	store *store.Store
}

func NewWordsHandler(s *store.Store) *WordsHandler {
	return &WordsHandler{store: s}
}

// List handles GET /api/words
func (h *WordsHandler) List(c fiber.Ctx) error {
	return c.JSON(h.store.GetAllSavedWords())
}

// Save handles POST /api/words
func (h *WordsHandler) Save(c fiber.Ctx) error {
	var req model.SavedWord
	if err := c.Bind().JSON(&req); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_BODY", "Invalid request body")
	}

	word, errMsg := middleware.ValidateWord(req.Word)
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}
	req.Word = word

	lang, errMsg := middleware.ValidateLanguage(req.Language)
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}
	req.Language = lang

	tags, errMsg := middleware.ValidateTags(req.Tags)
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}
	req.Tags = tags

	saved := h.store.SaveWord(c.Context(), &req)
	if saved == nil {
		return middleware.ErrorResponse(c, fiber.StatusBadGateway, "WRITE_FAILED", "Word could not be written to the remote store")
	}
	Metrics.SavesTotal.WithLabelValues("savedWords").Inc()
	return c.JSON(saved)
}

// Delete handles DELETE /api/words/:id
func (h *WordsHandler) Delete(c fiber.Ctx) error {
	id, errMsg := middleware.ValidateEntityID(c.Params("id"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	if !h.store.DeleteWord(c.Context(), id) {
		return middleware.ErrorResponse(c, fiber.StatusBadGateway, "WRITE_FAILED", "Word could not be deleted from the remote store")
	}
	Metrics.DeletesTotal.WithLabelValues("savedWords").Inc()
	return c.JSON(fiber.Map{"success": true})
}

type WordlistsHandler struct {
	store *store.Store
}

func NewWordlistsHandler(s *store.Store) *WordlistsHandler {
	return &WordlistsHandler{store: s}
}

// List handles GET /api/wordlists
func (h *WordlistsHandler) List(c fiber.Ctx) error {
	return c.JSON(h.store.GetAllWordlists())
}

// Get handles GET /api/wordlists/:id
func (h *WordlistsHandler) Get(c fiber.Ctx) error {
	id, errMsg := middleware.ValidateEntityID(c.Params("id"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	wl := h.store.GetWordlist(id)
	if wl == nil {
		return middleware.ErrorResponse(c, fiber.StatusNotFound, "NOT_FOUND", "Wordlist not found")
	}
	return c.JSON(wl)
}

// Save handles POST /api/wordlists
func (h *WordlistsHandler) Save(c fiber.Ctx) error {
	var req model.Wordlist
	if err := c.Bind().JSON(&req); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_BODY", "Invalid request body")
	}

	name, errMsg := middleware.ValidateName(req.Name)
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}
	req.Name = name

	lang, errMsg := middleware.ValidateLanguage(req.Language)
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}
	req.Language = lang

	for _, wid := range req.WordIDs {
		if _, errMsg := middleware.ValidateEntityID(wid); errMsg != "" {
			return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", "wordIds contains an invalid id")
		}
	}

	saved := h.store.SaveWordlist(c.Context(), &req)
	if saved == nil {
		return middleware.ErrorResponse(c, fiber.StatusBadGateway, "WRITE_FAILED", "Wordlist could not be written to the remote store")
	}
	Metrics.SavesTotal.WithLabelValues("wordlists").Inc()
	return c.JSON(saved)
}

// Delete handles DELETE /api/wordlists/:id
func (h *WordlistsHandler) Delete(c fiber.Ctx) error {
	id, errMsg := middleware.ValidateEntityID(c.Params("id"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	if !h.store.DeleteWordlist(c.Context(), id) {
		return middleware.ErrorResponse(c, fiber.StatusBadGateway, "WRITE_FAILED", "Wordlist could not be deleted from the remote store")
	}
	Metrics.DeletesTotal.WithLabelValues("wordlists").Inc()
	return c.JSON(fiber.Map{"success": true})
}
