package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/lexilens/lexilens-go/internal/middleware"
	"github.com/lexilens/lexilens-go/internal/model"
	"github.com/lexilens/lexilens-go/internal/store"
)

type NotesHandler struct {
	store *store.Store
}

func NewNotesHandler(s *store.Store) *NotesHandler {
	return &NotesHandler{store: s}
}

// List handles GET /api/notes?videoId=...
func (h *NotesHandler) List(c fiber.Ctx) error {
	videoID, errMsg := middleware.ValidateVideoID(c.Query("videoId"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}
	return c.JSON(h.store.GetNotes(videoID))
}

// Videos handles GET /api/videos — every video grouping with its notes.
func (h *NotesHandler) Videos(c fiber.Ctx) error {
	return c.JSON(h.store.GetAllVideosWithNotes())
}

// Save handles POST /api/notes
func (h *NotesHandler) Save(c fiber.Ctx) error {
	var req model.Note
	if err := c.Bind().JSON(&req); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_BODY", "Invalid request body")
	}

	videoID, errMsg := middleware.ValidateVideoID(req.VideoID)
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}
	req.VideoID = videoID

	content, errMsg := middleware.ValidateContent(req.Content)
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}
	req.Content = content

	tags, errMsg := middleware.ValidateTags(req.Tags)
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}
	req.Tags = tags

	saved := h.store.SaveNote(c.Context(), &req)
	if saved == nil {
		return middleware.ErrorResponse(c, fiber.StatusBadGateway, "WRITE_FAILED", "Note could not be written to the remote store")
	}
	Metrics.SavesTotal.WithLabelValues("notes").Inc()
	return c.JSON(saved)
}

// Delete handles DELETE /api/notes/:id
func (h *NotesHandler) Delete(c fiber.Ctx) error {
	id, errMsg := middleware.ValidateEntityID(c.Params("id"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	if !h.store.DeleteNote(c.Context(), id) {
		return middleware.ErrorResponse(c, fiber.StatusBadGateway, "WRITE_FAILED", "Note could not be deleted from the remote store")
	}
	Metrics.DeletesTotal.WithLabelValues("notes").Inc()
	return c.JSON(fiber.Map{"success": true})
}
