package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/lexilens/lexilens-go/internal/auth"
	"github.com/lexilens/lexilens-go/internal/middleware"
	"github.com/lexilens/lexilens-go/internal/store"
)

type AuthHandler struct {
	session  *auth.Session
	verifier *auth.Verifier
	store    *store.Store
}

func NewAuthHandler(session *auth.Session, verifier *auth.Verifier, s *store.Store) *AuthHandler {
	return &AuthHandler{session: session, verifier: verifier, store: s}
}

type loginRequest struct {
	Token string `json:"token"`
}

// Login handles POST /api/auth/login. The extension passes its identity
// token; a valid one logs the daemon session in, which triggers a full
// hydration sync.
func (h *AuthHandler) Login(c fiber.Ctx) error {
	var req loginRequest
	if err := c.Bind().JSON(&req); err != nil || req.Token == "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_BODY", "A token is required")
	}

	userID, err := h.verifier.UserFromToken(req.Token)
	if err != nil {
		return middleware.ErrorResponse(c, fiber.StatusUnauthorized, "UNAUTHORIZED", "Invalid or expired token")
	}

	h.session.Login(userID)
	return c.JSON(fiber.Map{"userId": userID})
}

// Logout handles POST /api/auth/logout. Clears the session; the store
// drops every collection and wipes the local cache in response.
func (h *AuthHandler) Logout(c fiber.Ctx) error {
	h.session.Logout()
	return c.JSON(fiber.Map{"success": true})
}

// Status handles GET /api/auth/status.
func (h *AuthHandler) Status(c fiber.Ctx) error {
	uid := h.session.Current()
	return c.JSON(fiber.Map{
		"loggedIn":  uid != "",
		"userId":    uid,
		"connected": h.store.IsConnected(),
	})
}
