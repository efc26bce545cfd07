package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v3"

	"github.com/lexilens/lexilens-go/internal/auth"
)

// RequireUser verifies the Bearer token and stores the user id in request
// locals for handlers and user-keyed rate limits.
func RequireUser(verifier *auth.Verifier) fiber.Handler {
	return func(c fiber.Ctx) error {
		header := c.Get("Authorization")
		if header == "" {
			return ErrorResponse(c, fiber.StatusUnauthorized, "UNAUTHORIZED", "Authorization header is required")
		}
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			return ErrorResponse(c, fiber.StatusUnauthorized, "UNAUTHORIZED", "Authorization must be a Bearer token")
		}

		userID, err := verifier.UserFromToken(token)
		if err != nil {
			return ErrorResponse(c, fiber.StatusUnauthorized, "UNAUTHORIZED", "Invalid or expired token")
		}

		c.Locals("userID", userID)
		return c.Next()
	}
}

// UserID reads the authenticated user id set by RequireUser.
func UserID(c fiber.Ctx) string {
	uid, _ := c.Locals("userID").(string)
	return uid
}
