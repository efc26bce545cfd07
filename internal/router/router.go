package router

import (
	"github.com/gofiber/fiber/v3"
	recoverer "github.com/gofiber/fiber/v3/middleware/recover"

	"github.com/lexilens/lexilens-go/internal/auth"
	"github.com/lexilens/lexilens-go/internal/handler"
	"github.com/lexilens/lexilens-go/internal/middleware"
)

// Handlers holds all handler instances needed by the router.
type Handlers struct {
	Notes     *handler.NotesHandler
	Chats     *handler.ChatsHandler
	Words     *handler.WordsHandler
	Wordlists *handler.WordlistsHandler
	User      *handler.UserHandler
	Sync      *handler.SyncHandler
	Auth      *handler.AuthHandler
	Health    *handler.HealthHandler
}

// Setup configures the middleware stack and all API routes on the given Fiber app.
func Setup(app *fiber.App, h *Handlers, verifier *auth.Verifier, corsOrigins string) {
	// Middleware stack (order matters)
	app.Use(recoverer.New())
	app.Use(middleware.NewRequestLogger())
	app.Use(handler.MetricsMiddleware())
	app.Use(middleware.NewCORS(corsOrigins))

	// Probes and metrics (no auth)
	app.Get("/health/live", h.Health.Live)
	app.Get("/health/ready", h.Health.Ready)
	app.Get("/metrics", handler.MetricsHandler())

	readLimit := middleware.NewReadRateLimiter().Handler()
	writeLimit := middleware.NewWriteRateLimiter().Handler()
	syncLimit := middleware.NewSyncRateLimiter().Handler()
	authLimit := middleware.NewAuthRateLimiter().Handler()

	api := app.Group("/api")

	// Auth routes (token exchange, no bearer required)
	api.Post("/auth/login", h.Auth.Login, authLimit)
	api.Post("/auth/logout", h.Auth.Logout, authLimit)
	api.Get("/auth/status", h.Auth.Status, readLimit)

	// Everything below requires an authenticated extension window.
	requireUser := middleware.RequireUser(verifier)

	// Note routes
	api.Get("/notes", h.Notes.List, requireUser, readLimit)
	api.Post("/notes", h.Notes.Save, requireUser, writeLimit)
	api.Delete("/notes/:id", h.Notes.Delete, requireUser, writeLimit)
	api.Get("/videos", h.Notes.Videos, requireUser, readLimit)

	// Chat routes
	api.Get("/chats", h.Chats.List, requireUser, readLimit)
	api.Get("/chats/:id", h.Chats.Get, requireUser, readLimit)
	api.Post("/chats", h.Chats.Save, requireUser, writeLimit)
	api.Delete("/chats/:id", h.Chats.Delete, requireUser, writeLimit)

	// Saved word routes
	api.Get("/words", h.Words.List, requireUser, readLimit)
	api.Post("/words", h.Words.Save, requireUser, writeLimit)
	api.Delete("/words/:id", h.Words.Delete, requireUser, writeLimit)

	// Wordlist routes
	api.Get("/wordlists", h.Wordlists.List, requireUser, readLimit)
	api.Get("/wordlists/:id", h.Wordlists.Get, requireUser, readLimit)
	api.Post("/wordlists", h.Wordlists.Save, requireUser, writeLimit)
	api.Delete("/wordlists/:id", h.Wordlists.Delete, requireUser, writeLimit)

	// User routes
	api.Get("/user", h.User.Get, requireUser, readLimit)
	api.Put("/user/settings", h.User.UpdateSettings, requireUser, writeLimit)

	// Sync routes
	api.Post("/sync", h.Sync.Trigger, requireUser, syncLimit)
	api.Get("/sync/state", h.Sync.State, requireUser, readLimit)
}
