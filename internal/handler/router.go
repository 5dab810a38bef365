package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/timeout"

	"github.com/adstudio/api/internal/config"
	"github.com/adstudio/api/internal/middleware"
)

// Handlers groups every route handler
type Handlers struct {
	Health   *HealthHandler
	Auth     *AuthHandler
	Script   *ScriptHandler
	Video    *VideoHandler
	Jobs     *VideoJobHandler
	Projects *ProjectHandler
}

// RouteConfig carries the middleware the routes are wrapped in
type RouteConfig struct {
	// OptionalAuth guards generation routes; it may let anonymous
	// callers through. RequiredAuth guards per-user resources.
	OptionalAuth   fiber.Handler
	RequiredAuth   fiber.Handler
	RateLimiter    *middleware.RateLimiter
	RateLimit      config.RateLimitConfig
	RequestTimeout time.Duration
	VideosDir      string
}

// Mount registers all routes on app
func Mount(app *fiber.App, h *Handlers, rc RouteConfig) {
	app.Get("/", h.Health.Root)
	app.Get("/health", h.Health.Health)

	// ForwardAuth verification endpoint (internal, called by the gateway)
	app.Get("/auth/verify", h.Auth.Verify)

	if rc.VideosDir != "" {
		app.Static("/videos", rc.VideosDir, fiber.Static{ByteRange: true})
	}

	bounded := func(fn fiber.Handler) fiber.Handler {
		if rc.RequestTimeout <= 0 {
			return fn
		}
		return timeout.NewWithContext(fn, rc.RequestTimeout)
	}

	api := app.Group("/api")
	api.Get("/archetypes", h.Script.Archetypes)
	api.Get("/styles", h.Script.Styles)

	api.Post("/generate-script", rc.OptionalAuth, rc.RateLimiter.ScriptLimit(rc.RateLimit.ScriptPerMin), bounded(h.Script.Generate))
	api.Post("/generate-video", rc.OptionalAuth, rc.RateLimiter.VideoLimit(rc.RateLimit.VideoPerHour), bounded(h.Video.Generate))

	jobs := api.Group("/video/jobs", rc.OptionalAuth)
	jobs.Post("/", rc.RateLimiter.VideoLimit(rc.RateLimit.VideoPerHour), h.Jobs.Start)
	jobs.Get("/:jobId", h.Jobs.Status)
	jobs.Get("/:jobId/result", h.Jobs.Result)
	jobs.Post("/:jobId/cancel", h.Jobs.Cancel)

	projects := api.Group("/projects", rc.RequiredAuth)
	projects.Post("/", h.Projects.Create)
	projects.Get("/", h.Projects.List)
	projects.Get("/:id", h.Projects.Get)
	projects.Put("/:id", h.Projects.Update)
	projects.Delete("/:id", h.Projects.Delete)
	api.Get("/subscription", rc.RequiredAuth, h.Projects.Subscription)
	api.Get("/usage", rc.RequiredAuth, h.Projects.Usage)

	app.Use("/ws", h.Jobs.Upgrade)
	app.Get("/ws/jobs/:jobId", h.Jobs.Subscribe())
}
