package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/event-service/internal/api/http/handlers"
	"github.com/spec-kit/event-service/internal/auth"
	"github.com/spec-kit/event-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health        *handlers.HealthHandler
	Auth          *handlers.AuthHandler
	Admin         *handlers.AdminHandler
	Events        *handlers.EventsHandler
	Authenticator *auth.Authenticator
	Guard         *auth.Guard
}

// RegisterRoutes wires HTTP routes. The authenticator runs on every non-health group
// and lets anonymous requests through; the guard decides per route.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/health/metrics", cfg.Health.Metrics)

	authenticated := cfg.Guard.RequireAuthenticated()

	authGroup := app.Group("/auth", cfg.Authenticator.Handle)
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/refresh", cfg.Auth.Refresh)
	authGroup.Post("/logout", cfg.Auth.Logout)
	authGroup.Get("/me", authenticated, cfg.Auth.Me)
	authGroup.Post("/password/change", authenticated, cfg.Auth.ChangePassword)

	admin := app.Group("/admin", cfg.Authenticator.Handle, cfg.Guard.RequireConcealed(domain.RoleAdmin))
	admin.Put("/identities/:subject/roles", cfg.Admin.UpdateRoles)
	admin.Post("/identities/:subject/deactivate", cfg.Admin.Deactivate)

	organizer := cfg.Guard.Require(domain.RoleOrganizer)
	manager := cfg.Guard.Require(domain.RoleOrganizer, domain.RoleAdmin)

	events := app.Group("/api/events", cfg.Authenticator.Handle)
	events.Get("/", cfg.Events.List)
	events.Get("/upcoming", cfg.Events.Upcoming)
	events.Get("/date/:date", cfg.Events.ByDate)
	events.Get("/:id", cfg.Events.Get)
	events.Post("/", organizer, cfg.Events.Create)
	events.Put("/:id", manager, cfg.Events.Update)
	events.Delete("/:id", manager, cfg.Events.Delete)
	events.Patch("/:id/publish", manager, cfg.Events.Publish)
	events.Patch("/:id/cancel", manager, cfg.Events.Cancel)
	events.Patch("/:id/complete", manager, cfg.Events.Complete)
}
