package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/spec-kit/admission-service/internal/api/http/handlers"
	"github.com/spec-kit/admission-service/internal/auth"
	"github.com/spec-kit/admission-service/internal/domain"
	"github.com/spec-kit/admission-service/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Credentials    *handlers.CredentialsHandler
	AuthMiddleware *auth.AuthMiddleware
	Metrics        *observability.Metrics
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics.Handler()))
	}

	bookings := app.Group("/api/bookings")
	bookings.Get("/verify/:token", cfg.Credentials.Verify)
	bookings.Get("/token/:token", cfg.Credentials.GetByToken)

	authenticated := bookings.Group("", cfg.AuthMiddleware.Handle, auth.RequireAnyRole())
	authenticated.Post("/", cfg.Credentials.Create)
	authenticated.Get("/my-bookings", cfg.Credentials.ListMine)

	staff := auth.RequireStaffRole(domain.StaffRoleGate, domain.StaffRoleAdmin)
	authenticated.Post("/:id/confirm", staff, cfg.Credentials.Confirm)
	authenticated.Post("/:id/complete", staff, cfg.Credentials.Complete)
	authenticated.Post("/:id/cancel", auth.RequireStaffRole(domain.StaffRoleAdmin), cfg.Credentials.Cancel)
}
