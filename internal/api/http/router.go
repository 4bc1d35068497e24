package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spec-kit/tenancy-service/internal/api/http/handlers"
	"github.com/spec-kit/tenancy-service/internal/auth"
	"github.com/spec-kit/tenancy-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Tenancy        *handlers.TenancyHandler
	AuthMiddleware *auth.AuthMiddleware
	// Gatherer backs /metrics; the route is skipped when nil.
	Gatherer prometheus.Gatherer
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}

	app.Post("/auth/login", cfg.Auth.Login)

	admin := app.Group("/tenants", cfg.AuthMiddleware.Handle, auth.RequireRole(domain.RoleAdmin))
	admin.Put("/:tenantId/assign-department", cfg.Tenancy.Assign)
	admin.Delete("/:tenantId/unassign-department", cfg.Tenancy.Unassign)
	admin.Get("/:tenantId/department", cfg.Tenancy.GetDepartment)
	admin.Get("/:tenantId/tenancy-history", cfg.Tenancy.History)

	me := app.Group("/me", cfg.AuthMiddleware.Handle, auth.RequireRole(domain.RoleTenant))
	me.Get("/department", cfg.Tenancy.MyDepartment)
}
