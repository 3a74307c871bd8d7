package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spec-kit/it-helpdesk/internal/api/http/handlers"
	"github.com/spec-kit/it-helpdesk/internal/auth"
	"github.com/spec-kit/it-helpdesk/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Profile        *handlers.ProfileHandler
	Incidents      *handlers.IncidentsHandler
	StaffIncidents *handlers.StaffIncidentsHandler
	Automation     *handlers.AutomationHandler
	AuthMiddleware *auth.AuthMiddleware
	WebhookGuard   fiber.Handler
	Metrics        *observability.Metrics
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if registry := cfg.Metrics.Registry(); registry != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	}

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/logout", cfg.AuthMiddleware.Handle, cfg.Auth.Logout)
	authGroup.Post("/password/change", cfg.AuthMiddleware.Handle, cfg.Auth.ChangePassword)

	v1 := app.Group("/v1", cfg.AuthMiddleware.Handle)
	v1.Get("/me/profile", cfg.Profile.Get)
	v1.Put("/me/profile", cfg.Profile.Update)

	v1.Post("/incidents", cfg.Incidents.Create)
	v1.Get("/incidents", cfg.Incidents.List)
	v1.Get("/incidents/open-count", cfg.Incidents.OpenCount)
	v1.Get("/incidents/:id", cfg.Incidents.Get)
	v1.Post("/incidents/:id/comments", cfg.Incidents.AddComment)

	staff := v1.Group("/staff", auth.RequireStaff())
	staff.Get("/dashboard", cfg.StaffIncidents.Dashboard)
	staff.Get("/incidents/:id", cfg.StaffIncidents.Get)
	staff.Patch("/incidents/:id", cfg.StaffIncidents.Update)
	staff.Post("/incidents/:id/comments", cfg.Incidents.AddComment)
	staff.Post("/incidents/:id/acknowledge", cfg.StaffIncidents.Acknowledge)
	staff.Post("/incidents/:id/status-message", cfg.StaffIncidents.StatusMessage)
	staff.Get("/incidents/:id/history", cfg.StaffIncidents.History)

	api := app.Group("/api", cfg.WebhookGuard)
	api.Post("/incidents", cfg.Automation.CreateIncident)
	api.Post("/acknowledge-ticket", cfg.Automation.AcknowledgeTicket)
	api.Post("/leave-status-message", cfg.Automation.LeaveStatusMessage)
	api.Post("/update-acknowledgment", cfg.Automation.UpdateAcknowledgment)
	api.Post("/quarantine-user", cfg.Automation.QuarantineUser)
	api.Post("/classify", cfg.Automation.Classify)
}
