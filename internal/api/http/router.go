package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/loyalty-service/internal/api/http/handlers"
	"github.com/spec-kit/loyalty-service/internal/auth"
	"github.com/spec-kit/loyalty-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Members        *handlers.MembersHandler
	Staff          *handlers.StaffHandler
	Passes         *handlers.PassesHandler
	Reports        *handlers.ReportsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/members/register", cfg.Members.Register)
	authGroup.Post("/members/login", cfg.Members.Login)
	authGroup.Post("/staff/login", cfg.Staff.Login)

	members := app.Group("/members", cfg.AuthMiddleware.Handle, auth.RequireMember())
	members.Get("/me", cfg.Members.Me)

	passes := app.Group("/passes", cfg.AuthMiddleware.Handle)
	passes.Post("/visit", auth.RequireMember(), cfg.Passes.IssueVisit)
	passes.Post("/referral", auth.RequireMember(), cfg.Passes.IssueReferral)
	passes.Post("/promo", auth.RequireStaffRole(), cfg.Passes.IssuePromo)
	passes.Post("/staff-check", auth.RequireStaffRole(domain.StaffRoleAdmin), cfg.Passes.IssueStaffCheck)
	passes.Post("/validate", auth.RequireStaffRole(), cfg.Passes.Validate)

	coupons := app.Group("/coupons", cfg.AuthMiddleware.Handle, auth.RequireStaffRole())
	coupons.Post("/", cfg.Passes.CreateCoupon)

	reports := app.Group("/reports", cfg.AuthMiddleware.Handle, auth.RequireStaffRole(domain.StaffRoleAdmin))
	reports.Get("/validations", cfg.Reports.RecentEvents)
	reports.Get("/validations/stats", cfg.Reports.Stats)
	reports.Get("/metrics", cfg.Reports.Metrics)
}
