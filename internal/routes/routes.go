package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/BradenHooton/eduif/internal/auth"
	"github.com/BradenHooton/eduif/internal/handlers"
	"github.com/BradenHooton/eduif/internal/middleware"
	"github.com/BradenHooton/eduif/internal/models"
)

// Dependencies are the handlers and gates the API routes are built from
type Dependencies struct {
	AuthHandler  *handlers.AuthHandler
	AdminHandler *handlers.AdminHandler
	DataHandler  *handlers.DataHandler
	Health       handlers.HealthChecker

	Sessions   *auth.SessionManager
	Authorizer *auth.Authorizer

	LoginRateLimit middleware.RateLimitConfig
	APIRateLimit   middleware.RateLimitConfig
}

// RegisterRoutes registers all application routes
func RegisterRoutes(router chi.Router, deps Dependencies) {
	router.Get("/health", handlers.Health(deps.Health))

	router.Route("/api", func(r chi.Router) {
		// Session is optional here; each route decides how to gate it
		r.Use(auth.LoadSession(deps.Sessions))

		// Public routes
		r.With(middleware.RateLimitByIP(deps.LoginRateLimit)).Post("/login", deps.AuthHandler.Login)
		r.Post("/logout", deps.AuthHandler.Logout)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimitBySession(deps.APIRateLimit))

			// Unauthenticated reads are rejected and audited by the service
			r.Get("/student-data", deps.DataHandler.Read)

			// Any authenticated user
			r.With(auth.RequireSession(deps.Authorizer)).Get("/dashboard", deps.AdminHandler.Dashboard)

			// Admin-only routes
			r.Group(func(r chi.Router) {
				r.Use(auth.RequireRole(deps.Authorizer, models.RoleAdmin))
				r.Put("/student-data", deps.DataHandler.Store)
				r.Get("/users", deps.AdminHandler.ListUsers)
				r.Post("/unlock-user/{id}", deps.AdminHandler.UnlockUser)
				r.Get("/activity-log", deps.AdminHandler.ActivityLog)
			})
		})
	})
}
