package routes

import (
	"github.com/avercroft/kennelgate/internal/auth"
	"github.com/avercroft/kennelgate/internal/handlers"
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all application routes. Per-class rate limiting
// is applied router-wide by the caller, so routes only declare their auth
// requirements here.
func RegisterRoutes(
	router chi.Router,
	authHandler *handlers.AuthHandler,
	tokenManager *auth.TokenManager,
	accounts auth.AccountResolver,
) {
	// Public routes - no authentication required
	router.Post("/auth/login", authHandler.Login)
	router.Post("/auth/forgot-password", authHandler.ForgotPassword)
	router.Post("/auth/reset-password", authHandler.ResetPassword)
	router.Post("/auth/admin/create-account", authHandler.CreateAccount)

	// Protected routes - bearer token required
	router.Group(func(r chi.Router) {
		r.Use(auth.Middleware(tokenManager, accounts))

		r.Get("/auth/me", authHandler.Me)
		r.Post("/auth/admin/create", authHandler.CreateAdmin)
	})
}
