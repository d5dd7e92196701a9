package handler

import (
	"factory-server/internal/middleware"
	"factory-server/internal/model"

	"github.com/go-chi/chi/v5"
)

// MountAPI : маршруты /api/auth и /api/admin. Без recoveryHandler восстановление пароля не монтируется
func MountAPI(
	r chi.Router,
	auth *middleware.Authenticator,
	authHandler *AuthenticationHandler,
	userHandler *UserHandler,
	adminHandler *AdminHandler,
	recoveryHandler *RecoveryHandler,
) {
	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/login", authHandler.Login)
		r.Post("/register", userHandler.RegisterUser)
		if recoveryHandler != nil {
			r.Post("/password/forgot", recoveryHandler.ForgotPassword)
			r.Post("/password/reset", recoveryHandler.ResetPassword)
		}
		r.With(auth.OptionalAuth).Post("/logout", authHandler.Logout)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth)
			r.Get("/me", authHandler.GetCurrentUser)
			r.Head("/me", authHandler.GetCurrentUserHead)
			r.Post("/refresh", authHandler.RefreshToken)
			r.Get("/sessions", authHandler.ListSessions)
			r.Delete("/sessions", authHandler.RevokeOtherSessions)
			r.Delete("/sessions/{id}", authHandler.RevokeSession)
		})
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(auth.RequireAuth)
		r.Use(middleware.RequireRole(model.RoleAdmin))

		r.Get("/users/{id}", userHandler.GetUser)
		r.Put("/users/{id}/role", userHandler.UpdateRole)
		r.Get("/users/{id}/sessions", adminHandler.ListUserSessions)
		r.Delete("/users/{id}/sessions", adminHandler.RevokeUserSessions)
		r.Post("/tokens/revoke", adminHandler.RevokeToken)
	})
}
