package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/potatochat/admin-backend/internal/handlers"
	"github.com/potatochat/admin-backend/internal/middleware"
)

func SetupRoutes(r *chi.Mux, guard *middleware.AuthGuard) {
	r.Route("/api", func(api chi.Router) {
		api.Use(middleware.GlobalRateLimit)

		// Auth routes
		api.Route("/auth", func(ar chi.Router) {
			ar.With(middleware.AuthRateLimit).Post("/register", handlers.Register)
			ar.With(middleware.AuthRateLimit).Post("/login", handlers.Login)
			ar.Post("/refresh-token", handlers.RefreshToken)
			ar.Post("/verify-email", handlers.VerifyEmail)
			ar.With(middleware.PasswordResetRateLimit).Post("/forgot-password", handlers.ForgotPassword)
			ar.With(middleware.PasswordResetRateLimit).Post("/reset-password", handlers.ResetPassword)

			ar.Group(func(pr chi.Router) {
				pr.Use(guard.RequireAuth)
				pr.Post("/logout", handlers.Logout)
				pr.Get("/me", handlers.GetMe)
			})
		})

		// Trading record routes (authenticated)
		api.Route("/trading-records", func(tr chi.Router) {
			tr.Use(guard.RequireAuth)
			tr.Get("/records", handlers.ListTradingRecords)
			tr.Post("/records", handlers.CreateTradingRecord)
			tr.Get("/records/{id}", handlers.GetTradingRecord)
			tr.Put("/records/{id}/status", handlers.UpdateTradingRecordStatus)
			tr.Put("/records/{id}/anomaly", handlers.MarkTradingRecordAnomaly)
			tr.Get("/anomalies", handlers.ListTradingAnomalies)
		})

		// Business management routes (authenticated)
		api.Route("/business-management", func(bm chi.Router) {
			bm.Use(guard.RequireAuth)
			bm.Post("/subscriptions/plans", handlers.CreateSubscriptionPlan)
			bm.Put("/subscriptions/plans/{id}", handlers.UpdateSubscriptionPlan)
			bm.Post("/revenue", handlers.CreateRevenueRecord)
		})

		// Admin routes
		api.Route("/admin", func(adm chi.Router) {
			adm.Use(guard.RequireAuth, guard.RequireAdmin)
			adm.Get("/users", handlers.ListUsers)
			adm.Put("/users/status", handlers.UpdateUserStatus)
			adm.Put("/users/unlock", handlers.UnlockUser)
		})
	})
}
