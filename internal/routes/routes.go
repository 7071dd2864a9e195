package routes

import (
	"github.com/anonchat/anonchat/internal/handlers"
	"github.com/anonchat/anonchat/internal/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterRoutes registers all application routes
func RegisterRoutes(
	router chi.Router,
	authHandler *handlers.AuthHandler,
	chatHandler *handlers.ChatHandler,
	panelHandler *handlers.PanelHandler,
) {
	rateLimitConfig := middleware.DefaultAPIRateLimit()

	router.Route("/api", func(r chi.Router) {
		r.Use(middleware.RateLimitByIP(rateLimitConfig))

		// Session bootstrap: issues the CSRF tokens the other endpoints demand
		r.Get("/session", authHandler.Session)
		r.Post("/logout", authHandler.Logout)

		// Entry points; the durable per-IP limits are enforced in the services
		r.Post("/admin/login", authHandler.Login)
		r.Post("/join", authHandler.Join)
		r.Post("/conversations", authHandler.CreateConversation)

		// Polling chat protocol, one POST endpoint with a closed action set
		r.Post("/chat", chatHandler.Dispatch)

		// Admin panel
		r.Post("/admin/panel", panelHandler.Dispatch)
		r.Get("/admin/panel/export", panelHandler.Export)
	})

	router.Handle("/metrics", promhttp.Handler())
}
