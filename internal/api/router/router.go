// Package router assembles the HTTP surface of the academy API.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/bjjmingo/academy-platform/internal/http/handlers"
	"github.com/bjjmingo/academy-platform/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger         *logging.Logger
	Webhook        *handlers.WhatsAppWebhookHandler
	Admin          *handlers.AdminHandler
	MetricsHandler http.Handler
	// AdminToken protects the admin routes. Empty disables the check.
	AdminToken string
}

// New creates a Chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Group(func(public chi.Router) {
		public.Get("/health", cfg.Admin.HealthCheck)
		public.Post("/webhooks/whatsapp", cfg.Webhook.HandleMessage)
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
	})

	r.Route("/admin", func(admin chi.Router) {
		admin.Use(requireAdminToken(cfg.AdminToken))
		admin.Get("/classes/{classTypeID}/slots", cfg.Admin.ListSlots)
		admin.Post("/bookings", cfg.Admin.BookClass)
		admin.Post("/bookings/cancel", cfg.Admin.CancelBooking)
		admin.Post("/reminders/sweep", cfg.Admin.SweepReminders)
		admin.Get("/reminders/pending", cfg.Admin.PendingReminders)
	})

	return r
}
