package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/glowdesk/salon-scheduling/internal/booking"
	"github.com/glowdesk/salon-scheduling/internal/schedule"
)

type RouterConfig struct {
	Booking   *booking.Orchestrator
	Assistant *schedule.Assistant
	PgPool    *pgxpool.Pool
	Redis     *redis.Client
	Env       string
	Version   string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Apply middleware
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware)

	// Health endpoints
	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	// Catalog
	r.Get("/stylists", listStylistsHandler(cfg.Booking))
	r.Get("/services", listServicesHandler(cfg.Booking))

	// Availability
	r.Get("/stylists/{id}/availability", availabilityHandler(cfg.Assistant))
	r.Get("/stylists/{id}/busy-blocks", listBusyBlocksHandler(cfg.Assistant))
	r.Post("/stylists/{id}/busy-blocks", createBusyBlockHandler(cfg.Assistant))

	// Appointments
	r.Post("/appointments", bookAppointmentHandler(cfg.Booking))
	r.Get("/appointments", listAppointmentsHandler(cfg.Booking))
	r.Get("/appointments/{id}", getAppointmentHandler(cfg.Booking))
	r.Post("/appointments/{id}/confirm", transitionHandler(cfg.Booking.Confirm))
	r.Post("/appointments/{id}/check-in", transitionHandler(cfg.Booking.CheckIn))
	r.Post("/appointments/{id}/complete", transitionHandler(cfg.Booking.Complete))
	r.Post("/appointments/{id}/cancel", transitionHandler(cfg.Booking.Cancel))
	r.Post("/appointments/{id}/no-show", transitionHandler(cfg.Booking.NoShow))

	return r
}
