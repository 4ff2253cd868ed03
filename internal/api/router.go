package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/consultly/consultant-scheduling/internal/identity"
	"github.com/consultly/consultant-scheduling/internal/schedule"
)

type RouterConfig struct {
	Service      *schedule.Service
	Auth         *identity.Authenticator
	PgPool       *pgxpool.Pool
	Redis        *redis.Client
	Env          string
	Version      string
	Logger       zerolog.Logger
	WorkDayStart schedule.TimeOfDay
	WorkDayEnd   schedule.TimeOfDay
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))

	// Health endpoints
	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	r.Post("/login", loginHandler(cfg.Auth))

	// Reads carry no role gate
	r.Get("/appointments", listAppointmentsHandler(cfg.Service))
	r.Get("/appointments/{id}", getAppointmentHandler(cfg.Service))
	r.Get("/consultants/{name}/slots", freeSlotsHandler(cfg.Service, cfg.WorkDayStart, cfg.WorkDayEnd))

	// Mutations require an authenticated caller; the service enforces the
	// consultant role on top.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.Auth))

		r.Post("/appointments", addAppointmentHandler(cfg.Service))
		r.Put("/appointments/{id}", updateAppointmentHandler(cfg.Service))
		r.Delete("/appointments/{id}", deleteAppointmentHandler(cfg.Service))
		r.Post("/appointments/{id}/reschedule", rescheduleAppointmentHandler(cfg.Service))
		r.Post("/appointments/{id}/status", updateStatusHandler(cfg.Service))
		r.Post("/appointments/{id}/duration", updateDurationHandler(cfg.Service))
	})

	return r
}
