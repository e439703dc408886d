package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/hackgods/clinic-queue/internal/appointment"
	"github.com/hackgods/clinic-queue/internal/auth"
	"github.com/hackgods/clinic-queue/internal/metrics"
)

type RouterConfig struct {
	Service  *appointment.Service
	Verifier *auth.Verifier
	Postgres Pinger
	Redis    Pinger // nil when Redis is disabled
	Logger   zerolog.Logger
	Metrics  *metrics.HTTP
	Gatherer prometheus.Gatherer // nil serves the default registry
	Env      string
	Version  string
	Now      func() time.Time
}

func NewRouter(cfg RouterConfig) http.Handler {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger, cfg.Metrics))
	r.Use(RecoveryMiddleware(cfg.Logger))

	health := NewHealthHandler(cfg.Postgres, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	} else {
		r.Handle("/metrics", promhttp.Handler())
	}

	svc := cfg.Service

	r.Route("/physicians", func(r chi.Router) {
		r.Post("/", registerPhysicianHandler(svc))
		r.Get("/", listPhysiciansHandler(svc))

		r.Group(func(r chi.Router) {
			r.Use(PhysicianAuth(cfg.Verifier))
			r.Get("/me", currentPhysicianHandler(svc))
			r.Put("/me/schedule", updateScheduleHandler(svc))
			r.Get("/me/appointments", listAppointmentsHandler(svc, now))
		})

		r.Route("/{physicianID}", func(r chi.Router) {
			r.Post("/slots", generateSlotsHandler(svc))
			r.Get("/slots", listFreeSlotsHandler(svc, now))
			r.Post("/bookings", bookSlotHandler(svc))
		})
	})

	r.Route("/appointments/{trackingID}", func(r chi.Router) {
		r.Get("/", trackAppointmentHandler(svc))

		r.Group(func(r chi.Router) {
			r.Use(PhysicianAuth(cfg.Verifier))
			r.Post("/complete", completeAppointmentHandler(svc))
			r.Post("/cancel", cancelAppointmentHandler(svc))
		})
	})

	return r
}
