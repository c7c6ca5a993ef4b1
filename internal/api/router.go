package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/nicfuji87/sistema-respira-kids/internal/agenda"
	"github.com/nicfuji87/sistema-respira-kids/internal/identity"
)

type RouterConfig struct {
	Cache   *agenda.Cache
	Holder  *identity.Holder
	PgPool  *pgxpool.Pool
	Redis   *redis.Client
	Env     string
	Version string
	Log     zerolog.Logger
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Log))

	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	r.Route("/agendamentos", func(r chi.Router) {
		r.Get("/", listAppointmentsHandler(cfg.Cache))
		r.Post("/", createAppointmentHandler(cfg.Cache))
		r.Get("/{id}", getAppointmentHandler(cfg.Cache))
		r.Patch("/{id}", updateAppointmentHandler(cfg.Cache))
		r.Delete("/{id}", deleteAppointmentHandler(cfg.Cache))
		r.Post("/{id}/cancelar", cancelAppointmentHandler(cfg.Cache))
		r.Post("/{id}/confirmar", confirmAppointmentHandler(cfg.Cache))
		r.Post("/{id}/realizar", completeAppointmentHandler(cfg.Cache))
	})

	r.Get("/disponibilidade", availabilityHandler(cfg.Cache))
	r.Get("/estatisticas", statsHandler(cfg.Cache))

	r.Route("/auth", func(r chi.Router) {
		r.Post("/signup", signUpHandler(cfg.Holder))
		r.Post("/signin", signInHandler(cfg.Holder))
		r.Post("/signout", signOutHandler(cfg.Holder))
		r.Post("/reset-password", resetPasswordHandler(cfg.Holder))
		r.Get("/external", externalSignInHandler(cfg.Holder))
		r.Get("/session", sessionHandler(cfg.Holder))
	})

	return r
}
