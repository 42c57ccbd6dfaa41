package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/stakehub/internal/httpserver/deps"
	"github.com/MrSnakeDoc/stakehub/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/stakehub/internal/httpserver/mw"
)

func init() { Register(registerOps) }

func registerOps(r chi.Router, d deps.Deps) {
	r.Get("/healthz", handlers.Healthz(d))

	restricted := r.With(mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger))
	restricted.Get("/infra", handlers.Infra(d))
	if d.MetricsHandler != nil {
		restricted.Handle("/metrics", d.MetricsHandler)
	}
}
