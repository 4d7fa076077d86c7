package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/upsync/internal/httpserver/deps"
	"github.com/MrSnakeDoc/upsync/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/upsync/internal/httpserver/mw"
	"github.com/MrSnakeDoc/upsync/internal/metrics"
)

func init() { Register(registerProbes) }

func registerProbes(r chi.Router, d deps.Deps) {
	r.Get("/healthz", handlers.Healthz(d))

	restricted := r.With(mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger))
	restricted.Get("/readyz", handlers.Readyz(d))
	restricted.Get("/api/infra", handlers.Infra(d))
	restricted.Method("GET", "/metrics", metrics.Handler())
}
