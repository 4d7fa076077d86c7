package routes

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/MrSnakeDoc/upsync/internal/httpserver/deps"
	"github.com/MrSnakeDoc/upsync/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/upsync/internal/httpserver/mw"
)

// DefaultRequestTimeout bounds app routes other than sync and rollback.
const DefaultRequestTimeout = 30 * time.Second

func init() { Register(registerProducts) }

func registerProducts(r chi.Router, d deps.Deps) {
	syncTimeout := d.SyncTimeout
	if syncTimeout <= 0 {
		syncTimeout = 10 * time.Minute
	}

	r.Group(func(api chi.Router) {
		api.Use(mw.EnforceHost(d.AllowedHosts, d.Logger))
		api.Use(mw.RateLimit(mw.RateLimitConfig{
			RPS:        d.APIRateLimit,
			Burst:      d.APIBurst,
			MaxEntries: 10000,
			TrustProxy: d.TrustProxy,
		}))
		api.Use(mw.RequireSession(d.Verifier, d.Sessions, d.Logger))

		// Long-running writes
		api.Group(func(g chi.Router) {
			g.Use(middleware.Timeout(syncTimeout))
			g.Post("/api/products/sync", handlers.SyncProducts(d))
			g.Get("/api/products/create", handlers.SyncProducts(d))
			g.Post("/api/products/rollback", handlers.RollbackProducts(d))
		})

		api.Group(func(g chi.Router) {
			g.Use(middleware.Timeout(DefaultRequestTimeout))
			g.Get("/api/products", handlers.ListShopProducts(d))
			g.Get("/api/products/history", handlers.ProductHistory(d))
			g.Get("/api/products/get-products", handlers.ProductHistory(d))
			g.Get("/api/products/search", handlers.SearchHistory(d))
			g.Get("/api/products/up-products", handlers.ListUpstreamProducts(d))
			g.Post("/api/products/match-product", handlers.MatchProducts(d))
			g.Get("/api/store", handlers.Store(d))
		})
	})
}
