package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/stakehub/internal/httpserver/deps"
	"github.com/MrSnakeDoc/stakehub/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/stakehub/internal/httpserver/mw"
)

func init() { Register(registerAPI) }

func registerAPI(r chi.Router, d deps.Deps) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/stats", handlers.Stats(d))
		r.Get("/pools", handlers.Pools(d))
		r.Get("/pools/{name}", handlers.Pool(d))
		r.Get("/pools/{name}/airdrops", handlers.PoolAirdrops(d))

		stakeEntries := r
		if d.StakeEntryRateLimit > 0 {
			stakeEntries = r.With(mw.RateLimit(mw.RateLimitConfig{
				Burst:             d.StakeEntryRateLimit,
				RefillPerIPPerMin: d.StakeEntryRateLimit,
				MaxEntries:        10000,
				TrustProxy:        d.TrustProxy,
			}))
		}
		stakeEntries.Get("/pools/{name}/stake-entries/{mint}", handlers.StakeEntry(d))
	})
}
