package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/MrSnakeDoc/stakehub/internal/domain"
	"github.com/MrSnakeDoc/stakehub/internal/httpserver/deps"
)

type readyzResponse struct {
	Ready bool           `json:"ready"`
	Pools map[string]int `json:"pools,omitempty"`
}

// Readyz reports ready once a registry has been loaded.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")

		if !d.MemoryIndex.Loaded() {
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(readyzResponse{Ready: false})
			return
		}

		pools := make(map[string]int, len(domain.Clusters))
		for _, c := range domain.Clusters {
			pools[c.String()] = d.MemoryIndex.Count(c)
		}
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(readyzResponse{Ready: true, Pools: pools})
	}
}
