package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/stakehub/internal/domain"
	"github.com/MrSnakeDoc/stakehub/internal/httpserver/deps"
)

type componentStatus struct {
	OK          bool           `json:"ok"`
	PoolsLoaded map[string]int `json:"pools_loaded,omitempty"`
	Reloads     *int           `json:"reloads,omitempty"`
	LastReload  string         `json:"last_reload,omitempty"`
	Source      string         `json:"source,omitempty"`
	Mode        string         `json:"mode,omitempty"`
	Impact      string         `json:"impact,omitempty"`
	Error       string         `json:"error,omitempty"`
}

type infraResponse struct {
	Status     string                     `json:"status"`
	Components map[string]componentStatus `json:"components"`
}

// Infra reports the state of the registry and the shared cache.
func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")

		components := map[string]componentStatus{
			"registry": registryStatus(d),
			"redis":    checkRedis(r.Context(), d),
		}

		response := infraResponse{
			Status:     determineStatus(components),
			Components: components,
		}

		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(response)
	}
}

func registryStatus(d deps.Deps) componentStatus {
	lastReload := d.MemoryIndex.GetLastReload()
	lastReloadStr := "never"
	if !lastReload.IsZero() {
		lastReloadStr = lastReload.Format(time.RFC3339)
	}

	pools := make(map[string]int, len(domain.Clusters))
	for _, c := range domain.Clusters {
		pools[c.String()] = d.MemoryIndex.Count(c)
	}
	reloads := d.MemoryIndex.Reloads()

	return componentStatus{
		OK:          d.MemoryIndex.Loaded(),
		PoolsLoaded: pools,
		Reloads:     &reloads,
		LastReload:  lastReloadStr,
		Source:      d.RegistryFile,
	}
}

func determineStatus(components map[string]componentStatus) string {
	// No registry = nothing to serve
	if reg, exists := components["registry"]; exists && !reg.OK {
		return "critical"
	}

	// Redis is optional; only an unreachable configured instance degrades
	if redis, exists := components["redis"]; exists && !redis.OK && redis.Mode != "disabled" {
		return "degraded"
	}

	return "ok"
}

func checkRedis(ctx context.Context, d deps.Deps) componentStatus {
	if d.RedisClient == nil {
		return componentStatus{
			OK:     true,
			Mode:   "disabled",
			Impact: "per-instance-cache-only",
		}
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := d.RedisClient.Ping(ctx).Err(); err != nil {
		return componentStatus{
			OK:     false,
			Mode:   "degraded",
			Impact: "shared-cache-unavailable",
			Error:  err.Error(),
		}
	}

	return componentStatus{
		OK:     true,
		Mode:   "optimal",
		Impact: "shared-cache-enabled",
	}
}
