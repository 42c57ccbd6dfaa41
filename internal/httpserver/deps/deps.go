package deps

import (
	"net/http"
	"time"

	"github.com/allegro/bigcache/v3"
	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/stakehub/internal/domain"
	"github.com/MrSnakeDoc/stakehub/internal/index"
	"github.com/MrSnakeDoc/stakehub/internal/livestate"
	"github.com/MrSnakeDoc/stakehub/internal/logger"
	"github.com/MrSnakeDoc/stakehub/internal/metrics"
	redisstore "github.com/MrSnakeDoc/stakehub/internal/store/redis"
	"github.com/MrSnakeDoc/stakehub/internal/view"
)

type Deps struct {
	Logger               logger.Logger
	StartTime            time.Time
	Version              string
	Commit               string
	BuildDate            string
	GoVersion            string
	TimeNow              func() time.Time     // for testing, defaults to time.Now
	AllowedHosts         []string             // Host headers allowed to access operational endpoints
	AllowedCIDRS         []string             // IPs allowed to access readyz/infra/reload/metrics
	TrustProxy           bool                 // true if running behind a trusted reverse proxy (e.g., cloudflared)
	RegistryFile         string               // Path to the pool registry file
	DefaultCluster       domain.Cluster       // Cluster served without ?cluster=
	GeoCountryHeader     string               // Header carrying the visitor country code
	GeoSubdivisionHeader string               // Header carrying the visitor subdivision code
	RedisClient          *redis.Client        // Redis client connection (nil when the shared cache is disabled)
	Store                *redisstore.Store    // Shared live-state cache (nil when disabled)
	LocalCache           *bigcache.BigCache   // In-process live-state cache (nil when disabled)
	MemoryIndex          *index.MemoryIndex   // In-memory registry index
	Enricher             *livestate.Enricher  // Merges descriptors with live state
	Renderer             *view.Renderer       // HTML pages
	Metrics              *metrics.Metrics     // Prometheus collectors (nil-safe)
	MetricsHandler       http.Handler         // /metrics exposition (nil disables the route)
	StakeEntryRateLimit  int                  // stake entry lookups per IP per minute
	ReloadTrigger        chan struct{}        // Channel to trigger manual registry reload
}
