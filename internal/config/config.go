package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/MrSnakeDoc/stakehub/internal/domain"
)

// Public RPC endpoints used when no STAKEHUB_RPC_* override is set.
var defaultRPCURLs = map[domain.Cluster]string{
	domain.ClusterMainnet: "https://api.mainnet-beta.solana.com",
	domain.ClusterDevnet:  "https://api.devnet.solana.com",
	domain.ClusterTestnet: "https://api.testnet.solana.com",
}

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s
	RequestTimeout  time.Duration // per-request deadline, page renders included

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	RegistryFile   string         // path to the pools.yaml registry
	ReloadInterval time.Duration  // interval to reload the registry (default: 5m)
	DefaultCluster domain.Cluster // cluster served when ?cluster= is absent or unknown

	// Live state
	RPCURLs           map[domain.Cluster]string
	RPCTimeout        time.Duration // per RPC call
	RPCMaxRetries     int
	StateTTL          time.Duration // freshness window of cached pool state
	WarmInterval      time.Duration // 0 disables the state warmer
	EnrichConcurrency int           // in-flight fetches per page
	FetchTimeout      time.Duration // per pool fetch during a page render
	StakeEntryLimit   int           // stake entry lookups per IP per minute (0 disables the limit)

	// Redis (optional shared cache; disabled when neither URL nor Addr is set)
	RedisURL            string
	RedisAddr           string        // ex: "localhost:6379"
	RedisUser           string        // optional
	RedisPassword       string        // optional
	RedisDB             int           // Redis DB number
	RedisDT             time.Duration // Redis dial timeout (ex: 5s)
	RedisRT             time.Duration // Redis read timeout (ex: 3s)
	RedisWT             time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait        time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout    time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize       int           // Redis connection pool size
	RedisConnectTimeout time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval  time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	RedisWarnThreshold  int           // warn after this many attempts

	// Geo headers set by the trusted edge proxy, used for region denial
	GeoCountryHeader     string
	GeoSubdivisionHeader string

	AllowedHosts []string // optional, restrict operational endpoints to specific Host headers
	AllowedCIDRS []string // optional, restrict operational endpoints to specific IPs (e.g. "1.2.3.4, 10.0.0.0/8")
	TrustProxy   bool     // true => trust X-Forwarded-For and geo headers (e.g. cloudflared)
}

// RedisEnabled reports whether a shared cache is configured.
func (c *Config) RedisEnabled() bool {
	return c.RedisURL != "" || c.RedisAddr != ""
}

func Load() *Config {
	cfg := &Config{
		// Server settings
		ListenPort:      getenv("STAKEHUB_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("STAKEHUB_SHUTDOWN_TIMEOUT", 5*time.Second),
		RequestTimeout:  mustDuration("STAKEHUB_REQUEST_TIMEOUT", 10*time.Second),

		// Logging
		LogLevel:  getenv("STAKEHUB_LOG_LEVEL", "info"),
		PrettyLog: mustBool("STAKEHUB_PRETTY_LOG", false),

		// Registry
		RegistryFile:   requireEnv("STAKEHUB_REGISTRY_FILE"),
		ReloadInterval: mustDuration("STAKEHUB_RELOAD_INTERVAL", 5*time.Minute),
		DefaultCluster: mustCluster("STAKEHUB_DEFAULT_CLUSTER", domain.ClusterMainnet),

		// Live state
		RPCURLs:           rpcURLs(),
		RPCTimeout:        mustDuration("STAKEHUB_RPC_TIMEOUT", 5*time.Second),
		RPCMaxRetries:     getenvInt("STAKEHUB_RPC_MAX_RETRIES", 3),
		StateTTL:          mustDuration("STAKEHUB_STATE_TTL", 60*time.Second),
		WarmInterval:      mustDuration("STAKEHUB_WARM_INTERVAL", 30*time.Second),
		EnrichConcurrency: getenvInt("STAKEHUB_ENRICH_CONCURRENCY", 8),
		FetchTimeout:      mustDuration("STAKEHUB_FETCH_TIMEOUT", 3*time.Second),
		StakeEntryLimit:   getenvInt("STAKEHUB_STAKE_ENTRY_RATE_LIMIT", 30),

		// Redis settings
		RedisURL:            getenv("STAKEHUB_REDIS_URL", ""),
		RedisAddr:           getenv("STAKEHUB_REDIS_ADDR", ""),
		RedisUser:           getenv("STAKEHUB_REDIS_USERNAME", ""),
		RedisPassword:       getenv("STAKEHUB_REDIS_PASSWORD", ""),
		RedisDB:             getenvInt("STAKEHUB_REDIS_DB", 0),
		RedisDT:             mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:             mustDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:             mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:        mustDuration("REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:    mustDuration("REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:       getenvInt("REDIS_POOL_SIZE", 10),
		RedisConnectTimeout: mustDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:  mustDuration("REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:  getenvInt("REDIS_WARN_THRESHOLD", 3),

		// Geo
		GeoCountryHeader:     getenv("STAKEHUB_GEO_COUNTRY_HEADER", "CF-IPCountry"),
		GeoSubdivisionHeader: getenv("STAKEHUB_GEO_SUBDIVISION_HEADER", "CF-Region-Code"),

		// Access restrictions
		AllowedHosts: splitAndTrim(getenv("STAKEHUB_ALLOWED_HOSTS", "")),
		AllowedCIDRS: parseAllowedIPs(getenv("STAKEHUB_ALLOWED_CIDRS", "")),
		TrustProxy:   mustBool("STAKEHUB_TRUST_PROXY", true),
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		cfgCopy := *cfg
		cfgCopy.RedisPassword = "***REDACTED***"
		if cfg.RedisUser != "" {
			cfgCopy.RedisUser = "***REDACTED***"
		}
		if cfg.RedisURL != "" {
			cfgCopy.RedisURL = "***REDACTED***"
		}
		log.Printf("[DEBUG] cfg: %+v\n", cfgCopy)
	}

	return cfg
}

// rpcURLs reads STAKEHUB_RPC_MAINNET, STAKEHUB_RPC_DEVNET and
// STAKEHUB_RPC_TESTNET, falling back to the public endpoints.
func rpcURLs() map[domain.Cluster]string {
	urls := make(map[domain.Cluster]string, len(defaultRPCURLs))
	for _, c := range domain.Clusters {
		urls[c] = getenv(rpcEnvKey(c), defaultRPCURLs[c])
	}
	return urls
}

func rpcEnvKey(c domain.Cluster) string {
	name := strings.TrimSuffix(c.String(), "-beta")
	return "STAKEHUB_RPC_" + strings.ToUpper(name)
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func requireEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	return v
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func mustCluster(key string, def domain.Cluster) domain.Cluster {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	c, ok := domain.ParseCluster(v)
	if !ok {
		panic(fmt.Sprintf("❌ FATAL: Invalid cluster for %s: %s", key, v))
	}
	return c
}

func parseAllowedIPs(allowed string) []string {
	if allowed == "" {
		return nil
	}
	ips := make([]string, 0, 4)
	for _, ip := range splitAndTrim(allowed) {
		if ip != "" {
			ips = append(ips, ip)
		}
	}
	return ips
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
