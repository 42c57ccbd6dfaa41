package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/allegro/bigcache/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/stakehub/internal/config"
	"github.com/MrSnakeDoc/stakehub/internal/domain"
	"github.com/MrSnakeDoc/stakehub/internal/httpserver"
	"github.com/MrSnakeDoc/stakehub/internal/httpserver/deps"
	"github.com/MrSnakeDoc/stakehub/internal/index"
	"github.com/MrSnakeDoc/stakehub/internal/livestate"
	"github.com/MrSnakeDoc/stakehub/internal/logger"
	"github.com/MrSnakeDoc/stakehub/internal/metrics"
	"github.com/MrSnakeDoc/stakehub/internal/redis"
	"github.com/MrSnakeDoc/stakehub/internal/scheduler"
	"github.com/MrSnakeDoc/stakehub/internal/solana"
	"github.com/MrSnakeDoc/stakehub/internal/sources/registry"
	redisstore "github.com/MrSnakeDoc/stakehub/internal/store/redis"
	"github.com/MrSnakeDoc/stakehub/internal/version"
	"github.com/MrSnakeDoc/stakehub/internal/view"
)

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	server      *httpserver.Server
	redisClient *goredis.Client
	localCache  *bigcache.BigCache
	memIndex    *index.MemoryIndex
	reloader    *scheduler.RegistryReloader
	warmer      *scheduler.StateWarmer
}

func New() *App {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	// Prometheus registry shared by every component
	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewMetrics(promRegistry)

	// Redis is optional: without it every replica keeps its own cache
	var redisClient *goredis.Client
	var store *redisstore.Store
	var shared livestate.SharedStore
	if cfg.RedisEnabled() {
		loggerClient.Infof("Connecting to Redis at %s", redisTarget(cfg))
		client, err := redis.New(redis.ConnectOptions{
			URL:            cfg.RedisURL,
			Addr:           cfg.RedisAddr,
			User:           cfg.RedisUser,
			Password:       cfg.RedisPassword,
			RedisDB:        cfg.RedisDB,
			DialTimeout:    cfg.RedisDT,
			ReadTimeout:    cfg.RedisRT,
			WriteTimeout:   cfg.RedisWT,
			PoolSize:       cfg.RedisPoolSize,
			ConnectTimeout: cfg.RedisConnectTimeout,
			RetryInterval:  cfg.RedisRetryInterval,
			MaxWait:        cfg.RedisMaxWait,
			PingTimeout:    cfg.RedisPingTimeout,
			WarnThreshold:  cfg.RedisWarnThreshold,
		}, loggerClient)
		if err != nil {
			loggerClient.Errorf("Failed to connect to Redis: %v", err)
			os.Exit(1)
		}
		loggerClient.Info("Redis initialized successfully")
		redisClient = client
		store = redisstore.NewStore(client)
		shared = store
	} else {
		loggerClient.Info("Redis not configured, live state is cached per instance")
	}

	localCache, err := livestate.NewLocalCache(cfg.StateTTL)
	if err != nil {
		loggerClient.Errorf("Failed to create local cache: %v", err)
		os.Exit(1)
	}

	// One cached RPC source per cluster
	sources := make(map[domain.Cluster]livestate.Source, len(cfg.RPCURLs))
	for _, c := range domain.Clusters {
		endpoint := cfg.RPCURLs[c]
		if endpoint == "" {
			continue
		}
		client := solana.NewHTTPClient(endpoint,
			solana.WithTimeout(cfg.RPCTimeout),
			solana.WithMaxRetries(cfg.RPCMaxRetries),
		)
		rpc := livestate.NewRPCSource(client, c, m)
		sources[c] = livestate.NewCachedSource(rpc, c, localCache, shared, cfg.StateTTL, m, loggerClient.With(logger.Stringer("cluster", c)))
		loggerClient.Debug("live-state source configured",
			logger.String("cluster", c.String()),
			logger.String("endpoint", endpoint))
	}
	provider := livestate.NewProvider(sources, cfg.DefaultCluster)
	enricher := livestate.NewEnricher(provider, loggerClient,
		livestate.WithConcurrency(cfg.EnrichConcurrency),
		livestate.WithFetchTimeout(cfg.FetchTimeout),
	)

	memIndex := index.NewMemoryIndex()

	// Create manual reload trigger channel
	reloadTrigger := make(chan struct{}, 1)

	reloader := scheduler.NewRegistryReloader(
		cfg.RegistryFile,
		memIndex,
		m,
		loggerClient,
		cfg.ReloadInterval,
		reloadTrigger,
	)

	var warmer *scheduler.StateWarmer
	if cfg.WarmInterval > 0 {
		warmer = scheduler.NewStateWarmer(
			memIndex,
			provider,
			[]domain.Cluster{cfg.DefaultCluster},
			cfg.WarmInterval,
			m,
			loggerClient,
		)
		// Pools added by a reload get their state before the next tick
		reloader.OnReload(func(*registry.Catalog) {
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), cfg.WarmInterval)
				defer cancel()
				if _, err := warmer.Warm(ctx, cfg.DefaultCluster); err != nil {
					loggerClient.Debug("post-reload warm-up failed", logger.Error(err))
				}
			}()
		})
	}

	// Dependencies passed to routes (extend as needed).
	d := deps.Deps{
		Logger:               loggerClient,
		StartTime:            time.Now(),
		Version:              version.Version,
		Commit:               version.Commit,
		BuildDate:            version.BuildDate,
		GoVersion:            version.GoVersion,
		TimeNow:              time.Now,
		AllowedHosts:         cfg.AllowedHosts,
		AllowedCIDRS:         cfg.AllowedCIDRS,
		TrustProxy:           cfg.TrustProxy,
		RegistryFile:         cfg.RegistryFile,
		DefaultCluster:       cfg.DefaultCluster,
		GeoCountryHeader:     cfg.GeoCountryHeader,
		GeoSubdivisionHeader: cfg.GeoSubdivisionHeader,
		RedisClient:          redisClient,
		Store:                store,
		LocalCache:           localCache,
		MemoryIndex:          memIndex,
		Enricher:             enricher,
		Renderer:             view.MustRenderer(),
		Metrics:              m,
		MetricsHandler:       promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{}),
		StakeEntryRateLimit:  cfg.StakeEntryLimit,
		ReloadTrigger:        reloadTrigger,
	}

	server := httpserver.New(cfg, loggerClient, d)

	return &App{
		cfg:         cfg,
		logger:      loggerClient,
		server:      server,
		redisClient: redisClient,
		localCache:  localCache,
		memIndex:    memIndex,
		reloader:    reloader,
		warmer:      warmer,
	}
}

func redisTarget(cfg *config.Config) string {
	if cfg.RedisAddr != "" {
		return cfg.RedisAddr
	}
	return "configured URL"
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting StakeHub v%s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Infof("StakeHub %s (commit=%s, built=%s, go=%s)",
		version.Version, version.Commit, version.BuildDate, version.GoVersion)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load the registry (fatal on a malformed file) and start periodic refresh
	if err := a.reloader.Start(ctx); err != nil {
		return fmt.Errorf("failed to start registry reloader: %w", err)
	}
	a.logger.Info("registry reloader started",
		logger.String("file", a.cfg.RegistryFile),
		logger.Duration("interval", a.cfg.ReloadInterval))

	if a.warmer != nil {
		if err := a.warmer.Start(); err != nil {
			return fmt.Errorf("failed to start state warmer: %w", err)
		}
		a.logger.Info("state warmer started",
			logger.Duration("interval", a.cfg.WarmInterval))
	}

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		return err
	}

	a.reloader.Stop()
	if a.warmer != nil {
		a.warmer.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	if err := a.localCache.Close(); err != nil {
		a.logger.Warnf("failed to close local cache: %v", err)
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warnf("failed to close redis: %v", err)
		} else {
			a.logger.Info("✅ Redis closed cleanly")
		}
	}

	a.logger.Info("✅ StakeHub stopped cleanly")
	_ = a.logger.Sync()
	return nil
}
