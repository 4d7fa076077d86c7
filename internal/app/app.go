package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/upsync/internal/business"
	"github.com/MrSnakeDoc/upsync/internal/catalog"
	"github.com/MrSnakeDoc/upsync/internal/config"
	"github.com/MrSnakeDoc/upsync/internal/history"
	"github.com/MrSnakeDoc/upsync/internal/httpserver"
	"github.com/MrSnakeDoc/upsync/internal/httpserver/deps"
	"github.com/MrSnakeDoc/upsync/internal/index"
	"github.com/MrSnakeDoc/upsync/internal/logger"
	"github.com/MrSnakeDoc/upsync/internal/redis"
	"github.com/MrSnakeDoc/upsync/internal/scheduler"
	"github.com/MrSnakeDoc/upsync/internal/session"
	"github.com/MrSnakeDoc/upsync/internal/shopify"
	"github.com/MrSnakeDoc/upsync/internal/sources/upstream"
	redisstore "github.com/MrSnakeDoc/upsync/internal/store/redis"
	"github.com/MrSnakeDoc/upsync/internal/utils"
	"github.com/MrSnakeDoc/upsync/internal/version"
)

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	server      *httpserver.Server
	redisClient *goredis.Client
	reloader    *scheduler.BusinessReloader
	autoSync    *scheduler.AutoSyncer
}

func New() *App {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	// Redis holds sessions, caches and run locks: fail fast if unavailable
	loggerClient.Infof("Connecting to Redis at %s", cfg.RedisAddr)
	redisClient, err := redis.New(context.Background(), redis.OptionsFromConfig(cfg, "upsync"), loggerClient)
	if err != nil {
		loggerClient.Errorf("Failed to connect to Redis: %v", err)
		os.Exit(1)
	}
	loggerClient.Info("Redis initialized successfully")

	store := redisstore.NewStore(redisClient, loggerClient)

	var snapshotLog history.Log = store
	if cfg.HistoryBackend == "memory" {
		loggerClient.Warn("history kept in memory, snapshots are lost on restart")
		snapshotLog = index.NewMemoryLog()
	}
	hist := history.NewService(snapshotLog, loggerClient)

	up, err := upstream.NewClient(upstream.Options{
		BaseURL:  cfg.UpstreamBaseURL,
		Timeout:  cfg.UpstreamTimeout,
		MaxPages: cfg.UpstreamMaxPages,
	}, loggerClient)
	if err != nil {
		loggerClient.Errorf("Failed to configure upstream client: %v", err)
		os.Exit(1)
	}

	factory := shopify.NewFactory(shopify.Options{
		APIVersion: cfg.ShopifyAPIVersion,
		RateLimit:  cfg.ShopifyRateLimit,
		Burst:      cfg.ShopifyBurst,
		MaxRetries: cfg.ShopifyMaxRetries,
	}, loggerClient)

	directory := business.NewDirectory()

	svc := catalog.NewService(catalog.ServiceDeps{
		Engine: catalog.NewEngine(up, hist, catalog.Options{
			FailFast:     cfg.FailFast,
			LinkageFatal: cfg.LinkageFatal,
		}, loggerClient),
		Rollbacker: catalog.NewRollbacker(hist, loggerClient),
		Matcher:    catalog.NewMatcher(loggerClient),
		Targets: func(shop, accessToken string) catalog.Target {
			return factory.Client(shop, accessToken)
		},
		Tenants: business.NewResolver(directory, store, cfg.StoreDomainTTL, loggerClient),
		Locks:   store,
		LockTTL: cfg.LockTTL,
	}, loggerClient)

	// Create manual reload trigger channel
	reloadTrigger := make(chan struct{}, 1)

	reloader := scheduler.NewBusinessReloader(
		cfg.BusinessFile,
		directory,
		loggerClient,
		cfg.BusinessReloadInterval,
		reloadTrigger,
	)

	autoSync := scheduler.NewAutoSyncer(
		store,
		svc,
		loggerClient,
		cfg.AutoSyncInterval,
		cfg.SyncTimeout,
		nil,
	)

	d := deps.Deps{
		Logger:        loggerClient,
		StartTime:     time.Now(),
		Version:       version.Version,
		Commit:        version.Commit,
		BuildDate:     version.BuildDate,
		GoVersion:     version.GoVersion,
		TimeNow:       time.Now,
		AllowedHosts:  cfg.AllowedHosts,
		AllowedCIDRS:  cfg.AllowedCIDRS,
		TrustProxy:    cfg.TrustProxy,
		APIRateLimit:  cfg.APIRateLimit,
		APIBurst:      cfg.APIBurst,
		SyncTimeout:   cfg.SyncTimeout,
		RedisClient:   redisClient,
		Catalog:       svc,
		History:       hist,
		Upstream:      up,
		Sessions:      store,
		Verifier:      session.NewVerifier(cfg.ShopifyAPIKey, cfg.ShopifyAPISecret),
		Directory:     directory,
		ReloadTrigger: reloadTrigger,
	}

	server := httpserver.New(cfg, loggerClient, d)

	return &App{
		cfg:         cfg,
		logger:      loggerClient,
		server:      server,
		redisClient: redisClient,
		reloader:    reloader,
		autoSync:    autoSync,
	}
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting Upsync v%s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Infof("Upsync %s (commit=%s, built=%s, go=%s)",
		version.Version, version.Commit, version.BuildDate, version.GoVersion)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load the business directory and start periodic refresh
	if err := a.reloader.Start(ctx); err != nil {
		return fmt.Errorf("failed to start business reloader: %w", err)
	}
	a.logger.Info("business reloader started",
		logger.Duration("interval", a.cfg.BusinessReloadInterval))

	if err := a.autoSync.Start(ctx); err != nil {
		return fmt.Errorf("failed to start auto-sync: %w", err)
	}
	if a.autoSync.Enabled() {
		a.logger.Info("auto-sync started",
			logger.Duration("interval", a.cfg.AutoSyncInterval))
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
	a.autoSync.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	if a.redisClient != nil {
		utils.MustClose(a.redisClient, "redis", a.logger)
	}

	a.logger.Info("✅ Upsync stopped cleanly")
	return nil
}
