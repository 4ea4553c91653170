package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	integrationapp "github.com/Rafcin/openship/internal/application/integration"
	matchingapp "github.com/Rafcin/openship/internal/application/matching"
	orderapp "github.com/Rafcin/openship/internal/application/order"
	routingapp "github.com/Rafcin/openship/internal/application/routing"
	"github.com/Rafcin/openship/internal/application/webhook"
	"github.com/Rafcin/openship/internal/domain/order"
	"github.com/Rafcin/openship/internal/domain/shared"
	"github.com/Rafcin/openship/internal/infrastructure/adapter"
	"github.com/Rafcin/openship/internal/infrastructure/auth"
	"github.com/Rafcin/openship/internal/infrastructure/cache"
	"github.com/Rafcin/openship/internal/infrastructure/config"
	"github.com/Rafcin/openship/internal/infrastructure/event"
	"github.com/Rafcin/openship/internal/infrastructure/lock"
	"github.com/Rafcin/openship/internal/infrastructure/logger"
	"github.com/Rafcin/openship/internal/infrastructure/persistence"
	"github.com/Rafcin/openship/internal/infrastructure/platform/douyin"
	"github.com/Rafcin/openship/internal/infrastructure/platform/shopify"
	"github.com/Rafcin/openship/internal/infrastructure/predicate"
	"github.com/Rafcin/openship/internal/infrastructure/scheduler"
	"github.com/Rafcin/openship/internal/infrastructure/storage"
	"github.com/Rafcin/openship/internal/infrastructure/telemetry"
	"github.com/Rafcin/openship/internal/interfaces/http/handler"
	"github.com/Rafcin/openship/internal/interfaces/http/middleware"
	"github.com/Rafcin/openship/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

//	@title			Openship API
//	@version		1.0
//	@description	Routes storefront orders to fulfillment channels and relays tracking back.

//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

// version is overridden at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
		Service:    cfg.App.Name,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	// background work without a request logger logs through the global
	zap.ReplaceGlobals(log)
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting Openship",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	ctx := context.Background()

	// Telemetry providers are no-ops when disabled
	providers, err := telemetry.Setup(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down telemetry", zap.Error(err))
		}
	}()

	// Database
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, log, logger.MapGormLogLevel(cfg.Log.Level))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if cfg.Telemetry.DBTraceEnabled {
		if err := telemetry.NewDBTracing(200*time.Millisecond, log).Register(db.DB); err != nil {
			log.Warn("Failed to register database tracing", zap.Error(err))
		}
	}
	log.Info("Database connected successfully")

	// Repositories
	platformRepo := persistence.NewGormPlatformRepository(db.DB)
	shopRepo := persistence.NewGormShopRepository(db.DB)
	channelRepo := persistence.NewGormChannelRepository(db.DB)
	linkRepo := persistence.NewGormLinkRepository(db.DB)
	shopItemRepo := persistence.NewGormShopItemRepository(db.DB)
	channelItemRepo := persistence.NewGormChannelItemRepository(db.DB)
	matchRepo := persistence.NewGormMatchRepository(db.DB)
	orderRepo := persistence.NewGormOrderRepository(db.DB)
	cartItemRepo := persistence.NewGormCartItemRepository(db.DB)
	trackingRepo := persistence.NewGormTrackingRepository(db.DB)

	// Metrics for routing outcomes and adapter calls
	routingMetrics, err := telemetry.NewRoutingMetrics(providers.Meter("openship"))
	if err != nil {
		log.Fatal("Failed to create routing metrics", zap.Error(err))
	}

	// Platform adapters
	registry, err := adapter.NewRegistry(shopify.New(), douyin.New())
	if err != nil {
		log.Fatal("Failed to build adapter registry", zap.Error(err))
	}
	executor := adapter.NewExecutor(registry,
		adapter.WithHTTPClient(&http.Client{Timeout: cfg.Adapter.RequestTimeout}),
		adapter.WithLogger(log),
		adapter.WithTracer(providers.Tracer("openship/adapter")),
		adapter.WithObserver(routingMetrics),
		adapter.WithMaxResponseSize(cfg.Adapter.MaxResponseSize),
	)

	// Idempotency and OAuth state stores: Redis when configured
	stores, err := cache.NewStoreFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(cfg.App.Env != "production"),
	).Create(ctx)
	if err != nil {
		log.Fatal("Failed to create stores", zap.Error(err))
	}
	defer func() {
		if err := stores.Close(); err != nil {
			log.Error("Error closing stores", zap.Error(err))
		}
	}()

	// Per-order placement lock
	var locker order.Locker = lock.NewKeyedMutex()
	if stores.Client != nil {
		locker = lock.NewRedisLocker(stores.Client, cfg.Placement.LockTTL,
			lock.WithKeyPrefix("openship:lock:order:"),
			lock.WithLogger(log),
		)
		log.Info("Using Redis placement lock", zap.Duration("ttl", cfg.Placement.LockTTL))
	}

	evaluator, err := predicate.NewCELEvaluator()
	if err != nil {
		log.Fatal("Failed to create filter evaluator", zap.Error(err))
	}

	// Application services
	publicURL := cfg.App.PublicURL
	platformService := integrationapp.NewPlatformService(platformRepo, log)
	shopService := integrationapp.NewShopService(shopRepo, platformRepo, executor, publicURL, log)
	shopService.SetAdapterTimeout(cfg.Adapter.RequestTimeout)
	channelService := integrationapp.NewChannelService(channelRepo, platformRepo, executor, publicURL, log)
	channelService.SetAdapterTimeout(cfg.Adapter.RequestTimeout)
	oauthService := integrationapp.NewOAuthService(platformRepo, shopRepo, channelRepo, stores.OAuthState,
		executor, publicURL, cfg.OAuth.StateTTL, log)
	matchService := matchingapp.NewMatchService(matchRepo, shopItemRepo, channelItemRepo, shopRepo, channelRepo, executor)
	matchService.SetAdapterTimeout(cfg.Adapter.RequestTimeout)
	linkService := routingapp.NewLinkService(linkRepo, shopRepo, channelRepo, evaluator)

	placementService := orderapp.NewPlacementService(orderRepo, cartItemRepo, shopRepo, channelRepo, executor, locker,
		orderapp.PlacementOptions{
			MaxConcurrency:    cfg.Placement.MaxConcurrency,
			AdapterTimeout:    cfg.Adapter.RequestTimeout,
			BestEffortTimeout: cfg.Adapter.BestEffortTimeout,
		})
	lifecycleService := orderapp.NewLifecycleService(orderRepo, cartItemRepo, trackingRepo, shopRepo,
		linkService, matchService, placementService, executor)
	cartService := orderapp.NewCartService(orderRepo, cartItemRepo, channelRepo, placementService)

	// Event bus
	eventBus := event.NewInMemoryEventBus(log)
	eventBus.Subscribe(routingMetrics)
	eventBus.Subscribe(event.HandlerFunc(func(_ context.Context, e shared.DomainEvent) error {
		log.Info("Order lifecycle event",
			zap.String("event_type", e.EventType()),
			zap.String("order_id", e.AggregateID().String()),
			zap.String("owner_id", e.OwnerID().String()))
		return nil
	}, order.EventTypeOrderStatusChanged, order.EventTypeOrderCancelled))
	log.Info("Event handlers registered", zap.Strings("routing_metrics_events", routingMetrics.EventTypes()))
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()
	lifecycleService.SetEventPublisher(eventBus)
	placementService.SetEventPublisher(eventBus)

	// Raw webhook archive
	var archive webhook.PayloadArchive = webhook.NopArchive{}
	if cfg.Storage.Enabled {
		s3Archive, err := storage.NewS3Archive(ctx, cfg.Storage, storage.WithLogger(log))
		if err != nil {
			log.Fatal("Failed to create webhook archive", zap.Error(err))
		}
		if err := s3Archive.EnsureBucket(ctx); err != nil {
			log.Warn("Webhook archive bucket check failed", zap.String("bucket", cfg.Storage.Bucket), zap.Error(err))
		}
		archive = s3Archive
		log.Info("Webhook archive enabled", zap.String("bucket", cfg.Storage.Bucket))
	}

	normalizer := webhook.NewNormalizer(executor)
	ingestionService := webhook.NewIngestionService(shopRepo, channelRepo, normalizer, lifecycleService,
		stores.Idempotency, archive, cfg.Webhook.IdempotencyTTL)

	// Placement retry scheduler (if enabled)
	if cfg.Scheduler.Enabled {
		schedulerConfig := scheduler.ConfigFrom(cfg.Scheduler)
		retryScheduler, err := scheduler.NewScheduler(schedulerConfig, placementService, log)
		if err != nil {
			log.Fatal("Failed to create retry scheduler", zap.Error(err))
		}
		if err := retryScheduler.Start(ctx); err != nil {
			log.Fatal("Failed to start retry scheduler", zap.Error(err))
		}
		defer func() {
			if err := retryScheduler.Stop(context.Background()); err != nil {
				log.Error("Error stopping retry scheduler", zap.Error(err))
			}
		}()

		trigger := scheduler.NewTrigger(schedulerConfig, orderRepo, retryScheduler, log)
		if err := trigger.Start(ctx); err != nil {
			log.Fatal("Failed to start retry trigger", zap.Error(err))
		}
		defer func() {
			if err := trigger.Stop(context.Background()); err != nil {
				log.Error("Error stopping retry trigger", zap.Error(err))
			}
		}()
		log.Info("Retry scheduler started",
			zap.Duration("interval", cfg.Scheduler.Interval),
			zap.Int("max_concurrent_jobs", cfg.Scheduler.MaxConcurrentJobs),
			zap.Duration("job_timeout", cfg.Scheduler.JobTimeout),
		)
	}

	// HTTP handlers
	systemHandler := handler.NewSystemHandler(cfg.App.Name, version, db)
	platformHandler := handler.NewPlatformHandler(platformService)
	shopHandler := handler.NewShopHandler(shopService, linkService)
	channelHandler := handler.NewChannelHandler(channelService)
	linkHandler := handler.NewLinkHandler(linkService)
	matchHandler := handler.NewMatchHandler(matchService)
	orderHandler := handler.NewOrderHandler(lifecycleService, cartService, placementService)
	webhookHandler := handler.NewWebhookHandler(ingestionService)
	oauthHandler := handler.NewOAuthHandler(oauthService)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Middleware stack, outermost first:
	// request ID, access log, panic recovery, security headers, CORS,
	// body limit, tracing, HTTP metrics, request timeout
	engine.Use(middleware.RequestID())
	engine.Use(logger.GinMiddleware(log))
	engine.Use(logger.Recovery())
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     providers.Enabled(),
	}))
	engine.Use(middleware.TracingAttributeInjector())
	engine.Use(middleware.SpanErrorMarker())
	engine.Use(middleware.HTTPMetrics(providers.Meter("openship/http"), log))
	engine.Use(middleware.Timeout(cfg.HTTP.WriteTimeout))

	// JWT runs first under /api/v1 so the rate limiter can key by owner
	jwtConfig := middleware.DefaultJWTConfig(auth.NewJWTService(cfg.JWT))
	jwtConfig.Logger = log
	apiMiddleware := []gin.HandlerFunc{middleware.JWTAuthMiddlewareWithConfig(jwtConfig)}

	if cfg.HTTP.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRPS, cfg.HTTP.RateLimitBurst)
		defer rateLimiter.Stop()
		apiMiddleware = append(apiMiddleware, middleware.RateLimit(rateLimiter))
		log.Info("Rate limiting enabled",
			zap.Float64("rps", cfg.HTTP.RateLimitRPS),
			zap.Int("burst", cfg.HTTP.RateLimitBurst),
		)
	}

	r := router.NewRouter(engine,
		router.WithAPIVersion("v1"),
		router.WithAPIMiddleware(apiMiddleware...),
		router.WithHealthRoutes(systemHandler),
	)
	r.Register(
		systemHandler,
		platformHandler,
		shopHandler,
		channelHandler,
		linkHandler,
		matchHandler,
		orderHandler,
		webhookHandler,
		oauthHandler,
	).Setup()
	log.Debug("Routes registered", zap.Strings("routes", r.Routes()))

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
		return
	}

	log.Info("Server exited gracefully")
}
