package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"tweet-giveaway-backend/docs"
	"tweet-giveaway-backend/internal/common/cache"
	"tweet-giveaway-backend/internal/common/config"
	"tweet-giveaway-backend/internal/common/logger"
	"tweet-giveaway-backend/internal/common/middleware"
	giveawayHttp "tweet-giveaway-backend/internal/features/giveaway/delivery/http"
	"tweet-giveaway-backend/internal/features/giveaway/repository"
	"tweet-giveaway-backend/internal/features/giveaway/repository/memory"
	giveawayRepo "tweet-giveaway-backend/internal/features/giveaway/repository/postgres"
	giveawayService "tweet-giveaway-backend/internal/features/giveaway/service"
	"tweet-giveaway-backend/internal/features/proof"
	"tweet-giveaway-backend/internal/features/settlement"
	"tweet-giveaway-backend/internal/platform/postgres"
	"tweet-giveaway-backend/internal/platform/redis"
	"tweet-giveaway-backend/internal/workers"
)

// @title           Tweet Giveaway API
// @version         1.0
// @description     Token giveaways claimed by posting a tweet with the required keywords.

// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Bearer JWT issued by the identity provider

// @tag.name giveaways
// @tag.description Giveaway creation, viewing and cancellation

// @tag.name claims
// @tag.description Direct claims and tweet verification

// @tag.name users
// @tag.description Stats and activity of the current user

func main() {
	// Инициализируем конфигурацию
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.ServiceName, cfg.Debug)
	logger.Info().
		Str("store", cfg.StoreDriver).
		Str("settlement", cfg.Settlement.Transport).
		Msg("Starting tweet giveaway backend")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Инициализируем хранилище
	var (
		store          repository.Store
		postgresClient *postgres.Client
	)
	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		store = memory.NewStore()
		logger.Warn().Msg("Using in-memory store, data is lost on restart")
	default:
		postgresClient, err = postgres.NewClient(cfg.Postgres)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to connect to database")
		}
		defer postgresClient.Close()
		store = giveawayRepo.NewPostgresRepository(postgresClient.GetDB())
	}

	// Redis обязателен только для stream-транспорта расчетов
	redisClient, err := redis.CreateRedisClient(ctx, cfg)
	if err != nil {
		if cfg.Settlement.Transport == config.SettlementTransportRedis {
			logger.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		logger.Warn().Err(err).Msg("Redis unavailable, cache and rate limiting disabled")
		redisClient = nil
	} else {
		defer redisClient.Close()
	}

	var (
		cacheService *cache.CacheService
		limiter      middleware.Limiter
	)
	if redisClient != nil {
		cacheService = cache.NewCacheService(redisClient)
		limiter = redis.NewRateLimiter(redisClient, "")
	}

	twitterClient, err := proof.NewTwitterClient(cfg.Twitter.APIBaseURL, cfg.Twitter.BearerToken, cfg.Twitter.FetchTimeout, cfg.Twitter.CacheSize)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create twitter client")
	}

	settler := newSettler(cfg)
	notifier, closeNotifier, err := newNotifier(cfg, redisClient, settler)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize settlement notifier")
	}
	defer closeNotifier()

	giveawaySvc := giveawayService.NewGiveawayService(store, twitterClient, notifier, cacheService, cfg)

	// Фоновые задачи
	if cfg.Settlement.Transport == config.SettlementTransportRedis {
		worker := workers.NewSettlementStreamWorker(
			redisClient,
			settler,
			cfg.Settlement.StreamKey,
			cfg.Settlement.Group,
			cfg.Settlement.Consumer,
			cfg.Settlement.Workers,
			cfg.Settlement.Timeout,
		)
		go worker.Start(ctx)
	}

	var reconciler *workers.CompletionReconciler
	if cfg.Reconcile.Enabled {
		reconciler = workers.NewCompletionReconciler(giveawaySvc, cfg.Reconcile.Schedule)
		if err := reconciler.Start(); err != nil {
			logger.Fatal().Err(err).Str("schedule", cfg.Reconcile.Schedule).Msg("Failed to schedule reconciler")
		}
	}

	// Настраиваем Gin
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())
	router.Use(middleware.ErrorHandler())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.Server.Origin}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Content-Type", "Authorization", "Accept", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID", "Retry-After"}
	router.Use(cors.New(corsConfig))

	router.Use(middleware.Authenticate(cfg.Auth.JWTSecret, cfg.Auth.Issuer))

	v1 := router.Group("/api/v1")
	giveawayHttp.NewGiveawayHandler(giveawaySvc, limiter, cfg.Claims.RateLimitPerMinute).RegisterRoutes(v1)

	docs.SwaggerInfo.BasePath = v1.BasePath()
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	setupHealthRoutes(router, cfg, postgresClient, redisClient)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Int("port", cfg.Server.Port).Msg("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}
	if reconciler != nil {
		<-reconciler.Stop().Done()
	}

	logger.Info().Msg("Server exited")
}

func newSettler(cfg *config.Config) settlement.Settler {
	if cfg.Settlement.WebhookURL == "" {
		return settlement.LogSettler{}
	}
	return settlement.NewWebhookSettler(cfg.Settlement.WebhookURL, cfg.Settlement.Timeout)
}

// newNotifier выбирает транспорт событий расчета
func newNotifier(cfg *config.Config, redisClient redis.RedisClient, settler settlement.Settler) (settlement.Notifier, func(), error) {
	switch cfg.Settlement.Transport {
	case config.SettlementTransportRedis:
		return settlement.NewStreamNotifier(redisClient, cfg.Settlement.StreamKey), func() {}, nil
	case config.SettlementTransportAMQP:
		n, err := settlement.NewAMQPNotifier(cfg.Settlement.AMQPURL, cfg.Settlement.Exchange)
		if err != nil {
			return nil, nil, err
		}
		return n, n.Close, nil
	case config.SettlementTransportNone:
		n := settlement.NewAsyncNotifier(settlement.LogSettler{}, 1, 1024, cfg.Settlement.Timeout)
		return n, n.Close, nil
	default:
		n := settlement.NewAsyncNotifier(settler, cfg.Settlement.Workers, 1024, cfg.Settlement.Timeout)
		return n, n.Close, nil
	}
}

func setupHealthRoutes(router *gin.Engine, cfg *config.Config, postgresClient *postgres.Client, redisClient redis.RedisClient) {
	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().UTC(),
			"service":   cfg.ServiceName,
		})
	})

	// Liveness probe
	router.GET("/live", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	// Readiness probe
	router.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if postgresClient != nil {
			if err := postgresClient.HealthCheck(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status": "unready",
					"error":  "postgres unavailable",
				})
				return
			}
		}

		if redisClient != nil {
			if err := redisClient.Ping(ctx).Err(); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status": "unready",
					"error":  "redis unavailable",
				})
				return
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "ready",
			"timestamp": time.Now().UTC(),
			"service":   cfg.ServiceName,
		})
	})
}
