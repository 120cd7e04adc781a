package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerfiles "github.com/swaggo/files"
	ginswagger "github.com/swaggo/gin-swagger"

	"streamraffle-backend/internal/common/config"
	"streamraffle-backend/internal/common/logger"
	"streamraffle-backend/internal/common/middleware"
	drawhttp "streamraffle-backend/internal/features/draw/delivery/http"
	drawrepo "streamraffle-backend/internal/features/draw/repository/postgres"
	drawredis "streamraffle-backend/internal/features/draw/repository/redis"
	drawservice "streamraffle-backend/internal/features/draw/service"
	entrypg "streamraffle-backend/internal/features/entry/repository/postgres"
	entryredis "streamraffle-backend/internal/features/entry/repository/redis"
	entryservice "streamraffle-backend/internal/features/entry/service"
	giveawayhttp "streamraffle-backend/internal/features/giveaway/delivery/http"
	giveawaypg "streamraffle-backend/internal/features/giveaway/repository/postgres"
	giveawayservice "streamraffle-backend/internal/features/giveaway/service"
	"streamraffle-backend/internal/features/notify"
	ruleshttp "streamraffle-backend/internal/features/rules/delivery/http"
	rulespg "streamraffle-backend/internal/features/rules/repository/postgres"
	rulesservice "streamraffle-backend/internal/features/rules/service"
	"streamraffle-backend/internal/platform/accounts"
	"streamraffle-backend/internal/platform/postgres"
	"streamraffle-backend/internal/platform/randomorg"
	"streamraffle-backend/internal/platform/redis"
	"streamraffle-backend/internal/platform/streamapi"
	"streamraffle-backend/internal/workers"
)

// @title           StreamRaffle API
// @version         1.0
// @description     Entry accumulation and verifiable draw engine for live-stream giveaways.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey AdminID
// @in header
// @name X-Admin-ID
// @description Operator id forwarded by the dashboard gateway

// @tag.name giveaways
// @tag.description Giveaway lifecycle, entries and keyword publication

// @tag.name draws
// @tag.description Verifiable draws, repicks and the audit trail

// @tag.name rules
// @tag.description Global ticket-rule defaults per admin

func main() {
	cfg := config.Load()
	logger.Init("streamraffle-backend", cfg.Debug)

	logger.Info().Bool("debug", cfg.Debug).Msg("Starting streamraffle backend")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	postgresClient, err := postgres.NewClient(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer postgresClient.Close()

	if err := postgresClient.EnsureSchema(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Failed to apply database schema")
	}

	redisClient, err := redis.Open(ctx, cfg.RedisAddr(), cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer redisClient.Close()

	db := postgresClient.DB()

	giveawayRepository := giveawaypg.NewPostgresRepository(db)
	entryRepository := entrypg.NewPostgresRepository(db)
	ruleRepository := rulespg.NewPostgresRepository(db)
	drawRepository := drawrepo.NewPostgresRepository(db)
	accountStore := accounts.NewPostgresStore(db)

	keywordIndex := entryredis.NewKeywordIndex(redisClient)
	dedupLedger := entryredis.NewDedupLedger(redisClient, cfg.Dedup.TTL)

	platformClient := streamapi.NewClient(cfg, accountStore)
	randomClient := randomorg.NewClient(cfg.RandomOrg.APIKey, cfg.RandomOrg.BaseURL, cfg.RandomOrg.Timeout)
	notifier := notify.NewRedisNotifier(redisClient)

	resolver := entryservice.NewResolver(ruleRepository)
	entrySvc := entryservice.NewEntryService(keywordIndex, dedupLedger, entryRepository, giveawayRepository, resolver, platformClient, notifier)
	giveawaySvc := giveawayservice.NewGiveawayService(giveawayRepository, keywordIndex, dedupLedger, accountStore)
	drawLocker := drawredis.NewDrawLocker(redisClient, cfg.Draw.LockTTL)
	drawSvc := drawservice.NewDrawService(drawRepository, giveawayRepository, keywordIndex, dedupLedger, randomClient, drawLocker, cfg.Draw.HashAlgorithm)
	ruleSvc := rulesservice.NewRuleService(ruleRepository)

	hub := notify.NewHub(redisClient, cfg.Server.Origin)
	go hub.Run(ctx)

	ingestWorker := workers.NewIngestWorker(redisClient, entrySvc)
	go ingestWorker.Start(ctx)

	maintenanceWorker := workers.NewMaintenanceWorker(keywordIndex, dedupLedger, giveawayRepository)
	if err := maintenanceWorker.Start(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Failed to start maintenance worker")
	}

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.Server.Origin}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Content-Type", "Accept", "X-Admin-ID", "X-Request-ID"}
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		if err := postgresClient.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "postgres": err.Error()})
			return
		}
		if err := redisClient.Ping(c.Request.Context()).Err(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "redis": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/swagger/*any", ginswagger.WrapHandler(swaggerfiles.Handler))
	router.GET("/ws", hub.Handle)

	v1 := router.Group("/api/v1")
	v1.Use(middleware.AdminAuth())
	giveawayhttp.NewGiveawayHandler(giveawaySvc, entrySvc).RegisterRoutes(v1)
	drawhttp.NewDrawHandler(drawSvc).RegisterRoutes(v1)
	ruleshttp.NewRuleHandler(ruleSvc).RegisterRoutes(v1)

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
	logger.Info().Msg("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("Server exited")
}
