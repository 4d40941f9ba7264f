package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/richxcame/cyberguard/internal/analysis"
	"github.com/richxcame/cyberguard/internal/providers"
	"github.com/richxcame/cyberguard/internal/reporting"
	"github.com/richxcame/cyberguard/internal/threatintel"
	"github.com/richxcame/cyberguard/pkg/common"
	"github.com/richxcame/cyberguard/pkg/config"
	"github.com/richxcame/cyberguard/pkg/database"
	"github.com/richxcame/cyberguard/pkg/events"
	"github.com/richxcame/cyberguard/pkg/health"
	"github.com/richxcame/cyberguard/pkg/logger"
	"github.com/richxcame/cyberguard/pkg/middleware"
	"github.com/richxcame/cyberguard/pkg/monitoring"
	"github.com/richxcame/cyberguard/pkg/ratelimit"
	"github.com/richxcame/cyberguard/pkg/redis"
	"github.com/richxcame/cyberguard/pkg/storage"
	"github.com/richxcame/cyberguard/pkg/tracing"
	ws "github.com/richxcame/cyberguard/pkg/websocket"
	"go.uber.org/zap"
)

const (
	serviceName    = "cyberguard-api"
	maxRequestBody = 1 << 20
)

func main() {
	// Load configuration
	cfg, err := config.Load(serviceName)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(cfg.Server.Environment); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	sentryEnabled, err := monitoring.Init(cfg.Sentry, cfg.Server.Environment, cfg.Server.Version)
	if err != nil {
		logger.Warn("Failed to initialize Sentry", zap.Error(err))
	}

	rootCtx := context.Background()

	shutdownTracing, err := tracing.Init(rootCtx, cfg.Tracing, serviceName, cfg.Server.Version)
	if err != nil {
		logger.Warn("Failed to initialize tracing", zap.Error(err))
	}

	// Schema migrations run over database/sql
	if cfg.Database.MigrationsAuto {
		sqlDB, err := database.OpenSQL(&cfg.Database)
		if err != nil {
			logger.Fatal("Failed to open database for migrations", zap.Error(err))
		}
		if err := database.MigrateUp(sqlDB); err != nil {
			logger.Fatal("Failed to run migrations", zap.Error(err))
		}
		_ = sqlDB.Close()
	}

	// Connect to PostgreSQL
	pool, err := database.NewPostgresPool(&cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close(pool)
	logger.Info("Connected to PostgreSQL database")

	// Connect to Redis
	redisClient, err := redis.NewRedisClient(&cfg.Redis)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer func() { _ = redisClient.Close() }()
	logger.Info("Connected to Redis")

	checks := map[string]func() error{
		"database": health.PingChecker(pool),
		"redis":    health.RedisChecker(redisClient.Client),
	}

	var publisher events.Publisher = events.NoopPublisher{}
	if cfg.Events.Enabled {
		natsPublisher, err := events.NewNATSPublisher(cfg.Events, serviceName)
		if err != nil {
			logger.Warn("Failed to connect to NATS, events disabled", zap.Error(err))
		} else {
			publisher = natsPublisher
			checks["nats"] = health.StatusChecker("nats", natsPublisher.IsConnected)
			logger.Info("Connected to NATS", zap.String("url", cfg.Events.URL))
		}
	}
	defer publisher.Close()

	var archive storage.Storage
	if cfg.Storage.Enabled {
		s3Storage, err := storage.NewS3Storage(rootCtx, storage.Config{
			Bucket:    cfg.Storage.Bucket,
			Region:    cfg.Storage.Region,
			Endpoint:  cfg.Storage.Endpoint,
			AccessKey: cfg.Storage.AccessKey,
			SecretKey: cfg.Storage.SecretKey,
			BaseURL:   cfg.Storage.BaseURL,
		})
		if err != nil {
			logger.Warn("Failed to initialize evidence storage, archiving disabled", zap.Error(err))
		} else {
			archive = s3Storage
			logger.Info("Evidence archive enabled", zap.String("bucket", cfg.Storage.Bucket))
		}
	}

	// Create WebSocket hub
	hub := ws.NewHub()
	go hub.Run()

	// Threat intelligence
	threatRepo := threatintel.NewRepository(pool)
	threatService := threatintel.NewService(threatRepo, publisher)

	seeds, err := threatintel.LoadSeeds(cfg.ThreatIntel.SeedFile)
	if err != nil {
		logger.Fatal("Failed to load threat intelligence seeds", zap.Error(err))
	}
	seedCtx, seedCancel := context.WithTimeout(rootCtx, 10*time.Second)
	if n, err := threatService.Seed(seedCtx, seeds); err != nil {
		logger.Warn("Failed to seed threat intelligence", zap.Int("inserted", n), zap.Error(err))
	} else if n > 0 {
		logger.Info("Seeded threat intelligence", zap.Int("inserted", n))
	}
	seedCancel()

	// Analysis pipeline
	registry := providers.WrapRegistry(providers.NewSimulatedRegistry(providers.Options{
		Rand:       providers.NewRand(cfg.Providers.RandomSeed),
		DelayScale: cfg.Providers.DelayScale,
	}), cfg.Providers)

	analysisOpts := []analysis.Option{
		analysis.WithStatsCache(redisClient),
		analysis.WithScamReportCounter(threatService),
		analysis.WithPublisher(publisher),
		analysis.WithNotifier(hub),
	}
	if archive != nil {
		analysisOpts = append(analysisOpts, analysis.WithEvidenceArchive(archive))
	}
	analysisService := analysis.NewService(analysis.NewRepository(pool), registry, cfg.Analysis, analysisOpts...)

	var sweeper *analysis.Sweeper
	if cfg.Sweeper.Enabled {
		sweeper = analysis.NewSweeper(analysisService, cfg.Sweeper.Schedule, logger.Get())
		if err := sweeper.Start(); err != nil {
			logger.Fatal("Failed to start sweeper", zap.Error(err))
		}
	}

	reportingService := reporting.NewService(analysisService, threatService, archive, cfg.Storage.URLExpiry)

	analysisHandler := analysis.NewHandler(analysisService, hub)
	threatHandler := threatintel.NewHandler(threatService)
	reportingHandler := reporting.NewHandler(reportingService)

	limiter := ratelimit.NewLimiter(redisClient, cfg.RateLimit)
	submit := ratelimit.Middleware(limiter, limiter.DefaultRule())

	// Set up Gin router
	if cfg.Server.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(middleware.Recovery())
	if sentryEnabled {
		router.Use(monitoring.Middleware())
	}
	router.Use(middleware.CorrelationID())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.Metrics(serviceName))
	router.Use(middleware.SecurityHeaders(cfg.Server.IsProduction()))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.Server.AllowedOrigins()
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", middleware.CorrelationIDHeader}
	corsConfig.ExposeHeaders = []string{middleware.CorrelationIDHeader, "X-RateLimit-Limit", "X-RateLimit-Remaining", "Retry-After"}
	router.Use(cors.New(corsConfig))

	// Health check and metrics
	router.GET("/livez", common.HealthCheck(serviceName, cfg.Server.Version))
	router.GET("/healthz", common.HealthCheckWithDeps(serviceName, cfg.Server.Version, checks))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API routes
	api := router.Group("/api")
	api.Use(middleware.MaxBodySize(maxRequestBody))
	api.Use(middleware.Timeout(time.Duration(cfg.Server.RequestTimeout) * time.Second))
	{
		analysisHandler.RegisterRoutes(api, submit)
		threatHandler.RegisterRoutes(api, submit)
		reportingHandler.RegisterRoutes(api, submit)
	}

	// Websocket streams stay outside the timeout middleware
	stream := router.Group("/api")
	analysisHandler.RegisterStreamRoutes(stream)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("CyberGuard API starting", zap.String("port", cfg.Server.Port), zap.String("environment", cfg.Server.Environment))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server shutdown error", zap.Error(err))
	}
	if sweeper != nil {
		sweeper.Stop()
	}
	if err := analysisService.Shutdown(ctx); err != nil {
		logger.Warn("Analyses still running at shutdown", zap.Error(err))
	}
	hub.Stop()
	if shutdownTracing != nil {
		if err := shutdownTracing(ctx); err != nil {
			logger.Warn("Tracing shutdown error", zap.Error(err))
		}
	}
	monitoring.Flush(2 * time.Second)
	logger.Info("Server stopped")
}
