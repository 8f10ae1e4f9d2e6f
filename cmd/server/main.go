package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/rkarimabadi/IME.SpotDataApi-sub000/internal/infrastructure/cache"
	"github.com/rkarimabadi/IME.SpotDataApi-sub000/internal/infrastructure/config"
	"github.com/rkarimabadi/IME.SpotDataApi-sub000/internal/infrastructure/exchange"
	"github.com/rkarimabadi/IME.SpotDataApi-sub000/internal/infrastructure/identity"
	"github.com/rkarimabadi/IME.SpotDataApi-sub000/internal/infrastructure/logger"
	"github.com/rkarimabadi/IME.SpotDataApi-sub000/internal/infrastructure/persistence"
	"github.com/rkarimabadi/IME.SpotDataApi-sub000/internal/infrastructure/scheduler"
	"github.com/rkarimabadi/IME.SpotDataApi-sub000/internal/infrastructure/telemetry"
	"github.com/rkarimabadi/IME.SpotDataApi-sub000/internal/interfaces/http/handler"
	"github.com/rkarimabadi/IME.SpotDataApi-sub000/internal/interfaces/http/router"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting spot data sync service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Create GORM logger backed by zap
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))

	// Initialize database connection
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Redis backs the sync checkpoint store. The service still works
	// without it, checkpoints just stay in memory.
	var redisClient *redis.Client
	var checkpoints cache.CheckpointStore
	redisClient = redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		log.Warn("Redis unavailable, falling back to in-memory checkpoints", zap.Error(err))
		_ = redisClient.Close()
		redisClient = nil
		checkpoints = cache.NewInMemoryCheckpointStore()
	} else {
		checkpoints = cache.NewRedisCheckpointStore(redisClient, "")
		log.Info("Redis connected successfully", zap.String("addr", cfg.Redis.Addr()))
	}
	cancelPing()
	if redisClient != nil {
		defer func() {
			_ = redisClient.Close()
		}()
	}

	// Telemetry
	meterProvider, err := telemetry.NewMeterProvider(context.Background(), telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.ExportInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer func() {
		if err := meterProvider.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down telemetry", zap.Error(err))
		}
	}()

	syncMetrics, err := telemetry.NewSyncMetrics(meterProvider.Meter("spotdata.sync"), log)
	if err != nil {
		log.Fatal("Failed to initialize sync metrics", zap.Error(err))
	}

	// Token provider for the bearer-authenticated exchange endpoints
	tokens := identity.NewProvider(cfg.Identity, log)

	// Exchange client configuration shared by all fetchers
	exchangeCfg := exchange.Config{
		BaseURL:             cfg.Exchange.BaseURL,
		NotificationBaseURL: cfg.Exchange.NotificationBaseURL,
		PageSize:            cfg.Exchange.PageSize,
		Language:            cfg.Exchange.Language,
		PageDelay:           cfg.Exchange.PageDelay,
		DayFetchDelayMin:    cfg.Sync.DayFetchDelayMin,
		DayFetchDelayMax:    cfg.Sync.DayFetchDelayMax,
		Timeout:             cfg.Exchange.Timeout,
		PageHook: func(path string) {
			syncMetrics.AddPage(context.Background(), path)
		},
	}

	// Sync scheduler
	schedulerCfg := scheduler.Config{
		CycleInterval:        cfg.Sync.CycleInterval,
		OfferLookback:        cfg.Sync.OfferLookback,
		TradeReportLookback:  cfg.Sync.TradeReportLookback,
		NotificationLookback: cfg.Sync.NotificationLookback,
		HistorySize:          cfg.Sync.HistorySize,
	}
	steps := scheduler.BuildSteps(exchangeCfg, schedulerCfg, tokens, log)
	syncScheduler, err := scheduler.NewSpotSyncScheduler(schedulerCfg, db, steps, checkpoints, syncMetrics, log)
	if err != nil {
		log.Fatal("Failed to create sync scheduler", zap.Error(err))
	}

	if cfg.Sync.Enabled {
		if err := syncScheduler.Start(context.Background()); err != nil {
			log.Fatal("Failed to start sync scheduler", zap.Error(err))
		}
	} else {
		log.Warn("Sync scheduler disabled by configuration")
	}

	// HTTP surface: liveness and sync monitoring
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(logger.GinMiddleware(log))

	opsHandler := handler.NewOpsHandler(db, redisClient, syncScheduler, checkpoints)
	engine.GET("/healthz", opsHandler.Health)

	router.NewRouter(engine, router.WithAPIVersion("v1")).
		Register(opsHandler).
		Setup()

	srv := &http.Server{
		Addr:    ":" + cfg.App.Port,
		Handler: engine,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := syncScheduler.Stop(ctx); err != nil && !errors.Is(err, scheduler.ErrSchedulerNotRunning) {
		log.Error("Sync scheduler forced to stop", zap.Error(err))
	}
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Service exited gracefully")
}
