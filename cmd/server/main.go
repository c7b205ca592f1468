package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/niaga-platform/service-dashboard/internal/config"
	"github.com/niaga-platform/service-dashboard/internal/events"
	"github.com/niaga-platform/service-dashboard/internal/handlers"
	liblogger "github.com/niaga-platform/service-dashboard/internal/logger"
	"github.com/niaga-platform/service-dashboard/internal/middleware"
	"github.com/niaga-platform/service-dashboard/internal/monitoring"
	"github.com/niaga-platform/service-dashboard/internal/queries"
	"github.com/niaga-platform/service-dashboard/internal/routes"
	"github.com/niaga-platform/service-dashboard/internal/services"
	"github.com/niaga-platform/service-dashboard/internal/telemetry"
	"github.com/niaga-platform/service-dashboard/internal/warehouse"
)

func main() {
	// Load .env file in development
	if os.Getenv("APP_ENV") != "production" {
		_ = godotenv.Load()
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger, err := liblogger.NewLogger(cfg.App.Env)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Initialize Sentry for error tracking
	sentryMonitor, err := monitoring.NewSentryMonitor(&monitoring.SentryConfig{
		DSN:              cfg.Sentry.DSN,
		Environment:      cfg.Sentry.Environment,
		Release:          cfg.Sentry.Release,
		ServiceName:      "dashboard-service",
		TracesSampleRate: 0.1,
	}, logger)
	if err != nil {
		logger.Warn("Failed to initialize Sentry", zap.Error(err))
	}
	defer sentryMonitor.Flush(2 * time.Second)

	// Connect to the warehouse
	ctx := context.Background()
	wh, err := warehouse.Open(ctx, warehouse.Config{
		Driver:    cfg.Warehouse.Driver,
		ProjectID: cfg.Warehouse.ProjectID,
		Location:  cfg.Warehouse.Location,
		DSN:       cfg.Warehouse.DSN,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to connect to warehouse", zap.Error(err))
	}
	defer wh.Close()
	logger.Info("Connected to warehouse",
		zap.String("driver", cfg.Warehouse.Driver),
		zap.String("dataset", cfg.Warehouse.Dataset),
	)

	metrics := telemetry.NewMetrics()

	// Query cache store
	var store services.CacheStore
	if cfg.Cache.Store == "redis" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warn("Redis unreachable, cache lookups will miss until it recovers", zap.Error(err))
		} else {
			logger.Info("Connected to Redis", zap.String("addr", cfg.Redis.Addr()))
		}
		defer redisClient.Close()
		store = services.NewRedisCacheStore(redisClient)
	} else {
		store = services.NewMemoryCacheStore()
	}

	queryService := services.NewQueryService(wh, store, services.QueryServiceConfig{
		TTL:          cfg.Cache.TTL,
		QueryTimeout: cfg.Warehouse.QueryTimeout,
	}, metrics, logger)

	builder := queries.NewBuilder(queries.Dialect(cfg.Warehouse.Driver), cfg.Warehouse.Dataset)
	dashboardService := services.NewDashboardService(queryService, builder, metrics, logger)

	// Connect to NATS (optional - only if configured)
	var eventPublisher *events.Publisher
	if cfg.NATS.URL != "" {
		natsConn, err := nats.Connect(cfg.NATS.URL)
		if err != nil {
			logger.Warn("Failed to connect to NATS, export events disabled", zap.Error(err))
		} else {
			logger.Info("Connected to NATS", zap.String("url", cfg.NATS.URL))
			defer natsConn.Drain()
			eventPublisher = events.NewPublisher(natsConn, logger)
		}
	}

	dashboardHandler := handlers.NewDashboardHandler(dashboardService, eventPublisher, sentryMonitor, metrics, logger)

	// Set Gin mode
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize router
	router := gin.New()

	// Apply global middleware
	router.Use(sentryMonitor.RecoveryMiddleware())
	router.Use(sentryMonitor.GinMiddleware())
	router.Use(middleware.RequestID())
	router.Use(middleware.LoggerMiddleware(logger))

	routes.SetupRoutes(router, &routes.RouteConfig{
		ServiceName:      cfg.App.Name,
		DashboardHandler: dashboardHandler,
		Metrics:          metrics,
	})

	// Create server
	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.Warehouse.QueryTimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("Dashboard service starting on port " + cfg.App.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
