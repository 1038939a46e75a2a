package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/storefront/backend/internal/application/gateway"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/auth"
	"github.com/storefront/backend/internal/infrastructure/cache"
	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/storefront/backend/internal/infrastructure/jobqueue"
	"github.com/storefront/backend/internal/infrastructure/logger"
	"github.com/storefront/backend/internal/infrastructure/persistence"
	"github.com/storefront/backend/internal/infrastructure/secrets"
	"github.com/storefront/backend/internal/infrastructure/shipping"
	"github.com/storefront/backend/internal/interfaces/http/handler"
	"github.com/storefront/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

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

	log.Info("Starting fulfillment gateway",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	gormLevel := gormlogger.Silent
	if cfg.Log.Level == "debug" {
		gormLevel = gormlogger.Info
	}
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLevel)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected")

	cipherKey, err := cfg.Secrets.CipherKey()
	if err != nil {
		log.Fatal("Invalid cipher key", zap.Error(err))
	}
	cipher, err := secrets.NewSecretCipher(cipherKey)
	if err != nil {
		log.Fatal("Failed to initialize secret cipher", zap.Error(err))
	}

	// Redis is an optimization for webhook dedup; the gateway runs without it
	var dedupStore shared.IdempotencyStore
	if cfg.Queue.DedupEnabled {
		redisStore, err := cache.NewRedisDedupStore(&cfg.Redis)
		if err != nil {
			log.Warn("Redis unavailable, using in-memory webhook dedup", zap.Error(err))
			dedupStore = cache.NewInMemoryDedupStore()
		} else {
			dedupStore = redisStore
		}
		defer func() {
			if err := dedupStore.Close(); err != nil {
				log.Error("Error closing dedup store", zap.Error(err))
			}
		}()
	}

	// Repositories
	credentialRepo := persistence.NewGormCredentialRepository(db.DB)
	orderRepo := persistence.NewGormOrderRepository(db.DB)
	inventoryRepo := persistence.NewGormInventoryRepository(db.DB)
	auditRepo := persistence.NewGormAuditRepository(db.DB)
	jobRepo := jobqueue.NewGormJobRepository(db.DB)

	feedClient := shipping.NewFeedClient(shipping.FeedClientConfig{
		BaseURL: cfg.Feed.BaseURL,
		APIKey:  cfg.Feed.APIKey,
		Timeout: cfg.Feed.Timeout,
	})

	// Application services
	authService := gateway.NewAuthService(credentialRepo, auditRepo, cipher, log)
	exportService := gateway.NewExportService(orderRepo, auditRepo, log)
	shipmentService := gateway.NewShipmentService(orderRepo, auditRepo, log)
	inventoryService := gateway.NewInventoryService(feedClient, inventoryRepo, auditRepo, cfg.Feed.PageSize, log)
	webhookService := gateway.NewWebhookService(shipmentService, jobRepo, dedupStore,
		shared.IdempotencyConfig{Enabled: cfg.Queue.DedupEnabled, TTL: cfg.Queue.DedupTTL}, auditRepo, log)
	queueService := gateway.NewQueueService(jobRepo, auditRepo, log)

	// Worker pool draining the durable job queue
	dispatcher := gateway.NewJobDispatcher(shipmentService, inventoryService, auditRepo, log)
	workers := jobqueue.NewWorkerPool(jobRepo, dispatcher.Handle, jobqueue.WorkerPoolConfig{
		WorkerCount:    cfg.Queue.WorkerCount,
		PollInterval:   cfg.Queue.PollInterval,
		HandlerTimeout: cfg.Queue.HandlerTimeout,
	}, log)
	if err := workers.Start(context.Background()); err != nil {
		log.Fatal("Failed to start job workers", zap.Error(err))
	}

	operatorTokens := auth.NewOperatorTokenService(cfg.Operator)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Fatal("Invalid trusted proxies", zap.Error(err))
		}
	}

	router.NewRouter(engine, router.Config{
		Logger:         log,
		AuthService:    authService,
		OperatorTokens: operatorTokens,
		MaxBodySize:    cfg.HTTP.MaxBodySize,
	}).
		System(handler.NewSystemHandler(db, version)).
		Public(handler.NewWebhookHandler(webhookService)).
		Integration(
			handler.NewExportHandler(exportService),
			handler.NewShipmentHandler(shipmentService),
		).
		Admin(handler.NewAdminHandler(queueService, authService)).
		Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server shutdown failed", zap.Error(err))
	}
	if err := workers.Stop(ctx); err != nil {
		log.Error("Worker pool shutdown failed", zap.Error(err))
	}
	log.Info("Shutdown complete")
}
