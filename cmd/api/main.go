package main

// @title Appointment Map Service API
// @version 1.0.0
// @description Серверное ядро map-виджета CRM: показывает встречи пользователя за день на карте.
// @description
// @description Основные возможности:
// @description - Сессии виджета с кешами геокодирования и маршрутов на время жизни инстанса
// @description - Разрешение адресов встреч: поле location или адрес связанной CRM-сущности
// @description - Пакетное геокодирование через Mapbox с дросселированием запросов
// @description - Группировка встреч в остановки и хронологическая нумерация маркеров
// @description - Автомобильный маршрут дня с посегментной сводкой
// @description - Пересинхронизация по событиям изменения встреч (Redis Streams)

// @contact.name API Support
// @contact.email support@appointment-map-service.com

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /
// @schemes http https

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	_ "github.com/appointment-map-service/docs/swagger"
	"github.com/appointment-map-service/internal/config"
	httpDelivery "github.com/appointment-map-service/internal/delivery/http"
	"github.com/appointment-map-service/internal/delivery/http/handler"
	"github.com/appointment-map-service/internal/infrastructure/mapbox"
	"github.com/appointment-map-service/internal/pkg/logger"
	"github.com/appointment-map-service/internal/repository/cache"
	"github.com/appointment-map-service/internal/repository/postgres"
	redisRepo "github.com/appointment-map-service/internal/repository/redis"
	"github.com/appointment-map-service/internal/usecase"
	"github.com/appointment-map-service/internal/worker"
	"github.com/appointment-map-service/internal/worker/appointment"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// 2. Initialize logger
	log, err := logger.New(cfg.Log.Level)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer log.Sync()

	log.Info("Starting Appointment Map Service")
	log.Info("Configuration loaded",
		zap.String("env", cfg.Server.Env),
		zap.String("server_addr", cfg.GetServerAddr()),
		zap.Bool("worker_enabled", cfg.Worker.Enabled),
	)

	// 3. Connect to PostgreSQL (CRM records)
	db, err := postgres.New(&cfg.Database, log)
	if err != nil {
		log.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Failed to close PostgreSQL connection", zap.Error(err))
		}
	}()

	// 4. Connect to Redis
	redisClient, err := cache.NewRedis(&cfg.Redis, log)
	if err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Error("Failed to close Redis connection", zap.Error(err))
		}
	}()

	// 5. Health checks
	healthCtx, healthCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer healthCancel()

	if err := db.Health(healthCtx); err != nil {
		log.Fatal("PostgreSQL health check failed", zap.Error(err))
	}
	if err := redisClient.Health(healthCtx); err != nil {
		log.Fatal("Redis health check failed", zap.Error(err))
	}

	log.Info("All connections healthy")

	// 6. Initialize repositories
	crmRepo := postgres.NewCRMRepository(db)
	cacheRepo := cache.NewCacheRepository(redisClient)
	streamRepo := redisRepo.NewStreamRepository(redisClient.Client(), log)
	mapboxRepo := mapbox.NewMapboxClient(&cfg.Mapbox, log)

	log.Info("Repositories initialized")

	// 7. Initialize use cases
	sessionUC := usecase.NewSessionUseCase(
		crmRepo,
		mapboxRepo,
		cacheRepo,
		log,
		usecase.SessionOptions{
			BatchSize:       cfg.Geocode.BatchSize,
			BatchDelay:      cfg.Geocode.BatchDelay,
			RouteCacheTTL:   cfg.Cache.RouteCacheTTL,
			MapStateTTL:     cfg.Cache.MapStateCacheTTL,
			AddressPolicy:   usecase.ParseAddressPolicy(cfg.Address.Priority),
			ViewportPadding: cfg.Sync.ViewportPadding,
			MaxZoom:         cfg.Sync.MaxZoom,
		},
	)

	log.Info("Use cases initialized")

	// 8. Initialize HTTP handlers
	sessionHandler := handler.NewSessionHandler(sessionUC, log)
	mapHandler := handler.NewMapHandler(sessionUC, log)

	// 9. Initialize HTTP server
	server := httpDelivery.NewServer(cfg, log, sessionHandler, mapHandler)

	// 10. Start stream consumer in-process. Sessions are instance-scoped,
	// so the consumer has to live next to them.
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	var workerManager *worker.WorkerManager
	if cfg.Worker.Enabled {
		refreshWorker := appointment.NewRefreshWorker(
			streamRepo,
			sessionUC,
			cfg.Worker.ConsumerGroup,
			cfg.Worker.MaxRetries,
			log,
		)

		workerManager = worker.NewWorkerManager(log)
		workerManager.Register(refreshWorker)

		if err := workerManager.Start(workerCtx); err != nil {
			log.Fatal("Failed to start workers", zap.Error(err))
		}
	}

	// 11. Start server in goroutine
	go func() {
		if err := server.Start(); err != nil {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	log.Info("Server started successfully",
		zap.String("address", cfg.GetServerAddr()),
		zap.String("env", cfg.Server.Env),
	)

	// 12. Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown error", zap.Error(err))
	}

	if workerManager != nil {
		workerCancel()
		if err := workerManager.Stop(); err != nil {
			log.Error("Error stopping workers", zap.Error(err))
		}
	}

	log.Info("Server stopped successfully")
}
