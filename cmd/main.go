package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dosada05/tournament-live/cache"
	"github.com/Dosada05/tournament-live/config"
	"github.com/Dosada05/tournament-live/db"
	"github.com/Dosada05/tournament-live/handlers"
	"github.com/Dosada05/tournament-live/live"
	"github.com/Dosada05/tournament-live/middleware"
	"github.com/Dosada05/tournament-live/repositories"
	api "github.com/Dosada05/tournament-live/routes"
	"github.com/Dosada05/tournament-live/services"
	"github.com/Dosada05/tournament-live/storage"
	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		}
	}()
	logger.Info("database connection established")

	// Опциональные интеграции: отсутствие переменных окружения превращает
	// их в no-op, а не в ошибку старта.
	var uploader storage.FileUploader
	if cfg.R2Configured() {
		uploader, err = storage.NewCloudflareR2Uploader(storage.CloudflareR2UploaderConfig{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		})
		if err != nil {
			logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("Cloudflare R2 uploader initialized")
	} else {
		logger.Info("R2 storage not configured, audit export disabled")
	}

	notifier := services.NewNoopNotifier()
	if cfg.AMQPURL != "" {
		notifier, err = services.NewAMQPNotifier(cfg.AMQPURL, "tournament.notifications")
		if err != nil {
			logger.Error("failed to connect to AMQP broker", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("AMQP notifier connected")
	}

	timelineCache := cache.NewNoopTimelineCache()
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		timelineCache = cache.NewRedisTimelineCache(redisClient, 0)
		logger.Info("redis timeline cache enabled", slog.String("addr", cfg.RedisAddr))
	}

	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()

	wsHub := live.NewHub(logger)
	go wsHub.Run(rootCtx)
	logger.Info("websocket hub started")

	txRunner := repositories.NewTxRunner(dbConn)
	eventRepo := repositories.NewPostgresEventRepository(dbConn)
	divisionRepo := repositories.NewPostgresDivisionRepository(dbConn)
	courtRepo := repositories.NewPostgresCourtRepository(dbConn)
	courtGroupRepo := repositories.NewPostgresCourtGroupRepository(dbConn)
	encounterRepo := repositories.NewPostgresEncounterRepository(dbConn)
	matchRepo := repositories.NewPostgresMatchRepository(dbConn)
	gameRepo := repositories.NewPostgresGameRepository(dbConn)
	unitRepo := repositories.NewPostgresUnitRepository(dbConn)
	historyRepo := repositories.NewPostgresScoreHistoryRepository(dbConn)

	validationService := services.NewValidationService(eventRepo, encounterRepo, divisionRepo, courtRepo)
	timelineService := services.NewTimelineService(
		eventRepo, divisionRepo, encounterRepo, courtRepo, unitRepo,
		validationService, timelineCache, logger)
	assigner := services.NewSlotAssigner(txRunner, encounterRepo)
	schedulingService := services.NewSchedulingService(
		txRunner, eventRepo, divisionRepo, encounterRepo, courtRepo, courtGroupRepo, assigner, timelineService)
	publishService := services.NewPublishService(
		txRunner, eventRepo, divisionRepo, validationService, wsHub, timelineService, logger)
	gameService := services.NewGameService(
		txRunner, eventRepo, divisionRepo, encounterRepo, matchRepo, gameRepo,
		courtRepo, unitRepo, historyRepo, notifier, wsHub, timelineService, logger)
	auditService := services.NewAuditService(
		gameRepo, matchRepo, encounterRepo, divisionRepo, eventRepo, historyRepo, uploader, logger)
	logger.Info("services initialized")

	auth := middleware.NewAuthenticator(cfg.JWTSecretKey)
	scheduleHandler := handlers.NewScheduleHandler(schedulingService, validationService, publishService)
	gameHandler := handlers.NewGameHandler(gameService)
	timelineHandler := handlers.NewTimelineHandler(timelineService)
	auditHandler := handlers.NewAuditHandler(auditService)
	wsHandler := handlers.NewWebSocketHandler(wsHub, logger)

	router := chi.NewRouter()
	api.SetupRoutes(router, auth, scheduleHandler, gameHandler, timelineHandler, auditHandler, wsHandler)
	logger.Info("routes configured")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("server stopped gracefully")
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		}
		logger.Info("server shutdown complete")
	}
	logger.Info("application exited")
}
