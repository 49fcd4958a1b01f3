package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/citysafe/citysafe-backend/internal/config"
	"github.com/citysafe/citysafe-backend/internal/db"
	httpHandlers "github.com/citysafe/citysafe-backend/internal/http/handlers"
	httpMiddleware "github.com/citysafe/citysafe-backend/internal/http/middleware"
	httpRouter "github.com/citysafe/citysafe-backend/internal/http/router"
	"github.com/citysafe/citysafe-backend/internal/logger"
	"github.com/citysafe/citysafe-backend/internal/repository"
	"github.com/citysafe/citysafe-backend/internal/service"
	"github.com/citysafe/citysafe-backend/internal/storage"
	"github.com/citysafe/citysafe-backend/internal/ws"
)

func main() {
	// Готовим контекст для graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("main: ошибка загрузки конфигурации: %v", err)
	}

	// Инициализация логгера
	if cfg.Env == "development" {
		logger.Init("debug")
		logger.SetTextFormatter()
	} else {
		logger.Init("info")
	}

	// Подключение к базе, миграции и гео-индекс.
	dbConn, err := db.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("main: ошибка подключения к базе: %v", err)
	}
	defer safeClose(dbConn)

	if err := db.RunMigrations(ctx, dbConn, cfg.MigrationsPath); err != nil {
		log.Fatalf("main: ошибка миграций: %v", err)
	}
	db.EnsureGeoIndex(ctx, dbConn)

	// Блоб-хранилище медиа-файлов.
	var blobs storage.BlobStore
	switch cfg.StorageBackend {
	case config.StorageBackendS3:
		blobs, err = storage.NewS3Store(ctx, storage.S3Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
	default:
		blobs, err = storage.NewLocalStore(cfg.MediaStorage)
	}
	if err != nil {
		log.Fatalf("main: не удалось подготовить блоб-хранилище: %v", err)
	}

	// Репозитории.
	reportRepo := repository.NewReportRepository(dbConn)
	userRepo := repository.NewUserRepository(dbConn)
	mediaRepo := repository.NewMediaRepository(dbConn)

	// Живая лента обращений.
	hub := ws.NewHub(ctx)
	go hub.Run()

	// Сервисы.
	tokenManager := service.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTL)
	authService := service.NewAuthService(userRepo, tokenManager)
	mediaService := service.NewMediaService(mediaRepo, blobs)
	reportService := service.NewReportService(reportRepo, mediaService, hub, cfg.MaxUploadBytes())

	// Лимитер регистраций создаётся здесь и передаётся в middleware явно.
	registrationLimiter := httpMiddleware.NewRegistrationLimiter(cfg.RateLimitLimit, cfg.RateLimitPeriod)

	// HTTP хэндлеры.
	reportHandler := httpHandlers.NewReportHandler(reportService)
	mediaHandler := httpHandlers.NewMediaHandler(mediaService)
	authHandler := httpHandlers.NewAuthHandler(authService)
	userHandler := httpHandlers.NewUserHandler(userRepo)
	statsHandler := httpHandlers.NewStatsHandler(reportRepo, userRepo)
	healthHandler := httpHandlers.NewHealthHandler(dbConn)
	wsHandler := httpHandlers.NewWSHandler(hub, cfg.AllowedOrigins)

	engine := httpRouter.SetupRouter(cfg, reportHandler, mediaHandler, authHandler,
		userHandler, statsHandler, healthHandler, wsHandler, tokenManager, registrationLimiter)

	server := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: engine,
	}

	// Завершаем сервер при получении сигнала.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("main: ошибка остановки http сервера: %v", err)
		}
	}()

	log.Printf("main: HTTP сервер запущен на порту %s", cfg.HTTPPort)

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("main: сервер завершился с ошибкой: %v", err)
	}
}

// safeClose закрывает соединение с базой.
func safeClose(db *sqlx.DB) {
	if err := db.Close(); err != nil {
		log.Printf("main: ошибка закрытия базы: %v", err)
	}
}
