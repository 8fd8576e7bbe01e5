package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/gin-gonic/gin"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/shenikar/fire_risk_grid/internal/config"
	v1 "github.com/shenikar/fire_risk_grid/internal/handler/http/v1"
	"github.com/shenikar/fire_risk_grid/internal/landmask"
	"github.com/shenikar/fire_risk_grid/internal/observability"
	"github.com/shenikar/fire_risk_grid/internal/repository"
	"github.com/shenikar/fire_risk_grid/internal/scheduler"
	"github.com/shenikar/fire_risk_grid/internal/scorer"
	"github.com/shenikar/fire_risk_grid/internal/service"
	"github.com/shenikar/fire_risk_grid/internal/weather"
	"github.com/shenikar/fire_risk_grid/internal/webhook"
	"github.com/shenikar/fire_risk_grid/pkg/logger"
	"github.com/shenikar/fire_risk_grid/pkg/postgres"
	redisclient "github.com/shenikar/fire_risk_grid/pkg/redis"

	_ "github.com/shenikar/fire_risk_grid/docs"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title Fire Risk Grid API
// @version 1.0
// @description Regional wildfire risk map computed over a regular grid of land points.
// @host localhost:8080
// @BasePath /api/v1
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key
func runMigrations(cfg *config.Config, log *logrus.Logger) error {
	log.Info("Running database migrations...")

	migrationURL := cfg.DatabaseURL
	if !strings.HasPrefix(migrationURL, "pgx5://") {
		migrationURL = strings.Replace(migrationURL, "postgres://", "pgx5://", 1)
	}

	m, err := migrate.New(
		"file://migrations",
		migrationURL,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Info("Database migrations applied successfully")
	return nil
}

// loadModel подключает внешний сервис модели, если задан MODEL_URL, иначе читает файл коэффициентов
func loadModel(ctx context.Context, cfg *config.Config) (scorer.Model, error) {
	if cfg.ModelURL != "" {
		return scorer.NewHTTPModel(ctx, cfg.ModelURL, cfg.ModelTimeout)
	}
	return scorer.LoadLogistic(cfg.ModelFile)
}

func main() {
	// Загрузка конфигурации
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	// Инициализация логгера
	log := logger.New(cfg.LogLevel)

	// Контекст для graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Подключение к PostgreSQL, если оно нужно хранилищу или источнику погоды
	var dbpool *pgxpool.Pool
	if cfg.NeedsDatabase() {
		if err := runMigrations(cfg, log); err != nil {
			log.Fatalf("Failed to run database migrations: %v", err)
		}

		dbpool, err = postgres.NewPostgresDB(ctx, cfg)
		if err != nil {
			log.Fatalf("Failed to connect to PostgreSQL: %v", err)
		}
		defer dbpool.Close()
		log.Info("Successfully connected to PostgreSQL")
	}

	// Инициализация Redis клиента
	redisClient, err := redisclient.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()
	log.Info("Successfully connected to Redis")

	// Входные данные конвейера
	region := cfg.Region
	land, err := landmask.LoadShapefile(cfg.LandShapefile,
		landmask.WithAreaOfInterest(region.LatMin, region.LatMax, region.LonMin, region.LonMax),
		landmask.WithOceanRules(landmask.CaliforniaOceanRules...),
	)
	if err != nil {
		log.Fatalf("Failed to load land boundary: %v", err)
	}
	log.WithField("polygons", land.Len()).Info("Land boundary loaded")

	model, err := loadModel(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to load risk model: %v", err)
	}
	log.WithField("features", model.Features()).Info("Risk model loaded")

	var source weather.Source
	switch cfg.WeatherSource {
	case config.WeatherSourceCSV:
		source = weather.NewCSVSource(cfg.WeatherCSV, log)
	default:
		source = repository.NewObservationRepository(dbpool, log)
	}

	// Инициализация репозиториев
	var snapshotRepo service.SnapshotRepository
	switch cfg.Storage {
	case config.StorageMemory:
		snapshotRepo = repository.NewMemorySnapshotStore()
	default:
		snapshotRepo = repository.NewSnapshotRepository(dbpool)
	}
	var snapshotCache service.SnapshotCache = repository.NoopCache{}
	if cfg.CacheTTL > 0 {
		snapshotCache = repository.NewSnapshotCache(redisClient, cfg.CacheTTL)
	}

	// Инициализация издателя вебхуков
	webhookPublisher := webhook.NewRedisWebhookPublisher(redisClient)

	// Инициализация и запуск воркера вебхуков
	webhookWorker := webhook.NewWebhookWorker(redisClient, log, cfg)
	webhookWorker.Start(ctx)

	// Инициализация сервисов
	metrics := observability.NewMetrics()
	riskService := service.NewRiskService(service.Pipeline{
		Region:         region,
		Land:           land,
		Weather:        source,
		Model:          model,
		Zone:           cfg.Timezone,
		Workers:        cfg.Workers,
		AlertThreshold: cfg.AlertThreshold,
	}, snapshotRepo, snapshotCache, webhookPublisher, metrics, clockwork.NewRealClock(), log)

	// Периодический пересчет карты риска
	riskScheduler := scheduler.New(riskService, cfg.RunInterval, cfg.RunOnStart, log)
	if err := riskScheduler.Start(ctx); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}

	// Инициализация хэндлеров
	handler := v1.NewHandler(riskService, log, cfg)

	// Настройка Gin роутера
	router := gin.Default()
	api := router.Group("/api/v1")
	handler.RegisterRoutes(api)

	// Метрики Prometheus
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Добавление маршрута для Swagger UI
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Запуск HTTP-сервера
	serverAddr := fmt.Sprintf(":%s", cfg.HTTPPort)

	srv := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	// Запуск сервера в горутине
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Error starting HTTP server: %v", err)
		}
	}()
	log.Infof("HTTP server started on port %s", cfg.HTTPPort)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Received shutdown signal, shutting down server...")

	// Отмена прерывает текущий запуск конвейера до записи в хранилище
	cancel()
	riskScheduler.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Info("Server gracefully stopped")
}
