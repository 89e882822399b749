// Точка входа Exam API — REST-бэкенд системы экзаменов ITI.
// Загружает конфигурацию, применяет миграции, подключается к PostgreSQL,
// создаёт репозитории, сервисы и API handlers, запускает мониторинг
// зависимостей (topologymetrics) и HTTP-сервер с Bearer-аутентификацией
// и graceful shutdown.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/stdlib"

	"github.com/Salama0/ITI-Examination-System/internal/api/handlers"
	"github.com/Salama0/ITI-Examination-System/internal/api/middleware"
	"github.com/Salama0/ITI-Examination-System/internal/auth"
	"github.com/Salama0/ITI-Examination-System/internal/config"
	"github.com/Salama0/ITI-Examination-System/internal/database"
	"github.com/Salama0/ITI-Examination-System/internal/repository"
	"github.com/Salama0/ITI-Examination-System/internal/server"
	"github.com/Salama0/ITI-Examination-System/internal/service"
)

func main() {
	// 1. Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Ошибка загрузки конфигурации", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 2. Настройка логирования
	logger := config.SetupLogger(cfg)
	logger.Info("Exam API запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
	)

	if os.Getenv("EXAM_DEPHEALTH_GROUP") == "" {
		logger.Warn("EXAM_DEPHEALTH_GROUP не задана, используется значение по умолчанию",
			slog.String("default", cfg.DephealthGroup),
		)
	}

	// 3. Применение миграций БД
	logger.Info("Применение миграций БД...")
	if err := database.Migrate(cfg, logger); err != nil {
		logger.Error("Ошибка миграций БД", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4. Подключение к PostgreSQL (pgxpool)
	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg, logger)
	if err != nil {
		logger.Error("Ошибка подключения к PostgreSQL", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	// 4.1 Адаптер pgxpool → *sql.DB для topologymetrics (connection pool mode)
	pgDB := stdlib.OpenDBFromPool(pool)
	defer pgDB.Close()

	// 5. Repositories
	txRunner := repository.NewTxRunner(pool)
	userRepo := repository.NewUserRepository(pool)
	dashboardRepo := repository.NewDashboardRepository(pool, txRunner)
	instructorRepo := repository.NewInstructorRepository(pool)
	studentRepo := repository.NewStudentRepository(pool)

	// 6. Выпуск и проверка токенов
	tokens, err := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTAlgorithm, cfg.JWTTTL)
	if err != nil {
		logger.Error("Ошибка создания выпуска токенов", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("Выпуск токенов инициализирован",
		slog.String("algorithm", cfg.JWTAlgorithm),
		slog.String("ttl", cfg.JWTTTL.String()),
	)

	// 7. Services
	authSvc := service.NewAuthService(userRepo, tokens, logger)
	dashboardSvc := service.NewDashboardService(
		dashboardRepo,
		service.NewReportCache(cfg.DashboardCacheSize, cfg.DashboardCacheTTL),
		logger,
	)
	instructorSvc := service.NewInstructorService(instructorRepo, logger)
	studentSvc := service.NewStudentService(studentRepo, logger)

	// 8. topologymetrics — мониторинг PostgreSQL
	var deps handlers.DependencyHealth
	dephealthSvc, dephealthErr := service.NewDephealthService(
		"exam-api",
		cfg.DephealthGroup,
		pgDB,
		cfg.DatabaseURL(),
		cfg.DephealthCheckInterval,
		logger,
	)
	if dephealthErr != nil {
		logger.Warn("topologymetrics недоступен, запуск без мониторинга зависимостей",
			slog.String("error", dephealthErr.Error()),
		)
		dephealthSvc = nil
	} else if startErr := dephealthSvc.Start(ctx); startErr != nil {
		logger.Warn("Ошибка запуска topologymetrics",
			slog.String("error", startErr.Error()),
		)
		dephealthSvc = nil
	} else {
		deps = dephealthSvc
		logger.Info("topologymetrics запущен",
			slog.String("group", cfg.DephealthGroup),
			slog.String("check_interval", cfg.DephealthCheckInterval.String()),
		)
	}

	// 9. Handlers
	h := server.Handlers{
		Health:     handlers.NewHealthHandler(database.NewReadinessChecker(pool), deps),
		Auth:       handlers.NewAuthHandler(authSvc, logger),
		Dashboard:  handlers.NewDashboardHandler(dashboardSvc, logger),
		Instructor: handlers.NewInstructorHandler(instructorSvc, logger),
		Student:    handlers.NewStudentHandler(studentSvc, logger),
	}

	// 10. Bearer middleware
	bearerAuth := middleware.NewBearerAuth(authSvc, logger)

	// 11. Создание и запуск HTTP-сервера
	srv := server.New(cfg, logger, h, bearerAuth)
	if err := srv.Run(); err != nil {
		logger.Error("Ошибка сервера", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 12. Остановка фоновых задач
	if dephealthSvc != nil {
		dephealthSvc.Stop()
	}

	logger.Info("Exam API остановлен")
}
