// Пакет server — HTTP-сервер Exam API с graceful shutdown.
// Без TLS — TLS termination на reverse proxy.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	apierrors "github.com/Salama0/ITI-Examination-System/internal/api/errors"
	"github.com/Salama0/ITI-Examination-System/internal/api/handlers"
	"github.com/Salama0/ITI-Examination-System/internal/api/middleware"
	"github.com/Salama0/ITI-Examination-System/internal/config"
	"github.com/Salama0/ITI-Examination-System/internal/domain/rbac"
)

// Handlers — набор HTTP-обработчиков, собранный в main.
type Handlers struct {
	Health     *handlers.HealthHandler
	Auth       *handlers.AuthHandler
	Dashboard  *handlers.DashboardHandler
	Instructor *handlers.InstructorHandler
	Student    *handlers.StudentHandler
}

// Server — HTTP-сервер Exam API.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	cfg        *config.Config
}

// New создаёт новый HTTP-сервер с настроенными routes и middleware.
func New(cfg *config.Config, logger *slog.Logger, h Handlers, bearerAuth *middleware.BearerAuth) *Server {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      NewRouter(cfg, logger, h, bearerAuth),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return &Server{
		httpServer: srv,
		logger:     logger,
		cfg:        cfg,
	}
}

// NewRouter собирает chi-роутер со всеми маршрутами.
//
// Публичные: /, /health, /health/live, /health/ready, /metrics,
// POST /api/auth/login, POST /api/auth/login-form.
// Остальные требуют Bearer-токен; разделы кабинетов закрыты ролями.
func NewRouter(cfg *config.Config, logger *slog.Logger, h Handlers, bearerAuth *middleware.BearerAuth) http.Handler {
	router := chi.NewRouter()

	// Глобальные middleware (применяются ко ВСЕМ маршрутам).
	// Recoverer стоит после логгера, чтобы паника попала в лог как 500.
	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.RequestLogger(logger))
	router.Use(chimw.Recoverer)
	router.Use(middleware.CORS(cfg.CORSOrigins))

	router.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		apierrors.NotFound(w, "Not Found")
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		apierrors.WriteError(w, http.StatusMethodNotAllowed, apierrors.CodeValidationError, "Method Not Allowed")
	})

	// Служебные endpoints
	router.Get("/", h.Health.Root)
	router.Get("/health", h.Health.Health)
	router.Get("/health/live", h.Health.HealthLive)
	router.Get("/health/ready", h.Health.HealthReady)
	router.Get("/metrics", h.Health.GetMetrics)

	requireAuth := bearerAuth.Middleware()

	router.Route("/api/auth", func(r chi.Router) {
		r.Post("/login", h.Auth.Login)
		r.Post("/login-form", h.Auth.LoginForm)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/me", h.Auth.Me)
			r.Post("/logout", h.Auth.Logout)
			r.With(middleware.RequireRole(rbac.RoleManager)).Get("/manager-only", h.Auth.Greeting)
			r.With(middleware.RequireRole(rbac.RoleInstructor)).Get("/instructor-only", h.Auth.Greeting)
			r.With(middleware.RequireRole(rbac.RoleStudent)).Get("/student-only", h.Auth.Greeting)
		})
	})

	router.Route("/api/dashboard", func(r chi.Router) {
		r.Use(requireAuth, middleware.RequireRole(rbac.RoleManager))
		r.Get("/stats", h.Dashboard.Stats)
		r.Get("/recent-exams", h.Dashboard.RecentExams)
		r.Get("/top-performers", h.Dashboard.TopPerformers)
		r.Get("/students-by-branch", h.Dashboard.StudentsByBranch)
		r.Get("/students-by-track", h.Dashboard.StudentsByTrack)
		r.Get("/system-health", h.Dashboard.SystemHealth)
		r.Get("/exam-performance-summary", h.Dashboard.ExamPerformance)
	})

	router.Route("/api/instructor", func(r chi.Router) {
		r.Use(requireAuth, middleware.RequireRole(rbac.RoleInstructor))
		r.Get("/courses", h.Instructor.Courses)
		r.Get("/exams", h.Instructor.Exams)
	})

	router.Route("/api/student", func(r chi.Router) {
		r.Use(requireAuth, middleware.RequireRole(rbac.RoleStudent))
		r.Get("/grades", h.Student.Grades)
		r.Get("/upcoming-exams", h.Student.UpcomingExams)
	})

	return router
}

// Run запускает сервер и ожидает сигнала завершения (SIGINT, SIGTERM).
// При получении сигнала выполняется graceful shutdown.
func (s *Server) Run() error {
	// Канал для ошибок сервера
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("HTTP-сервер запущен",
			slog.String("addr", s.httpServer.Addr),
		)

		err := s.httpServer.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	// Ожидание сигнала завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case sig := <-quit:
		s.logger.Info("Получен сигнал завершения", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("ошибка HTTP-сервера: %w", err)
		}
	}

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	s.logger.Info("Выполняется graceful shutdown...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("ошибка при graceful shutdown: %w", err)
	}

	s.logger.Info("HTTP-сервер остановлен")
	return nil
}
