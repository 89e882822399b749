// Пакет config — загрузка и валидация конфигурации Exam API
// из переменных окружения (с опциональным .env файлом).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// minJWTSecretLen — минимальная длина HMAC-секрета в байтах.
const minJWTSecretLen = 32

// Config содержит все параметры конфигурации Exam API.
// Создаётся один раз при старте процесса и далее не изменяется.
type Config struct {
	// --- Сервер ---

	// Порт HTTP-сервера
	Port int
	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string

	// --- PostgreSQL ---

	DBHost     string
	DBPort     int
	DBName     string
	DBUser     string
	DBPassword string
	// Режим SSL: disable, require, verify-ca, verify-full
	DBSSLMode string
	// Максимальный размер пула соединений
	DBMaxConns int32
	// Время жизни соединения в пуле (recycle)
	DBMaxConnLifetime time.Duration

	// --- JWT ---

	// HMAC-секрет для подписи токенов
	JWTSecret string
	// Алгоритм подписи (HS256, HS384, HS512)
	JWTAlgorithm string
	// Время жизни access token
	JWTTTL time.Duration

	// --- CORS ---

	// Разрешённые origins для браузерных клиентов
	CORSOrigins []string

	// --- Dashboard ---

	// TTL кэша агрегатов dashboard (0 — кэш отключён)
	DashboardCacheTTL time.Duration
	// Максимальное количество записей в кэше dashboard
	DashboardCacheSize int

	// --- topologymetrics ---

	DephealthGroup         string
	DephealthCheckInterval time.Duration

	// Таймаут graceful shutdown HTTP-сервера
	ShutdownTimeout time.Duration
}

// Load загружает конфигурацию из переменных окружения, валидирует
// обязательные поля и возвращает Config или ошибку.
// Перед чтением переменных подмешивается .env файл (EXAM_ENV_FILE),
// уже заданные переменные окружения он не перезаписывает.
func Load() (*Config, error) {
	if err := loadEnvFile(getEnvDefault("EXAM_ENV_FILE", ".env")); err != nil {
		return nil, err
	}

	cfg := &Config{}
	var err error

	// --- Сервер ---

	cfg.Port, err = getEnvInt("EXAM_PORT", 8000)
	if err != nil {
		return nil, fmt.Errorf("EXAM_PORT: %w", err)
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("EXAM_PORT: значение %d вне допустимого диапазона 1-65535", cfg.Port)
	}

	cfg.LogLevel, err = parseLogLevel(getEnvDefault("EXAM_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("EXAM_LOG_LEVEL: %w", err)
	}

	cfg.LogFormat = getEnvDefault("EXAM_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("EXAM_LOG_FORMAT: недопустимое значение %q, допустимые: json, text", cfg.LogFormat)
	}

	// --- PostgreSQL ---

	if cfg.DBHost, err = getEnvRequired("EXAM_DB_HOST"); err != nil {
		return nil, err
	}

	cfg.DBPort, err = getEnvInt("EXAM_DB_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("EXAM_DB_PORT: %w", err)
	}

	if cfg.DBName, err = getEnvRequired("EXAM_DB_NAME"); err != nil {
		return nil, err
	}
	if cfg.DBUser, err = getEnvRequired("EXAM_DB_USER"); err != nil {
		return nil, err
	}
	if cfg.DBPassword, err = getEnvRequired("EXAM_DB_PASSWORD"); err != nil {
		return nil, err
	}

	cfg.DBSSLMode = getEnvDefault("EXAM_DB_SSL_MODE", "disable")
	validSSLModes := map[string]bool{
		"disable": true, "require": true, "verify-ca": true, "verify-full": true,
	}
	if !validSSLModes[cfg.DBSSLMode] {
		return nil, fmt.Errorf("EXAM_DB_SSL_MODE: недопустимое значение %q, допустимые: disable, require, verify-ca, verify-full", cfg.DBSSLMode)
	}

	// 5 постоянных соединений + 10 overflow
	maxConns, err := getEnvInt("EXAM_DB_MAX_CONNS", 15)
	if err != nil {
		return nil, fmt.Errorf("EXAM_DB_MAX_CONNS: %w", err)
	}
	if maxConns < 1 || maxConns > 500 {
		return nil, fmt.Errorf("EXAM_DB_MAX_CONNS: значение %d вне допустимого диапазона 1-500", maxConns)
	}
	cfg.DBMaxConns = int32(maxConns)

	cfg.DBMaxConnLifetime, err = getEnvDuration("EXAM_DB_MAX_CONN_LIFETIME", 30*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("EXAM_DB_MAX_CONN_LIFETIME: %w", err)
	}

	// --- JWT ---

	if cfg.JWTSecret, err = getEnvRequired("EXAM_JWT_SECRET"); err != nil {
		return nil, err
	}
	if len(cfg.JWTSecret) < minJWTSecretLen {
		return nil, fmt.Errorf("EXAM_JWT_SECRET: длина секрета %d байт, требуется не менее %d", len(cfg.JWTSecret), minJWTSecretLen)
	}

	cfg.JWTAlgorithm = strings.ToUpper(getEnvDefault("EXAM_JWT_ALGORITHM", "HS256"))
	switch cfg.JWTAlgorithm {
	case "HS256", "HS384", "HS512":
	default:
		return nil, fmt.Errorf("EXAM_JWT_ALGORITHM: недопустимое значение %q, допустимые: HS256, HS384, HS512", cfg.JWTAlgorithm)
	}

	cfg.JWTTTL, err = getEnvDuration("EXAM_JWT_TTL", 24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("EXAM_JWT_TTL: %w", err)
	}
	if cfg.JWTTTL <= 0 {
		return nil, fmt.Errorf("EXAM_JWT_TTL: значение должно быть положительным")
	}

	// --- CORS ---

	cfg.CORSOrigins = parseCSV(getEnvDefault("EXAM_CORS_ORIGINS", "http://localhost:5173,http://localhost:3000"))

	// --- Dashboard ---

	cfg.DashboardCacheTTL, err = getEnvDuration("EXAM_DASHBOARD_CACHE_TTL", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("EXAM_DASHBOARD_CACHE_TTL: %w", err)
	}
	if cfg.DashboardCacheTTL < 0 {
		return nil, fmt.Errorf("EXAM_DASHBOARD_CACHE_TTL: отрицательное значение %s", cfg.DashboardCacheTTL)
	}

	cfg.DashboardCacheSize, err = getEnvInt("EXAM_DASHBOARD_CACHE_SIZE", 64)
	if err != nil {
		return nil, fmt.Errorf("EXAM_DASHBOARD_CACHE_SIZE: %w", err)
	}
	if cfg.DashboardCacheSize < 1 {
		return nil, fmt.Errorf("EXAM_DASHBOARD_CACHE_SIZE: значение %d должно быть больше 0", cfg.DashboardCacheSize)
	}

	// --- topologymetrics ---

	cfg.DephealthGroup = getEnvDefault("EXAM_DEPHEALTH_GROUP", "exam-system")
	cfg.DephealthCheckInterval, err = getEnvDuration("EXAM_DEPHEALTH_CHECK_INTERVAL", 15*time.Second)
	if err != nil {
		return nil, fmt.Errorf("EXAM_DEPHEALTH_CHECK_INTERVAL: %w", err)
	}

	cfg.ShutdownTimeout, err = getEnvDuration("EXAM_SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("EXAM_SHUTDOWN_TIMEOUT: %w", err)
	}

	return cfg, nil
}

// DatabaseDSN возвращает строку подключения к PostgreSQL (формат key=value для pgx).
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBName, c.DBUser, c.DBPassword, c.DBSSLMode,
	)
}

// DatabaseURL возвращает URL PostgreSQL без пароля (для лейблов метрик).
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%d/%s", c.DBHost, c.DBPort, c.DBName)
}

// SetupLogger настраивает глобальный slog-логгер на основе конфигурации.
func SetupLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// --- Вспомогательные функции ---

// loadEnvFile подмешивает переменные из .env файла.
// Отсутствующий файл — не ошибка.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("загрузка %s: %w", path, err)
	}
	return nil
}

// getEnvRequired возвращает значение переменной окружения или ошибку, если она не задана.
func getEnvRequired(key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("%s: обязательная переменная окружения не задана", key)
	}
	return val, nil
}

// getEnvDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getEnvInt возвращает целочисленное значение переменной окружения или значение по умолчанию.
func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvDuration возвращает time.Duration из переменной окружения или значение по умолчанию.
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("некорректная длительность: %q (используйте формат Go: 30s, 1h, 15m)", val)
	}
	return d, nil
}

// parseLogLevel преобразует строку уровня логирования в slog.Level.
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("недопустимый уровень %q, допустимые: debug, info, warn, error", level)
	}
}

// parseCSV разбирает строку, разделённую запятыми, на срез строк.
// Пробелы вокруг элементов убираются, пустые элементы игнорируются.
func parseCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
