package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// setEnvs устанавливает переменные окружения на время теста.
func setEnvs(t *testing.T, envs map[string]string) {
	t.Helper()
	// .env из рабочего каталога не должен влиять на тесты
	t.Setenv("EXAM_ENV_FILE", filepath.Join(t.TempDir(), "absent.env"))
	for k, v := range envs {
		t.Setenv(k, v)
	}
}

// minimalEnvs возвращает минимальный набор обязательных переменных.
func minimalEnvs() map[string]string {
	return map[string]string{
		"EXAM_DB_HOST":     "localhost",
		"EXAM_DB_NAME":     "exam",
		"EXAM_DB_USER":     "exam",
		"EXAM_DB_PASSWORD": "secret",
		"EXAM_JWT_SECRET":  strings.Repeat("k", 32),
	}
}

func TestLoad_MinimalConfig(t *testing.T) {
	setEnvs(t, minimalEnvs())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() вернул ошибку: %v", err)
	}

	// Проверяем значения по умолчанию
	if cfg.Port != 8000 {
		t.Errorf("Port = %d, ожидается 8000", cfg.Port)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel = %v, ожидается Info", cfg.LogLevel)
	}
	if cfg.LogFormat != "json" {
		t.Errorf("LogFormat = %q, ожидается json", cfg.LogFormat)
	}
	if cfg.DBPort != 5432 {
		t.Errorf("DBPort = %d, ожидается 5432", cfg.DBPort)
	}
	if cfg.DBSSLMode != "disable" {
		t.Errorf("DBSSLMode = %q, ожидается disable", cfg.DBSSLMode)
	}
	if cfg.DBMaxConns != 15 {
		t.Errorf("DBMaxConns = %d, ожидается 15", cfg.DBMaxConns)
	}
	if cfg.DBMaxConnLifetime != 30*time.Minute {
		t.Errorf("DBMaxConnLifetime = %v, ожидается 30m", cfg.DBMaxConnLifetime)
	}
	if cfg.JWTAlgorithm != "HS256" {
		t.Errorf("JWTAlgorithm = %q, ожидается HS256", cfg.JWTAlgorithm)
	}
	if cfg.JWTTTL != 24*time.Hour {
		t.Errorf("JWTTTL = %v, ожидается 24h", cfg.JWTTTL)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[0] != "http://localhost:5173" {
		t.Errorf("CORSOrigins = %v, ожидается [http://localhost:5173 http://localhost:3000]", cfg.CORSOrigins)
	}
	if cfg.DashboardCacheTTL != 30*time.Second {
		t.Errorf("DashboardCacheTTL = %v, ожидается 30s", cfg.DashboardCacheTTL)
	}
	if cfg.DashboardCacheSize != 64 {
		t.Errorf("DashboardCacheSize = %d, ожидается 64", cfg.DashboardCacheSize)
	}
	if cfg.DephealthGroup != "exam-system" {
		t.Errorf("DephealthGroup = %q, ожидается exam-system", cfg.DephealthGroup)
	}
	if cfg.DephealthCheckInterval != 15*time.Second {
		t.Errorf("DephealthCheckInterval = %v, ожидается 15s", cfg.DephealthCheckInterval)
	}
	if cfg.ShutdownTimeout != 5*time.Second {
		t.Errorf("ShutdownTimeout = %v, ожидается 5s", cfg.ShutdownTimeout)
	}
}

func TestLoad_CustomValues(t *testing.T) {
	envs := minimalEnvs()
	envs["EXAM_PORT"] = "9090"
	envs["EXAM_LOG_LEVEL"] = "debug"
	envs["EXAM_LOG_FORMAT"] = "text"
	envs["EXAM_JWT_ALGORITHM"] = "hs512"
	envs["EXAM_JWT_TTL"] = "90m"
	envs["EXAM_CORS_ORIGINS"] = " https://exam.example.org , ,https://admin.example.org"
	envs["EXAM_DASHBOARD_CACHE_TTL"] = "0s"
	setEnvs(t, envs)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() вернул ошибку: %v", err)
	}
	if cfg.Port != 9090 {
		t.Errorf("Port = %d, ожидается 9090", cfg.Port)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("LogLevel = %v, ожидается Debug", cfg.LogLevel)
	}
	if cfg.JWTAlgorithm != "HS512" {
		t.Errorf("JWTAlgorithm = %q, ожидается HS512", cfg.JWTAlgorithm)
	}
	if cfg.JWTTTL != 90*time.Minute {
		t.Errorf("JWTTTL = %v, ожидается 90m", cfg.JWTTTL)
	}
	want := []string{"https://exam.example.org", "https://admin.example.org"}
	if len(cfg.CORSOrigins) != len(want) {
		t.Fatalf("CORSOrigins = %v, ожидается %v", cfg.CORSOrigins, want)
	}
	for i := range want {
		if cfg.CORSOrigins[i] != want[i] {
			t.Errorf("CORSOrigins[%d] = %q, ожидается %q", i, cfg.CORSOrigins[i], want[i])
		}
	}
	if cfg.DashboardCacheTTL != 0 {
		t.Errorf("DashboardCacheTTL = %v, ожидается 0", cfg.DashboardCacheTTL)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name     string
		override map[string]string
		drop     string
		wantSub  string
	}{
		{name: "нет DB_HOST", drop: "EXAM_DB_HOST", wantSub: "EXAM_DB_HOST"},
		{name: "нет JWT_SECRET", drop: "EXAM_JWT_SECRET", wantSub: "EXAM_JWT_SECRET"},
		{name: "короткий секрет", override: map[string]string{"EXAM_JWT_SECRET": "short"}, wantSub: "EXAM_JWT_SECRET"},
		{name: "асимметричный алгоритм", override: map[string]string{"EXAM_JWT_ALGORITHM": "RS256"}, wantSub: "EXAM_JWT_ALGORITHM"},
		{name: "нулевой TTL", override: map[string]string{"EXAM_JWT_TTL": "0s"}, wantSub: "EXAM_JWT_TTL"},
		{name: "порт вне диапазона", override: map[string]string{"EXAM_PORT": "70000"}, wantSub: "EXAM_PORT"},
		{name: "порт не число", override: map[string]string{"EXAM_PORT": "abc"}, wantSub: "EXAM_PORT"},
		{name: "неизвестный уровень логов", override: map[string]string{"EXAM_LOG_LEVEL": "trace"}, wantSub: "EXAM_LOG_LEVEL"},
		{name: "неизвестный формат логов", override: map[string]string{"EXAM_LOG_FORMAT": "xml"}, wantSub: "EXAM_LOG_FORMAT"},
		{name: "неизвестный sslmode", override: map[string]string{"EXAM_DB_SSL_MODE": "prefer"}, wantSub: "EXAM_DB_SSL_MODE"},
		{name: "некорректная длительность", override: map[string]string{"EXAM_SHUTDOWN_TIMEOUT": "5"}, wantSub: "EXAM_SHUTDOWN_TIMEOUT"},
		{name: "нулевой размер кэша", override: map[string]string{"EXAM_DASHBOARD_CACHE_SIZE": "0"}, wantSub: "EXAM_DASHBOARD_CACHE_SIZE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			envs := minimalEnvs()
			for k, v := range tt.override {
				envs[k] = v
			}
			if tt.drop != "" {
				delete(envs, tt.drop)
				t.Setenv(tt.drop, "")
			}
			setEnvs(t, envs)

			_, err := Load()
			if err == nil {
				t.Fatal("ожидалась ошибка, получено nil")
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Errorf("ошибка %q не содержит %q", err.Error(), tt.wantSub)
			}
		})
	}
}

func TestLoad_EnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	content := "EXAM_DB_HOST=db.from.file\nEXAM_PORT=8181\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("запись .env: %v", err)
	}

	envs := minimalEnvs()
	delete(envs, "EXAM_DB_HOST")
	for k, v := range envs {
		t.Setenv(k, v)
	}
	t.Setenv("EXAM_ENV_FILE", path)
	// godotenv заполняет только отсутствующие переменные, t.Setenv восстановит их после теста
	for _, k := range []string{"EXAM_DB_HOST", "EXAM_PORT"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() вернул ошибку: %v", err)
	}
	if cfg.DBHost != "db.from.file" {
		t.Errorf("DBHost = %q, ожидается db.from.file", cfg.DBHost)
	}
	if cfg.Port != 8181 {
		t.Errorf("Port = %d, ожидается 8181", cfg.Port)
	}
}

func TestLoad_EnvFileDoesNotOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	if err := os.WriteFile(path, []byte("EXAM_DB_NAME=from_file\n"), 0o600); err != nil {
		t.Fatalf("запись .env: %v", err)
	}

	setEnvs(t, minimalEnvs())
	t.Setenv("EXAM_ENV_FILE", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() вернул ошибку: %v", err)
	}
	if cfg.DBName != "exam" {
		t.Errorf("DBName = %q, ожидается exam (переменная окружения приоритетнее)", cfg.DBName)
	}
}

func TestDatabaseDSN(t *testing.T) {
	cfg := &Config{
		DBHost: "pg", DBPort: 5433, DBName: "exam", DBUser: "u", DBPassword: "p", DBSSLMode: "require",
	}
	want := "host=pg port=5433 dbname=exam user=u password=p sslmode=require"
	if got := cfg.DatabaseDSN(); got != want {
		t.Errorf("DatabaseDSN() = %q, ожидается %q", got, want)
	}
	if got := cfg.DatabaseURL(); got != "postgres://pg:5433/exam" {
		t.Errorf("DatabaseURL() = %q", got)
	}
}

func TestParseCSV(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"a", 1},
		{"a,b", 2},
		{" a , , b ,", 2},
	}
	for _, tt := range tests {
		if got := parseCSV(tt.in); len(got) != tt.want {
			t.Errorf("parseCSV(%q) = %v, ожидается %d элементов", tt.in, got, tt.want)
		}
	}
}
