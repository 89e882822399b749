// auth.go — аутентификация (email + пароль), выпуск токена,
// разрешение сессии по bearer-токену и ролевой шлюз.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Salama0/ITI-Examination-System/internal/auth"
	"github.com/Salama0/ITI-Examination-System/internal/domain/model"
	"github.com/Salama0/ITI-Examination-System/internal/domain/rbac"
	"github.com/Salama0/ITI-Examination-System/internal/repository"
)

// TokenType — тип токена в ответе логина.
const TokenType = "bearer"

// Исходы логина для метрики.
const (
	outcomeSuccess     = "success"
	outcomeNotFound    = "not_found"
	outcomeBadPassword = "bad_password"
	outcomeInactive    = "inactive"
	outcomeError       = "error"
)

var loginAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "exam_auth_login_attempts_total",
	Help: "Количество попыток входа по исходу.",
}, []string{"outcome"})

// TokenIssuer — выпуск и проверка bearer-токенов.
// Реализуется *auth.TokenIssuer.
type TokenIssuer interface {
	Issue(userID int64, email, role string, ttl time.Duration) (string, time.Time, error)
	Verify(token string) (*auth.Claims, error)
	TTL() time.Duration
}

// LoginResult — результат успешного логина.
type LoginResult struct {
	AccessToken string
	TokenType   string
	ExpiresAt   time.Time
	// User — профиль без хеша пароля
	User model.Identity
}

// AuthService — аутентификатор и извлекатель сессии.
// Не хранит состояния между запросами: токены самодостаточны,
// профиль на каждом запросе перечитывается из хранилища.
type AuthService struct {
	users  repository.UserRepository
	tokens TokenIssuer
	logger *slog.Logger

	// Хеш-заглушка: на пути "пользователь не найден" bcrypt выполняется так же,
	// как для существующего пользователя.
	dummyOnce sync.Once
	dummyHash string
}

// NewAuthService создаёт сервис аутентификации.
func NewAuthService(users repository.UserRepository, tokens TokenIssuer, logger *slog.Logger) *AuthService {
	return &AuthService{
		users:  users,
		tokens: tokens,
		logger: logger.With(slog.String("component", "auth_service")),
	}
}

// Authenticate проверяет email и пароль.
// Возвращает профиль с хешем пароля либо ошибку, оборачивающую
// ErrInvalidCredentials (ErrUserNotFound, ErrBadPassword, ErrUserInactive).
// Недоступность хранилища — ErrUpstreamUnavailable, не ErrInvalidCredentials.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*model.Identity, error) {
	email = strings.TrimSpace(email)

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			auth.VerifyPassword(password, s.fakeHash())
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}

	if !auth.VerifyPassword(password, user.PasswordHash) {
		return nil, ErrBadPassword
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}

	return user, nil
}

// Login аутентифицирует пользователя, выпускает токен и отмечает время входа.
// Ошибка отметки времени входа логируется и на результат не влияет.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.Authenticate(ctx, email, password)
	if err != nil {
		outcome := loginOutcome(err)
		loginAttemptsTotal.WithLabelValues(outcome).Inc()
		if outcome == outcomeError {
			s.logger.Error("Ошибка хранилища при логине",
				slog.String("error", err.Error()),
			)
		} else {
			s.logger.Info("Отказ в аутентификации",
				slog.String("reason", outcome),
			)
		}
		return nil, err
	}

	ttl := s.tokens.TTL()
	token, expiresAt, err := s.tokens.Issue(user.UserID, user.Email, user.Role, ttl)
	if err != nil {
		loginAttemptsTotal.WithLabelValues(outcomeError).Inc()
		return nil, fmt.Errorf("выпуск токена: %w", err)
	}

	if err := s.users.TouchLastLogin(ctx, user.UserID); err != nil {
		s.logger.Warn("Не удалось обновить время последнего входа",
			slog.Int64("user_id", user.UserID),
			slog.String("error", err.Error()),
		)
	}

	loginAttemptsTotal.WithLabelValues(outcomeSuccess).Inc()
	s.logger.Info("Успешный вход",
		slog.Int64("user_id", user.UserID),
		slog.String("role", user.Role),
	)

	return &LoginResult{
		AccessToken: token,
		TokenType:   TokenType,
		ExpiresAt:   expiresAt,
		User:        user.WithoutSecret(),
	}, nil
}

// Resolve разрешает bearer-токен в актуальный профиль пользователя.
// Любой отказ токена, отсутствие или деактивация пользователя дают ErrUnauthorized.
// Хеш пароля в результате всегда пуст.
func (s *AuthService) Resolve(ctx context.Context, token string) (*model.Identity, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		s.logger.Debug("Токен отклонён", slog.String("reason", err.Error()))
		return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.logger.Info("Пользователь из токена не найден",
				slog.Int64("user_id", claims.UserID),
			)
			return nil, fmt.Errorf("%w: пользователь %d не найден", ErrUnauthorized, claims.UserID)
		}
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}

	if !user.IsActive {
		s.logger.Info("Токен неактивного пользователя",
			slog.Int64("user_id", user.UserID),
		)
		return nil, fmt.Errorf("%w: пользователь %d неактивен", ErrUnauthorized, user.UserID)
	}

	resolved := user.WithoutSecret()
	return &resolved, nil
}

// Require — ролевой шлюз: пропускает identity, если её роль входит в allowed.
// Иначе возвращает *ForbiddenError.
func Require(identity *model.Identity, allowed ...string) error {
	if identity == nil || !rbac.Allowed(identity.Role, allowed...) {
		return &ForbiddenError{Required: allowed}
	}
	return nil
}

// fakeHash возвращает bcrypt-хеш случайного пароля, вычисленный один раз.
func (s *AuthService) fakeHash() string {
	s.dummyOnce.Do(func() {
		hash, err := auth.HashPassword("timing-equalizer")
		if err != nil {
			s.logger.Error("Не удалось вычислить хеш-заглушку", slog.String("error", err.Error()))
			return
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}

// loginOutcome — метка метрики по ошибке аутентификации.
func loginOutcome(err error) string {
	switch {
	case errors.Is(err, ErrUserNotFound):
		return outcomeNotFound
	case errors.Is(err, ErrBadPassword):
		return outcomeBadPassword
	case errors.Is(err, ErrUserInactive):
		return outcomeInactive
	default:
		return outcomeError
	}
}
