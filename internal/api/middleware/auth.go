// auth.go — bearer-аутентификация и ролевой доступ.
// Токен разрешается в актуальный профиль пользователя на каждом запросе,
// профиль помещается в контекст для downstream handlers.
package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	apierrors "github.com/Salama0/ITI-Examination-System/internal/api/errors"
	"github.com/Salama0/ITI-Examination-System/internal/domain/model"
	"github.com/Salama0/ITI-Examination-System/internal/domain/rbac"
	"github.com/Salama0/ITI-Examination-System/internal/service"
)

// contextKey — тип для ключей контекста (избегаем коллизий).
type contextKey string

const (
	// ContextKeyIdentity — профиль текущего пользователя в контексте запроса.
	ContextKeyIdentity contextKey = "identity"
)

// msgNotAuthenticated — ответ при отсутствии заголовка Authorization.
const msgNotAuthenticated = "Not authenticated"

// IdentityResolver разрешает bearer-токен в профиль пользователя.
// Реализуется service.AuthService.
type IdentityResolver interface {
	Resolve(ctx context.Context, token string) (*model.Identity, error)
}

// BearerAuth — middleware аутентификации по bearer-токену.
type BearerAuth struct {
	resolver IdentityResolver
	logger   *slog.Logger
}

// NewBearerAuth создаёт middleware аутентификации.
func NewBearerAuth(resolver IdentityResolver, logger *slog.Logger) *BearerAuth {
	return &BearerAuth{
		resolver: resolver,
		logger:   logger.With(slog.String("component", "bearer_auth")),
	}
}

// Middleware возвращает HTTP middleware: извлекает Bearer token,
// разрешает его в профиль и помещает профиль в контекст.
func (b *BearerAuth) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, ok := bearerToken(r)
			if !ok {
				apierrors.Unauthorized(w, msgNotAuthenticated)
				return
			}

			identity, err := b.resolver.Resolve(r.Context(), tokenString)
			if err != nil {
				switch {
				case errors.Is(err, service.ErrUnauthorized):
					b.logger.Debug("Токен отклонён",
						slog.String("error", err.Error()),
						slog.String("remote_addr", r.RemoteAddr),
					)
					apierrors.Unauthorized(w, apierrors.MsgInvalidToken)
				case errors.Is(err, service.ErrUpstreamUnavailable):
					b.logger.Error("Хранилище недоступно при проверке токена",
						slog.String("error", err.Error()),
					)
					apierrors.UpstreamUnavailable(w)
				default:
					b.logger.Error("Ошибка проверки токена",
						slog.String("error", err.Error()),
					)
					apierrors.InternalError(w)
				}
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

// bearerToken извлекает токен из заголовка "Authorization: Bearer <token>".
func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}

	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", false
	}
	return token, true
}

// RequireRole возвращает middleware, требующий одну из указанных ролей.
// Должен использоваться ПОСЛЕ BearerAuth.Middleware().
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := IdentityFromContext(r.Context())
			if identity == nil {
				apierrors.Unauthorized(w, msgNotAuthenticated)
				return
			}

			if err := service.Require(identity, roles...); err != nil {
				apierrors.Forbidden(w, "Access denied. Required role: "+rbac.DescribeRequired(roles...))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// --- Context helpers ---

// WithIdentity возвращает контекст с профилем пользователя.
func WithIdentity(ctx context.Context, identity *model.Identity) context.Context {
	return context.WithValue(ctx, ContextKeyIdentity, identity)
}

// IdentityFromContext извлекает профиль пользователя из контекста запроса.
// Возвращает nil, если профиль не найден.
func IdentityFromContext(ctx context.Context) *model.Identity {
	identity, _ := ctx.Value(ContextKeyIdentity).(*model.Identity)
	return identity
}
