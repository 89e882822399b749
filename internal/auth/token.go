// token.go — выпуск и проверка bearer-токенов (JWT, симметричная подпись HMAC).
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Salama0/ITI-Examination-System/internal/domain/rbac"
)

// Причины отклонения токена. Verify возвращает ровно одну из них.
var (
	// ErrTokenExpired — срок действия токена истёк.
	ErrTokenExpired = errors.New("токен просрочен")
	// ErrTokenBadSignature — подпись не совпадает или алгоритм не разрешён.
	ErrTokenBadSignature = errors.New("неверная подпись токена")
	// ErrTokenMalformed — токен не удалось разобрать или в нём нет обязательных claims.
	ErrTokenMalformed = errors.New("некорректный токен")
)

// Claims — утверждения, извлечённые из проверенного токена.
type Claims struct {
	// UserID — идентификатор пользователя (claim sub)
	UserID int64
	// Email — денормализованный email
	Email string
	// Role — денормализованная роль
	Role string
	// ExpiresAt — момент истечения (точность — секунда)
	ExpiresAt time.Time
}

// tokenClaims — представление claims в JWT.
type tokenClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Role  string `json:"user_type"`
}

// TokenOption — опция TokenIssuer.
type TokenOption func(*TokenIssuer)

// WithClock подменяет источник текущего времени (для тестов).
func WithClock(now func() time.Time) TokenOption {
	return func(ti *TokenIssuer) {
		ti.now = now
	}
}

// TokenIssuer выпускает и проверяет токены.
// Секрет и алгоритм задаются один раз при создании, состояние не изменяется,
// поэтому экземпляр безопасен для конкурентного использования.
type TokenIssuer struct {
	secret []byte
	method jwt.SigningMethod
	ttl    time.Duration
	now    func() time.Time
	parser *jwt.Parser
}

// NewTokenIssuer создаёт TokenIssuer.
// algorithm — HS256, HS384 или HS512; ttl — время жизни по умолчанию.
func NewTokenIssuer(secret, algorithm string, ttl time.Duration, opts ...TokenOption) (*TokenIssuer, error) {
	if secret == "" {
		return nil, fmt.Errorf("пустой секрет подписи")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("время жизни токена должно быть положительным: %s", ttl)
	}

	var method jwt.SigningMethod
	switch algorithm {
	case "HS256":
		method = jwt.SigningMethodHS256
	case "HS384":
		method = jwt.SigningMethodHS384
	case "HS512":
		method = jwt.SigningMethodHS512
	default:
		return nil, fmt.Errorf("неподдерживаемый алгоритм подписи %q", algorithm)
	}

	ti := &TokenIssuer{
		secret: []byte(secret),
		method: method,
		ttl:    ttl,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(ti)
	}

	ti.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return ti.now() }),
	)

	return ti, nil
}

// TTL возвращает время жизни токена по умолчанию.
func (ti *TokenIssuer) TTL() time.Duration {
	return ti.ttl
}

// Issue подписывает claims с истечением issuedAt + ttl и возвращает момент истечения.
// Момент выпуска усекается до секунды: iat и exp в токене целые секунды,
// иначе exp округлялся бы вниз и токен истекал раньше issuedAt + ttl.
func (ti *TokenIssuer) Issue(userID int64, email, role string, ttl time.Duration) (string, time.Time, error) {
	issuedAt := ti.now().Truncate(time.Second)
	expiresAt := issuedAt.Add(ttl)
	claims := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Email: email,
		Role:  role,
	}

	signed, err := jwt.NewWithClaims(ti.method, claims).SignedString(ti.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("подпись токена: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify проверяет подпись и срок действия токена.
// Ошибка всегда одна из ErrTokenExpired, ErrTokenBadSignature, ErrTokenMalformed
// (исходная ошибка jwt обёрнута для логирования).
func (ti *TokenIssuer) Verify(tokenString string) (*Claims, error) {
	tc := &tokenClaims{}
	_, err := ti.parser.ParseWithClaims(tokenString, tc, func(*jwt.Token) (any, error) {
		return ti.secret, nil
	})
	if err != nil {
		return nil, classifyTokenError(err)
	}

	userID, err := strconv.ParseInt(tc.Subject, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: sub %q не является идентификатором", ErrTokenMalformed, tc.Subject)
	}
	if tc.Role == "" || !rbac.IsValidRole(tc.Role) {
		return nil, fmt.Errorf("%w: недопустимая роль %q", ErrTokenMalformed, tc.Role)
	}

	return &Claims{
		UserID:    userID,
		Email:     tc.Email,
		Role:      tc.Role,
		ExpiresAt: tc.ExpiresAt.Time,
	}, nil
}

// classifyTokenError сводит ошибки jwt к трём причинам отклонения.
// Подпись проверяется до claims, поэтому токен с чужой подписью
// классифицируется как ErrTokenBadSignature даже если он просрочен.
func classifyTokenError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return fmt.Errorf("%w: %v", ErrTokenBadSignature, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %v", ErrTokenExpired, err)
	default:
		return fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}
}
