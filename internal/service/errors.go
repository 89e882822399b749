// errors.go — ошибки бизнес-логики сервисного слоя.
package service

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCredentials — неверный email или пароль, либо учётная запись неактивна.
	// Наружу все причины отдаются одним сообщением.
	ErrInvalidCredentials = errors.New("неверные учётные данные")
	// ErrUnauthorized — токен отсутствует, просрочен, подделан или пользователь больше не активен.
	ErrUnauthorized = errors.New("не удалось проверить учётные данные")
	// ErrForbidden — роль пользователя не входит в допустимый набор.
	ErrForbidden = errors.New("доступ запрещён")
	// ErrUpstreamUnavailable — хранилище данных недоступно или вернуло ошибку.
	ErrUpstreamUnavailable = errors.New("хранилище данных недоступно")
	// ErrProfileIncomplete — в профиле нет привязки, нужной операции.
	ErrProfileIncomplete = errors.New("профиль пользователя не заполнен")
)

// Внутренние причины отказа в аутентификации. Все оборачивают ErrInvalidCredentials
// и различаются только в логах и метриках.
var (
	ErrUserNotFound = fmt.Errorf("%w: пользователь не найден", ErrInvalidCredentials)
	ErrBadPassword  = fmt.Errorf("%w: пароль не совпадает", ErrInvalidCredentials)
	ErrUserInactive = fmt.Errorf("%w: учётная запись неактивна", ErrInvalidCredentials)
)

// ForbiddenError — отказ ролевого шлюза с перечнем допустимых ролей.
type ForbiddenError struct {
	Required []string
}

func (e *ForbiddenError) Error() string {
	return fmt.Sprintf("%s: требуется роль %v", ErrForbidden, e.Required)
}

// Unwrap позволяет проверять errors.Is(err, ErrForbidden).
func (e *ForbiddenError) Unwrap() error {
	return ErrForbidden
}
