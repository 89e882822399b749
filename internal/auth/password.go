// password.go — хеширование и проверка паролей (bcrypt).
package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// PasswordCost — cost factor bcrypt. Одна проверка занимает десятки миллисекунд.
const PasswordCost = bcrypt.DefaultCost

// HashPassword возвращает bcrypt-хеш пароля со случайной солью.
// Два вызова с одним паролем дают разные хеши.
// Пароли длиннее 72 байт bcrypt не принимает, возвращается ошибка.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), PasswordCost)
	if err != nil {
		return "", fmt.Errorf("хеширование пароля: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword сравнивает пароль с хешем.
// Любая ошибка (неверный пароль, повреждённый хеш) даёт false,
// причины вызывающему не сообщаются.
func VerifyPassword(password, hash string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
