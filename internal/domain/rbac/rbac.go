// Пакет rbac — роли пользователей экзаменационной системы и проверка доступа.
// Набор ролей закрыт: Manager, Instructor, Student.
// Роли не упорядочены по привилегиям, доступ задаётся явным списком.
package rbac

import "strings"

// Роли (значения user_type в хранилище учётных данных).
const (
	RoleManager    = "Manager"
	RoleInstructor = "Instructor"
	RoleStudent    = "Student"
)

// validRoles — множество допустимых ролей.
var validRoles = map[string]bool{
	RoleManager:    true,
	RoleInstructor: true,
	RoleStudent:    true,
}

// IsValidRole проверяет, является ли строка допустимой ролью.
func IsValidRole(role string) bool {
	return validRoles[role]
}

// Allowed — чистый предикат ролевого шлюза: role входит в allowed.
// Пустой allowed не разрешает ничего.
func Allowed(role string, allowed ...string) bool {
	for _, a := range allowed {
		if a == role {
			return true
		}
	}
	return false
}

// DescribeRequired формирует перечень ролей для сообщения об отказе:
// "Manager, Instructor".
func DescribeRequired(allowed ...string) string {
	return strings.Join(allowed, ", ")
}
