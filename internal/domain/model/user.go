// Пакет model — доменные модели экзаменационной системы.
package model

import "time"

// DefaultFullName — отображаемое имя, если в профиле оно не заполнено.
const DefaultFullName = "User"

// Identity — аутентифицированный пользователь вместе с привязкой к профилю.
// Формируется хранимыми функциями sp_authenticate_user / sp_get_user_by_id.
type Identity struct {
	// UserID — стабильный первичный ключ, не переиспользуется
	UserID int64
	// Email — уникальный логин
	Email string
	// PasswordHash — bcrypt-хеш. Заполнен только на пути логина,
	// после разрешения токена очищается.
	PasswordHash string
	// Role — Manager, Instructor или Student (колонка user_type)
	Role string
	// IsActive — неактивный пользователь не проходит аутентификацию
	IsActive bool
	// FullName — отображаемое имя (DefaultFullName, если пусто)
	FullName string
	// LastLogin — время последнего успешного входа
	LastLogin *time.Time

	// Привязка к профилю, заполнена только для соответствующей роли
	StudentID      *int64
	InstructorID   *int64
	IntakeID       *int64
	TrackID        *int64
	BranchID       *int64
	TrackName      *string
	BranchName     *string
	DepartmentID   *int64
	DepartmentName *string
}

// WithoutSecret возвращает копию без хеша пароля.
func (i Identity) WithoutSecret() Identity {
	i.PasswordHash = ""
	return i
}
