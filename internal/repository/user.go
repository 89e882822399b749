package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Salama0/ITI-Examination-System/internal/domain/model"
)

// UserRepository — хранилище учётных данных.
type UserRepository interface {
	// FindByEmail возвращает учётную запись с хешем пароля (sp_authenticate_user).
	FindByEmail(ctx context.Context, email string) (*model.Identity, error)
	// FindByID возвращает учётную запись без хеша пароля (sp_get_user_by_id).
	FindByID(ctx context.Context, userID int64) (*model.Identity, error)
	// TouchLastLogin обновляет время последнего входа (sp_update_last_login).
	TouchLastLogin(ctx context.Context, userID int64) error
}

// userRepo — реализация UserRepository поверх хранимых функций.
type userRepo struct {
	db DBTX
}

// NewUserRepository создаёт репозиторий учётных записей.
func NewUserRepository(db DBTX) UserRepository {
	return &userRepo{db: db}
}

// Колонки профиля, общие для обеих функций (после password_hash).
const profileColumns = `student_id, instructor_id, is_active, last_login, full_name,
	intake_id, track_id, branch_id, track_name, branch_name, department_id, department_name`

func (r *userRepo) FindByEmail(ctx context.Context, email string) (*model.Identity, error) {
	query := fmt.Sprintf(`SELECT user_id, email, password_hash, user_type, %s
		FROM sp_authenticate_user($1)`, profileColumns)

	u := &model.Identity{}
	var fullName *string
	err := r.db.QueryRow(ctx, query, email).Scan(
		&u.UserID, &u.Email, &u.PasswordHash, &u.Role,
		&u.StudentID, &u.InstructorID, &u.IsActive, &u.LastLogin, &fullName,
		&u.IntakeID, &u.TrackID, &u.BranchID, &u.TrackName, &u.BranchName,
		&u.DepartmentID, &u.DepartmentName,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, wrapRoutineError("ошибка поиска пользователя по email", err)
	}
	u.FullName = derefString(fullName, model.DefaultFullName)
	return u, nil
}

func (r *userRepo) FindByID(ctx context.Context, userID int64) (*model.Identity, error) {
	query := fmt.Sprintf(`SELECT user_id, email, user_type, %s
		FROM sp_get_user_by_id($1)`, profileColumns)

	u := &model.Identity{}
	var fullName *string
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&u.UserID, &u.Email, &u.Role,
		&u.StudentID, &u.InstructorID, &u.IsActive, &u.LastLogin, &fullName,
		&u.IntakeID, &u.TrackID, &u.BranchID, &u.TrackName, &u.BranchName,
		&u.DepartmentID, &u.DepartmentName,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, wrapRoutineError("ошибка поиска пользователя по id", err)
	}
	u.FullName = derefString(fullName, model.DefaultFullName)
	return u, nil
}

func (r *userRepo) TouchLastLogin(ctx context.Context, userID int64) error {
	if _, err := r.db.Exec(ctx, `CALL sp_update_last_login($1)`, userID); err != nil {
		return wrapRoutineError("ошибка обновления last_login", err)
	}
	return nil
}
