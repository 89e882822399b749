// profile.go — кабинеты преподавателя и студента.
// Данные выбираются по привязке из профиля текущего пользователя.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Salama0/ITI-Examination-System/internal/domain/model"
	"github.com/Salama0/ITI-Examination-System/internal/repository"
)

// InstructorService — курсы и экзамены преподавателя.
type InstructorService struct {
	repo   repository.InstructorRepository
	logger *slog.Logger
}

// NewInstructorService создаёт сервис кабинета преподавателя.
func NewInstructorService(repo repository.InstructorRepository, logger *slog.Logger) *InstructorService {
	return &InstructorService{
		repo:   repo,
		logger: logger.With(slog.String("component", "instructor_service")),
	}
}

// Courses возвращает курсы преподавателя.
// Без instructor_id в профиле — ErrProfileIncomplete.
func (s *InstructorService) Courses(ctx context.Context, user *model.Identity) ([]*model.InstructorCourse, error) {
	if user.InstructorID == nil {
		return nil, fmt.Errorf("%w: нет instructor_id у пользователя %d", ErrProfileIncomplete, user.UserID)
	}

	courses, err := s.repo.Courses(ctx, *user.InstructorID)
	if err != nil {
		s.logger.Error("Ошибка получения курсов",
			slog.Int64("instructor_id", *user.InstructorID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	if courses == nil {
		courses = []*model.InstructorCourse{}
	}
	return courses, nil
}

// Exams возвращает экзамены преподавателя.
func (s *InstructorService) Exams(ctx context.Context, user *model.Identity) ([]*model.InstructorExam, error) {
	if user.InstructorID == nil {
		return nil, fmt.Errorf("%w: нет instructor_id у пользователя %d", ErrProfileIncomplete, user.UserID)
	}

	exams, err := s.repo.Exams(ctx, *user.InstructorID)
	if err != nil {
		s.logger.Error("Ошибка получения экзаменов",
			slog.Int64("instructor_id", *user.InstructorID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	if exams == nil {
		exams = []*model.InstructorExam{}
	}
	return exams, nil
}

// StudentService — оценки и предстоящие экзамены студента.
type StudentService struct {
	repo   repository.StudentRepository
	logger *slog.Logger
}

// NewStudentService создаёт сервис кабинета студента.
func NewStudentService(repo repository.StudentRepository, logger *slog.Logger) *StudentService {
	return &StudentService{
		repo:   repo,
		logger: logger.With(slog.String("component", "student_service")),
	}
}

// Grades возвращает оценки студента по email учётной записи.
func (s *StudentService) Grades(ctx context.Context, user *model.Identity) ([]*model.StudentGrade, error) {
	grades, err := s.repo.Grades(ctx, user.Email)
	if err != nil {
		s.logger.Error("Ошибка получения оценок",
			slog.Int64("user_id", user.UserID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	if grades == nil {
		grades = []*model.StudentGrade{}
	}
	return grades, nil
}

// UpcomingExams возвращает предстоящие экзамены.
// Без student_id в профиле — ErrProfileIncomplete.
func (s *StudentService) UpcomingExams(ctx context.Context, user *model.Identity) ([]*model.UpcomingExam, error) {
	if user.StudentID == nil {
		return nil, fmt.Errorf("%w: нет student_id у пользователя %d", ErrProfileIncomplete, user.UserID)
	}

	exams, err := s.repo.UpcomingExams(ctx, *user.StudentID)
	if err != nil {
		s.logger.Error("Ошибка получения предстоящих экзаменов",
			slog.Int64("student_id", *user.StudentID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	if exams == nil {
		exams = []*model.UpcomingExam{}
	}
	return exams, nil
}
