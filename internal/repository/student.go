package repository

import (
	"context"
	"fmt"

	"github.com/Salama0/ITI-Examination-System/internal/domain/model"
)

// StudentRepository — данные кабинета студента.
type StudentRepository interface {
	// Grades возвращает оценки по email учётной записи (sp_view_student_grades_by_email).
	Grades(ctx context.Context, email string) ([]*model.StudentGrade, error)
	// UpcomingExams возвращает предстоящие экзамены (sp_student_get_upcoming_exams).
	UpcomingExams(ctx context.Context, studentID int64) ([]*model.UpcomingExam, error)
}

type studentRepo struct {
	db DBTX
}

// NewStudentRepository создаёт репозиторий кабинета студента.
func NewStudentRepository(db DBTX) StudentRepository {
	return &studentRepo{db: db}
}

func (r *studentRepo) Grades(ctx context.Context, email string) ([]*model.StudentGrade, error) {
	query := `SELECT student_name, crs_name, exam_type, exam_date, grade, status,
			intake_year, track_name, bran_name
		FROM sp_view_student_grades_by_email($1)`

	rows, err := r.db.Query(ctx, query, email)
	if err != nil {
		return nil, wrapRoutineError("ошибка получения оценок", err)
	}
	defer rows.Close()

	var result []*model.StudentGrade
	for rows.Next() {
		g := &model.StudentGrade{}
		if err := rows.Scan(
			&g.StudentName, &g.CourseName, &g.ExamType, &g.ExamDate, &g.Grade,
			&g.Status, &g.IntakeYear, &g.TrackName, &g.BranchName,
		); err != nil {
			return nil, fmt.Errorf("ошибка сканирования оценки: %w", err)
		}
		result = append(result, g)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapRoutineError("ошибка получения оценок", err)
	}
	return result, nil
}

func (r *studentRepo) UpcomingExams(ctx context.Context, studentID int64) ([]*model.UpcomingExam, error) {
	query := `SELECT ex_id, crs_name, crs_description, exam_date, start_time, end_time,
			exam_type, instructor_name, days_until_exam, hours_until_start, submission_status,
			my_score, my_grade, result, availability_status, can_take_exam
		FROM sp_student_get_upcoming_exams($1)`

	rows, err := r.db.Query(ctx, query, studentID)
	if err != nil {
		return nil, wrapRoutineError("ошибка получения предстоящих экзаменов", err)
	}
	defer rows.Close()

	var result []*model.UpcomingExam
	for rows.Next() {
		e := &model.UpcomingExam{}
		if err := rows.Scan(
			&e.ExamID, &e.CourseName, &e.CourseDescription, &e.ExamDate, &e.StartTime,
			&e.EndTime, &e.ExamType, &e.InstructorName, &e.DaysUntilExam, &e.HoursUntilStart,
			&e.SubmissionStatus, &e.MyScore, &e.MyGrade, &e.Result, &e.AvailabilityStatus,
			&e.CanTakeExam,
		); err != nil {
			return nil, fmt.Errorf("ошибка сканирования экзамена: %w", err)
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapRoutineError("ошибка получения предстоящих экзаменов", err)
	}
	return result, nil
}
