package repository

import (
	"context"
	"fmt"

	"github.com/Salama0/ITI-Examination-System/internal/domain/model"
)

// InstructorRepository — данные кабинета преподавателя.
type InstructorRepository interface {
	// Courses возвращает курсы преподавателя (sp_instructor_get_my_courses).
	Courses(ctx context.Context, instructorID int64) ([]*model.InstructorCourse, error)
	// Exams возвращает экзамены преподавателя (sp_instructor_get_my_exams).
	Exams(ctx context.Context, instructorID int64) ([]*model.InstructorExam, error)
}

type instructorRepo struct {
	db DBTX
}

// NewInstructorRepository создаёт репозиторий кабинета преподавателя.
func NewInstructorRepository(db DBTX) InstructorRepository {
	return &instructorRepo{db: db}
}

func (r *instructorRepo) Courses(ctx context.Context, instructorID int64) ([]*model.InstructorCourse, error) {
	query := `SELECT crs_id, crs_name, crs_description, track_id, track_name, bran_id, bran_name,
			intake_year, department, exams_created, normal_exams, corrective_exams,
			total_students_in_track
		FROM sp_instructor_get_my_courses($1)`

	rows, err := r.db.Query(ctx, query, instructorID)
	if err != nil {
		return nil, wrapRoutineError("ошибка получения курсов преподавателя", err)
	}
	defer rows.Close()

	var result []*model.InstructorCourse
	for rows.Next() {
		c := &model.InstructorCourse{}
		if err := rows.Scan(
			&c.CourseID, &c.CourseName, &c.CourseDescription, &c.TrackID, &c.TrackName,
			&c.BranchID, &c.BranchName, &c.IntakeYear, &c.Department, &c.ExamsCreated,
			&c.NormalExams, &c.CorrectiveExams, &c.TotalStudentsInTrack,
		); err != nil {
			return nil, fmt.Errorf("ошибка сканирования курса: %w", err)
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapRoutineError("ошибка получения курсов преподавателя", err)
	}
	return result, nil
}

func (r *instructorRepo) Exams(ctx context.Context, instructorID int64) ([]*model.InstructorExam, error) {
	query := `SELECT ex_id, crs_name, exam_date, start_time, end_time, exam_type, track_name,
			bran_name, intake_year, total_students_in_track, students_who_submitted,
			students_not_submitted, total_submissions, passed_count, failed_count,
			submission_rate_percentage, average_score, exam_status
		FROM sp_instructor_get_my_exams($1)`

	rows, err := r.db.Query(ctx, query, instructorID)
	if err != nil {
		return nil, wrapRoutineError("ошибка получения экзаменов преподавателя", err)
	}
	defer rows.Close()

	var result []*model.InstructorExam
	for rows.Next() {
		e := &model.InstructorExam{}
		if err := rows.Scan(
			&e.ExamID, &e.CourseName, &e.ExamDate, &e.StartTime, &e.EndTime, &e.ExamType,
			&e.TrackName, &e.BranchName, &e.IntakeYear, &e.TotalStudentsInTrack,
			&e.StudentsWhoSubmitted, &e.StudentsNotSubmitted, &e.TotalSubmissions,
			&e.PassedCount, &e.FailedCount, &e.SubmissionRatePercentage, &e.AverageScore,
			&e.ExamStatus,
		); err != nil {
			return nil, fmt.Errorf("ошибка сканирования экзамена: %w", err)
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapRoutineError("ошибка получения экзаменов преподавателя", err)
	}
	return result, nil
}
