// profile.go — обработчики кабинетов /api/instructor и /api/student.
package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	apierrors "github.com/Salama0/ITI-Examination-System/internal/api/errors"
	"github.com/Salama0/ITI-Examination-System/internal/api/middleware"
	"github.com/Salama0/ITI-Examination-System/internal/domain/model"
	"github.com/Salama0/ITI-Examination-System/internal/service"
)

// InstructorReports — данные кабинета преподавателя.
// Реализуется service.InstructorService.
type InstructorReports interface {
	Courses(ctx context.Context, user *model.Identity) ([]*model.InstructorCourse, error)
	Exams(ctx context.Context, user *model.Identity) ([]*model.InstructorExam, error)
}

// StudentReports — данные кабинета студента.
// Реализуется service.StudentService.
type StudentReports interface {
	Grades(ctx context.Context, user *model.Identity) ([]*model.StudentGrade, error)
	UpcomingExams(ctx context.Context, user *model.Identity) ([]*model.UpcomingExam, error)
}

// --- DTO ---

type instructorCourseResponse struct {
	CourseID             int64   `json:"crs_id"`
	CourseName           string  `json:"crs_name"`
	CourseDescription    *string `json:"crs_description"`
	TrackID              int64   `json:"track_id"`
	TrackName            string  `json:"track_name"`
	BranchID             int64   `json:"bran_id"`
	BranchName           string  `json:"bran_name"`
	IntakeYear           int64   `json:"intake_year"`
	Department           *string `json:"department"`
	ExamsCreated         int64   `json:"exams_created"`
	NormalExams          int64   `json:"normal_exams"`
	CorrectiveExams      int64   `json:"corrective_exams"`
	TotalStudentsInTrack int64   `json:"total_students_in_track"`
}

type instructorExamResponse struct {
	ExamID                   int64    `json:"ex_id"`
	CourseName               string   `json:"crs_name"`
	ExamDate                 *string  `json:"exam_date"`
	StartTime                *string  `json:"start_time"`
	EndTime                  *string  `json:"end_time"`
	ExamType                 string   `json:"exam_type"`
	TrackName                string   `json:"track_name"`
	BranchName               string   `json:"bran_name"`
	IntakeYear               int64    `json:"intake_year"`
	TotalStudentsInTrack     int64    `json:"total_students_in_track"`
	StudentsWhoSubmitted     int64    `json:"students_who_submitted"`
	StudentsNotSubmitted     int64    `json:"students_not_submitted"`
	TotalSubmissions         int64    `json:"total_submissions"`
	PassedCount              int64    `json:"passed_count"`
	FailedCount              int64    `json:"failed_count"`
	SubmissionRatePercentage *float64 `json:"submission_rate_percentage"`
	AverageScore             *float64 `json:"average_score"`
	ExamStatus               string   `json:"exam_status"`
}

type studentGradeResponse struct {
	StudentName string  `json:"student_name"`
	CourseName  string  `json:"crs_name"`
	ExamType    string  `json:"exam_type"`
	ExamDate    *string `json:"exam_date"`
	Grade       *string `json:"grade"`
	Status      string  `json:"status"`
	IntakeYear  int64   `json:"intake_year"`
	TrackName   *string `json:"track_name"`
	BranchName  *string `json:"bran_name"`
}

type upcomingExamResponse struct {
	ExamID             int64    `json:"ex_id"`
	CourseName         string   `json:"crs_name"`
	CourseDescription  *string  `json:"crs_description"`
	ExamDate           *string  `json:"exam_date"`
	StartTime          *string  `json:"start_time"`
	EndTime            *string  `json:"end_time"`
	ExamType           string   `json:"exam_type"`
	InstructorName     string   `json:"instructor_name"`
	DaysUntilExam      *int64   `json:"days_until_exam"`
	HoursUntilStart    *int64   `json:"hours_until_start"`
	SubmissionStatus   string   `json:"submission_status"`
	MyScore            *float64 `json:"my_score"`
	MyGrade            *string  `json:"my_grade"`
	Result             *string  `json:"result"`
	AvailabilityStatus string   `json:"availability_status"`
	CanTakeExam        int      `json:"can_take_exam"`
}

// --- Преподаватель ---

// InstructorHandler — обработчик /api/instructor.
type InstructorHandler struct {
	reports InstructorReports
	logger  *slog.Logger
}

// NewInstructorHandler создаёт обработчик кабинета преподавателя.
func NewInstructorHandler(reports InstructorReports, logger *slog.Logger) *InstructorHandler {
	return &InstructorHandler{
		reports: reports,
		logger:  logger.With(slog.String("component", "instructor_handler")),
	}
}

const msgNoInstructorID = "Instructor ID not found in user profile"

// Courses — GET /api/instructor/courses.
func (h *InstructorHandler) Courses(w http.ResponseWriter, r *http.Request) {
	courses, err := h.reports.Courses(r.Context(), middleware.IdentityFromContext(r.Context()))
	if err != nil {
		writeProfileError(w, h.logger, err, msgNoInstructorID)
		return
	}

	resp := make([]instructorCourseResponse, 0, len(courses))
	for _, c := range courses {
		resp = append(resp, instructorCourseResponse{
			CourseID:             c.CourseID,
			CourseName:           c.CourseName,
			CourseDescription:    c.CourseDescription,
			TrackID:              c.TrackID,
			TrackName:            c.TrackName,
			BranchID:             c.BranchID,
			BranchName:           c.BranchName,
			IntakeYear:           c.IntakeYear,
			Department:           c.Department,
			ExamsCreated:         c.ExamsCreated,
			NormalExams:          c.NormalExams,
			CorrectiveExams:      c.CorrectiveExams,
			TotalStudentsInTrack: c.TotalStudentsInTrack,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// Exams — GET /api/instructor/exams.
func (h *InstructorHandler) Exams(w http.ResponseWriter, r *http.Request) {
	exams, err := h.reports.Exams(r.Context(), middleware.IdentityFromContext(r.Context()))
	if err != nil {
		writeProfileError(w, h.logger, err, msgNoInstructorID)
		return
	}

	resp := make([]instructorExamResponse, 0, len(exams))
	for _, e := range exams {
		resp = append(resp, instructorExamResponse{
			ExamID:                   e.ExamID,
			CourseName:               e.CourseName,
			ExamDate:                 formatDate(e.ExamDate),
			StartTime:                e.StartTime,
			EndTime:                  e.EndTime,
			ExamType:                 e.ExamType,
			TrackName:                e.TrackName,
			BranchName:               e.BranchName,
			IntakeYear:               e.IntakeYear,
			TotalStudentsInTrack:     e.TotalStudentsInTrack,
			StudentsWhoSubmitted:     e.StudentsWhoSubmitted,
			StudentsNotSubmitted:     e.StudentsNotSubmitted,
			TotalSubmissions:         e.TotalSubmissions,
			PassedCount:              e.PassedCount,
			FailedCount:              e.FailedCount,
			SubmissionRatePercentage: e.SubmissionRatePercentage,
			AverageScore:             e.AverageScore,
			ExamStatus:               e.ExamStatus,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- Студент ---

// StudentHandler — обработчик /api/student.
type StudentHandler struct {
	reports StudentReports
	logger  *slog.Logger
}

// NewStudentHandler создаёт обработчик кабинета студента.
func NewStudentHandler(reports StudentReports, logger *slog.Logger) *StudentHandler {
	return &StudentHandler{
		reports: reports,
		logger:  logger.With(slog.String("component", "student_handler")),
	}
}

const msgNoStudentID = "Student ID not found in user profile"

// Grades — GET /api/student/grades.
func (h *StudentHandler) Grades(w http.ResponseWriter, r *http.Request) {
	grades, err := h.reports.Grades(r.Context(), middleware.IdentityFromContext(r.Context()))
	if err != nil {
		writeProfileError(w, h.logger, err, msgNoStudentID)
		return
	}

	resp := make([]studentGradeResponse, 0, len(grades))
	for _, g := range grades {
		resp = append(resp, studentGradeResponse{
			StudentName: g.StudentName,
			CourseName:  g.CourseName,
			ExamType:    g.ExamType,
			ExamDate:    formatDate(g.ExamDate),
			Grade:       g.Grade,
			Status:      g.Status,
			IntakeYear:  g.IntakeYear,
			TrackName:   g.TrackName,
			BranchName:  g.BranchName,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// UpcomingExams — GET /api/student/upcoming-exams.
func (h *StudentHandler) UpcomingExams(w http.ResponseWriter, r *http.Request) {
	exams, err := h.reports.UpcomingExams(r.Context(), middleware.IdentityFromContext(r.Context()))
	if err != nil {
		writeProfileError(w, h.logger, err, msgNoStudentID)
		return
	}

	resp := make([]upcomingExamResponse, 0, len(exams))
	for _, e := range exams {
		canTake := 0
		if e.CanTakeExam {
			canTake = 1
		}
		resp = append(resp, upcomingExamResponse{
			ExamID:             e.ExamID,
			CourseName:         e.CourseName,
			CourseDescription:  e.CourseDescription,
			ExamDate:           formatDate(e.ExamDate),
			StartTime:          e.StartTime,
			EndTime:            e.EndTime,
			ExamType:           e.ExamType,
			InstructorName:     e.InstructorName,
			DaysUntilExam:      e.DaysUntilExam,
			HoursUntilStart:    e.HoursUntilStart,
			SubmissionStatus:   e.SubmissionStatus,
			MyScore:            e.MyScore,
			MyGrade:            e.MyGrade,
			Result:             e.Result,
			AvailabilityStatus: e.AvailabilityStatus,
			CanTakeExam:        canTake,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// writeProfileError — как writeServiceError, но незаполненный профиль даёт 400
// с сообщением, специфичным для кабинета.
func writeProfileError(w http.ResponseWriter, logger *slog.Logger, err error, profileMsg string) {
	if errors.Is(err, service.ErrProfileIncomplete) {
		apierrors.ValidationError(w, profileMsg)
		return
	}
	writeServiceError(w, logger, err)
}
