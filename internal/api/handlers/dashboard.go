// dashboard.go — обработчики /api/dashboard (роль Manager).
package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	apierrors "github.com/Salama0/ITI-Examination-System/internal/api/errors"
	"github.com/Salama0/ITI-Examination-System/internal/domain/model"
)

// DashboardReports — отчёты dashboard.
// Реализуется service.DashboardService.
type DashboardReports interface {
	Stats(ctx context.Context) (*model.DashboardStats, error)
	RecentExams(ctx context.Context, limit int) ([]*model.RecentExam, error)
	TopPerformers(ctx context.Context, limit int) ([]*model.TopPerformer, error)
	StudentsByBranch(ctx context.Context) ([]*model.BranchStats, error)
	StudentsByTrack(ctx context.Context) ([]*model.TrackStats, error)
	SystemHealth(ctx context.Context) (*model.SystemHealth, error)
	ExamPerformance(ctx context.Context) (*model.ExamPerformanceSummary, error)
}

// DashboardHandler — обработчик /api/dashboard.
type DashboardHandler struct {
	reports DashboardReports
	logger  *slog.Logger
}

// NewDashboardHandler создаёт обработчик dashboard.
func NewDashboardHandler(reports DashboardReports, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{
		reports: reports,
		logger:  logger.With(slog.String("component", "dashboard_handler")),
	}
}

// --- DTO ---

type dashboardStatsResponse struct {
	TotalStudents         int64 `json:"total_students"`
	CurrentIntakeStudents int64 `json:"current_intake_students"`
	TotalInstructors      int64 `json:"total_instructors"`
	TotalCourses          int64 `json:"total_courses"`
	TotalBranches         int64 `json:"total_branches"`
	TotalTracks           int64 `json:"total_tracks"`

	TotalExams         int64 `json:"total_exams"`
	CurrentIntakeExams int64 `json:"current_intake_exams"`
	NormalExams        int64 `json:"normal_exams"`
	CorrectiveExams    int64 `json:"corrective_exams"`

	TotalSubmissions int64    `json:"total_submissions"`
	OverallAvgScore  *float64 `json:"overall_avg_score"`
	TotalPasses      int64    `json:"total_passes"`
	TotalFailures    int64    `json:"total_failures"`
	OverallPassRate  float64  `json:"overall_pass_rate"`

	ActiveStudents    int64 `json:"active_students"`
	GraduatedStudents int64 `json:"graduated_students"`
	WithdrawnStudents int64 `json:"withdrawn_students"`

	CurrentIntakeYear *int64 `json:"current_intake_year"`
}

type recentExamResponse struct {
	ExamID         int64    `json:"exam_id"`
	CourseName     string   `json:"course_name"`
	ExamDate       *string  `json:"exam_date"`
	InstructorName string   `json:"instructor_name"`
	TrackName      string   `json:"track_name"`
	BranchName     string   `json:"branch_name"`
	ExamType       string   `json:"exam_type"`
	Submissions    int64    `json:"submissions"`
	AvgScore       *float64 `json:"avg_score"`
	Passed         int64    `json:"passed"`
	Failed         int64    `json:"failed"`
}

type topPerformerResponse struct {
	ID         int64   `json:"id"`
	Name       string  `json:"name"`
	Track      *string `json:"track"`
	AvgGrade   float64 `json:"avg_grade"`
	ExamsTaken int64   `json:"exams_taken"`
}

type branchStatsResponse struct {
	BranchID          int64    `json:"branch_id"`
	BranchName        string   `json:"branch_name"`
	Location          *string  `json:"location"`
	TotalStudents     int64    `json:"total_students"`
	ActiveStudents    int64    `json:"active_students"`
	GraduatedStudents int64    `json:"graduated_students"`
	TotalExams        int64    `json:"total_exams"`
	StudentsTookExams int64    `json:"students_took_exams"`
	AvgScore          *float64 `json:"avg_score"`
	PassRate          float64  `json:"pass_rate"`
}

type trackStatsResponse struct {
	TrackID          int64    `json:"track_id"`
	TrackName        string   `json:"track_name"`
	TotalStudents    int64    `json:"total_students"`
	BranchesOffering int64    `json:"branches_offering"`
	TotalExams       int64    `json:"total_exams"`
	CoursesWithExams int64    `json:"courses_with_exams"`
	AvgScore         *float64 `json:"avg_score"`
	PassRate         float64  `json:"pass_rate"`
}

type systemHealthResponse struct {
	StudentsNeedingCorrective int64 `json:"students_needing_corrective"`
	ExamsLowPassRate          int64 `json:"exams_low_pass_rate"`
	UpcomingExams7Days        int64 `json:"upcoming_exams_7_days"`
	StudentsNoSubmissions     int64 `json:"students_no_submissions"`
}

type examPerformanceResponse struct {
	TotalAttempts int64   `json:"total_attempts"`
	Passed        int64   `json:"passed"`
	Failed        int64   `json:"failed"`
	PassRate      float64 `json:"pass_rate"`
	AvgPercentage float64 `json:"avg_percentage"`
	MinPercentage float64 `json:"min_percentage"`
	MaxPercentage float64 `json:"max_percentage"`
}

// --- Обработчики ---

// Stats — GET /api/dashboard/stats.
func (h *DashboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	s, err := h.reports.Stats(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dashboardStatsResponse{
		TotalStudents:         s.TotalStudents,
		CurrentIntakeStudents: s.CurrentIntakeStudents,
		TotalInstructors:      s.TotalInstructors,
		TotalCourses:          s.TotalCourses,
		TotalBranches:         s.TotalBranches,
		TotalTracks:           s.TotalTracks,
		TotalExams:            s.TotalExams,
		CurrentIntakeExams:    s.CurrentIntakeExams,
		NormalExams:           s.NormalExams,
		CorrectiveExams:       s.CorrectiveExams,
		TotalSubmissions:      s.TotalSubmissions,
		OverallAvgScore:       s.OverallAvgScore,
		TotalPasses:           s.TotalPasses,
		TotalFailures:         s.TotalFailures,
		OverallPassRate:       s.OverallPassRate,
		ActiveStudents:        s.ActiveStudents,
		GraduatedStudents:     s.GraduatedStudents,
		WithdrawnStudents:     s.WithdrawnStudents,
		CurrentIntakeYear:     s.CurrentIntakeYear,
	})
}

// RecentExams — GET /api/dashboard/recent-exams?limit=5.
func (h *DashboardHandler) RecentExams(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}
	exams, err := h.reports.RecentExams(r.Context(), limit)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	resp := make([]recentExamResponse, 0, len(exams))
	for _, e := range exams {
		resp = append(resp, recentExamResponse{
			ExamID:         e.ExamID,
			CourseName:     e.CourseName,
			ExamDate:       formatDate(e.ExamDate),
			InstructorName: e.InstructorName,
			TrackName:      e.TrackName,
			BranchName:     e.BranchName,
			ExamType:       e.ExamType,
			Submissions:    e.Submissions,
			AvgScore:       e.AvgScore,
			Passed:         e.Passed,
			Failed:         e.Failed,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// TopPerformers — GET /api/dashboard/top-performers?limit=5.
func (h *DashboardHandler) TopPerformers(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}
	top, err := h.reports.TopPerformers(r.Context(), limit)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	resp := make([]topPerformerResponse, 0, len(top))
	for _, p := range top {
		resp = append(resp, topPerformerResponse{
			ID:         p.ID,
			Name:       p.Name,
			Track:      p.Track,
			AvgGrade:   p.AvgGrade,
			ExamsTaken: p.ExamsTaken,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// StudentsByBranch — GET /api/dashboard/students-by-branch.
func (h *DashboardHandler) StudentsByBranch(w http.ResponseWriter, r *http.Request) {
	branches, err := h.reports.StudentsByBranch(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	resp := make([]branchStatsResponse, 0, len(branches))
	for _, b := range branches {
		resp = append(resp, branchStatsResponse{
			BranchID:          b.BranchID,
			BranchName:        b.BranchName,
			Location:          b.Location,
			TotalStudents:     b.TotalStudents,
			ActiveStudents:    b.ActiveStudents,
			GraduatedStudents: b.GraduatedStudents,
			TotalExams:        b.TotalExams,
			StudentsTookExams: b.StudentsTookExams,
			AvgScore:          b.AvgScore,
			PassRate:          b.PassRate,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// StudentsByTrack — GET /api/dashboard/students-by-track.
func (h *DashboardHandler) StudentsByTrack(w http.ResponseWriter, r *http.Request) {
	tracks, err := h.reports.StudentsByTrack(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	resp := make([]trackStatsResponse, 0, len(tracks))
	for _, t := range tracks {
		resp = append(resp, trackStatsResponse{
			TrackID:          t.TrackID,
			TrackName:        t.TrackName,
			TotalStudents:    t.TotalStudents,
			BranchesOffering: t.BranchesOffering,
			TotalExams:       t.TotalExams,
			CoursesWithExams: t.CoursesWithExams,
			AvgScore:         t.AvgScore,
			PassRate:         t.PassRate,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// SystemHealth — GET /api/dashboard/system-health.
func (h *DashboardHandler) SystemHealth(w http.ResponseWriter, r *http.Request) {
	s, err := h.reports.SystemHealth(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, systemHealthResponse{
		StudentsNeedingCorrective: s.StudentsNeedingCorrective,
		ExamsLowPassRate:          s.ExamsLowPassRate,
		UpcomingExams7Days:        s.UpcomingExams7Days,
		StudentsNoSubmissions:     s.StudentsNoSubmissions,
	})
}

// ExamPerformance — GET /api/dashboard/exam-performance-summary.
func (h *DashboardHandler) ExamPerformance(w http.ResponseWriter, r *http.Request) {
	p, err := h.reports.ExamPerformance(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, examPerformanceResponse{
		TotalAttempts: p.TotalAttempts,
		Passed:        p.Passed,
		Failed:        p.Failed,
		PassRate:      p.PassRate,
		AvgPercentage: p.AvgPercentage,
		MinPercentage: p.MinPercentage,
		MaxPercentage: p.MaxPercentage,
	})
}

// parseLimit читает параметр limit. Отсутствующий параметр даёт 0,
// сервис подставит значение по умолчанию. Нечисловой — 400.
func parseLimit(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil {
		apierrors.ValidationError(w, "limit must be an integer")
		return 0, false
	}
	return limit, true
}
