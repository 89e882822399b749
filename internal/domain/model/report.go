package model

import "time"

// DashboardStats — сводная статистика системы для руководителя.
type DashboardStats struct {
	TotalStudents         int64
	CurrentIntakeStudents int64
	TotalInstructors      int64
	TotalCourses          int64
	TotalBranches         int64
	TotalTracks           int64

	TotalExams         int64
	CurrentIntakeExams int64
	NormalExams        int64
	CorrectiveExams    int64

	TotalSubmissions int64
	// OverallAvgScore — nil, если сдач ещё нет
	OverallAvgScore *float64
	TotalPasses     int64
	TotalFailures   int64
	OverallPassRate float64

	ActiveStudents    int64
	GraduatedStudents int64
	WithdrawnStudents int64

	CurrentIntakeYear *int64
}

// RecentExam — экзамен за последние 30 дней со статистикой сдач.
type RecentExam struct {
	ExamID         int64
	CourseName     string
	ExamDate       *time.Time
	InstructorName string
	TrackName      string
	BranchName     string
	ExamType       string
	Submissions    int64
	AvgScore       *float64
	Passed         int64
	Failed         int64
}

// TopPerformer — студент с высоким средним баллом (не менее двух сдач).
type TopPerformer struct {
	ID         int64
	Name       string
	Track      *string
	AvgGrade   float64
	ExamsTaken int64
}

// BranchStats — статистика филиала по текущему набору.
type BranchStats struct {
	BranchID          int64
	BranchName        string
	Location          *string
	TotalStudents     int64
	ActiveStudents    int64
	GraduatedStudents int64
	TotalExams        int64
	StudentsTookExams int64
	AvgScore          *float64
	PassRate          float64
}

// TrackStats — статистика направления по текущему набору.
type TrackStats struct {
	TrackID          int64
	TrackName        string
	TotalStudents    int64
	BranchesOffering int64
	TotalExams       int64
	CoursesWithExams int64
	AvgScore         *float64
	PassRate         float64
}

// SystemHealth — индикаторы проблемных зон учебного процесса.
type SystemHealth struct {
	StudentsNeedingCorrective int64
	ExamsLowPassRate          int64
	UpcomingExams7Days        int64
	StudentsNoSubmissions     int64
}

// ExamPerformanceSummary — агрегат по всем сдачам.
type ExamPerformanceSummary struct {
	TotalAttempts int64
	Passed        int64
	Failed        int64
	PassRate      float64
	AvgPercentage float64
	MinPercentage float64
	MaxPercentage float64
}
