package model

import "time"

// InstructorCourse — курс, закреплённый за преподавателем.
type InstructorCourse struct {
	CourseID             int64
	CourseName           string
	CourseDescription    *string
	TrackID              int64
	TrackName            string
	BranchID             int64
	BranchName           string
	IntakeYear           int64
	Department           *string
	ExamsCreated         int64
	NormalExams          int64
	CorrectiveExams      int64
	TotalStudentsInTrack int64
}

// InstructorExam — экзамен преподавателя со статистикой сдач.
type InstructorExam struct {
	ExamID                   int64
	CourseName               string
	ExamDate                 *time.Time
	StartTime                *string
	EndTime                  *string
	ExamType                 string
	TrackName                string
	BranchName               string
	IntakeYear               int64
	TotalStudentsInTrack     int64
	StudentsWhoSubmitted     int64
	StudentsNotSubmitted     int64
	TotalSubmissions         int64
	PassedCount              int64
	FailedCount              int64
	SubmissionRatePercentage *float64
	AverageScore             *float64
	// ExamStatus — Upcoming, In Progress, Completed
	ExamStatus string
}

// StudentGrade — оценка студента за экзамен.
type StudentGrade struct {
	StudentName string
	CourseName  string
	ExamType    string
	ExamDate    *time.Time
	// Grade — буквенная оценка (A, B, C...)
	Grade      *string
	Status     string
	IntakeYear int64
	TrackName  *string
	BranchName *string
}

// UpcomingExam — экзамен студента с состоянием сдачи.
type UpcomingExam struct {
	ExamID             int64
	CourseName         string
	CourseDescription  *string
	ExamDate           *time.Time
	StartTime          *string
	EndTime            *string
	ExamType           string
	InstructorName     string
	DaysUntilExam      *int64
	HoursUntilStart    *int64
	SubmissionStatus   string
	MyScore            *float64
	MyGrade            *string
	Result             *string
	AvailabilityStatus string
	CanTakeExam        bool
}
