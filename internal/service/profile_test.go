package service

import (
	"context"
	"errors"
	"testing"

	"github.com/Salama0/ITI-Examination-System/internal/domain/model"
)

type fakeInstructorRepo struct {
	err     error
	gotID   int64
	courses []*model.InstructorCourse
}

func (r *fakeInstructorRepo) Courses(_ context.Context, instructorID int64) ([]*model.InstructorCourse, error) {
	r.gotID = instructorID
	return r.courses, r.err
}

func (r *fakeInstructorRepo) Exams(_ context.Context, instructorID int64) ([]*model.InstructorExam, error) {
	r.gotID = instructorID
	return nil, r.err
}

type fakeStudentRepo struct {
	err      error
	gotEmail string
	gotID    int64
}

func (r *fakeStudentRepo) Grades(_ context.Context, email string) ([]*model.StudentGrade, error) {
	r.gotEmail = email
	if r.err != nil {
		return nil, r.err
	}
	return []*model.StudentGrade{{StudentName: "Mona", Status: "Pass"}}, nil
}

func (r *fakeStudentRepo) UpcomingExams(_ context.Context, studentID int64) ([]*model.UpcomingExam, error) {
	r.gotID = studentID
	return nil, r.err
}

func TestInstructorService(t *testing.T) {
	ctx := context.Background()
	instructor := &model.Identity{UserID: 2, Role: "Instructor", InstructorID: int64Ptr(20)}

	repo := &fakeInstructorRepo{courses: []*model.InstructorCourse{{CourseID: 1, CourseName: "Go"}}}
	svc := NewInstructorService(repo, discardLogger())

	courses, err := svc.Courses(ctx, instructor)
	if err != nil {
		t.Fatalf("Courses: %v", err)
	}
	if repo.gotID != 20 || len(courses) != 1 {
		t.Errorf("instructor_id = %d, курсов %d; хотели 20 и 1", repo.gotID, len(courses))
	}

	exams, err := svc.Exams(ctx, instructor)
	if err != nil {
		t.Fatalf("Exams: %v", err)
	}
	if exams == nil {
		t.Error("ожидается пустой срез, не nil")
	}

	noProfile := &model.Identity{UserID: 5, Role: "Instructor"}
	if _, err := svc.Courses(ctx, noProfile); !errors.Is(err, ErrProfileIncomplete) {
		t.Errorf("Courses без профиля: %v, хотели ErrProfileIncomplete", err)
	}
	if _, err := svc.Exams(ctx, noProfile); !errors.Is(err, ErrProfileIncomplete) {
		t.Errorf("Exams без профиля: %v, хотели ErrProfileIncomplete", err)
	}

	repo.err = errors.New("connection refused")
	if _, err := svc.Exams(ctx, instructor); !errors.Is(err, ErrUpstreamUnavailable) {
		t.Errorf("Exams при сбое: %v, хотели ErrUpstreamUnavailable", err)
	}
}

func TestStudentService(t *testing.T) {
	ctx := context.Background()
	student := &model.Identity{UserID: 3, Email: "mona@x.com", Role: "Student", StudentID: int64Ptr(1)}

	repo := &fakeStudentRepo{}
	svc := NewStudentService(repo, discardLogger())

	grades, err := svc.Grades(ctx, student)
	if err != nil {
		t.Fatalf("Grades: %v", err)
	}
	if repo.gotEmail != "mona@x.com" || len(grades) != 1 {
		t.Errorf("email = %q, оценок %d; хотели mona@x.com и 1", repo.gotEmail, len(grades))
	}

	upcoming, err := svc.UpcomingExams(ctx, student)
	if err != nil {
		t.Fatalf("UpcomingExams: %v", err)
	}
	if repo.gotID != 1 || upcoming == nil {
		t.Errorf("student_id = %d, upcoming = %v; хотели 1 и пустой срез", repo.gotID, upcoming)
	}

	noProfile := &model.Identity{UserID: 6, Email: "x@x.com", Role: "Student"}
	if _, err := svc.UpcomingExams(ctx, noProfile); !errors.Is(err, ErrProfileIncomplete) {
		t.Errorf("UpcomingExams без профиля: %v, хотели ErrProfileIncomplete", err)
	}

	repo.err = errors.New("timeout")
	if _, err := svc.Grades(ctx, student); !errors.Is(err, ErrUpstreamUnavailable) {
		t.Errorf("Grades при сбое: %v, хотели ErrUpstreamUnavailable", err)
	}
}
