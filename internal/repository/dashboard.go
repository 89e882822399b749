package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Salama0/ITI-Examination-System/internal/domain/model"
)

// DashboardRepository — агрегаты для dashboard руководителя.
// Значения возвращаются без округления.
type DashboardRepository interface {
	// SystemStats — сводная статистика через sp_manager_get_system_dashboard.
	SystemStats(ctx context.Context) (*model.DashboardStats, error)
	// SystemStatsDirect — та же статистика прямыми запросами в одной транзакции.
	SystemStatsDirect(ctx context.Context) (*model.DashboardStats, error)
	// RecentExams — экзамены за последние 30 дней, новые первыми.
	RecentExams(ctx context.Context, limit int) ([]*model.RecentExam, error)
	// TopPerformers — студенты с наибольшим средним баллом (от двух сдач).
	TopPerformers(ctx context.Context, limit int) ([]*model.TopPerformer, error)
	// StudentsByBranch — статистика филиалов по текущему набору.
	StudentsByBranch(ctx context.Context) ([]*model.BranchStats, error)
	// StudentsByTrack — статистика направлений по текущему набору.
	StudentsByTrack(ctx context.Context) ([]*model.TrackStats, error)
	// SystemHealth — индикаторы проблемных зон.
	SystemHealth(ctx context.Context) (*model.SystemHealth, error)
	// ExamPerformance — агрегат по всем сдачам.
	ExamPerformance(ctx context.Context) (*model.ExamPerformanceSummary, error)
}

// dashboardRepo — реализация DashboardRepository.
type dashboardRepo struct {
	db DBTX
	tx *TxRunner
}

// NewDashboardRepository создаёт репозиторий dashboard.
// tx используется для SystemStatsDirect; если nil, запросы идут напрямую через db.
func NewDashboardRepository(db DBTX, tx *TxRunner) DashboardRepository {
	return &dashboardRepo{db: db, tx: tx}
}

// Текущий набор — intake с максимальным идентификатором.
const currentIntakeCTE = `WITH cur AS (SELECT MAX(intake_id) AS intake_id FROM intake)`

func (r *dashboardRepo) SystemStats(ctx context.Context) (*model.DashboardStats, error) {
	query := `SELECT total_students, current_intake_students, total_instructors, total_courses,
			total_branches, total_tracks, total_exams, current_intake_exams, normal_exams,
			corrective_exams, total_submissions, overall_avg_score, total_passes, total_failures,
			overall_pass_rate, active_students, graduated_students, withdrawn_students,
			current_intake_year
		FROM sp_manager_get_system_dashboard()`

	s := &model.DashboardStats{}
	err := r.db.QueryRow(ctx, query).Scan(
		&s.TotalStudents, &s.CurrentIntakeStudents, &s.TotalInstructors, &s.TotalCourses,
		&s.TotalBranches, &s.TotalTracks, &s.TotalExams, &s.CurrentIntakeExams, &s.NormalExams,
		&s.CorrectiveExams, &s.TotalSubmissions, &s.OverallAvgScore, &s.TotalPasses, &s.TotalFailures,
		&s.OverallPassRate, &s.ActiveStudents, &s.GraduatedStudents, &s.WithdrawnStudents,
		&s.CurrentIntakeYear,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, wrapRoutineError("ошибка вызова sp_manager_get_system_dashboard", err)
	}
	return s, nil
}

func (r *dashboardRepo) SystemStatsDirect(ctx context.Context) (*model.DashboardStats, error) {
	if r.tx == nil {
		return systemStatsDirect(ctx, r.db)
	}

	var stats *model.DashboardStats
	err := r.tx.RunReadOnly(ctx, func(tx pgx.Tx) error {
		var err error
		stats, err = systemStatsDirect(ctx, tx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// systemStatsDirect собирает сводную статистику отдельными запросами.
func systemStatsDirect(ctx context.Context, db DBTX) (*model.DashboardStats, error) {
	s := &model.DashboardStats{}

	var maxIntake *int64
	if err := db.QueryRow(ctx, `SELECT MAX(intake_id) FROM intake`).Scan(&maxIntake); err != nil {
		return nil, fmt.Errorf("ошибка получения текущего набора: %w", err)
	}

	err := db.QueryRow(ctx, `SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE intake_id = $1),
			COUNT(*) FILTER (WHERE status = 'Student'),
			COUNT(*) FILTER (WHERE status = 'Graduated'),
			COUNT(*) FILTER (WHERE status = 'Withdrawn')
		FROM student`, maxIntake).Scan(
		&s.TotalStudents, &s.CurrentIntakeStudents,
		&s.ActiveStudents, &s.GraduatedStudents, &s.WithdrawnStudents,
	)
	if err != nil {
		return nil, fmt.Errorf("ошибка подсчёта студентов: %w", err)
	}

	err = db.QueryRow(ctx, `SELECT
			(SELECT COUNT(*) FROM instructor),
			(SELECT COUNT(*) FROM course),
			(SELECT COUNT(*) FROM branch),
			(SELECT COUNT(*) FROM track)`).Scan(
		&s.TotalInstructors, &s.TotalCourses, &s.TotalBranches, &s.TotalTracks,
	)
	if err != nil {
		return nil, fmt.Errorf("ошибка подсчёта справочников: %w", err)
	}

	err = db.QueryRow(ctx, `SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE intake_id = $1),
			COUNT(*) FILTER (WHERE NOT corrective),
			COUNT(*) FILTER (WHERE corrective)
		FROM exam`, maxIntake).Scan(
		&s.TotalExams, &s.CurrentIntakeExams, &s.NormalExams, &s.CorrectiveExams,
	)
	if err != nil {
		return nil, fmt.Errorf("ошибка подсчёта экзаменов: %w", err)
	}

	err = db.QueryRow(ctx, `SELECT
			COUNT(*),
			AVG(percentage)::DOUBLE PRECISION,
			COUNT(*) FILTER (WHERE pass_status),
			COUNT(*) FILTER (WHERE pass_status = FALSE)
		FROM student_grades`).Scan(
		&s.TotalSubmissions, &s.OverallAvgScore, &s.TotalPasses, &s.TotalFailures,
	)
	if err != nil {
		return nil, fmt.Errorf("ошибка подсчёта сдач: %w", err)
	}
	if s.TotalSubmissions > 0 {
		s.OverallPassRate = float64(s.TotalPasses) / float64(s.TotalSubmissions) * 100
	}

	if maxIntake != nil {
		var year int64
		err = db.QueryRow(ctx, `SELECT intake_year::BIGINT FROM intake WHERE intake_id = $1`, *maxIntake).Scan(&year)
		switch {
		case err == nil:
			s.CurrentIntakeYear = &year
		case !errors.Is(err, pgx.ErrNoRows):
			return nil, fmt.Errorf("ошибка получения года набора: %w", err)
		}
	}

	return s, nil
}

func (r *dashboardRepo) RecentExams(ctx context.Context, limit int) ([]*model.RecentExam, error) {
	query := `SELECT
			e.ex_id,
			COALESCE(c.crs_name, 'Unknown Course'),
			e.exam_date,
			COALESCE(i.inst_name, 'Unknown'),
			COALESCE(t.track_name, 'Unknown'),
			COALESCE(b.bran_name, 'Unknown'),
			CASE WHEN e.corrective THEN 'Corrective' ELSE 'Normal' END,
			COUNT(DISTINCT g.st_id),
			AVG(g.percentage)::DOUBLE PRECISION,
			COUNT(*) FILTER (WHERE g.pass_status),
			COUNT(*) FILTER (WHERE g.pass_status = FALSE)
		FROM exam e
		LEFT JOIN course c ON c.crs_id = e.crs_id
		LEFT JOIN instructor i ON i.inst_id = e.inst_id
		LEFT JOIN track t ON t.track_id = e.track_id
		LEFT JOIN branch b ON b.bran_id = e.bran_id
		LEFT JOIN student_grades g ON g.ex_id = e.ex_id
		WHERE e.exam_date >= CURRENT_DATE - 30
		GROUP BY e.ex_id, c.crs_name, e.exam_date, i.inst_name, t.track_name, b.bran_name, e.corrective
		ORDER BY e.exam_date DESC, e.ex_id DESC
		LIMIT $1`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения последних экзаменов: %w", err)
	}
	defer rows.Close()

	var result []*model.RecentExam
	for rows.Next() {
		e := &model.RecentExam{}
		if err := rows.Scan(
			&e.ExamID, &e.CourseName, &e.ExamDate, &e.InstructorName, &e.TrackName,
			&e.BranchName, &e.ExamType, &e.Submissions, &e.AvgScore, &e.Passed, &e.Failed,
		); err != nil {
			return nil, fmt.Errorf("ошибка сканирования экзамена: %w", err)
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

func (r *dashboardRepo) TopPerformers(ctx context.Context, limit int) ([]*model.TopPerformer, error) {
	query := `SELECT
			s.st_id,
			s.st_name,
			t.track_name,
			AVG(sg.percentage)::DOUBLE PRECISION,
			COUNT(sg.ex_id)
		FROM student s
		LEFT JOIN track t ON t.track_id = s.track_id
		JOIN student_grades sg ON sg.st_id = s.st_id
		GROUP BY s.st_id, s.st_name, t.track_name
		HAVING COUNT(sg.ex_id) >= 2
		ORDER BY AVG(sg.percentage) DESC NULLS LAST, s.st_id
		LIMIT $1`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения лучших студентов: %w", err)
	}
	defer rows.Close()

	var result []*model.TopPerformer
	for rows.Next() {
		p := &model.TopPerformer{}
		var avg *float64
		if err := rows.Scan(&p.ID, &p.Name, &p.Track, &avg, &p.ExamsTaken); err != nil {
			return nil, fmt.Errorf("ошибка сканирования студента: %w", err)
		}
		if avg != nil {
			p.AvgGrade = *avg
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

func (r *dashboardRepo) StudentsByBranch(ctx context.Context) ([]*model.BranchStats, error) {
	query := currentIntakeCTE + `
		SELECT
			b.bran_id,
			b.bran_name,
			b.location,
			(SELECT COUNT(*) FROM student s
			  WHERE s.bran_id = b.bran_id AND s.intake_id = cur.intake_id),
			(SELECT COUNT(*) FROM student s
			  WHERE s.bran_id = b.bran_id AND s.intake_id = cur.intake_id AND s.status = 'Student'),
			(SELECT COUNT(*) FROM student s
			  WHERE s.bran_id = b.bran_id AND s.intake_id = cur.intake_id AND s.status = 'Graduated'),
			(SELECT COUNT(*) FROM exam e
			  WHERE e.bran_id = b.bran_id AND e.intake_id = cur.intake_id),
			gs.students_took,
			gs.avg_score,
			gs.pass_rate
		FROM branch b
		CROSS JOIN cur
		LEFT JOIN LATERAL (
			SELECT
				COUNT(DISTINCT g.st_id) AS students_took,
				AVG(g.percentage)::DOUBLE PRECISION AS avg_score,
				(CASE WHEN COUNT(g.st_id) > 0
				      THEN COUNT(*) FILTER (WHERE g.pass_status) * 100.0 / COUNT(g.st_id)
				      ELSE 0 END)::DOUBLE PRECISION AS pass_rate
			FROM exam e
			JOIN student_grades g ON g.ex_id = e.ex_id
			WHERE e.bran_id = b.bran_id AND e.intake_id = cur.intake_id
		) gs ON TRUE
		ORDER BY b.bran_name`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения статистики филиалов: %w", err)
	}
	defer rows.Close()

	var result []*model.BranchStats
	for rows.Next() {
		b := &model.BranchStats{}
		if err := rows.Scan(
			&b.BranchID, &b.BranchName, &b.Location, &b.TotalStudents, &b.ActiveStudents,
			&b.GraduatedStudents, &b.TotalExams, &b.StudentsTookExams, &b.AvgScore, &b.PassRate,
		); err != nil {
			return nil, fmt.Errorf("ошибка сканирования филиала: %w", err)
		}
		result = append(result, b)
	}
	return result, rows.Err()
}

func (r *dashboardRepo) StudentsByTrack(ctx context.Context) ([]*model.TrackStats, error) {
	query := currentIntakeCTE + `
		SELECT
			t.track_id,
			t.track_name,
			(SELECT COUNT(*) FROM student s
			  WHERE s.track_id = t.track_id AND s.intake_id = cur.intake_id),
			(SELECT COUNT(DISTINCT s.bran_id) FROM student s
			  WHERE s.track_id = t.track_id AND s.intake_id = cur.intake_id),
			(SELECT COUNT(*) FROM exam e
			  WHERE e.track_id = t.track_id AND e.intake_id = cur.intake_id),
			(SELECT COUNT(DISTINCT e.crs_id) FROM exam e
			  WHERE e.track_id = t.track_id AND e.intake_id = cur.intake_id),
			gs.avg_score,
			gs.pass_rate
		FROM track t
		CROSS JOIN cur
		LEFT JOIN LATERAL (
			SELECT
				AVG(g.percentage)::DOUBLE PRECISION AS avg_score,
				(CASE WHEN COUNT(g.st_id) > 0
				      THEN COUNT(*) FILTER (WHERE g.pass_status) * 100.0 / COUNT(g.st_id)
				      ELSE 0 END)::DOUBLE PRECISION AS pass_rate
			FROM exam e
			JOIN student_grades g ON g.ex_id = e.ex_id
			WHERE e.track_id = t.track_id AND e.intake_id = cur.intake_id
		) gs ON TRUE
		ORDER BY t.track_name`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения статистики направлений: %w", err)
	}
	defer rows.Close()

	var result []*model.TrackStats
	for rows.Next() {
		t := &model.TrackStats{}
		if err := rows.Scan(
			&t.TrackID, &t.TrackName, &t.TotalStudents, &t.BranchesOffering,
			&t.TotalExams, &t.CoursesWithExams, &t.AvgScore, &t.PassRate,
		); err != nil {
			return nil, fmt.Errorf("ошибка сканирования направления: %w", err)
		}
		result = append(result, t)
	}
	return result, rows.Err()
}

func (r *dashboardRepo) SystemHealth(ctx context.Context) (*model.SystemHealth, error) {
	query := currentIntakeCTE + `
		SELECT
			(SELECT COUNT(DISTINCT g.st_id)
			   FROM student_grades g
			   JOIN exam e ON e.ex_id = g.ex_id
			  WHERE g.pass_status = FALSE AND NOT e.corrective AND e.intake_id = cur.intake_id),
			(SELECT COUNT(*) FROM (
				SELECT e.ex_id
				  FROM exam e
				  JOIN student_grades g ON g.ex_id = e.ex_id
				 WHERE e.intake_id = cur.intake_id
				 GROUP BY e.ex_id
				HAVING COUNT(*) FILTER (WHERE g.pass_status) * 100.0 / COUNT(g.st_id) < 60
			) low),
			(SELECT COUNT(*) FROM exam
			  WHERE exam_date BETWEEN CURRENT_DATE AND CURRENT_DATE + 7),
			(SELECT COUNT(*) FROM student s
			  WHERE s.intake_id = cur.intake_id
			    AND NOT EXISTS (SELECT 1 FROM student_grades g WHERE g.st_id = s.st_id))
		FROM cur`

	h := &model.SystemHealth{}
	err := r.db.QueryRow(ctx, query).Scan(
		&h.StudentsNeedingCorrective, &h.ExamsLowPassRate,
		&h.UpcomingExams7Days, &h.StudentsNoSubmissions,
	)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения индикаторов: %w", err)
	}
	return h, nil
}

func (r *dashboardRepo) ExamPerformance(ctx context.Context) (*model.ExamPerformanceSummary, error) {
	query := `SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE pass_status),
			COUNT(*) FILTER (WHERE pass_status = FALSE),
			AVG(percentage)::DOUBLE PRECISION,
			MIN(percentage)::DOUBLE PRECISION,
			MAX(percentage)::DOUBLE PRECISION
		FROM student_grades`

	s := &model.ExamPerformanceSummary{}
	var avg, minPct, maxPct *float64
	err := r.db.QueryRow(ctx, query).Scan(&s.TotalAttempts, &s.Passed, &s.Failed, &avg, &minPct, &maxPct)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения сводки по сдачам: %w", err)
	}
	if s.TotalAttempts > 0 {
		s.PassRate = float64(s.Passed) / float64(s.TotalAttempts) * 100
	}
	if avg != nil {
		s.AvgPercentage = *avg
	}
	if minPct != nil {
		s.MinPercentage = *minPct
	}
	if maxPct != nil {
		s.MaxPercentage = *maxPct
	}
	return s, nil
}
