// dashboard.go — отчёты dashboard руководителя.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Salama0/ITI-Examination-System/internal/domain/model"
	"github.com/Salama0/ITI-Examination-System/internal/repository"
)

// Границы параметра limit для списочных отчётов.
const (
	DefaultReportLimit = 5
	MaxReportLimit     = 100
)

var dashboardFallbackTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "exam_dashboard_fallback_total",
	Help: "Количество переходов на прямые запросы из-за отсутствия sp_manager_get_system_dashboard.",
})

// DashboardService — отчёты dashboard с кэшированием и округлением до одного знака.
type DashboardService struct {
	repo   repository.DashboardRepository
	cache  *ReportCache
	logger *slog.Logger
}

// NewDashboardService создаёт сервис dashboard.
func NewDashboardService(repo repository.DashboardRepository, cache *ReportCache, logger *slog.Logger) *DashboardService {
	return &DashboardService{
		repo:   repo,
		cache:  cache,
		logger: logger.With(slog.String("component", "dashboard_service")),
	}
}

// Stats возвращает сводную статистику.
// Прямые запросы используются только если хранимая функция отсутствует в БД;
// любая другая ошибка — ErrUpstreamUnavailable.
func (s *DashboardService) Stats(ctx context.Context) (*model.DashboardStats, error) {
	if v, ok := s.cache.Get("stats"); ok {
		return v.(*model.DashboardStats), nil
	}

	stats, err := s.repo.SystemStats(ctx)
	if errors.Is(err, repository.ErrRoutineMissing) {
		dashboardFallbackTotal.Inc()
		s.logger.Warn("Хранимая функция dashboard отсутствует, используются прямые запросы",
			slog.String("error", err.Error()),
		)
		stats, err = s.repo.SystemStatsDirect(ctx)
	}
	if err != nil {
		return nil, s.upstream("stats", err)
	}

	stats.OverallAvgScore = round1Ptr(stats.OverallAvgScore)
	stats.OverallPassRate = round1(stats.OverallPassRate)

	s.cache.Set("stats", stats)
	return stats, nil
}

// RecentExams возвращает экзамены за последние 30 дней.
func (s *DashboardService) RecentExams(ctx context.Context, limit int) ([]*model.RecentExam, error) {
	limit = ClampLimit(limit)
	key := fmt.Sprintf("recent-exams:%d", limit)
	if v, ok := s.cache.Get(key); ok {
		return v.([]*model.RecentExam), nil
	}

	exams, err := s.repo.RecentExams(ctx, limit)
	if err != nil {
		return nil, s.upstream(key, err)
	}
	if exams == nil {
		exams = []*model.RecentExam{}
	}
	for _, e := range exams {
		e.AvgScore = round1Ptr(e.AvgScore)
	}

	s.cache.Set(key, exams)
	return exams, nil
}

// TopPerformers возвращает лучших студентов.
func (s *DashboardService) TopPerformers(ctx context.Context, limit int) ([]*model.TopPerformer, error) {
	limit = ClampLimit(limit)
	key := fmt.Sprintf("top-performers:%d", limit)
	if v, ok := s.cache.Get(key); ok {
		return v.([]*model.TopPerformer), nil
	}

	top, err := s.repo.TopPerformers(ctx, limit)
	if err != nil {
		return nil, s.upstream(key, err)
	}
	if top == nil {
		top = []*model.TopPerformer{}
	}
	for _, p := range top {
		p.AvgGrade = round1(p.AvgGrade)
	}

	s.cache.Set(key, top)
	return top, nil
}

// StudentsByBranch возвращает статистику филиалов.
func (s *DashboardService) StudentsByBranch(ctx context.Context) ([]*model.BranchStats, error) {
	const key = "students-by-branch"
	if v, ok := s.cache.Get(key); ok {
		return v.([]*model.BranchStats), nil
	}

	branches, err := s.repo.StudentsByBranch(ctx)
	if err != nil {
		return nil, s.upstream(key, err)
	}
	if branches == nil {
		branches = []*model.BranchStats{}
	}
	for _, b := range branches {
		b.AvgScore = round1Ptr(b.AvgScore)
		b.PassRate = round1(b.PassRate)
	}

	s.cache.Set(key, branches)
	return branches, nil
}

// StudentsByTrack возвращает статистику направлений.
func (s *DashboardService) StudentsByTrack(ctx context.Context) ([]*model.TrackStats, error) {
	const key = "students-by-track"
	if v, ok := s.cache.Get(key); ok {
		return v.([]*model.TrackStats), nil
	}

	tracks, err := s.repo.StudentsByTrack(ctx)
	if err != nil {
		return nil, s.upstream(key, err)
	}
	if tracks == nil {
		tracks = []*model.TrackStats{}
	}
	for _, t := range tracks {
		t.AvgScore = round1Ptr(t.AvgScore)
		t.PassRate = round1(t.PassRate)
	}

	s.cache.Set(key, tracks)
	return tracks, nil
}

// SystemHealth возвращает индикаторы проблемных зон.
func (s *DashboardService) SystemHealth(ctx context.Context) (*model.SystemHealth, error) {
	const key = "system-health"
	if v, ok := s.cache.Get(key); ok {
		return v.(*model.SystemHealth), nil
	}

	h, err := s.repo.SystemHealth(ctx)
	if err != nil {
		return nil, s.upstream(key, err)
	}

	s.cache.Set(key, h)
	return h, nil
}

// ExamPerformance возвращает сводку по всем сдачам.
func (s *DashboardService) ExamPerformance(ctx context.Context) (*model.ExamPerformanceSummary, error) {
	const key = "exam-performance-summary"
	if v, ok := s.cache.Get(key); ok {
		return v.(*model.ExamPerformanceSummary), nil
	}

	p, err := s.repo.ExamPerformance(ctx)
	if err != nil {
		return nil, s.upstream(key, err)
	}
	p.PassRate = round1(p.PassRate)
	p.AvgPercentage = round1(p.AvgPercentage)
	p.MinPercentage = round1(p.MinPercentage)
	p.MaxPercentage = round1(p.MaxPercentage)

	s.cache.Set(key, p)
	return p, nil
}

// ClampLimit приводит limit к диапазону 1..MaxReportLimit.
// Неположительное значение заменяется на DefaultReportLimit.
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultReportLimit
	case limit > MaxReportLimit:
		return MaxReportLimit
	default:
		return limit
	}
}

// upstream логирует ошибку отчёта и оборачивает её в ErrUpstreamUnavailable.
func (s *DashboardService) upstream(report string, err error) error {
	s.logger.Error("Ошибка получения отчёта",
		slog.String("report", report),
		slog.String("error", err.Error()),
	)
	return fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
}

// round1 округляет до одного знака после запятой.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round1Ptr(v *float64) *float64 {
	if v == nil {
		return nil
	}
	r := round1(*v)
	return &r
}
