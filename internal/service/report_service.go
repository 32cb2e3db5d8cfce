package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/siga-api/internal/models"
	appErrors "github.com/noah-isme/siga-api/pkg/errors"
)

type reportRepository interface {
	CountActiveUsers(ctx context.Context, role models.UserRole) (int, error)
	GlobalGradeAverage(ctx context.Context, termID string) (float64, error)
	GlobalAttendancePercent(ctx context.Context, termID string) (float64, error)
	LowGradeCount(ctx context.Context, termID string, threshold float64) (int, error)
	LowAttendanceCount(ctx context.Context, termID string, threshold float64) (int, error)
	LowPerformanceAlerts(ctx context.Context, filter models.AlertFilter, threshold float64) ([]models.LowPerformanceAlert, error)
	LowAttendanceAlerts(ctx context.Context, filter models.AlertFilter, threshold float64) ([]models.LowAttendanceAlert, error)
	SectionReport(ctx context.Context, filter models.ReportFilter, passingAverage float64) ([]models.SectionReportRow, error)
}

type reportTermRepository interface {
	FindActive(ctx context.Context) (*models.Term, error)
	FindByID(ctx context.Context, id string) (*models.Term, error)
}

// ReportThresholds carries the pass and attendance cut lines used by every
// report query.
type ReportThresholds struct {
	PassingAverage       float64
	MinAttendancePercent float64
}

// ReportService assembles the director-facing aggregates. Results are cached
// under report:* keys; grade and attendance writes invalidate that pattern.
type ReportService struct {
	repo       reportRepository
	terms      reportTermRepository
	cache      *CacheService
	thresholds ReportThresholds
	logger     *zap.Logger
}

// NewReportService creates a ReportService.
func NewReportService(repo reportRepository, terms reportTermRepository, cache *CacheService, thresholds ReportThresholds, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if thresholds.PassingAverage <= 0 {
		thresholds.PassingAverage = models.PassingAverageDefault
	}
	if thresholds.MinAttendancePercent <= 0 {
		thresholds.MinAttendancePercent = models.MinAttendancePercentDefault
	}
	return &ReportService{repo: repo, terms: terms, cache: cache, thresholds: thresholds, logger: logger}
}

// Dashboard returns the landing aggregates for the given term, or for the
// active term when termID is empty.
func (s *ReportService) Dashboard(ctx context.Context, termID string) (*models.DashboardSummary, error) {
	term, err := s.resolveTerm(ctx, termID)
	if err != nil {
		return nil, err
	}

	cacheKey := fmt.Sprintf("report:dash:%s", term.ID)
	var cached models.DashboardSummary
	if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
		return &cached, nil
	}

	students, err := s.repo.CountActiveUsers(ctx, models.RoleStudent)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count students")
	}
	professors, err := s.repo.CountActiveUsers(ctx, models.RoleProfessor)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count professors")
	}
	average, err := s.repo.GlobalGradeAverage(ctx, term.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute global average")
	}
	attendance, err := s.repo.GlobalAttendancePercent(ctx, term.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute global attendance")
	}
	lowGrades, err := s.repo.LowGradeCount(ctx, term.ID, s.thresholds.PassingAverage)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count low grades")
	}
	lowAttendance, err := s.repo.LowAttendanceCount(ctx, term.ID, s.thresholds.MinAttendancePercent)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count low attendance")
	}

	summary := &models.DashboardSummary{
		ActiveStudents:    students,
		ActiveProfessors:  professors,
		GlobalAverage:     average,
		GlobalAttendance:  attendance,
		ActiveAlerts:      lowGrades + lowAttendance,
		LowGradeCount:     lowGrades,
		LowAttendanceRows: lowAttendance,
	}

	s.persist(ctx, cacheKey, summary)
	return summary, nil
}

// Alerts returns the low-grade and low-attendance groups for the given term,
// defaulting to the active one. A non-empty professorID scopes the alerts to
// that professor's sections.
func (s *ReportService) Alerts(ctx context.Context, termID, sectionID, professorID string) (*models.AlertsReport, error) {
	term, err := s.resolveTerm(ctx, termID)
	if err != nil {
		return nil, err
	}

	filter := models.AlertFilter{TermID: term.ID, SectionID: sectionID, ProfessorID: professorID}
	cacheKey := fmt.Sprintf("report:alerts:%s:%s:%s", term.ID, sectionID, professorID)
	var cached models.AlertsReport
	if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
		return &cached, nil
	}

	lowGrades, err := s.repo.LowPerformanceAlerts(ctx, filter, s.thresholds.PassingAverage)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list grade alerts")
	}
	lowAttendance, err := s.repo.LowAttendanceAlerts(ctx, filter, s.thresholds.MinAttendancePercent)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance alerts")
	}

	report := &models.AlertsReport{TermID: term.ID, LowGrades: lowGrades, LowAttendance: lowAttendance}
	s.persist(ctx, cacheKey, report)
	return report, nil
}

// Consolidated builds the per-section report with global aggregates for the
// given term, defaulting to the active one. Closed terms stay queryable since
// their PASSED/FAILED outcomes are kept.
func (s *ReportService) Consolidated(ctx context.Context, termID, professorID, subjectID string) (*models.ConsolidatedReport, error) {
	term, err := s.resolveTerm(ctx, termID)
	if err != nil {
		return nil, err
	}

	filter := models.ReportFilter{TermID: term.ID, ProfessorID: professorID, SubjectID: subjectID}
	cacheKey := fmt.Sprintf("report:consolidated:%s:%s:%s", term.ID, professorID, subjectID)
	var cached models.ConsolidatedReport
	if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
		return &cached, nil
	}

	sections, err := s.repo.SectionReport(ctx, filter, s.thresholds.PassingAverage)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build section report")
	}

	report := &models.ConsolidatedReport{TermID: term.ID, Sections: sections}
	var weightedSum float64
	var graded, passed, resolved int
	for _, row := range sections {
		report.TotalSubjects++
		report.TotalStudents += row.Students
		if row.Average != nil {
			weightedSum += *row.Average * float64(row.Students)
			graded += row.Students
		}
		passed += row.Passed
		resolved += row.Passed + row.Failed
	}
	if graded > 0 {
		report.GlobalAverage = weightedSum / float64(graded)
	}
	if resolved > 0 {
		report.PassRate = float64(passed) / float64(resolved) * 100
	}

	s.persist(ctx, cacheKey, report)
	return report, nil
}

func (s *ReportService) resolveTerm(ctx context.Context, termID string) (*models.Term, error) {
	if termID != "" {
		term, err := s.terms.FindByID(ctx, termID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "term not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load term")
		}
		return term, nil
	}

	term, err := s.terms.FindActive(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNoActiveTerm, "no active term")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load active term")
	}
	return term, nil
}

func (s *ReportService) persist(ctx context.Context, key string, value interface{}) {
	if err := s.cache.Set(ctx, key, value, 0); err != nil {
		s.logger.Warn("failed to cache report", zap.String("key", key), zap.Error(err))
	}
}
