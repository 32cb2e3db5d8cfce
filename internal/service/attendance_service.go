package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/siga-api/internal/models"
	appErrors "github.com/noah-isme/siga-api/pkg/errors"
)

type attendanceRepository interface {
	Upsert(ctx context.Context, record *models.AttendanceRecord) (*models.AttendanceRecord, error)
	ListBySection(ctx context.Context, sectionID string, date *time.Time) ([]models.AttendanceRow, error)
	Summary(ctx context.Context, detailID string) (*models.AttendanceSummary, error)
	ReplaceWithSummary(ctx context.Context, detailID string, presents, absents, lates int) error
}

type attendanceEnrollmentRepository interface {
	FindDetailByID(ctx context.Context, id string) (*models.EnrollmentDetail, error)
}

type attendanceSectionRepository interface {
	FindByID(ctx context.Context, id string) (*models.SectionOffering, error)
}

// SetAttendanceRequest marks one student's presence on one date.
type SetAttendanceRequest struct {
	DetailID      string  `json:"detail_id" validate:"required,uuid4"`
	Date          string  `json:"date" validate:"required,datetime=2006-01-02"`
	Status        string  `json:"status" validate:"required,oneof=PRESENT ABSENT LATE"`
	Justification *string `json:"justification"`
	Attachment    *string `json:"attachment"`
}

// SetAttendanceSummaryRequest replaces a detail's whole attendance history
// with synthetic dated rows matching the given counts.
type SetAttendanceSummaryRequest struct {
	Presents int `json:"presents" validate:"gte=0"`
	Absents  int `json:"absents" validate:"gte=0"`
	Lates    int `json:"lates" validate:"gte=0"`
}

// AttendanceService records presence and derives attendance percentages. The
// percentage is never stored; it is computed from the counts on every read.
type AttendanceService struct {
	repo        attendanceRepository
	enrollments attendanceEnrollmentRepository
	sections    attendanceSectionRepository
	cache       *CacheService
	minPercent  float64
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewAttendanceService creates an AttendanceService.
func NewAttendanceService(repo attendanceRepository, enrollments attendanceEnrollmentRepository, sections attendanceSectionRepository, cache *CacheService, minPercent float64, validate *validator.Validate, logger *zap.Logger) *AttendanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if minPercent <= 0 {
		minPercent = models.MinAttendancePercentDefault
	}
	return &AttendanceService{repo: repo, enrollments: enrollments, sections: sections, cache: cache, minPercent: minPercent, validator: validate, logger: logger}
}

// Set records or corrects one presence entry. Writing the same (detail, date)
// twice keeps a single row with the latest status.
func (s *AttendanceService) Set(ctx context.Context, professorID string, req SetAttendanceRequest) (*models.AttendanceRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid date format")
	}

	if err := s.authorizeDetail(ctx, req.DetailID, professorID); err != nil {
		return nil, err
	}

	record := &models.AttendanceRecord{
		DetailID:      req.DetailID,
		Date:          date,
		Status:        models.AttendanceStatus(req.Status),
		Justification: req.Justification,
		Attachment:    req.Attachment,
	}

	saved, err := s.repo.Upsert(ctx, record)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save attendance")
	}

	s.invalidateReports(ctx)
	return saved, nil
}

// ListBySection returns a section's attendance rows, optionally for one date.
func (s *AttendanceService) ListBySection(ctx context.Context, sectionID, professorID string, date *time.Time) ([]models.AttendanceRow, error) {
	section, err := s.sections.FindByID(ctx, sectionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "section not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section")
	}
	if professorID != "" && section.ProfessorID != professorID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "section is not taught by caller")
	}

	rows, err := s.repo.ListBySection(ctx, sectionID, date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance")
	}
	return rows, nil
}

// Summary returns the aggregated counts for one registration with the
// derived percentage and at-risk flag.
func (s *AttendanceService) Summary(ctx context.Context, detailID string) (*models.AttendanceSummary, error) {
	if _, err := s.enrollments.FindDetailByID(ctx, detailID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "registration not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load registration")
	}

	summary, err := s.repo.Summary(ctx, detailID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance summary")
	}

	summary.Percent = summary.ComputePercent()
	summary.AtRisk = summary.Total > 0 && summary.Percent < s.minPercent
	return summary, nil
}

// SetSummary replaces the detail's attendance history with synthetic dated
// rows matching the requested counts, then returns the fresh summary. Used by
// staff to backfill a known tally when per-date records were kept on paper.
func (s *AttendanceService) SetSummary(ctx context.Context, detailID, professorID string, req SetAttendanceSummaryRequest) (*models.AttendanceSummary, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance summary payload")
	}

	if err := s.authorizeDetail(ctx, detailID, professorID); err != nil {
		return nil, err
	}

	if err := s.repo.ReplaceWithSummary(ctx, detailID, req.Presents, req.Absents, req.Lates); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to rewrite attendance")
	}

	s.invalidateReports(ctx)
	return s.Summary(ctx, detailID)
}

func (s *AttendanceService) authorizeDetail(ctx context.Context, detailID, professorID string) error {
	detail, err := s.enrollments.FindDetailByID(ctx, detailID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "registration not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load registration")
	}

	if professorID == "" {
		return nil
	}

	section, err := s.sections.FindByID(ctx, detail.SectionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "section not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section")
	}
	if section.ProfessorID != professorID {
		return appErrors.Clone(appErrors.ErrForbidden, "section is not taught by caller")
	}
	return nil
}

func (s *AttendanceService) invalidateReports(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, "report:*"); err != nil {
		s.logger.Warn("failed to invalidate report cache after attendance write", zap.Error(err))
	}
}
