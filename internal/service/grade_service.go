package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/siga-api/internal/models"
	appErrors "github.com/noah-isme/siga-api/pkg/errors"
)

type gradeRepository interface {
	FindByDetail(ctx context.Context, detailID string) (*models.GradeRecord, error)
	Upsert(ctx context.Context, record *models.GradeRecord) (*models.GradeRecord, error)
	ListBySection(ctx context.Context, sectionID string) ([]models.GradeRow, error)
	ListByStudent(ctx context.Context, studentID, termID string) ([]models.StudentGrade, error)
}

type gradeEnrollmentRepository interface {
	FindDetailByID(ctx context.Context, id string) (*models.EnrollmentDetail, error)
}

type gradeSectionRepository interface {
	FindByID(ctx context.Context, id string) (*models.SectionOffering, error)
}

type gradeTermRepository interface {
	FindActive(ctx context.Context) (*models.Term, error)
}

// GradeService records category scores and keeps the derived average in step
// with them. Scores arrive as partial updates: absent categories keep their
// stored value, so two professors updating different categories never clobber
// each other.
type GradeService struct {
	repo           gradeRepository
	enrollments    gradeEnrollmentRepository
	sections       gradeSectionRepository
	terms          gradeTermRepository
	cache          *CacheService
	passingAverage float64
	validator      *validator.Validate
	logger         *zap.Logger
}

// NewGradeService creates a GradeService.
func NewGradeService(repo gradeRepository, enrollments gradeEnrollmentRepository, sections gradeSectionRepository, terms gradeTermRepository, cache *CacheService, passingAverage float64, validate *validator.Validate, logger *zap.Logger) *GradeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if passingAverage <= 0 {
		passingAverage = models.PassingAverageDefault
	}
	return &GradeService{repo: repo, enrollments: enrollments, sections: sections, terms: terms, cache: cache, passingAverage: passingAverage, validator: validate, logger: logger}
}

// Upsert merges the partial update into the stored record, recomputes the
// average and persists both in one statement. professorID must teach the
// detail's section unless empty (staff caller).
func (s *GradeService) Upsert(ctx context.Context, detailID, professorID string, update models.GradeUpdate) (*models.GradeRecord, error) {
	if err := s.validator.Struct(update); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grade payload")
	}

	detail, err := s.enrollments.FindDetailByID(ctx, detailID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "registration not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load registration")
	}

	if professorID != "" {
		section, err := s.sections.FindByID(ctx, detail.SectionID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "section not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section")
		}
		if section.ProfessorID != professorID {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "section is not taught by caller")
		}
	}

	record, err := s.repo.FindByDetail(ctx, detailID)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grades")
		}
		record = &models.GradeRecord{ID: uuid.NewString(), DetailID: detailID}
	}

	applyGradeUpdate(record, update)
	record.Average = record.ComputeAverage()

	saved, err := s.repo.Upsert(ctx, record)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save grades")
	}

	if err := s.cache.Invalidate(ctx, "report:*"); err != nil {
		s.logger.Warn("failed to invalidate report cache after grade write", zap.Error(err))
	}

	return saved, nil
}

// ListBySection returns the grade sheet for a section with pass flags set.
// When professorID is non-empty the section must be taught by that professor.
func (s *GradeService) ListBySection(ctx context.Context, sectionID, professorID string) ([]models.GradeRow, error) {
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

	rows, err := s.repo.ListBySection(ctx, sectionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list grades")
	}
	for i := range rows {
		rows[i].Passed = rows[i].Average >= s.passingAverage
	}
	return rows, nil
}

// ListByStudent returns a student's grades for the given term, or for the
// active term when termID is empty.
func (s *GradeService) ListByStudent(ctx context.Context, studentID, termID string) ([]models.StudentGrade, error) {
	if termID == "" {
		term, err := s.terms.FindActive(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNoActiveTerm, "no active term")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load active term")
		}
		termID = term.ID
	}

	grades, err := s.repo.ListByStudent(ctx, studentID, termID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list grades")
	}
	for i := range grades {
		grades[i].Passed = grades[i].Average >= s.passingAverage
	}
	return grades, nil
}

func applyGradeUpdate(record *models.GradeRecord, update models.GradeUpdate) {
	if update.Tasks != nil {
		record.Tasks = *update.Tasks
	}
	if update.Classwork != nil {
		record.Classwork = *update.Classwork
	}
	if update.Project != nil {
		record.Project = *update.Project
	}
	if update.Participation != nil {
		record.Participation = *update.Participation
	}
	if update.Quizzes != nil {
		record.Quizzes = *update.Quizzes
	}
	if update.Exams != nil {
		record.Exams = *update.Exams
	}
}
