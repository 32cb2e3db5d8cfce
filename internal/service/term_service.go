package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/siga-api/internal/models"
	appErrors "github.com/noah-isme/siga-api/pkg/errors"
)

type termRepository interface {
	List(ctx context.Context, filter models.TermFilter) ([]models.Term, int, error)
	FindByID(ctx context.Context, id string) (*models.Term, error)
	FindActive(ctx context.Context) (*models.Term, error)
	Create(ctx context.Context, term *models.Term) error
	Activate(ctx context.Context, id string) error
	Close(ctx context.Context, id string) error
}

type termEnrollmentRepository interface {
	CloseTermOutcomes(ctx context.Context, termID string, passingAverage float64) (int64, error)
}

// CreateTermRequest describes payload for creating academic terms.
type CreateTermRequest struct {
	Name      string    `json:"name" validate:"required"`
	StartDate time.Time `json:"start_date" validate:"required"`
	EndDate   time.Time `json:"end_date" validate:"required"`
}

// TermService orchestrates term lifecycle workflows.
type TermService struct {
	repo           termRepository
	enrollments    termEnrollmentRepository
	passingAverage float64
	validator      *validator.Validate
	logger         *zap.Logger
}

// NewTermService creates a new term service instance.
func NewTermService(repo termRepository, enrollments termEnrollmentRepository, passingAverage float64, validate *validator.Validate, logger *zap.Logger) *TermService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if passingAverage <= 0 {
		passingAverage = models.PassingAverageDefault
	}
	return &TermService{repo: repo, enrollments: enrollments, passingAverage: passingAverage, validator: validate, logger: logger}
}

// List returns paginated terms.
func (s *TermService) List(ctx context.Context, filter models.TermFilter) ([]models.Term, *models.Pagination, error) {
	terms, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list terms")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}

	return terms, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// Get returns a term by ID.
func (s *TermService) Get(ctx context.Context, id string) (*models.Term, error) {
	term, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "term not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load term")
	}
	return term, nil
}

// GetActive returns the currently active term.
func (s *TermService) GetActive(ctx context.Context) (*models.Term, error) {
	term, err := s.repo.FindActive(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNoActiveTerm, "no active term")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load active term")
	}
	return term, nil
}

// Create adds a term in CLOSED state; activation is a separate step.
func (s *TermService) Create(ctx context.Context, req CreateTermRequest) (*models.Term, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid create term payload")
	}

	if !req.EndDate.After(req.StartDate) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end date must be after start date")
	}

	term := &models.Term{
		ID:        uuid.NewString(),
		Name:      req.Name,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Status:    models.TermStatusClosed,
	}

	if err := s.repo.Create(ctx, term); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create term")
	}

	return term, nil
}

// Activate makes the given term the single active one, closing whichever term
// was active before.
func (s *TermService) Activate(ctx context.Context, id string) (*models.Term, error) {
	if err := s.repo.Activate(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "term not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to activate term")
	}
	return s.Get(ctx, id)
}

// Close ends the active term. Every still-ENROLLED registration in the term
// is resolved to PASSED or FAILED based on its recorded average before the
// term itself is marked CLOSED.
func (s *TermService) Close(ctx context.Context, id string) (*models.Term, error) {
	term, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if term.Status != models.TermStatusActive {
		return nil, appErrors.Clone(appErrors.ErrConflict, "term is not active")
	}

	resolved, err := s.enrollments.CloseTermOutcomes(ctx, id, s.passingAverage)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve enrollment outcomes")
	}
	s.logger.Info("resolved enrollment outcomes for closing term",
		zap.String("term_id", id), zap.Int64("details_resolved", resolved))

	if err := s.repo.Close(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "term not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to close term")
	}

	term.Status = models.TermStatusClosed
	return term, nil
}
