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

type observationRepository interface {
	FindByID(ctx context.Context, id string) (*models.Observation, error)
	Create(ctx context.Context, obs *models.Observation) error
	Update(ctx context.Context, obs *models.Observation) error
	List(ctx context.Context, filter models.ObservationFilter) ([]models.ObservationRow, error)
}

type observationEnrollmentRepository interface {
	FindDetailByID(ctx context.Context, id string) (*models.EnrollmentDetail, error)
}

type observationSectionRepository interface {
	FindByID(ctx context.Context, id string) (*models.SectionOffering, error)
}

// CreateObservationRequest attaches a note to a registration.
type CreateObservationRequest struct {
	DetailID string `json:"detail_id" validate:"required,uuid4"`
	Category string `json:"category" validate:"required,oneof=ACADEMIC BEHAVIORAL"`
	Detail   string `json:"detail" validate:"required"`
}

// UpdateObservationRequest edits an existing note or closes it.
type UpdateObservationRequest struct {
	Category string `json:"category" validate:"required,oneof=ACADEMIC BEHAVIORAL"`
	Detail   string `json:"detail" validate:"required"`
	Status   string `json:"status" validate:"required,oneof=OPEN CLOSED"`
}

// ObservationService manages professor notes on student registrations.
type ObservationService struct {
	repo        observationRepository
	enrollments observationEnrollmentRepository
	sections    observationSectionRepository
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewObservationService creates an ObservationService.
func NewObservationService(repo observationRepository, enrollments observationEnrollmentRepository, sections observationSectionRepository, validate *validator.Validate, logger *zap.Logger) *ObservationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ObservationService{repo: repo, enrollments: enrollments, sections: sections, validator: validate, logger: logger}
}

// Create attaches a new OPEN observation to the registration. The professor
// must teach the registration's section.
func (s *ObservationService) Create(ctx context.Context, professorID string, req CreateObservationRequest) (*models.Observation, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid observation payload")
	}

	detail, err := s.enrollments.FindDetailByID(ctx, req.DetailID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "registration not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load registration")
	}

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

	obs := &models.Observation{
		ID:          uuid.NewString(),
		DetailID:    req.DetailID,
		ProfessorID: professorID,
		Category:    models.ObservationCategory(req.Category),
		Detail:      req.Detail,
		Status:      models.ObservationOpen,
	}

	if err := s.repo.Create(ctx, obs); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create observation")
	}

	return obs, nil
}

// Update edits an observation. Only the authoring professor may change it;
// staff callers pass an empty professorID.
func (s *ObservationService) Update(ctx context.Context, id, professorID string, req UpdateObservationRequest) (*models.Observation, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid observation payload")
	}

	obs, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "observation not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load observation")
	}

	if professorID != "" && obs.ProfessorID != professorID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "observation belongs to another professor")
	}

	obs.Category = models.ObservationCategory(req.Category)
	obs.Detail = req.Detail
	obs.Status = models.ObservationStatus(req.Status)

	if err := s.repo.Update(ctx, obs); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "observation not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update observation")
	}

	return obs, nil
}

// List returns observations matching the filter with student and subject
// context.
func (s *ObservationService) List(ctx context.Context, filter models.ObservationFilter) ([]models.ObservationRow, error) {
	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list observations")
	}
	return rows, nil
}
