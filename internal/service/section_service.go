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

type sectionRepository interface {
	List(ctx context.Context, filter models.SectionFilter) ([]models.SectionDetail, int, error)
	ListAvailable(ctx context.Context, studentID, termID string) ([]models.SectionDetail, error)
	FindByID(ctx context.Context, id string) (*models.SectionOffering, error)
	FindDetailByID(ctx context.Context, id string) (*models.SectionDetail, error)
	Create(ctx context.Context, section *models.SectionOffering) error
	Update(ctx context.Context, section *models.SectionOffering) error
}

type sectionUserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type sectionSubjectRepository interface {
	FindByID(ctx context.Context, id string) (*models.Subject, error)
}

type sectionTermRepository interface {
	FindByID(ctx context.Context, id string) (*models.Term, error)
	FindActive(ctx context.Context) (*models.Term, error)
}

// CreateSectionRequest describes payload for opening a section offering.
type CreateSectionRequest struct {
	SubjectID   string `json:"subject_id" validate:"required,uuid4"`
	TermID      string `json:"term_id" validate:"required,uuid4"`
	ProfessorID string `json:"professor_id" validate:"required,uuid4"`
	Room        string `json:"room" validate:"required"`
	Schedule    string `json:"schedule" validate:"required"`
	MaxSeats    int    `json:"max_seats" validate:"required,gt=0"`
}

// UpdateSectionRequest updates mutable section fields. Capacity can only be
// raised to at least the current seat count; the repository enforces that.
type UpdateSectionRequest struct {
	ProfessorID string `json:"professor_id" validate:"required,uuid4"`
	Room        string `json:"room" validate:"required"`
	Schedule    string `json:"schedule" validate:"required"`
	MaxSeats    int    `json:"max_seats" validate:"required,gt=0"`
}

// SectionService manages section offerings.
type SectionService struct {
	repo      sectionRepository
	users     sectionUserRepository
	subjects  sectionSubjectRepository
	terms     sectionTermRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSectionService creates a SectionService.
func NewSectionService(repo sectionRepository, users sectionUserRepository, subjects sectionSubjectRepository, terms sectionTermRepository, validate *validator.Validate, logger *zap.Logger) *SectionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SectionService{repo: repo, users: users, subjects: subjects, terms: terms, validator: validate, logger: logger}
}

// List returns paginated section offerings with catalog context.
func (s *SectionService) List(ctx context.Context, filter models.SectionFilter) ([]models.SectionDetail, *models.Pagination, error) {
	sections, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sections")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}

	return sections, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// ListAvailable returns the active-term sections a student can still register
// in: seats remain and the student is not already registered.
func (s *SectionService) ListAvailable(ctx context.Context, studentID string) ([]models.SectionDetail, error) {
	term, err := s.terms.FindActive(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNoActiveTerm, "no active term")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load active term")
	}

	sections, err := s.repo.ListAvailable(ctx, studentID, term.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list available sections")
	}
	return sections, nil
}

// Get returns a section offering with catalog context.
func (s *SectionService) Get(ctx context.Context, id string) (*models.SectionDetail, error) {
	section, err := s.repo.FindDetailByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "section not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section")
	}
	return section, nil
}

// Create opens a new section offering after checking the subject, term and
// professor all exist and the assignee really is a professor.
func (s *SectionService) Create(ctx context.Context, req CreateSectionRequest) (*models.SectionOffering, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid create section payload")
	}

	if _, err := s.subjects.FindByID(ctx, req.SubjectID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}

	if _, err := s.terms.FindByID(ctx, req.TermID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "term not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load term")
	}

	if err := s.checkProfessor(ctx, req.ProfessorID); err != nil {
		return nil, err
	}

	section := &models.SectionOffering{
		ID:          uuid.NewString(),
		SubjectID:   req.SubjectID,
		TermID:      req.TermID,
		ProfessorID: req.ProfessorID,
		Room:        req.Room,
		Schedule:    req.Schedule,
		MaxSeats:    req.MaxSeats,
	}

	if err := s.repo.Create(ctx, section); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create section")
	}

	return section, nil
}

// Update modifies mutable section fields.
func (s *SectionService) Update(ctx context.Context, id string, req UpdateSectionRequest) (*models.SectionOffering, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid update section payload")
	}

	section, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "section not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section")
	}

	if req.MaxSeats < section.CurrentSeats {
		return nil, appErrors.Clone(appErrors.ErrConflict, "capacity cannot drop below enrolled count")
	}

	if err := s.checkProfessor(ctx, req.ProfessorID); err != nil {
		return nil, err
	}

	section.ProfessorID = req.ProfessorID
	section.Room = req.Room
	section.Schedule = req.Schedule
	section.MaxSeats = req.MaxSeats

	if err := s.repo.Update(ctx, section); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "capacity cannot drop below enrolled count")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update section")
	}

	return section, nil
}

func (s *SectionService) checkProfessor(ctx context.Context, professorID string) error {
	professor, err := s.users.FindByID(ctx, professorID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "professor not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load professor")
	}
	if professor.Role != models.RoleProfessor {
		return appErrors.Clone(appErrors.ErrValidation, "assigned user is not a professor")
	}
	return nil
}
