package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"go.uber.org/zap"

	"github.com/noah-isme/siga-api/internal/models"
	"github.com/noah-isme/siga-api/internal/repository"
	appErrors "github.com/noah-isme/siga-api/pkg/errors"
)

type enrollmentRepository interface {
	FindByStudentAndTerm(ctx context.Context, studentID, termID string) (*models.Enrollment, error)
	FindDetailByID(ctx context.Context, id string) (*models.EnrollmentDetail, error)
	DetailExists(ctx context.Context, enrollmentID, sectionID string) (bool, error)
	Enroll(ctx context.Context, enrollmentID, sectionID string, maxSubjects int) (*models.EnrollmentDetail, error)
	Withdraw(ctx context.Context, detailID string) error
	Roster(ctx context.Context, sectionID string) ([]models.RosterEntry, error)
	ListStudentSections(ctx context.Context, studentID, termID string) ([]models.StudentSection, error)
}

type enrollmentSectionRepository interface {
	FindByID(ctx context.Context, id string) (*models.SectionOffering, error)
}

type enrollmentTermRepository interface {
	FindActive(ctx context.Context) (*models.Term, error)
}

type enrollmentAuditRepository interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// EnrollmentService orchestrates subject registration for students. All seat
// and subject-count accounting happens inside the repository transaction; the
// service validates the request shape and maps the transaction outcomes onto
// the API error taxonomy.
type EnrollmentService struct {
	repo        enrollmentRepository
	sections    enrollmentSectionRepository
	terms       enrollmentTermRepository
	audit       enrollmentAuditRepository
	cache       *CacheService
	maxSubjects int
	logger      *zap.Logger
}

// NewEnrollmentService creates an EnrollmentService.
func NewEnrollmentService(repo enrollmentRepository, sections enrollmentSectionRepository, terms enrollmentTermRepository, audit enrollmentAuditRepository, cache *CacheService, maxSubjects int, logger *zap.Logger) *EnrollmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxSubjects <= 0 {
		maxSubjects = models.MaxSubjectsPerTerm
	}
	return &EnrollmentService{repo: repo, sections: sections, terms: terms, audit: audit, cache: cache, maxSubjects: maxSubjects, logger: logger}
}

// Enroll registers the student in a section of the active term. The student
// must already hold an enrollment header for that term; headers are opened
// when the account is created. Capacity and the per-term subject cap are
// enforced atomically in one transaction.
func (s *EnrollmentService) Enroll(ctx context.Context, studentID, sectionID string, meta models.LoginRequest) (*models.EnrollmentDetail, error) {
	term, err := s.terms.FindActive(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNoActiveTerm, "no active term")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load active term")
	}

	section, err := s.sections.FindByID(ctx, sectionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "section not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section")
	}
	if section.TermID != term.ID {
		return nil, appErrors.Clone(appErrors.ErrConflict, "section does not belong to the active term")
	}

	enrollment, err := s.repo.FindByStudentAndTerm(ctx, studentID, term.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNoActiveEnrollment, "no enrollment for the active term")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}

	exists, err := s.repo.DetailExists(ctx, enrollment.ID, sectionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing registration")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "already registered in this section")
	}

	detail, err := s.repo.Enroll(ctx, enrollment.ID, sectionID, s.maxSubjects)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrSubjectLimitReached):
			return nil, appErrors.Clone(appErrors.ErrSubjectLimitExceeded, "subject limit reached for the term")
		case errors.Is(err, repository.ErrSectionFull):
			return nil, appErrors.Clone(appErrors.ErrCapacityExceeded, "section has no remaining seats")
		default:
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to register")
		}
	}

	payload, _ := json.Marshal(map[string]string{"section_id": sectionID, "detail_id": detail.ID})
	if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &studentID,
		Action:     models.AuditActionEnroll,
		Resource:   "enrollments",
		ResourceID: &detail.ID,
		NewValues:  payload,
		IPAddress:  meta.IP,
		UserAgent:  meta.UserAgent,
	}); err != nil {
		s.logger.Warn("failed to record enroll audit log", zap.Error(err))
	}

	if err := s.cache.Invalidate(ctx, "report:*"); err != nil {
		s.logger.Warn("failed to invalidate report cache after enroll", zap.Error(err))
	}

	return detail, nil
}

// Withdraw removes a registration and releases its seat. Students may only
// withdraw their own registrations; ownerID is the acting student or empty
// for staff callers.
func (s *EnrollmentService) Withdraw(ctx context.Context, detailID, ownerID string, meta models.LoginRequest) error {
	detail, err := s.repo.FindDetailByID(ctx, detailID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "registration not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load registration")
	}

	if ownerID != "" {
		term, err := s.terms.FindActive(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrNoActiveTerm, "no active term")
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load active term")
		}
		enrollment, err := s.repo.FindByStudentAndTerm(ctx, ownerID, term.ID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrForbidden, "registration does not belong to caller")
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
		}
		if detail.EnrollmentID != enrollment.ID {
			return appErrors.Clone(appErrors.ErrForbidden, "registration does not belong to caller")
		}
	}

	if detail.Status != models.DetailStatusEnrolled {
		return appErrors.Clone(appErrors.ErrConflict, "registration already resolved")
	}

	if err := s.repo.Withdraw(ctx, detailID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "registration not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to withdraw")
	}

	actorID := ownerID
	if actorID == "" {
		actorID = detail.EnrollmentID
	}
	payload, _ := json.Marshal(map[string]string{"section_id": detail.SectionID, "detail_id": detail.ID})
	if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &actorID,
		Action:     models.AuditActionWithdraw,
		Resource:   "enrollments",
		ResourceID: &detail.ID,
		OldValues:  payload,
		IPAddress:  meta.IP,
		UserAgent:  meta.UserAgent,
	}); err != nil {
		s.logger.Warn("failed to record withdraw audit log", zap.Error(err))
	}

	if err := s.cache.Invalidate(ctx, "report:*"); err != nil {
		s.logger.Warn("failed to invalidate report cache after withdraw", zap.Error(err))
	}

	return nil
}

// Roster lists the students registered in a section. When professorID is
// non-empty the section must be taught by that professor.
func (s *EnrollmentService) Roster(ctx context.Context, sectionID, professorID string) ([]models.RosterEntry, error) {
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

	roster, err := s.repo.Roster(ctx, sectionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load roster")
	}
	return roster, nil
}

// Info summarises the student's active-term enrollment.
func (s *EnrollmentService) Info(ctx context.Context, studentID string) (*models.EnrollmentInfo, error) {
	term, err := s.terms.FindActive(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNoActiveTerm, "no active term")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load active term")
	}

	enrollment, err := s.repo.FindByStudentAndTerm(ctx, studentID, term.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNoActiveEnrollment, "no enrollment for the active term")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}

	remaining := s.maxSubjects - enrollment.SubjectCount
	if remaining < 0 {
		remaining = 0
	}

	return &models.EnrollmentInfo{
		EnrollmentID:   enrollment.ID,
		TermID:         term.ID,
		TermName:       term.Name,
		SubjectCount:   enrollment.SubjectCount,
		RemainingSlots: remaining,
	}, nil
}

// StudentSections returns the student's schedule for the active term.
func (s *EnrollmentService) StudentSections(ctx context.Context, studentID string) ([]models.StudentSection, error) {
	term, err := s.terms.FindActive(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNoActiveTerm, "no active term")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load active term")
	}

	sections, err := s.repo.ListStudentSections(ctx, studentID, term.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sections")
	}
	return sections, nil
}

