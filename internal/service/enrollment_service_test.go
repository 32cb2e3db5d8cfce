package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/siga-api/internal/models"
	"github.com/noah-isme/siga-api/internal/repository"
	appErrors "github.com/noah-isme/siga-api/pkg/errors"
)

type mockEnrollmentRepo struct {
	enrollment   *models.Enrollment
	detail       *models.EnrollmentDetail
	detailExists bool
	enrollErr    error
	withdrawErr  error
	enrolled     []string
	withdrawn    []string
	roster       []models.RosterEntry
	sections     []models.StudentSection
}

func (m *mockEnrollmentRepo) FindByStudentAndTerm(ctx context.Context, studentID, termID string) (*models.Enrollment, error) {
	if m.enrollment == nil {
		return nil, sql.ErrNoRows
	}
	return m.enrollment, nil
}

func (m *mockEnrollmentRepo) FindDetailByID(ctx context.Context, id string) (*models.EnrollmentDetail, error) {
	if m.detail == nil {
		return nil, sql.ErrNoRows
	}
	return m.detail, nil
}

func (m *mockEnrollmentRepo) DetailExists(ctx context.Context, enrollmentID, sectionID string) (bool, error) {
	return m.detailExists, nil
}

func (m *mockEnrollmentRepo) Enroll(ctx context.Context, enrollmentID, sectionID string, maxSubjects int) (*models.EnrollmentDetail, error) {
	if m.enrollErr != nil {
		return nil, m.enrollErr
	}
	m.enrolled = append(m.enrolled, sectionID)
	return &models.EnrollmentDetail{ID: "d1", EnrollmentID: enrollmentID, SectionID: sectionID, Status: models.DetailStatusEnrolled}, nil
}

func (m *mockEnrollmentRepo) Withdraw(ctx context.Context, detailID string) error {
	if m.withdrawErr != nil {
		return m.withdrawErr
	}
	m.withdrawn = append(m.withdrawn, detailID)
	return nil
}

func (m *mockEnrollmentRepo) Roster(ctx context.Context, sectionID string) ([]models.RosterEntry, error) {
	return m.roster, nil
}

func (m *mockEnrollmentRepo) ListStudentSections(ctx context.Context, studentID, termID string) ([]models.StudentSection, error) {
	return m.sections, nil
}

type mockSectionLookup struct {
	section *models.SectionOffering
}

func (m *mockSectionLookup) FindByID(ctx context.Context, id string) (*models.SectionOffering, error) {
	if m.section == nil {
		return nil, sql.ErrNoRows
	}
	return m.section, nil
}

type mockTermLookup struct {
	term *models.Term
}

func (m *mockTermLookup) FindActive(ctx context.Context) (*models.Term, error) {
	if m.term == nil {
		return nil, sql.ErrNoRows
	}
	return m.term, nil
}

func (m *mockTermLookup) FindByID(ctx context.Context, id string) (*models.Term, error) {
	if m.term == nil || m.term.ID != id {
		return nil, sql.ErrNoRows
	}
	return m.term, nil
}

type mockAuditSink struct {
	logs []*models.AuditLog
}

func (m *mockAuditSink) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.logs = append(m.logs, log)
	return nil
}

func activeTermFixture() *models.Term {
	return &models.Term{ID: "t1", Name: "2026-1", Status: models.TermStatusActive, StartDate: time.Now(), EndDate: time.Now().Add(time.Hour)}
}

func TestEnrollmentServiceEnroll(t *testing.T) {
	repo := &mockEnrollmentRepo{enrollment: &models.Enrollment{ID: "e1", StudentID: "u1", TermID: "t1"}}
	sections := &mockSectionLookup{section: &models.SectionOffering{ID: "s1", TermID: "t1"}}
	audit := &mockAuditSink{}
	svc := NewEnrollmentService(repo, sections, &mockTermLookup{term: activeTermFixture()}, audit, nil, 5, nil)

	detail, err := svc.Enroll(context.Background(), "u1", "s1", models.LoginRequest{})
	require.NoError(t, err)
	assert.Equal(t, models.DetailStatusEnrolled, detail.Status)
	assert.Equal(t, "e1", detail.EnrollmentID)

	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionEnroll, audit.logs[0].Action)
}

func TestEnrollmentServiceEnrollWithoutHeader(t *testing.T) {
	repo := &mockEnrollmentRepo{}
	sections := &mockSectionLookup{section: &models.SectionOffering{ID: "s1", TermID: "t1"}}
	audit := &mockAuditSink{}
	svc := NewEnrollmentService(repo, sections, &mockTermLookup{term: activeTermFixture()}, audit, nil, 5, nil)

	_, err := svc.Enroll(context.Background(), "u1", "s1", models.LoginRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNoActiveEnrollment.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.enrolled)
	assert.Empty(t, audit.logs)
}

func TestEnrollmentServiceEnrollNoActiveTerm(t *testing.T) {
	svc := NewEnrollmentService(&mockEnrollmentRepo{}, &mockSectionLookup{}, &mockTermLookup{}, &mockAuditSink{}, nil, 5, nil)

	_, err := svc.Enroll(context.Background(), "u1", "s1", models.LoginRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNoActiveTerm.Code, appErrors.FromError(err).Code)
}

func TestEnrollmentServiceEnrollSectionOutsideActiveTerm(t *testing.T) {
	sections := &mockSectionLookup{section: &models.SectionOffering{ID: "s1", TermID: "t-old"}}
	svc := NewEnrollmentService(&mockEnrollmentRepo{}, sections, &mockTermLookup{term: activeTermFixture()}, &mockAuditSink{}, nil, 5, nil)

	_, err := svc.Enroll(context.Background(), "u1", "s1", models.LoginRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestEnrollmentServiceEnrollDuplicate(t *testing.T) {
	repo := &mockEnrollmentRepo{
		enrollment:   &models.Enrollment{ID: "e1", StudentID: "u1", TermID: "t1"},
		detailExists: true,
	}
	sections := &mockSectionLookup{section: &models.SectionOffering{ID: "s1", TermID: "t1"}}
	svc := NewEnrollmentService(repo, sections, &mockTermLookup{term: activeTermFixture()}, &mockAuditSink{}, nil, 5, nil)

	_, err := svc.Enroll(context.Background(), "u1", "s1", models.LoginRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestEnrollmentServiceEnrollSubjectLimit(t *testing.T) {
	repo := &mockEnrollmentRepo{
		enrollment: &models.Enrollment{ID: "e1", StudentID: "u1", TermID: "t1", SubjectCount: 5},
		enrollErr:  repository.ErrSubjectLimitReached,
	}
	sections := &mockSectionLookup{section: &models.SectionOffering{ID: "s1", TermID: "t1"}}
	svc := NewEnrollmentService(repo, sections, &mockTermLookup{term: activeTermFixture()}, &mockAuditSink{}, nil, 5, nil)

	_, err := svc.Enroll(context.Background(), "u1", "s1", models.LoginRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrSubjectLimitExceeded.Code, appErrors.FromError(err).Code)
}

func TestEnrollmentServiceEnrollSectionFull(t *testing.T) {
	repo := &mockEnrollmentRepo{
		enrollment: &models.Enrollment{ID: "e1", StudentID: "u1", TermID: "t1"},
		enrollErr:  repository.ErrSectionFull,
	}
	sections := &mockSectionLookup{section: &models.SectionOffering{ID: "s1", TermID: "t1"}}
	svc := NewEnrollmentService(repo, sections, &mockTermLookup{term: activeTermFixture()}, &mockAuditSink{}, nil, 5, nil)

	_, err := svc.Enroll(context.Background(), "u1", "s1", models.LoginRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrCapacityExceeded.Code, appErrors.FromError(err).Code)
}

func TestEnrollmentServiceWithdrawOwnRegistration(t *testing.T) {
	repo := &mockEnrollmentRepo{
		enrollment: &models.Enrollment{ID: "e1", StudentID: "u1", TermID: "t1"},
		detail:     &models.EnrollmentDetail{ID: "d1", EnrollmentID: "e1", SectionID: "s1", Status: models.DetailStatusEnrolled},
	}
	audit := &mockAuditSink{}
	svc := NewEnrollmentService(repo, &mockSectionLookup{}, &mockTermLookup{term: activeTermFixture()}, audit, nil, 5, nil)

	err := svc.Withdraw(context.Background(), "d1", "u1", models.LoginRequest{})
	require.NoError(t, err)
	assert.Contains(t, repo.withdrawn, "d1")
	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionWithdraw, audit.logs[0].Action)
}

func TestEnrollmentServiceWithdrawForeignRegistration(t *testing.T) {
	repo := &mockEnrollmentRepo{
		enrollment: &models.Enrollment{ID: "e2", StudentID: "other", TermID: "t1"},
		detail:     &models.EnrollmentDetail{ID: "d1", EnrollmentID: "e1", SectionID: "s1", Status: models.DetailStatusEnrolled},
	}
	svc := NewEnrollmentService(repo, &mockSectionLookup{}, &mockTermLookup{term: activeTermFixture()}, &mockAuditSink{}, nil, 5, nil)

	err := svc.Withdraw(context.Background(), "d1", "u1", models.LoginRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.withdrawn)
}

func TestEnrollmentServiceWithdrawResolvedRegistration(t *testing.T) {
	repo := &mockEnrollmentRepo{
		detail: &models.EnrollmentDetail{ID: "d1", EnrollmentID: "e1", SectionID: "s1", Status: models.DetailStatusPassed},
	}
	svc := NewEnrollmentService(repo, &mockSectionLookup{}, &mockTermLookup{term: activeTermFixture()}, &mockAuditSink{}, nil, 5, nil)

	err := svc.Withdraw(context.Background(), "d1", "", models.LoginRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestEnrollmentServiceRosterOwnership(t *testing.T) {
	repo := &mockEnrollmentRepo{roster: []models.RosterEntry{{StudentID: "u1"}}}
	sections := &mockSectionLookup{section: &models.SectionOffering{ID: "s1", TermID: "t1", ProfessorID: "p1"}}
	svc := NewEnrollmentService(repo, sections, &mockTermLookup{term: activeTermFixture()}, &mockAuditSink{}, nil, 5, nil)

	_, err := svc.Roster(context.Background(), "s1", "p2")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	roster, err := svc.Roster(context.Background(), "s1", "p1")
	require.NoError(t, err)
	assert.Len(t, roster, 1)
}

func TestEnrollmentServiceInfoRemainingSlots(t *testing.T) {
	repo := &mockEnrollmentRepo{enrollment: &models.Enrollment{ID: "e1", StudentID: "u1", TermID: "t1", SubjectCount: 3}}
	svc := NewEnrollmentService(repo, &mockSectionLookup{}, &mockTermLookup{term: activeTermFixture()}, &mockAuditSink{}, nil, 5, nil)

	info, err := svc.Info(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 3, info.SubjectCount)
	assert.Equal(t, 2, info.RemainingSlots)
	assert.Equal(t, "2026-1", info.TermName)
}
