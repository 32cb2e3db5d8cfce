package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/siga-api/internal/models"
	appErrors "github.com/noah-isme/siga-api/pkg/errors"
)

const (
	testSubjectID   = "7c1d2e3f-4a5b-4c6d-8e9f-0a1b2c3d4e5f"
	testTermUUID    = "1a2b3c4d-5e6f-4a7b-9c8d-7e6f5a4b3c2d"
	testProfessorID = "9f8e7d6c-5b4a-4392-a1b0-c9d8e7f6a5b4"
)

type mockSectionRepo struct {
	sections  []models.SectionDetail
	available []models.SectionDetail
	section   *models.SectionOffering
	detail    *models.SectionDetail
	created   *models.SectionOffering
	updateErr error
}

func (m *mockSectionRepo) List(ctx context.Context, filter models.SectionFilter) ([]models.SectionDetail, int, error) {
	return m.sections, len(m.sections), nil
}

func (m *mockSectionRepo) ListAvailable(ctx context.Context, studentID, termID string) ([]models.SectionDetail, error) {
	return m.available, nil
}

func (m *mockSectionRepo) FindByID(ctx context.Context, id string) (*models.SectionOffering, error) {
	if m.section == nil {
		return nil, sql.ErrNoRows
	}
	return m.section, nil
}

func (m *mockSectionRepo) FindDetailByID(ctx context.Context, id string) (*models.SectionDetail, error) {
	if m.detail == nil {
		return nil, sql.ErrNoRows
	}
	return m.detail, nil
}

func (m *mockSectionRepo) Create(ctx context.Context, section *models.SectionOffering) error {
	m.created = section
	return nil
}

func (m *mockSectionRepo) Update(ctx context.Context, section *models.SectionOffering) error {
	return m.updateErr
}

type mockUserLookup struct {
	user *models.User
}

func (m *mockUserLookup) FindByID(ctx context.Context, id string) (*models.User, error) {
	if m.user == nil {
		return nil, sql.ErrNoRows
	}
	return m.user, nil
}

type mockSubjectLookup struct {
	subject *models.Subject
}

func (m *mockSubjectLookup) FindByID(ctx context.Context, id string) (*models.Subject, error) {
	if m.subject == nil {
		return nil, sql.ErrNoRows
	}
	return m.subject, nil
}

type mockTermByIDLookup struct {
	term *models.Term
}

func (m *mockTermByIDLookup) FindByID(ctx context.Context, id string) (*models.Term, error) {
	if m.term == nil {
		return nil, sql.ErrNoRows
	}
	return m.term, nil
}

func (m *mockTermByIDLookup) FindActive(ctx context.Context) (*models.Term, error) {
	if m.term == nil || m.term.Status != models.TermStatusActive {
		return nil, sql.ErrNoRows
	}
	return m.term, nil
}

func validCreateSectionRequest() CreateSectionRequest {
	return CreateSectionRequest{
		SubjectID:   testSubjectID,
		TermID:      testTermUUID,
		ProfessorID: testProfessorID,
		Room:        "A-101",
		Schedule:    "Mon 08:00",
		MaxSeats:    30,
	}
}

func TestSectionServiceCreate(t *testing.T) {
	repo := &mockSectionRepo{}
	svc := NewSectionService(repo,
		&mockUserLookup{user: &models.User{ID: testProfessorID, Role: models.RoleProfessor}},
		&mockSubjectLookup{subject: &models.Subject{ID: testSubjectID}},
		&mockTermByIDLookup{term: &models.Term{ID: testTermUUID, Status: models.TermStatusActive}},
		nil, nil)

	section, err := svc.Create(context.Background(), validCreateSectionRequest())
	require.NoError(t, err)
	assert.Equal(t, 30, section.MaxSeats)
	assert.Zero(t, section.CurrentSeats)
	assert.NotNil(t, repo.created)
}

func TestSectionServiceCreateAssigneeNotProfessor(t *testing.T) {
	svc := NewSectionService(&mockSectionRepo{},
		&mockUserLookup{user: &models.User{ID: testProfessorID, Role: models.RoleStudent}},
		&mockSubjectLookup{subject: &models.Subject{ID: testSubjectID}},
		&mockTermByIDLookup{term: &models.Term{ID: testTermUUID, Status: models.TermStatusActive}},
		nil, nil)

	_, err := svc.Create(context.Background(), validCreateSectionRequest())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestSectionServiceCreateUnknownSubject(t *testing.T) {
	svc := NewSectionService(&mockSectionRepo{},
		&mockUserLookup{user: &models.User{ID: testProfessorID, Role: models.RoleProfessor}},
		&mockSubjectLookup{},
		&mockTermByIDLookup{term: &models.Term{ID: testTermUUID, Status: models.TermStatusActive}},
		nil, nil)

	_, err := svc.Create(context.Background(), validCreateSectionRequest())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestSectionServiceUpdateCapacityBelowEnrolled(t *testing.T) {
	repo := &mockSectionRepo{section: &models.SectionOffering{ID: "s1", CurrentSeats: 25, MaxSeats: 30}}
	svc := NewSectionService(repo,
		&mockUserLookup{user: &models.User{ID: testProfessorID, Role: models.RoleProfessor}},
		&mockSubjectLookup{subject: &models.Subject{ID: testSubjectID}},
		&mockTermByIDLookup{term: &models.Term{ID: testTermUUID, Status: models.TermStatusActive}},
		nil, nil)

	_, err := svc.Update(context.Background(), "s1", UpdateSectionRequest{
		ProfessorID: testProfessorID,
		Room:        "A-101",
		Schedule:    "Mon 08:00",
		MaxSeats:    20,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestSectionServiceListAvailableNeedsActiveTerm(t *testing.T) {
	svc := NewSectionService(&mockSectionRepo{}, &mockUserLookup{}, &mockSubjectLookup{},
		&mockTermByIDLookup{term: &models.Term{ID: testTermUUID, Status: models.TermStatusClosed}}, nil, nil)

	_, err := svc.ListAvailable(context.Background(), "u1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNoActiveTerm.Code, appErrors.FromError(err).Code)
}

func TestSectionServiceListAvailable(t *testing.T) {
	repo := &mockSectionRepo{available: []models.SectionDetail{
		{SectionOffering: models.SectionOffering{ID: "s1"}, SubjectName: "Mathematics", AvailableSeats: 18},
	}}
	svc := NewSectionService(repo, &mockUserLookup{}, &mockSubjectLookup{},
		&mockTermByIDLookup{term: &models.Term{ID: testTermUUID, Status: models.TermStatusActive}}, nil, nil)

	sections, err := svc.ListAvailable(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, sections, 1)
	assert.Equal(t, 18, sections[0].AvailableSeats)
}
