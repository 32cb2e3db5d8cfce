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

type mockObservationRepo struct {
	obs     *models.Observation
	created *models.Observation
	updated *models.Observation
	rows    []models.ObservationRow
}

func (m *mockObservationRepo) FindByID(ctx context.Context, id string) (*models.Observation, error) {
	if m.obs == nil {
		return nil, sql.ErrNoRows
	}
	return m.obs, nil
}

func (m *mockObservationRepo) Create(ctx context.Context, obs *models.Observation) error {
	m.created = obs
	return nil
}

func (m *mockObservationRepo) Update(ctx context.Context, obs *models.Observation) error {
	m.updated = obs
	return nil
}

func (m *mockObservationRepo) List(ctx context.Context, filter models.ObservationFilter) ([]models.ObservationRow, error) {
	return m.rows, nil
}

func TestObservationServiceCreateStartsOpen(t *testing.T) {
	repo := &mockObservationRepo{}
	sections := &mockSectionLookup{section: &models.SectionOffering{ID: "s1", ProfessorID: "p1"}}
	svc := NewObservationService(repo, &mockDetailLookup{detail: attendanceDetailFixture()}, sections, nil, nil)

	obs, err := svc.Create(context.Background(), "p1", CreateObservationRequest{
		DetailID: testDetailID,
		Category: "ACADEMIC",
		Detail:   "missing homework three weeks in a row",
	})
	require.NoError(t, err)
	assert.Equal(t, models.ObservationOpen, obs.Status)
	assert.Equal(t, "p1", obs.ProfessorID)
	assert.NotNil(t, repo.created)
}

func TestObservationServiceCreateForeignSection(t *testing.T) {
	sections := &mockSectionLookup{section: &models.SectionOffering{ID: "s1", ProfessorID: "p1"}}
	svc := NewObservationService(&mockObservationRepo{}, &mockDetailLookup{detail: attendanceDetailFixture()}, sections, nil, nil)

	_, err := svc.Create(context.Background(), "p2", CreateObservationRequest{
		DetailID: testDetailID,
		Category: "BEHAVIORAL",
		Detail:   "disruptive in class",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestObservationServiceCreateUnknownCategory(t *testing.T) {
	svc := NewObservationService(&mockObservationRepo{}, &mockDetailLookup{detail: attendanceDetailFixture()}, &mockSectionLookup{}, nil, nil)

	_, err := svc.Create(context.Background(), "p1", CreateObservationRequest{
		DetailID: testDetailID,
		Category: "GOSSIP",
		Detail:   "text",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestObservationServiceUpdateOnlyAuthor(t *testing.T) {
	repo := &mockObservationRepo{obs: &models.Observation{ID: "o1", ProfessorID: "p1", Status: models.ObservationOpen}}
	svc := NewObservationService(repo, &mockDetailLookup{}, &mockSectionLookup{}, nil, nil)

	_, err := svc.Update(context.Background(), "o1", "p2", UpdateObservationRequest{
		Category: "ACADEMIC",
		Detail:   "updated",
		Status:   "CLOSED",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestObservationServiceUpdateCloses(t *testing.T) {
	repo := &mockObservationRepo{obs: &models.Observation{ID: "o1", ProfessorID: "p1", Status: models.ObservationOpen}}
	svc := NewObservationService(repo, &mockDetailLookup{}, &mockSectionLookup{}, nil, nil)

	obs, err := svc.Update(context.Background(), "o1", "p1", UpdateObservationRequest{
		Category: "ACADEMIC",
		Detail:   "resolved after parent meeting",
		Status:   "CLOSED",
	})
	require.NoError(t, err)
	assert.Equal(t, models.ObservationClosed, obs.Status)
	assert.NotNil(t, repo.updated)
}

func TestObservationServiceUpdateStaffBypass(t *testing.T) {
	repo := &mockObservationRepo{obs: &models.Observation{ID: "o1", ProfessorID: "p1", Status: models.ObservationOpen}}
	svc := NewObservationService(repo, &mockDetailLookup{}, &mockSectionLookup{}, nil, nil)

	obs, err := svc.Update(context.Background(), "o1", "", UpdateObservationRequest{
		Category: "BEHAVIORAL",
		Detail:   "edited by director",
		Status:   "OPEN",
	})
	require.NoError(t, err)
	assert.Equal(t, models.ObservationBehavioral, obs.Category)
}
