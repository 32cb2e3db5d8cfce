package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/siga-api/internal/models"
	appErrors "github.com/noah-isme/siga-api/pkg/errors"
)

type mockTermRepo struct {
	terms     map[string]*models.Term
	created   *models.Term
	activated []string
	closed    []string
}

func (m *mockTermRepo) List(ctx context.Context, filter models.TermFilter) ([]models.Term, int, error) {
	var list []models.Term
	for _, term := range m.terms {
		list = append(list, *term)
	}
	return list, len(list), nil
}

func (m *mockTermRepo) FindByID(ctx context.Context, id string) (*models.Term, error) {
	term, ok := m.terms[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return term, nil
}

func (m *mockTermRepo) FindActive(ctx context.Context) (*models.Term, error) {
	for _, term := range m.terms {
		if term.Status == models.TermStatusActive {
			return term, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockTermRepo) Create(ctx context.Context, term *models.Term) error {
	m.created = term
	if m.terms == nil {
		m.terms = make(map[string]*models.Term)
	}
	m.terms[term.ID] = term
	return nil
}

func (m *mockTermRepo) Activate(ctx context.Context, id string) error {
	term, ok := m.terms[id]
	if !ok {
		return sql.ErrNoRows
	}
	for _, other := range m.terms {
		if other.Status == models.TermStatusActive {
			other.Status = models.TermStatusClosed
		}
	}
	term.Status = models.TermStatusActive
	m.activated = append(m.activated, id)
	return nil
}

func (m *mockTermRepo) Close(ctx context.Context, id string) error {
	term, ok := m.terms[id]
	if !ok {
		return sql.ErrNoRows
	}
	term.Status = models.TermStatusClosed
	m.closed = append(m.closed, id)
	return nil
}

type mockOutcomeCloser struct {
	resolved int64
	termID   string
	passBar  float64
}

func (m *mockOutcomeCloser) CloseTermOutcomes(ctx context.Context, termID string, passingAverage float64) (int64, error) {
	m.termID = termID
	m.passBar = passingAverage
	return m.resolved, nil
}

func TestTermServiceCreateStartsClosed(t *testing.T) {
	repo := &mockTermRepo{}
	svc := NewTermService(repo, &mockOutcomeCloser{}, 7.0, nil, nil)

	term, err := svc.Create(context.Background(), CreateTermRequest{
		Name:      "2026-1",
		StartDate: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, models.TermStatusClosed, term.Status)
	assert.NotNil(t, repo.created)
}

func TestTermServiceCreateInvertedDates(t *testing.T) {
	svc := NewTermService(&mockTermRepo{}, &mockOutcomeCloser{}, 7.0, nil, nil)

	_, err := svc.Create(context.Background(), CreateTermRequest{
		Name:      "2026-1",
		StartDate: time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestTermServiceActivateClosesPrevious(t *testing.T) {
	repo := &mockTermRepo{terms: map[string]*models.Term{
		"t1": {ID: "t1", Name: "2025-2", Status: models.TermStatusActive},
		"t2": {ID: "t2", Name: "2026-1", Status: models.TermStatusClosed},
	}}
	svc := NewTermService(repo, &mockOutcomeCloser{}, 7.0, nil, nil)

	term, err := svc.Activate(context.Background(), "t2")
	require.NoError(t, err)
	assert.Equal(t, models.TermStatusActive, term.Status)
	assert.Equal(t, models.TermStatusClosed, repo.terms["t1"].Status)
}

func TestTermServiceCloseResolvesOutcomes(t *testing.T) {
	repo := &mockTermRepo{terms: map[string]*models.Term{
		"t1": {ID: "t1", Name: "2026-1", Status: models.TermStatusActive},
	}}
	closer := &mockOutcomeCloser{resolved: 42}
	svc := NewTermService(repo, closer, 7.0, nil, nil)

	term, err := svc.Close(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, models.TermStatusClosed, term.Status)
	assert.Equal(t, "t1", closer.termID)
	assert.InDelta(t, 7.0, closer.passBar, 0.0001)
	assert.Contains(t, repo.closed, "t1")
}

func TestTermServiceCloseInactiveTerm(t *testing.T) {
	repo := &mockTermRepo{terms: map[string]*models.Term{
		"t1": {ID: "t1", Name: "2025-2", Status: models.TermStatusClosed},
	}}
	closer := &mockOutcomeCloser{}
	svc := NewTermService(repo, closer, 7.0, nil, nil)

	_, err := svc.Close(context.Background(), "t1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	assert.Empty(t, closer.termID)
}
