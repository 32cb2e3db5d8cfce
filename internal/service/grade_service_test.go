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

type mockGradeRepo struct {
	record      *models.GradeRecord
	saved       *models.GradeRecord
	sectionRows []models.GradeRow
	studentRows []models.StudentGrade
	lastTermID  string
}

func (m *mockGradeRepo) FindByDetail(ctx context.Context, detailID string) (*models.GradeRecord, error) {
	if m.record == nil {
		return nil, sql.ErrNoRows
	}
	return m.record, nil
}

func (m *mockGradeRepo) Upsert(ctx context.Context, record *models.GradeRecord) (*models.GradeRecord, error) {
	m.saved = record
	return record, nil
}

func (m *mockGradeRepo) ListBySection(ctx context.Context, sectionID string) ([]models.GradeRow, error) {
	return m.sectionRows, nil
}

func (m *mockGradeRepo) ListByStudent(ctx context.Context, studentID, termID string) ([]models.StudentGrade, error) {
	m.lastTermID = termID
	return m.studentRows, nil
}

type mockDetailLookup struct {
	detail *models.EnrollmentDetail
}

func (m *mockDetailLookup) FindDetailByID(ctx context.Context, id string) (*models.EnrollmentDetail, error) {
	if m.detail == nil {
		return nil, sql.ErrNoRows
	}
	return m.detail, nil
}

func score(v float64) *float64 { return &v }

func newTestGradeService(repo *mockGradeRepo, sections *mockSectionLookup, detail *models.EnrollmentDetail) *GradeService {
	return NewGradeService(repo, &mockDetailLookup{detail: detail}, sections, &mockTermLookup{term: activeTermFixture()}, nil, 7.0, nil, nil)
}

func TestGradeServiceUpsertComputesAverage(t *testing.T) {
	repo := &mockGradeRepo{}
	sections := &mockSectionLookup{section: &models.SectionOffering{ID: "s1", ProfessorID: "p1"}}
	detail := &models.EnrollmentDetail{ID: "d1", SectionID: "s1", Status: models.DetailStatusEnrolled}
	svc := newTestGradeService(repo, sections, detail)

	saved, err := svc.Upsert(context.Background(), "d1", "p1", models.GradeUpdate{
		Tasks:         score(8),
		Classwork:     score(7),
		Project:       score(9),
		Participation: score(6),
		Quizzes:       score(8),
		Exams:         score(7),
	})
	require.NoError(t, err)
	assert.InDelta(t, 7.5, saved.Average, 0.0001)
	require.NotNil(t, repo.saved)
	assert.Equal(t, "d1", repo.saved.DetailID)
}

func TestGradeServiceUpsertPartialUpdateKeepsStoredScores(t *testing.T) {
	repo := &mockGradeRepo{record: &models.GradeRecord{
		ID: "g1", DetailID: "d1",
		Tasks: 8, Classwork: 7, Project: 9, Participation: 6, Quizzes: 8, Exams: 7,
		Average: 7.5,
	}}
	sections := &mockSectionLookup{section: &models.SectionOffering{ID: "s1", ProfessorID: "p1"}}
	detail := &models.EnrollmentDetail{ID: "d1", SectionID: "s1", Status: models.DetailStatusEnrolled}
	svc := newTestGradeService(repo, sections, detail)

	saved, err := svc.Upsert(context.Background(), "d1", "p1", models.GradeUpdate{Exams: score(10)})
	require.NoError(t, err)
	assert.Equal(t, 8.0, saved.Tasks)
	assert.Equal(t, 10.0, saved.Exams)
	assert.InDelta(t, 8.0, saved.Average, 0.0001)
}

func TestGradeServiceUpsertScoreOutOfRange(t *testing.T) {
	repo := &mockGradeRepo{}
	sections := &mockSectionLookup{section: &models.SectionOffering{ID: "s1", ProfessorID: "p1"}}
	detail := &models.EnrollmentDetail{ID: "d1", SectionID: "s1", Status: models.DetailStatusEnrolled}
	svc := newTestGradeService(repo, sections, detail)

	_, err := svc.Upsert(context.Background(), "d1", "p1", models.GradeUpdate{Exams: score(11)})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Nil(t, repo.saved)
}

func TestGradeServiceUpsertForeignSection(t *testing.T) {
	repo := &mockGradeRepo{}
	sections := &mockSectionLookup{section: &models.SectionOffering{ID: "s1", ProfessorID: "p1"}}
	detail := &models.EnrollmentDetail{ID: "d1", SectionID: "s1", Status: models.DetailStatusEnrolled}
	svc := newTestGradeService(repo, sections, detail)

	_, err := svc.Upsert(context.Background(), "d1", "p2", models.GradeUpdate{Exams: score(9)})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestGradeServiceListBySectionSetsPassFlags(t *testing.T) {
	repo := &mockGradeRepo{sectionRows: []models.GradeRow{
		{GradeRecord: models.GradeRecord{Average: 7.0}, StudentName: "Maria Perez"},
		{GradeRecord: models.GradeRecord{Average: 6.99}, StudentName: "Jorge Diaz"},
	}}
	sections := &mockSectionLookup{section: &models.SectionOffering{ID: "s1", ProfessorID: "p1"}}
	svc := newTestGradeService(repo, sections, nil)

	rows, err := svc.ListBySection(context.Background(), "s1", "p1")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.True(t, rows[0].Passed)
	assert.False(t, rows[1].Passed)
}

func TestGradeServiceListByStudent(t *testing.T) {
	repo := &mockGradeRepo{studentRows: []models.StudentGrade{
		{DetailID: "d1", SubjectName: "Mathematics", Average: 8.2},
	}}
	svc := newTestGradeService(repo, &mockSectionLookup{}, nil)

	grades, err := svc.ListByStudent(context.Background(), "u1", "")
	require.NoError(t, err)
	require.Len(t, grades, 1)
	assert.True(t, grades[0].Passed)
	assert.Equal(t, "t1", repo.lastTermID)
}

func TestGradeServiceListByStudentExplicitTerm(t *testing.T) {
	repo := &mockGradeRepo{studentRows: []models.StudentGrade{
		{DetailID: "d1", SubjectName: "Mathematics", Average: 8.2},
	}}
	svc := newTestGradeService(repo, &mockSectionLookup{}, nil)

	grades, err := svc.ListByStudent(context.Background(), "u1", "t0")
	require.NoError(t, err)
	require.Len(t, grades, 1)
	assert.Equal(t, "t0", repo.lastTermID)
}
