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

const testDetailID = "0b6f4c68-9a2d-4f1e-8c3a-5d7e9f0a1b2c"

type mockAttendanceRepo struct {
	saved    *models.AttendanceRecord
	summary  *models.AttendanceSummary
	replaced struct {
		presents, absents, lates int
	}
	rows []models.AttendanceRow
}

func (m *mockAttendanceRepo) Upsert(ctx context.Context, record *models.AttendanceRecord) (*models.AttendanceRecord, error) {
	m.saved = record
	return record, nil
}

func (m *mockAttendanceRepo) ListBySection(ctx context.Context, sectionID string, date *time.Time) ([]models.AttendanceRow, error) {
	return m.rows, nil
}

func (m *mockAttendanceRepo) Summary(ctx context.Context, detailID string) (*models.AttendanceSummary, error) {
	if m.summary == nil {
		return nil, sql.ErrNoRows
	}
	return m.summary, nil
}

func (m *mockAttendanceRepo) ReplaceWithSummary(ctx context.Context, detailID string, presents, absents, lates int) error {
	m.replaced.presents = presents
	m.replaced.absents = absents
	m.replaced.lates = lates
	m.summary = &models.AttendanceSummary{
		DetailID: detailID,
		Present:  presents,
		Absent:   absents,
		Late:     lates,
		Total:    presents + absents + lates,
	}
	return nil
}

func newTestAttendanceService(repo *mockAttendanceRepo, sections *mockSectionLookup, detail *models.EnrollmentDetail) *AttendanceService {
	return NewAttendanceService(repo, &mockDetailLookup{detail: detail}, sections, nil, 80.0, nil, nil)
}

func attendanceDetailFixture() *models.EnrollmentDetail {
	return &models.EnrollmentDetail{ID: testDetailID, SectionID: "s1", Status: models.DetailStatusEnrolled}
}

func TestAttendanceServiceSet(t *testing.T) {
	repo := &mockAttendanceRepo{}
	sections := &mockSectionLookup{section: &models.SectionOffering{ID: "s1", ProfessorID: "p1"}}
	svc := newTestAttendanceService(repo, sections, attendanceDetailFixture())

	record, err := svc.Set(context.Background(), "p1", SetAttendanceRequest{
		DetailID: testDetailID,
		Date:     "2026-03-10",
		Status:   "ABSENT",
	})
	require.NoError(t, err)
	assert.Equal(t, models.AttendanceAbsent, record.Status)
	assert.Equal(t, time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), record.Date)
}

func TestAttendanceServiceSetUnknownStatus(t *testing.T) {
	repo := &mockAttendanceRepo{}
	sections := &mockSectionLookup{section: &models.SectionOffering{ID: "s1", ProfessorID: "p1"}}
	svc := newTestAttendanceService(repo, sections, attendanceDetailFixture())

	_, err := svc.Set(context.Background(), "p1", SetAttendanceRequest{
		DetailID: testDetailID,
		Date:     "2026-03-10",
		Status:   "SLEEPING",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Nil(t, repo.saved)
}

func TestAttendanceServiceSetForeignSection(t *testing.T) {
	repo := &mockAttendanceRepo{}
	sections := &mockSectionLookup{section: &models.SectionOffering{ID: "s1", ProfessorID: "p1"}}
	svc := newTestAttendanceService(repo, sections, attendanceDetailFixture())

	_, err := svc.Set(context.Background(), "p2", SetAttendanceRequest{
		DetailID: testDetailID,
		Date:     "2026-03-10",
		Status:   "PRESENT",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestAttendanceServiceSummaryAtRiskBoundary(t *testing.T) {
	repo := &mockAttendanceRepo{summary: &models.AttendanceSummary{DetailID: testDetailID, Present: 8, Absent: 2, Total: 10}}
	svc := newTestAttendanceService(repo, &mockSectionLookup{}, attendanceDetailFixture())

	summary, err := svc.Summary(context.Background(), testDetailID)
	require.NoError(t, err)
	assert.InDelta(t, 80.0, summary.Percent, 0.0001)
	assert.False(t, summary.AtRisk)

	repo.summary = &models.AttendanceSummary{DetailID: testDetailID, Present: 7, Absent: 3, Total: 10}
	summary, err = svc.Summary(context.Background(), testDetailID)
	require.NoError(t, err)
	assert.InDelta(t, 70.0, summary.Percent, 0.0001)
	assert.True(t, summary.AtRisk)
}

func TestAttendanceServiceSummaryNoRecords(t *testing.T) {
	repo := &mockAttendanceRepo{summary: &models.AttendanceSummary{DetailID: testDetailID}}
	svc := newTestAttendanceService(repo, &mockSectionLookup{}, attendanceDetailFixture())

	summary, err := svc.Summary(context.Background(), testDetailID)
	require.NoError(t, err)
	assert.Zero(t, summary.Percent)
	assert.False(t, summary.AtRisk)
}

func TestAttendanceServiceSetSummary(t *testing.T) {
	repo := &mockAttendanceRepo{}
	sections := &mockSectionLookup{section: &models.SectionOffering{ID: "s1", ProfessorID: "p1"}}
	svc := newTestAttendanceService(repo, sections, attendanceDetailFixture())

	summary, err := svc.SetSummary(context.Background(), testDetailID, "", SetAttendanceSummaryRequest{
		Presents: 18,
		Absents:  2,
		Lates:    0,
	})
	require.NoError(t, err)
	assert.Equal(t, 18, repo.replaced.presents)
	assert.Equal(t, 20, summary.Total)
	assert.InDelta(t, 90.0, summary.Percent, 0.0001)
	assert.False(t, summary.AtRisk)
}

func TestAttendanceServiceSetSummaryNegativeCounts(t *testing.T) {
	repo := &mockAttendanceRepo{}
	svc := newTestAttendanceService(repo, &mockSectionLookup{}, attendanceDetailFixture())

	_, err := svc.SetSummary(context.Background(), testDetailID, "", SetAttendanceSummaryRequest{Presents: -1})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
