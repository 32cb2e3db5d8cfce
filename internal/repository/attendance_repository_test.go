package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/siga-api/internal/models"
)

func newAttendanceRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func attendanceRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "detail_id", "date", "status", "justification", "attachment", "created_at", "updated_at"})
}

func TestAttendanceRepositoryUpsert(t *testing.T) {
	db, mock, cleanup := newAttendanceRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("ON CONFLICT (detail_id, date)")).
		WithArgs(sqlmock.AnyArg(), "d1", date, "ABSENT", nil, nil, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(attendanceRows().AddRow("a1", "d1", date, "ABSENT", nil, nil, time.Now(), time.Now()))

	stored, err := repo.Upsert(context.Background(), &models.AttendanceRecord{
		DetailID: "d1",
		Date:     date,
		Status:   models.AttendanceAbsent,
	})
	require.NoError(t, err)
	assert.Equal(t, "a1", stored.ID)
	assert.Equal(t, models.AttendanceAbsent, stored.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryListBySectionWithDate(t *testing.T) {
	db, mock, cleanup := newAttendanceRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "detail_id", "date", "status", "justification", "attachment", "created_at", "updated_at", "student_id", "student_name"}).
		AddRow("a1", "d1", date, "PRESENT", nil, nil, time.Now(), time.Now(), "u1", "Maria Perez")

	mock.ExpectQuery(regexp.QuoteMeta("AND a.date = $2")).
		WithArgs("s1", date).
		WillReturnRows(rows)

	list, err := repo.ListBySection(context.Background(), "s1", &date)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Maria Perez", list[0].StudentName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositorySummary(t *testing.T) {
	db, mock, cleanup := newAttendanceRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	rows := sqlmock.NewRows([]string{"detail_id", "present", "absent", "late", "total"}).
		AddRow("d1", 8, 2, 0, 10)
	mock.ExpectQuery(regexp.QuoteMeta("FROM attendance_records WHERE detail_id = $1")).
		WithArgs("d1").
		WillReturnRows(rows)

	summary, err := repo.Summary(context.Background(), "d1")
	require.NoError(t, err)
	assert.Equal(t, 8, summary.Present)
	assert.Equal(t, 10, summary.Total)
	assert.InDelta(t, 80.0, summary.ComputePercent(), 0.001)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositorySummaryEmpty(t *testing.T) {
	db, mock, cleanup := newAttendanceRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	rows := sqlmock.NewRows([]string{"detail_id", "present", "absent", "late", "total"}).
		AddRow("d1", 0, 0, 0, 0)
	mock.ExpectQuery(regexp.QuoteMeta("FROM attendance_records WHERE detail_id = $1")).
		WithArgs("d1").
		WillReturnRows(rows)

	summary, err := repo.Summary(context.Background(), "d1")
	require.NoError(t, err)
	assert.Zero(t, summary.Total)
	assert.Zero(t, summary.ComputePercent())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryReplaceWithSummary(t *testing.T) {
	db, mock, cleanup := newAttendanceRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM attendance_records WHERE detail_id = $1")).
		WithArgs("d1").
		WillReturnResult(sqlmock.NewResult(0, 3))
	insert := regexp.QuoteMeta("INSERT INTO attendance_records (id, detail_id, date, status, created_at, updated_at)")
	for i := 0; i < 2; i++ {
		mock.ExpectExec(insert).
			WithArgs(sqlmock.AnyArg(), "d1", sqlmock.AnyArg(), "PRESENT", sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))
	}
	mock.ExpectExec(insert).
		WithArgs(sqlmock.AnyArg(), "d1", sqlmock.AnyArg(), "ABSENT", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.ReplaceWithSummary(context.Background(), "d1", 2, 1, 0)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
