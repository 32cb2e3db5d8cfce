package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/siga-api/internal/models"
)

const attendanceColumns = `id, detail_id, date, status, justification, attachment, created_at, updated_at`

// AttendanceRepository handles persistence of attendance records.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs the repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// Upsert inserts or updates the record for (detail, date).
func (r *AttendanceRepository) Upsert(ctx context.Context, record *models.AttendanceRecord) (*models.AttendanceRecord, error) {
	now := time.Now().UTC()
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now
	const query = `INSERT INTO attendance_records (id, detail_id, date, status, justification, attachment, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        ON CONFLICT (detail_id, date)
        DO UPDATE SET status = EXCLUDED.status, justification = EXCLUDED.justification,
            attachment = EXCLUDED.attachment, updated_at = EXCLUDED.updated_at
        RETURNING ` + attendanceColumns
	var stored models.AttendanceRecord
	if err := r.db.GetContext(ctx, &stored, query,
		record.ID, record.DetailID, record.Date, record.Status,
		record.Justification, record.Attachment, record.CreatedAt, record.UpdatedAt); err != nil {
		return nil, fmt.Errorf("upsert attendance: %w", err)
	}
	return &stored, nil
}

// ListBySection returns attendance rows for one section, optionally scoped
// to a single date.
func (r *AttendanceRepository) ListBySection(ctx context.Context, sectionID string, date *time.Time) ([]models.AttendanceRow, error) {
	query := `SELECT a.id, a.detail_id, a.date, a.status, a.justification, a.attachment, a.created_at, a.updated_at,
        u.id AS student_id, u.first_name || ' ' || u.last_name AS student_name
        FROM attendance_records a
        JOIN enrollment_details ed ON ed.id = a.detail_id
        JOIN enrollments e ON e.id = ed.enrollment_id
        JOIN users u ON u.id = e.student_id
        WHERE ed.section_id = $1`
	args := []interface{}{sectionID}
	if date != nil {
		query += " AND a.date = $2"
		args = append(args, *date)
	}
	query += " ORDER BY a.date DESC, student_name ASC"

	var rows []models.AttendanceRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list section attendance: %w", err)
	}
	return rows, nil
}

// Summary aggregates presence counts for one detail.
func (r *AttendanceRepository) Summary(ctx context.Context, detailID string) (*models.AttendanceSummary, error) {
	const query = `SELECT $1 AS detail_id,
        COALESCE(SUM(CASE WHEN status = 'PRESENT' THEN 1 ELSE 0 END), 0) AS present,
        COALESCE(SUM(CASE WHEN status = 'ABSENT' THEN 1 ELSE 0 END), 0) AS absent,
        COALESCE(SUM(CASE WHEN status = 'LATE' THEN 1 ELSE 0 END), 0) AS late,
        COUNT(*) AS total
        FROM attendance_records WHERE detail_id = $1`
	var summary models.AttendanceSummary
	if err := r.db.GetContext(ctx, &summary, query, detailID); err != nil {
		return nil, fmt.Errorf("attendance summary: %w", err)
	}
	return &summary, nil
}

// ReplaceWithSummary deletes the detail's records and regenerates synthetic
// dated rows counting back from today. This mirrors the director's bulk
// entry screen; the rows carry no justification and are not an authoritative
// session ledger.
func (r *AttendanceRepository) ReplaceWithSummary(ctx context.Context, detailID string, presents, absents, lates int) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin attendance replace: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM attendance_records WHERE detail_id = $1`, detailID); err != nil {
		return fmt.Errorf("clear attendance: %w", err)
	}

	now := time.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	const insert = `INSERT INTO attendance_records (id, detail_id, date, status, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $5)`

	offset := 0
	insertBatch := func(count int, status models.AttendanceStatus) error {
		for i := 0; i < count; i++ {
			date := today.AddDate(0, 0, -offset)
			offset++
			if _, err := tx.ExecContext(ctx, insert, uuid.NewString(), detailID, date, status, now); err != nil {
				return fmt.Errorf("insert synthetic attendance: %w", err)
			}
		}
		return nil
	}
	if err := insertBatch(presents, models.AttendancePresent); err != nil {
		return err
	}
	if err := insertBatch(absents, models.AttendanceAbsent); err != nil {
		return err
	}
	if err := insertBatch(lates, models.AttendanceLate); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit attendance replace: %w", err)
	}
	return nil
}
