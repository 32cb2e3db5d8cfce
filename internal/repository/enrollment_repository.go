package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/siga-api/internal/models"
)

// Sentinel errors surfaced by the enrollment transaction. The service layer
// maps them onto the API error taxonomy.
var (
	// ErrSubjectLimitReached means the conditional subject_count increment
	// matched no row: the student already carries the maximum subjects.
	ErrSubjectLimitReached = errors.New("enrollment subject limit reached")
	// ErrSectionFull means the conditional seat increment matched no row:
	// the section has no remaining capacity.
	ErrSectionFull = errors.New("section offering is full")
)

// EnrollmentRepository handles persistence of enrollments and their details.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// FindByStudentAndTerm returns the enrollment for (student, term).
func (r *EnrollmentRepository) FindByStudentAndTerm(ctx context.Context, studentID, termID string) (*models.Enrollment, error) {
	const query = `SELECT id, student_id, term_id, subject_count, created_at FROM enrollments WHERE student_id = $1 AND term_id = $2 LIMIT 1`
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, studentID, termID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find enrollment: %w", err)
	}
	return &enrollment, nil
}

// Create persists a new enrollment record with a zero subject count.
func (r *EnrollmentRepository) Create(ctx context.Context, enrollment *models.Enrollment) error {
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	if enrollment.CreatedAt.IsZero() {
		enrollment.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO enrollments (id, student_id, term_id, subject_count, created_at)
        VALUES (:id, :student_id, :term_id, :subject_count, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, enrollment); err != nil {
		return fmt.Errorf("create enrollment: %w", err)
	}
	return nil
}

// FindDetailByID returns a single enrollment detail.
func (r *EnrollmentRepository) FindDetailByID(ctx context.Context, id string) (*models.EnrollmentDetail, error) {
	const query = `SELECT id, enrollment_id, section_id, status, created_at FROM enrollment_details WHERE id = $1 LIMIT 1`
	var detail models.EnrollmentDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find enrollment detail: %w", err)
	}
	return &detail, nil
}

// DetailExists reports whether the enrollment already holds the section.
func (r *EnrollmentRepository) DetailExists(ctx context.Context, enrollmentID, sectionID string) (bool, error) {
	const query = `SELECT 1 FROM enrollment_details WHERE enrollment_id = $1 AND section_id = $2 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, enrollmentID, sectionID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check enrollment detail: %w", err)
	}
	return true, nil
}

// Enroll registers the enrollment in the section as one atomic unit. Both
// counters move through conditional updates whose rows-affected result is
// checked, so concurrent callers racing for the last seat (or the last
// subject slot) serialise on the row locks and at most max_seats seats are
// ever handed out.
func (r *EnrollmentRepository) Enroll(ctx context.Context, enrollmentID, sectionID string, maxSubjects int) (*models.EnrollmentDetail, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin enroll: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.ExecContext(ctx,
		`UPDATE enrollments SET subject_count = subject_count + 1 WHERE id = $1 AND subject_count < $2`,
		enrollmentID, maxSubjects)
	if err != nil {
		return nil, fmt.Errorf("increment subject count: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("subject count rows: %w", err)
	}
	if affected == 0 {
		return nil, ErrSubjectLimitReached
	}

	res, err = tx.ExecContext(ctx,
		`UPDATE section_offerings SET current_seats = current_seats + 1, updated_at = $2 WHERE id = $1 AND current_seats < max_seats`,
		sectionID, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("claim seat: %w", err)
	}
	affected, err = res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("claim seat rows: %w", err)
	}
	if affected == 0 {
		return nil, ErrSectionFull
	}

	detail := &models.EnrollmentDetail{
		ID:           uuid.NewString(),
		EnrollmentID: enrollmentID,
		SectionID:    sectionID,
		Status:       models.DetailStatusEnrolled,
		CreatedAt:    time.Now().UTC(),
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO enrollment_details (id, enrollment_id, section_id, status, created_at) VALUES ($1, $2, $3, $4, $5)`,
		detail.ID, detail.EnrollmentID, detail.SectionID, detail.Status, detail.CreatedAt); err != nil {
		return nil, fmt.Errorf("insert enrollment detail: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit enroll: %w", err)
	}
	return detail, nil
}

// Withdraw removes a detail and releases its seat and subject slot in one
// transaction. Counters never go below zero.
func (r *EnrollmentRepository) Withdraw(ctx context.Context, detailID string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin withdraw: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var detail models.EnrollmentDetail
	if err := tx.GetContext(ctx, &detail,
		`SELECT id, enrollment_id, section_id, status, created_at FROM enrollment_details WHERE id = $1 FOR UPDATE`, detailID); err != nil {
		if err == sql.ErrNoRows {
			return err
		}
		return fmt.Errorf("load detail for withdraw: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM enrollment_details WHERE id = $1`, detailID); err != nil {
		return fmt.Errorf("delete enrollment detail: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE enrollments SET subject_count = subject_count - 1 WHERE id = $1 AND subject_count > 0`,
		detail.EnrollmentID); err != nil {
		return fmt.Errorf("decrement subject count: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE section_offerings SET current_seats = current_seats - 1, updated_at = $2 WHERE id = $1 AND current_seats > 0`,
		detail.SectionID, time.Now().UTC()); err != nil {
		return fmt.Errorf("release seat: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit withdraw: %w", err)
	}
	return nil
}

// Roster returns the students registered in a section.
func (r *EnrollmentRepository) Roster(ctx context.Context, sectionID string) ([]models.RosterEntry, error) {
	const query = `SELECT ed.id AS detail_id, u.id AS student_id,
        u.first_name || ' ' || u.last_name AS student_name, u.email, ed.status
        FROM enrollment_details ed
        JOIN enrollments e ON e.id = ed.enrollment_id
        JOIN users u ON u.id = e.student_id
        WHERE ed.section_id = $1
        ORDER BY student_name ASC`
	var roster []models.RosterEntry
	if err := r.db.SelectContext(ctx, &roster, query, sectionID); err != nil {
		return nil, fmt.Errorf("section roster: %w", err)
	}
	return roster, nil
}

// ListStudentSections returns a student's registrations for a term with
// subject and professor context.
func (r *EnrollmentRepository) ListStudentSections(ctx context.Context, studentID, termID string) ([]models.StudentSection, error) {
	const query = `SELECT ed.id AS detail_id, so.id AS section_id, sub.name AS subject_name, sub.code AS subject_code,
        p.first_name || ' ' || p.last_name AS professor_name, so.room, so.schedule, ed.status, g.average
        FROM enrollment_details ed
        JOIN enrollments e ON e.id = ed.enrollment_id
        JOIN section_offerings so ON so.id = ed.section_id
        JOIN subjects sub ON sub.id = so.subject_id
        JOIN users p ON p.id = so.professor_id
        LEFT JOIN grade_records g ON g.detail_id = ed.id
        WHERE e.student_id = $1 AND e.term_id = $2
        ORDER BY subject_name ASC`
	var sections []models.StudentSection
	if err := r.db.SelectContext(ctx, &sections, query, studentID, termID); err != nil {
		return nil, fmt.Errorf("list student sections: %w", err)
	}
	return sections, nil
}

// CloseTermOutcomes flips ENROLLED details of a term to PASSED or FAILED
// based on the stored grade average. Details without a grade record fail.
func (r *EnrollmentRepository) CloseTermOutcomes(ctx context.Context, termID string, passingAverage float64) (int64, error) {
	const query = `UPDATE enrollment_details ed
        SET status = CASE
            WHEN COALESCE((SELECT g.average FROM grade_records g WHERE g.detail_id = ed.id), 0) >= $2 THEN 'PASSED'
            ELSE 'FAILED'
        END
        WHERE ed.status = 'ENROLLED'
        AND ed.section_id IN (SELECT id FROM section_offerings WHERE term_id = $1)`
	res, err := r.db.ExecContext(ctx, query, termID, passingAverage)
	if err != nil {
		return 0, fmt.Errorf("close term outcomes: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("close term outcomes rows: %w", err)
	}
	return affected, nil
}
