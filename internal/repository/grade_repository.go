package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/siga-api/internal/models"
)

const gradeColumns = `id, detail_id, tasks, classwork, project, participation, quizzes, exams, average, created_at, updated_at`

// GradeRepository handles persistence of grade records.
type GradeRepository struct {
	db *sqlx.DB
}

// NewGradeRepository constructs the repository.
func NewGradeRepository(db *sqlx.DB) *GradeRepository {
	return &GradeRepository{db: db}
}

// FindByDetail returns the grade record of an enrollment detail.
func (r *GradeRepository) FindByDetail(ctx context.Context, detailID string) (*models.GradeRecord, error) {
	const query = `SELECT ` + gradeColumns + ` FROM grade_records WHERE detail_id = $1 LIMIT 1`
	var record models.GradeRecord
	if err := r.db.GetContext(ctx, &record, query, detailID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find grade record: %w", err)
	}
	return &record, nil
}

// Upsert stores the full merged record including the recomputed average. The
// write is keyed by detail_id so every detail keeps exactly one record.
func (r *GradeRepository) Upsert(ctx context.Context, record *models.GradeRecord) (*models.GradeRecord, error) {
	now := time.Now().UTC()
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now
	const query = `INSERT INTO grade_records (id, detail_id, tasks, classwork, project, participation, quizzes, exams, average, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
        ON CONFLICT (detail_id)
        DO UPDATE SET tasks = EXCLUDED.tasks, classwork = EXCLUDED.classwork, project = EXCLUDED.project,
            participation = EXCLUDED.participation, quizzes = EXCLUDED.quizzes, exams = EXCLUDED.exams,
            average = EXCLUDED.average, updated_at = EXCLUDED.updated_at
        RETURNING ` + gradeColumns
	var stored models.GradeRecord
	if err := r.db.GetContext(ctx, &stored, query,
		record.ID, record.DetailID, record.Tasks, record.Classwork, record.Project,
		record.Participation, record.Quizzes, record.Exams, record.Average,
		record.CreatedAt, record.UpdatedAt); err != nil {
		return nil, fmt.Errorf("upsert grade record: %w", err)
	}
	return &stored, nil
}

// ListBySection returns grade rows with student names for one section.
func (r *GradeRepository) ListBySection(ctx context.Context, sectionID string) ([]models.GradeRow, error) {
	const query = `SELECT g.id, g.detail_id, g.tasks, g.classwork, g.project, g.participation, g.quizzes, g.exams,
        g.average, g.created_at, g.updated_at,
        u.id AS student_id, u.first_name || ' ' || u.last_name AS student_name
        FROM grade_records g
        JOIN enrollment_details ed ON ed.id = g.detail_id
        JOIN enrollments e ON e.id = ed.enrollment_id
        JOIN users u ON u.id = e.student_id
        WHERE ed.section_id = $1
        ORDER BY student_name ASC`
	var rows []models.GradeRow
	if err := r.db.SelectContext(ctx, &rows, query, sectionID); err != nil {
		return nil, fmt.Errorf("list section grades: %w", err)
	}
	return rows, nil
}

// ListByStudent returns a student's averages per subject for a term.
func (r *GradeRepository) ListByStudent(ctx context.Context, studentID, termID string) ([]models.StudentGrade, error) {
	const query = `SELECT ed.id AS detail_id, sub.name AS subject_name, COALESCE(g.average, 0) AS average
        FROM enrollment_details ed
        JOIN enrollments e ON e.id = ed.enrollment_id
        JOIN section_offerings so ON so.id = ed.section_id
        JOIN subjects sub ON sub.id = so.subject_id
        LEFT JOIN grade_records g ON g.detail_id = ed.id
        WHERE e.student_id = $1 AND e.term_id = $2
        ORDER BY subject_name ASC`
	var grades []models.StudentGrade
	if err := r.db.SelectContext(ctx, &grades, query, studentID, termID); err != nil {
		return nil, fmt.Errorf("list student grades: %w", err)
	}
	return grades, nil
}
