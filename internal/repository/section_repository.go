package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/siga-api/internal/models"
)

// SectionRepository handles persistence of section offerings.
type SectionRepository struct {
	db *sqlx.DB
}

// NewSectionRepository constructs the repository.
func NewSectionRepository(db *sqlx.DB) *SectionRepository {
	return &SectionRepository{db: db}
}

const sectionDetailSelect = `SELECT so.id, so.subject_id, so.term_id, so.professor_id, so.room, so.schedule,
        so.max_seats, so.current_seats, so.created_at, so.updated_at,
        sub.name AS subject_name, sub.code AS subject_code, t.name AS term_name,
        p.first_name || ' ' || p.last_name AS professor_name,
        (so.max_seats - so.current_seats) AS available_seats
        FROM section_offerings so
        JOIN subjects sub ON sub.id = so.subject_id
        JOIN terms t ON t.id = so.term_id
        JOIN users p ON p.id = so.professor_id`

// FindByID returns a section offering by its ID.
func (r *SectionRepository) FindByID(ctx context.Context, id string) (*models.SectionOffering, error) {
	const query = `SELECT id, subject_id, term_id, professor_id, room, schedule, max_seats, current_seats, created_at, updated_at
        FROM section_offerings WHERE id = $1 LIMIT 1`
	var section models.SectionOffering
	if err := r.db.GetContext(ctx, &section, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find section by id: %w", err)
	}
	return &section, nil
}

// FindDetailByID returns a section with catalog context.
func (r *SectionRepository) FindDetailByID(ctx context.Context, id string) (*models.SectionDetail, error) {
	query := sectionDetailSelect + ` WHERE so.id = $1`
	var detail models.SectionDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find section detail: %w", err)
	}
	return &detail, nil
}

// List returns section offerings filtered by the provided criteria.
func (r *SectionRepository) List(ctx context.Context, filter models.SectionFilter) ([]models.SectionDetail, int, error) {
	var conditions []string
	var args []interface{}
	if filter.SubjectID != "" {
		conditions = append(conditions, fmt.Sprintf("so.subject_id = $%d", len(args)+1))
		args = append(args, filter.SubjectID)
	}
	if filter.TermID != "" {
		conditions = append(conditions, fmt.Sprintf("so.term_id = $%d", len(args)+1))
		args = append(args, filter.TermID)
	}
	if filter.ProfessorID != "" {
		conditions = append(conditions, fmt.Sprintf("so.professor_id = $%d", len(args)+1))
		args = append(args, filter.ProfessorID)
	}
	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("%s%s ORDER BY sub.name %s LIMIT %d OFFSET %d", sectionDetailSelect, clause, order, size, offset)
	var sections []models.SectionDetail
	if err := r.db.SelectContext(ctx, &sections, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list sections: %w", err)
	}

	countBase := `FROM section_offerings so
        JOIN subjects sub ON sub.id = so.subject_id
        JOIN terms t ON t.id = so.term_id
        JOIN users p ON p.id = so.professor_id`
	countQuery := fmt.Sprintf("SELECT COUNT(*) %s%s", countBase, clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count sections: %w", err)
	}
	return sections, total, nil
}

// ListAvailable returns the sections of a term a student can still register
// in: seats remaining and not already registered by the student.
func (r *SectionRepository) ListAvailable(ctx context.Context, studentID, termID string) ([]models.SectionDetail, error) {
	query := sectionDetailSelect + ` WHERE so.term_id = $1
        AND so.current_seats < so.max_seats
        AND so.id NOT IN (
            SELECT ed.section_id FROM enrollment_details ed
            JOIN enrollments e ON e.id = ed.enrollment_id
            WHERE e.student_id = $2 AND e.term_id = $1
        )
        ORDER BY sub.name ASC`
	var sections []models.SectionDetail
	if err := r.db.SelectContext(ctx, &sections, query, termID, studentID); err != nil {
		return nil, fmt.Errorf("list available sections: %w", err)
	}
	return sections, nil
}

// Create inserts a new section offering with zero occupied seats.
func (r *SectionRepository) Create(ctx context.Context, section *models.SectionOffering) error {
	if section.ID == "" {
		section.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if section.CreatedAt.IsZero() {
		section.CreatedAt = now
	}
	section.UpdatedAt = now
	const query = `INSERT INTO section_offerings (id, subject_id, term_id, professor_id, room, schedule, max_seats, current_seats, created_at, updated_at)
        VALUES (:id, :subject_id, :term_id, :professor_id, :room, :schedule, :max_seats, :current_seats, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, section); err != nil {
		return fmt.Errorf("create section: %w", err)
	}
	return nil
}

// Update updates room, schedule and capacity of a section. Capacity can only
// grow past the current seat count.
func (r *SectionRepository) Update(ctx context.Context, section *models.SectionOffering) error {
	section.UpdatedAt = time.Now().UTC()
	const query = `UPDATE section_offerings SET room = :room, schedule = :schedule, max_seats = :max_seats, updated_at = :updated_at
        WHERE id = :id AND :max_seats >= current_seats`
	res, err := r.db.NamedExecContext(ctx, query, section)
	if err != nil {
		return fmt.Errorf("update section: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update section rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
