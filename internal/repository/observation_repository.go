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

// ObservationRepository handles persistence of observations.
type ObservationRepository struct {
	db *sqlx.DB
}

// NewObservationRepository constructs the repository.
func NewObservationRepository(db *sqlx.DB) *ObservationRepository {
	return &ObservationRepository{db: db}
}

// FindByID returns an observation by its ID.
func (r *ObservationRepository) FindByID(ctx context.Context, id string) (*models.Observation, error) {
	const query = `SELECT id, detail_id, professor_id, category, detail, status, created_at, updated_at
        FROM observations WHERE id = $1 LIMIT 1`
	var obs models.Observation
	if err := r.db.GetContext(ctx, &obs, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find observation: %w", err)
	}
	return &obs, nil
}

// Create inserts a new observation.
func (r *ObservationRepository) Create(ctx context.Context, obs *models.Observation) error {
	if obs.ID == "" {
		obs.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if obs.CreatedAt.IsZero() {
		obs.CreatedAt = now
	}
	obs.UpdatedAt = now
	if obs.Status == "" {
		obs.Status = models.ObservationOpen
	}
	const query = `INSERT INTO observations (id, detail_id, professor_id, category, detail, status, created_at, updated_at)
        VALUES (:id, :detail_id, :professor_id, :category, :detail, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, obs); err != nil {
		return fmt.Errorf("create observation: %w", err)
	}
	return nil
}

// Update rewrites category, detail and status of an observation.
func (r *ObservationRepository) Update(ctx context.Context, obs *models.Observation) error {
	obs.UpdatedAt = time.Now().UTC()
	const query = `UPDATE observations SET category = :category, detail = :detail, status = :status, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, obs)
	if err != nil {
		return fmt.Errorf("update observation: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update observation rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// List returns observations with student and professor context.
func (r *ObservationRepository) List(ctx context.Context, filter models.ObservationFilter) ([]models.ObservationRow, error) {
	base := `SELECT o.id, o.detail_id, o.professor_id, o.category, o.detail, o.status, o.created_at, o.updated_at,
        stu.first_name || ' ' || stu.last_name AS student_name,
        prof.first_name || ' ' || prof.last_name AS professor_name,
        sub.name AS subject_name
        FROM observations o
        JOIN enrollment_details ed ON ed.id = o.detail_id
        JOIN enrollments e ON e.id = ed.enrollment_id
        JOIN users stu ON stu.id = e.student_id
        JOIN users prof ON prof.id = o.professor_id
        JOIN section_offerings so ON so.id = ed.section_id
        JOIN subjects sub ON sub.id = so.subject_id`

	var conditions []string
	var args []interface{}
	if filter.SectionID != "" {
		conditions = append(conditions, fmt.Sprintf("ed.section_id = $%d", len(args)+1))
		args = append(args, filter.SectionID)
	}
	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("e.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.Category != "" {
		conditions = append(conditions, fmt.Sprintf("o.category = $%d", len(args)+1))
		args = append(args, filter.Category)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("o.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	query := base
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY o.created_at DESC"

	var rows []models.ObservationRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list observations: %w", err)
	}
	return rows, nil
}
