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

const termColumns = `id, name, start_date, end_date, status, created_at, updated_at`

// TermRepository handles persistence of academic terms.
type TermRepository struct {
	db *sqlx.DB
}

// NewTermRepository constructs the repository.
func NewTermRepository(db *sqlx.DB) *TermRepository {
	return &TermRepository{db: db}
}

// FindByID returns a term by its ID.
func (r *TermRepository) FindByID(ctx context.Context, id string) (*models.Term, error) {
	const query = `SELECT ` + termColumns + ` FROM terms WHERE id = $1 LIMIT 1`
	var term models.Term
	if err := r.db.GetContext(ctx, &term, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find term by id: %w", err)
	}
	return &term, nil
}

// FindActive returns the single active term.
func (r *TermRepository) FindActive(ctx context.Context) (*models.Term, error) {
	const query = `SELECT ` + termColumns + ` FROM terms WHERE status = $1 LIMIT 1`
	var term models.Term
	if err := r.db.GetContext(ctx, &term, query, models.TermStatusActive); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find active term: %w", err)
	}
	return &term, nil
}

// List returns terms with total count.
func (r *TermRepository) List(ctx context.Context, filter models.TermFilter) ([]models.Term, int, error) {
	baseQuery := `FROM terms WHERE 1=1`
	var args []interface{}
	if filter.Status != "" {
		baseQuery += fmt.Sprintf(" AND status = $%d", len(args)+1)
		args = append(args, filter.Status)
	}

	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
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

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY start_date %s LIMIT %d OFFSET %d", termColumns, baseQuery, order, size, offset)
	var terms []models.Term
	if err := r.db.SelectContext(ctx, &terms, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list terms: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count terms: %w", err)
	}
	return terms, total, nil
}

// Create inserts a new term. New terms start closed.
func (r *TermRepository) Create(ctx context.Context, term *models.Term) error {
	if term.ID == "" {
		term.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if term.CreatedAt.IsZero() {
		term.CreatedAt = now
	}
	term.UpdatedAt = now
	if term.Status == "" {
		term.Status = models.TermStatusClosed
	}
	const query = `INSERT INTO terms (id, name, start_date, end_date, status, created_at, updated_at)
        VALUES (:id, :name, :start_date, :end_date, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, term); err != nil {
		return fmt.Errorf("create term: %w", err)
	}
	return nil
}

// Activate makes the term the single active one. Closing the previous active
// term and opening the new one happen in the same transaction.
func (r *TermRepository) Activate(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin activate term: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx, `UPDATE terms SET status = $1, updated_at = $2 WHERE status = $3`,
		models.TermStatusClosed, now, models.TermStatusActive); err != nil {
		return fmt.Errorf("close active terms: %w", err)
	}
	res, err := tx.ExecContext(ctx, `UPDATE terms SET status = $1, updated_at = $2 WHERE id = $3`,
		models.TermStatusActive, now, id)
	if err != nil {
		return fmt.Errorf("activate term: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("activate term rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit activate term: %w", err)
	}
	return nil
}

// Close marks a term as closed.
func (r *TermRepository) Close(ctx context.Context, id string) error {
	const query = `UPDATE terms SET status = $1, updated_at = $2 WHERE id = $3`
	res, err := r.db.ExecContext(ctx, query, models.TermStatusClosed, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("close term: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("close term rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
