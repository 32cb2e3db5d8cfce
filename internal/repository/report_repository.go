package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/siga-api/internal/models"
)

// ReportRepository runs the read-side aggregation queries backing dashboards,
// alerts and the consolidated report. It owns no state; everything is
// recomputed per call.
type ReportRepository struct {
	db *sqlx.DB
}

// NewReportRepository constructs the repository.
func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// CountActiveUsers counts active accounts holding the given role.
func (r *ReportRepository) CountActiveUsers(ctx context.Context, role models.UserRole) (int, error) {
	const query = `SELECT COUNT(*) FROM users WHERE role = $1 AND active = TRUE`
	var count int
	if err := r.db.GetContext(ctx, &count, query, role); err != nil {
		return 0, fmt.Errorf("count active users: %w", err)
	}
	return count, nil
}

// GlobalGradeAverage averages stored grade averages over currently enrolled
// details, optionally scoped to one term.
func (r *ReportRepository) GlobalGradeAverage(ctx context.Context, termID string) (float64, error) {
	query := `SELECT COALESCE(AVG(g.average), 0)
        FROM grade_records g
        JOIN enrollment_details ed ON ed.id = g.detail_id
        WHERE ed.status = 'ENROLLED'`
	var args []interface{}
	if termID != "" {
		query += ` AND ed.section_id IN (SELECT id FROM section_offerings WHERE term_id = $1)`
		args = append(args, termID)
	}
	var avg float64
	if err := r.db.GetContext(ctx, &avg, query, args...); err != nil {
		return 0, fmt.Errorf("global grade average: %w", err)
	}
	return avg, nil
}

// GlobalAttendancePercent computes the overall present ratio, optionally
// scoped to one term. Zero when no attendance has been recorded.
func (r *ReportRepository) GlobalAttendancePercent(ctx context.Context, termID string) (float64, error) {
	query := `SELECT COALESCE(SUM(CASE WHEN a.status = 'PRESENT' THEN 1 ELSE 0 END) * 100.0 / NULLIF(COUNT(*), 0), 0)
        FROM attendance_records a
        JOIN enrollment_details ed ON ed.id = a.detail_id`
	var args []interface{}
	if termID != "" {
		query += ` WHERE ed.section_id IN (SELECT id FROM section_offerings WHERE term_id = $1)`
		args = append(args, termID)
	}
	var percent float64
	if err := r.db.GetContext(ctx, &percent, query, args...); err != nil {
		return 0, fmt.Errorf("global attendance percent: %w", err)
	}
	return percent, nil
}

// LowGradeCount counts enrolled details whose average sits below the
// threshold.
func (r *ReportRepository) LowGradeCount(ctx context.Context, termID string, threshold float64) (int, error) {
	query := `SELECT COUNT(*)
        FROM grade_records g
        JOIN enrollment_details ed ON ed.id = g.detail_id
        WHERE ed.status = 'ENROLLED' AND g.average < $1`
	args := []interface{}{threshold}
	if termID != "" {
		query += ` AND ed.section_id IN (SELECT id FROM section_offerings WHERE term_id = $2)`
		args = append(args, termID)
	}
	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("low grade count: %w", err)
	}
	return count, nil
}

// LowAttendanceCount counts details whose attendance percentage sits below
// the threshold.
func (r *ReportRepository) LowAttendanceCount(ctx context.Context, termID string, threshold float64) (int, error) {
	query := `SELECT COUNT(*) FROM (
        SELECT a.detail_id
        FROM attendance_records a
        JOIN enrollment_details ed ON ed.id = a.detail_id`
	args := []interface{}{threshold}
	if termID != "" {
		query += ` WHERE ed.section_id IN (SELECT id FROM section_offerings WHERE term_id = $2)`
		args = append(args, termID)
	}
	query += `
        GROUP BY a.detail_id
        HAVING SUM(CASE WHEN a.status = 'PRESENT' THEN 1 ELSE 0 END) * 100.0 / NULLIF(COUNT(*), 0) < $1
    ) low`
	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("low attendance count: %w", err)
	}
	return count, nil
}

func alertScope(filter models.AlertFilter, args *[]interface{}) string {
	var conditions []string
	if filter.TermID != "" {
		conditions = append(conditions, fmt.Sprintf("so.term_id = $%d", len(*args)+1))
		*args = append(*args, filter.TermID)
	}
	if filter.SectionID != "" {
		conditions = append(conditions, fmt.Sprintf("so.id = $%d", len(*args)+1))
		*args = append(*args, filter.SectionID)
	}
	if filter.ProfessorID != "" {
		conditions = append(conditions, fmt.Sprintf("so.professor_id = $%d", len(*args)+1))
		*args = append(*args, filter.ProfessorID)
	}
	if len(conditions) == 0 {
		return ""
	}
	return " AND " + strings.Join(conditions, " AND ")
}

// LowPerformanceAlerts lists enrolled details below the passing threshold,
// worst first.
func (r *ReportRepository) LowPerformanceAlerts(ctx context.Context, filter models.AlertFilter, threshold float64) ([]models.LowPerformanceAlert, error) {
	args := []interface{}{threshold}
	scope := alertScope(filter, &args)
	query := fmt.Sprintf(`SELECT ed.id AS detail_id,
        stu.first_name || ' ' || stu.last_name AS student_name,
        sub.name AS subject_name, g.average
        FROM grade_records g
        JOIN enrollment_details ed ON ed.id = g.detail_id
        JOIN enrollments e ON e.id = ed.enrollment_id
        JOIN users stu ON stu.id = e.student_id
        JOIN section_offerings so ON so.id = ed.section_id
        JOIN subjects sub ON sub.id = so.subject_id
        WHERE ed.status = 'ENROLLED' AND g.average < $1%s
        ORDER BY g.average ASC`, scope)
	var alerts []models.LowPerformanceAlert
	if err := r.db.SelectContext(ctx, &alerts, query, args...); err != nil {
		return nil, fmt.Errorf("low performance alerts: %w", err)
	}
	return alerts, nil
}

// LowAttendanceAlerts lists details below the attendance threshold with their
// absence counts, worst first.
func (r *ReportRepository) LowAttendanceAlerts(ctx context.Context, filter models.AlertFilter, threshold float64) ([]models.LowAttendanceAlert, error) {
	args := []interface{}{threshold}
	scope := alertScope(filter, &args)
	query := fmt.Sprintf(`SELECT ed.id AS detail_id,
        stu.first_name || ' ' || stu.last_name AS student_name,
        sub.name AS subject_name,
        SUM(CASE WHEN a.status = 'PRESENT' THEN 1 ELSE 0 END) * 100.0 / NULLIF(COUNT(*), 0) AS percent,
        SUM(CASE WHEN a.status = 'ABSENT' THEN 1 ELSE 0 END) AS absences
        FROM attendance_records a
        JOIN enrollment_details ed ON ed.id = a.detail_id
        JOIN enrollments e ON e.id = ed.enrollment_id
        JOIN users stu ON stu.id = e.student_id
        JOIN section_offerings so ON so.id = ed.section_id
        JOIN subjects sub ON sub.id = so.subject_id
        WHERE 1=1%s
        GROUP BY ed.id, stu.first_name, stu.last_name, sub.name
        HAVING SUM(CASE WHEN a.status = 'PRESENT' THEN 1 ELSE 0 END) * 100.0 / NULLIF(COUNT(*), 0) < $1
        ORDER BY percent ASC`, scope)
	var alerts []models.LowAttendanceAlert
	if err := r.db.SelectContext(ctx, &alerts, query, args...); err != nil {
		return nil, fmt.Errorf("low attendance alerts: %w", err)
	}
	return alerts, nil
}

// SectionReport aggregates per-section counts and averages for the
// consolidated report.
func (r *ReportRepository) SectionReport(ctx context.Context, filter models.ReportFilter, passingAverage float64) ([]models.SectionReportRow, error) {
	args := []interface{}{passingAverage, filter.TermID}
	var conditions []string
	if filter.ProfessorID != "" {
		conditions = append(conditions, fmt.Sprintf("so.professor_id = $%d", len(args)+1))
		args = append(args, filter.ProfessorID)
	}
	if filter.SubjectID != "" {
		conditions = append(conditions, fmt.Sprintf("so.subject_id = $%d", len(args)+1))
		args = append(args, filter.SubjectID)
	}
	scope := ""
	if len(conditions) > 0 {
		scope = " AND " + strings.Join(conditions, " AND ")
	}
	query := fmt.Sprintf(`SELECT so.id AS section_id, sub.name AS subject_name,
        p.first_name || ' ' || p.last_name AS professor_name,
        COUNT(ed.id) AS students,
        AVG(g.average) AS average,
        COALESCE(SUM(CASE WHEN g.average >= $1 THEN 1 ELSE 0 END), 0) AS passed,
        COALESCE(SUM(CASE WHEN g.average < $1 THEN 1 ELSE 0 END), 0) AS failed
        FROM section_offerings so
        JOIN subjects sub ON sub.id = so.subject_id
        JOIN users p ON p.id = so.professor_id
        LEFT JOIN enrollment_details ed ON ed.section_id = so.id
        LEFT JOIN grade_records g ON g.detail_id = ed.id
        WHERE so.term_id = $2%s
        GROUP BY so.id, sub.name, p.first_name, p.last_name
        ORDER BY subject_name ASC`, scope)
	var rows []models.SectionReportRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("section report: %w", err)
	}
	return rows, nil
}
