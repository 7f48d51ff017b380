package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-tatib-api/internal/models"
)

// ReportRepository exposes read-only grouped-count queries for reporting.
// Every call recomputes from the base tables within the filtered window; no
// incremental maintenance is performed.
type ReportRepository struct {
	db *sqlx.DB
}

// NewReportRepository instantiates the repository.
func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

func windowConditions(window models.ReportWindow) (string, []interface{}) {
	start, end := window.Range()
	conditions := []string{"vc.created_at >= $1", "vc.created_at < $2"}
	args := []interface{}{start, end}
	if window.InputByID != "" {
		args = append(args, window.InputByID)
		conditions = append(conditions, fmt.Sprintf("vc.input_by_id = $%d", len(args)))
	}
	return strings.Join(conditions, " AND "), args
}

// TotalCases counts cases within the window.
func (r *ReportRepository) TotalCases(ctx context.Context, window models.ReportWindow) (int, error) {
	where, args := windowConditions(window)
	query := fmt.Sprintf("SELECT COUNT(*) FROM violation_cases vc WHERE %s", where)
	var total int
	if err := r.db.GetContext(ctx, &total, query, args...); err != nil {
		return 0, fmt.Errorf("count cases in window: %w", err)
	}
	return total, nil
}

// CountByStatus groups window cases by status.
func (r *ReportRepository) CountByStatus(ctx context.Context, window models.ReportWindow) ([]models.StatusCount, error) {
	where, args := windowConditions(window)
	query := fmt.Sprintf(`SELECT vc.status, COUNT(*) AS count
FROM violation_cases vc WHERE %s GROUP BY vc.status ORDER BY count DESC`, where)
	var counts []models.StatusCount
	if err := r.db.SelectContext(ctx, &counts, query, args...); err != nil {
		return nil, fmt.Errorf("count cases by status: %w", err)
	}
	return counts, nil
}

// CountByCategory groups window cases by violation category and severity.
func (r *ReportRepository) CountByCategory(ctx context.Context, window models.ReportWindow) ([]models.CategoryCount, error) {
	where, args := windowConditions(window)
	query := fmt.Sprintf(`SELECT c.id AS category_id, c.name AS category_name, c.level,
        COUNT(*) AS count, COALESCE(SUM(v.points),0) AS total_points
FROM violation_cases vc
JOIN violations v ON v.id = vc.violation_id
JOIN violation_categories c ON c.id = v.category_id
WHERE %s GROUP BY c.id, c.name, c.level ORDER BY count DESC`, where)
	var counts []models.CategoryCount
	if err := r.db.SelectContext(ctx, &counts, query, args...); err != nil {
		return nil, fmt.Errorf("count cases by category: %w", err)
	}
	return counts, nil
}

// TopStudents ranks students by violation count within the window.
func (r *ReportRepository) TopStudents(ctx context.Context, window models.ReportWindow, limit int) ([]models.TopStudent, error) {
	if limit <= 0 {
		limit = 10
	}
	where, args := windowConditions(window)
	query := fmt.Sprintf(`SELECT s.id AS student_id, s.full_name AS student_name, s.nis,
        COUNT(*) AS case_count, COALESCE(SUM(v.points),0) AS total_points
FROM violation_cases vc
JOIN students s ON s.id = vc.student_id
JOIN violations v ON v.id = vc.violation_id
WHERE %s GROUP BY s.id, s.full_name, s.nis ORDER BY case_count DESC, total_points DESC LIMIT %d`, where, limit)
	var students []models.TopStudent
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, fmt.Errorf("top students: %w", err)
	}
	return students, nil
}

// Trend buckets window cases per week or month.
func (r *ReportRepository) Trend(ctx context.Context, window models.ReportWindow, interval string) ([]models.TrendPoint, error) {
	if interval != "week" {
		interval = "month"
	}
	where, args := windowConditions(window)
	query := fmt.Sprintf(`SELECT DATE_TRUNC('%s', vc.created_at) AS bucket, COUNT(*) AS count
FROM violation_cases vc WHERE %s GROUP BY bucket ORDER BY bucket ASC`, interval, where)
	var points []models.TrendPoint
	if err := r.db.SelectContext(ctx, &points, query, args...); err != nil {
		return nil, fmt.Errorf("case trend: %w", err)
	}
	return points, nil
}

// RecentCases returns the newest cases ordered by last update.
func (r *ReportRepository) RecentCases(ctx context.Context, inputByID string, limit int) ([]models.CaseSummary, error) {
	if limit <= 0 {
		limit = 10
	}
	conditions := []string{"1=1"}
	args := []interface{}{}
	if inputByID != "" {
		args = append(args, inputByID)
		conditions = append(conditions, fmt.Sprintf("vc.input_by_id = $%d", len(args)))
	}
	query := fmt.Sprintf(`SELECT %s
        %s WHERE %s ORDER BY vc.updated_at DESC LIMIT %d`,
		caseSummaryColumns, caseSummaryJoins, strings.Join(conditions, " AND "), limit)
	var cases []models.CaseSummary
	if err := r.db.SelectContext(ctx, &cases, query, args...); err != nil {
		return nil, fmt.Errorf("recent cases: %w", err)
	}
	return cases, nil
}

// RecentActions returns the latest non-deleted follow-up actions.
func (r *ReportRepository) RecentActions(ctx context.Context, limit int) ([]models.CaseAction, error) {
	if limit <= 0 {
		limit = 5
	}
	query := fmt.Sprintf(`SELECT id, case_id, action_type, description, evidence_url, follow_up_date, is_completed, completed_at,
        edited_by_id, edited_at, deleted_by_id, deleted_at, created_at, updated_at
FROM case_actions WHERE deleted_at IS NULL ORDER BY updated_at DESC LIMIT %d`, limit)
	var actions []models.CaseAction
	if err := r.db.SelectContext(ctx, &actions, query); err != nil {
		return nil, fmt.Errorf("recent actions: %w", err)
	}
	return actions, nil
}

// FirstCaseCreatedAt returns the creation time of the reporter's oldest
// case, or nil when the reporter has none.
func (r *ReportRepository) FirstCaseCreatedAt(ctx context.Context, inputByID string) (*time.Time, error) {
	var first sql.NullTime
	const query = `SELECT MIN(created_at) FROM violation_cases WHERE input_by_id = $1`
	if err := r.db.QueryRowxContext(ctx, query, inputByID).Scan(&first); err != nil {
		return nil, fmt.Errorf("first case created at: %w", err)
	}
	if !first.Valid {
		return nil, nil
	}
	return &first.Time, nil
}

// CountByStatusForUser counts a reporter's cases, optionally per status.
func (r *ReportRepository) CountByStatusForUser(ctx context.Context, inputByID string, status models.CaseStatus) (int, error) {
	query := "SELECT COUNT(*) FROM violation_cases WHERE input_by_id = $1"
	args := []interface{}{inputByID}
	if status != "" {
		args = append(args, status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("count user cases: %w", err)
	}
	return count, nil
}
