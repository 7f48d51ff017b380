package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-tatib-api/internal/models"
)

// CaseRepository manages violation cases with their actions and sanctions.
type CaseRepository struct {
	db *sqlx.DB
}

// NewCaseRepository constructs a CaseRepository.
func NewCaseRepository(db *sqlx.DB) *CaseRepository {
	return &CaseRepository{db: db}
}

const caseSummaryColumns = `vc.id, vc.case_number, vc.student_id, vc.violation_id, vc.input_by_id, vc.violation_date,
        vc.description, vc.evidence_urls, vc.location, vc.witness, vc.status, vc.notes, vc.created_at, vc.updated_at,
        s.full_name AS student_name, s.nis AS student_nis,
        v.name AS violation_name, v.points AS violation_points, c.level AS category_level,
        u.full_name AS input_by_name`

const caseSummaryJoins = `FROM violation_cases vc
        JOIN students s ON s.id = vc.student_id
        JOIN violations v ON v.id = vc.violation_id
        JOIN violation_categories c ON c.id = v.category_id
        JOIN users u ON u.id = vc.input_by_id`

// CountInMonth returns how many cases were recorded for the given month.
// Used to derive the next case-number sequence; there is no retry guard
// around the read-then-insert, the unique constraint on case_number catches
// the race.
func (r *CaseRepository) CountInMonth(ctx context.Context, year int, month time.Month) (int, error) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)
	var count int
	const query = `SELECT COUNT(*) FROM violation_cases WHERE created_at >= $1 AND created_at < $2`
	if err := r.db.GetContext(ctx, &count, query, start, end); err != nil {
		return 0, fmt.Errorf("count cases in month: %w", err)
	}
	return count, nil
}

// Create inserts a new violation case.
func (r *CaseRepository) Create(ctx context.Context, vc *models.ViolationCase) error {
	if vc.ID == "" {
		vc.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if vc.CreatedAt.IsZero() {
		vc.CreatedAt = now
	}
	vc.UpdatedAt = now
	const query = `INSERT INTO violation_cases (id, case_number, student_id, violation_id, input_by_id, violation_date,
        description, evidence_urls, location, witness, status, notes, created_at, updated_at)
        VALUES (:id, :case_number, :student_id, :violation_id, :input_by_id, :violation_date,
        :description, :evidence_urls, :location, :witness, :status, :notes, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, vc); err != nil {
		return fmt.Errorf("create violation case: %w", err)
	}
	return nil
}

// List returns case summaries matching the filter.
func (r *CaseRepository) List(ctx context.Context, filter models.CaseFilter) ([]models.CaseSummary, int, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}

	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("vc.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("vc.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.InputByID != "" {
		conditions = append(conditions, fmt.Sprintf("vc.input_by_id = $%d", len(args)+1))
		args = append(args, filter.InputByID)
	}
	if filter.DateFrom != nil {
		conditions = append(conditions, fmt.Sprintf("vc.violation_date >= $%d", len(args)+1))
		args = append(args, *filter.DateFrom)
	}
	if filter.DateTo != nil {
		conditions = append(conditions, fmt.Sprintf("vc.violation_date <= $%d", len(args)+1))
		args = append(args, *filter.DateTo)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(vc.case_number) LIKE $%d OR LOWER(s.full_name) LIKE $%d OR LOWER(s.nis) LIKE $%d)",
			len(args)+1, len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	whereClause := strings.Join(conditions, " AND ")
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT %s
        %s WHERE %s ORDER BY vc.updated_at DESC LIMIT %d OFFSET %d`,
		caseSummaryColumns, caseSummaryJoins, whereClause, size, offset)

	var cases []models.CaseSummary
	if err := r.db.SelectContext(ctx, &cases, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list cases: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s WHERE %s", caseSummaryJoins, whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count cases: %w", err)
	}
	return cases, total, nil
}

// FindByID fetches a case summary by ID.
func (r *CaseRepository) FindByID(ctx context.Context, id string) (*models.CaseSummary, error) {
	query := fmt.Sprintf("SELECT %s %s WHERE vc.id = $1", caseSummaryColumns, caseSummaryJoins)
	var summary models.CaseSummary
	if err := r.db.GetContext(ctx, &summary, query, id); err != nil {
		return nil, err
	}
	return &summary, nil
}

// UpdateStatus sets the case status directly. Last write wins; no version
// token protects concurrent updates.
func (r *CaseRepository) UpdateStatus(ctx context.Context, id string, status models.CaseStatus, notes string) error {
	const query = `UPDATE violation_cases SET status = $2, notes = $3, updated_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, notes, time.Now().UTC()); err != nil {
		return fmt.Errorf("update case status: %w", err)
	}
	return nil
}

// ListActions returns non-deleted follow-up actions for a case.
func (r *CaseRepository) ListActions(ctx context.Context, caseID string) ([]models.CaseAction, error) {
	const query = `SELECT id, case_id, action_type, description, evidence_url, follow_up_date, is_completed, completed_at,
        edited_by_id, edited_at, deleted_by_id, deleted_at, created_at, updated_at
        FROM case_actions WHERE case_id = $1 AND deleted_at IS NULL ORDER BY created_at DESC`
	var actions []models.CaseAction
	if err := r.db.SelectContext(ctx, &actions, query, caseID); err != nil {
		return nil, fmt.Errorf("list case actions: %w", err)
	}
	return actions, nil
}

// FindActionByID fetches a follow-up action regardless of deletion state.
func (r *CaseRepository) FindActionByID(ctx context.Context, id string) (*models.CaseAction, error) {
	const query = `SELECT id, case_id, action_type, description, evidence_url, follow_up_date, is_completed, completed_at,
        edited_by_id, edited_at, deleted_by_id, deleted_at, created_at, updated_at
        FROM case_actions WHERE id = $1`
	var action models.CaseAction
	if err := r.db.GetContext(ctx, &action, query, id); err != nil {
		return nil, err
	}
	return &action, nil
}

// CreateAction appends a follow-up action to a case.
func (r *CaseRepository) CreateAction(ctx context.Context, action *models.CaseAction) error {
	if action.ID == "" {
		action.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if action.CreatedAt.IsZero() {
		action.CreatedAt = now
	}
	action.UpdatedAt = now
	const query = `INSERT INTO case_actions (id, case_id, action_type, description, evidence_url, follow_up_date,
        is_completed, completed_at, created_at, updated_at)
        VALUES (:id, :case_id, :action_type, :description, :evidence_url, :follow_up_date,
        :is_completed, :completed_at, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, action); err != nil {
		return fmt.Errorf("create case action: %w", err)
	}
	return nil
}

// UpdateAction modifies a follow-up action, stamping the soft-edit fields.
func (r *CaseRepository) UpdateAction(ctx context.Context, action *models.CaseAction) error {
	action.UpdatedAt = time.Now().UTC()
	const query = `UPDATE case_actions SET action_type = :action_type, description = :description, evidence_url = :evidence_url,
        follow_up_date = :follow_up_date, is_completed = :is_completed, completed_at = :completed_at,
        edited_by_id = :edited_by_id, edited_at = :edited_at, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, action); err != nil {
		return fmt.Errorf("update case action: %w", err)
	}
	return nil
}

// SoftDeleteAction marks an action deleted without removing the row.
func (r *CaseRepository) SoftDeleteAction(ctx context.Context, id, deletedByID string) error {
	now := time.Now().UTC()
	const query = `UPDATE case_actions SET deleted_by_id = $2, deleted_at = $3, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, deletedByID, now); err != nil {
		return fmt.Errorf("soft delete case action: %w", err)
	}
	return nil
}

// ListSanctions returns sanctions attached to a case.
func (r *CaseRepository) ListSanctions(ctx context.Context, caseID string) ([]models.Sanction, error) {
	const query = `SELECT id, case_id, sanction_type_id, start_date, end_date, notes, is_completed, completed_at, created_at, updated_at
        FROM sanctions WHERE case_id = $1 ORDER BY created_at DESC`
	var sanctions []models.Sanction
	if err := r.db.SelectContext(ctx, &sanctions, query, caseID); err != nil {
		return nil, fmt.Errorf("list sanctions: %w", err)
	}
	return sanctions, nil
}

// FindSanctionByID fetches one sanction.
func (r *CaseRepository) FindSanctionByID(ctx context.Context, id string) (*models.Sanction, error) {
	const query = `SELECT id, case_id, sanction_type_id, start_date, end_date, notes, is_completed, completed_at, created_at, updated_at
        FROM sanctions WHERE id = $1`
	var sanction models.Sanction
	if err := r.db.GetContext(ctx, &sanction, query, id); err != nil {
		return nil, err
	}
	return &sanction, nil
}

// CreateSanction appends a sanction to a case.
func (r *CaseRepository) CreateSanction(ctx context.Context, sanction *models.Sanction) error {
	if sanction.ID == "" {
		sanction.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if sanction.CreatedAt.IsZero() {
		sanction.CreatedAt = now
	}
	sanction.UpdatedAt = now
	const query = `INSERT INTO sanctions (id, case_id, sanction_type_id, start_date, end_date, notes, is_completed, completed_at, created_at, updated_at)
        VALUES (:id, :case_id, :sanction_type_id, :start_date, :end_date, :notes, :is_completed, :completed_at, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, sanction); err != nil {
		return fmt.Errorf("create sanction: %w", err)
	}
	return nil
}

// SetSanctionCompleted flips the completion flag. The parent case status is
// not touched: case status and child completion are independently writable.
func (r *CaseRepository) SetSanctionCompleted(ctx context.Context, id string, completed bool) error {
	now := time.Now().UTC()
	var completedAt *time.Time
	if completed {
		completedAt = &now
	}
	const query = `UPDATE sanctions SET is_completed = $2, completed_at = $3, updated_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, completed, completedAt, now); err != nil {
		return fmt.Errorf("set sanction completed: %w", err)
	}
	return nil
}
