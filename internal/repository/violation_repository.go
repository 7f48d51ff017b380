package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-tatib-api/internal/models"
)

// ViolationRepository manages the violation catalog and its categories.
type ViolationRepository struct {
	db *sqlx.DB
}

// NewViolationRepository constructs a ViolationRepository.
func NewViolationRepository(db *sqlx.DB) *ViolationRepository {
	return &ViolationRepository{db: db}
}

// ListCategories returns violation categories, optionally only active ones.
func (r *ViolationRepository) ListCategories(ctx context.Context, active *bool) ([]models.ViolationCategory, error) {
	query := "SELECT id, code, name, level, active, created_at, updated_at FROM violation_categories WHERE 1=1"
	args := []interface{}{}
	if active != nil {
		args = append(args, *active)
		query += fmt.Sprintf(" AND active = $%d", len(args))
	}
	query += " ORDER BY code ASC"
	var categories []models.ViolationCategory
	if err := r.db.SelectContext(ctx, &categories, query, args...); err != nil {
		return nil, fmt.Errorf("list violation categories: %w", err)
	}
	return categories, nil
}

// FindCategoryByID fetches a single category.
func (r *ViolationRepository) FindCategoryByID(ctx context.Context, id string) (*models.ViolationCategory, error) {
	const query = `SELECT id, code, name, level, active, created_at, updated_at FROM violation_categories WHERE id = $1`
	var category models.ViolationCategory
	if err := r.db.GetContext(ctx, &category, query, id); err != nil {
		return nil, err
	}
	return &category, nil
}

// ExistsCategoryByCode checks code uniqueness, optionally excluding an ID.
func (r *ViolationRepository) ExistsCategoryByCode(ctx context.Context, code, excludeID string) (bool, error) {
	query := "SELECT 1 FROM violation_categories WHERE code = $1"
	args := []interface{}{code}
	if excludeID != "" {
		query += " AND id <> $2"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check category code: %w", err)
	}
	return true, nil
}

// CreateCategory inserts a new violation category.
func (r *ViolationRepository) CreateCategory(ctx context.Context, category *models.ViolationCategory) error {
	if category.ID == "" {
		category.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if category.CreatedAt.IsZero() {
		category.CreatedAt = now
	}
	category.UpdatedAt = now
	const query = `INSERT INTO violation_categories (id, code, name, level, active, created_at, updated_at)
        VALUES (:id, :code, :name, :level, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, category); err != nil {
		return fmt.Errorf("create violation category: %w", err)
	}
	return nil
}

// UpdateCategory modifies an existing category.
func (r *ViolationRepository) UpdateCategory(ctx context.Context, category *models.ViolationCategory) error {
	category.UpdatedAt = time.Now().UTC()
	const query = `UPDATE violation_categories SET code = :code, name = :name, level = :level, active = :active, updated_at = :updated_at
        WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, category); err != nil {
		return fmt.Errorf("update violation category: %w", err)
	}
	return nil
}

// List returns violations joined with their category.
func (r *ViolationRepository) List(ctx context.Context, filter models.ViolationFilter) ([]models.ViolationDetail, int, error) {
	base := "FROM violations v JOIN violation_categories c ON c.id = v.category_id"
	conditions := []string{"1=1"}
	args := []interface{}{}

	if filter.CategoryID != "" {
		conditions = append(conditions, fmt.Sprintf("v.category_id = $%d", len(args)+1))
		args = append(args, filter.CategoryID)
	}
	if filter.Level != "" {
		conditions = append(conditions, fmt.Sprintf("c.level = $%d", len(args)+1))
		args = append(args, filter.Level)
	}
	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("v.active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(v.name) LIKE $%d OR LOWER(v.code) LIKE $%d)", len(args)+1, len(args)+1))
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

	query := fmt.Sprintf(`SELECT v.id, v.code, v.category_id, v.name, v.points, v.sanction_hint, v.kind, v.active, v.created_at, v.updated_at,
        c.name AS category_name, c.level AS category_level
        %s WHERE %s ORDER BY v.code ASC LIMIT %d OFFSET %d`, base, whereClause, size, offset)

	var violations []models.ViolationDetail
	if err := r.db.SelectContext(ctx, &violations, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list violations: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s WHERE %s", base, whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count violations: %w", err)
	}
	return violations, total, nil
}

// FindByID fetches a violation by ID.
func (r *ViolationRepository) FindByID(ctx context.Context, id string) (*models.Violation, error) {
	const query = `SELECT id, code, category_id, name, points, sanction_hint, kind, active, created_at, updated_at
        FROM violations WHERE id = $1`
	var violation models.Violation
	if err := r.db.GetContext(ctx, &violation, query, id); err != nil {
		return nil, err
	}
	return &violation, nil
}

// ExistsByCode checks violation code uniqueness, optionally excluding an ID.
func (r *ViolationRepository) ExistsByCode(ctx context.Context, code, excludeID string) (bool, error) {
	query := "SELECT 1 FROM violations WHERE code = $1"
	args := []interface{}{code}
	if excludeID != "" {
		query += " AND id <> $2"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check violation code: %w", err)
	}
	return true, nil
}

// Create inserts a new violation.
func (r *ViolationRepository) Create(ctx context.Context, violation *models.Violation) error {
	if violation.ID == "" {
		violation.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if violation.CreatedAt.IsZero() {
		violation.CreatedAt = now
	}
	violation.UpdatedAt = now
	const query = `INSERT INTO violations (id, code, category_id, name, points, sanction_hint, kind, active, created_at, updated_at)
        VALUES (:id, :code, :category_id, :name, :points, :sanction_hint, :kind, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, violation); err != nil {
		return fmt.Errorf("create violation: %w", err)
	}
	return nil
}

// Update modifies an existing violation.
func (r *ViolationRepository) Update(ctx context.Context, violation *models.Violation) error {
	violation.UpdatedAt = time.Now().UTC()
	const query = `UPDATE violations SET code = :code, category_id = :category_id, name = :name, points = :points,
        sanction_hint = :sanction_hint, kind = :kind, active = :active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, violation); err != nil {
		return fmt.Errorf("update violation: %w", err)
	}
	return nil
}
