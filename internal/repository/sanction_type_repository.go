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

// SanctionTypeRepository manages the sanction-type catalog.
type SanctionTypeRepository struct {
	db *sqlx.DB
}

// NewSanctionTypeRepository constructs a SanctionTypeRepository.
func NewSanctionTypeRepository(db *sqlx.DB) *SanctionTypeRepository {
	return &SanctionTypeRepository{db: db}
}

// List returns sanction types filtered by search text and active state.
// Search is a case-insensitive substring match on name and description.
func (r *SanctionTypeRepository) List(ctx context.Context, filter models.SanctionTypeFilter) ([]models.SanctionType, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}

	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(name) LIKE $%d OR LOWER(description) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	query := fmt.Sprintf(`SELECT id, name, description, level, duration_days, active, created_at, updated_at
FROM sanction_types WHERE %s ORDER BY name ASC`, strings.Join(conditions, " AND "))

	var types []models.SanctionType
	if err := r.db.SelectContext(ctx, &types, query, args...); err != nil {
		return nil, fmt.Errorf("list sanction types: %w", err)
	}
	return types, nil
}

// FindByID fetches a sanction type by ID.
func (r *SanctionTypeRepository) FindByID(ctx context.Context, id string) (*models.SanctionType, error) {
	const query = `SELECT id, name, description, level, duration_days, active, created_at, updated_at
        FROM sanction_types WHERE id = $1`
	var st models.SanctionType
	if err := r.db.GetContext(ctx, &st, query, id); err != nil {
		return nil, err
	}
	return &st, nil
}

// ExistsByName checks whether another active row already carries the name.
func (r *SanctionTypeRepository) ExistsByName(ctx context.Context, name, excludeID string) (bool, error) {
	query := "SELECT 1 FROM sanction_types WHERE LOWER(name) = LOWER($1) AND active = true"
	args := []interface{}{name}
	if excludeID != "" {
		query += " AND id <> $2"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check sanction type name: %w", err)
	}
	return true, nil
}

// CountReferences returns how many sanctions reference this type.
func (r *SanctionTypeRepository) CountReferences(ctx context.Context, id string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM sanctions WHERE sanction_type_id = $1", id); err != nil {
		return 0, fmt.Errorf("count sanction references: %w", err)
	}
	return count, nil
}

// Create inserts a new sanction type.
func (r *SanctionTypeRepository) Create(ctx context.Context, st *models.SanctionType) error {
	if st.ID == "" {
		st.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if st.CreatedAt.IsZero() {
		st.CreatedAt = now
	}
	st.UpdatedAt = now
	const query = `INSERT INTO sanction_types (id, name, description, level, duration_days, active, created_at, updated_at)
        VALUES (:id, :name, :description, :level, :duration_days, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, st); err != nil {
		return fmt.Errorf("create sanction type: %w", err)
	}
	return nil
}

// Update modifies an existing sanction type.
func (r *SanctionTypeRepository) Update(ctx context.Context, st *models.SanctionType) error {
	st.UpdatedAt = time.Now().UTC()
	const query = `UPDATE sanction_types SET name = :name, description = :description, level = :level,
        duration_days = :duration_days, active = :active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, st); err != nil {
		return fmt.Errorf("update sanction type: %w", err)
	}
	return nil
}

// Delete removes an unreferenced sanction type. The reference-count guard
// lives in the service layer.
func (r *SanctionTypeRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM sanction_types WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete sanction type: %w", err)
	}
	return nil
}
