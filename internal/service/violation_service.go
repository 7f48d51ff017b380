package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-tatib-api/internal/models"
	appErrors "github.com/noah-isme/sma-tatib-api/pkg/errors"
)

type violationRepository interface {
	ListCategories(ctx context.Context, active *bool) ([]models.ViolationCategory, error)
	FindCategoryByID(ctx context.Context, id string) (*models.ViolationCategory, error)
	ExistsCategoryByCode(ctx context.Context, code, excludeID string) (bool, error)
	CreateCategory(ctx context.Context, category *models.ViolationCategory) error
	UpdateCategory(ctx context.Context, category *models.ViolationCategory) error
	List(ctx context.Context, filter models.ViolationFilter) ([]models.ViolationDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.Violation, error)
	ExistsByCode(ctx context.Context, code, excludeID string) (bool, error)
	Create(ctx context.Context, violation *models.Violation) error
	Update(ctx context.Context, violation *models.Violation) error
}

// CategoryRequest holds payload for creating or updating a category.
type CategoryRequest struct {
	Code   string `json:"code" validate:"required"`
	Name   string `json:"name" validate:"required"`
	Level  string `json:"level" validate:"required,oneof=RINGAN SEDANG BERAT"`
	Active *bool  `json:"active"`
}

// ViolationRequest holds payload for creating or updating a violation.
type ViolationRequest struct {
	Code         string `json:"code" validate:"required"`
	CategoryID   string `json:"category_id" validate:"required,uuid4"`
	Name         string `json:"name" validate:"required"`
	Points       int    `json:"points" validate:"gte=0"`
	SanctionHint string `json:"sanction_hint"`
	Kind         string `json:"kind"`
	Active       *bool  `json:"active"`
}

// ViolationService manages the violation catalog.
type ViolationService struct {
	repo      violationRepository
	audit     *AuditService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewViolationService constructs the catalog service.
func NewViolationService(repo violationRepository, audit *AuditService, validate *validator.Validate, logger *zap.Logger) *ViolationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ViolationService{repo: repo, audit: audit, validator: validate, logger: logger}
}

// ListCategories returns the category catalog.
func (s *ViolationService) ListCategories(ctx context.Context, active *bool) ([]models.ViolationCategory, error) {
	categories, err := s.repo.ListCategories(ctx, active)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list categories")
	}
	return categories, nil
}

// CreateCategory adds a category after enforcing code uniqueness.
func (s *ViolationService) CreateCategory(ctx context.Context, req CategoryRequest, actor *models.JWTClaims) (*models.ViolationCategory, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "data kategori tidak lengkap")
	}
	exists, err := s.repo.ExistsCategoryByCode(ctx, req.Code, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate category code")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "kode kategori sudah digunakan")
	}
	category := &models.ViolationCategory{
		Code:   req.Code,
		Name:   req.Name,
		Level:  models.ViolationLevel(req.Level),
		Active: true,
	}
	if req.Active != nil {
		category.Active = *req.Active
	}
	if err := s.repo.CreateCategory(ctx, category); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create category")
	}
	if s.audit != nil {
		s.audit.Record(AuditEntry{Actor: actor, Action: models.AuditActionCreate, Entity: "violation_category", EntityID: category.ID, NewValues: category})
	}
	return category, nil
}

// UpdateCategory modifies an existing category.
func (s *ViolationService) UpdateCategory(ctx context.Context, id string, req CategoryRequest, actor *models.JWTClaims) (*models.ViolationCategory, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "data kategori tidak lengkap")
	}
	category, err := s.repo.FindCategoryByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "kategori tidak ditemukan")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load category")
	}
	exists, err := s.repo.ExistsCategoryByCode(ctx, req.Code, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate category code")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "kode kategori sudah digunakan")
	}
	before := *category
	category.Code = req.Code
	category.Name = req.Name
	category.Level = models.ViolationLevel(req.Level)
	if req.Active != nil {
		category.Active = *req.Active
	}
	if err := s.repo.UpdateCategory(ctx, category); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update category")
	}
	if s.audit != nil {
		s.audit.Record(AuditEntry{Actor: actor, Action: models.AuditActionUpdate, Entity: "violation_category", EntityID: category.ID, OldValues: before, NewValues: category})
	}
	return category, nil
}

// List returns the violation catalog with category details.
func (s *ViolationService) List(ctx context.Context, filter models.ViolationFilter) ([]models.ViolationDetail, *models.Pagination, error) {
	violations, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list violations")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return violations, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns a single violation entry.
func (s *ViolationService) Get(ctx context.Context, id string) (*models.Violation, error) {
	violation, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "pelanggaran tidak ditemukan")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load violation")
	}
	return violation, nil
}

// Create adds a violation after validating its category and code.
func (s *ViolationService) Create(ctx context.Context, req ViolationRequest, actor *models.JWTClaims) (*models.Violation, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "data pelanggaran tidak lengkap")
	}
	if _, err := s.repo.FindCategoryByID(ctx, req.CategoryID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "kategori tidak ditemukan")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load category")
	}
	exists, err := s.repo.ExistsByCode(ctx, req.Code, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate violation code")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "kode pelanggaran sudah digunakan")
	}
	violation := &models.Violation{
		Code:         req.Code,
		CategoryID:   req.CategoryID,
		Name:         req.Name,
		Points:       req.Points,
		SanctionHint: req.SanctionHint,
		Kind:         req.Kind,
		Active:       true,
	}
	if req.Active != nil {
		violation.Active = *req.Active
	}
	if err := s.repo.Create(ctx, violation); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create violation")
	}
	if s.audit != nil {
		s.audit.Record(AuditEntry{Actor: actor, Action: models.AuditActionCreate, Entity: "violation", EntityID: violation.ID, NewValues: violation})
	}
	return violation, nil
}

// Update modifies a violation entry.
func (s *ViolationService) Update(ctx context.Context, id string, req ViolationRequest, actor *models.JWTClaims) (*models.Violation, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "data pelanggaran tidak lengkap")
	}
	violation, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "pelanggaran tidak ditemukan")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load violation")
	}
	if _, err := s.repo.FindCategoryByID(ctx, req.CategoryID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "kategori tidak ditemukan")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load category")
	}
	exists, err := s.repo.ExistsByCode(ctx, req.Code, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate violation code")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "kode pelanggaran sudah digunakan")
	}
	before := *violation
	violation.Code = req.Code
	violation.CategoryID = req.CategoryID
	violation.Name = req.Name
	violation.Points = req.Points
	violation.SanctionHint = req.SanctionHint
	violation.Kind = req.Kind
	if req.Active != nil {
		violation.Active = *req.Active
	}
	if err := s.repo.Update(ctx, violation); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update violation")
	}
	if s.audit != nil {
		s.audit.Record(AuditEntry{Actor: actor, Action: models.AuditActionUpdate, Entity: "violation", EntityID: violation.ID, OldValues: before, NewValues: violation})
	}
	return violation, nil
}
