package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-tatib-api/internal/models"
	appErrors "github.com/noah-isme/sma-tatib-api/pkg/errors"
)

type sanctionTypeRepository interface {
	List(ctx context.Context, filter models.SanctionTypeFilter) ([]models.SanctionType, error)
	FindByID(ctx context.Context, id string) (*models.SanctionType, error)
	ExistsByName(ctx context.Context, name, excludeID string) (bool, error)
	CountReferences(ctx context.Context, id string) (int, error)
	Create(ctx context.Context, st *models.SanctionType) error
	Update(ctx context.Context, st *models.SanctionType) error
	Delete(ctx context.Context, id string) error
}

// SanctionTypeRequest holds payload for creating or updating a sanction type.
type SanctionTypeRequest struct {
	Name         string `json:"name" validate:"required"`
	Description  string `json:"description"`
	Level        string `json:"level" validate:"omitempty,oneof=RINGAN SEDANG BERAT"`
	DurationDays *int   `json:"duration_days" validate:"omitempty,gte=0"`
	Active       *bool  `json:"isActive"`
}

// SanctionTypeService manages the sanction-type catalog.
type SanctionTypeService struct {
	repo      sanctionTypeRepository
	audit     *AuditService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSanctionTypeService constructs the catalog service.
func NewSanctionTypeService(repo sanctionTypeRepository, audit *AuditService, validate *validator.Validate, logger *zap.Logger) *SanctionTypeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SanctionTypeService{repo: repo, audit: audit, validator: validate, logger: logger}
}

// List returns sanction types matching the filter.
func (s *SanctionTypeService) List(ctx context.Context, filter models.SanctionTypeFilter) ([]models.SanctionType, error) {
	types, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sanction types")
	}
	return types, nil
}

// Get returns a single sanction type.
func (s *SanctionTypeService) Get(ctx context.Context, id string) (*models.SanctionType, error) {
	st, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "jenis sanksi tidak ditemukan")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load sanction type")
	}
	return st, nil
}

// Create adds a sanction type. Names are unique among active rows,
// case-insensitively.
func (s *SanctionTypeService) Create(ctx context.Context, req SanctionTypeRequest, actor *models.JWTClaims) (*models.SanctionType, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "data jenis sanksi tidak lengkap")
	}
	exists, err := s.repo.ExistsByName(ctx, req.Name, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate sanction type name")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "nama jenis sanksi sudah digunakan")
	}
	st := &models.SanctionType{
		Name:         req.Name,
		Description:  req.Description,
		Level:        req.Level,
		DurationDays: req.DurationDays,
		Active:       true,
	}
	if req.Active != nil {
		st.Active = *req.Active
	}
	if err := s.repo.Create(ctx, st); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create sanction type")
	}
	if s.audit != nil {
		s.audit.Record(AuditEntry{Actor: actor, Action: models.AuditActionCreate, Entity: "sanction_type", EntityID: st.ID, NewValues: st})
	}
	return st, nil
}

// Update modifies a sanction type, keeping the name-uniqueness guarantee.
func (s *SanctionTypeService) Update(ctx context.Context, id string, req SanctionTypeRequest, actor *models.JWTClaims) (*models.SanctionType, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "data jenis sanksi tidak lengkap")
	}
	st, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "jenis sanksi tidak ditemukan")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load sanction type")
	}
	exists, err := s.repo.ExistsByName(ctx, req.Name, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate sanction type name")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "nama jenis sanksi sudah digunakan")
	}
	before := *st
	st.Name = req.Name
	st.Description = req.Description
	st.Level = req.Level
	st.DurationDays = req.DurationDays
	if req.Active != nil {
		st.Active = *req.Active
	}
	if err := s.repo.Update(ctx, st); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update sanction type")
	}
	if s.audit != nil {
		s.audit.Record(AuditEntry{Actor: actor, Action: models.AuditActionUpdate, Entity: "sanction_type", EntityID: st.ID, OldValues: before, NewValues: st})
	}
	return st, nil
}

// Delete removes a sanction type. Types still referenced by sanctions are
// protected; the error carries how many rows reference them.
func (s *SanctionTypeService) Delete(ctx context.Context, id string, actor *models.JWTClaims) error {
	st, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "jenis sanksi tidak ditemukan")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load sanction type")
	}
	count, err := s.repo.CountReferences(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count sanction references")
	}
	if count > 0 {
		return appErrors.InUse(fmt.Sprintf("jenis sanksi masih digunakan oleh %d sanksi", count), count)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete sanction type")
	}
	if s.audit != nil {
		s.audit.Record(AuditEntry{Actor: actor, Action: models.AuditActionDelete, Entity: "sanction_type", EntityID: id, OldValues: st})
	}
	return nil
}
