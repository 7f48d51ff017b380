package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-tatib-api/internal/models"
	appErrors "github.com/noah-isme/sma-tatib-api/pkg/errors"
)

type caseRepository interface {
	CountInMonth(ctx context.Context, year int, month time.Month) (int, error)
	Create(ctx context.Context, vc *models.ViolationCase) error
	List(ctx context.Context, filter models.CaseFilter) ([]models.CaseSummary, int, error)
	FindByID(ctx context.Context, id string) (*models.CaseSummary, error)
	UpdateStatus(ctx context.Context, id string, status models.CaseStatus, notes string) error
	ListActions(ctx context.Context, caseID string) ([]models.CaseAction, error)
	FindActionByID(ctx context.Context, id string) (*models.CaseAction, error)
	CreateAction(ctx context.Context, action *models.CaseAction) error
	UpdateAction(ctx context.Context, action *models.CaseAction) error
	SoftDeleteAction(ctx context.Context, id, deletedByID string) error
	ListSanctions(ctx context.Context, caseID string) ([]models.Sanction, error)
	FindSanctionByID(ctx context.Context, id string) (*models.Sanction, error)
	CreateSanction(ctx context.Context, sanction *models.Sanction) error
	SetSanctionCompleted(ctx context.Context, id string, completed bool) error
}

type caseStudentLookup interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type caseViolationLookup interface {
	FindByID(ctx context.Context, id string) (*models.Violation, error)
}

type caseSanctionTypeLookup interface {
	FindByID(ctx context.Context, id string) (*models.SanctionType, error)
}

// CreateCaseRequest holds payload for recording a new case.
type CreateCaseRequest struct {
	StudentID     string    `json:"student_id" validate:"required,uuid4"`
	ViolationID   string    `json:"violation_id" validate:"required,uuid4"`
	ViolationDate time.Time `json:"violation_date" validate:"required"`
	Description   string    `json:"description" validate:"required"`
	EvidenceURLs  []string  `json:"evidence_urls"`
	Location      string    `json:"location"`
	Witness       string    `json:"witness"`
}

// UpdateCaseStatusRequest moves a case through its workflow.
type UpdateCaseStatusRequest struct {
	Status models.CaseStatus `json:"status" validate:"required"`
	Notes  string            `json:"notes"`
}

// CaseActionRequest holds payload for creating or updating a follow-up action.
type CaseActionRequest struct {
	ActionType   string     `json:"action_type" validate:"required"`
	Description  string     `json:"description" validate:"required"`
	EvidenceURL  string     `json:"evidence_url"`
	FollowUpDate *time.Time `json:"follow_up_date"`
	IsCompleted  bool       `json:"is_completed"`
}

// CreateSanctionRequest attaches a sanction to a case.
type CreateSanctionRequest struct {
	SanctionTypeID string     `json:"sanction_type_id" validate:"required,uuid4"`
	StartDate      time.Time  `json:"start_date" validate:"required"`
	EndDate        *time.Time `json:"end_date"`
	Notes          string     `json:"notes"`
}

// CaseServiceConfig tunes case-workflow behaviour.
type CaseServiceConfig struct {
	// EnforceTransitions turns on the status transition table. Off by
	// default: the legacy behaviour allowed any status to follow any other.
	EnforceTransitions bool
}

// CaseService orchestrates the disciplinary case workflow.
type CaseService struct {
	repo          caseRepository
	students      caseStudentLookup
	violations    caseViolationLookup
	sanctionTypes caseSanctionTypeLookup
	cache         *CacheService
	audit         *AuditService
	validator     *validator.Validate
	logger        *zap.Logger
	config        CaseServiceConfig
	now           func() time.Time
}

// NewCaseService constructs the case service.
func NewCaseService(
	repo caseRepository,
	students caseStudentLookup,
	violations caseViolationLookup,
	sanctionTypes caseSanctionTypeLookup,
	cache *CacheService,
	audit *AuditService,
	validate *validator.Validate,
	logger *zap.Logger,
	config CaseServiceConfig,
) *CaseService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CaseService{
		repo:          repo,
		students:      students,
		violations:    violations,
		sanctionTypes: sanctionTypes,
		cache:         cache,
		audit:         audit,
		validator:     validate,
		logger:        logger,
		config:        config,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

var romanMonths = [...]string{"I", "II", "III", "IV", "V", "VI", "VII", "VIII", "IX", "X", "XI", "XII"}

// buildCaseNumber produces the display number TTB/NNNN/<roman month>/<year>,
// with NNNN a per-month sequence.
func buildCaseNumber(sequence int, at time.Time) string {
	return fmt.Sprintf("TTB/%04d/%s/%d", sequence, romanMonths[at.Month()-1], at.Year())
}

// Create records a new case. New cases always start in PENDING.
func (s *CaseService) Create(ctx context.Context, req CreateCaseRequest, actor *models.JWTClaims) (*models.ViolationCase, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "data kasus tidak lengkap")
	}
	if actor == nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "")
	}

	student, err := s.students.FindByID(ctx, req.StudentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "siswa tidak ditemukan")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if !student.Active {
		return nil, appErrors.Clone(appErrors.ErrValidation, "siswa sudah tidak aktif")
	}
	violation, err := s.violations.FindByID(ctx, req.ViolationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "pelanggaran tidak ditemukan")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load violation")
	}
	if !violation.Active {
		return nil, appErrors.Clone(appErrors.ErrValidation, "pelanggaran sudah tidak aktif")
	}

	now := s.now()
	count, err := s.repo.CountInMonth(ctx, now.Year(), now.Month())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to derive case number")
	}

	vc := &models.ViolationCase{
		CaseNumber:    buildCaseNumber(count+1, now),
		StudentID:     req.StudentID,
		ViolationID:   req.ViolationID,
		InputByID:     actor.UserID,
		ViolationDate: req.ViolationDate,
		Description:   req.Description,
		EvidenceURLs:  req.EvidenceURLs,
		Location:      req.Location,
		Witness:       req.Witness,
		Status:        models.CaseStatusPending,
	}
	if err := s.repo.Create(ctx, vc); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create case")
	}

	s.invalidateReportCaches(ctx)
	if s.audit != nil {
		s.audit.Record(AuditEntry{Actor: actor, Action: models.AuditActionCreate, Entity: "violation_case", EntityID: vc.ID, NewValues: vc})
	}
	return vc, nil
}

// List returns case summaries matching the filter.
func (s *CaseService) List(ctx context.Context, filter models.CaseFilter) ([]models.CaseSummary, *models.Pagination, error) {
	if filter.Status != "" && !models.ValidCaseStatus(filter.Status) {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "status tidak dikenal")
	}
	cases, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list cases")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return cases, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns a case with its follow-up actions and sanctions.
func (s *CaseService) Get(ctx context.Context, id string) (*models.CaseDetail, error) {
	summary, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "kasus tidak ditemukan")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load case")
	}
	actions, err := s.repo.ListActions(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load case actions")
	}
	sanctions, err := s.repo.ListSanctions(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load sanctions")
	}
	return &models.CaseDetail{CaseSummary: *summary, Actions: actions, Sanctions: sanctions}, nil
}

// UpdateStatus moves a case through the workflow. With transition enforcement
// enabled, only forward moves from the transition table are accepted.
func (s *CaseService) UpdateStatus(ctx context.Context, id string, req UpdateCaseStatusRequest, actor *models.JWTClaims) (*models.CaseSummary, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "status wajib diisi")
	}
	if !models.ValidCaseStatus(req.Status) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "status tidak dikenal")
	}
	summary, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "kasus tidak ditemukan")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load case")
	}
	if s.config.EnforceTransitions && !models.CanTransition(summary.Status, req.Status) {
		return nil, appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("perubahan status %s ke %s tidak diizinkan", summary.Status, req.Status))
	}

	before := summary.ViolationCase
	notes := summary.Notes
	if req.Notes != "" {
		notes = req.Notes
	}
	if err := s.repo.UpdateStatus(ctx, id, req.Status, notes); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update case status")
	}
	summary.Status = req.Status
	summary.Notes = notes
	summary.UpdatedAt = s.now()

	s.invalidateReportCaches(ctx)
	if s.audit != nil {
		s.audit.Record(AuditEntry{Actor: actor, Action: models.AuditActionUpdate, Entity: "violation_case", EntityID: id, OldValues: before, NewValues: summary.ViolationCase})
	}
	return summary, nil
}

// AddAction records a follow-up action against a case. Completing an action
// never changes the parent case status.
func (s *CaseService) AddAction(ctx context.Context, caseID string, req CaseActionRequest, actor *models.JWTClaims) (*models.CaseAction, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "data tindak lanjut tidak lengkap")
	}
	if _, err := s.repo.FindByID(ctx, caseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "kasus tidak ditemukan")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load case")
	}
	action := &models.CaseAction{
		CaseID:       caseID,
		ActionType:   req.ActionType,
		Description:  req.Description,
		EvidenceURL:  req.EvidenceURL,
		FollowUpDate: req.FollowUpDate,
		IsCompleted:  req.IsCompleted,
	}
	if req.IsCompleted {
		now := s.now()
		action.CompletedAt = &now
	}
	if err := s.repo.CreateAction(ctx, action); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create case action")
	}
	if s.audit != nil {
		s.audit.Record(AuditEntry{Actor: actor, Action: models.AuditActionCreate, Entity: "case_action", EntityID: action.ID, NewValues: action})
	}
	return action, nil
}

// UpdateAction edits a follow-up action, stamping who edited and when.
func (s *CaseService) UpdateAction(ctx context.Context, caseID, actionID string, req CaseActionRequest, actor *models.JWTClaims) (*models.CaseAction, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "data tindak lanjut tidak lengkap")
	}
	if actor == nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "")
	}
	action, err := s.repo.FindActionByID(ctx, actionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "tindak lanjut tidak ditemukan")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load case action")
	}
	if action.CaseID != caseID || action.DeletedAt != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "tindak lanjut tidak ditemukan")
	}

	before := *action
	action.ActionType = req.ActionType
	action.Description = req.Description
	action.EvidenceURL = req.EvidenceURL
	action.FollowUpDate = req.FollowUpDate
	now := s.now()
	if req.IsCompleted && !action.IsCompleted {
		action.CompletedAt = &now
	}
	if !req.IsCompleted {
		action.CompletedAt = nil
	}
	action.IsCompleted = req.IsCompleted
	editor := actor.UserID
	action.EditedByID = &editor
	action.EditedAt = &now

	if err := s.repo.UpdateAction(ctx, action); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update case action")
	}
	if s.audit != nil {
		s.audit.Record(AuditEntry{Actor: actor, Action: models.AuditActionUpdate, Entity: "case_action", EntityID: action.ID, OldValues: before, NewValues: action})
	}
	return action, nil
}

// DeleteAction soft-deletes a follow-up action, keeping the row for the trail.
func (s *CaseService) DeleteAction(ctx context.Context, caseID, actionID string, actor *models.JWTClaims) error {
	if actor == nil {
		return appErrors.Clone(appErrors.ErrUnauthorized, "")
	}
	action, err := s.repo.FindActionByID(ctx, actionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "tindak lanjut tidak ditemukan")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load case action")
	}
	if action.CaseID != caseID || action.DeletedAt != nil {
		return appErrors.Clone(appErrors.ErrNotFound, "tindak lanjut tidak ditemukan")
	}
	if err := s.repo.SoftDeleteAction(ctx, actionID, actor.UserID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete case action")
	}
	if s.audit != nil {
		s.audit.Record(AuditEntry{Actor: actor, Action: models.AuditActionDelete, Entity: "case_action", EntityID: actionID, OldValues: action})
	}
	return nil
}

// AddSanction attaches a sanction to a case after validating its type.
func (s *CaseService) AddSanction(ctx context.Context, caseID string, req CreateSanctionRequest, actor *models.JWTClaims) (*models.Sanction, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "data sanksi tidak lengkap")
	}
	if _, err := s.repo.FindByID(ctx, caseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "kasus tidak ditemukan")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load case")
	}
	st, err := s.sanctionTypes.FindByID(ctx, req.SanctionTypeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "jenis sanksi tidak ditemukan")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load sanction type")
	}
	if !st.Active {
		return nil, appErrors.Clone(appErrors.ErrValidation, "jenis sanksi sudah tidak aktif")
	}
	if req.EndDate != nil && req.EndDate.Before(req.StartDate) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "tanggal selesai tidak boleh sebelum tanggal mulai")
	}

	sanction := &models.Sanction{
		CaseID:         caseID,
		SanctionTypeID: req.SanctionTypeID,
		StartDate:      req.StartDate,
		EndDate:        req.EndDate,
		Notes:          req.Notes,
	}
	if err := s.repo.CreateSanction(ctx, sanction); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create sanction")
	}
	if s.audit != nil {
		s.audit.Record(AuditEntry{Actor: actor, Action: models.AuditActionCreate, Entity: "sanction", EntityID: sanction.ID, NewValues: sanction})
	}
	return sanction, nil
}

// CompleteSanction flips a sanction's completion flag. The parent case status
// is left untouched.
func (s *CaseService) CompleteSanction(ctx context.Context, caseID, sanctionID string, completed bool, actor *models.JWTClaims) (*models.Sanction, error) {
	sanction, err := s.repo.FindSanctionByID(ctx, sanctionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "sanksi tidak ditemukan")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load sanction")
	}
	if sanction.CaseID != caseID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "sanksi tidak ditemukan")
	}
	before := *sanction
	if err := s.repo.SetSanctionCompleted(ctx, sanctionID, completed); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update sanction")
	}
	sanction.IsCompleted = completed
	if completed {
		now := s.now()
		sanction.CompletedAt = &now
	} else {
		sanction.CompletedAt = nil
	}
	if s.audit != nil {
		s.audit.Record(AuditEntry{Actor: actor, Action: models.AuditActionUpdate, Entity: "sanction", EntityID: sanctionID, OldValues: before, NewValues: sanction})
	}
	return sanction, nil
}

func (s *CaseService) invalidateReportCaches(ctx context.Context) {
	if s.cache == nil || !s.cache.Enabled() {
		return
	}
	if err := s.cache.Invalidate(ctx, "reports:*"); err != nil {
		s.logger.Warn("report cache invalidation failed", zap.Error(err))
	}
}
