package handler

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-tatib-api/internal/middleware"
	"github.com/noah-isme/sma-tatib-api/internal/models"
	"github.com/noah-isme/sma-tatib-api/internal/service"
)

type fakeCaseRepo struct {
	cases     map[string]*models.CaseSummary
	sanctions map[string]*models.Sanction

	createdCase     *models.ViolationCase
	statusSet       models.CaseStatus
	sanctionFlagged bool
}

func (f *fakeCaseRepo) CountInMonth(ctx context.Context, year int, month time.Month) (int, error) {
	return 0, nil
}

func (f *fakeCaseRepo) Create(ctx context.Context, vc *models.ViolationCase) error {
	vc.ID = "case-new"
	f.createdCase = vc
	return nil
}

func (f *fakeCaseRepo) List(ctx context.Context, filter models.CaseFilter) ([]models.CaseSummary, int, error) {
	result := make([]models.CaseSummary, 0, len(f.cases))
	for _, cs := range f.cases {
		result = append(result, *cs)
	}
	return result, len(result), nil
}

func (f *fakeCaseRepo) FindByID(ctx context.Context, id string) (*models.CaseSummary, error) {
	cs, ok := f.cases[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return cs, nil
}

func (f *fakeCaseRepo) UpdateStatus(ctx context.Context, id string, status models.CaseStatus, notes string) error {
	f.statusSet = status
	return nil
}

func (f *fakeCaseRepo) ListActions(ctx context.Context, caseID string) ([]models.CaseAction, error) {
	return nil, nil
}

func (f *fakeCaseRepo) FindActionByID(ctx context.Context, id string) (*models.CaseAction, error) {
	return nil, sql.ErrNoRows
}

func (f *fakeCaseRepo) CreateAction(ctx context.Context, action *models.CaseAction) error {
	action.ID = "action-new"
	return nil
}

func (f *fakeCaseRepo) UpdateAction(ctx context.Context, action *models.CaseAction) error {
	return nil
}

func (f *fakeCaseRepo) SoftDeleteAction(ctx context.Context, id, deletedByID string) error {
	return nil
}

func (f *fakeCaseRepo) ListSanctions(ctx context.Context, caseID string) ([]models.Sanction, error) {
	return nil, nil
}

func (f *fakeCaseRepo) FindSanctionByID(ctx context.Context, id string) (*models.Sanction, error) {
	sanction, ok := f.sanctions[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return sanction, nil
}

func (f *fakeCaseRepo) CreateSanction(ctx context.Context, sanction *models.Sanction) error {
	sanction.ID = "sanction-new"
	return nil
}

func (f *fakeCaseRepo) SetSanctionCompleted(ctx context.Context, id string, completed bool) error {
	f.sanctionFlagged = completed
	return nil
}

type fakeCaseStudentLookup struct{ student *models.Student }

func (f *fakeCaseStudentLookup) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if f.student == nil {
		return nil, sql.ErrNoRows
	}
	return f.student, nil
}

type fakeCaseViolationLookup struct{ violation *models.Violation }

func (f *fakeCaseViolationLookup) FindByID(ctx context.Context, id string) (*models.Violation, error) {
	if f.violation == nil {
		return nil, sql.ErrNoRows
	}
	return f.violation, nil
}

type fakeCaseSanctionTypeLookup struct{ st *models.SanctionType }

func (f *fakeCaseSanctionTypeLookup) FindByID(ctx context.Context, id string) (*models.SanctionType, error) {
	if f.st == nil {
		return nil, sql.ErrNoRows
	}
	return f.st, nil
}

func newCaseTestHandler(repo *fakeCaseRepo) *CaseHandler {
	svc := service.NewCaseService(
		repo,
		&fakeCaseStudentLookup{student: &models.Student{ID: "s1", Active: true}},
		&fakeCaseViolationLookup{violation: &models.Violation{ID: "v1", Active: true}},
		&fakeCaseSanctionTypeLookup{st: &models.SanctionType{ID: "st1", Active: true}},
		nil,
		nil,
		nil,
		zap.NewNop(),
		service.CaseServiceConfig{},
	)
	return NewCaseHandler(svc)
}

func caseTestClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "u1", Role: models.RoleGuru}
}

func TestCaseHandlerCreate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &fakeCaseRepo{}
	handler := newCaseTestHandler(repo)

	payload := `{
		"student_id": "6ba7b810-9dad-41d1-80b4-00c04fd430c8",
		"violation_id": "6ba7b811-9dad-41d1-80b4-00c04fd430c8",
		"violation_date": "2026-08-29T00:00:00Z",
		"description": "Terlambat masuk kelas"
	}`

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/cases", strings.NewReader(payload))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Set(middleware.ContextUserKey, caseTestClaims())

	handler.Create(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), "TTB/0001/")
	assert.Equal(t, models.CaseStatusPending, repo.createdCase.Status)
	assert.Equal(t, "u1", repo.createdCase.InputByID)
}

func TestCaseHandlerCreateInvalidPayload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newCaseTestHandler(&fakeCaseRepo{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/cases", strings.NewReader(`{"student_id":"not-a-uuid"}`))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Set(middleware.ContextUserKey, caseTestClaims())

	handler.Create(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCaseHandlerUpdateStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &fakeCaseRepo{
		cases: map[string]*models.CaseSummary{
			"c1": {ViolationCase: models.ViolationCase{ID: "c1", Status: models.CaseStatusPending}},
		},
	}
	handler := newCaseTestHandler(repo)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPatch, "/cases/c1/status", strings.NewReader(`{"status":"PROSES"}`))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "id", Value: "c1"}}
	c.Set(middleware.ContextUserKey, caseTestClaims())

	handler.UpdateStatus(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.CaseStatusProses, repo.statusSet)
}

func TestCaseHandlerUpdateStatusUnknown(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &fakeCaseRepo{
		cases: map[string]*models.CaseSummary{
			"c1": {ViolationCase: models.ViolationCase{ID: "c1", Status: models.CaseStatusPending}},
		},
	}
	handler := newCaseTestHandler(repo)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPatch, "/cases/c1/status", strings.NewReader(`{"status":"DITOLAK"}`))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "id", Value: "c1"}}
	c.Set(middleware.ContextUserKey, caseTestClaims())

	handler.UpdateStatus(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCaseHandlerCompleteSanctionDefaultsToCompleted(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &fakeCaseRepo{
		sanctions: map[string]*models.Sanction{
			"sc1": {ID: "sc1", CaseID: "c1"},
		},
	}
	handler := newCaseTestHandler(repo)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPatch, "/cases/c1/sanctions/sc1/complete", nil)
	c.Params = gin.Params{{Key: "id", Value: "c1"}, {Key: "sanctionId", Value: "sc1"}}
	c.Set(middleware.ContextUserKey, caseTestClaims())

	handler.CompleteSanction(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, repo.sanctionFlagged)
}

func TestCaseHandlerGetNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newCaseTestHandler(&fakeCaseRepo{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/cases/missing", nil)
	c.Params = gin.Params{{Key: "id", Value: "missing"}}

	handler.Get(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
