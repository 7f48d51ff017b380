package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-tatib-api/internal/models"
	"github.com/noah-isme/sma-tatib-api/internal/service"
	appErrors "github.com/noah-isme/sma-tatib-api/pkg/errors"
	"github.com/noah-isme/sma-tatib-api/pkg/response"
)

// CaseHandler exposes the disciplinary case workflow endpoints.
type CaseHandler struct {
	cases *service.CaseService
}

// NewCaseHandler constructs CaseHandler.
func NewCaseHandler(cases *service.CaseService) *CaseHandler {
	return &CaseHandler{cases: cases}
}

// List godoc
// @Summary List violation cases
// @Tags Cases
// @Produce json
// @Param search query string false "Search by case number, student name or NIS"
// @Param studentId query string false "Filter by student"
// @Param status query string false "Filter by status"
// @Param dateFrom query string false "Violation date lower bound (RFC 3339 date)"
// @Param dateTo query string false "Violation date upper bound (RFC 3339 date)"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /cases [get]
func (h *CaseHandler) List(c *gin.Context) {
	var filter models.CaseFilter
	filter.Search = strings.TrimSpace(c.Query("search"))
	filter.StudentID = c.Query("studentId")
	filter.Status = models.CaseStatus(c.Query("status"))
	filter.InputByID = c.Query("inputById")
	if raw := c.Query("dateFrom"); raw != "" {
		if t, err := time.Parse("2006-01-02", raw); err == nil {
			filter.DateFrom = &t
		}
	}
	if raw := c.Query("dateTo"); raw != "" {
		if t, err := time.Parse("2006-01-02", raw); err == nil {
			filter.DateTo = &t
		}
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	cases, pagination, err := h.cases.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cases, pagination)
}

// Get godoc
// @Summary Get case detail with actions and sanctions
// @Tags Cases
// @Produce json
// @Param id path string true "Case ID"
// @Success 200 {object} response.Envelope
// @Router /cases/{id} [get]
func (h *CaseHandler) Get(c *gin.Context) {
	detail, err := h.cases.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Create godoc
// @Summary Record a new violation case
// @Tags Cases
// @Accept json
// @Produce json
// @Param payload body service.CreateCaseRequest true "Case payload"
// @Success 201 {object} response.Envelope
// @Router /cases [post]
func (h *CaseHandler) Create(c *gin.Context) {
	var req service.CreateCaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	vc, err := h.cases.Create(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, vc)
}

// UpdateStatus godoc
// @Summary Update case status
// @Tags Cases
// @Accept json
// @Produce json
// @Param id path string true "Case ID"
// @Param payload body service.UpdateCaseStatusRequest true "Status payload"
// @Success 200 {object} response.Envelope
// @Router /cases/{id}/status [patch]
func (h *CaseHandler) UpdateStatus(c *gin.Context) {
	var req service.UpdateCaseStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	summary, err := h.cases.UpdateStatus(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// AddAction godoc
// @Summary Record a follow-up action
// @Tags Cases
// @Accept json
// @Produce json
// @Param id path string true "Case ID"
// @Param payload body service.CaseActionRequest true "Action payload"
// @Success 201 {object} response.Envelope
// @Router /cases/{id}/actions [post]
func (h *CaseHandler) AddAction(c *gin.Context) {
	var req service.CaseActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	action, err := h.cases.AddAction(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, action)
}

// UpdateAction godoc
// @Summary Edit a follow-up action
// @Tags Cases
// @Accept json
// @Produce json
// @Param id path string true "Case ID"
// @Param actionId path string true "Action ID"
// @Param payload body service.CaseActionRequest true "Action payload"
// @Success 200 {object} response.Envelope
// @Router /cases/{id}/actions/{actionId} [put]
func (h *CaseHandler) UpdateAction(c *gin.Context) {
	var req service.CaseActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	action, err := h.cases.UpdateAction(c.Request.Context(), c.Param("id"), c.Param("actionId"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, action, nil)
}

// DeleteAction godoc
// @Summary Remove a follow-up action
// @Tags Cases
// @Produce json
// @Param id path string true "Case ID"
// @Param actionId path string true "Action ID"
// @Success 204
// @Router /cases/{id}/actions/{actionId} [delete]
func (h *CaseHandler) DeleteAction(c *gin.Context) {
	if err := h.cases.DeleteAction(c.Request.Context(), c.Param("id"), c.Param("actionId"), claimsFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// AddSanction godoc
// @Summary Attach a sanction to a case
// @Tags Cases
// @Accept json
// @Produce json
// @Param id path string true "Case ID"
// @Param payload body service.CreateSanctionRequest true "Sanction payload"
// @Success 201 {object} response.Envelope
// @Router /cases/{id}/sanctions [post]
func (h *CaseHandler) AddSanction(c *gin.Context) {
	var req service.CreateSanctionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	sanction, err := h.cases.AddSanction(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, sanction)
}

type completeSanctionRequest struct {
	IsCompleted bool `json:"is_completed"`
}

// CompleteSanction godoc
// @Summary Flip a sanction's completion flag
// @Tags Cases
// @Accept json
// @Produce json
// @Param id path string true "Case ID"
// @Param sanctionId path string true "Sanction ID"
// @Param payload body completeSanctionRequest true "Completion payload"
// @Success 200 {object} response.Envelope
// @Router /cases/{id}/sanctions/{sanctionId}/complete [patch]
func (h *CaseHandler) CompleteSanction(c *gin.Context) {
	req := completeSanctionRequest{IsCompleted: true}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
			return
		}
	}
	sanction, err := h.cases.CompleteSanction(c.Request.Context(), c.Param("id"), c.Param("sanctionId"), req.IsCompleted, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sanction, nil)
}
