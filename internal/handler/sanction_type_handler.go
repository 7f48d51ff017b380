package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-tatib-api/internal/models"
	"github.com/noah-isme/sma-tatib-api/internal/service"
	appErrors "github.com/noah-isme/sma-tatib-api/pkg/errors"
	"github.com/noah-isme/sma-tatib-api/pkg/response"
)

// SanctionTypeHandler exposes the sanction-type catalog endpoints.
type SanctionTypeHandler struct {
	types *service.SanctionTypeService
}

// NewSanctionTypeHandler constructs SanctionTypeHandler.
func NewSanctionTypeHandler(types *service.SanctionTypeService) *SanctionTypeHandler {
	return &SanctionTypeHandler{types: types}
}

// List godoc
// @Summary List sanction types
// @Tags SanctionTypes
// @Produce json
// @Param search query string false "Search by name or description"
// @Param isActive query bool false "Filter by active state"
// @Success 200 {object} response.Envelope
// @Router /master/sanction-types [get]
func (h *SanctionTypeHandler) List(c *gin.Context) {
	filter := models.SanctionTypeFilter{
		Search: strings.TrimSpace(c.Query("search")),
		Active: parseBoolQuery(c, "isActive"),
	}
	types, err := h.types.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"sanctionTypes": types}, nil)
}

// Get godoc
// @Summary Get sanction type detail
// @Tags SanctionTypes
// @Produce json
// @Param id path string true "Sanction type ID"
// @Success 200 {object} response.Envelope
// @Router /master/sanction-types/{id} [get]
func (h *SanctionTypeHandler) Get(c *gin.Context) {
	st, err := h.types.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, st, nil)
}

// Create godoc
// @Summary Create sanction type
// @Tags SanctionTypes
// @Accept json
// @Produce json
// @Param payload body service.SanctionTypeRequest true "Sanction type payload"
// @Success 201 {object} response.Envelope
// @Router /master/sanction-types [post]
func (h *SanctionTypeHandler) Create(c *gin.Context) {
	var req service.SanctionTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	st, err := h.types.Create(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, st)
}

// Update godoc
// @Summary Update sanction type
// @Tags SanctionTypes
// @Accept json
// @Produce json
// @Param id path string true "Sanction type ID"
// @Param payload body service.SanctionTypeRequest true "Sanction type payload"
// @Success 200 {object} response.Envelope
// @Router /master/sanction-types/{id} [put]
func (h *SanctionTypeHandler) Update(c *gin.Context) {
	var req service.SanctionTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	st, err := h.types.Update(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, st, nil)
}

// Delete godoc
// @Summary Delete sanction type
// @Tags SanctionTypes
// @Produce json
// @Param id path string true "Sanction type ID"
// @Success 200 {object} response.Envelope
// @Router /master/sanction-types/{id} [delete]
func (h *SanctionTypeHandler) Delete(c *gin.Context) {
	if err := h.types.Delete(c.Request.Context(), c.Param("id"), claimsFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"deleted": true}, nil)
}
