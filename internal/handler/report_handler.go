package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-tatib-api/internal/models"
	"github.com/noah-isme/sma-tatib-api/internal/service"
	"github.com/noah-isme/sma-tatib-api/pkg/response"
)

// ReportHandler exposes aggregation and export endpoints.
type ReportHandler struct {
	reports *service.ReportService
}

// NewReportHandler constructs ReportHandler.
func NewReportHandler(reports *service.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

func windowFromQuery(c *gin.Context) models.ReportWindow {
	window := models.ReportWindow{}
	if month, err := strconv.Atoi(c.Query("month")); err == nil {
		window.Month = month
	}
	if semester, err := strconv.Atoi(c.Query("semester")); err == nil {
		window.Semester = semester
	}
	if year, err := strconv.Atoi(c.Query("year")); err == nil {
		window.Year = year
	}
	if window.Year == 0 {
		window.Year = time.Now().UTC().Year()
	}
	if c.Query("scope") == "mine" {
		if claims := claimsFromContext(c); claims != nil {
			window.InputByID = claims.UserID
		}
	}
	return window
}

// Dashboard godoc
// @Summary Dashboard summary
// @Tags Reports
// @Produce json
// @Param month query int false "Month (1-12)"
// @Param semester query int false "Semester (1 or 2)"
// @Param year query int false "Year"
// @Param scope query string false "Set to mine to scope to the caller's own cases"
// @Success 200 {object} response.Envelope
// @Router /reports/dashboard [get]
func (h *ReportHandler) Dashboard(c *gin.Context) {
	result, err := h.reports.Dashboard(c.Request.Context(), windowFromQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Monthly godoc
// @Summary Windowed violation report
// @Tags Reports
// @Produce json
// @Param month query int false "Month (1-12)"
// @Param semester query int false "Semester (1 or 2)"
// @Param year query int false "Year"
// @Param scope query string false "Set to mine to scope to the caller's own cases"
// @Success 200 {object} response.Envelope
// @Router /reports/monthly [get]
func (h *ReportHandler) Monthly(c *gin.Context) {
	result, err := h.reports.Monthly(c.Request.Context(), windowFromQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Statistics godoc
// @Summary Trend statistics
// @Tags Reports
// @Produce json
// @Param interval query string false "Bucket interval (week or month)"
// @Param month query int false "Month (1-12)"
// @Param semester query int false "Semester (1 or 2)"
// @Param year query int false "Year"
// @Success 200 {object} response.Envelope
// @Router /reports/statistics [get]
func (h *ReportHandler) Statistics(c *gin.Context) {
	result, err := h.reports.Statistics(c.Request.Context(), windowFromQuery(c), c.DefaultQuery("interval", "month"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Export godoc
// @Summary Export the windowed report
// @Tags Reports
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "Export format (csv or pdf)"
// @Param month query int false "Month (1-12)"
// @Param semester query int false "Semester (1 or 2)"
// @Param year query int false "Year"
// @Success 200
// @Router /reports/export [get]
func (h *ReportHandler) Export(c *gin.Context) {
	window := windowFromQuery(c)
	format := c.DefaultQuery("format", "csv")

	var (
		data        []byte
		filename    string
		contentType string
		err         error
	)
	switch format {
	case "pdf":
		data, filename, err = h.reports.ExportPDF(c.Request.Context(), window)
		contentType = "application/pdf"
	default:
		data, filename, err = h.reports.ExportCSV(c.Request.Context(), window)
		contentType = "text/csv"
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, contentType, data)
}
