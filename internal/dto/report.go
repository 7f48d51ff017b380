package dto

import (
	"time"

	"github.com/noah-isme/sma-tatib-api/internal/models"
)

// DashboardResponse is the composed payload behind the dashboard endpoint.
type DashboardResponse struct {
	TotalCases     int                    `json:"total_cases"`
	ByStatus       []models.StatusCount   `json:"by_status"`
	ByCategory     []models.CategoryCount `json:"by_category"`
	RecentCases    []models.CaseSummary   `json:"recent_cases"`
	RecentActivity []models.CaseAction    `json:"recent_activity"`
	GeneratedAt    time.Time              `json:"generated_at"`
}

// MonthlyReportResponse summarises a single reporting window.
type MonthlyReportResponse struct {
	Month       int                    `json:"month,omitempty"`
	Semester    int                    `json:"semester,omitempty"`
	Year        int                    `json:"year"`
	TotalCases  int                    `json:"total_cases"`
	ByStatus    []models.StatusCount   `json:"by_status"`
	ByCategory  []models.CategoryCount `json:"by_category"`
	TopStudents []models.TopStudent    `json:"top_students"`
	GeneratedAt time.Time              `json:"generated_at"`
}

// StatisticsResponse carries trend series and rankings.
type StatisticsResponse struct {
	Interval    string                 `json:"interval"`
	Trend       []models.TrendPoint    `json:"trend"`
	TopStudents []models.TopStudent    `json:"top_students"`
	ByCategory  []models.CategoryCount `json:"by_category"`
	GeneratedAt time.Time              `json:"generated_at"`
}

// ProfileStatsResponse scopes reporting figures to the calling user.
type ProfileStatsResponse struct {
	TotalCasesReviewed int                  `json:"totalCasesReviewed"`
	TotalCasesResolved int                  `json:"totalCasesResolved"`
	ActiveDays         int                  `json:"activeDays"`
	RecentCases        []models.CaseSummary `json:"recentCases"`
}

// UploadResponse describes a stored evidence file.
type UploadResponse struct {
	URL      string `json:"url"`
	FileName string `json:"fileName"`
	FileSize int64  `json:"fileSize"`
	FileType string `json:"fileType"`
}
