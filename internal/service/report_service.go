package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-tatib-api/internal/dto"
	"github.com/noah-isme/sma-tatib-api/internal/models"
	appErrors "github.com/noah-isme/sma-tatib-api/pkg/errors"
	"github.com/noah-isme/sma-tatib-api/pkg/export"
)

type reportRepository interface {
	TotalCases(ctx context.Context, window models.ReportWindow) (int, error)
	CountByStatus(ctx context.Context, window models.ReportWindow) ([]models.StatusCount, error)
	CountByCategory(ctx context.Context, window models.ReportWindow) ([]models.CategoryCount, error)
	TopStudents(ctx context.Context, window models.ReportWindow, limit int) ([]models.TopStudent, error)
	Trend(ctx context.Context, window models.ReportWindow, interval string) ([]models.TrendPoint, error)
	RecentCases(ctx context.Context, inputByID string, limit int) ([]models.CaseSummary, error)
	RecentActions(ctx context.Context, limit int) ([]models.CaseAction, error)
}

// ReportServiceConfig tunes report generation.
type ReportServiceConfig struct {
	CacheTTL    time.Duration
	TopStudents int
	RecentLimit int
}

// ReportService composes read-only aggregation endpoints. Results are cached
// in Redis and recomputed on miss; case mutations invalidate the keys.
type ReportService struct {
	repo   reportRepository
	cache  *CacheService
	csv    *export.CSVExporter
	pdf    *export.PDFExporter
	logger *zap.Logger
	config ReportServiceConfig
	now    func() time.Time
}

// NewReportService constructs the report service.
func NewReportService(repo reportRepository, cache *CacheService, logger *zap.Logger, config ReportServiceConfig) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.TopStudents <= 0 {
		config.TopStudents = 10
	}
	if config.RecentLimit <= 0 {
		config.RecentLimit = 10
	}
	return &ReportService{
		repo:   repo,
		cache:  cache,
		csv:    export.NewCSVExporter(),
		pdf:    export.NewPDFExporter(),
		logger: logger,
		config: config,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func windowCacheKey(prefix string, window models.ReportWindow, extra string) string {
	key := fmt.Sprintf("reports:%s:m%d:s%d:y%d", prefix, window.Month, window.Semester, window.Year)
	if window.InputByID != "" {
		key += ":u" + window.InputByID
	}
	if extra != "" {
		key += ":" + extra
	}
	return key
}

// Dashboard composes headline figures plus recent activity.
func (s *ReportService) Dashboard(ctx context.Context, window models.ReportWindow) (*dto.DashboardResponse, error) {
	key := windowCacheKey("dashboard", window, "")
	if s.cache.Enabled() {
		var cached dto.DashboardResponse
		if hit, _ := s.cache.Get(ctx, key, &cached); hit {
			return &cached, nil
		}
	}

	total, err := s.repo.TotalCases(ctx, window)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count cases")
	}
	byStatus, err := s.repo.CountByStatus(ctx, window)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to group cases by status")
	}
	byCategory, err := s.repo.CountByCategory(ctx, window)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to group cases by category")
	}
	recent, err := s.repo.RecentCases(ctx, "", s.config.RecentLimit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load recent cases")
	}
	activity, err := s.repo.RecentActions(ctx, s.config.RecentLimit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load recent activity")
	}

	resp := &dto.DashboardResponse{
		TotalCases:     total,
		ByStatus:       byStatus,
		ByCategory:     byCategory,
		RecentCases:    recent,
		RecentActivity: activity,
		GeneratedAt:    s.now(),
	}
	if err := s.cache.Set(ctx, key, resp, s.config.CacheTTL); err != nil {
		s.logger.Warn("dashboard cache write failed", zap.Error(err))
	}
	return resp, nil
}

// Monthly summarises the given window: totals, status and category breakdowns
// and the most frequent offenders.
func (s *ReportService) Monthly(ctx context.Context, window models.ReportWindow) (*dto.MonthlyReportResponse, error) {
	key := windowCacheKey("monthly", window, "")
	if s.cache.Enabled() {
		var cached dto.MonthlyReportResponse
		if hit, _ := s.cache.Get(ctx, key, &cached); hit {
			return &cached, nil
		}
	}

	total, err := s.repo.TotalCases(ctx, window)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count cases")
	}
	byStatus, err := s.repo.CountByStatus(ctx, window)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to group cases by status")
	}
	byCategory, err := s.repo.CountByCategory(ctx, window)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to group cases by category")
	}
	topStudents, err := s.repo.TopStudents(ctx, window, s.config.TopStudents)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to rank students")
	}

	resp := &dto.MonthlyReportResponse{
		Month:       window.Month,
		Semester:    window.Semester,
		Year:        window.Year,
		TotalCases:  total,
		ByStatus:    byStatus,
		ByCategory:  byCategory,
		TopStudents: topStudents,
		GeneratedAt: s.now(),
	}
	if err := s.cache.Set(ctx, key, resp, s.config.CacheTTL); err != nil {
		s.logger.Warn("monthly report cache write failed", zap.Error(err))
	}
	return resp, nil
}

// Statistics returns trend series and rankings for the window.
func (s *ReportService) Statistics(ctx context.Context, window models.ReportWindow, interval string) (*dto.StatisticsResponse, error) {
	if interval != "week" {
		interval = "month"
	}
	key := windowCacheKey("statistics", window, interval)
	if s.cache.Enabled() {
		var cached dto.StatisticsResponse
		if hit, _ := s.cache.Get(ctx, key, &cached); hit {
			return &cached, nil
		}
	}

	trend, err := s.repo.Trend(ctx, window, interval)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute trend")
	}
	topStudents, err := s.repo.TopStudents(ctx, window, s.config.TopStudents)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to rank students")
	}
	byCategory, err := s.repo.CountByCategory(ctx, window)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to group cases by category")
	}

	resp := &dto.StatisticsResponse{
		Interval:    interval,
		Trend:       trend,
		TopStudents: topStudents,
		ByCategory:  byCategory,
		GeneratedAt: s.now(),
	}
	if err := s.cache.Set(ctx, key, resp, s.config.CacheTTL); err != nil {
		s.logger.Warn("statistics cache write failed", zap.Error(err))
	}
	return resp, nil
}

func monthlyDataset(report *dto.MonthlyReportResponse) export.Dataset {
	headers := []string{"Kategori", "Tingkat", "Jumlah Kasus", "Total Poin"}
	rows := make([]map[string]string, 0, len(report.ByCategory))
	for _, c := range report.ByCategory {
		rows = append(rows, map[string]string{
			"Kategori":     c.CategoryName,
			"Tingkat":      string(c.Level),
			"Jumlah Kasus": strconv.Itoa(c.Count),
			"Total Poin":   strconv.Itoa(c.TotalPoints),
		})
	}
	return export.Dataset{Headers: headers, Rows: rows}
}

func reportTitle(window models.ReportWindow) string {
	switch {
	case window.Month >= 1 && window.Month <= 12:
		return fmt.Sprintf("Laporan Pelanggaran %s %d", time.Month(window.Month).String(), window.Year)
	case window.Semester == 1 || window.Semester == 2:
		return fmt.Sprintf("Laporan Pelanggaran Semester %d %d", window.Semester, window.Year)
	default:
		return fmt.Sprintf("Laporan Pelanggaran Tahun %d", window.Year)
	}
}

// ExportCSV renders the monthly report as CSV bytes.
func (s *ReportService) ExportCSV(ctx context.Context, window models.ReportWindow) ([]byte, string, error) {
	report, err := s.Monthly(ctx, window)
	if err != nil {
		return nil, "", err
	}
	data, err := s.csv.Render(monthlyDataset(report))
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
	}
	filename := fmt.Sprintf("laporan-pelanggaran-%d-%02d.csv", window.Year, window.Month)
	return data, filename, nil
}

// ExportPDF renders the monthly report as a tabular PDF.
func (s *ReportService) ExportPDF(ctx context.Context, window models.ReportWindow) ([]byte, string, error) {
	report, err := s.Monthly(ctx, window)
	if err != nil {
		return nil, "", err
	}
	data, err := s.pdf.Render(monthlyDataset(report), reportTitle(window))
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
	}
	filename := fmt.Sprintf("laporan-pelanggaran-%d-%02d.pdf", window.Year, window.Month)
	return data, filename, nil
}
