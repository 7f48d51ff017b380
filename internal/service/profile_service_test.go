package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-tatib-api/internal/models"
)

type mockProfileRepo struct {
	first    *time.Time
	total    int
	resolved int
	recent   []models.CaseSummary
}

func (m *mockProfileRepo) FirstCaseCreatedAt(ctx context.Context, inputByID string) (*time.Time, error) {
	return m.first, nil
}

func (m *mockProfileRepo) CountByStatusForUser(ctx context.Context, inputByID string, status models.CaseStatus) (int, error) {
	if status == models.CaseStatusSelesai {
		return m.resolved, nil
	}
	return m.total, nil
}

func (m *mockProfileRepo) RecentCases(ctx context.Context, inputByID string, limit int) ([]models.CaseSummary, error) {
	return m.recent, nil
}

func TestProfileServiceStats(t *testing.T) {
	first := time.Date(2026, time.August, 20, 12, 0, 0, 0, time.UTC)
	repo := &mockProfileRepo{
		first:    &first,
		total:    10,
		resolved: 6,
		recent:   []models.CaseSummary{{ViolationCase: models.ViolationCase{ID: "c1"}}},
	}
	svc := NewProfileService(repo, zap.NewNop(), 5)
	svc.now = func() time.Time { return time.Date(2026, time.August, 30, 12, 0, 0, 0, time.UTC) }

	stats, err := svc.Stats(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 10, stats.TotalCasesReviewed)
	assert.Equal(t, 6, stats.TotalCasesResolved)
	assert.Equal(t, 10, stats.ActiveDays)
	assert.Len(t, stats.RecentCases, 1)
}

func TestProfileServiceStatsWholeDaysDoNotRoundUp(t *testing.T) {
	first := time.Date(2026, time.August, 20, 12, 0, 0, 0, time.UTC)
	repo := &mockProfileRepo{first: &first, total: 3}
	svc := NewProfileService(repo, zap.NewNop(), 5)
	svc.now = func() time.Time { return time.Date(2026, time.August, 27, 12, 0, 0, 0, time.UTC) }

	stats, err := svc.Stats(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 7, stats.ActiveDays)

	svc.now = func() time.Time { return time.Date(2026, time.August, 27, 12, 0, 1, 0, time.UTC) }
	stats, err = svc.Stats(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 8, stats.ActiveDays)
}

func TestProfileServiceStatsPartialDayCountsAsActive(t *testing.T) {
	first := time.Date(2026, time.August, 30, 8, 0, 0, 0, time.UTC)
	repo := &mockProfileRepo{first: &first, total: 1}
	svc := NewProfileService(repo, zap.NewNop(), 5)
	svc.now = func() time.Time { return time.Date(2026, time.August, 30, 10, 0, 0, 0, time.UTC) }

	stats, err := svc.Stats(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.ActiveDays)
}

func TestProfileServiceStatsNoCases(t *testing.T) {
	repo := &mockProfileRepo{}
	svc := NewProfileService(repo, zap.NewNop(), 5)

	stats, err := svc.Stats(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 0, stats.ActiveDays)
	assert.Equal(t, 0, stats.TotalCasesReviewed)
}
