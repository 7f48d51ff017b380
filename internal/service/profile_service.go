package service

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-tatib-api/internal/dto"
	"github.com/noah-isme/sma-tatib-api/internal/models"
	appErrors "github.com/noah-isme/sma-tatib-api/pkg/errors"
)

type profileReportRepository interface {
	FirstCaseCreatedAt(ctx context.Context, inputByID string) (*time.Time, error)
	CountByStatusForUser(ctx context.Context, inputByID string, status models.CaseStatus) (int, error)
	RecentCases(ctx context.Context, inputByID string, limit int) ([]models.CaseSummary, error)
}

// ProfileService scopes reporting figures to a single user.
type ProfileService struct {
	repo        profileReportRepository
	logger      *zap.Logger
	recentLimit int
	now         func() time.Time
}

// NewProfileService constructs the profile service.
func NewProfileService(repo profileReportRepository, logger *zap.Logger, recentLimit int) *ProfileService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if recentLimit <= 0 {
		recentLimit = 5
	}
	return &ProfileService{
		repo:        repo,
		logger:      logger,
		recentLimit: recentLimit,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Stats summarises the calling user's reporting activity. Active days count
// from the user's first recorded case, rounded up to whole days.
func (s *ProfileService) Stats(ctx context.Context, userID string) (*dto.ProfileStatsResponse, error) {
	total, err := s.repo.CountByStatusForUser(ctx, userID, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count user cases")
	}
	resolved, err := s.repo.CountByStatusForUser(ctx, userID, models.CaseStatusSelesai)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count resolved cases")
	}
	first, err := s.repo.FirstCaseCreatedAt(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load first case date")
	}
	recent, err := s.repo.RecentCases(ctx, userID, s.recentLimit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load recent cases")
	}

	activeDays := 0
	if first != nil {
		elapsed := s.now().Sub(*first)
		if elapsed > 0 {
			activeDays = int(math.Ceil(elapsed.Hours() / 24))
		}
	}

	return &dto.ProfileStatsResponse{
		TotalCasesReviewed: total,
		TotalCasesResolved: resolved,
		ActiveDays:         activeDays,
		RecentCases:        recent,
	}, nil
}
