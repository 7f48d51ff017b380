package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-tatib-api/internal/models"
	appErrors "github.com/noah-isme/sma-tatib-api/pkg/errors"
	"github.com/noah-isme/sma-tatib-api/pkg/jobs"
)

type auditRepository interface {
	Create(ctx context.Context, log *models.AuditLog) error
	List(ctx context.Context, filter models.AuditLogFilter) ([]models.AuditLog, int, error)
}

// AuditEntry describes one event to be recorded.
type AuditEntry struct {
	Actor     *models.JWTClaims
	Action    string
	Entity    string
	EntityID  string
	OldValues interface{}
	NewValues interface{}
	IPAddress string
	UserAgent string
}

// AuditService is a best-effort asynchronous sink for audit events. Records
// are enqueued onto an in-process worker queue; enqueue or write failures are
// warn-logged and never propagated, so the primary operation is unaffected.
type AuditService struct {
	repo    auditRepository
	queue   *jobs.Queue
	metrics *MetricsService
	logger  *zap.Logger
}

// AuditQueueConfig tunes the background sink.
type AuditQueueConfig struct {
	Workers    int
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
}

// NewAuditService constructs the service and its backing queue. Call Start
// before recording and Stop on shutdown.
func NewAuditService(repo auditRepository, metrics *MetricsService, logger *zap.Logger, cfg AuditQueueConfig) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &AuditService{repo: repo, metrics: metrics, logger: logger}
	s.queue = jobs.NewQueue("audit", s.handle, jobs.QueueConfig{
		Workers:    cfg.Workers,
		BufferSize: cfg.BufferSize,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
	})
	return s
}

// Start launches the background workers.
func (s *AuditService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the workers.
func (s *AuditService) Stop() {
	s.queue.Stop()
}

// Record enqueues an audit entry. It never fails the caller.
func (s *AuditService) Record(entry AuditEntry) {
	log := &models.AuditLog{
		Action:    entry.Action,
		Entity:    entry.Entity,
		IPAddress: entry.IPAddress,
		UserAgent: entry.UserAgent,
		CreatedAt: time.Now().UTC(),
	}
	if entry.Actor != nil {
		userID := entry.Actor.UserID
		log.UserID = &userID
	}
	if entry.EntityID != "" {
		entityID := entry.EntityID
		log.EntityID = &entityID
	}
	if entry.OldValues != nil {
		if raw, err := json.Marshal(entry.OldValues); err == nil {
			log.OldValues = raw
		}
	}
	if entry.NewValues != nil {
		if raw, err := json.Marshal(entry.NewValues); err == nil {
			log.NewValues = raw
		}
	}

	if err := s.queue.Enqueue(jobs.Job{ID: uuid.NewString(), Type: "audit_log", Payload: log}); err != nil {
		s.logger.Warn("audit enqueue failed",
			zap.String("action", entry.Action),
			zap.String("entity", entry.Entity),
			zap.Error(err))
		if s.metrics != nil {
			s.metrics.RecordAuditDropped()
		}
	}
}

func (s *AuditService) handle(ctx context.Context, job jobs.Job) error {
	log, ok := job.Payload.(*models.AuditLog)
	if !ok {
		s.logger.Warn("audit job carried unexpected payload", zap.String("job_id", job.ID))
		return nil
	}
	if err := s.repo.Create(ctx, log); err != nil {
		s.logger.Warn("audit write failed", zap.String("entity", log.Entity), zap.Error(err))
		return err
	}
	return nil
}

// List exposes the audit trail for administrators.
func (s *AuditService) List(ctx context.Context, filter models.AuditLogFilter) ([]models.AuditLog, *models.Pagination, error) {
	logs, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list audit logs")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 50
	}
	return logs, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}
