package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/fulfillment"
	"github.com/storefront/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// QueueService is the operator view of the job queue: dead-letter inspection,
// replay, and status counts
type QueueService struct {
	jobs   fulfillment.JobRepository
	audit  fulfillment.AuditRepository
	logger *zap.Logger
}

// NewQueueService creates a new QueueService
func NewQueueService(jobs fulfillment.JobRepository, audit fulfillment.AuditRepository, logger *zap.Logger) *QueueService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QueueService{jobs: jobs, audit: audit, logger: logger}
}

// ListDeadLetters returns one page of dead-lettered jobs, most recently
// finished first
func (s *QueueService) ListDeadLetters(ctx context.Context, page, pageSize int) ([]*fulfillment.Job, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return s.jobs.FindDead(ctx, page, pageSize)
}

// ReplayJob resets a dead-lettered job so the workers pick it up again with a
// fresh attempt budget
func (s *QueueService) ReplayJob(ctx context.Context, jobID uuid.UUID, operator string) error {
	began := time.Now()

	job, err := s.jobs.FindByID(ctx, jobID)
	if err != nil {
		return err
	}

	if err := s.jobs.Replay(ctx, jobID); err != nil {
		s.auditReplay(ctx, job.TenantID, fulfillment.AuditOutcomeFailure,
			fmt.Sprintf("job=%s operator=%s: %v", jobID, operator, err), began)
		return err
	}

	s.auditReplay(ctx, job.TenantID, fulfillment.AuditOutcomeSuccess,
		fmt.Sprintf("job=%s operator=%s", jobID, operator), began)
	return nil
}

// Stats returns job counts per status
func (s *QueueService) Stats(ctx context.Context) (map[fulfillment.JobStatus]int64, error) {
	return s.jobs.CountByStatus(ctx)
}

// TriggerInventorySync enqueues a reconciliation job for a tenant. The workers
// pull the remote feed and converge stored levels when the job runs.
func (s *QueueService) TriggerInventorySync(ctx context.Context, tenantID uuid.UUID) (*fulfillment.Job, error) {
	job := fulfillment.NewJob(tenantID, fulfillment.JobTypeInventorySync, []byte(`{}`), fulfillment.JobPriorityMedium)
	if err := s.jobs.Enqueue(ctx, job); err != nil {
		return nil, fmt.Errorf("%w: enqueue inventory sync: %v", shared.ErrTransientInfra, err)
	}
	s.logger.Info("inventory sync requested",
		zap.String("tenant_id", tenantID.String()),
		zap.String("job_id", job.ID.String()),
	)
	return job, nil
}

func (s *QueueService) auditReplay(ctx context.Context, tenantID uuid.UUID, outcome fulfillment.AuditOutcome, detail string, began time.Time) {
	entry := fulfillment.NewAuditEntry(tenantID, fulfillment.AuditOpJobReplay, outcome, detail, time.Since(began))
	if err := s.audit.Append(ctx, entry); err != nil {
		s.logger.Error("failed to append replay audit entry", zap.Error(err))
	}
}
