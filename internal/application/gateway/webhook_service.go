package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/fulfillment"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/shipping"
	"go.uber.org/zap"
)

// WebhookDelivery is the decoded inbound webhook body
type WebhookDelivery struct {
	DeliveryID   string `json:"delivery_id" form:"delivery_id"`
	ResourceType string `json:"resource_type" form:"resource_type" binding:"required"`
	ResourceID   string `json:"resource_id" form:"resource_id"`
	Document     string `json:"document" form:"document"`
}

// WebhookResult reports what the ingestor did with a delivery
type WebhookResult struct {
	Accepted  bool      `json:"accepted"`
	Duplicate bool      `json:"duplicate,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	JobID     uuid.UUID `json:"job_id,omitempty"`
}

// jobPayload is the durable envelope enqueued for every accepted delivery
type jobPayload struct {
	TenantID     uuid.UUID `json:"tenant_id"`
	ResourceType string    `json:"resource_type"`
	ResourceID   string    `json:"resource_id"`
	Document     string    `json:"document"`
}

// WebhookService ingests webhook deliveries: classify, attempt a synchronous
// apply, then enqueue a durable job regardless of the synchronous outcome so
// a crash between apply and response cannot drop the update. Both paths are
// idempotent, so double application converges.
type WebhookService struct {
	shipments *ShipmentService
	jobs      fulfillment.JobRepository
	dedup     shared.IdempotencyStore
	dedupCfg  shared.IdempotencyConfig
	audit     fulfillment.AuditRepository
	logger    *zap.Logger
}

// NewWebhookService creates a new WebhookService. The dedup store is an
// optimization; passing nil disables it without changing semantics.
func NewWebhookService(
	shipments *ShipmentService,
	jobs fulfillment.JobRepository,
	dedup shared.IdempotencyStore,
	dedupCfg shared.IdempotencyConfig,
	audit fulfillment.AuditRepository,
	logger *zap.Logger,
) *WebhookService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebhookService{
		shipments: shipments,
		jobs:      jobs,
		dedup:     dedup,
		dedupCfg:  dedupCfg,
		audit:     audit,
		logger:    logger,
	}
}

// Ingest runs one delivery through the received -> classified -> sync-attempt
// -> enqueued pipeline. Payload-shape problems return a nil error with an
// unaccepted result so the caller answers 200 and the remote system stops
// retrying; only transient infrastructure failures return an error.
func (s *WebhookService) Ingest(ctx context.Context, tenantID uuid.UUID, delivery WebhookDelivery) (*WebhookResult, error) {
	began := time.Now()

	event, err := fulfillment.ClassifyWebhookEvent(tenantID, delivery.ResourceType, delivery.ResourceID, []byte(delivery.Document), began)
	if err != nil {
		s.auditWebhook(ctx, tenantID, fulfillment.AuditOutcomeFailure, fmt.Sprintf("unclassifiable delivery: %v", err), began)
		return &WebhookResult{Accepted: false, Reason: err.Error()}, nil
	}

	if dup, err := s.isDuplicate(ctx, delivery.DeliveryID); err != nil {
		s.logger.Warn("webhook dedup check failed, continuing without it", zap.Error(err))
	} else if dup {
		s.auditWebhook(ctx, tenantID, fulfillment.AuditOutcomeSuccess,
			fmt.Sprintf("duplicate delivery %s ignored", delivery.DeliveryID), began)
		return &WebhookResult{Accepted: true, Duplicate: true}, nil
	}

	priority := fulfillment.JobPriorityHigh
	syncErr := s.applySync(ctx, event)
	if syncErr != nil {
		// The durable job is the recovery path, so it jumps the queue
		priority = fulfillment.JobPriorityUrgent
		s.logger.Warn("synchronous webhook processing failed, deferring to job",
			zap.String("resource_type", string(event.Kind())),
			zap.String("resource_id", event.ResourceID()),
			zap.Error(syncErr),
		)
	}

	job, err := s.enqueue(ctx, event, delivery, priority)
	if err != nil {
		s.auditWebhook(ctx, tenantID, fulfillment.AuditOutcomeFailure, fmt.Sprintf("enqueue failed: %v", err), began)
		return nil, fmt.Errorf("%w: enqueue webhook job: %v", shared.ErrTransientInfra, err)
	}

	// The enqueue is the commit point: the delivery is only marked processed
	// once a durable job guarantees its follow-up, so a retry of a failed
	// pass is never short-circuited as a duplicate.
	s.markProcessed(ctx, delivery.DeliveryID)

	if syncErr != nil && errors.Is(syncErr, shared.ErrTransientInfra) {
		// The remote system should retry; the queued job covers a crash in
		// the meantime.
		s.auditWebhook(ctx, tenantID, fulfillment.AuditOutcomeFailure,
			fmt.Sprintf("sync apply failed transiently, job %s queued urgent", job.ID), began)
		return nil, syncErr
	}

	outcome := fulfillment.AuditOutcomeSuccess
	detail := fmt.Sprintf("kind=%s job=%s", event.Kind(), job.ID)
	if syncErr != nil {
		detail = fmt.Sprintf("%s sync_error=%v", detail, syncErr)
	}
	s.auditWebhook(ctx, tenantID, outcome, detail, began)

	return &WebhookResult{Accepted: true, JobID: job.ID}, nil
}

// applySync attempts the immediate update for low end-to-end latency. For
// shipment and delivery events the document is a shipment notice; order
// events have no synchronous effect, the remote state is pulled through the
// export path.
func (s *WebhookService) applySync(ctx context.Context, event fulfillment.WebhookEvent) error {
	switch event.(type) {
	case fulfillment.ShipmentEvent, fulfillment.DeliveryEvent:
		notification, err := shipping.ParseShipmentNotification(event.RawPayload())
		if err != nil {
			return err
		}
		_, err = s.shipments.Apply(ctx, event.Tenant(), notification)
		return err
	case fulfillment.OrderEvent:
		return nil
	}
	return fmt.Errorf("unhandled webhook event kind %q", event.Kind())
}

func (s *WebhookService) enqueue(ctx context.Context, event fulfillment.WebhookEvent, delivery WebhookDelivery, priority fulfillment.JobPriority) (*fulfillment.Job, error) {
	payload, err := json.Marshal(jobPayload{
		TenantID:     event.Tenant(),
		ResourceType: string(event.Kind()),
		ResourceID:   event.ResourceID(),
		Document:     delivery.Document,
	})
	if err != nil {
		return nil, err
	}

	job := fulfillment.NewJob(event.Tenant(), fulfillment.JobTypeForEvent(event), payload, priority)
	if err := s.jobs.Enqueue(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

func (s *WebhookService) isDuplicate(ctx context.Context, deliveryID string) (bool, error) {
	if s.dedup == nil || !s.dedupCfg.Enabled || deliveryID == "" {
		return false, nil
	}
	return s.dedup.IsProcessed(ctx, deliveryID)
}

func (s *WebhookService) markProcessed(ctx context.Context, deliveryID string) {
	if s.dedup == nil || !s.dedupCfg.Enabled || deliveryID == "" {
		return
	}
	if _, err := s.dedup.MarkProcessed(ctx, deliveryID, s.dedupCfg.TTL); err != nil {
		s.logger.Warn("failed to mark delivery processed", zap.String("delivery_id", deliveryID), zap.Error(err))
	}
}

func (s *WebhookService) auditWebhook(ctx context.Context, tenantID uuid.UUID, outcome fulfillment.AuditOutcome, detail string, began time.Time) {
	entry := fulfillment.NewAuditEntry(tenantID, fulfillment.AuditOpWebhook, outcome, detail, time.Since(began))
	if err := s.audit.Append(ctx, entry); err != nil {
		s.logger.Error("failed to append webhook audit entry", zap.Error(err))
	}
}
