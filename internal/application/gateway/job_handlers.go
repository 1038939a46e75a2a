package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/storefront/backend/internal/domain/fulfillment"
	"github.com/storefront/backend/internal/infrastructure/shipping"
	"go.uber.org/zap"
)

// JobDispatcher routes claimed jobs to their handlers. It is the single
// fulfillment.Job entry point handed to the worker pool.
type JobDispatcher struct {
	shipments *ShipmentService
	inventory *InventoryService
	audit     fulfillment.AuditRepository
	logger    *zap.Logger
}

// NewJobDispatcher creates a new JobDispatcher
func NewJobDispatcher(
	shipments *ShipmentService,
	inventory *InventoryService,
	audit fulfillment.AuditRepository,
	logger *zap.Logger,
) *JobDispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JobDispatcher{
		shipments: shipments,
		inventory: inventory,
		audit:     audit,
		logger:    logger,
	}
}

// Handle executes one claimed job. Every handler is an idempotent upsert, so
// the at-least-once queue can replay it safely.
func (d *JobDispatcher) Handle(ctx context.Context, job *fulfillment.Job) error {
	began := time.Now()

	var err error
	switch job.Type {
	case fulfillment.JobTypeShipmentUpdate, fulfillment.JobTypeDeliveryUpdate:
		err = d.handleShipmentUpdate(ctx, job)
	case fulfillment.JobTypeOrderUpdate:
		err = d.handleOrderUpdate(ctx, job)
	case fulfillment.JobTypeInventorySync:
		err = d.handleInventorySync(ctx, job)
	default:
		err = fmt.Errorf("unknown job type %q", job.Type)
	}

	outcome := fulfillment.AuditOutcomeSuccess
	detail := fmt.Sprintf("type=%s attempt=%d", job.Type, job.Attempts)
	if err != nil {
		outcome = fulfillment.AuditOutcomeFailure
		detail = fmt.Sprintf("%s error=%v", detail, err)
	}
	entry := fulfillment.NewAuditEntry(job.TenantID, fulfillment.AuditOpJobExecution, outcome, detail, time.Since(began))
	if auditErr := d.audit.Append(ctx, entry); auditErr != nil {
		d.logger.Error("failed to append job audit entry", zap.Error(auditErr))
	}

	return err
}

func (d *JobDispatcher) handleShipmentUpdate(ctx context.Context, job *fulfillment.Job) error {
	var payload jobPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("decode job payload: %w", err)
	}

	notification, err := shipping.ParseShipmentNotification([]byte(payload.Document))
	if err != nil {
		return err
	}

	_, err = d.shipments.Apply(ctx, job.TenantID, notification)
	return err
}

// handleOrderUpdate records that the remote order changed. Order state flows
// back through the export path, so there is nothing to write here.
func (d *JobDispatcher) handleOrderUpdate(_ context.Context, job *fulfillment.Job) error {
	var payload jobPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("decode job payload: %w", err)
	}
	d.logger.Info("order update acknowledged",
		zap.String("tenant_id", job.TenantID.String()),
		zap.String("resource_id", payload.ResourceID),
	)
	return nil
}

func (d *JobDispatcher) handleInventorySync(ctx context.Context, job *fulfillment.Job) error {
	_, err := d.inventory.SyncInventory(ctx, job.TenantID)
	return err
}
