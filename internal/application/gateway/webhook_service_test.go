package gateway

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/fulfillment"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var errDatabaseDown = errors.New("connection refused")

// erroringOrderRepo simulates a database outage
type erroringOrderRepo struct{}

func (erroringOrderRepo) FindForExport(context.Context, fulfillment.OrderExportQuery) ([]*fulfillment.Order, int64, error) {
	return nil, 0, errDatabaseDown
}
func (erroringOrderRepo) FindByID(context.Context, uuid.UUID, uuid.UUID) (*fulfillment.Order, error) {
	return nil, errDatabaseDown
}
func (erroringOrderRepo) FindByNumber(context.Context, uuid.UUID, string) (*fulfillment.Order, error) {
	return nil, errDatabaseDown
}
func (erroringOrderRepo) ApplyFulfillment(context.Context, uuid.UUID, uuid.UUID, fulfillment.FulfillmentState) error {
	return errDatabaseDown
}

func newTestWebhookService(orders fulfillment.OrderRepository, dedup shared.IdempotencyStore) (*WebhookService, *fakeJobRepo, *fakeAuditRepo) {
	jobs := &fakeJobRepo{}
	audit := &fakeAuditRepo{}
	shipments := NewShipmentService(orders, audit, zap.NewNop())
	svc := NewWebhookService(shipments, jobs, dedup, shared.DefaultIdempotencyConfig(), audit, zap.NewNop())
	return svc, jobs, audit
}

func shipmentDelivery(deliveryID, orderNumber, tracking string) WebhookDelivery {
	return WebhookDelivery{
		DeliveryID:   deliveryID,
		ResourceType: "shipment",
		ResourceID:   tracking,
		Document:     string(shipNotice(orderNumber, tracking)),
	}
}

func TestWebhookService_Ingest(t *testing.T) {
	ctx := context.Background()

	t.Run("applies synchronously and still enqueues a durable job", func(t *testing.T) {
		tenantID := uuid.New()
		order := testOrder(tenantID, "SO-1001")
		svc, jobs, _ := newTestWebhookService(newFakeOrderRepo(order), nil)

		result, err := svc.Ingest(ctx, tenantID, shipmentDelivery("d-1", "SO-1001", "1Z999"))
		require.NoError(t, err)
		assert.True(t, result.Accepted)

		require.NotNil(t, order.Fulfillment)
		assert.Equal(t, "1Z999", order.Fulfillment.TrackingNumber)

		queued := jobs.enqueued()
		require.Len(t, queued, 1)
		assert.Equal(t, fulfillment.JobTypeShipmentUpdate, queued[0].Type)
		assert.Equal(t, fulfillment.JobPriorityHigh, queued[0].Priority)
	})

	t.Run("unknown resource type is unaccepted but not an error", func(t *testing.T) {
		svc, jobs, _ := newTestWebhookService(newFakeOrderRepo(), nil)

		result, err := svc.Ingest(ctx, uuid.New(), WebhookDelivery{ResourceType: "refund", Document: "{}"})
		require.NoError(t, err)
		assert.False(t, result.Accepted)
		assert.NotEmpty(t, result.Reason)
		assert.Empty(t, jobs.enqueued())
	})

	t.Run("payload-shape sync failure still enqueues, at urgent", func(t *testing.T) {
		// Order missing: permanent, remote retries must stop, the job carries it
		svc, jobs, _ := newTestWebhookService(newFakeOrderRepo(), nil)

		result, err := svc.Ingest(ctx, uuid.New(), shipmentDelivery("d-1", "SO-MISSING", "1Z999"))
		require.NoError(t, err)
		assert.True(t, result.Accepted)

		queued := jobs.enqueued()
		require.Len(t, queued, 1)
		assert.Equal(t, fulfillment.JobPriorityUrgent, queued[0].Priority)
	})

	t.Run("transient sync failure enqueues urgent and returns the error", func(t *testing.T) {
		svc, jobs, _ := newTestWebhookService(erroringOrderRepo{}, nil)

		_, err := svc.Ingest(ctx, uuid.New(), shipmentDelivery("d-1", "SO-1001", "1Z999"))
		assert.ErrorIs(t, err, shared.ErrTransientInfra)

		queued := jobs.enqueued()
		require.Len(t, queued, 1)
		assert.Equal(t, fulfillment.JobPriorityUrgent, queued[0].Priority)
	})

	t.Run("duplicate delivery yields one tracking value and one job", func(t *testing.T) {
		tenantID := uuid.New()
		order := testOrder(tenantID, "SO-1001")
		svc, jobs, _ := newTestWebhookService(newFakeOrderRepo(order), newFakeDedup())

		delivery := shipmentDelivery("d-dup", "SO-1001", "1Z999")

		first, err := svc.Ingest(ctx, tenantID, delivery)
		require.NoError(t, err)
		assert.False(t, first.Duplicate)

		second, err := svc.Ingest(ctx, tenantID, delivery)
		require.NoError(t, err)
		assert.True(t, second.Duplicate)

		assert.Equal(t, "1Z999", order.Fulfillment.TrackingNumber)
		assert.Len(t, jobs.enqueued(), 1)
	})

	t.Run("redelivery after a failed pass is not treated as duplicate", func(t *testing.T) {
		tenantID := uuid.New()
		svc, jobs, _ := newTestWebhookService(erroringOrderRepo{}, newFakeDedup())
		jobs.setEnqueueErr(errDatabaseDown)

		delivery := shipmentDelivery("d-retry", "SO-1001", "1Z999")

		_, err := svc.Ingest(ctx, tenantID, delivery)
		require.ErrorIs(t, err, shared.ErrTransientInfra)
		assert.Empty(t, jobs.enqueued())

		// The outage clears; the remote retries the same delivery id. The
		// failed pass must not have marked it processed.
		jobs.setEnqueueErr(nil)

		result, err := svc.Ingest(ctx, tenantID, delivery)
		require.ErrorIs(t, err, shared.ErrTransientInfra)
		assert.Nil(t, result)

		queued := jobs.enqueued()
		require.Len(t, queued, 1)
		assert.Equal(t, fulfillment.JobPriorityUrgent, queued[0].Priority)
	})

	t.Run("without a dedup store duplicates converge idempotently", func(t *testing.T) {
		tenantID := uuid.New()
		order := testOrder(tenantID, "SO-1001")
		svc, _, _ := newTestWebhookService(newFakeOrderRepo(order), nil)

		delivery := shipmentDelivery("d-dup", "SO-1001", "1Z999")

		_, err := svc.Ingest(ctx, tenantID, delivery)
		require.NoError(t, err)
		_, err = svc.Ingest(ctx, tenantID, delivery)
		require.NoError(t, err)

		assert.Equal(t, "1Z999", order.Fulfillment.TrackingNumber)
	})

	t.Run("order events enqueue without a synchronous write", func(t *testing.T) {
		svc, jobs, _ := newTestWebhookService(newFakeOrderRepo(), nil)

		result, err := svc.Ingest(ctx, uuid.New(), WebhookDelivery{
			ResourceType: "order",
			ResourceID:   "SO-1001",
			Document:     `{"status":"cancelled"}`,
		})
		require.NoError(t, err)
		assert.True(t, result.Accepted)

		queued := jobs.enqueued()
		require.Len(t, queued, 1)
		assert.Equal(t, fulfillment.JobTypeOrderUpdate, queued[0].Type)
		assert.Equal(t, fulfillment.JobPriorityHigh, queued[0].Priority)
	})
}
