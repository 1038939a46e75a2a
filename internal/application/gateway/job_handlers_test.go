package gateway

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/fulfillment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestDispatcher(orders fulfillment.OrderRepository, feed fulfillment.InventoryFeed) (*JobDispatcher, *fakeAuditRepo) {
	audit := &fakeAuditRepo{}
	shipments := NewShipmentService(orders, audit, zap.NewNop())
	inventory := NewInventoryService(feed, newFakeInventoryRepo(), audit, 25, zap.NewNop())
	return NewJobDispatcher(shipments, inventory, audit, zap.NewNop()), audit
}

func shipmentJob(t *testing.T, tenantID uuid.UUID, orderNumber, tracking string) *fulfillment.Job {
	t.Helper()
	payload, err := json.Marshal(jobPayload{
		TenantID:     tenantID,
		ResourceType: "shipment",
		ResourceID:   tracking,
		Document:     string(shipNotice(orderNumber, tracking)),
	})
	require.NoError(t, err)
	return fulfillment.NewJob(tenantID, fulfillment.JobTypeShipmentUpdate, payload, fulfillment.JobPriorityHigh)
}

func TestJobDispatcher_Handle(t *testing.T) {
	ctx := context.Background()

	t.Run("shipment job applies the notification", func(t *testing.T) {
		tenantID := uuid.New()
		order := testOrder(tenantID, "SO-1001")
		dispatcher, audit := newTestDispatcher(newFakeOrderRepo(order), &fakeFeed{})

		err := dispatcher.Handle(ctx, shipmentJob(t, tenantID, "SO-1001", "1Z999"))
		require.NoError(t, err)

		require.NotNil(t, order.Fulfillment)
		assert.Equal(t, "1Z999", order.Fulfillment.TrackingNumber)

		entries := audit.byOperation(fulfillment.AuditOpJobExecution)
		require.Len(t, entries, 1)
		assert.Equal(t, fulfillment.AuditOutcomeSuccess, entries[0].Outcome)
	})

	t.Run("replaying a shipment job converges", func(t *testing.T) {
		tenantID := uuid.New()
		order := testOrder(tenantID, "SO-1001")
		dispatcher, _ := newTestDispatcher(newFakeOrderRepo(order), &fakeFeed{})

		job := shipmentJob(t, tenantID, "SO-1001", "1Z999")
		require.NoError(t, dispatcher.Handle(ctx, job))
		require.NoError(t, dispatcher.Handle(ctx, job))

		assert.Equal(t, "1Z999", order.Fulfillment.TrackingNumber)
	})

	t.Run("failed handler outcome is audited", func(t *testing.T) {
		tenantID := uuid.New()
		dispatcher, audit := newTestDispatcher(newFakeOrderRepo(), &fakeFeed{})

		err := dispatcher.Handle(ctx, shipmentJob(t, tenantID, "SO-MISSING", "1Z999"))
		require.Error(t, err)

		entries := audit.byOperation(fulfillment.AuditOpJobExecution)
		require.Len(t, entries, 1)
		assert.Equal(t, fulfillment.AuditOutcomeFailure, entries[0].Outcome)
	})

	t.Run("inventory sync job pulls the feed", func(t *testing.T) {
		tenantID := uuid.New()
		feed := &fakeFeed{records: feedRecords(3)}
		dispatcher, _ := newTestDispatcher(newFakeOrderRepo(), feed)

		job := fulfillment.NewJob(tenantID, fulfillment.JobTypeInventorySync, nil, fulfillment.JobPriorityMedium)
		require.NoError(t, dispatcher.Handle(ctx, job))
		assert.Equal(t, 1, feed.fetchCount())
	})

	t.Run("order update job is acknowledged without a write", func(t *testing.T) {
		tenantID := uuid.New()
		payload, err := json.Marshal(jobPayload{TenantID: tenantID, ResourceType: "order", ResourceID: "SO-1"})
		require.NoError(t, err)
		dispatcher, _ := newTestDispatcher(newFakeOrderRepo(), &fakeFeed{})

		job := fulfillment.NewJob(tenantID, fulfillment.JobTypeOrderUpdate, payload, fulfillment.JobPriorityHigh)
		assert.NoError(t, dispatcher.Handle(ctx, job))
	})

	t.Run("unknown job type errors", func(t *testing.T) {
		dispatcher, _ := newTestDispatcher(newFakeOrderRepo(), &fakeFeed{})
		job := fulfillment.NewJob(uuid.New(), "refund.update", nil, fulfillment.JobPriorityLow)
		assert.Error(t, dispatcher.Handle(ctx, job))
	})
}
