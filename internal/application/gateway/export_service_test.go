package gateway

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/fulfillment"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestExportService_BuildExport(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()
	start, end := now.Add(-24*time.Hour), now.Add(time.Hour)

	t.Run("builds a page of complete orders", func(t *testing.T) {
		tenantID := uuid.New()
		orders := newFakeOrderRepo(testOrder(tenantID, "SO-1"), testOrder(tenantID, "SO-2"))
		svc := NewExportService(orders, &fakeAuditRepo{}, zap.NewNop())

		doc, err := svc.BuildExport(ctx, tenantID, start, end, 1, 50)
		require.NoError(t, err)
		assert.Len(t, doc.Orders, 2)
		assert.Equal(t, 1, doc.Page)
		assert.Equal(t, 1, doc.TotalPages)
		assert.Equal(t, int64(2), doc.Total)
		assert.Nil(t, doc.Excluded)
	})

	t.Run("rejects an inverted date range", func(t *testing.T) {
		svc := NewExportService(newFakeOrderRepo(), &fakeAuditRepo{}, zap.NewNop())

		_, err := svc.BuildExport(ctx, uuid.New(), end, start, 1, 50)
		assert.ErrorIs(t, err, shared.ErrValidationFailure)
	})

	t.Run("clamps page and page size", func(t *testing.T) {
		tenantID := uuid.New()
		orders := newFakeOrderRepo(testOrder(tenantID, "SO-1"))
		svc := NewExportService(orders, &fakeAuditRepo{}, zap.NewNop())

		doc, err := svc.BuildExport(ctx, tenantID, start, end, 0, MaxExportPageSize+500)
		require.NoError(t, err)
		assert.Equal(t, 1, doc.Page)
		assert.Equal(t, 1, doc.TotalPages)
	})

	t.Run("excludes incomplete orders and audits the count", func(t *testing.T) {
		tenantID := uuid.New()
		complete := testOrder(tenantID, "SO-1")
		partial := testOrder(tenantID, "SO-2")
		partial.ShipTo.City = ""
		audit := &fakeAuditRepo{}
		svc := NewExportService(newFakeOrderRepo(complete, partial), audit, zap.NewNop())

		doc, err := svc.BuildExport(ctx, tenantID, start, end, 1, 50)
		require.NoError(t, err)
		require.Len(t, doc.Orders, 1)
		assert.Equal(t, "SO-1", doc.Orders[0].Number)
		require.NotNil(t, doc.Excluded)
		assert.Equal(t, 1, doc.Excluded.Count)
		assert.Equal(t, "SO-2", doc.Excluded.Orders[0].Number)

		entries := audit.byOperation(fulfillment.AuditOpOrderExport)
		require.Len(t, entries, 1)
		assert.Contains(t, entries[0].Detail, "excluded=1")
	})

	t.Run("another tenant's orders never appear", func(t *testing.T) {
		tenantID := uuid.New()
		mine := testOrder(tenantID, "SO-1")
		theirs := testOrder(uuid.New(), "SO-9")
		svc := NewExportService(newFakeOrderRepo(mine, theirs), &fakeAuditRepo{}, zap.NewNop())

		doc, err := svc.BuildExport(ctx, tenantID, start, end, 1, 50)
		require.NoError(t, err)
		require.Len(t, doc.Orders, 1)
		assert.Equal(t, "SO-1", doc.Orders[0].Number)
	})
}
