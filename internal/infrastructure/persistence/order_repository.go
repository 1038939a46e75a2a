package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/fulfillment"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormOrderRepository implements OrderRepository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// FindForExport returns orders whose modified timestamp falls inside the
// half-open range [start, end), newest first with id as the tie-break so
// pagination is stable across requests.
func (r *GormOrderRepository) FindForExport(ctx context.Context, q fulfillment.OrderExportQuery) ([]*fulfillment.Order, int64, error) {
	base := r.db.WithContext(ctx).Model(&models.OrderModel{}).
		Where("tenant_id = ? AND modified_at >= ? AND modified_at < ?", q.TenantID, q.Start, q.End)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orderModels []models.OrderModel
	if err := base.
		Preload("Items").
		Order("modified_at DESC, id ASC").
		Offset((q.Page - 1) * q.PageSize).
		Limit(q.PageSize).
		Find(&orderModels).Error; err != nil {
		return nil, 0, err
	}

	orders := make([]*fulfillment.Order, len(orderModels))
	for i := range orderModels {
		orders[i] = orderModels[i].ToDomain()
	}
	return orders, total, nil
}

// FindByID loads one order scoped to a tenant, nil when absent
func (r *GormOrderRepository) FindByID(ctx context.Context, tenantID, orderID uuid.UUID) (*fulfillment.Order, error) {
	var model models.OrderModel
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("tenant_id = ? AND id = ?", tenantID, orderID).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByNumber loads one order by its order number, nil when absent
func (r *GormOrderRepository) FindByNumber(ctx context.Context, tenantID uuid.UUID, number string) (*fulfillment.Order, error) {
	var model models.OrderModel
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("tenant_id = ? AND number = ?", tenantID, number).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// ApplyFulfillment writes the fulfillment-state slice of an order as a single
// conditional update. Core commercial fields, status included, belong to the
// order store and are never touched here. Repeated application of the same
// state is a no-op at the data level, so retried notifications converge.
func (r *GormOrderRepository) ApplyFulfillment(ctx context.Context, tenantID, orderID uuid.UUID, state fulfillment.FulfillmentState) error {
	now := time.Now().UTC()
	updates := map[string]any{
		"tracking_number": state.TrackingNumber,
		"carrier":         state.Carrier,
		"service":         state.Service,
		"ship_cost":       state.ShipCost,
		"shipped_at":      state.ShippedAt,
		"delivered_at":    state.DeliveredAt,
		"label_ref":       state.LabelRef,
		"return_form_ref": state.ReturnFormRef,
		"fulfill_notes":   state.Notes,
		"modified_at":     now,
	}

	res := r.db.WithContext(ctx).Model(&models.OrderModel{}).
		Where("tenant_id = ? AND id = ?", tenantID, orderID).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}
