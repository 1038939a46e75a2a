package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/fulfillment"
	"github.com/storefront/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormInventoryRepository implements InventoryRepository using GORM
type GormInventoryRepository struct {
	db *gorm.DB
}

// NewGormInventoryRepository creates a new GormInventoryRepository
func NewGormInventoryRepository(db *gorm.DB) *GormInventoryRepository {
	return &GormInventoryRepository{db: db}
}

// Upsert writes a stock level keyed by (tenant, sku). The feed is the source
// of truth, so an existing row is overwritten unconditionally.
func (r *GormInventoryRepository) Upsert(ctx context.Context, level fulfillment.InventoryLevel) error {
	model := models.InventoryLevelModelFromDomain(&level)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "tenant_id"}, {Name: "sku"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"available", "on_hand", "allocated",
				"warehouse_id", "warehouse_name", "last_synced_at",
			}),
		}).
		Create(model).Error
}

// FindByTenant lists stock levels for a tenant ordered by SKU
func (r *GormInventoryRepository) FindByTenant(ctx context.Context, tenantID uuid.UUID) ([]fulfillment.InventoryLevel, error) {
	var levelModels []models.InventoryLevelModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("sku ASC").
		Find(&levelModels).Error; err != nil {
		return nil, err
	}
	levels := make([]fulfillment.InventoryLevel, len(levelModels))
	for i := range levelModels {
		levels[i] = *levelModels[i].ToDomain()
	}
	return levels, nil
}
