package fulfillment

import (
	"time"

	"github.com/google/uuid"
)

// InventoryLevel is the local stock record merged from the remote inventory
// feed, keyed by (tenant, sku). Upserts are last-write-wins per sync pass.
type InventoryLevel struct {
	TenantID      uuid.UUID
	SKU           string
	Available     int
	OnHand        int
	Allocated     int
	WarehouseID   string
	WarehouseName string
	LastSyncedAt  time.Time
}

// FeedRecord is one record of the remote inventory feed
type FeedRecord struct {
	SKU           string `json:"sku"`
	Available     int    `json:"available"`
	OnHand        int    `json:"on_hand"`
	Allocated     int    `json:"allocated"`
	WarehouseID   string `json:"warehouse_id"`
	WarehouseName string `json:"warehouse_name"`
}

// ToLevel converts a feed record into the local stock record for a tenant
func (r FeedRecord) ToLevel(tenantID uuid.UUID, syncedAt time.Time) InventoryLevel {
	return InventoryLevel{
		TenantID:      tenantID,
		SKU:           r.SKU,
		Available:     r.Available,
		OnHand:        r.OnHand,
		Allocated:     r.Allocated,
		WarehouseID:   r.WarehouseID,
		WarehouseName: r.WarehouseName,
		LastSyncedAt:  syncedAt,
	}
}
