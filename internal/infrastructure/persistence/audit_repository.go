package persistence

import (
	"context"

	"github.com/storefront/backend/internal/domain/fulfillment"
	"github.com/storefront/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormAuditRepository implements AuditRepository using GORM. The table is
// append only; nothing in the gateway updates or deletes entries.
type GormAuditRepository struct {
	db *gorm.DB
}

// NewGormAuditRepository creates a new GormAuditRepository
func NewGormAuditRepository(db *gorm.DB) *GormAuditRepository {
	return &GormAuditRepository{db: db}
}

// Append persists an audit entry
func (r *GormAuditRepository) Append(ctx context.Context, entry *fulfillment.AuditEntry) error {
	model := models.AuditEntryModelFromDomain(entry)
	return r.db.WithContext(ctx).Create(model).Error
}
