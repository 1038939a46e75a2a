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

// GormCredentialRepository implements CredentialRepository using GORM
type GormCredentialRepository struct {
	db *gorm.DB
}

// NewGormCredentialRepository creates a new GormCredentialRepository
func NewGormCredentialRepository(db *gorm.DB) *GormCredentialRepository {
	return &GormCredentialRepository{db: db}
}

// Save persists a new credential
func (r *GormCredentialRepository) Save(ctx context.Context, cred *fulfillment.IntegrationCredential) error {
	model := models.IntegrationCredentialModelFromDomain(cred)
	return r.db.WithContext(ctx).Create(model).Error
}

// FindByLookupKey resolves a credential by its derived lookup key, active or
// not, so callers can tell a disabled credential from an unknown one. A miss
// is not an error; callers treat nil as an authentication failure.
func (r *GormCredentialRepository) FindByLookupKey(ctx context.Context, scheme fulfillment.CredentialScheme, lookupKey string) (*fulfillment.IntegrationCredential, error) {
	var model models.IntegrationCredentialModel
	err := r.db.WithContext(ctx).
		Where("scheme = ? AND lookup_key = ?", scheme, lookupKey).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindActive returns the active credential for a tenant and scheme, or nil
func (r *GormCredentialRepository) FindActive(ctx context.Context, tenantID uuid.UUID, scheme fulfillment.CredentialScheme) (*fulfillment.IntegrationCredential, error) {
	var model models.IntegrationCredentialModel
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND scheme = ? AND active = ?", tenantID, scheme, true).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Rotate deactivates the tenant's active credential for the scheme and
// persists the replacement in one transaction. The old credential stops
// authenticating the moment the transaction commits.
func (r *GormCredentialRepository) Rotate(ctx context.Context, replacement *fulfillment.IntegrationCredential) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()
		if err := tx.Model(&models.IntegrationCredentialModel{}).
			Where("tenant_id = ? AND scheme = ? AND active = ?", replacement.TenantID, replacement.Scheme, true).
			Updates(map[string]any{"active": false, "rotated_at": now, "updated_at": now}).Error; err != nil {
			return err
		}
		return tx.Create(models.IntegrationCredentialModelFromDomain(replacement)).Error
	})
}

// Deactivate soft-disables a credential by id
func (r *GormCredentialRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Model(&models.IntegrationCredentialModel{}).
		Where("id = ? AND active = ?", id, true).
		Updates(map[string]any{"active": false, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}
