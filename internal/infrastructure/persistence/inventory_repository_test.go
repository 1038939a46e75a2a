package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/fulfillment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newMockInventoryRepository(t *testing.T) (*GormInventoryRepository, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewGormInventoryRepository(gormDB), mock, mockDB
}

func TestGormInventoryRepository_Upsert(t *testing.T) {
	t.Run("inserts with conflict update on tenant and sku", func(t *testing.T) {
		repo, mock, mockDB := newMockInventoryRepository(t)
		defer mockDB.Close()

		mock.ExpectExec(`INSERT INTO "inventory_levels" .* ON CONFLICT \("tenant_id","sku"\) DO UPDATE SET`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.Upsert(context.Background(), fulfillment.InventoryLevel{
			TenantID:     uuid.New(),
			SKU:          "SKU-1",
			Available:    5,
			OnHand:       7,
			Allocated:    2,
			LastSyncedAt: time.Now().UTC(),
		})

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormInventoryRepository_FindByTenant(t *testing.T) {
	t.Run("lists levels ordered by sku", func(t *testing.T) {
		repo, mock, mockDB := newMockInventoryRepository(t)
		defer mockDB.Close()

		tenantID := uuid.New()
		now := time.Now().UTC()

		rows := sqlmock.NewRows([]string{"id", "tenant_id", "sku", "available", "on_hand", "allocated", "warehouse_id", "warehouse_name", "last_synced_at"}).
			AddRow(uuid.New(), tenantID, "SKU-1", 5, 7, 2, "wh-1", "Main", now).
			AddRow(uuid.New(), tenantID, "SKU-2", 0, 1, 1, "wh-1", "Main", now)

		mock.ExpectQuery(`SELECT \* FROM "inventory_levels" WHERE tenant_id = \$1 ORDER BY sku ASC`).
			WithArgs(tenantID).
			WillReturnRows(rows)

		levels, err := repo.FindByTenant(context.Background(), tenantID)

		assert.NoError(t, err)
		require.Len(t, levels, 2)
		assert.Equal(t, "SKU-1", levels[0].SKU)
		assert.Equal(t, 5, levels[0].Available)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormAuditRepository_Append(t *testing.T) {
	t.Run("inserts audit entry", func(t *testing.T) {
		mockDB, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer mockDB.Close()

		gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: mockDB, DriverName: "postgres"}), &gorm.Config{
			SkipDefaultTransaction: true,
		})
		require.NoError(t, err)
		repo := NewGormAuditRepository(gormDB)

		mock.ExpectExec(`INSERT INTO "integration_audit_log"`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		entry := fulfillment.NewAuditEntry(uuid.New(), fulfillment.AuditOpAuthenticate, fulfillment.AuditOutcomeSuccess, "scheme=api_key_secret", 12*time.Millisecond)
		err = repo.Append(context.Background(), entry)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
