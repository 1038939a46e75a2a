package persistence

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/fulfillment"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newMockCredentialRepository creates a GormCredentialRepository with a mocked SQL connection
func newMockCredentialRepository(t *testing.T) (*GormCredentialRepository, sqlmock.Sqlmock, *sql.DB) {
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

	return NewGormCredentialRepository(gormDB), mock, mockDB
}

func TestGormCredentialRepository_FindByLookupKey(t *testing.T) {
	t.Run("finds credential by lookup key", func(t *testing.T) {
		repo, mock, mockDB := newMockCredentialRepository(t)
		defer mockDB.Close()

		credID := uuid.New()
		tenantID := uuid.New()

		rows := sqlmock.NewRows([]string{"id", "tenant_id", "scheme", "lookup_key", "encrypted_secret", "password_hash", "active"}).
			AddRow(credID, tenantID, "api_key_secret", "abc123", []byte{0x01}, nil, true)

		mock.ExpectQuery(`SELECT \* FROM "integration_credentials" WHERE scheme = \$1 AND lookup_key = \$2 ORDER BY .* LIMIT .*`).
			WithArgs("api_key_secret", "abc123", 1).
			WillReturnRows(rows)

		cred, err := repo.FindByLookupKey(context.Background(), fulfillment.SchemeAPIKeySecret, "abc123")

		assert.NoError(t, err)
		require.NotNil(t, cred)
		assert.Equal(t, credID, cred.ID)
		assert.Equal(t, tenantID, cred.TenantID)
		assert.Equal(t, fulfillment.SchemeAPIKeySecret, cred.Scheme)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns a deactivated credential so callers can reject it explicitly", func(t *testing.T) {
		repo, mock, mockDB := newMockCredentialRepository(t)
		defer mockDB.Close()

		credID := uuid.New()
		tenantID := uuid.New()

		rows := sqlmock.NewRows([]string{"id", "tenant_id", "scheme", "lookup_key", "encrypted_secret", "password_hash", "active"}).
			AddRow(credID, tenantID, "api_key_secret", "oldkey", []byte{0x01}, nil, false)

		mock.ExpectQuery(`SELECT \* FROM "integration_credentials" WHERE scheme = \$1 AND lookup_key = \$2 ORDER BY .* LIMIT .*`).
			WithArgs("api_key_secret", "oldkey", 1).
			WillReturnRows(rows)

		cred, err := repo.FindByLookupKey(context.Background(), fulfillment.SchemeAPIKeySecret, "oldkey")

		assert.NoError(t, err)
		require.NotNil(t, cred)
		assert.False(t, cred.Active)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns nil without error when no credential matches", func(t *testing.T) {
		repo, mock, mockDB := newMockCredentialRepository(t)
		defer mockDB.Close()

		mock.ExpectQuery(`SELECT \* FROM "integration_credentials"`).
			WillReturnError(gorm.ErrRecordNotFound)

		cred, err := repo.FindByLookupKey(context.Background(), fulfillment.SchemeBasicAuth, "missing")

		assert.NoError(t, err)
		assert.Nil(t, cred)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormCredentialRepository_Rotate(t *testing.T) {
	t.Run("deactivates old credential and inserts replacement in one transaction", func(t *testing.T) {
		repo, mock, mockDB := newMockCredentialRepository(t)
		defer mockDB.Close()

		replacement := fulfillment.NewIntegrationCredential(uuid.New(), fulfillment.SchemeAPIKeySecret, "newkey")
		replacement.EncryptedSecret = []byte{0x02}

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE "integration_credentials" SET`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`INSERT INTO "integration_credentials"`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := repo.Rotate(context.Background(), replacement)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back when insert fails", func(t *testing.T) {
		repo, mock, mockDB := newMockCredentialRepository(t)
		defer mockDB.Close()

		replacement := fulfillment.NewIntegrationCredential(uuid.New(), fulfillment.SchemeBasicAuth, "newuser")

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE "integration_credentials" SET`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`INSERT INTO "integration_credentials"`).
			WillReturnError(sql.ErrConnDone)
		mock.ExpectRollback()

		err := repo.Rotate(context.Background(), replacement)

		assert.Error(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormCredentialRepository_Deactivate(t *testing.T) {
	t.Run("deactivates active credential", func(t *testing.T) {
		repo, mock, mockDB := newMockCredentialRepository(t)
		defer mockDB.Close()

		mock.ExpectExec(`UPDATE "integration_credentials" SET`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.Deactivate(context.Background(), uuid.New())

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns not found when nothing to deactivate", func(t *testing.T) {
		repo, mock, mockDB := newMockCredentialRepository(t)
		defer mockDB.Close()

		mock.ExpectExec(`UPDATE "integration_credentials" SET`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.Deactivate(context.Background(), uuid.New())

		assert.ErrorIs(t, err, shared.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
