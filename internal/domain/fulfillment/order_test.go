package fulfillment

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func completeOrder() *Order {
	return &Order{
		ID:       uuid.New(),
		TenantID: uuid.New(),
		Number:   "ORD-1001",
		Status:   OrderStatusAwaitingShipment,
		ShipTo: Address{
			Name:       "Dana Smith",
			Street1:    "100 Main St",
			City:       "Springfield",
			State:      "IL",
			PostalCode: "62701",
			Country:    "US",
		},
		Items: []OrderItem{
			{ID: uuid.New(), SKU: "WIDGET-1", Name: "Widget", Quantity: 2},
		},
	}
}

func TestOrder_MissingExportFields(t *testing.T) {
	t.Run("Complete order", func(t *testing.T) {
		assert.Empty(t, completeOrder().MissingExportFields())
	})

	t.Run("Missing address", func(t *testing.T) {
		o := completeOrder()
		o.ShipTo.Street1 = ""
		o.ShipTo.PostalCode = ""
		missing := o.MissingExportFields()
		assert.Contains(t, missing, "shipping street")
		assert.Contains(t, missing, "shipping postal code")
	})

	t.Run("Missing item sku", func(t *testing.T) {
		o := completeOrder()
		o.Items[0].SKU = ""
		assert.Contains(t, o.MissingExportFields(), "item sku")
	})

	t.Run("No items", func(t *testing.T) {
		o := completeOrder()
		o.Items = nil
		assert.Contains(t, o.MissingExportFields(), "items")
	})
}

func TestIntegrationCredential_Deactivate(t *testing.T) {
	cred := NewIntegrationCredential(uuid.New(), SchemeAPIKeySecret, "abc123")
	assert.True(t, cred.Active)
	assert.Nil(t, cred.RotatedAt)

	cred.Deactivate()

	assert.False(t, cred.Active)
	assert.NotNil(t, cred.RotatedAt)
}

func TestCredentialScheme_IsValid(t *testing.T) {
	assert.True(t, SchemeAPIKeySecret.IsValid())
	assert.True(t, SchemeBasicAuth.IsValid())
	assert.False(t, CredentialScheme("oauth").IsValid())
}
