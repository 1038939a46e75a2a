package fulfillment

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus is the commercial status of an order as seen by the gateway
type OrderStatus string

const (
	OrderStatusAwaitingPayment  OrderStatus = "awaiting_payment"
	OrderStatusAwaitingShipment OrderStatus = "awaiting_shipment"
	OrderStatusShipped          OrderStatus = "shipped"
	OrderStatusDelivered        OrderStatus = "delivered"
	OrderStatusCancelled        OrderStatus = "cancelled"
)

// Address is the shipping destination of an order
type Address struct {
	Name       string
	Company    string
	Street1    string
	Street2    string
	City       string
	State      string
	PostalCode string
	Country    string
	Phone      string
}

// OrderItem is a line item of an order, immutable once the order is placed
type OrderItem struct {
	ID        uuid.UUID
	SKU       string
	Name      string
	Quantity  int
	UnitPrice decimal.Decimal
}

// FulfillmentState is the slice of an order the gateway is allowed to mutate.
// Applied as an upsert keyed by order id so repeated application of the same
// notification converges on the same state.
type FulfillmentState struct {
	TrackingNumber string
	Carrier        string
	Service        string
	ShipCost       decimal.Decimal
	ShippedAt      *time.Time
	DeliveredAt    *time.Time
	LabelRef       string
	ReturnFormRef  string
	Notes          string
}

// Order is the external view of a storefront order. Core commercial fields
// are immutable from the gateway's perspective; only the fulfillment state
// changes through shipment and delivery events.
type Order struct {
	ID           uuid.UUID
	TenantID     uuid.UUID
	Number       string
	Status       OrderStatus
	Total        decimal.Decimal
	TaxTotal     decimal.Decimal
	ShippingPaid decimal.Decimal
	Customer     string
	Email        string
	ShipTo       Address
	Items        []OrderItem
	Fulfillment  *FulfillmentState
	PlacedAt     time.Time
	ModifiedAt   time.Time
}

// MissingExportFields reports why an order cannot be included in an export
// document. An empty result means the order passes the completeness check.
func (o *Order) MissingExportFields() []string {
	var missing []string
	if len(o.Items) == 0 {
		missing = append(missing, "items")
	}
	for _, item := range o.Items {
		if item.SKU == "" {
			missing = append(missing, "item sku")
			break
		}
	}
	if o.ShipTo.Street1 == "" {
		missing = append(missing, "shipping street")
	}
	if o.ShipTo.City == "" {
		missing = append(missing, "shipping city")
	}
	if o.ShipTo.PostalCode == "" {
		missing = append(missing, "shipping postal code")
	}
	if o.ShipTo.Country == "" {
		missing = append(missing, "shipping country")
	}
	return missing
}
