package fulfillment

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ShipmentNotification is the parsed, validated form of an inbound XML
// shipment document. The referenced order may be identified by id or by
// number; existence of the order is checked by the shipment service, not here.
type ShipmentNotification struct {
	OrderID        uuid.UUID // zero when the document references by number
	OrderNumber    string
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

// HasOrderReference returns true if the notification identifies an order
func (n *ShipmentNotification) HasOrderReference() bool {
	return n.OrderID != uuid.Nil || n.OrderNumber != ""
}

// ToFulfillmentState converts the notification into the order mutation it
// implies. The conversion is pure, so applying it twice yields the same state.
func (n *ShipmentNotification) ToFulfillmentState() FulfillmentState {
	return FulfillmentState{
		TrackingNumber: n.TrackingNumber,
		Carrier:        n.Carrier,
		Service:        n.Service,
		ShipCost:       n.ShipCost,
		ShippedAt:      n.ShippedAt,
		DeliveredAt:    n.DeliveredAt,
		LabelRef:       n.LabelRef,
		ReturnFormRef:  n.ReturnFormRef,
		Notes:          n.Notes,
	}
}

// WebhookEventKind names the closed set of webhook resource types
type WebhookEventKind string

const (
	WebhookKindShipment WebhookEventKind = "shipment"
	WebhookKindDelivery WebhookEventKind = "delivery"
	WebhookKindOrder    WebhookEventKind = "order"
)

// WebhookEvent is a closed tagged variant: exactly ShipmentEvent,
// DeliveryEvent, or OrderEvent. The unexported marker keeps the set closed so
// dispatch sites can match exhaustively.
type WebhookEvent interface {
	Kind() WebhookEventKind
	Tenant() uuid.UUID
	ResourceID() string
	RawPayload() []byte
	webhookEvent()
}

// ShipmentEvent signals that a shipment was created or updated remotely
type ShipmentEvent struct {
	TenantID   uuid.UUID
	Resource   string
	Payload    []byte
	ReceivedAt time.Time
}

func (e ShipmentEvent) Kind() WebhookEventKind { return WebhookKindShipment }
func (e ShipmentEvent) Tenant() uuid.UUID      { return e.TenantID }
func (e ShipmentEvent) ResourceID() string     { return e.Resource }
func (e ShipmentEvent) RawPayload() []byte     { return e.Payload }
func (e ShipmentEvent) webhookEvent()          {}

// DeliveryEvent signals that a shipment was delivered
type DeliveryEvent struct {
	TenantID   uuid.UUID
	Resource   string
	Payload    []byte
	ReceivedAt time.Time
}

func (e DeliveryEvent) Kind() WebhookEventKind { return WebhookKindDelivery }
func (e DeliveryEvent) Tenant() uuid.UUID      { return e.TenantID }
func (e DeliveryEvent) ResourceID() string     { return e.Resource }
func (e DeliveryEvent) RawPayload() []byte     { return e.Payload }
func (e DeliveryEvent) webhookEvent()          {}

// OrderEvent signals a remote change to an order resource
type OrderEvent struct {
	TenantID   uuid.UUID
	Resource   string
	Payload    []byte
	ReceivedAt time.Time
}

func (e OrderEvent) Kind() WebhookEventKind { return WebhookKindOrder }
func (e OrderEvent) Tenant() uuid.UUID      { return e.TenantID }
func (e OrderEvent) ResourceID() string     { return e.Resource }
func (e OrderEvent) RawPayload() []byte     { return e.Payload }
func (e OrderEvent) webhookEvent()          {}

// ClassifyWebhookEvent maps an inbound resource type string onto the closed
// event set. Unknown resource types are a classification error, which the
// ingestor reports as a recognized-but-unprocessable payload.
func ClassifyWebhookEvent(tenantID uuid.UUID, resourceType, resourceID string, payload []byte, receivedAt time.Time) (WebhookEvent, error) {
	switch WebhookEventKind(resourceType) {
	case WebhookKindShipment:
		return ShipmentEvent{TenantID: tenantID, Resource: resourceID, Payload: payload, ReceivedAt: receivedAt}, nil
	case WebhookKindDelivery:
		return DeliveryEvent{TenantID: tenantID, Resource: resourceID, Payload: payload, ReceivedAt: receivedAt}, nil
	case WebhookKindOrder:
		return OrderEvent{TenantID: tenantID, Resource: resourceID, Payload: payload, ReceivedAt: receivedAt}, nil
	default:
		return nil, fmt.Errorf("unknown webhook resource type %q", resourceType)
	}
}

// JobTypeForEvent maps a webhook event onto the durable job type that
// guarantees its follow-up processing
func JobTypeForEvent(e WebhookEvent) string {
	switch e.Kind() {
	case WebhookKindShipment:
		return JobTypeShipmentUpdate
	case WebhookKindDelivery:
		return JobTypeDeliveryUpdate
	case WebhookKindOrder:
		return JobTypeOrderUpdate
	}
	return ""
}
