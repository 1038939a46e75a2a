package shipping

import (
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/fulfillment"
	"github.com/storefront/backend/internal/domain/shared"
)

// Parse errors are split so callers can return the right protocol status:
// a syntax problem and a well-formed document missing required fields are
// different outcomes.
var (
	ErrMalformedDocument = fmt.Errorf("%w: malformed shipment document", shared.ErrMalformedPayload)
	ErrMissingField      = fmt.Errorf("%w: shipment document missing required field", shared.ErrValidationFailure)
)

var notificationTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// shipNoticeDocument is the raw XML shape of an inbound shipment notification
type shipNoticeDocument struct {
	XMLName        xml.Name `xml:"ShipNotice"`
	OrderID        string   `xml:"OrderID"`
	OrderNumber    string   `xml:"OrderNumber"`
	TrackingNumber string   `xml:"TrackingNumber"`
	Carrier        string   `xml:"Carrier"`
	Service        string   `xml:"Service"`
	ShipCost       string   `xml:"ShipCost"`
	ShipDate       string   `xml:"ShipDate"`
	DeliveryDate   string   `xml:"DeliveryDate"`
	LabelRef       string   `xml:"LabelRef"`
	ReturnFormRef  string   `xml:"ReturnFormRef"`
	Notes          string   `xml:"Notes"`
}

// ParseShipmentNotification decodes and validates an inbound shipment
// document. It does not check that the referenced order exists; that is the
// caller's lookup, with its own not-found outcome.
func ParseShipmentNotification(raw []byte) (*fulfillment.ShipmentNotification, error) {
	var doc shipNoticeDocument
	if err := xml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}

	n := &fulfillment.ShipmentNotification{
		OrderNumber:    strings.TrimSpace(doc.OrderNumber),
		TrackingNumber: strings.TrimSpace(doc.TrackingNumber),
		Carrier:        strings.TrimSpace(doc.Carrier),
		Service:        strings.TrimSpace(doc.Service),
		LabelRef:       strings.TrimSpace(doc.LabelRef),
		ReturnFormRef:  strings.TrimSpace(doc.ReturnFormRef),
		Notes:          strings.TrimSpace(doc.Notes),
	}

	if raw := strings.TrimSpace(doc.OrderID); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid order id %q", ErrMissingField, raw)
		}
		n.OrderID = id
	}

	if !n.HasOrderReference() {
		return nil, fmt.Errorf("%w: order reference", ErrMissingField)
	}
	if n.TrackingNumber == "" {
		return nil, fmt.Errorf("%w: tracking number", ErrMissingField)
	}

	if raw := strings.TrimSpace(doc.ShipCost); raw != "" {
		cost, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid ship cost %q", ErrMissingField, raw)
		}
		n.ShipCost = cost
	}

	shippedAt, err := parseNotificationTime(doc.ShipDate)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid ship date %q", ErrMissingField, doc.ShipDate)
	}
	n.ShippedAt = shippedAt

	deliveredAt, err := parseNotificationTime(doc.DeliveryDate)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid delivery date %q", ErrMissingField, doc.DeliveryDate)
	}
	n.DeliveredAt = deliveredAt

	return n, nil
}

func parseNotificationTime(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range notificationTimeLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return &ts, nil
		}
	}
	return nil, fmt.Errorf("unrecognized timestamp %q", raw)
}
