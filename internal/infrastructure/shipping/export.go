package shipping

import (
	"encoding/xml"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/fulfillment"
)

const exportTimeLayout = time.RFC3339

// OrderExportDocument is the root of the order export wire format. Pagination
// metadata is embedded so the remote caller can walk the full result set.
type OrderExportDocument struct {
	XMLName    xml.Name        `xml:"Orders"`
	Page       int             `xml:"page,attr"`
	TotalPages int             `xml:"totalPages,attr"`
	Total      int64           `xml:"total,attr"`
	Orders     []ExportOrder   `xml:"Order"`
	Excluded   *ExcludedOrders `xml:"Excluded,omitempty"`
}

// ExcludedOrders reports orders dropped from the document by the completeness
// check. They are never silently omitted.
type ExcludedOrders struct {
	Count  int             `xml:"count,attr"`
	Orders []ExcludedOrder `xml:"Order"`
}

// ExcludedOrder names one excluded order and the fields it is missing
type ExcludedOrder struct {
	Number        string `xml:"number,attr"`
	MissingFields string `xml:"missingFields,attr"`
}

// ExportOrder is one order in the export document
type ExportOrder struct {
	ID           string             `xml:"id,attr"`
	Number       string             `xml:"number,attr"`
	Status       string             `xml:"status,attr"`
	PlacedAt     string             `xml:"placedAt,attr"`
	ModifiedAt   string             `xml:"modifiedAt,attr"`
	Total        decimal.Decimal    `xml:"Total"`
	TaxTotal     decimal.Decimal    `xml:"TaxTotal"`
	ShippingPaid decimal.Decimal    `xml:"ShippingPaid"`
	Customer     ExportCustomer     `xml:"Customer"`
	ShipTo       ExportAddress      `xml:"ShipTo"`
	Items        []ExportItem       `xml:"Items>Item"`
	Fulfillment  *ExportFulfillment `xml:"Fulfillment,omitempty"`
}

// ExportCustomer carries the buyer's contact fields
type ExportCustomer struct {
	Name  string `xml:"Name"`
	Email string `xml:"Email"`
}

// ExportAddress is the shipping destination
type ExportAddress struct {
	Name       string `xml:"Name"`
	Company    string `xml:"Company,omitempty"`
	Street1    string `xml:"Street1"`
	Street2    string `xml:"Street2,omitempty"`
	City       string `xml:"City"`
	State      string `xml:"State,omitempty"`
	PostalCode string `xml:"PostalCode"`
	Country    string `xml:"Country"`
	Phone      string `xml:"Phone,omitempty"`
}

// ExportItem is one order line
type ExportItem struct {
	SKU       string          `xml:"sku,attr"`
	Quantity  int             `xml:"quantity,attr"`
	Name      string          `xml:"Name"`
	UnitPrice decimal.Decimal `xml:"UnitPrice"`
}

// ExportFulfillment is the current fulfillment state of a shipped order
type ExportFulfillment struct {
	TrackingNumber string          `xml:"TrackingNumber"`
	Carrier        string          `xml:"Carrier,omitempty"`
	Service        string          `xml:"Service,omitempty"`
	ShipCost       decimal.Decimal `xml:"ShipCost"`
	ShippedAt      string          `xml:"ShippedAt,omitempty"`
	DeliveredAt    string          `xml:"DeliveredAt,omitempty"`
	LabelRef       string          `xml:"LabelRef,omitempty"`
	ReturnFormRef  string          `xml:"ReturnFormRef,omitempty"`
	Notes          string          `xml:"Notes,omitempty"`
}

// BuildOrderExport assembles the export document for one result page. Orders
// failing the completeness check are moved to the Excluded section instead of
// corrupting the document.
func BuildOrderExport(orders []*fulfillment.Order, page, totalPages int, total int64) *OrderExportDocument {
	doc := &OrderExportDocument{
		Page:       page,
		TotalPages: totalPages,
		Total:      total,
		Orders:     make([]ExportOrder, 0, len(orders)),
	}

	var excluded []ExcludedOrder
	for _, order := range orders {
		if missing := order.MissingExportFields(); len(missing) > 0 {
			excluded = append(excluded, ExcludedOrder{
				Number:        order.Number,
				MissingFields: strings.Join(missing, ","),
			})
			continue
		}
		doc.Orders = append(doc.Orders, exportOrder(order))
	}

	if len(excluded) > 0 {
		doc.Excluded = &ExcludedOrders{Count: len(excluded), Orders: excluded}
	}
	return doc
}

func exportOrder(o *fulfillment.Order) ExportOrder {
	out := ExportOrder{
		ID:           o.ID.String(),
		Number:       o.Number,
		Status:       string(o.Status),
		PlacedAt:     o.PlacedAt.UTC().Format(exportTimeLayout),
		ModifiedAt:   o.ModifiedAt.UTC().Format(exportTimeLayout),
		Total:        o.Total,
		TaxTotal:     o.TaxTotal,
		ShippingPaid: o.ShippingPaid,
		Customer:     ExportCustomer{Name: o.Customer, Email: o.Email},
		ShipTo: ExportAddress{
			Name:       o.ShipTo.Name,
			Company:    o.ShipTo.Company,
			Street1:    o.ShipTo.Street1,
			Street2:    o.ShipTo.Street2,
			City:       o.ShipTo.City,
			State:      o.ShipTo.State,
			PostalCode: o.ShipTo.PostalCode,
			Country:    o.ShipTo.Country,
			Phone:      o.ShipTo.Phone,
		},
		Items: make([]ExportItem, len(o.Items)),
	}
	for i, item := range o.Items {
		out.Items[i] = ExportItem{
			SKU:       item.SKU,
			Quantity:  item.Quantity,
			Name:      item.Name,
			UnitPrice: item.UnitPrice,
		}
	}
	if o.Fulfillment != nil {
		f := &ExportFulfillment{
			TrackingNumber: o.Fulfillment.TrackingNumber,
			Carrier:        o.Fulfillment.Carrier,
			Service:        o.Fulfillment.Service,
			ShipCost:       o.Fulfillment.ShipCost,
			LabelRef:       o.Fulfillment.LabelRef,
			ReturnFormRef:  o.Fulfillment.ReturnFormRef,
			Notes:          o.Fulfillment.Notes,
		}
		if o.Fulfillment.ShippedAt != nil {
			f.ShippedAt = o.Fulfillment.ShippedAt.UTC().Format(exportTimeLayout)
		}
		if o.Fulfillment.DeliveredAt != nil {
			f.DeliveredAt = o.Fulfillment.DeliveredAt.UTC().Format(exportTimeLayout)
		}
		out.Fulfillment = f
	}
	return out
}
