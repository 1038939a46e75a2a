package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/fulfillment"
)

// IntegrationCredentialModel is the persistence model for integration credentials.
// Only derived values are stored: a keyed hash of the public part and either the
// sealed secret or a bcrypt hash, never the plaintext.
type IntegrationCredentialModel struct {
	ID              uuid.UUID                    `gorm:"type:uuid;primary_key"`
	TenantID        uuid.UUID                    `gorm:"type:uuid;not null;index"`
	Scheme          fulfillment.CredentialScheme `gorm:"type:varchar(32);not null;uniqueIndex:idx_credential_scheme_lookup,priority:1"`
	LookupKey       string                       `gorm:"type:varchar(64);not null;uniqueIndex:idx_credential_scheme_lookup,priority:2"`
	EncryptedSecret []byte                       `gorm:"type:bytea"`
	PasswordHash    []byte                       `gorm:"type:bytea"`
	Active          bool                         `gorm:"not null;default:true;index"`
	RotatedAt       *time.Time
	CreatedAt       time.Time `gorm:"not null"`
	UpdatedAt       time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (IntegrationCredentialModel) TableName() string {
	return "integration_credentials"
}

// ToDomain converts the persistence model to a domain IntegrationCredential.
func (m *IntegrationCredentialModel) ToDomain() *fulfillment.IntegrationCredential {
	return &fulfillment.IntegrationCredential{
		ID:              m.ID,
		TenantID:        m.TenantID,
		Scheme:          m.Scheme,
		LookupKey:       m.LookupKey,
		EncryptedSecret: m.EncryptedSecret,
		PasswordHash:    m.PasswordHash,
		Active:          m.Active,
		RotatedAt:       m.RotatedAt,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain IntegrationCredential.
func (m *IntegrationCredentialModel) FromDomain(c *fulfillment.IntegrationCredential) {
	m.ID = c.ID
	m.TenantID = c.TenantID
	m.Scheme = c.Scheme
	m.LookupKey = c.LookupKey
	m.EncryptedSecret = c.EncryptedSecret
	m.PasswordHash = c.PasswordHash
	m.Active = c.Active
	m.RotatedAt = c.RotatedAt
	m.CreatedAt = c.CreatedAt
	m.UpdatedAt = c.UpdatedAt
}

// IntegrationCredentialModelFromDomain creates a new persistence model from a domain credential.
func IntegrationCredentialModelFromDomain(c *fulfillment.IntegrationCredential) *IntegrationCredentialModel {
	m := &IntegrationCredentialModel{}
	m.FromDomain(c)
	return m
}

// OrderModel is the persistence model for storefront orders as the gateway
// sees them. Fulfillment columns are nullable and only populated once a
// shipment notification has been applied.
type OrderModel struct {
	ID           uuid.UUID               `gorm:"type:uuid;primary_key"`
	TenantID     uuid.UUID               `gorm:"type:uuid;not null;uniqueIndex:idx_order_tenant_number,priority:1"`
	Number       string                  `gorm:"type:varchar(50);not null;uniqueIndex:idx_order_tenant_number,priority:2"`
	Status       fulfillment.OrderStatus `gorm:"type:varchar(32);not null;index"`
	Total        decimal.Decimal         `gorm:"type:decimal(18,4);not null;default:0"`
	TaxTotal     decimal.Decimal         `gorm:"type:decimal(18,4);not null;default:0"`
	ShippingPaid decimal.Decimal         `gorm:"type:decimal(18,4);not null;default:0"`
	Customer     string                  `gorm:"type:varchar(200);not null"`
	Email        string                  `gorm:"type:varchar(254);not null"`

	ShipName       string `gorm:"type:varchar(200)"`
	ShipCompany    string `gorm:"type:varchar(200)"`
	ShipStreet1    string `gorm:"type:varchar(200)"`
	ShipStreet2    string `gorm:"type:varchar(200)"`
	ShipCity       string `gorm:"type:varchar(100)"`
	ShipState      string `gorm:"type:varchar(100)"`
	ShipPostalCode string `gorm:"type:varchar(20)"`
	ShipCountry    string `gorm:"type:varchar(2)"`
	ShipPhone      string `gorm:"type:varchar(32)"`

	Items []OrderItemModel `gorm:"foreignKey:OrderID;references:ID"`

	TrackingNumber *string          `gorm:"type:varchar(100)"`
	Carrier        *string          `gorm:"type:varchar(50)"`
	Service        *string          `gorm:"type:varchar(50)"`
	ShipCost       *decimal.Decimal `gorm:"type:decimal(18,4)"`
	ShippedAt      *time.Time       `gorm:"index"`
	DeliveredAt    *time.Time
	LabelRef       *string `gorm:"type:varchar(200)"`
	ReturnFormRef  *string `gorm:"type:varchar(200)"`
	FulfillNotes   *string `gorm:"type:text"`

	PlacedAt   time.Time `gorm:"not null;index"`
	ModifiedAt time.Time `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// ToDomain converts the persistence model to a domain Order.
func (m *OrderModel) ToDomain() *fulfillment.Order {
	order := &fulfillment.Order{
		ID:           m.ID,
		TenantID:     m.TenantID,
		Number:       m.Number,
		Status:       m.Status,
		Total:        m.Total,
		TaxTotal:     m.TaxTotal,
		ShippingPaid: m.ShippingPaid,
		Customer:     m.Customer,
		Email:        m.Email,
		ShipTo: fulfillment.Address{
			Name:       m.ShipName,
			Company:    m.ShipCompany,
			Street1:    m.ShipStreet1,
			Street2:    m.ShipStreet2,
			City:       m.ShipCity,
			State:      m.ShipState,
			PostalCode: m.ShipPostalCode,
			Country:    m.ShipCountry,
			Phone:      m.ShipPhone,
		},
		Items:      make([]fulfillment.OrderItem, len(m.Items)),
		PlacedAt:   m.PlacedAt,
		ModifiedAt: m.ModifiedAt,
	}
	for i, item := range m.Items {
		order.Items[i] = *item.ToDomain()
	}
	if m.TrackingNumber != nil {
		state := &fulfillment.FulfillmentState{
			TrackingNumber: *m.TrackingNumber,
			ShippedAt:      m.ShippedAt,
			DeliveredAt:    m.DeliveredAt,
		}
		if m.Carrier != nil {
			state.Carrier = *m.Carrier
		}
		if m.Service != nil {
			state.Service = *m.Service
		}
		if m.ShipCost != nil {
			state.ShipCost = *m.ShipCost
		}
		if m.LabelRef != nil {
			state.LabelRef = *m.LabelRef
		}
		if m.ReturnFormRef != nil {
			state.ReturnFormRef = *m.ReturnFormRef
		}
		if m.FulfillNotes != nil {
			state.Notes = *m.FulfillNotes
		}
		order.Fulfillment = state
	}
	return order
}

// FromDomain populates the persistence model from a domain Order.
func (m *OrderModel) FromDomain(o *fulfillment.Order) {
	m.ID = o.ID
	m.TenantID = o.TenantID
	m.Number = o.Number
	m.Status = o.Status
	m.Total = o.Total
	m.TaxTotal = o.TaxTotal
	m.ShippingPaid = o.ShippingPaid
	m.Customer = o.Customer
	m.Email = o.Email
	m.ShipName = o.ShipTo.Name
	m.ShipCompany = o.ShipTo.Company
	m.ShipStreet1 = o.ShipTo.Street1
	m.ShipStreet2 = o.ShipTo.Street2
	m.ShipCity = o.ShipTo.City
	m.ShipState = o.ShipTo.State
	m.ShipPostalCode = o.ShipTo.PostalCode
	m.ShipCountry = o.ShipTo.Country
	m.ShipPhone = o.ShipTo.Phone
	m.PlacedAt = o.PlacedAt
	m.ModifiedAt = o.ModifiedAt
	m.Items = make([]OrderItemModel, len(o.Items))
	for i, item := range o.Items {
		m.Items[i] = *OrderItemModelFromDomain(o.ID, &item)
	}
	if o.Fulfillment != nil {
		s := o.Fulfillment
		m.TrackingNumber = &s.TrackingNumber
		m.Carrier = &s.Carrier
		m.Service = &s.Service
		cost := s.ShipCost
		m.ShipCost = &cost
		m.ShippedAt = s.ShippedAt
		m.DeliveredAt = s.DeliveredAt
		m.LabelRef = &s.LabelRef
		m.ReturnFormRef = &s.ReturnFormRef
		m.FulfillNotes = &s.Notes
	}
}

// OrderModelFromDomain creates a new persistence model from a domain Order.
func OrderModelFromDomain(o *fulfillment.Order) *OrderModel {
	m := &OrderModel{}
	m.FromDomain(o)
	return m
}

// OrderItemModel is the persistence model for an order line item.
type OrderItemModel struct {
	ID        uuid.UUID       `gorm:"type:uuid;primary_key"`
	OrderID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	SKU       string          `gorm:"type:varchar(64);not null"`
	Name      string          `gorm:"type:varchar(200);not null"`
	Quantity  int             `gorm:"not null"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(18,4);not null"`
}

// TableName returns the table name for GORM
func (OrderItemModel) TableName() string {
	return "order_items"
}

// ToDomain converts the persistence model to a domain OrderItem.
func (m *OrderItemModel) ToDomain() *fulfillment.OrderItem {
	return &fulfillment.OrderItem{
		ID:        m.ID,
		SKU:       m.SKU,
		Name:      m.Name,
		Quantity:  m.Quantity,
		UnitPrice: m.UnitPrice,
	}
}

// OrderItemModelFromDomain creates a new persistence model from a domain OrderItem.
func OrderItemModelFromDomain(orderID uuid.UUID, item *fulfillment.OrderItem) *OrderItemModel {
	return &OrderItemModel{
		ID:        item.ID,
		OrderID:   orderID,
		SKU:       item.SKU,
		Name:      item.Name,
		Quantity:  item.Quantity,
		UnitPrice: item.UnitPrice,
	}
}

// JobModel is the persistence model for queued integration jobs. PriorityRank
// mirrors Priority as an integer so the claim query can order by it directly.
type JobModel struct {
	ID           uuid.UUID               `gorm:"type:uuid;primary_key"`
	TenantID     uuid.UUID               `gorm:"type:uuid;not null;index"`
	Type         string                  `gorm:"type:varchar(64);not null"`
	Payload      []byte                  `gorm:"type:bytea"`
	Priority     fulfillment.JobPriority `gorm:"type:varchar(16);not null"`
	PriorityRank int                     `gorm:"not null;index:idx_job_claim,priority:2"`
	Status       fulfillment.JobStatus   `gorm:"type:varchar(16);not null;index:idx_job_claim,priority:1"`
	Attempts     int                     `gorm:"not null;default:0"`
	MaxAttempts  int                     `gorm:"not null"`
	LastError    string                  `gorm:"type:text"`
	NextRunAt    time.Time               `gorm:"not null;index"`
	StartedAt    *time.Time
	FinishedAt   *time.Time
	CreatedAt    time.Time `gorm:"not null;index:idx_job_claim,priority:3"`
	UpdatedAt    time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (JobModel) TableName() string {
	return "integration_jobs"
}

// ToDomain converts the persistence model to a domain Job.
func (m *JobModel) ToDomain() *fulfillment.Job {
	return &fulfillment.Job{
		ID:          m.ID,
		TenantID:    m.TenantID,
		Type:        m.Type,
		Payload:     m.Payload,
		Priority:    m.Priority,
		Status:      m.Status,
		Attempts:    m.Attempts,
		MaxAttempts: m.MaxAttempts,
		LastError:   m.LastError,
		NextRunAt:   m.NextRunAt,
		StartedAt:   m.StartedAt,
		FinishedAt:  m.FinishedAt,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain Job.
func (m *JobModel) FromDomain(j *fulfillment.Job) {
	m.ID = j.ID
	m.TenantID = j.TenantID
	m.Type = j.Type
	m.Payload = j.Payload
	m.Priority = j.Priority
	m.PriorityRank = j.Priority.Rank()
	m.Status = j.Status
	m.Attempts = j.Attempts
	m.MaxAttempts = j.MaxAttempts
	m.LastError = j.LastError
	m.NextRunAt = j.NextRunAt
	m.StartedAt = j.StartedAt
	m.FinishedAt = j.FinishedAt
	m.CreatedAt = j.CreatedAt
	m.UpdatedAt = j.UpdatedAt
}

// JobModelFromDomain creates a new persistence model from a domain Job.
func JobModelFromDomain(j *fulfillment.Job) *JobModel {
	m := &JobModel{}
	m.FromDomain(j)
	return m
}

// InventoryLevelModel is the persistence model for reconciled inventory
// levels, keyed by tenant and SKU.
type InventoryLevelModel struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key"`
	TenantID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_inventory_tenant_sku,priority:1"`
	SKU           string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_inventory_tenant_sku,priority:2"`
	Available     int       `gorm:"not null;default:0"`
	OnHand        int       `gorm:"not null;default:0"`
	Allocated     int       `gorm:"not null;default:0"`
	WarehouseID   string    `gorm:"type:varchar(64)"`
	WarehouseName string    `gorm:"type:varchar(200)"`
	LastSyncedAt  time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (InventoryLevelModel) TableName() string {
	return "inventory_levels"
}

// ToDomain converts the persistence model to a domain InventoryLevel.
func (m *InventoryLevelModel) ToDomain() *fulfillment.InventoryLevel {
	return &fulfillment.InventoryLevel{
		TenantID:      m.TenantID,
		SKU:           m.SKU,
		Available:     m.Available,
		OnHand:        m.OnHand,
		Allocated:     m.Allocated,
		WarehouseID:   m.WarehouseID,
		WarehouseName: m.WarehouseName,
		LastSyncedAt:  m.LastSyncedAt,
	}
}

// InventoryLevelModelFromDomain creates a new persistence model from a domain InventoryLevel.
func InventoryLevelModelFromDomain(l *fulfillment.InventoryLevel) *InventoryLevelModel {
	return &InventoryLevelModel{
		ID:            uuid.New(),
		TenantID:      l.TenantID,
		SKU:           l.SKU,
		Available:     l.Available,
		OnHand:        l.OnHand,
		Allocated:     l.Allocated,
		WarehouseID:   l.WarehouseID,
		WarehouseName: l.WarehouseName,
		LastSyncedAt:  l.LastSyncedAt,
	}
}

// AuditEntryModel is the persistence model for the integration audit log.
// Entries are append only; there is no update path.
type AuditEntryModel struct {
	ID        uuid.UUID                `gorm:"type:uuid;primary_key"`
	TenantID  uuid.UUID                `gorm:"type:uuid;not null;index:idx_audit_tenant_time,priority:1"`
	Operation string                   `gorm:"type:varchar(64);not null;index"`
	Outcome   fulfillment.AuditOutcome `gorm:"type:varchar(16);not null"`
	Detail    string                   `gorm:"type:text"`
	LatencyMS int64                    `gorm:"not null;default:0"`
	CreatedAt time.Time                `gorm:"not null;index:idx_audit_tenant_time,priority:2"`
}

// TableName returns the table name for GORM
func (AuditEntryModel) TableName() string {
	return "integration_audit_log"
}

// ToDomain converts the persistence model to a domain AuditEntry.
func (m *AuditEntryModel) ToDomain() *fulfillment.AuditEntry {
	return &fulfillment.AuditEntry{
		ID:        m.ID,
		TenantID:  m.TenantID,
		Operation: m.Operation,
		Outcome:   m.Outcome,
		Detail:    m.Detail,
		Latency:   time.Duration(m.LatencyMS) * time.Millisecond,
		CreatedAt: m.CreatedAt,
	}
}

// AuditEntryModelFromDomain creates a new persistence model from a domain AuditEntry.
func AuditEntryModelFromDomain(e *fulfillment.AuditEntry) *AuditEntryModel {
	return &AuditEntryModel{
		ID:        e.ID,
		TenantID:  e.TenantID,
		Operation: e.Operation,
		Outcome:   e.Outcome,
		Detail:    e.Detail,
		LatencyMS: e.Latency.Milliseconds(),
		CreatedAt: e.CreatedAt,
	}
}
