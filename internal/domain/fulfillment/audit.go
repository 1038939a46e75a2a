package fulfillment

import (
	"time"

	"github.com/google/uuid"
)

// AuditOutcome is the recorded result of an integration operation
type AuditOutcome string

const (
	AuditOutcomeSuccess AuditOutcome = "success"
	AuditOutcomeFailure AuditOutcome = "failure"
)

// Integration operations recorded in the audit log
const (
	AuditOpAuthenticate  = "authenticate"
	AuditOpOrderExport   = "order_export"
	AuditOpShipNotify    = "shipment_notification"
	AuditOpWebhook       = "webhook"
	AuditOpInventorySync = "inventory_sync"
	AuditOpJobExecution  = "job_execution"
	AuditOpJobReplay     = "job_replay"
)

// AuditEntry is one append-only record of an integration operation.
// Detail never contains raw secret material.
type AuditEntry struct {
	ID        uuid.UUID
	TenantID  uuid.UUID
	Operation string
	Outcome   AuditOutcome
	Detail    string
	Latency   time.Duration
	CreatedAt time.Time
}

// NewAuditEntry creates an audit entry stamped with the current time
func NewAuditEntry(tenantID uuid.UUID, operation string, outcome AuditOutcome, detail string, latency time.Duration) *AuditEntry {
	return &AuditEntry{
		ID:        uuid.New(),
		TenantID:  tenantID,
		Operation: operation,
		Outcome:   outcome,
		Detail:    detail,
		Latency:   latency,
		CreatedAt: time.Now(),
	}
}
