package fulfillment

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// CredentialRepository persists integration credentials
type CredentialRepository interface {
	// Save persists a new credential
	Save(ctx context.Context, cred *IntegrationCredential) error
	// FindByLookupKey resolves a credential by its derived lookup key,
	// active or not, so callers can tell a disabled credential from an
	// unknown one. Returns nil without error when nothing matches.
	FindByLookupKey(ctx context.Context, scheme CredentialScheme, lookupKey string) (*IntegrationCredential, error)
	// FindActive returns the active credential for a tenant and scheme, or nil
	FindActive(ctx context.Context, tenantID uuid.UUID, scheme CredentialScheme) (*IntegrationCredential, error)
	// Rotate atomically deactivates the tenant's active credential for the
	// scheme and persists the replacement
	Rotate(ctx context.Context, replacement *IntegrationCredential) error
	// Deactivate soft-disables a credential by id
	Deactivate(ctx context.Context, id uuid.UUID) error
}

// OrderExportQuery selects orders for an export document
type OrderExportQuery struct {
	TenantID uuid.UUID
	Start    time.Time
	End      time.Time
	Page     int
	PageSize int
}

// OrderRepository is the gateway's view of the order store: read orders and
// items, write only the fulfillment-state slice
type OrderRepository interface {
	// FindForExport returns orders modified in the date range, ordered by
	// modified descending with id ascending as tie-break, plus the total count
	FindForExport(ctx context.Context, q OrderExportQuery) ([]*Order, int64, error)
	// FindByID loads one order scoped to a tenant, nil when absent
	FindByID(ctx context.Context, tenantID, orderID uuid.UUID) (*Order, error)
	// FindByNumber loads one order by its order number, nil when absent
	FindByNumber(ctx context.Context, tenantID uuid.UUID, number string) (*Order, error)
	// ApplyFulfillment upserts the fulfillment state of an order. The write is
	// keyed by order id and serialized per row, so concurrent application of
	// the same payload converges.
	ApplyFulfillment(ctx context.Context, tenantID, orderID uuid.UUID, state FulfillmentState) error
}

// JobRepository is the durable priority queue
type JobRepository interface {
	// Enqueue persists a new job
	Enqueue(ctx context.Context, job *Job) error
	// ClaimNext atomically claims the next eligible job: strictly by priority
	// tier, FIFO within a tier, only jobs with next_run_at <= now. Returns nil
	// when the queue is empty. The claim is a conditional pending/failed ->
	// running transition so a job is handed to exactly one worker.
	ClaimNext(ctx context.Context) (*Job, error)
	// Complete marks a running job succeeded
	Complete(ctx context.Context, jobID uuid.UUID) error
	// Fail records a failure, scheduling a retry or dead-lettering per the
	// job's attempt ceiling
	Fail(ctx context.Context, jobID uuid.UUID, errMsg string) error
	// FindByID loads a job
	FindByID(ctx context.Context, jobID uuid.UUID) (*Job, error)
	// FindDead lists dead-lettered jobs with pagination
	FindDead(ctx context.Context, page, pageSize int) ([]*Job, int64, error)
	// Replay resets a dead-lettered job to pending
	Replay(ctx context.Context, jobID uuid.UUID) error
	// CountByStatus returns job counts per status
	CountByStatus(ctx context.Context) (map[JobStatus]int64, error)
}

// InventoryRepository persists synced stock levels
type InventoryRepository interface {
	// Upsert writes a stock level keyed by (tenant, sku), last-write-wins
	Upsert(ctx context.Context, level InventoryLevel) error
	// FindByTenant lists stock levels for a tenant
	FindByTenant(ctx context.Context, tenantID uuid.UUID) ([]InventoryLevel, error)
}

// AuditRepository is the append-only integration audit log
type AuditRepository interface {
	Append(ctx context.Context, entry *AuditEntry) error
}

// InventoryFeed is the remote paginated inventory feed. Pages are 1-based;
// a page shorter than pageSize is the end-of-data sentinel.
type InventoryFeed interface {
	FetchPage(ctx context.Context, tenantID uuid.UUID, page, pageSize int) ([]FeedRecord, error)
}
