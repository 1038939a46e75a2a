package gateway

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/fulfillment"
	"github.com/storefront/backend/internal/domain/shared"
)

type fakeCredentialRepo struct {
	mu    sync.Mutex
	creds []*fulfillment.IntegrationCredential
}

func (f *fakeCredentialRepo) Save(_ context.Context, cred *fulfillment.IntegrationCredential) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creds = append(f.creds, cred)
	return nil
}

func (f *fakeCredentialRepo) FindByLookupKey(_ context.Context, scheme fulfillment.CredentialScheme, lookupKey string) (*fulfillment.IntegrationCredential, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.creds {
		if c.Scheme == scheme && c.LookupKey == lookupKey {
			return c, nil
		}
	}
	return nil, nil
}

func (f *fakeCredentialRepo) FindActive(_ context.Context, tenantID uuid.UUID, scheme fulfillment.CredentialScheme) (*fulfillment.IntegrationCredential, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.creds {
		if c.Active && c.Scheme == scheme && c.TenantID == tenantID {
			return c, nil
		}
	}
	return nil, nil
}

func (f *fakeCredentialRepo) Rotate(_ context.Context, replacement *fulfillment.IntegrationCredential) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.creds {
		if c.Active && c.Scheme == replacement.Scheme && c.TenantID == replacement.TenantID {
			c.Active = false
		}
	}
	f.creds = append(f.creds, replacement)
	return nil
}

func (f *fakeCredentialRepo) Deactivate(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.creds {
		if c.ID == id {
			c.Active = false
			return nil
		}
	}
	return shared.ErrNotFound
}

type fakeOrderRepo struct {
	mu     sync.Mutex
	orders map[uuid.UUID]*fulfillment.Order
}

func newFakeOrderRepo(orders ...*fulfillment.Order) *fakeOrderRepo {
	repo := &fakeOrderRepo{orders: make(map[uuid.UUID]*fulfillment.Order)}
	for _, o := range orders {
		repo.orders[o.ID] = o
	}
	return repo
}

func (f *fakeOrderRepo) FindForExport(_ context.Context, q fulfillment.OrderExportQuery) ([]*fulfillment.Order, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*fulfillment.Order
	for _, o := range f.orders {
		if o.TenantID == q.TenantID && !o.ModifiedAt.Before(q.Start) && o.ModifiedAt.Before(q.End) {
			out = append(out, o)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeOrderRepo) FindByID(_ context.Context, tenantID, orderID uuid.UUID) (*fulfillment.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[orderID]
	if !ok || o.TenantID != tenantID {
		return nil, nil
	}
	return o, nil
}

func (f *fakeOrderRepo) FindByNumber(_ context.Context, tenantID uuid.UUID, number string) (*fulfillment.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.orders {
		if o.TenantID == tenantID && o.Number == number {
			return o, nil
		}
	}
	return nil, nil
}

func (f *fakeOrderRepo) ApplyFulfillment(_ context.Context, tenantID, orderID uuid.UUID, state fulfillment.FulfillmentState) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[orderID]
	if !ok || o.TenantID != tenantID {
		return shared.ErrNotFound
	}
	copied := state
	o.Fulfillment = &copied
	o.ModifiedAt = time.Now().UTC()
	return nil
}

type fakeJobRepo struct {
	mu         sync.Mutex
	jobs       []*fulfillment.Job
	enqueueErr error
}

func (f *fakeJobRepo) Enqueue(_ context.Context, job *fulfillment.Job) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.enqueueErr != nil {
		return f.enqueueErr
	}
	f.jobs = append(f.jobs, job)
	return nil
}

func (f *fakeJobRepo) setEnqueueErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.enqueueErr = err
}

func (f *fakeJobRepo) ClaimNext(_ context.Context) (*fulfillment.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.jobs) == 0 {
		return nil, nil
	}
	job := f.jobs[0]
	f.jobs = f.jobs[1:]
	_ = job.MarkRunning()
	return job, nil
}

func (f *fakeJobRepo) Complete(_ context.Context, _ uuid.UUID) error { return nil }

func (f *fakeJobRepo) Fail(_ context.Context, _ uuid.UUID, _ string) error { return nil }

func (f *fakeJobRepo) FindByID(_ context.Context, _ uuid.UUID) (*fulfillment.Job, error) {
	return nil, shared.ErrNotFound
}

func (f *fakeJobRepo) FindDead(_ context.Context, _, _ int) ([]*fulfillment.Job, int64, error) {
	return nil, 0, nil
}

func (f *fakeJobRepo) Replay(_ context.Context, _ uuid.UUID) error { return nil }

func (f *fakeJobRepo) CountByStatus(_ context.Context) (map[fulfillment.JobStatus]int64, error) {
	return nil, nil
}

func (f *fakeJobRepo) enqueued() []*fulfillment.Job {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*fulfillment.Job(nil), f.jobs...)
}

type fakeInventoryRepo struct {
	mu      sync.Mutex
	levels  map[string]fulfillment.InventoryLevel
	failSKU string
}

func newFakeInventoryRepo() *fakeInventoryRepo {
	return &fakeInventoryRepo{levels: make(map[string]fulfillment.InventoryLevel)}
}

func (f *fakeInventoryRepo) Upsert(_ context.Context, level fulfillment.InventoryLevel) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSKU != "" && level.SKU == f.failSKU {
		return shared.ErrTransientInfra
	}
	f.levels[level.TenantID.String()+"/"+level.SKU] = level
	return nil
}

func (f *fakeInventoryRepo) FindByTenant(_ context.Context, tenantID uuid.UUID) ([]fulfillment.InventoryLevel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []fulfillment.InventoryLevel
	for _, l := range f.levels {
		if l.TenantID == tenantID {
			out = append(out, l)
		}
	}
	return out, nil
}

type fakeAuditRepo struct {
	mu      sync.Mutex
	entries []*fulfillment.AuditEntry
}

func (f *fakeAuditRepo) Append(_ context.Context, entry *fulfillment.AuditEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakeAuditRepo) byOperation(op string) []*fulfillment.AuditEntry {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*fulfillment.AuditEntry
	for _, e := range f.entries {
		if e.Operation == op {
			out = append(out, e)
		}
	}
	return out
}

// fakeFeed serves a fixed record set one page at a time and counts fetches
type fakeFeed struct {
	mu      sync.Mutex
	records []fulfillment.FeedRecord
	fetches int
	failAt  int // page number that fails, 0 for never
}

func (f *fakeFeed) FetchPage(_ context.Context, _ uuid.UUID, page, pageSize int) ([]fulfillment.FeedRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	if f.failAt > 0 && page == f.failAt {
		return nil, shared.ErrTransientInfra
	}
	start := (page - 1) * pageSize
	if start >= len(f.records) {
		return nil, nil
	}
	end := start + pageSize
	if end > len(f.records) {
		end = len(f.records)
	}
	return f.records[start:end], nil
}

func (f *fakeFeed) fetchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetches
}

// fakeDedup is an IdempotencyStore without expiry
type fakeDedup struct {
	mu   sync.Mutex
	seen map[string]bool
}

func newFakeDedup() *fakeDedup {
	return &fakeDedup{seen: make(map[string]bool)}
}

func (f *fakeDedup) MarkProcessed(_ context.Context, deliveryID string, _ time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.seen[deliveryID] {
		return false, nil
	}
	f.seen[deliveryID] = true
	return true, nil
}

func (f *fakeDedup) IsProcessed(_ context.Context, deliveryID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.seen[deliveryID], nil
}

func (f *fakeDedup) Close() error { return nil }
