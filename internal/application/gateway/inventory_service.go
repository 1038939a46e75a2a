package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/fulfillment"
	"github.com/storefront/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// maxFeedPages is a hard stop against a remote feed that never returns a
// short page
const maxFeedPages = 1000

// SyncReport summarizes one reconciliation run
type SyncReport struct {
	TenantID uuid.UUID `json:"tenant_id"`
	Synced   int       `json:"synced"`
	Pages    int       `json:"pages"`
	Aborted  bool      `json:"aborted"`
	Error    string    `json:"error,omitempty"`
}

// InventoryService reconciles local stock levels against the remote feed
type InventoryService struct {
	feed      fulfillment.InventoryFeed
	inventory fulfillment.InventoryRepository
	audit     fulfillment.AuditRepository
	pageSize  int
	logger    *zap.Logger
}

// NewInventoryService creates a new InventoryService
func NewInventoryService(
	feed fulfillment.InventoryFeed,
	inventory fulfillment.InventoryRepository,
	audit fulfillment.AuditRepository,
	pageSize int,
	logger *zap.Logger,
) *InventoryService {
	if pageSize <= 0 {
		pageSize = 100
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InventoryService{
		feed:      feed,
		inventory: inventory,
		audit:     audit,
		pageSize:  pageSize,
		logger:    logger,
	}
}

// SyncInventory pages the remote feed until a short page and upserts every
// record. A transport failure aborts the remaining pages and reports what was
// synced so far; records already written stay, each upsert is independently
// idempotent.
func (s *InventoryService) SyncInventory(ctx context.Context, tenantID uuid.UUID) (*SyncReport, error) {
	began := time.Now()
	report := &SyncReport{TenantID: tenantID}

	for page := 1; page <= maxFeedPages; page++ {
		records, err := s.feed.FetchPage(ctx, tenantID, page, s.pageSize)
		if err != nil {
			report.Aborted = true
			report.Error = err.Error()
			s.auditSync(ctx, tenantID, fulfillment.AuditOutcomeFailure,
				fmt.Sprintf("aborted at page %d after %d records: %v", page, report.Synced, err), began)
			return report, fmt.Errorf("%w: feed page %d: %v", shared.ErrTransientInfra, page, err)
		}
		report.Pages++

		syncedAt := time.Now().UTC()
		for _, record := range records {
			level := record.ToLevel(tenantID, syncedAt)
			if err := s.inventory.Upsert(ctx, level); err != nil {
				report.Aborted = true
				report.Error = err.Error()
				s.auditSync(ctx, tenantID, fulfillment.AuditOutcomeFailure,
					fmt.Sprintf("upsert %s failed after %d records: %v", record.SKU, report.Synced, err), began)
				return report, fmt.Errorf("%w: upsert %s: %v", shared.ErrTransientInfra, record.SKU, err)
			}
			report.Synced++
		}

		// A short page is the end-of-data sentinel
		if len(records) < s.pageSize {
			break
		}
	}

	s.auditSync(ctx, tenantID, fulfillment.AuditOutcomeSuccess,
		fmt.Sprintf("synced=%d pages=%d", report.Synced, report.Pages), began)
	return report, nil
}

func (s *InventoryService) auditSync(ctx context.Context, tenantID uuid.UUID, outcome fulfillment.AuditOutcome, detail string, began time.Time) {
	entry := fulfillment.NewAuditEntry(tenantID, fulfillment.AuditOpInventorySync, outcome, detail, time.Since(began))
	if err := s.audit.Append(ctx, entry); err != nil {
		s.logger.Error("failed to append inventory audit entry", zap.Error(err))
	}
}
