package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/fulfillment"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/shipping"
	"go.uber.org/zap"
)

const (
	// DefaultExportPageSize bounds one export page when the caller does not say
	DefaultExportPageSize = 50
	// MaxExportPageSize caps what the caller can ask for
	MaxExportPageSize = 200
)

// ExportService builds paginated order export documents
type ExportService struct {
	orders fulfillment.OrderRepository
	audit  fulfillment.AuditRepository
	logger *zap.Logger
}

// NewExportService creates a new ExportService
func NewExportService(orders fulfillment.OrderRepository, audit fulfillment.AuditRepository, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{orders: orders, audit: audit, logger: logger}
}

// BuildExport assembles the export document for one page of a date range.
// Incomplete orders are excluded and the exclusion count lands both in the
// document and the audit trail.
func (s *ExportService) BuildExport(ctx context.Context, tenantID uuid.UUID, start, end time.Time, page, pageSize int) (*shipping.OrderExportDocument, error) {
	began := time.Now()

	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultExportPageSize
	}
	if pageSize > MaxExportPageSize {
		pageSize = MaxExportPageSize
	}
	if !end.After(start) {
		return nil, fmt.Errorf("%w: export range end must be after start", shared.ErrValidationFailure)
	}

	orders, total, err := s.orders.FindForExport(ctx, fulfillment.OrderExportQuery{
		TenantID: tenantID,
		Start:    start,
		End:      end,
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		s.auditExport(ctx, tenantID, fulfillment.AuditOutcomeFailure, fmt.Sprintf("order query failed: %v", err), began)
		return nil, fmt.Errorf("%w: order export query: %v", shared.ErrTransientInfra, err)
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	if totalPages < 1 {
		totalPages = 1
	}

	doc := shipping.BuildOrderExport(orders, page, totalPages, total)

	detail := fmt.Sprintf("page=%d exported=%d", page, len(doc.Orders))
	if doc.Excluded != nil {
		detail = fmt.Sprintf("%s excluded=%d", detail, doc.Excluded.Count)
	}
	s.auditExport(ctx, tenantID, fulfillment.AuditOutcomeSuccess, detail, began)

	return doc, nil
}

func (s *ExportService) auditExport(ctx context.Context, tenantID uuid.UUID, outcome fulfillment.AuditOutcome, detail string, began time.Time) {
	entry := fulfillment.NewAuditEntry(tenantID, fulfillment.AuditOpOrderExport, outcome, detail, time.Since(began))
	if err := s.audit.Append(ctx, entry); err != nil {
		s.logger.Error("failed to append export audit entry", zap.Error(err))
	}
}
