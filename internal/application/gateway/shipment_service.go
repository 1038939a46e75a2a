package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/fulfillment"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/shipping"
	"go.uber.org/zap"
)

// ShipmentAck is the acknowledgment returned to the external system after a
// notification is applied
type ShipmentAck struct {
	OrderID        uuid.UUID `json:"order_id"`
	TrackingNumber string    `json:"tracking_number"`
}

// ShipmentService applies inbound shipment notifications to orders. The
// mutation is an upsert of the fulfillment-state slice, so replays converge.
type ShipmentService struct {
	orders fulfillment.OrderRepository
	audit  fulfillment.AuditRepository
	logger *zap.Logger
}

// NewShipmentService creates a new ShipmentService
func NewShipmentService(orders fulfillment.OrderRepository, audit fulfillment.AuditRepository, logger *zap.Logger) *ShipmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ShipmentService{orders: orders, audit: audit, logger: logger}
}

// ProcessNotification parses an inbound XML shipment document and applies it.
// Parse and validation failures keep their distinct error kinds; a reference
// to an order that does not exist is a not-found outcome, separate from both.
func (s *ShipmentService) ProcessNotification(ctx context.Context, tenantID uuid.UUID, raw []byte) (*ShipmentAck, error) {
	began := time.Now()

	notification, err := shipping.ParseShipmentNotification(raw)
	if err != nil {
		s.auditShipment(ctx, tenantID, fulfillment.AuditOutcomeFailure, fmt.Sprintf("rejected document: %v", err), began)
		return nil, err
	}

	ack, err := s.Apply(ctx, tenantID, notification)
	if err != nil {
		s.auditShipment(ctx, tenantID, fulfillment.AuditOutcomeFailure, fmt.Sprintf("tracking=%s: %v", notification.TrackingNumber, err), began)
		return nil, err
	}

	s.auditShipment(ctx, tenantID, fulfillment.AuditOutcomeSuccess,
		fmt.Sprintf("order=%s tracking=%s", ack.OrderID, ack.TrackingNumber), began)
	return ack, nil
}

// Apply resolves the referenced order and upserts its fulfillment state.
// Safe to call more than once with the same notification.
func (s *ShipmentService) Apply(ctx context.Context, tenantID uuid.UUID, n *fulfillment.ShipmentNotification) (*ShipmentAck, error) {
	order, err := s.resolveOrder(ctx, tenantID, n)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, fmt.Errorf("%w: referenced order", shared.ErrNotFound)
	}

	if err := s.orders.ApplyFulfillment(ctx, tenantID, order.ID, n.ToFulfillmentState()); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, fmt.Errorf("%w: referenced order", shared.ErrNotFound)
		}
		return nil, fmt.Errorf("%w: apply fulfillment: %v", shared.ErrTransientInfra, err)
	}

	return &ShipmentAck{OrderID: order.ID, TrackingNumber: n.TrackingNumber}, nil
}

func (s *ShipmentService) resolveOrder(ctx context.Context, tenantID uuid.UUID, n *fulfillment.ShipmentNotification) (*fulfillment.Order, error) {
	if n.OrderID != uuid.Nil {
		order, err := s.orders.FindByID(ctx, tenantID, n.OrderID)
		if err != nil {
			return nil, fmt.Errorf("%w: order lookup: %v", shared.ErrTransientInfra, err)
		}
		return order, nil
	}
	order, err := s.orders.FindByNumber(ctx, tenantID, n.OrderNumber)
	if err != nil {
		return nil, fmt.Errorf("%w: order lookup: %v", shared.ErrTransientInfra, err)
	}
	return order, nil
}

func (s *ShipmentService) auditShipment(ctx context.Context, tenantID uuid.UUID, outcome fulfillment.AuditOutcome, detail string, began time.Time) {
	entry := fulfillment.NewAuditEntry(tenantID, fulfillment.AuditOpShipNotify, outcome, detail, time.Since(began))
	if err := s.audit.Append(ctx, entry); err != nil {
		s.logger.Error("failed to append shipment audit entry", zap.Error(err))
	}
}
