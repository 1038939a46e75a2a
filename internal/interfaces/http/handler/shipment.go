package handler

import (
	"io"

	"github.com/gin-gonic/gin"
	"github.com/storefront/backend/internal/application/gateway"
)

// ShipmentHandler accepts inbound XML shipment notifications
type ShipmentHandler struct {
	BaseHandler
	shipments *gateway.ShipmentService
}

// NewShipmentHandler creates a new ShipmentHandler
func NewShipmentHandler(shipments *gateway.ShipmentService) *ShipmentHandler {
	return &ShipmentHandler{shipments: shipments}
}

// RegisterRoutes registers shipment routes on the authenticated integration group
func (h *ShipmentHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/shipments", h.Notify)
}

// Notify applies one shipment notification document and acknowledges with the
// affected order
func (h *ShipmentHandler) Notify(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "integration credentials required")
		return
	}

	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.BadRequest(c, "failed to read request body")
		return
	}

	ack, err := h.shipments.ProcessNotification(c.Request.Context(), tenantID, raw)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, ack)
}
