package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/storefront/backend/internal/application/gateway"
	"github.com/storefront/backend/internal/interfaces/http/dto"
)

// WebhookHandler receives push notifications from the remote platform. The
// endpoint answers 200 for anything wrong with the payload itself; only a
// failure to durably record the delivery surfaces as an error, which makes
// the remote system retry.
type WebhookHandler struct {
	BaseHandler
	webhooks *gateway.WebhookService
}

// NewWebhookHandler creates a new WebhookHandler
func NewWebhookHandler(webhooks *gateway.WebhookService) *WebhookHandler {
	return &WebhookHandler{webhooks: webhooks}
}

// RegisterRoutes registers webhook routes
func (h *WebhookHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/webhooks/:tenant_id", h.Challenge)
	rg.POST("/webhooks/:tenant_id", h.Receive)
}

// Challenge answers the remote platform's endpoint verification probe by
// echoing the challenge token
func (h *WebhookHandler) Challenge(c *gin.Context) {
	challenge := c.Query("challenge")
	if challenge == "" {
		h.BadRequest(c, "challenge query parameter is required")
		return
	}
	c.String(http.StatusOK, challenge)
}

// Receive ingests one webhook delivery, JSON or form encoded
func (h *WebhookHandler) Receive(c *gin.Context) {
	tenantID, err := uuid.Parse(c.Param("tenant_id"))
	if err != nil {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidInput, "tenant_id must be a UUID")
		return
	}

	var delivery gateway.WebhookDelivery
	if err := c.ShouldBind(&delivery); err != nil {
		// Undecodable bodies still get a 200 so the remote stops retrying
		h.Success(c, gateway.WebhookResult{Accepted: false, Reason: "undecodable delivery body"})
		return
	}

	result, err := h.webhooks.Ingest(c.Request.Context(), tenantID, delivery)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}
