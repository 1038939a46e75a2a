package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/storefront/backend/internal/application/gateway"
	"github.com/storefront/backend/internal/domain/fulfillment"
	"github.com/storefront/backend/internal/interfaces/http/dto"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
)

// AdminHandler is the operator surface: dead-letter management, queue stats,
// and tenant credential issuance
type AdminHandler struct {
	BaseHandler
	queue *gateway.QueueService
	auth  *gateway.AuthService
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(queue *gateway.QueueService, auth *gateway.AuthService) *AdminHandler {
	return &AdminHandler{queue: queue, auth: auth}
}

// RegisterRoutes registers admin routes on the operator-authenticated group
func (h *AdminHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/dead-letters", h.ListDeadLetters)
	rg.POST("/dead-letters/:id/replay", h.ReplayDeadLetter)
	rg.GET("/queue/stats", h.QueueStats)
	rg.POST("/tenants/:tenant_id/credentials", h.IssueCredential)
	rg.POST("/tenants/:tenant_id/credentials/rotate", h.RotateCredential)
	rg.POST("/tenants/:tenant_id/inventory/sync", h.TriggerInventorySync)
}

type jobResponse struct {
	ID          uuid.UUID  `json:"id"`
	TenantID    uuid.UUID  `json:"tenant_id"`
	Type        string     `json:"type"`
	Priority    string     `json:"priority"`
	Status      string     `json:"status"`
	Attempts    int        `json:"attempts"`
	MaxAttempts int        `json:"max_attempts"`
	LastError   string     `json:"last_error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	FinishedAt  *time.Time `json:"finished_at,omitempty"`
}

func toJobResponse(j *fulfillment.Job) jobResponse {
	return jobResponse{
		ID:          j.ID,
		TenantID:    j.TenantID,
		Type:        j.Type,
		Priority:    string(j.Priority),
		Status:      string(j.Status),
		Attempts:    j.Attempts,
		MaxAttempts: j.MaxAttempts,
		LastError:   j.LastError,
		CreatedAt:   j.CreatedAt,
		FinishedAt:  j.FinishedAt,
	}
}

// ListDeadLetters returns one page of dead-lettered jobs
func (h *AdminHandler) ListDeadLetters(c *gin.Context) {
	var req dto.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, "invalid pagination parameters")
		return
	}
	req.Normalize()

	jobs, total, err := h.queue.ListDeadLetters(c.Request.Context(), req.Page, req.PageSize)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	out := make([]jobResponse, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, toJobResponse(j))
	}
	h.SuccessWithMeta(c, out, total, req.Page, req.PageSize)
}

// ReplayDeadLetter resets a dead-lettered job for another run
func (h *AdminHandler) ReplayDeadLetter(c *gin.Context) {
	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidInput, "job id must be a UUID")
		return
	}

	operator := c.GetString(middleware.OperatorNameKey)
	if err := h.queue.ReplayJob(c.Request.Context(), jobID, operator); err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, gin.H{"job_id": jobID, "status": string(fulfillment.JobStatusPending)})
}

// QueueStats returns job counts per status
func (h *AdminHandler) QueueStats(c *gin.Context) {
	stats, err := h.queue.Stats(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, stats)
}

// TriggerInventorySync enqueues a reconciliation job for a tenant
func (h *AdminHandler) TriggerInventorySync(c *gin.Context) {
	tenantID, err := uuid.Parse(c.Param("tenant_id"))
	if err != nil {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidInput, "tenant_id must be a UUID")
		return
	}

	job, err := h.queue.TriggerInventorySync(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, gin.H{"job_id": job.ID, "status": string(job.Status)})
}

type credentialRequest struct {
	Scheme string `json:"scheme" binding:"required"`
}

type credentialResponse struct {
	CredentialID uuid.UUID `json:"credential_id"`
	TenantID     uuid.UUID `json:"tenant_id"`
	Scheme       string    `json:"scheme"`
	Key          string    `json:"key"`
	// Secret is returned exactly once; it is not recoverable afterwards
	Secret string `json:"secret"`
}

// IssueCredential mints a fresh integration credential for a tenant
func (h *AdminHandler) IssueCredential(c *gin.Context) {
	h.issueOrRotate(c, h.auth.IssueCredential)
}

// RotateCredential replaces a tenant's active credential. The outgoing
// credential stops authenticating immediately.
func (h *AdminHandler) RotateCredential(c *gin.Context) {
	h.issueOrRotate(c, h.auth.RotateCredential)
}

func (h *AdminHandler) issueOrRotate(
	c *gin.Context,
	op func(ctx context.Context, tenantID uuid.UUID, scheme fulfillment.CredentialScheme) (*gateway.IssuedCredential, error),
) {
	tenantID, err := uuid.Parse(c.Param("tenant_id"))
	if err != nil {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidInput, "tenant_id must be a UUID")
		return
	}

	var req credentialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "scheme is required")
		return
	}

	scheme := fulfillment.CredentialScheme(req.Scheme)
	if !scheme.IsValid() {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidInput, "unknown credential scheme")
		return
	}

	issued, err := op(c.Request.Context(), tenantID, scheme)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, credentialResponse{
		CredentialID: issued.CredentialID,
		TenantID:     issued.TenantID,
		Scheme:       string(issued.Scheme),
		Key:          issued.Key,
		Secret:       issued.Secret,
	})
}
