package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/storefront/backend/internal/application/gateway"
	"github.com/storefront/backend/internal/interfaces/http/dto"
)

var exportDateLayouts = []string{time.RFC3339, "2006-01-02"}

// ExportHandler serves the paginated order export document
type ExportHandler struct {
	BaseHandler
	exports *gateway.ExportService
}

// NewExportHandler creates a new ExportHandler
func NewExportHandler(exports *gateway.ExportService) *ExportHandler {
	return &ExportHandler{exports: exports}
}

// RegisterRoutes registers export routes on the authenticated integration group
func (h *ExportHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/orders/export", h.Export)
}

type exportRequest struct {
	Start    string `form:"start" binding:"required"`
	End      string `form:"end" binding:"required"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
}

// Export builds one page of the order export for a modification date range.
// The document carries order state that changes between calls, so caches are
// told to stay out of the way.
func (h *ExportHandler) Export(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "integration credentials required")
		return
	}

	var req exportRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeValidation, "start and end query parameters are required")
		return
	}

	start, err := parseExportDate(req.Start, false)
	if err != nil {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeValidation, fmt.Sprintf("invalid start date: %v", err))
		return
	}
	end, err := parseExportDate(req.End, true)
	if err != nil {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeValidation, fmt.Sprintf("invalid end date: %v", err))
		return
	}

	doc, err := h.exports.BuildExport(c.Request.Context(), tenantID, start, end, req.Page, req.PageSize)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
	c.XML(http.StatusOK, doc)
}

// parseExportDate accepts RFC3339 timestamps or bare dates. A bare end date
// covers the whole day, so it advances to the next midnight.
func parseExportDate(raw string, isEnd bool) (time.Time, error) {
	for i, layout := range exportDateLayouts {
		t, err := time.Parse(layout, raw)
		if err != nil {
			continue
		}
		if isEnd && i == 1 {
			t = t.AddDate(0, 0, 1)
		}
		return t, nil
	}
	return time.Time{}, fmt.Errorf("%q is not an RFC3339 timestamp or YYYY-MM-DD date", raw)
}
