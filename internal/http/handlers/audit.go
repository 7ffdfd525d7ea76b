package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/luminex/nursery-backend/internal/data/repos"
	"github.com/luminex/nursery-backend/internal/http/response"
	"github.com/luminex/nursery-backend/internal/services"
)

type AuditHandler struct {
	audit services.AuditService
}

func NewAuditHandler(audit services.AuditService) *AuditHandler {
	return &AuditHandler{audit: audit}
}

// GET /api/audit-logs?userId=&batchId=&action=&dateFrom=&dateTo=&page=&limit=
func (h *AuditHandler) List(c *gin.Context) {
	q := newQuery(c)
	f := repos.AuditLogFilter{
		UserID:   q.UUID("userId"),
		BatchID:  q.UUID("batchId"),
		Action:   q.String("action"),
		DateFrom: q.Time("dateFrom"),
		DateTo:   q.Time("dateTo"),
		Page:     q.Page(),
	}
	if !q.Done() {
		return
	}
	rows, meta, err := h.audit.List(c.Request.Context(), f)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondPage(c, rows, meta)
}
