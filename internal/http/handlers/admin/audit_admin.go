package admin

import (
	"strings"

	handlershared "github.com/kedai-next/internal/http/handlers/shared"
	"github.com/kedai-next/internal/http/response"
	"github.com/kedai-next/internal/repository"

	"github.com/gin-gonic/gin"
)

// GetAuditEvents 审计事件列表
func (h *Handler) GetAuditEvents(c *gin.Context) {
	page, pageSize := handlershared.ParsePagination(c, defaultAdminPageSize)

	events, total, err := h.AuditService.ListForAdmin(repository.AuditEventListFilter{
		Page:     page,
		PageSize: pageSize,
		Action:   strings.TrimSpace(c.Query("action")),
		Actor:    strings.TrimSpace(c.Query("actor")),
		OrderNo:  strings.TrimSpace(c.Query("order_no")),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}

	response.SuccessWithPage(c, events, response.NewPagination(page, pageSize, total))
}
