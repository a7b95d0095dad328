package admin

import (
	"errors"

	"github.com/kedai-next/internal/constants"
	"github.com/kedai-next/internal/http/response"
	"github.com/kedai-next/internal/service"

	"github.com/gin-gonic/gin"
)

// GetStoreSettings 获取门店运营配置
func (h *Handler) GetStoreSettings(c *gin.Context) {
	cfg, err := h.StoreConfigService.Get(c.Request.Context())
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.Success(c, cfg)
}

// UpdateStoreSettings 更新门店运营配置
func (h *Handler) UpdateStoreSettings(c *gin.Context) {
	var req service.StoreConfig
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}

	updated, err := h.StoreConfigService.Update(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrStoreConfigInvalid) {
			requestLog(c).Infow("admin_store_settings_rejected", "error", err)
			respondError(c, response.CodeBadRequest, "error.settings_invalid", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.save_failed", err)
		return
	}

	actor := staffActor(c)
	h.AuditService.Record(c.Request.Context(), service.AuditInput{
		Actor:  actor.Name,
		Action: constants.AuditActionStoreSettingsUpdate,
		Detail: map[string]interface{}{
			"timezone":     updated.Timezone,
			"open_hour":    updated.OpenHour,
			"close_hour":   updated.CloseHour,
			"per_km_rate":  updated.PerKmRate,
			"minimum_fee":  updated.MinimumFee,
			"branch_count": len(updated.Branches),
		},
		ClientIP:  actor.ClientIP,
		RequestID: actor.RequestID,
	})
	response.Success(c, updated)
}
