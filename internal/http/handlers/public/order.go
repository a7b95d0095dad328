package public

import (
	"time"

	"github.com/kedai-next/internal/constants"
	handlershared "github.com/kedai-next/internal/http/handlers/shared"
	"github.com/kedai-next/internal/http/response"
	"github.com/kedai-next/internal/i18n"

	"github.com/gin-gonic/gin"
)

// GetOrder 顾客按订单号查看订单
func (h *Handler) GetOrder(c *gin.Context) {
	order, err := h.OrderService.GetByOrderNo(c.Request.Context(), c.Param("order_no"))
	if err != nil {
		respondWithMappedError(c, err, orderLookupErrorRules, response.CodeInternal, "error.order_fetch_failed")
		return
	}

	data := gin.H{"order": order}
	switch order.PaymentMethod {
	case constants.PaymentMethodAssisted:
		instructions, err := h.AssistedService.Instructions(c.Request.Context(), order, i18n.ResolveLocale(c))
		if err != nil {
			requestLog(c).Warnw("order_assisted_instructions_failed", "order_no", order.OrderNo, "error", err)
		} else {
			data["assisted"] = instructions
		}
	case constants.PaymentMethodGateway:
		data["gateway"] = h.PaymentService.PublicConfig()
	}
	response.Success(c, data)
}

// OrderEvents 顾客订单状态推送
func (h *Handler) OrderEvents(c *gin.Context) {
	order, sub, err := h.OrderService.Watch(c.Request.Context(), h.Hub, c.Param("order_no"))
	if err != nil {
		respondWithMappedError(c, err, orderEventsErrorRules, response.CodeInternal, "error.order_fetch_failed")
		return
	}
	handlershared.StreamSubscription(c, sub, handlershared.StreamOptions{
		Snapshot:     order,
		PingInterval: time.Duration(h.Config.Realtime.PingSeconds) * time.Second,
	})
}
