package admin

import (
	"errors"
	"strconv"
	"strings"
	"time"

	handlershared "github.com/kedai-next/internal/http/handlers/shared"
	"github.com/kedai-next/internal/http/response"
	"github.com/kedai-next/internal/realtime"
	"github.com/kedai-next/internal/repository"
	"github.com/kedai-next/internal/service"

	"github.com/gin-gonic/gin"
)

// UpdateOrderStatusRequest 变更订单状态请求
type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// AdminListOrders 后台订单列表
func (h *Handler) AdminListOrders(c *gin.Context) {
	page, pageSize := handlershared.ParsePagination(c, defaultAdminPageSize)

	createdFrom, err := parseTimeNullable(strings.TrimSpace(c.Query("created_from")))
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	createdTo, err := parseTimeNullable(strings.TrimSpace(c.Query("created_to")))
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}

	orders, total, err := h.OrderService.ListForAdmin(c.Request.Context(), repository.OrderListFilter{
		Page:          page,
		PageSize:      pageSize,
		Status:        strings.TrimSpace(c.Query("status")),
		OrderType:     strings.TrimSpace(c.Query("order_type")),
		PaymentMethod: strings.TrimSpace(c.Query("payment_method")),
		OrderNo:       strings.TrimSpace(c.Query("order_no")),
		Keyword:       strings.TrimSpace(c.Query("keyword")),
		CreatedFrom:   createdFrom,
		CreatedTo:     createdTo,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.order_fetch_failed", err)
		return
	}

	response.SuccessWithPage(c, orders, response.NewPagination(page, pageSize, total))
}

// AdminGetOrder 后台订单详情
func (h *Handler) AdminGetOrder(c *gin.Context) {
	orderID, ok := parseOrderID(c)
	if !ok {
		return
	}
	order, err := h.OrderService.GetForAdmin(c.Request.Context(), orderID)
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			respondError(c, response.CodeNotFound, "error.order_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.order_fetch_failed", err)
		return
	}
	response.Success(c, gin.H{
		"order":         order,
		"next_statuses": service.NextOrderStatuses(order.Status),
	})
}

// AdminUpdateOrderStatus 后台变更订单状态
func (h *Handler) AdminUpdateOrderStatus(c *gin.Context) {
	orderID, ok := parseOrderID(c)
	if !ok {
		return
	}
	var req UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}

	order, err := h.OrderService.UpdateStatus(c.Request.Context(), orderID, req.Status, staffActor(c))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			respondError(c, response.CodeNotFound, "error.order_not_found", nil)
		case errors.Is(err, service.ErrOrderStatusInvalid):
			respondError(c, response.CodeBadRequest, "error.order_status_invalid", nil)
		case errors.Is(err, service.ErrOrderStatusConflict):
			respondError(c, response.CodeConflict, "error.order_status_conflict", nil)
		case errors.Is(err, service.ErrOrderFetchFailed):
			respondError(c, response.CodeInternal, "error.order_fetch_failed", err)
		default:
			respondError(c, response.CodeInternal, "error.order_update_failed", err)
		}
		return
	}
	response.Success(c, order)
}

// AdminOrderEvents 店员端全部订单推送
func (h *Handler) AdminOrderEvents(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	sub, err := h.Hub.Subscribe(realtime.ForAllOrders())
	if err != nil {
		respondError(c, response.CodeServiceUnavailable, "error.realtime_unavailable", err)
		return
	}
	requestLog(c).Infow("admin_realtime_connected", "admin_id", adminID, "username", c.GetString("username"))
	handlershared.StreamSubscription(c, sub, handlershared.StreamOptions{
		PingInterval: time.Duration(h.Config.Realtime.PingSeconds) * time.Second,
	})
}

func parseOrderID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(strings.TrimSpace(c.Param("id")), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return 0, false
	}
	return uint(id), true
}
