package public

import (
	"errors"
	"strings"

	"github.com/kedai-next/internal/geo"
	"github.com/kedai-next/internal/http/response"
	"github.com/kedai-next/internal/i18n"
	"github.com/kedai-next/internal/service"

	"github.com/gin-gonic/gin"
)

// CheckoutRequest 结账请求
type CheckoutRequest struct {
	CustomerName    string   `json:"customer_name"`
	CustomerPhone   string   `json:"customer_phone"`
	CustomerAddress string   `json:"customer_address"`
	OrderType       string   `json:"order_type"`
	PaymentMethod   string   `json:"payment_method"`
	BranchCode      string   `json:"branch_code"`
	Lat             *float64 `json:"lat"`
	Lng             *float64 `json:"lng"`
}

// Checkout 提交订单：校验营业时间、落库、清空购物车并进入支付分支
func (h *Handler) Checkout(c *gin.Context) {
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	var destination *geo.Point
	if req.Lat != nil && req.Lng != nil {
		destination = &geo.Point{Lat: *req.Lat, Lng: *req.Lng}
	}
	locale := i18n.ResolveLocale(c)

	result, err := h.CheckoutService.Checkout(c.Request.Context(), service.CheckoutInput{
		SessionID:       cartSession(c),
		CustomerName:    req.CustomerName,
		CustomerPhone:   req.CustomerPhone,
		CustomerAddress: req.CustomerAddress,
		OrderType:       strings.ToLower(strings.TrimSpace(req.OrderType)),
		PaymentMethod:   strings.ToLower(strings.TrimSpace(req.PaymentMethod)),
		BranchCode:      req.BranchCode,
		Destination:     destination,
		Locale:          locale,
		Actor:           customerActor(c),
	})
	if err != nil {
		if errors.Is(err, service.ErrOrderCreateFailed) {
			requestLog(c).Errorw("checkout_order_create_failed", "error", err)
		}
		respondWithMappedError(c, err, checkoutErrorRules, response.CodeInternal, "error.order_create_failed")
		return
	}

	data := gin.H{
		"order":    result.Order,
		"assisted": result.Assisted,
		"payment":  result.Payment,
	}
	if result.PaymentErr != nil {
		data["payment_error"] = i18n.T(locale, paymentErrorKey(result.PaymentErr))
	}
	response.Success(c, data)
}

// paymentErrorKey 订单已创建但网关会话失败时的提示
func paymentErrorKey(err error) string {
	for _, rule := range paymentErrorRules {
		if errors.Is(err, rule.target) {
			return rule.key
		}
	}
	return "error.payment_failed"
}
