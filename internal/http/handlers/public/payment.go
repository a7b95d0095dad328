package public

import (
	"io"
	"net/http"
	"strconv"

	"github.com/kedai-next/internal/constants"
	"github.com/kedai-next/internal/http/response"
	"github.com/kedai-next/internal/i18n"
	"github.com/kedai-next/internal/service"

	"github.com/gin-gonic/gin"
)

const maxNotificationBodyBytes = 64 << 10

// PaymentResultRequest 客户端回报的支付结果
type PaymentResultRequest struct {
	Outcome string `json:"outcome" binding:"required"`
}

// CreatePaymentSession 创建或复用网关支付会话
func (h *Handler) CreatePaymentSession(c *gin.Context) {
	session, err := h.PaymentService.CreateSession(c.Request.Context(), c.Param("order_no"), customerActor(c))
	if err != nil {
		respondWithMappedError(c, err, paymentErrorRules, response.CodeInternal, "error.payment_failed")
		return
	}
	response.Success(c, session)
}

// SubmitPaymentResult 客户端支付回调，结果会向网关复核后再应用
func (h *Handler) SubmitPaymentResult(c *gin.Context) {
	var req PaymentResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	outcome, ok := service.ParsePaymentOutcome(req.Outcome)
	if !ok {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	result, err := h.PaymentService.ConfirmClientResult(c.Request.Context(), c.Param("order_no"), outcome, customerActor(c))
	if err != nil {
		respondWithMappedError(c, err, paymentErrorRules, response.CodeInternal, "error.payment_failed")
		return
	}
	response.Success(c, result)
}

// GetAssistQRCode 人工确认支付的联系二维码
func (h *Handler) GetAssistQRCode(c *gin.Context) {
	size, _ := strconv.Atoi(c.DefaultQuery("size", "256"))
	png, err := h.AssistedService.QRCode(c.Request.Context(), c.Param("order_no"), i18n.ResolveLocale(c), size)
	if err != nil {
		respondWithMappedError(c, err, assistedErrorRules, response.CodeInternal, "error.qrcode_failed")
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/png", png)
}

// SnapNotify 网关异步通知
func (h *Handler) SnapNotify(c *gin.Context) {
	log := requestLog(c)
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxNotificationBodyBytes))
	if err != nil {
		log.Warnw("snap_notify_body_read_failed", "error", err)
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	log.Infow("snap_notify_received",
		"client_ip", c.ClientIP(),
		"body_size", len(body),
	)
	result, err := h.PaymentService.HandleNotification(c.Request.Context(), body, buildActor(c, constants.AuditActorGateway))
	if err != nil {
		log.Warnw("snap_notify_handle_failed", "error", err)
		respondWithMappedError(c, err, paymentErrorRules, response.CodeInternal, "error.payment_failed")
		return
	}
	response.Success(c, gin.H{
		"accepted": true,
		"order_no": result.Order.OrderNo,
		"outcome":  result.Outcome,
		"updated":  result.Applied,
	})
}
