package service

import (
	"context"

	"github.com/kedai-next/internal/constants"
	"github.com/kedai-next/internal/geo"
	"github.com/kedai-next/internal/logger"
	"github.com/kedai-next/internal/models"
	"github.com/kedai-next/internal/realtime"
)

// CheckoutInput 结账输入
type CheckoutInput struct {
	SessionID       string
	UserID          *uint
	CustomerName    string
	CustomerPhone   string
	CustomerAddress string
	OrderType       string
	PaymentMethod   string
	BranchCode      string
	Destination     *geo.Point
	Locale          string
	Actor           Actor
}

// CheckoutResult 结账结果；网关会话失败时订单仍然有效，PaymentErr 说明原因
type CheckoutResult struct {
	Order      *models.Order         `json:"order"`
	Assisted   *AssistedInstructions `json:"assisted,omitempty"`
	Payment    *PaymentSession       `json:"payment,omitempty"`
	PaymentErr error                 `json:"-"`
}

// CheckoutService 结账编排：购物车 → 营业时间 → 建单 → 清空购物车 → 推送 → 支付分支
type CheckoutService struct {
	cartService     *CartService
	orderService    *OrderService
	paymentService  *PaymentService
	assistedService *AssistedService
	audit           *AuditService
	locks           *checkoutLocks
}

// NewCheckoutService 创建结账服务
func NewCheckoutService(cartService *CartService, orderService *OrderService, paymentService *PaymentService, assistedService *AssistedService, audit *AuditService) *CheckoutService {
	return &CheckoutService{
		cartService:     cartService,
		orderService:    orderService,
		paymentService:  paymentService,
		assistedService: assistedService,
		audit:           audit,
		locks:           newCheckoutLocks(),
	}
}

// Checkout 提交订单
func (s *CheckoutService) Checkout(ctx context.Context, input CheckoutInput) (*CheckoutResult, error) {
	sessionID, err := NormalizeCartSession(input.SessionID)
	if err != nil {
		return nil, err
	}
	release, err := s.locks.acquire(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	defer release()
	c, err := s.cartService.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if c.IsEmpty() {
		return nil, ErrCartEmpty
	}

	order, err := s.orderService.Create(ctx, CreateOrderInput{
		UserID:          input.UserID,
		CustomerName:    input.CustomerName,
		CustomerPhone:   input.CustomerPhone,
		CustomerAddress: input.CustomerAddress,
		OrderType:       input.OrderType,
		PaymentMethod:   input.PaymentMethod,
		BranchCode:      input.BranchCode,
		Destination:     input.Destination,
		Items:           c.Snapshot(),
		ClientIP:        input.Actor.ClientIP,
	})
	if err != nil {
		return nil, err
	}

	// 订单已落库，之后的步骤失败不影响订单
	if err := s.cartService.Clear(ctx, sessionID); err != nil {
		logger.Warnw("checkout_cart_clear_failed", "order_no", order.OrderNo, "session_id", sessionID, "error", err)
	}
	s.orderService.Publish(realtime.EventOrderCreated, order, true)
	s.audit.Record(ctx, AuditInput{
		Actor:   input.Actor.Name,
		Action:  constants.AuditActionOrderCreate,
		OrderNo: order.OrderNo,
		Detail: map[string]interface{}{
			"order_type":     order.OrderType,
			"payment_method": order.PaymentMethod,
			"total_price":    order.TotalPrice.String(),
			"item_count":     len(order.Items),
		},
		ClientIP:  input.Actor.ClientIP,
		RequestID: input.Actor.RequestID,
	})

	result := &CheckoutResult{Order: order}
	switch order.PaymentMethod {
	case constants.PaymentMethodAssisted:
		instructions, err := s.assistedService.Instructions(ctx, order, input.Locale)
		if err != nil {
			logger.Warnw("checkout_assisted_instructions_failed", "order_no", order.OrderNo, "error", err)
		}
		result.Assisted = instructions
	case constants.PaymentMethodGateway:
		session, err := s.paymentService.CreateSession(ctx, order.OrderNo, input.Actor)
		if err != nil {
			logger.Warnw("checkout_payment_session_failed", "order_no", order.OrderNo, "error", err)
			result.PaymentErr = err
		}
		result.Payment = session
	}
	return result, nil
}
