package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kedai-next/internal/cart"
	"github.com/kedai-next/internal/constants"
	"github.com/kedai-next/internal/geo"
	"github.com/kedai-next/internal/logger"
	"github.com/kedai-next/internal/models"
	"github.com/kedai-next/internal/realtime"
	"github.com/kedai-next/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderService 订单服务，订单状态只经由此处写入
type OrderService struct {
	orderRepo   repository.OrderRepository
	storeConfig *StoreConfigService
	publisher   realtime.Publisher
	audit       *AuditService
	now         func() time.Time
}

// NewOrderService 创建订单服务
func NewOrderService(orderRepo repository.OrderRepository, storeConfig *StoreConfigService, publisher realtime.Publisher, audit *AuditService) *OrderService {
	return &OrderService{
		orderRepo:   orderRepo,
		storeConfig: storeConfig,
		publisher:   publisher,
		audit:       audit,
		now:         time.Now,
	}
}

// Actor 操作来源
type Actor struct {
	Name      string
	ClientIP  string
	RequestID string
}

// CreateOrderInput 创建订单输入
type CreateOrderInput struct {
	UserID          *uint
	CustomerName    string
	CustomerPhone   string
	CustomerAddress string
	OrderType       string
	PaymentMethod   string
	BranchCode      string
	Destination     *geo.Point
	Items           []cart.LineItem
	ClientIP        string
}

// DeliveryPricing 订单的配送计价结果
type DeliveryPricing struct {
	Branch   Branch    `json:"branch"`
	Quote    geo.Quote `json:"quote"`
	Currency string    `json:"currency"`
}

func (in *CreateOrderInput) normalize() {
	in.CustomerName = strings.TrimSpace(in.CustomerName)
	in.CustomerPhone = strings.TrimSpace(in.CustomerPhone)
	in.CustomerAddress = strings.TrimSpace(in.CustomerAddress)
	in.OrderType = strings.ToLower(strings.TrimSpace(in.OrderType))
	in.PaymentMethod = strings.ToLower(strings.TrimSpace(in.PaymentMethod))
	in.BranchCode = strings.TrimSpace(in.BranchCode)
	in.ClientIP = strings.TrimSpace(in.ClientIP)
}

func (in *CreateOrderInput) validate() error {
	if in.CustomerName == "" {
		return ErrCustomerNameRequired
	}
	if in.CustomerPhone == "" {
		return ErrCustomerPhoneRequired
	}
	switch in.OrderType {
	case constants.OrderTypePickup:
	case constants.OrderTypeDelivery:
		if in.CustomerAddress == "" {
			return ErrCustomerAddressRequired
		}
	default:
		return ErrOrderTypeInvalid
	}
	switch in.PaymentMethod {
	case constants.PaymentMethodAssisted, constants.PaymentMethodGateway:
	default:
		return ErrPaymentMethodInvalid
	}
	if len(in.Items) == 0 {
		return ErrCartEmpty
	}
	for _, item := range in.Items {
		if item.ProductID == 0 || item.Quantity < 1 || item.UnitPrice.IsNegative() {
			return ErrCartItemInvalid
		}
	}
	return nil
}

// Create 校验并创建订单（单事务写入订单与订单项）
func (s *OrderService) Create(ctx context.Context, input CreateOrderInput) (*models.Order, error) {
	input.normalize()
	if err := input.validate(); err != nil {
		return nil, err
	}
	cfg, err := s.storeConfig.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOrderCreateFailed, err)
	}
	now := s.now().UTC()
	if status := cfg.Window().Status(now); !status.Open {
		return nil, &WindowClosedError{Status: status}
	}
	pricing, err := priceDelivery(cfg, input.OrderType, input.BranchCode, input.Destination)
	if err != nil {
		return nil, err
	}

	order, items := buildOrder(input, cfg, pricing, now)
	if order.PaymentMethod == constants.PaymentMethodGateway && !gatewayAmountsWhole(items, order.ShippingFee.Decimal) {
		return nil, ErrGatewayAmountNotWhole
	}
	err = models.DB.Transaction(func(tx *gorm.DB) error {
		return s.orderRepo.WithTx(tx).Create(order, items)
	})
	if err != nil {
		logger.Warnw("order_create_failed", "order_no", order.OrderNo, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrOrderCreateFailed, err)
	}
	order.Items = items
	logger.Infow("order_created",
		"order_no", order.OrderNo,
		"order_type", order.OrderType,
		"payment_method", order.PaymentMethod,
		"total_price", order.TotalPrice.String(),
	)
	return order, nil
}

// QuoteDelivery 配送报价（结账前预览，计价逻辑与下单一致）
func (s *OrderService) QuoteDelivery(ctx context.Context, branchCode string, destination *geo.Point) (*DeliveryPricing, error) {
	cfg, err := s.storeConfig.Get(ctx)
	if err != nil {
		return nil, err
	}
	return priceDelivery(cfg, constants.OrderTypeDelivery, branchCode, destination)
}

func priceDelivery(cfg *StoreConfig, orderType, branchCode string, destination *geo.Point) (*DeliveryPricing, error) {
	var dest geo.Point
	if destination != nil {
		dest = *destination
	}
	branch, err := cfg.ResolveBranch(branchCode, dest)
	if err != nil {
		return nil, err
	}
	pricing := &DeliveryPricing{Branch: branch, Currency: cfg.Currency}
	if orderType != constants.OrderTypeDelivery {
		pricing.Quote = geo.Quote{Origin: branch.Point(), Fee: decimal.Zero}
		return pricing, nil
	}
	// 门店有坐标时必须提供地图确认的配送点
	if !branch.Point().IsZero() && dest.IsZero() {
		return nil, ErrDeliveryLocationRequired
	}
	pricing.Quote = geo.QuoteDelivery(branch.Point(), dest, cfg.RateTable())
	return pricing, nil
}

func buildOrder(input CreateOrderInput, cfg *StoreConfig, pricing *DeliveryPricing, now time.Time) (*models.Order, []models.OrderItem) {
	items := make([]models.OrderItem, 0, len(input.Items))
	subtotal := decimal.Zero
	for _, line := range input.Items {
		lineTotal := line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity)))
		subtotal = subtotal.Add(lineTotal)
		items = append(items, models.OrderItem{
			ProductID: line.ProductID,
			Title:     strings.TrimSpace(line.Title),
			UnitPrice: models.NewMoneyFromDecimal(line.UnitPrice),
			Quantity:  line.Quantity,
			Note:      strings.TrimSpace(line.Note),
			LineTotal: models.NewMoneyFromDecimal(lineTotal),
			CreatedAt: now,
		})
	}
	fee := pricing.Quote.Fee
	address := input.CustomerAddress
	if input.OrderType == constants.OrderTypePickup {
		fee = decimal.Zero
		if address == "" {
			address = composePickupAddress(pricing.Branch, cfg.Name)
		}
	}
	order := &models.Order{
		OrderNo:         uuid.NewString(),
		UserID:          input.UserID,
		CustomerName:    input.CustomerName,
		CustomerPhone:   input.CustomerPhone,
		CustomerAddress: address,
		BranchCode:      pricing.Branch.Code,
		OrderType:       input.OrderType,
		PaymentMethod:   input.PaymentMethod,
		Status:          constants.OrderStatusPending,
		Currency:        cfg.Currency,
		Subtotal:        models.NewMoneyFromDecimal(subtotal),
		ShippingFee:     models.NewMoneyFromDecimal(fee),
		TotalPrice:      models.NewMoneyFromDecimal(subtotal.Add(fee)),
		DistanceKm:      pricing.Quote.DistanceKm,
		QuoteDegraded:   pricing.Quote.Degraded,
		ClientIP:        input.ClientIP,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if input.OrderType == constants.OrderTypeDelivery && input.Destination != nil && !input.Destination.IsZero() {
		lat, lng := input.Destination.Lat, input.Destination.Lng
		order.DeliveryLat = &lat
		order.DeliveryLng = &lng
	}
	return order, items
}

func composePickupAddress(branch Branch, storeName string) string {
	name := strings.TrimSpace(branch.Name)
	if name == "" {
		name = strings.TrimSpace(storeName)
	}
	if name == "" {
		return "Pickup"
	}
	return "Pickup @ " + name
}

// UpdateStatus 员工变更订单状态
func (s *OrderService) UpdateStatus(ctx context.Context, orderID uint, target string, actor Actor) (*models.Order, error) {
	target = normalizeOrderStatus(target)
	if !IsKnownOrderStatus(target) {
		return nil, ErrOrderStatusInvalid
	}
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOrderFetchFailed, err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return s.transition(ctx, order, target, actor)
}

// MarkPaid 网关确认支付成功；已支付时幂等返回 applied=false
func (s *OrderService) MarkPaid(ctx context.Context, orderNo string, actor Actor) (*models.Order, bool, error) {
	order, err := s.GetByOrderNo(ctx, orderNo)
	if err != nil {
		return nil, false, err
	}
	if order.Status == constants.OrderStatusPaid {
		return order, false, nil
	}
	if order.Status != constants.OrderStatusPending {
		return order, false, ErrOrderNotPending
	}
	updated, err := s.transition(ctx, order, constants.OrderStatusPaid, actor)
	if errors.Is(err, ErrOrderStatusConflict) {
		current, fetchErr := s.GetByOrderNo(ctx, orderNo)
		if fetchErr == nil && current.Status == constants.OrderStatusPaid {
			return current, false, nil
		}
	}
	if err != nil {
		return nil, false, err
	}
	return updated, true, nil
}

func (s *OrderService) transition(ctx context.Context, order *models.Order, target string, actor Actor) (*models.Order, error) {
	from := order.Status
	if !isTransitionAllowed(from, target) {
		return nil, ErrOrderStatusInvalid
	}
	updates := statusTransitionUpdates(target, s.now().UTC())
	applied, err := s.orderRepo.UpdateStatus(order.ID, from, target, updates)
	if err != nil {
		logger.Warnw("order_status_update_failed", "order_no", order.OrderNo, "from", from, "to", target, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrOrderUpdateFailed, err)
	}
	if !applied {
		return nil, ErrOrderStatusConflict
	}
	updated, err := s.orderRepo.GetByID(order.ID)
	if err != nil || updated == nil {
		return nil, fmt.Errorf("%w: %v", ErrOrderFetchFailed, err)
	}
	logger.Infow("order_status_changed", "order_no", updated.OrderNo, "from", from, "to", target, "actor", actor.Name)
	s.Publish(realtime.EventOrderUpdated, updated, false)
	s.audit.Record(ctx, AuditInput{
		Actor:     actor.Name,
		Action:    constants.AuditActionOrderStatusChange,
		OrderNo:   updated.OrderNo,
		Detail:    map[string]interface{}{"from": from, "to": target},
		ClientIP:  actor.ClientIP,
		RequestID: actor.RequestID,
	})
	return updated, nil
}

// Publish 推送订单当前完整状态
func (s *OrderService) Publish(eventType string, order *models.Order, attention bool) {
	if s == nil || s.publisher == nil || order == nil {
		return
	}
	payload, err := json.Marshal(order)
	if err != nil {
		logger.Warnw("order_event_encode_failed", "order_no", order.OrderNo, "error", err)
		return
	}
	s.publisher.Publish(realtime.Event{
		Type:       eventType,
		OrderNo:    order.OrderNo,
		Status:     order.Status,
		Attention:  attention,
		Payload:    payload,
		OccurredAt: s.now().UTC(),
	})
}

// GetByOrderNo 按订单号获取订单
func (s *OrderService) GetByOrderNo(ctx context.Context, orderNo string) (*models.Order, error) {
	_ = ctx
	orderNo = strings.TrimSpace(orderNo)
	if orderNo == "" {
		return nil, ErrOrderNotFound
	}
	order, err := s.orderRepo.GetByOrderNo(orderNo)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOrderFetchFailed, err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// Watch 先订阅再读取订单快照，读取期间的变更会出现在订阅事件里
func (s *OrderService) Watch(ctx context.Context, subscriber realtime.Subscriber, orderNo string) (*models.Order, *realtime.Subscription, error) {
	orderNo = strings.TrimSpace(orderNo)
	if orderNo == "" {
		return nil, nil, ErrOrderNotFound
	}
	sub, err := subscriber.Subscribe(realtime.ForOrder(orderNo))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrRealtimeUnavailable, err)
	}
	order, err := s.GetByOrderNo(ctx, orderNo)
	if err != nil {
		sub.Close()
		return nil, nil, err
	}
	return order, sub, nil
}

// GetForAdmin 管理端获取订单详情
func (s *OrderService) GetForAdmin(ctx context.Context, orderID uint) (*models.Order, error) {
	_ = ctx
	if orderID == 0 {
		return nil, ErrOrderNotFound
	}
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOrderFetchFailed, err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// ListForAdmin 管理端订单列表
func (s *OrderService) ListForAdmin(ctx context.Context, filter repository.OrderListFilter) ([]models.Order, int64, error) {
	_ = ctx
	filter.Status = normalizeOrderStatus(filter.Status)
	orders, total, err := s.orderRepo.ListAdmin(filter)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrOrderFetchFailed, err)
	}
	return orders, total, nil
}
