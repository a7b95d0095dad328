package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/kedai-next/internal/config"
	"github.com/kedai-next/internal/constants"
	"github.com/kedai-next/internal/logger"
	"github.com/kedai-next/internal/models"
	"github.com/kedai-next/internal/payment/snap"
	"github.com/kedai-next/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker/v2"
)

const maxGatewayItemNameLength = 50

// PaymentOutcome 网关支付结果，只有三种取值
type PaymentOutcome string

const (
	PaymentOutcomeSuccess PaymentOutcome = PaymentOutcome(snap.OutcomeSuccess)
	PaymentOutcomePending PaymentOutcome = PaymentOutcome(snap.OutcomePending)
	PaymentOutcomeFailed  PaymentOutcome = PaymentOutcome(snap.OutcomeFailed)
)

// ParsePaymentOutcome 解析客户端回报的结果
func ParsePaymentOutcome(raw string) (PaymentOutcome, bool) {
	switch PaymentOutcome(strings.ToLower(strings.TrimSpace(raw))) {
	case PaymentOutcomeSuccess:
		return PaymentOutcomeSuccess, true
	case PaymentOutcomePending:
		return PaymentOutcomePending, true
	case PaymentOutcomeFailed:
		return PaymentOutcomeFailed, true
	}
	return "", false
}

// PaymentSession 网关支付会话
type PaymentSession struct {
	OrderNo     string `json:"order_no"`
	Token       string `json:"token"`
	RedirectURL string `json:"redirect_url"`
	ClientKey   string `json:"client_key"`
	Reused      bool   `json:"reused"`
}

// PaymentResult 支付结果处理返回
type PaymentResult struct {
	Order   *models.Order  `json:"order"`
	Outcome PaymentOutcome `json:"outcome"`
	Applied bool           `json:"applied"`
}

// GatewayPublicConfig 前端所需的网关配置
type GatewayPublicConfig struct {
	Enabled   bool   `json:"enabled"`
	ClientKey string `json:"client_key,omitempty"`
	ScriptURL string `json:"script_url,omitempty"`
}

type createTransactionFunc func(ctx context.Context, cfg *snap.Config, input snap.CreateInput) (*snap.CreateResult, error)
type queryStatusFunc func(ctx context.Context, cfg *snap.Config, orderNo string) (*snap.StatusResult, error)

// PaymentService 支付服务
type PaymentService struct {
	orderService   *OrderService
	orderRepo      repository.OrderRepository
	storeConfig    *StoreConfigService
	audit          *AuditService
	snapCfg        *snap.Config
	breaker        *gobreaker.CircuitBreaker[any]
	createFn       createTransactionFunc
	queryFn        queryStatusFunc
	reconcileAfter time.Duration
	reconcileBatch int
	now            func() time.Time
}

// NewPaymentService 创建支付服务
func NewPaymentService(cfg config.PaymentConfig, orderService *OrderService, orderRepo repository.OrderRepository, storeConfig *StoreConfigService, audit *AuditService) *PaymentService {
	svc := &PaymentService{
		orderService:   orderService,
		orderRepo:      orderRepo,
		storeConfig:    storeConfig,
		audit:          audit,
		breaker:        newGatewayBreaker(cfg.Breaker),
		createFn:       snap.CreateTransaction,
		queryFn:        snap.QueryStatus,
		reconcileAfter: time.Duration(cfg.Reconcile.AfterMinutes) * time.Minute,
		reconcileBatch: cfg.Reconcile.BatchSize,
		now:            time.Now,
	}
	if svc.reconcileAfter <= 0 {
		svc.reconcileAfter = 10 * time.Minute
	}
	if cfg.Snap.Enabled {
		snapCfg, err := snap.ParseConfig(cfg.Snap.ToMap())
		if err == nil {
			err = snap.ValidateConfig(snapCfg)
		}
		if err != nil {
			logger.Warnw("payment_snap_config_invalid", "error", err)
		} else {
			svc.snapCfg = snapCfg
		}
	}
	return svc
}

func newGatewayBreaker(cfg config.BreakerConfig) *gobreaker.CircuitBreaker[any] {
	failures := cfg.ConsecutiveFailures
	if failures == 0 {
		failures = 5
	}
	return gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        "snap",
		MaxRequests: cfg.MaxRequests,
		Interval:    time.Duration(cfg.IntervalSeconds) * time.Second,
		Timeout:     time.Duration(cfg.TimeoutSeconds) * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		IsSuccessful: func(err error) bool {
			// 请求参数问题不计入网关故障
			return err == nil || errors.Is(err, snap.ErrConfigInvalid)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warnw("payment_breaker_state_changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
}

func callGateway[T any](cb *gobreaker.CircuitBreaker[any], fn func() (T, error)) (T, error) {
	var zero T
	out, err := cb.Execute(func() (any, error) {
		return fn()
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return zero, fmt.Errorf("%w: %v", ErrPaymentUnavailable, err)
		}
		return zero, fmt.Errorf("%w: %v", ErrPaymentRequestFailed, err)
	}
	result, ok := out.(T)
	if !ok {
		return zero, ErrPaymentRequestFailed
	}
	return result, nil
}

// Available 网关是否可用
func (s *PaymentService) Available() bool {
	return s != nil && s.snapCfg != nil
}

// PublicConfig 前端网关配置
func (s *PaymentService) PublicConfig() GatewayPublicConfig {
	if !s.Available() {
		return GatewayPublicConfig{}
	}
	return GatewayPublicConfig{
		Enabled:   true,
		ClientKey: s.snapCfg.ClientKey,
		ScriptURL: strings.TrimRight(s.snapCfg.SnapURL, "/") + "/snap.js",
	}
}

// CreateSession 为待支付的网关订单创建支付会话；订单已有会话时直接复用
func (s *PaymentService) CreateSession(ctx context.Context, orderNo string, actor Actor) (*PaymentSession, error) {
	order, err := s.orderService.GetByOrderNo(ctx, orderNo)
	if err != nil {
		return nil, err
	}
	if order.PaymentMethod != constants.PaymentMethodGateway {
		return nil, ErrOrderNotGateway
	}
	if order.Status != constants.OrderStatusPending {
		return nil, ErrOrderNotPending
	}
	if !s.Available() {
		return nil, ErrPaymentUnavailable
	}
	if strings.TrimSpace(order.PaymentToken) != "" {
		return &PaymentSession{
			OrderNo:     order.OrderNo,
			Token:       order.PaymentToken,
			RedirectURL: order.PaymentRedirectURL,
			ClientKey:   s.snapCfg.ClientKey,
			Reused:      true,
		}, nil
	}
	// 调用网关前重新检查营业时间
	status, err := s.storeConfig.GateStatus(ctx, s.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOrderFetchFailed, err)
	}
	if !status.Open {
		return nil, &WindowClosedError{Status: status}
	}

	if !gatewayAmountsWhole(order.Items, order.ShippingFee.Decimal) {
		return nil, ErrGatewayAmountNotWhole
	}
	input := buildSnapInput(order)
	result, err := callGateway(s.breaker, func() (*snap.CreateResult, error) {
		return s.createFn(ctx, s.snapCfg, input)
	})
	if err != nil {
		logger.Warnw("payment_session_create_failed", "order_no", order.OrderNo, "error", err)
		return nil, err
	}
	if err := s.orderRepo.SetPaymentSession(order.ID, result.Token, result.RedirectURL); err != nil {
		logger.Errorw("payment_session_save_failed", "order_no", order.OrderNo, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrOrderUpdateFailed, err)
	}
	s.audit.Record(ctx, AuditInput{
		Actor:     actor.Name,
		Action:    constants.AuditActionPaymentSessionCreate,
		OrderNo:   order.OrderNo,
		Detail:    map[string]interface{}{"gross_amount": order.TotalPrice.String()},
		ClientIP:  actor.ClientIP,
		RequestID: actor.RequestID,
	})
	return &PaymentSession{
		OrderNo:     order.OrderNo,
		Token:       result.Token,
		RedirectURL: result.RedirectURL,
		ClientKey:   s.snapCfg.ClientKey,
	}, nil
}

// gatewayAmountsWhole 网关只接受整数金额，行项目合计须与订单总额逐项一致
func gatewayAmountsWhole(items []models.OrderItem, shippingFee decimal.Decimal) bool {
	if !shippingFee.IsInteger() {
		return false
	}
	for _, item := range items {
		if !item.UnitPrice.Decimal.IsInteger() {
			return false
		}
	}
	return true
}

func buildSnapInput(order *models.Order) snap.CreateInput {
	items := make([]snap.Item, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, snap.Item{
			ID:       "p" + strconv.FormatUint(uint64(item.ProductID), 10),
			Name:     truncateRunes(item.Title, maxGatewayItemNameLength),
			Price:    item.UnitPrice.Decimal.IntPart(),
			Quantity: item.Quantity,
		})
	}
	return snap.CreateInput{
		OrderNo:     order.OrderNo,
		GrossAmount: order.TotalPrice.Decimal,
		Items:       items,
		ShippingFee: order.ShippingFee.Decimal,
		Customer: snap.Customer{
			FirstName: order.CustomerName,
			Phone:     order.CustomerPhone,
		},
	}
}

func truncateRunes(value string, limit int) string {
	value = strings.TrimSpace(value)
	if utf8.RuneCountInString(value) <= limit {
		return value
	}
	return string([]rune(value)[:limit])
}

// ApplyOutcome 应用网关结果：仅 Success 推进为已支付
func (s *PaymentService) ApplyOutcome(ctx context.Context, orderNo string, outcome PaymentOutcome, actor Actor) (*PaymentResult, error) {
	var (
		order   *models.Order
		applied bool
		err     error
	)
	switch outcome {
	case PaymentOutcomeSuccess:
		order, applied, err = s.orderService.MarkPaid(ctx, orderNo, actor)
		if errors.Is(err, ErrOrderNotPending) {
			// 已取消的订单收到成功结果，保留现状交由员工处理
			logger.Warnw("payment_success_on_closed_order", "order_no", orderNo, "status", order.Status)
			err = nil
		}
	case PaymentOutcomePending, PaymentOutcomeFailed:
		order, err = s.orderService.GetByOrderNo(ctx, orderNo)
	default:
		return nil, fmt.Errorf("unknown payment outcome %q", outcome)
	}
	if err != nil {
		return nil, err
	}
	s.audit.Record(ctx, AuditInput{
		Actor:     actor.Name,
		Action:    constants.AuditActionPaymentOutcome,
		OrderNo:   order.OrderNo,
		Detail:    map[string]interface{}{"outcome": string(outcome), "applied": applied, "status": order.Status},
		ClientIP:  actor.ClientIP,
		RequestID: actor.RequestID,
	})
	return &PaymentResult{Order: order, Outcome: outcome, Applied: applied}, nil
}

// HandleNotification 处理网关异步通知
func (s *PaymentService) HandleNotification(ctx context.Context, body []byte, actor Actor) (*PaymentResult, error) {
	if !s.Available() {
		return nil, ErrPaymentUnavailable
	}
	result, err := snap.VerifyAndParseNotification(s.snapCfg, body)
	if err != nil {
		if errors.Is(err, snap.ErrSignatureInvalid) {
			return nil, fmt.Errorf("%w: %v", ErrPaymentSignatureInvalid, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrPaymentRequestFailed, err)
	}
	order, err := s.orderService.GetByOrderNo(ctx, result.OrderNo)
	if err != nil {
		return nil, err
	}
	outcome := PaymentOutcome(result.Outcome)
	if outcome == PaymentOutcomeSuccess && !snap.AmountMatches(result.GrossAmount, order.TotalPrice.Decimal) {
		logger.Warnw("payment_notify_amount_mismatch",
			"order_no", order.OrderNo,
			"gross_amount", result.GrossAmount,
			"total_price", order.TotalPrice.String(),
		)
		return nil, ErrPaymentAmountMismatch
	}
	logger.Infow("payment_notify_received",
		"order_no", order.OrderNo,
		"transaction_status", result.TransactionStatus,
		"outcome", result.Outcome,
	)
	return s.ApplyOutcome(ctx, order.OrderNo, outcome, actor)
}

// ConfirmClientResult 处理客户端回报；成功结果需向网关查询确认后才生效
func (s *PaymentService) ConfirmClientResult(ctx context.Context, orderNo string, reported PaymentOutcome, actor Actor) (*PaymentResult, error) {
	order, err := s.orderService.GetByOrderNo(ctx, orderNo)
	if err != nil {
		return nil, err
	}
	if order.PaymentMethod != constants.PaymentMethodGateway {
		return nil, ErrOrderNotGateway
	}
	switch reported {
	case PaymentOutcomeSuccess:
		verified, err := s.verifyWithGateway(ctx, order)
		if err != nil {
			logger.Warnw("payment_client_result_unverified", "order_no", order.OrderNo, "error", err)
			return &PaymentResult{Order: order, Outcome: PaymentOutcomePending}, nil
		}
		return s.ApplyOutcome(ctx, order.OrderNo, verified, actor)
	case PaymentOutcomePending, PaymentOutcomeFailed:
		return s.ApplyOutcome(ctx, order.OrderNo, reported, actor)
	default:
		return nil, fmt.Errorf("unknown payment outcome %q", reported)
	}
}

func (s *PaymentService) verifyWithGateway(ctx context.Context, order *models.Order) (PaymentOutcome, error) {
	if !s.Available() {
		return "", ErrPaymentUnavailable
	}
	status, err := callGateway(s.breaker, func() (*snap.StatusResult, error) {
		return s.queryFn(ctx, s.snapCfg, order.OrderNo)
	})
	if err != nil {
		return "", err
	}
	outcome := PaymentOutcome(status.Outcome)
	if outcome == PaymentOutcomeSuccess && !snap.AmountMatches(status.GrossAmount, order.TotalPrice.Decimal) {
		return "", ErrPaymentAmountMismatch
	}
	return outcome, nil
}

// ReconcilePending 对账：查询超时未决的网关订单，只应用成功结果
func (s *PaymentService) ReconcilePending(ctx context.Context) (int, error) {
	if !s.Available() {
		return 0, nil
	}
	cutoff := s.now().Add(-s.reconcileAfter)
	orders, err := s.orderRepo.ListPendingGateway(cutoff, s.reconcileBatch)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrOrderFetchFailed, err)
	}
	actor := Actor{Name: constants.AuditActorSystem}
	applied := 0
	for i := range orders {
		if ctx.Err() != nil {
			return applied, ctx.Err()
		}
		order := &orders[i]
		outcome, err := s.verifyWithGateway(ctx, order)
		if err != nil {
			if errors.Is(err, ErrPaymentUnavailable) {
				return applied, err
			}
			logger.Warnw("payment_reconcile_query_failed", "order_no", order.OrderNo, "error", err)
			continue
		}
		if outcome != PaymentOutcomeSuccess {
			continue
		}
		result, err := s.ApplyOutcome(ctx, order.OrderNo, outcome, actor)
		if err != nil {
			logger.Warnw("payment_reconcile_apply_failed", "order_no", order.OrderNo, "error", err)
			continue
		}
		if result.Applied {
			applied++
		}
	}
	return applied, nil
}
