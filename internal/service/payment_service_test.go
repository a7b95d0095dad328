package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/kedai-next/internal/constants"
	"github.com/kedai-next/internal/models"
	"github.com/kedai-next/internal/payment/snap"
)

func createGatewayOrder(t *testing.T, f *serviceFixture, session string) *models.Order {
	t.Helper()
	f.fillCart(t, session)
	result, err := f.checkout.Checkout(context.Background(), deliveryCheckoutInput(session, constants.PaymentMethodGateway, offsetNorth(4.2)))
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	return result.Order
}

func TestApplyOutcome(t *testing.T) {
	cases := []struct {
		outcome PaymentOutcome
		status  string
		applied bool
	}{
		{PaymentOutcomePending, constants.OrderStatusPending, false},
		{PaymentOutcomeFailed, constants.OrderStatusPending, false},
		{PaymentOutcomeSuccess, constants.OrderStatusPaid, true},
	}
	for _, tc := range cases {
		t.Run(string(tc.outcome), func(t *testing.T) {
			f := setupServiceFixture(t)
			order := createGatewayOrder(t, f, "session-outcome-"+string(tc.outcome))
			result, err := f.payments.ApplyOutcome(context.Background(), order.OrderNo, tc.outcome, Actor{Name: constants.AuditActorCustomer})
			if err != nil {
				t.Fatalf("apply outcome failed: %v", err)
			}
			if result.Order.Status != tc.status || result.Applied != tc.applied {
				t.Fatalf("expected %s applied=%v, got %s applied=%v", tc.status, tc.applied, result.Order.Status, result.Applied)
			}
		})
	}
}

func TestApplyOutcomeUnknown(t *testing.T) {
	f := setupServiceFixture(t)
	order := createGatewayOrder(t, f, "session-outcome-unknown")
	if _, err := f.payments.ApplyOutcome(context.Background(), order.OrderNo, PaymentOutcome("refund"), Actor{}); err == nil {
		t.Fatalf("expected error for unknown outcome")
	}
}

func TestParsePaymentOutcome(t *testing.T) {
	if outcome, ok := ParsePaymentOutcome(" SUCCESS "); !ok || outcome != PaymentOutcomeSuccess {
		t.Fatalf("expected success, got %s %v", outcome, ok)
	}
	if _, ok := ParsePaymentOutcome("closed"); ok {
		t.Fatalf("expected closed to be rejected")
	}
}

func TestConfirmClientResultVerifiesSuccess(t *testing.T) {
	f := setupServiceFixture(t)
	ctx := context.Background()
	order := createGatewayOrder(t, f, "session-confirm")

	// 网关仍显示 pending，客户端报告的成功不生效
	result, err := f.payments.ConfirmClientResult(ctx, order.OrderNo, PaymentOutcomeSuccess, Actor{Name: "customer"})
	if err != nil {
		t.Fatalf("confirm failed: %v", err)
	}
	if result.Order.Status != constants.OrderStatusPending || result.Outcome != PaymentOutcomePending {
		t.Fatalf("expected unverified success to stay pending, got %s/%s", result.Order.Status, result.Outcome)
	}

	f.payments.queryFn = func(_ context.Context, _ *snap.Config, orderNo string) (*snap.StatusResult, error) {
		return &snap.StatusResult{OrderNo: orderNo, TransactionStatus: "settlement", GrossAmount: "43000.00", Outcome: snap.OutcomeSuccess}, nil
	}
	result, err = f.payments.ConfirmClientResult(ctx, order.OrderNo, PaymentOutcomeSuccess, Actor{Name: "customer"})
	if err != nil {
		t.Fatalf("confirm failed: %v", err)
	}
	if result.Order.Status != constants.OrderStatusPaid || !result.Applied {
		t.Fatalf("expected paid after verification, got %s", result.Order.Status)
	}

	// 重复回报幂等
	result, err = f.payments.ConfirmClientResult(ctx, order.OrderNo, PaymentOutcomeSuccess, Actor{Name: "customer"})
	if err != nil || result.Applied {
		t.Fatalf("expected idempotent replay, got applied=%v err=%v", result != nil && result.Applied, err)
	}
}

func TestConfirmClientResultRejectsAssistedOrder(t *testing.T) {
	f := setupServiceFixture(t)
	f.fillCart(t, "session-assist-confirm")
	result, err := f.checkout.Checkout(context.Background(), deliveryCheckoutInput("session-assist-confirm", constants.PaymentMethodAssisted, offsetNorth(1)))
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	if _, err := f.payments.ConfirmClientResult(context.Background(), result.Order.OrderNo, PaymentOutcomeSuccess, Actor{}); !errors.Is(err, ErrOrderNotGateway) {
		t.Fatalf("expected not gateway error, got %v", err)
	}
	if _, err := f.payments.CreateSession(context.Background(), result.Order.OrderNo, Actor{}); !errors.Is(err, ErrOrderNotGateway) {
		t.Fatalf("expected not gateway error, got %v", err)
	}
}

func notificationBody(t *testing.T, orderNo, status, gross, serverKey string) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]string{
		"order_id":           orderNo,
		"transaction_id":     "trx-1",
		"transaction_status": status,
		"status_code":        "200",
		"gross_amount":       gross,
		"payment_type":       "qris",
		"signature_key":      snap.Signature(orderNo, "200", gross, serverKey),
	})
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	return body
}

func TestHandleNotification(t *testing.T) {
	f := setupServiceFixture(t)
	ctx := context.Background()
	order := createGatewayOrder(t, f, "session-notify")
	actor := Actor{Name: constants.AuditActorGateway}

	if _, err := f.payments.HandleNotification(ctx, notificationBody(t, order.OrderNo, "settlement", "43000.00", "wrong-key"), actor); !errors.Is(err, ErrPaymentSignatureInvalid) {
		t.Fatalf("expected signature error, got %v", err)
	}
	if _, err := f.payments.HandleNotification(ctx, notificationBody(t, order.OrderNo, "settlement", "1000.00", testServerKey), actor); !errors.Is(err, ErrPaymentAmountMismatch) {
		t.Fatalf("expected amount mismatch, got %v", err)
	}
	result, err := f.payments.HandleNotification(ctx, notificationBody(t, order.OrderNo, "expire", "43000.00", testServerKey), actor)
	if err != nil {
		t.Fatalf("notify failed: %v", err)
	}
	if result.Order.Status != constants.OrderStatusPending {
		t.Fatalf("failed outcome must not cancel the order, got %s", result.Order.Status)
	}
	result, err = f.payments.HandleNotification(ctx, notificationBody(t, order.OrderNo, "settlement", "43000.00", testServerKey), actor)
	if err != nil {
		t.Fatalf("notify failed: %v", err)
	}
	if result.Order.Status != constants.OrderStatusPaid {
		t.Fatalf("expected paid, got %s", result.Order.Status)
	}
}

func TestCreateSessionRechecksWindow(t *testing.T) {
	f := setupServiceFixture(t)
	f.payments.createFn = func(_ context.Context, _ *snap.Config, _ snap.CreateInput) (*snap.CreateResult, error) {
		return nil, snap.ErrRequestFailed
	}
	order := createGatewayOrder(t, f, "session-recheck")
	f.clock.now = time.Date(2026, 3, 2, 13, 30, 0, 0, time.UTC)

	called := false
	f.payments.createFn = func(_ context.Context, _ *snap.Config, _ snap.CreateInput) (*snap.CreateResult, error) {
		called = true
		return &snap.CreateResult{Token: "late", RedirectURL: "https://pay.example/late"}, nil
	}
	if _, err := f.payments.CreateSession(context.Background(), order.OrderNo, Actor{}); !errors.Is(err, ErrOrderingWindowClosed) {
		t.Fatalf("expected window closed, got %v", err)
	}
	if called {
		t.Fatalf("gateway must not be called outside the ordering window")
	}
}

func TestCreateSessionReusesExistingToken(t *testing.T) {
	f := setupServiceFixture(t)
	order := createGatewayOrder(t, f, "session-reuse")
	session, err := f.payments.CreateSession(context.Background(), order.OrderNo, Actor{})
	if err != nil {
		t.Fatalf("create session failed: %v", err)
	}
	if !session.Reused || session.Token != "tok-"+order.OrderNo {
		t.Fatalf("expected reused session, got %+v", session)
	}
}

func TestGatewayBreakerOpens(t *testing.T) {
	f := setupServiceFixture(t)
	calls := 0
	f.payments.createFn = func(_ context.Context, _ *snap.Config, _ snap.CreateInput) (*snap.CreateResult, error) {
		calls++
		return nil, snap.ErrRequestFailed
	}
	order := createGatewayOrder(t, f, "session-breaker")
	for i := 0; i < 6; i++ {
		_, _ = f.payments.CreateSession(context.Background(), order.OrderNo, Actor{})
	}
	_, err := f.payments.CreateSession(context.Background(), order.OrderNo, Actor{})
	if !errors.Is(err, ErrPaymentUnavailable) {
		t.Fatalf("expected breaker open, got %v", err)
	}
	if calls != 5 {
		t.Fatalf("expected 5 gateway calls before opening, got %d", calls)
	}
}

func TestReconcilePendingAppliesSuccessOnly(t *testing.T) {
	f := setupServiceFixture(t)
	ctx := context.Background()
	paid := createGatewayOrder(t, f, "session-reconcile-a")
	waiting := createGatewayOrder(t, f, "session-reconcile-b")

	f.payments.queryFn = func(_ context.Context, _ *snap.Config, orderNo string) (*snap.StatusResult, error) {
		if orderNo == paid.OrderNo {
			return &snap.StatusResult{OrderNo: orderNo, GrossAmount: "43000.00", Outcome: snap.OutcomeSuccess}, nil
		}
		return &snap.StatusResult{OrderNo: orderNo, Outcome: snap.OutcomeFailed}, nil
	}

	applied, err := f.payments.ReconcilePending(ctx)
	if err != nil || applied != 0 {
		t.Fatalf("fresh orders must not be reconciled yet, applied=%d err=%v", applied, err)
	}

	f.payments.now = func() time.Time { return testOpenTime.Add(15 * time.Minute) }
	applied, err = f.payments.ReconcilePending(ctx)
	if err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}
	if applied != 1 {
		t.Fatalf("expected 1 applied, got %d", applied)
	}
	got, _ := f.orders.GetByOrderNo(ctx, paid.OrderNo)
	if got.Status != constants.OrderStatusPaid {
		t.Fatalf("expected paid, got %s", got.Status)
	}
	got, _ = f.orders.GetByOrderNo(ctx, waiting.OrderNo)
	if got.Status != constants.OrderStatusPending {
		t.Fatalf("failed outcome must leave order pending, got %s", got.Status)
	}
}

func TestCheckoutGatewayRejectsFractionalPrice(t *testing.T) {
	f := setupServiceFixture(t)
	ctx := context.Background()
	product := &models.Product{
		Slug:        "es-campur",
		Title:       "Es Campur",
		PriceAmount: models.NewMoneyFromDecimal(mustDecimal(t, "15000.50")),
		IsActive:    true,
	}
	if err := f.db.Create(product).Error; err != nil {
		t.Fatalf("seed product failed: %v", err)
	}
	session := "session-fractional"
	if _, err := f.carts.AddItem(ctx, session, AddCartItemInput{ProductID: product.ID, Quantity: 2}); err != nil {
		t.Fatalf("add item failed: %v", err)
	}
	called := false
	f.payments.createFn = func(_ context.Context, _ *snap.Config, input snap.CreateInput) (*snap.CreateResult, error) {
		called = true
		return &snap.CreateResult{Token: "tok"}, nil
	}

	_, err := f.checkout.Checkout(ctx, deliveryCheckoutInput(session, constants.PaymentMethodGateway, offsetNorth(1)))
	if !errors.Is(err, ErrGatewayAmountNotWhole) {
		t.Fatalf("expected ErrGatewayAmountNotWhole, got %v", err)
	}
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if called {
		t.Fatalf("gateway must not be called")
	}
	if n := f.countOrders(t); n != 0 {
		t.Fatalf("expected no order, got %d", n)
	}
	c, err := f.carts.Get(ctx, session)
	if err != nil {
		t.Fatalf("get cart failed: %v", err)
	}
	if c.IsEmpty() {
		t.Fatalf("cart must be kept after rejected checkout")
	}

	result, err := f.checkout.Checkout(ctx, deliveryCheckoutInput(session, constants.PaymentMethodAssisted, offsetNorth(1)))
	if err != nil {
		t.Fatalf("assisted checkout failed: %v", err)
	}
	if result.Order.Subtotal.String() != "30001.00" {
		t.Fatalf("expected subtotal 30001.00, got %s", result.Order.Subtotal.String())
	}
}

func TestCreateSessionItemsSumToGross(t *testing.T) {
	f := setupServiceFixture(t)
	var captured snap.CreateInput
	f.payments.createFn = func(_ context.Context, _ *snap.Config, input snap.CreateInput) (*snap.CreateResult, error) {
		captured = input
		return &snap.CreateResult{Token: "tok-" + input.OrderNo}, nil
	}
	if _, err := f.carts.AddItem(context.Background(), "session-sum", AddCartItemInput{ProductID: f.nasiGoreng.ID, Quantity: 2}); err != nil {
		t.Fatalf("add item failed: %v", err)
	}
	order := createGatewayOrder(t, f, "session-sum")

	var sum int64
	for _, item := range snap.BuildItems(captured.Items, captured.ShippingFee) {
		sum += item.Price * int64(item.Quantity)
	}
	if !captured.GrossAmount.Equal(order.TotalPrice.Decimal) {
		t.Fatalf("expected gross %s, got %s", order.TotalPrice.String(), captured.GrossAmount.String())
	}
	if sum != captured.GrossAmount.IntPart() {
		t.Fatalf("item sum %d does not match gross %s", sum, captured.GrossAmount.String())
	}
}

func TestCreateSessionRejectsFractionalStoredOrder(t *testing.T) {
	f := setupServiceFixture(t)
	ctx := context.Background()
	f.payments.createFn = func(_ context.Context, _ *snap.Config, _ snap.CreateInput) (*snap.CreateResult, error) {
		return nil, ErrPaymentRequestFailed
	}
	order := createGatewayOrder(t, f, "session-legacy")
	if err := f.db.Model(&models.OrderItem{}).Where("order_id = ?", order.ID).
		Update("unit_price", mustDecimal(t, "15000.50")).Error; err != nil {
		t.Fatalf("update item failed: %v", err)
	}

	if _, err := f.payments.CreateSession(ctx, order.OrderNo, Actor{}); !errors.Is(err, ErrGatewayAmountNotWhole) {
		t.Fatalf("expected ErrGatewayAmountNotWhole, got %v", err)
	}
}
