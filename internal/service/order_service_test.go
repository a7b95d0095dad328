package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kedai-next/internal/constants"
	"github.com/kedai-next/internal/models"
	"github.com/kedai-next/internal/realtime"
	"github.com/kedai-next/internal/repository"
)

func TestIsTransitionAllowed(t *testing.T) {
	cases := []struct {
		from, to string
		allowed  bool
	}{
		{constants.OrderStatusPending, constants.OrderStatusPaid, true},
		{constants.OrderStatusPending, constants.OrderStatusCancelled, true},
		{constants.OrderStatusPaid, constants.OrderStatusProcessed, true},
		{constants.OrderStatusPaid, constants.OrderStatusCancelled, true},
		{constants.OrderStatusProcessed, constants.OrderStatusCompleted, true},
		{constants.OrderStatusCompleted, constants.OrderStatusPending, false},
		{constants.OrderStatusCancelled, constants.OrderStatusPaid, false},
		{constants.OrderStatusPending, constants.OrderStatusCompleted, false},
		{constants.OrderStatusProcessed, constants.OrderStatusCancelled, false},
		{constants.OrderStatusPaid, constants.OrderStatusPaid, false},
	}
	for _, tc := range cases {
		if got := isTransitionAllowed(tc.from, tc.to); got != tc.allowed {
			t.Fatalf("%s -> %s: expected %v, got %v", tc.from, tc.to, tc.allowed, got)
		}
	}
}

func TestTerminalStatuses(t *testing.T) {
	if !IsTerminalOrderStatus(constants.OrderStatusCompleted) || !IsTerminalOrderStatus(constants.OrderStatusCancelled) {
		t.Fatalf("completed and cancelled must be terminal")
	}
	if IsTerminalOrderStatus(constants.OrderStatusPending) || IsTerminalOrderStatus(constants.OrderStatusProcessed) {
		t.Fatalf("pending and processed are not terminal")
	}
	if IsTerminalOrderStatus("unknown") {
		t.Fatalf("unknown status is not terminal")
	}
	next := NextOrderStatuses(constants.OrderStatusPaid)
	if len(next) != 2 || next[0] != constants.OrderStatusProcessed || next[1] != constants.OrderStatusCancelled {
		t.Fatalf("unexpected next statuses: %v", next)
	}
}

func TestOrderServiceCreateValidation(t *testing.T) {
	f := setupServiceFixture(t)
	f.fillCart(t, "session-validate")
	c, _ := f.carts.Get(context.Background(), "session-validate")
	base := CreateOrderInput{
		CustomerName:    "Siti",
		CustomerPhone:   "0812",
		CustomerAddress: "Jl. Merdeka",
		OrderType:       constants.OrderTypeDelivery,
		PaymentMethod:   constants.PaymentMethodAssisted,
		Destination:     offsetNorth(1),
		Items:           c.Snapshot(),
	}
	cases := []struct {
		name   string
		mutate func(in *CreateOrderInput)
		want   error
	}{
		{"name", func(in *CreateOrderInput) { in.CustomerName = "  " }, ErrCustomerNameRequired},
		{"phone", func(in *CreateOrderInput) { in.CustomerPhone = "" }, ErrCustomerPhoneRequired},
		{"address", func(in *CreateOrderInput) { in.CustomerAddress = "" }, ErrCustomerAddressRequired},
		{"type", func(in *CreateOrderInput) { in.OrderType = "dine_in" }, ErrOrderTypeInvalid},
		{"method", func(in *CreateOrderInput) { in.PaymentMethod = "cash" }, ErrPaymentMethodInvalid},
		{"items", func(in *CreateOrderInput) { in.Items = nil }, ErrCartEmpty},
		{"branch", func(in *CreateOrderInput) { in.BranchCode = "NOPE" }, ErrBranchNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input := base
			tc.mutate(&input)
			_, err := f.orders.Create(context.Background(), input)
			if !errors.Is(err, tc.want) || !errors.Is(err, ErrValidation) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
	if count := f.countOrders(t); count != 0 {
		t.Fatalf("validation failures must not write rows, got %d", count)
	}
}

func TestOrderServiceUpdateStatus(t *testing.T) {
	f := setupServiceFixture(t)
	ctx := context.Background()
	f.fillCart(t, "session-status")
	result, err := f.checkout.Checkout(ctx, deliveryCheckoutInput("session-status", constants.PaymentMethodAssisted, offsetNorth(1)))
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	order := result.Order

	customer, err := f.hub.Subscribe(realtime.ForOrder(order.OrderNo))
	if err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}
	defer customer.Close()

	if _, err := f.orders.UpdateStatus(ctx, order.ID, constants.OrderStatusCompleted, Actor{Name: "staff"}); !errors.Is(err, ErrOrderStatusInvalid) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
	unchanged, _ := f.orders.GetForAdmin(ctx, order.ID)
	if unchanged.Status != constants.OrderStatusPending {
		t.Fatalf("rejected transition must leave order unchanged, got %s", unchanged.Status)
	}

	paid, err := f.orders.UpdateStatus(ctx, order.ID, constants.OrderStatusPaid, Actor{Name: "staff"})
	if err != nil {
		t.Fatalf("pending -> paid failed: %v", err)
	}
	if paid.Status != constants.OrderStatusPaid || paid.PaidAt == nil {
		t.Fatalf("expected paid with paid_at, got %+v", paid)
	}
	evt := <-customer.Events()
	if evt.Type != realtime.EventOrderUpdated || evt.Status != constants.OrderStatusPaid {
		t.Fatalf("unexpected event %+v", evt)
	}

	if _, err := f.orders.UpdateStatus(ctx, order.ID, "shipped", Actor{Name: "staff"}); !errors.Is(err, ErrOrderStatusInvalid) {
		t.Fatalf("expected unknown status rejected, got %v", err)
	}
	if _, err := f.orders.UpdateStatus(ctx, 99999, constants.OrderStatusPaid, Actor{Name: "staff"}); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestOrderServiceTransitionConflict(t *testing.T) {
	f := setupServiceFixture(t)
	ctx := context.Background()
	f.fillCart(t, "session-conflict")
	result, err := f.checkout.Checkout(ctx, deliveryCheckoutInput("session-conflict", constants.PaymentMethodAssisted, offsetNorth(1)))
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	stale := *result.Order

	// 另一个写入者先完成了取消
	if _, err := f.orders.UpdateStatus(ctx, stale.ID, constants.OrderStatusCancelled, Actor{Name: "staff-a"}); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if _, err := f.orders.transition(ctx, &stale, constants.OrderStatusPaid, Actor{Name: "staff-b"}); !errors.Is(err, ErrOrderStatusConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	current, _ := f.orders.GetForAdmin(ctx, stale.ID)
	if current.Status != constants.OrderStatusCancelled || current.CanceledAt == nil {
		t.Fatalf("expected cancelled order to stay cancelled, got %s", current.Status)
	}
}

func TestQuoteDeliveryDegradedWithoutBranchCoordinates(t *testing.T) {
	f := setupServiceFixture(t)
	ctx := context.Background()
	_, err := f.storeConfig.Update(ctx, StoreConfig{
		Name:      "Kedai",
		Currency:  "IDR",
		Timezone:  "Asia/Jakarta",
		OpenHour:  10,
		CloseHour: 20,
		PerKmRate: 2000, MinimumFee: 12000,
		Branches: []Branch{{Code: "POP", Name: "Pop-up"}},
	})
	if err != nil {
		t.Fatalf("update config failed: %v", err)
	}
	pricing, err := f.orders.QuoteDelivery(ctx, "", nil)
	if err != nil {
		t.Fatalf("quote failed: %v", err)
	}
	if !pricing.Quote.Degraded || pricing.Quote.Fee.String() != "12000" {
		t.Fatalf("expected degraded minimum fee, got %+v", pricing.Quote)
	}
}

// readHookRepo 在读取订单后执行一次回调，模拟读取与订阅之间的并发更新
type readHookRepo struct {
	repository.OrderRepository
	afterRead func()
}

func (r *readHookRepo) GetByOrderNo(orderNo string) (*models.Order, error) {
	order, err := r.OrderRepository.GetByOrderNo(orderNo)
	if hook := r.afterRead; hook != nil {
		r.afterRead = nil
		hook()
	}
	return order, err
}

func TestWatchKeepsUpdateDuringSnapshotRead(t *testing.T) {
	f := setupServiceFixture(t)
	ctx := context.Background()
	order := createGatewayOrder(t, f, "session-watch")

	f.orders.orderRepo = &readHookRepo{
		OrderRepository: f.orderRepo,
		afterRead: func() {
			if _, err := f.payments.ApplyOutcome(ctx, order.OrderNo, PaymentOutcomeSuccess, Actor{Name: constants.AuditActorCustomer}); err != nil {
				t.Errorf("apply outcome failed: %v", err)
			}
		},
	}

	snapshot, sub, err := f.orders.Watch(ctx, f.hub, order.OrderNo)
	if err != nil {
		t.Fatalf("watch failed: %v", err)
	}
	defer sub.Close()
	if snapshot.Status == constants.OrderStatusPaid {
		return
	}

	timeout := time.After(time.Second)
	for {
		select {
		case evt := <-sub.Events():
			if evt.OrderNo == order.OrderNo && evt.Status == constants.OrderStatusPaid {
				return
			}
		case <-timeout:
			t.Fatalf("snapshot is %s and paid update was not delivered", snapshot.Status)
		}
	}
}

func TestWatchUnknownOrderReleasesSubscription(t *testing.T) {
	f := setupServiceFixture(t)
	if _, _, err := f.orders.Watch(context.Background(), f.hub, "KD-MISSING"); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
	if n := f.hub.Count(); n != 0 {
		t.Fatalf("expected subscription released, got %d", n)
	}
}
