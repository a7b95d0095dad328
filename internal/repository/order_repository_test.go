package repository

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/kedai-next/internal/constants"
	"github.com/kedai-next/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func setupOrderRepositoryTest(t *testing.T) (*GormOrderRepository, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:order_repo_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := models.MigrateAll(db); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	return NewOrderRepository(db), db
}

func createTestOrder(t *testing.T, repo *GormOrderRepository, status, paymentMethod string) *models.Order {
	t.Helper()
	order := &models.Order{
		OrderNo:       uuid.NewString(),
		CustomerName:  "Budi",
		CustomerPhone: "0812",
		OrderType:     constants.OrderTypePickup,
		PaymentMethod: paymentMethod,
		Status:        status,
		Currency:      "IDR",
		Subtotal:      models.NewMoneyFromInt(33000),
		ShippingFee:   models.NewMoneyFromInt(10000),
		TotalPrice:    models.NewMoneyFromInt(43000),
	}
	items := []models.OrderItem{
		{ProductID: 1, Title: "Nasi Goreng", UnitPrice: models.NewMoneyFromInt(18000), Quantity: 1, LineTotal: models.NewMoneyFromInt(18000)},
		{ProductID: 2, Title: "Es Teh", UnitPrice: models.NewMoneyFromInt(5000), Quantity: 3, Note: "less sugar", LineTotal: models.NewMoneyFromInt(15000)},
	}
	if err := repo.Create(order, items); err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	return order
}

func TestOrderRepositoryCreateAndFetch(t *testing.T) {
	repo, _ := setupOrderRepositoryTest(t)
	order := createTestOrder(t, repo, constants.OrderStatusPending, constants.PaymentMethodAssisted)

	got, err := repo.GetByOrderNo(order.OrderNo)
	if err != nil {
		t.Fatalf("get by order no failed: %v", err)
	}
	if got == nil || got.ID != order.ID {
		t.Fatalf("order not found by order no")
	}
	if len(got.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(got.Items))
	}
	if got.TotalPrice.String() != "43000.00" {
		t.Fatalf("unexpected total %s", got.TotalPrice.String())
	}

	missing, err := repo.GetByOrderNo("does-not-exist")
	if err != nil || missing != nil {
		t.Fatalf("missing order should return nil,nil got %v %v", missing, err)
	}
}

func TestOrderRepositoryUpdateStatusCompareAndSet(t *testing.T) {
	repo, _ := setupOrderRepositoryTest(t)
	order := createTestOrder(t, repo, constants.OrderStatusPending, constants.PaymentMethodGateway)

	now := time.Now()
	ok, err := repo.UpdateStatus(order.ID, constants.OrderStatusPending, constants.OrderStatusPaid, map[string]interface{}{"paid_at": now})
	if err != nil || !ok {
		t.Fatalf("first transition should apply, ok=%v err=%v", ok, err)
	}
	ok, err = repo.UpdateStatus(order.ID, constants.OrderStatusPending, constants.OrderStatusCancelled, nil)
	if err != nil {
		t.Fatalf("stale transition should not error: %v", err)
	}
	if ok {
		t.Fatalf("stale transition must not apply")
	}

	got, _ := repo.GetByID(order.ID)
	if got.Status != constants.OrderStatusPaid || got.PaidAt == nil {
		t.Fatalf("unexpected order state: status=%s paid_at=%v", got.Status, got.PaidAt)
	}
}

func TestOrderRepositoryUpdateStatusRejectsImmutableColumns(t *testing.T) {
	repo, _ := setupOrderRepositoryTest(t)
	order := createTestOrder(t, repo, constants.OrderStatusPending, constants.PaymentMethodAssisted)

	_, err := repo.UpdateStatus(order.ID, constants.OrderStatusPending, constants.OrderStatusPaid, map[string]interface{}{"total_price": "1.00"})
	if !errors.Is(err, ErrUpdateFieldNotAllowed) {
		t.Fatalf("expected ErrUpdateFieldNotAllowed, got %v", err)
	}
	got, _ := repo.GetByID(order.ID)
	if got.Status != constants.OrderStatusPending || got.TotalPrice.String() != "43000.00" {
		t.Fatalf("order must be unchanged, got status=%s total=%s", got.Status, got.TotalPrice.String())
	}
}

func TestOrderRepositoryListPendingGateway(t *testing.T) {
	repo, _ := setupOrderRepositoryTest(t)
	withSession := createTestOrder(t, repo, constants.OrderStatusPending, constants.PaymentMethodGateway)
	if err := repo.SetPaymentSession(withSession.ID, "tok", "https://pay.example/tok"); err != nil {
		t.Fatalf("set payment session failed: %v", err)
	}
	createTestOrder(t, repo, constants.OrderStatusPending, constants.PaymentMethodGateway)
	createTestOrder(t, repo, constants.OrderStatusPending, constants.PaymentMethodAssisted)

	orders, err := repo.ListPendingGateway(time.Now().Add(time.Minute), 10)
	if err != nil {
		t.Fatalf("list pending gateway failed: %v", err)
	}
	if len(orders) != 1 || orders[0].ID != withSession.ID {
		t.Fatalf("expected only the order with a session, got %d", len(orders))
	}
	if orders[0].PaymentToken != "tok" {
		t.Fatalf("payment token not stored")
	}
}

func TestOrderRepositoryListAdminFilters(t *testing.T) {
	repo, _ := setupOrderRepositoryTest(t)
	createTestOrder(t, repo, constants.OrderStatusPending, constants.PaymentMethodAssisted)
	createTestOrder(t, repo, constants.OrderStatusPending, constants.PaymentMethodGateway)

	orders, total, err := repo.ListAdmin(OrderListFilter{Page: 1, PageSize: 10, PaymentMethod: constants.PaymentMethodGateway})
	if err != nil {
		t.Fatalf("list admin failed: %v", err)
	}
	if total != 1 || len(orders) != 1 {
		t.Fatalf("expected one gateway order, total=%d len=%d", total, len(orders))
	}

	_, total, err = repo.ListAdmin(OrderListFilter{Page: 1, PageSize: 10, Keyword: "bud"})
	if err != nil {
		t.Fatalf("keyword search failed: %v", err)
	}
	if total != 2 {
		t.Fatalf("keyword should match both orders, got %d", total)
	}
}
