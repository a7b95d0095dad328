//go:build integration
// +build integration

package repository

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/kedai-next/internal/constants"
	"github.com/kedai-next/internal/models"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// setupPostgresIntegrationDB 初始化 PostgreSQL 集成测试数据库。
func setupPostgresIntegrationDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := strings.TrimSpace(os.Getenv("TEST_POSTGRES_DSN"))
	if dsn == "" {
		t.Skip("skip postgres integration test: TEST_POSTGRES_DSN is empty")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open postgres failed: %v", err)
	}

	cleanupModels := []interface{}{
		&models.OrderItem{},
		&models.Order{},
		&models.AuditEvent{},
	}
	_ = db.Migrator().DropTable(cleanupModels...)
	if err := db.AutoMigrate(&models.Order{}, &models.OrderItem{}, &models.AuditEvent{}); err != nil {
		t.Fatalf("migrate postgres models failed: %v", err)
	}

	t.Cleanup(func() {
		_ = db.Migrator().DropTable(cleanupModels...)
		sqlDB, err := db.DB()
		if err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func TestPostgresOrderStatusCompareAndSet(t *testing.T) {
	db := setupPostgresIntegrationDB(t)
	repo := NewOrderRepository(db)

	order := &models.Order{
		OrderNo:       uuid.NewString(),
		CustomerName:  "Siti",
		CustomerPhone: "0813",
		OrderType:     constants.OrderTypeDelivery,
		PaymentMethod: constants.PaymentMethodGateway,
		Status:        constants.OrderStatusPending,
		Currency:      "IDR",
		TotalPrice:    models.NewMoneyFromInt(43000),
	}
	if err := repo.Create(order, []models.OrderItem{{ProductID: 1, Title: "Nasi", UnitPrice: models.NewMoneyFromInt(33000), Quantity: 1, LineTotal: models.NewMoneyFromInt(33000)}}); err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	ok, err := repo.UpdateStatus(order.ID, constants.OrderStatusPending, constants.OrderStatusPaid, map[string]interface{}{"paid_at": time.Now()})
	if err != nil || !ok {
		t.Fatalf("transition should apply, ok=%v err=%v", ok, err)
	}
	ok, err = repo.UpdateStatus(order.ID, constants.OrderStatusPending, constants.OrderStatusCancelled, nil)
	if err != nil || ok {
		t.Fatalf("stale transition must not apply, ok=%v err=%v", ok, err)
	}
}

func TestPostgresOrderKeywordSearchIsCaseInsensitive(t *testing.T) {
	db := setupPostgresIntegrationDB(t)
	repo := NewOrderRepository(db)
	order := &models.Order{
		OrderNo:       uuid.NewString(),
		CustomerName:  "Rina Wijaya",
		CustomerPhone: "0814",
		OrderType:     constants.OrderTypePickup,
		PaymentMethod: constants.PaymentMethodAssisted,
		Status:        constants.OrderStatusPending,
		Currency:      "IDR",
	}
	if err := repo.Create(order, nil); err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	_, total, err := repo.ListAdmin(OrderListFilter{Page: 1, PageSize: 10, Keyword: "rina"})
	if err != nil {
		t.Fatalf("list admin failed: %v", err)
	}
	if total != 1 {
		t.Fatalf("ILIKE search want 1 got %d", total)
	}
}
