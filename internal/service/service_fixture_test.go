package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/kedai-next/internal/cart"
	"github.com/kedai-next/internal/config"
	"github.com/kedai-next/internal/constants"
	"github.com/kedai-next/internal/geo"
	"github.com/kedai-next/internal/models"
	"github.com/kedai-next/internal/payment/snap"
	"github.com/kedai-next/internal/realtime"
	"github.com/kedai-next/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const testServerKey = "SB-Mid-server-test"

// 05:00 UTC = 12:00 Asia/Jakarta
var testOpenTime = time.Date(2026, 3, 2, 5, 0, 0, 0, time.UTC)

type serviceFixture struct {
	db          *gorm.DB
	orderRepo   *repository.GormOrderRepository
	productRepo *repository.GormProductRepository
	settingRepo *repository.GormSettingRepository
	storeConfig *StoreConfigService
	orders      *OrderService
	carts       *CartService
	payments    *PaymentService
	assisted    *AssistedService
	checkout    *CheckoutService
	hub         *realtime.Hub
	clock       *testClock
	nasiGoreng  *models.Product
	ayamBakar   *models.Product
}

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time {
	return c.now
}

func testStoreDefaults() config.StoreConfig {
	return config.StoreConfig{
		Name:                 "Kedai",
		Currency:             "IDR",
		Timezone:             "Asia/Jakarta",
		OpenHour:             10,
		CloseHour:            20,
		PerKmRate:            2000,
		MinimumFee:           10000,
		AssistedContactPhone: "0812-3456-789",
		Branches: []config.BranchConfig{
			{Code: "MAIN", Name: "Kedai Pusat", Lat: -6.2, Lng: 106.816666},
		},
	}
}

func setupServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	dsn := fmt.Sprintf("file:service_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := models.MigrateAll(db); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	models.DB = db

	clock := &testClock{now: testOpenTime}
	f := &serviceFixture{
		db:          db,
		orderRepo:   repository.NewOrderRepository(db),
		productRepo: repository.NewProductRepository(db),
		settingRepo: repository.NewSettingRepository(db),
		hub:         realtime.NewHub(8),
		clock:       clock,
	}
	t.Cleanup(f.hub.Close)

	audit := NewAuditService(nil, nil)
	f.storeConfig = NewStoreConfigService(f.settingRepo, testStoreDefaults())
	f.storeConfig.now = clock.Now
	f.orders = NewOrderService(f.orderRepo, f.storeConfig, f.hub, audit)
	f.orders.now = clock.Now
	f.carts = NewCartService(cart.NewMemoryStore(), f.productRepo)
	f.carts.now = clock.Now
	f.payments = NewPaymentService(config.PaymentConfig{
		Snap: config.SnapConfig{
			Enabled:   true,
			ServerKey: testServerKey,
			ClientKey: "SB-Mid-client-test",
		},
	}, f.orders, f.orderRepo, f.storeConfig, audit)
	f.payments.now = clock.Now
	f.payments.createFn = func(_ context.Context, _ *snap.Config, input snap.CreateInput) (*snap.CreateResult, error) {
		return &snap.CreateResult{Token: "tok-" + input.OrderNo, RedirectURL: "https://pay.example/" + input.OrderNo}, nil
	}
	f.payments.queryFn = func(_ context.Context, _ *snap.Config, orderNo string) (*snap.StatusResult, error) {
		return &snap.StatusResult{OrderNo: orderNo, TransactionStatus: "pending", Outcome: snap.OutcomePending}, nil
	}
	f.assisted = NewAssistedService(f.storeConfig, f.orders)
	f.checkout = NewCheckoutService(f.carts, f.orders, f.payments, f.assisted, audit)

	f.nasiGoreng = f.seedProduct(t, "nasi-goreng", "Nasi Goreng", 15000)
	f.ayamBakar = f.seedProduct(t, "ayam-bakar", "Ayam Bakar", 18000)
	return f
}

func (f *serviceFixture) seedProduct(t *testing.T, slug, title string, price int64) *models.Product {
	t.Helper()
	product := &models.Product{
		Slug:        slug,
		Title:       title,
		PriceAmount: models.NewMoneyFromInt(price),
		IsActive:    true,
	}
	if err := f.db.Create(product).Error; err != nil {
		t.Fatalf("seed product failed: %v", err)
	}
	return product
}

// fillCart 加入 15000 与 18000 各一份
func (f *serviceFixture) fillCart(t *testing.T, sessionID string) {
	t.Helper()
	ctx := context.Background()
	if _, err := f.carts.AddItem(ctx, sessionID, AddCartItemInput{ProductID: f.nasiGoreng.ID, Quantity: 1}); err != nil {
		t.Fatalf("add item failed: %v", err)
	}
	if _, err := f.carts.AddItem(ctx, sessionID, AddCartItemInput{ProductID: f.ayamBakar.ID, Quantity: 1, Note: "pedas"}); err != nil {
		t.Fatalf("add item failed: %v", err)
	}
}

func (f *serviceFixture) countOrders(t *testing.T) int64 {
	t.Helper()
	var count int64
	if err := f.db.Model(&models.Order{}).Count(&count).Error; err != nil {
		t.Fatalf("count orders failed: %v", err)
	}
	return count
}

// offsetNorth 返回主门店正北方向约 km 公里处的坐标
func offsetNorth(km float64) *geo.Point {
	deg := km / (geo.EarthRadiusKm * 3.141592653589793 / 180)
	return &geo.Point{Lat: -6.2 + deg, Lng: 106.816666}
}

func deliveryCheckoutInput(sessionID, paymentMethod string, destination *geo.Point) CheckoutInput {
	return CheckoutInput{
		SessionID:       sessionID,
		CustomerName:    "Siti",
		CustomerPhone:   "081234567890",
		CustomerAddress: "Jl. Merdeka No. 1",
		OrderType:       constants.OrderTypeDelivery,
		PaymentMethod:   paymentMethod,
		Destination:     destination,
		Locale:          "id-ID",
		Actor:           Actor{Name: constants.AuditActorCustomer, ClientIP: "127.0.0.1"},
	}
}

func mustDecimal(t *testing.T, value string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(value)
	if err != nil {
		t.Fatalf("parse decimal failed: %v", err)
	}
	return d
}
