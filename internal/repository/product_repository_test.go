package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/kedai-next/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupProductRepositoryTest(t *testing.T) *GormProductRepository {
	t.Helper()
	dsn := fmt.Sprintf("file:product_repo_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Product{}, &models.Setting{}); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	return NewProductRepository(db)
}

func TestProductUpsertBySlugAndListActive(t *testing.T) {
	repo := setupProductRepositoryTest(t)
	items := []models.Product{
		{Slug: "nasi-goreng", Title: "Nasi Goreng", PriceAmount: models.NewMoneyFromInt(18000), IsActive: true, SortOrder: 2},
		{Slug: "es-teh", Title: "Es Teh", PriceAmount: models.NewMoneyFromInt(5000), IsActive: true, SortOrder: 1},
		{Slug: "sold-out", Title: "Sate", PriceAmount: models.NewMoneyFromInt(25000), IsActive: false},
	}
	for i := range items {
		if err := repo.UpsertBySlug(&items[i]); err != nil {
			t.Fatalf("upsert product failed: %v", err)
		}
	}

	updated := models.Product{Slug: "es-teh", Title: "Es Teh Manis", PriceAmount: models.NewMoneyFromInt(6000), IsActive: true, SortOrder: 1}
	if err := repo.UpsertBySlug(&updated); err != nil {
		t.Fatalf("upsert existing product failed: %v", err)
	}

	products, total, err := repo.List(ProductListFilter{OnlyActive: true})
	if err != nil {
		t.Fatalf("list products failed: %v", err)
	}
	if total != 2 || len(products) != 2 {
		t.Fatalf("expected 2 active products, got total=%d len=%d", total, len(products))
	}
	if products[0].Slug != "nasi-goreng" {
		t.Fatalf("expected sort_order desc, got %s first", products[0].Slug)
	}
	if products[1].Title != "Es Teh Manis" || products[1].PriceAmount.String() != "6000.00" {
		t.Fatalf("upsert did not update row: %+v", products[1])
	}
}

func TestSettingRepositoryUpsert(t *testing.T) {
	dsn := fmt.Sprintf("file:setting_repo_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Setting{}); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	repo := NewSettingRepository(db)

	if got, err := repo.GetByKey("store_config"); err != nil || got != nil {
		t.Fatalf("missing key should return nil,nil got %v %v", got, err)
	}
	if _, err := repo.Upsert("store_config", models.JSON{"open_hour": 9}); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if _, err := repo.Upsert("store_config", models.JSON{"open_hour": 10}); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	got, err := repo.GetByKey("store_config")
	if err != nil || got == nil {
		t.Fatalf("get failed: %v", err)
	}
	if v, ok := got.ValueJSON["open_hour"].(float64); !ok || v != 10 {
		t.Fatalf("expected updated value, got %#v", got.ValueJSON["open_hour"])
	}
}
