package main

import (
	"os"

	"github.com/kedai-next/internal/config"
	"github.com/kedai-next/internal/logger"
	"github.com/kedai-next/internal/models"
	"github.com/kedai-next/internal/repository"
	"github.com/kedai-next/internal/service"

	"github.com/shopspring/decimal"
)

func main() {
	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	// 店员账号
	if err := models.InitDefaultAdmin(os.Getenv("KEDAI_DEFAULT_ADMIN_USERNAME"), os.Getenv("KEDAI_DEFAULT_ADMIN_PASSWORD")); err != nil {
		stdLog.Printf("Failed to init staff account: %v", err)
	}

	// 菜单
	menu := []service.SeedProductInput{
		{
			Slug:        "nasi-goreng-spesial",
			Title:       "Nasi Goreng Spesial",
			Description: "Nasi goreng dengan telur mata sapi, ayam suwir dan kerupuk",
			Category:    "makanan",
			Price:       decimal.NewFromInt(28000),
			SortOrder:   100,
		},
		{
			Slug:        "mie-goreng-jawa",
			Title:       "Mie Goreng Jawa",
			Description: "Mie goreng bumbu jawa dengan sayur dan bakso",
			Category:    "makanan",
			Price:       decimal.NewFromInt(25000),
			SortOrder:   90,
		},
		{
			Slug:        "ayam-bakar-madu",
			Title:       "Ayam Bakar Madu",
			Description: "Ayam bakar olesan madu, nasi putih dan sambal terasi",
			Category:    "makanan",
			Price:       decimal.NewFromInt(35000),
			SortOrder:   80,
		},
		{
			Slug:        "sate-ayam",
			Title:       "Sate Ayam (10 tusuk)",
			Description: "Sate ayam bumbu kacang dengan lontong",
			Category:    "makanan",
			Price:       decimal.NewFromInt(30000),
			SortOrder:   70,
		},
		{
			Slug:        "pisang-goreng",
			Title:       "Pisang Goreng Keju",
			Description: "Pisang goreng dengan parutan keju dan susu kental manis",
			Category:    "camilan",
			Price:       decimal.NewFromInt(15000),
			SortOrder:   60,
		},
		{
			Slug:        "es-teh-manis",
			Title:       "Es Teh Manis",
			Category:    "minuman",
			Price:       decimal.NewFromInt(6000),
			SortOrder:   50,
		},
		{
			Slug:        "es-jeruk",
			Title:       "Es Jeruk Peras",
			Category:    "minuman",
			Price:       decimal.NewFromInt(10000),
			SortOrder:   40,
		},
		{
			Slug:        "kopi-susu-gula-aren",
			Title:       "Kopi Susu Gula Aren",
			Category:    "minuman",
			Price:       decimal.NewFromInt(18000),
			SortOrder:   30,
		},
	}

	products := service.NewProductService(repository.NewProductRepository(models.DB))
	if err := products.Seed(menu); err != nil {
		stdLog.Fatalf("Failed to seed products: %v", err)
	}
	stdLog.Printf("Seeded %d menu items", len(menu))
}
