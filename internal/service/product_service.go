package service

import (
	"strings"

	"github.com/kedai-next/internal/models"
	"github.com/kedai-next/internal/repository"

	"github.com/shopspring/decimal"
)

// ProductService 商品只读服务
type ProductService struct {
	repo repository.ProductRepository
}

// NewProductService 创建商品服务
func NewProductService(repo repository.ProductRepository) *ProductService {
	return &ProductService{repo: repo}
}

// ListPublic 获取上架商品列表
func (s *ProductService) ListPublic(category string, page, pageSize int) ([]models.Product, int64, error) {
	filter := repository.ProductListFilter{
		Page:       page,
		PageSize:   pageSize,
		Category:   strings.TrimSpace(category),
		OnlyActive: true,
	}
	return s.repo.List(filter)
}

// SeedProductInput 初始化商品输入
type SeedProductInput struct {
	Slug        string
	Title       string
	Description string
	Category    string
	ImageURL    string
	Price       decimal.Decimal
	SortOrder   int
}

// Seed 按 slug 写入商品（初始化数据用）
func (s *ProductService) Seed(inputs []SeedProductInput) error {
	for _, input := range inputs {
		product := &models.Product{
			Slug:        strings.TrimSpace(input.Slug),
			Title:       strings.TrimSpace(input.Title),
			Description: strings.TrimSpace(input.Description),
			Category:    strings.TrimSpace(input.Category),
			ImageURL:    strings.TrimSpace(input.ImageURL),
			PriceAmount: models.NewMoneyFromDecimal(input.Price),
			IsActive:    true,
			SortOrder:   input.SortOrder,
		}
		if product.Slug == "" || product.Title == "" || input.Price.IsNegative() {
			return ErrProductUnavailable
		}
		if err := s.repo.UpsertBySlug(product); err != nil {
			return err
		}
	}
	return nil
}
