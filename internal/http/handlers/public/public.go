package public

import (
	"strings"
	"time"

	handlershared "github.com/kedai-next/internal/http/handlers/shared"
	"github.com/kedai-next/internal/http/response"
	"github.com/kedai-next/internal/models"
	"github.com/kedai-next/internal/service"
	"github.com/kedai-next/internal/storehours"

	"github.com/gin-gonic/gin"
)

const (
	defaultStatusRecheckSeconds = 60
	defaultProductPageSize      = 50
)

// PublicStoreView 前台门店配置
type PublicStoreView struct {
	Name      string                      `json:"name"`
	Currency  string                      `json:"currency"`
	Timezone  string                      `json:"timezone"`
	OpenHour  int                         `json:"open_hour"`
	CloseHour int                         `json:"close_hour"`
	Branches  []service.Branch            `json:"branches"`
	Status    storehours.Status           `json:"status"`
	Gateway   service.GatewayPublicConfig `json:"gateway"`
}

// StoreStatusView 营业状态，前台按 recheck_seconds 轮询
type StoreStatusView struct {
	storehours.Status
	RecheckSeconds int `json:"recheck_seconds"`
}

// PublicProductView 前台商品
type PublicProductView struct {
	ID          uint         `json:"id"`
	Slug        string       `json:"slug"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Category    string       `json:"category"`
	ImageURL    string       `json:"image_url"`
	PriceAmount models.Money `json:"price_amount"`
}

// GetStore 获取门店配置与当前营业状态
func (h *Handler) GetStore(c *gin.Context) {
	cfg, err := h.StoreConfigService.Get(c.Request.Context())
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	status, err := h.StoreConfigService.GateStatus(c.Request.Context(), time.Now().UTC())
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	branches := cfg.Branches
	if branches == nil {
		branches = []service.Branch{}
	}
	response.Success(c, PublicStoreView{
		Name:      cfg.Name,
		Currency:  cfg.Currency,
		Timezone:  cfg.Timezone,
		OpenHour:  cfg.OpenHour,
		CloseHour: cfg.CloseHour,
		Branches:  branches,
		Status:    status,
		Gateway:   h.PaymentService.PublicConfig(),
	})
}

// GetStoreStatus 获取营业状态
func (h *Handler) GetStoreStatus(c *gin.Context) {
	status, err := h.StoreConfigService.GateStatus(c.Request.Context(), time.Now().UTC())
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	recheck := h.Config.Store.StatusRecheckSeconds
	if recheck <= 0 {
		recheck = defaultStatusRecheckSeconds
	}
	response.Success(c, StoreStatusView{Status: status, RecheckSeconds: recheck})
}

// GetProducts 获取上架商品列表
func (h *Handler) GetProducts(c *gin.Context) {
	page, pageSize := handlershared.ParsePagination(c, defaultProductPageSize)
	category := strings.TrimSpace(c.Query("category"))

	products, total, err := h.ProductService.ListPublic(category, page, pageSize)
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}

	items := make([]PublicProductView, 0, len(products))
	for _, product := range products {
		items = append(items, PublicProductView{
			ID:          product.ID,
			Slug:        product.Slug,
			Title:       product.Title,
			Description: product.Description,
			Category:    product.Category,
			ImageURL:    product.ImageURL,
			PriceAmount: product.PriceAmount,
		})
	}
	response.SuccessWithPage(c, items, response.NewPagination(page, pageSize, total))
}
