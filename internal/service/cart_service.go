package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/kedai-next/internal/cart"
	"github.com/kedai-next/internal/logger"
	"github.com/kedai-next/internal/repository"

	"github.com/google/uuid"
)

const (
	maxCartLineQuantity = 99
	maxCartNoteLength   = 200
)

var cartSessionPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{8,64}$`)

// CartService 购物车服务：每次变更都读取、修改、回写
type CartService struct {
	store       cart.Store
	productRepo repository.ProductRepository
	now         func() time.Time
}

// NewCartService 创建购物车服务
func NewCartService(store cart.Store, productRepo repository.ProductRepository) *CartService {
	return &CartService{
		store:       store,
		productRepo: productRepo,
		now:         time.Now,
	}
}

// AddCartItemInput 加购输入
type AddCartItemInput struct {
	ProductID uint
	Quantity  int
	Note      string
}

// CartView 购物车视图
type CartView struct {
	SessionID string          `json:"session_id"`
	Items     []cart.LineItem `json:"items"`
	Subtotal  string          `json:"subtotal"`
	ItemCount int             `json:"item_count"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// BuildCartView 构建视图
func BuildCartView(c *cart.Cart) CartView {
	return CartView{
		SessionID: c.SessionID,
		Items:     c.Snapshot(),
		Subtotal:  c.Subtotal().StringFixed(2),
		ItemCount: c.ItemCount(),
		UpdatedAt: c.UpdatedAt,
	}
}

// NewSessionID 生成购物车会话标识
func NewSessionID() string {
	return uuid.NewString()
}

// NormalizeCartSession 校验会话标识
func NormalizeCartSession(sessionID string) (string, error) {
	sessionID = strings.TrimSpace(sessionID)
	if !cartSessionPattern.MatchString(sessionID) {
		return "", ErrCartSessionRequired
	}
	return sessionID, nil
}

// Get 读取购物车，数据损坏时返回空购物车
func (s *CartService) Get(ctx context.Context, sessionID string) (*cart.Cart, error) {
	sessionID, err := NormalizeCartSession(sessionID)
	if err != nil {
		return nil, err
	}
	raw, err := s.store.Load(ctx, sessionID)
	if err != nil {
		logger.Warnw("cart_load_failed", "session_id", sessionID, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrCartUnavailable, err)
	}
	return cart.Decode(sessionID, raw), nil
}

// AddItem 加入商品，单价取商品当前价格作为快照
func (s *CartService) AddItem(ctx context.Context, sessionID string, input AddCartItemInput) (*cart.Cart, error) {
	if input.ProductID == 0 || input.Quantity < 0 || input.Quantity > maxCartLineQuantity {
		return nil, ErrCartItemInvalid
	}
	note := strings.TrimSpace(input.Note)
	if utf8.RuneCountInString(note) > maxCartNoteLength {
		return nil, ErrCartItemInvalid
	}
	product, err := s.productRepo.GetByID(input.ProductID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCartUnavailable, err)
	}
	if product == nil || !product.IsActive {
		return nil, ErrProductUnavailable
	}
	c, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	line := c.Add(cart.Product{
		ID:        product.ID,
		Title:     product.Title,
		UnitPrice: product.PriceAmount.Decimal,
	}, input.Quantity, note)
	if line.Quantity > maxCartLineQuantity {
		return nil, ErrCartItemInvalid
	}
	if err := s.save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// UpdateQuantity 修改数量，小于 1 时删除该行
func (s *CartService) UpdateQuantity(ctx context.Context, sessionID, key string, quantity int) (*cart.Cart, error) {
	if quantity > maxCartLineQuantity {
		return nil, ErrCartItemInvalid
	}
	c, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !c.SetQuantity(strings.TrimSpace(key), quantity) {
		return nil, ErrCartItemNotFound
	}
	if err := s.save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// RemoveItem 删除行
func (s *CartService) RemoveItem(ctx context.Context, sessionID, key string) (*cart.Cart, error) {
	c, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !c.Remove(strings.TrimSpace(key)) {
		return nil, ErrCartItemNotFound
	}
	if err := s.save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Clear 清空购物车
func (s *CartService) Clear(ctx context.Context, sessionID string) error {
	sessionID, err := NormalizeCartSession(sessionID)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("%w: %v", ErrCartUnavailable, err)
	}
	return nil
}

func (s *CartService) save(ctx context.Context, c *cart.Cart) error {
	c.UpdatedAt = s.now().UTC()
	raw, err := cart.Encode(c)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCartUnavailable, err)
	}
	if err := s.store.Save(ctx, c.SessionID, raw); err != nil {
		logger.Warnw("cart_save_failed", "session_id", c.SessionID, "error", err)
		return fmt.Errorf("%w: %v", ErrCartUnavailable, err)
	}
	return nil
}
