package cart

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Product 加入购物车时的商品快照
type Product struct {
	ID        uint            `json:"id"`
	Title     string          `json:"title"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// LineItem 购物车行
type LineItem struct {
	Key       string          `json:"key"`
	ProductID uint            `json:"product_id"`
	Title     string          `json:"title"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	Note      string          `json:"note"`
}

// LineTotal 行小计
func (l LineItem) LineTotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart 会话购物车
type Cart struct {
	SessionID string     `json:"session_id"`
	Items     []LineItem `json:"items"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// New 创建空购物车
func New(sessionID string) *Cart {
	return &Cart{SessionID: sessionID, Items: []LineItem{}}
}

// IdentityKey 行标识：商品 ID + 去空白备注
func IdentityKey(productID uint, note string) string {
	sum := sha256.Sum256([]byte(strconv.FormatUint(uint64(productID), 10) + "\x00" + strings.TrimSpace(note)))
	return hex.EncodeToString(sum[:8])
}

// Add 加入商品；相同标识的行合并数量
func (c *Cart) Add(product Product, quantity int, note string) LineItem {
	if quantity <= 0 {
		quantity = 1
	}
	note = strings.TrimSpace(note)
	key := IdentityKey(product.ID, note)
	for i := range c.Items {
		if c.Items[i].Key == key {
			c.Items[i].Quantity += quantity
			return c.Items[i]
		}
	}
	item := LineItem{
		Key:       key,
		ProductID: product.ID,
		Title:     product.Title,
		UnitPrice: product.UnitPrice,
		Quantity:  quantity,
		Note:      note,
	}
	c.Items = append(c.Items, item)
	return item
}

// Remove 删除行，返回是否存在
func (c *Cart) Remove(key string) bool {
	for i := range c.Items {
		if c.Items[i].Key == key {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return true
		}
	}
	return false
}

// SetQuantity 设置数量，n < 1 等同删除
func (c *Cart) SetQuantity(key string, n int) bool {
	if n < 1 {
		return c.Remove(key)
	}
	for i := range c.Items {
		if c.Items[i].Key == key {
			c.Items[i].Quantity = n
			return true
		}
	}
	return false
}

// Clear 清空购物车
func (c *Cart) Clear() {
	c.Items = []LineItem{}
}

// IsEmpty 是否为空
func (c *Cart) IsEmpty() bool {
	return c == nil || len(c.Items) == 0
}

// Subtotal 商品合计
func (c *Cart) Subtotal() decimal.Decimal {
	total := decimal.Zero
	if c == nil {
		return total
	}
	for _, item := range c.Items {
		total = total.Add(item.LineTotal())
	}
	return total
}

// ItemCount 商品件数
func (c *Cart) ItemCount() int {
	if c == nil {
		return 0
	}
	count := 0
	for _, item := range c.Items {
		count += item.Quantity
	}
	return count
}

// Snapshot 返回行的独立副本，后续修改购物车不影响快照
func (c *Cart) Snapshot() []LineItem {
	if c == nil {
		return nil
	}
	out := make([]LineItem, len(c.Items))
	copy(out, c.Items)
	return out
}

// Encode 序列化购物车
func Encode(c *Cart) ([]byte, error) {
	return json.Marshal(c)
}

// Decode 还原购物车；数据损坏或不合法时返回空购物车
func Decode(sessionID string, raw []byte) *Cart {
	if len(raw) == 0 {
		return New(sessionID)
	}
	var c Cart
	if err := json.Unmarshal(raw, &c); err != nil {
		return New(sessionID)
	}
	for _, item := range c.Items {
		if item.ProductID == 0 || item.Quantity < 1 || item.Key != IdentityKey(item.ProductID, item.Note) {
			return New(sessionID)
		}
	}
	if c.Items == nil {
		c.Items = []LineItem{}
	}
	c.SessionID = sessionID
	return &c
}
