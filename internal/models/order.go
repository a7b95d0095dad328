package models

import (
	"time"
)

// Order 订单表
type Order struct {
	ID                 uint       `gorm:"primarykey" json:"id"`                                                // 主键
	OrderNo            string     `gorm:"uniqueIndex;not null;type:varchar(64)" json:"order_no"`               // 对外订单号
	UserID             *uint      `gorm:"index" json:"user_id,omitempty"`                                      // 用户ID（可选）
	CustomerName       string     `gorm:"type:varchar(120);not null" json:"customer_name"`                     // 顾客姓名
	CustomerPhone      string     `gorm:"type:varchar(40);not null" json:"customer_phone"`                     // 顾客电话
	CustomerAddress    string     `gorm:"type:varchar(500)" json:"customer_address"`                           // 配送地址
	BranchCode         string     `gorm:"type:varchar(40);index" json:"branch_code"`                           // 门店编码
	OrderType          string     `gorm:"type:varchar(20);not null;index" json:"order_type"`                   // 订单类型（pickup/delivery）
	PaymentMethod      string     `gorm:"type:varchar(20);not null;index" json:"payment_method"`               // 支付方式（assisted/gateway）
	Status             string     `gorm:"type:varchar(20);not null;index" json:"status"`                       // 订单状态
	Currency           string     `gorm:"type:varchar(10);not null" json:"currency"`                           // 币种
	Subtotal           Money      `gorm:"type:decimal(20,2);not null;default:0" json:"subtotal"`               // 商品小计
	ShippingFee        Money      `gorm:"type:decimal(20,2);not null;default:0" json:"shipping_fee"`           // 配送费
	TotalPrice         Money      `gorm:"type:decimal(20,2);not null;default:0" json:"total_price"`            // 订单总额
	DistanceKm         float64    `gorm:"not null;default:0" json:"distance_km"`                               // 配送距离
	DeliveryLat        *float64   `json:"delivery_lat,omitempty"`                                              // 配送纬度
	DeliveryLng        *float64   `json:"delivery_lng,omitempty"`                                              // 配送经度
	QuoteDegraded      bool       `gorm:"not null;default:false" json:"quote_degraded"`                        // 是否按最低运费计价
	PaymentToken       string     `gorm:"type:varchar(255)" json:"-"`                                          // 网关会话令牌
	PaymentRedirectURL string     `gorm:"type:varchar(1000)" json:"payment_redirect_url,omitempty"`            // 网关跳转地址
	ClientIP           string     `gorm:"type:varchar(64)" json:"client_ip,omitempty"`                         // 下单客户端IP
	PaidAt             *time.Time `gorm:"index" json:"paid_at"`                                                // 支付时间
	ProcessedAt        *time.Time `json:"processed_at"`                                                        // 处理时间
	CompletedAt        *time.Time `json:"completed_at"`                                                        // 完成时间
	CanceledAt         *time.Time `json:"canceled_at"`                                                         // 取消时间
	CreatedAt          time.Time  `gorm:"index" json:"created_at"`                                             // 创建时间
	UpdatedAt          time.Time  `gorm:"index" json:"updated_at"`                                             // 更新时间

	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"` // 订单项
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}
