package models

import (
	"time"
)

// OrderItem 订单项表，创建后不再修改
type OrderItem struct {
	ID        uint      `gorm:"primarykey" json:"id"`                                     // 主键
	OrderID   uint      `gorm:"index;not null" json:"order_id"`                           // 订单ID
	ProductID uint      `gorm:"index;not null" json:"product_id"`                         // 商品ID
	Title     string    `gorm:"type:varchar(255);not null" json:"title"`                  // 商品标题快照
	UnitPrice Money     `gorm:"type:decimal(20,2);not null;default:0" json:"unit_price"`  // 单价快照
	Quantity  int       `gorm:"not null" json:"quantity"`                                 // 数量
	Note      string    `gorm:"type:varchar(500)" json:"note"`                            // 备注
	LineTotal Money     `gorm:"type:decimal(20,2);not null;default:0" json:"line_total"`  // 小计
	CreatedAt time.Time `gorm:"index" json:"created_at"`                                  // 创建时间
}

// TableName 指定表名
func (OrderItem) TableName() string {
	return "order_items"
}
