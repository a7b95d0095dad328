package models

import (
	"time"

	"gorm.io/gorm"
)

// Product 商品表
type Product struct {
	ID          uint           `gorm:"primarykey" json:"id"`                                       // 主键
	Slug        string         `gorm:"uniqueIndex;not null" json:"slug"`                           // 唯一标识
	Title       string         `gorm:"type:varchar(255);not null" json:"title"`                    // 标题
	Description string         `gorm:"type:text" json:"description"`                               // 描述
	Category    string         `gorm:"type:varchar(80);index" json:"category"`                     // 分类
	ImageURL    string         `gorm:"type:varchar(500)" json:"image_url"`                         // 图片
	PriceAmount Money          `gorm:"type:decimal(20,2);not null;default:0" json:"price_amount"`  // 价格金额
	IsActive    bool           `gorm:"default:true;index" json:"is_active"`                        // 是否上架
	SortOrder   int            `gorm:"default:0;index" json:"sort_order"`                          // 排序权重
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`                                    // 创建时间
	UpdatedAt   time.Time      `json:"updated_at"`                                                 // 更新时间
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`                                             // 软删除时间
}

// TableName 指定表名
func (Product) TableName() string {
	return "products"
}
