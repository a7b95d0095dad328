package models

import "time"

// AuditEvent 审计事件表（只追加）
type AuditEvent struct {
	ID        uint      `gorm:"primarykey" json:"id"`                        // 主键
	Actor     string    `gorm:"type:varchar(120);index;not null" json:"actor"` // 操作者
	Action    string    `gorm:"type:varchar(80);index;not null" json:"action"` // 动作
	OrderNo   string    `gorm:"type:varchar(64);index" json:"order_no"`      // 关联订单号
	Detail    JSON      `gorm:"type:json" json:"detail"`                     // 详情
	ClientIP  string    `gorm:"type:varchar(64)" json:"client_ip"`           // 客户端IP
	RequestID string    `gorm:"type:varchar(64)" json:"request_id"`          // 请求ID
	CreatedAt time.Time `gorm:"index" json:"created_at"`                     // 创建时间
}

// TableName 指定表名
func (AuditEvent) TableName() string {
	return "audit_events"
}
