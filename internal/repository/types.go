package repository

import "time"

// ProductListFilter 查询商品列表的过滤条件
type ProductListFilter struct {
	Page       int
	PageSize   int
	Category   string
	OnlyActive bool
}

// OrderListFilter 查询订单列表的过滤条件
type OrderListFilter struct {
	Page          int
	PageSize      int
	Status        string
	OrderType     string
	PaymentMethod string
	OrderNo       string
	Keyword       string
	CreatedFrom   *time.Time
	CreatedTo     *time.Time
}

// AuditEventListFilter 查询审计事件的过滤条件
type AuditEventListFilter struct {
	Page     int
	PageSize int
	Action   string
	Actor    string
	OrderNo  string
}
