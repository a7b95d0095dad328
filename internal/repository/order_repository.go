package repository

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kedai-next/internal/constants"
	"github.com/kedai-next/internal/models"

	"gorm.io/gorm"
)

// ErrUpdateFieldNotAllowed 状态更新包含不可变字段
var ErrUpdateFieldNotAllowed = errors.New("order update field not allowed")

// 状态更新允许写入的列；订单项与金额不在其中
var statusUpdateColumns = map[string]struct{}{
	"paid_at":              {},
	"processed_at":         {},
	"completed_at":         {},
	"canceled_at":          {},
	"payment_token":        {},
	"payment_redirect_url": {},
}

// OrderRepository 订单数据访问接口
type OrderRepository interface {
	Create(order *models.Order, items []models.OrderItem) error
	GetByID(id uint) (*models.Order, error)
	GetByOrderNo(orderNo string) (*models.Order, error)
	ListAdmin(filter OrderListFilter) ([]models.Order, int64, error)
	UpdateStatus(id uint, fromStatus, toStatus string, updates map[string]interface{}) (bool, error)
	SetPaymentSession(id uint, token, redirectURL string) error
	ListPendingGateway(createdBefore time.Time, limit int) ([]models.Order, error)
	WithTx(tx *gorm.DB) *GormOrderRepository
}

// GormOrderRepository GORM 实现
type GormOrderRepository struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单仓库
func NewOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// WithTx 绑定事务
func (r *GormOrderRepository) WithTx(tx *gorm.DB) *GormOrderRepository {
	if tx == nil {
		return r
	}
	return &GormOrderRepository{db: tx}
}

// Create 创建订单与订单项
func (r *GormOrderRepository) Create(order *models.Order, items []models.OrderItem) error {
	if err := r.db.Omit("Items").Create(order).Error; err != nil {
		return err
	}
	for i := range items {
		items[i].OrderID = order.ID
	}
	if len(items) > 0 {
		if err := r.db.Create(&items).Error; err != nil {
			return err
		}
	}
	order.Items = items
	return nil
}

// GetByID 根据 ID 获取订单
func (r *GormOrderRepository) GetByID(id uint) (*models.Order, error) {
	var order models.Order
	if err := r.db.Preload("Items").First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// GetByOrderNo 根据订单号获取订单
func (r *GormOrderRepository) GetByOrderNo(orderNo string) (*models.Order, error) {
	orderNo = strings.TrimSpace(orderNo)
	if orderNo == "" {
		return nil, nil
	}
	var order models.Order
	if err := r.db.Preload("Items").Where("order_no = ?", orderNo).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// ListAdmin 后台订单列表
func (r *GormOrderRepository) ListAdmin(filter OrderListFilter) ([]models.Order, int64, error) {
	var orders []models.Order
	query := r.db.Model(&models.Order{})

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.OrderType != "" {
		query = query.Where("order_type = ?", filter.OrderType)
	}
	if filter.PaymentMethod != "" {
		query = query.Where("payment_method = ?", filter.PaymentMethod)
	}
	if filter.OrderNo != "" {
		query = query.Where("order_no = ?", filter.OrderNo)
	}
	if keyword := strings.TrimSpace(filter.Keyword); keyword != "" {
		like := likeOperator(r.db)
		pattern := "%" + keyword + "%"
		query = query.Where(
			fmt.Sprintf("customer_name %s ? OR customer_phone %s ?", like, like),
			pattern, pattern,
		)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)
	if err := query.Preload("Items").Order("id desc").Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// UpdateStatus 以当前状态为条件更新订单状态，返回是否命中
func (r *GormOrderRepository) UpdateStatus(id uint, fromStatus, toStatus string, updates map[string]interface{}) (bool, error) {
	values := map[string]interface{}{}
	for column, value := range updates {
		if _, ok := statusUpdateColumns[column]; !ok {
			return false, fmt.Errorf("%w: %s", ErrUpdateFieldNotAllowed, column)
		}
		values[column] = value
	}
	values["status"] = toStatus
	values["updated_at"] = time.Now()

	result := r.db.Model(&models.Order{}).
		Where("id = ? AND status = ?", id, fromStatus).
		Updates(values)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// SetPaymentSession 保存网关会话
func (r *GormOrderRepository) SetPaymentSession(id uint, token, redirectURL string) error {
	return r.db.Model(&models.Order{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"payment_token":        token,
			"payment_redirect_url": redirectURL,
			"updated_at":           time.Now(),
		}).Error
}

// ListPendingGateway 获取待对账的网关订单
func (r *GormOrderRepository) ListPendingGateway(createdBefore time.Time, limit int) ([]models.Order, error) {
	if limit <= 0 {
		limit = 50
	}
	var orders []models.Order
	err := r.db.
		Where("status = ? AND payment_method = ? AND created_at <= ?",
			constants.OrderStatusPending, constants.PaymentMethodGateway, createdBefore).
		Where("payment_token <> ''").
		Order("id asc").
		Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}
