package repository

import (
	"github.com/kedai-next/internal/models"

	"gorm.io/gorm"
)

// AuditEventRepository 审计事件数据访问接口
type AuditEventRepository interface {
	Create(event *models.AuditEvent) error
	List(filter AuditEventListFilter) ([]models.AuditEvent, int64, error)
}

// GormAuditEventRepository GORM 实现
type GormAuditEventRepository struct {
	db *gorm.DB
}

// NewAuditEventRepository 创建审计事件仓库
func NewAuditEventRepository(db *gorm.DB) *GormAuditEventRepository {
	return &GormAuditEventRepository{db: db}
}

// Create 追加审计事件
func (r *GormAuditEventRepository) Create(event *models.AuditEvent) error {
	return r.db.Create(event).Error
}

// List 审计事件列表
func (r *GormAuditEventRepository) List(filter AuditEventListFilter) ([]models.AuditEvent, int64, error) {
	query := r.db.Model(&models.AuditEvent{})
	if filter.Action != "" {
		query = query.Where("action = ?", filter.Action)
	}
	if filter.Actor != "" {
		query = query.Where("actor = ?", filter.Actor)
	}
	if filter.OrderNo != "" {
		query = query.Where("order_no = ?", filter.OrderNo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var events []models.AuditEvent
	query = applyPagination(query, filter.Page, filter.PageSize)
	if err := query.Order("id desc").Find(&events).Error; err != nil {
		return nil, 0, err
	}
	return events, total, nil
}
