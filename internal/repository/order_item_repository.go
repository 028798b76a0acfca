package repository

import (
	"errors"

	"github.com/tijara-next/internal/models"

	"gorm.io/gorm"
)

// OrderItemRepository 订单项数据访问接口
type OrderItemRepository interface {
	ListByOrder(orderID uint) ([]models.OrderItem, error)
	ListByIDs(ids []uint) ([]models.OrderItem, error)
	UpdateFields(id uint, updates map[string]interface{}) error
	WithTx(tx *gorm.DB) OrderItemRepository
}

// GormOrderItemRepository GORM 实现
type GormOrderItemRepository struct {
	db *gorm.DB
}

// NewOrderItemRepository 创建订单项仓库
func NewOrderItemRepository(db *gorm.DB) *GormOrderItemRepository {
	return &GormOrderItemRepository{db: db}
}

// WithTx 绑定事务
func (r *GormOrderItemRepository) WithTx(tx *gorm.DB) OrderItemRepository {
	if tx == nil {
		return r
	}
	return &GormOrderItemRepository{db: tx}
}

// ListByOrder 获取订单项列表
func (r *GormOrderItemRepository) ListByOrder(orderID uint) ([]models.OrderItem, error) {
	if orderID == 0 {
		return nil, errors.New("invalid order id")
	}
	var items []models.OrderItem
	if err := r.db.Where("order_id = ?", orderID).Order("id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// ListByIDs 批量获取订单项
func (r *GormOrderItemRepository) ListByIDs(ids []uint) ([]models.OrderItem, error) {
	if len(ids) == 0 {
		return []models.OrderItem{}, nil
	}
	var items []models.OrderItem
	if err := r.db.Where("id IN ?", ids).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// UpdateFields 更新订单项字段
func (r *GormOrderItemRepository) UpdateFields(id uint, updates map[string]interface{}) error {
	if id == 0 {
		return errors.New("invalid order item id")
	}
	if len(updates) == 0 {
		return nil
	}
	return r.db.Model(&models.OrderItem{}).Where("id = ?", id).Updates(updates).Error
}
