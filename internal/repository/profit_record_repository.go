package repository

import (
	"errors"
	"time"

	"github.com/tijara-next/internal/models"

	"gorm.io/gorm"
)

// ProfitRecordRepository 利润记录数据访问接口
type ProfitRecordRepository interface {
	GetByOrderID(orderID uint) (*models.ProfitRecord, error)
	Create(item *models.ProfitRecord) error
	UpdateFields(id uint, updates map[string]interface{}) error
	ListSettledBetween(from, to time.Time) ([]models.ProfitRecord, error)
	DeleteByOrderID(orderID uint) error
	WithTx(tx *gorm.DB) ProfitRecordRepository
}

// GormProfitRecordRepository GORM 实现
type GormProfitRecordRepository struct {
	db *gorm.DB
}

// NewProfitRecordRepository 创建利润记录仓库
func NewProfitRecordRepository(db *gorm.DB) *GormProfitRecordRepository {
	return &GormProfitRecordRepository{db: db}
}

// WithTx 绑定事务
func (r *GormProfitRecordRepository) WithTx(tx *gorm.DB) ProfitRecordRepository {
	if tx == nil {
		return r
	}
	return &GormProfitRecordRepository{db: tx}
}

// GetByOrderID 根据订单获取利润记录
func (r *GormProfitRecordRepository) GetByOrderID(orderID uint) (*models.ProfitRecord, error) {
	if orderID == 0 {
		return nil, errors.New("invalid order id")
	}
	var item models.ProfitRecord
	if err := r.db.Where("order_id = ?", orderID).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// Create 创建利润记录
func (r *GormProfitRecordRepository) Create(item *models.ProfitRecord) error {
	if item == nil {
		return errors.New("profit record is nil")
	}
	return r.db.Create(item).Error
}

// UpdateFields 更新利润记录字段
func (r *GormProfitRecordRepository) UpdateFields(id uint, updates map[string]interface{}) error {
	if id == 0 {
		return errors.New("invalid profit record id")
	}
	if len(updates) == 0 {
		return nil
	}
	return r.db.Model(&models.ProfitRecord{}).Where("id = ?", id).Updates(updates).Error
}

// ListSettledBetween 获取区间内已结算的利润记录
func (r *GormProfitRecordRepository) ListSettledBetween(from, to time.Time) ([]models.ProfitRecord, error) {
	var items []models.ProfitRecord
	if err := r.db.Where("settled_at IS NOT NULL AND settled_at >= ? AND settled_at < ?", from, to).
		Order("id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// DeleteByOrderID 删除订单的利润记录
func (r *GormProfitRecordRepository) DeleteByOrderID(orderID uint) error {
	if orderID == 0 {
		return errors.New("invalid order id")
	}
	return r.db.Where("order_id = ?", orderID).Delete(&models.ProfitRecord{}).Error
}
