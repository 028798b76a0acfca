package repository

import (
	"errors"
	"strings"

	"github.com/tijara-next/internal/models"

	"gorm.io/gorm"
)

// ClosedPeriodRepository 结算周期数据访问接口
type ClosedPeriodRepository interface {
	Create(item *models.ClosedPeriod) error
	GetByID(id uint) (*models.ClosedPeriod, error)
	GetByName(name string) (*models.ClosedPeriod, error)
	List(page, pageSize int) ([]models.ClosedPeriod, int64, error)
	WithTx(tx *gorm.DB) ClosedPeriodRepository
}

// GormClosedPeriodRepository GORM 实现
type GormClosedPeriodRepository struct {
	db *gorm.DB
}

// NewClosedPeriodRepository 创建结算周期仓库
func NewClosedPeriodRepository(db *gorm.DB) *GormClosedPeriodRepository {
	return &GormClosedPeriodRepository{db: db}
}

// WithTx 绑定事务
func (r *GormClosedPeriodRepository) WithTx(tx *gorm.DB) ClosedPeriodRepository {
	if tx == nil {
		return r
	}
	return &GormClosedPeriodRepository{db: tx}
}

// Create 创建结算周期
func (r *GormClosedPeriodRepository) Create(item *models.ClosedPeriod) error {
	if item == nil {
		return errors.New("closed period is nil")
	}
	return r.db.Create(item).Error
}

// GetByID 根据 ID 获取结算周期
func (r *GormClosedPeriodRepository) GetByID(id uint) (*models.ClosedPeriod, error) {
	if id == 0 {
		return nil, errors.New("invalid period id")
	}
	var item models.ClosedPeriod
	if err := r.db.First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// GetByName 根据名称获取结算周期
func (r *GormClosedPeriodRepository) GetByName(name string) (*models.ClosedPeriod, error) {
	key := strings.TrimSpace(name)
	if key == "" {
		return nil, errors.New("invalid period name")
	}
	var item models.ClosedPeriod
	if err := r.db.Where("name = ?", key).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// List 结算周期列表
func (r *GormClosedPeriodRepository) List(page, pageSize int) ([]models.ClosedPeriod, int64, error) {
	query := r.db.Model(&models.ClosedPeriod{})
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var items []models.ClosedPeriod
	if err := applyPagination(query.Order("id DESC"), page, pageSize).Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}
