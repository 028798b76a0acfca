package repository

import (
	"errors"

	"github.com/tijara-next/internal/models"

	"gorm.io/gorm"
)

// SweepLogRepository 对账记录数据访问接口
type SweepLogRepository interface {
	Create(item *models.SweepLog) error
	GetByID(id uint) (*models.SweepLog, error)
	List(page, pageSize int, partner string) ([]models.SweepLog, int64, error)
	WithTx(tx *gorm.DB) SweepLogRepository
}

// GormSweepLogRepository GORM 实现
type GormSweepLogRepository struct {
	db *gorm.DB
}

// NewSweepLogRepository 创建对账记录仓库
func NewSweepLogRepository(db *gorm.DB) *GormSweepLogRepository {
	return &GormSweepLogRepository{db: db}
}

// WithTx 绑定事务
func (r *GormSweepLogRepository) WithTx(tx *gorm.DB) SweepLogRepository {
	if tx == nil {
		return r
	}
	return &GormSweepLogRepository{db: tx}
}

// Create 创建对账记录
func (r *GormSweepLogRepository) Create(item *models.SweepLog) error {
	if item == nil {
		return errors.New("sweep log is nil")
	}
	return r.db.Create(item).Error
}

// GetByID 根据 ID 获取对账记录
func (r *GormSweepLogRepository) GetByID(id uint) (*models.SweepLog, error) {
	if id == 0 {
		return nil, errors.New("invalid sweep log id")
	}
	var item models.SweepLog
	if err := r.db.First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// List 对账记录列表
func (r *GormSweepLogRepository) List(page, pageSize int, partner string) ([]models.SweepLog, int64, error) {
	query := r.db.Model(&models.SweepLog{})
	if partner != "" {
		query = query.Where("partner = ?", partner)
	}
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var items []models.SweepLog
	if err := applyPagination(query.Order("id DESC"), page, pageSize).Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}
