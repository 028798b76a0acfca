package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/tijara-next/internal/models"

	"gorm.io/gorm"
)

// DeliveryAccountRepository 配送账号数据访问接口
type DeliveryAccountRepository interface {
	GetByID(id uint) (*models.DeliveryAccount, error)
	GetActiveByLabel(partner, label string) (*models.DeliveryAccount, error)
	ListActive(partner string) ([]models.DeliveryAccount, error)
	ListActivePartners() ([]string, error)
	List(page, pageSize int) ([]models.DeliveryAccount, int64, error)
	Create(item *models.DeliveryAccount) error
	Update(item *models.DeliveryAccount) error
	StampUsed(id uint, usedAt time.Time) error
	WithTx(tx *gorm.DB) DeliveryAccountRepository
}

// GormDeliveryAccountRepository GORM 实现
type GormDeliveryAccountRepository struct {
	db *gorm.DB
}

// NewDeliveryAccountRepository 创建配送账号仓库
func NewDeliveryAccountRepository(db *gorm.DB) *GormDeliveryAccountRepository {
	return &GormDeliveryAccountRepository{db: db}
}

// WithTx 绑定事务
func (r *GormDeliveryAccountRepository) WithTx(tx *gorm.DB) DeliveryAccountRepository {
	if tx == nil {
		return r
	}
	return &GormDeliveryAccountRepository{db: tx}
}

// GetByID 根据 ID 获取账号
func (r *GormDeliveryAccountRepository) GetByID(id uint) (*models.DeliveryAccount, error) {
	if id == 0 {
		return nil, errors.New("invalid account id")
	}
	var item models.DeliveryAccount
	if err := r.db.First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// GetActiveByLabel 按配送方与账号标识获取启用账号
func (r *GormDeliveryAccountRepository) GetActiveByLabel(partner, label string) (*models.DeliveryAccount, error) {
	name := strings.TrimSpace(partner)
	tag := strings.TrimSpace(label)
	if name == "" || tag == "" {
		return nil, errors.New("invalid account lookup params")
	}
	var item models.DeliveryAccount
	if err := r.db.Where("partner = ? AND label = ? AND is_active = ?", name, tag, true).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// ListActive 获取配送方的全部启用账号
func (r *GormDeliveryAccountRepository) ListActive(partner string) ([]models.DeliveryAccount, error) {
	name := strings.TrimSpace(partner)
	if name == "" {
		return nil, errors.New("invalid partner")
	}
	var items []models.DeliveryAccount
	if err := r.db.Where("partner = ? AND is_active = ?", name, true).Order("id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// ListActivePartners 列出存在启用账号的配送方
func (r *GormDeliveryAccountRepository) ListActivePartners() ([]string, error) {
	var partners []string
	if err := r.db.Model(&models.DeliveryAccount{}).
		Where("is_active = ?", true).
		Distinct("partner").
		Order("partner ASC").
		Pluck("partner", &partners).Error; err != nil {
		return nil, err
	}
	return partners, nil
}

// List 账号列表
func (r *GormDeliveryAccountRepository) List(page, pageSize int) ([]models.DeliveryAccount, int64, error) {
	query := r.db.Model(&models.DeliveryAccount{})
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var items []models.DeliveryAccount
	if err := applyPagination(query.Order("id ASC"), page, pageSize).Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Create 创建账号
func (r *GormDeliveryAccountRepository) Create(item *models.DeliveryAccount) error {
	if item == nil {
		return errors.New("account is nil")
	}
	return r.db.Create(item).Error
}

// Update 更新账号
func (r *GormDeliveryAccountRepository) Update(item *models.DeliveryAccount) error {
	if item == nil {
		return errors.New("account is nil")
	}
	return r.db.Save(item).Error
}

// StampUsed 记录账号最近一次对账使用时间
func (r *GormDeliveryAccountRepository) StampUsed(id uint, usedAt time.Time) error {
	if id == 0 {
		return errors.New("invalid account id")
	}
	return r.db.Model(&models.DeliveryAccount{}).Where("id = ?", id).
		Update("last_used_at", usedAt).Error
}
