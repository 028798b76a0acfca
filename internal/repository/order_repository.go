package repository

import (
	"errors"
	"strings"

	"github.com/tijara-next/internal/constants"
	"github.com/tijara-next/internal/models"

	"gorm.io/gorm"
)

// OrderRepository 订单数据访问接口
type OrderRepository interface {
	Create(order *models.Order) error
	GetByID(id uint) (*models.Order, error)
	GetByOrderNo(orderNo string) (*models.Order, error)
	ListActiveByPartner(partner string, terminalCodes []string) ([]models.Order, error)
	ListForAdmin(filter OrderListFilter) ([]models.Order, int64, error)
	UpdateFields(id uint, updates map[string]interface{}) error
	AppendNote(id uint, note string) error
	Delete(id uint) error
	WithTx(tx *gorm.DB) OrderRepository
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
func (r *GormOrderRepository) WithTx(tx *gorm.DB) OrderRepository {
	if tx == nil {
		return r
	}
	return &GormOrderRepository{db: tx}
}

// Create 创建订单（连同订单项）
func (r *GormOrderRepository) Create(order *models.Order) error {
	if order == nil {
		return errors.New("order is nil")
	}
	return r.db.Create(order).Error
}

// GetByID 根据 ID 获取订单（带订单项）
func (r *GormOrderRepository) GetByID(id uint) (*models.Order, error) {
	if id == 0 {
		return nil, errors.New("invalid order id")
	}
	var order models.Order
	if err := r.db.Preload("Items").First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// GetByOrderNo 根据订单编号获取订单
func (r *GormOrderRepository) GetByOrderNo(orderNo string) (*models.Order, error) {
	no := strings.TrimSpace(orderNo)
	if no == "" {
		return nil, errors.New("invalid order no")
	}
	var order models.Order
	if err := r.db.Preload("Items").Where("order_no = ?", no).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// ListActiveByPartner 获取指定配送方下仍需对账的订单。
// 已完结/已取消、以及配送状态已落入终态码的订单不再参与扫描。
func (r *GormOrderRepository) ListActiveByPartner(partner string, terminalCodes []string) ([]models.Order, error) {
	name := strings.TrimSpace(partner)
	if name == "" {
		return nil, errors.New("invalid partner")
	}
	query := r.db.Model(&models.Order{}).
		Preload("Items").
		Where("delivery_partner = ?", name).
		Where("status NOT IN ?", []string{constants.OrderStatusCompleted, constants.OrderStatusCancelled})
	if len(terminalCodes) > 0 {
		query = query.Where("delivery_status NOT IN ? OR delivery_status = '' OR delivery_status IS NULL", terminalCodes)
	}
	var orders []models.Order
	if err := query.Order("id ASC").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// ListForAdmin 管理端订单列表
func (r *GormOrderRepository) ListForAdmin(filter OrderListFilter) ([]models.Order, int64, error) {
	query := r.db.Model(&models.Order{})
	if status := strings.TrimSpace(filter.Status); status != "" {
		query = query.Where("status = ?", status)
	}
	if partner := strings.TrimSpace(filter.Partner); partner != "" {
		query = query.Where("delivery_partner = ?", partner)
	}
	if filter.EmployeeID > 0 {
		query = query.Where("employee_id = ?", filter.EmployeeID)
	}
	if orderNo := strings.TrimSpace(filter.OrderNo); orderNo != "" {
		query = query.Where("order_no = ?", orderNo)
	}
	if tracking := strings.TrimSpace(filter.Tracking); tracking != "" {
		query = query.Where("tracking_number = ?", tracking)
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

	var orders []models.Order
	if err := applyPagination(query.Order("id DESC"), filter.Page, filter.PageSize).Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// UpdateFields 更新订单字段
func (r *GormOrderRepository) UpdateFields(id uint, updates map[string]interface{}) error {
	if id == 0 {
		return errors.New("invalid order id")
	}
	if len(updates) == 0 {
		return nil
	}
	return r.db.Model(&models.Order{}).Where("id = ?", id).Updates(updates).Error
}

// AppendNote 追加审计备注
func (r *GormOrderRepository) AppendNote(id uint, note string) error {
	if id == 0 {
		return errors.New("invalid order id")
	}
	trimmed := strings.TrimSpace(note)
	if trimmed == "" {
		return nil
	}
	return r.db.Model(&models.Order{}).Where("id = ?", id).
		Update("notes", gorm.Expr("CASE WHEN notes = '' OR notes IS NULL THEN ? ELSE notes || ? END", trimmed, "\n"+trimmed)).Error
}

// Delete 删除订单（连同订单项，软删除）
func (r *GormOrderRepository) Delete(id uint) error {
	if id == 0 {
		return errors.New("invalid order id")
	}
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", id).Delete(&models.OrderItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Order{}, id).Error
	})
}
