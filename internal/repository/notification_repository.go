package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/tijara-next/internal/models"

	"gorm.io/gorm"
)

// NotificationRepository 通知数据访问接口
type NotificationRepository interface {
	Create(item *models.Notification) error
	List(filter NotificationListFilter) ([]models.Notification, int64, error)
	MarkRead(id uint, readAt time.Time) error
	CountSince(notificationType string, since time.Time) (int64, error)
	WithTx(tx *gorm.DB) NotificationRepository
}

// GormNotificationRepository GORM 实现
type GormNotificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository 创建通知仓库
func NewNotificationRepository(db *gorm.DB) *GormNotificationRepository {
	return &GormNotificationRepository{db: db}
}

// WithTx 绑定事务
func (r *GormNotificationRepository) WithTx(tx *gorm.DB) NotificationRepository {
	if tx == nil {
		return r
	}
	return &GormNotificationRepository{db: tx}
}

// Create 创建通知
func (r *GormNotificationRepository) Create(item *models.Notification) error {
	if item == nil {
		return errors.New("notification is nil")
	}
	return r.db.Create(item).Error
}

// List 通知列表
func (r *GormNotificationRepository) List(filter NotificationListFilter) ([]models.Notification, int64, error) {
	query := r.db.Model(&models.Notification{})
	if filter.UserID > 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if t := strings.TrimSpace(filter.Type); t != "" {
		query = query.Where("type = ?", t)
	}
	if filter.UnreadOnly {
		query = query.Where("read_at IS NULL")
	}
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var items []models.Notification
	if err := applyPagination(query.Order("id DESC"), filter.Page, filter.PageSize).Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// MarkRead 标记已读
func (r *GormNotificationRepository) MarkRead(id uint, readAt time.Time) error {
	if id == 0 {
		return errors.New("invalid notification id")
	}
	return r.db.Model(&models.Notification{}).
		Where("id = ? AND read_at IS NULL", id).
		Update("read_at", readAt).Error
}

// CountSince 统计某类型在指定时间之后的通知数
func (r *GormNotificationRepository) CountSince(notificationType string, since time.Time) (int64, error) {
	var count int64
	query := r.db.Model(&models.Notification{}).Where("created_at >= ?", since)
	if t := strings.TrimSpace(notificationType); t != "" {
		query = query.Where("type = ?", t)
	}
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
