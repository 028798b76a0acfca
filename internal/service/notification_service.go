package service

import (
	"context"
	"fmt"
	"time"

	"github.com/tijara-next/internal/cache"
	"github.com/tijara-next/internal/constants"
	"github.com/tijara-next/internal/logger"
	"github.com/tijara-next/internal/models"
	"github.com/tijara-next/internal/repository"
)

// 同一订单同一变更内容的通知在去重窗口内只落一条
const notifyDedupeTTL = 24 * time.Hour

// NotificationService 运营通知服务
type NotificationService struct {
	notificationRepo repository.NotificationRepository
}

// NewNotificationService 创建通知服务
func NewNotificationService(notificationRepo repository.NotificationRepository) *NotificationService {
	return &NotificationService{notificationRepo: notificationRepo}
}

// NotifyOnce 去重发送通知。dedupeKey 相同的通知在窗口内只发一次，
// 返回是否真正落库。
func (s *NotificationService) NotifyOnce(ctx context.Context, dedupeKey string, item *models.Notification) (bool, error) {
	if item == nil {
		return false, nil
	}
	if dedupeKey != "" {
		first, err := cache.SetNX(ctx, "notify:"+dedupeKey, 1, notifyDedupeTTL)
		if err != nil {
			// 缓存故障时宁可重复也不丢通知
			logger.Warnw("notify_dedupe_check_failed", "key", dedupeKey, "error", err)
		} else if !first {
			return false, nil
		}
	}
	if err := s.notificationRepo.Create(item); err != nil {
		return false, err
	}
	return true, nil
}

// NotifyOrderStatusChanged 订单配送状态变化通知
func (s *NotificationService) NotifyOrderStatusChanged(ctx context.Context, order *models.Order, oldCode, newCode, newLabel string) (bool, error) {
	key := fmt.Sprintf("order:%d:status:%s", order.ID, newCode)
	return s.NotifyOnce(ctx, key, &models.Notification{
		Type:    constants.NotificationTypeOrderStatusChanged,
		Title:   fmt.Sprintf("订单 %s 配送状态更新", order.OrderNo),
		Message: fmt.Sprintf("配送状态从 %s 变为 %s (%s)", oldCode, newCode, newLabel),
		DataJSON: models.JSON{
			"order_id":   order.ID,
			"order_no":   order.OrderNo,
			"old_status": oldCode,
			"new_status": newCode,
		},
	})
}

// NotifyOrderPriceChanged 订单金额漂移通知
func (s *NotificationService) NotifyOrderPriceChanged(ctx context.Context, order *models.Order, oldAmount, newAmount string) (bool, error) {
	key := fmt.Sprintf("order:%d:price:%s", order.ID, newAmount)
	return s.NotifyOnce(ctx, key, &models.Notification{
		Type:    constants.NotificationTypeOrderPriceChanged,
		Title:   fmt.Sprintf("订单 %s 金额变更", order.OrderNo),
		Message: fmt.Sprintf("订单金额从 %s 调整为 %s", oldAmount, newAmount),
		DataJSON: models.JSON{
			"order_id":   order.ID,
			"order_no":   order.OrderNo,
			"old_amount": oldAmount,
			"new_amount": newAmount,
		},
	})
}

// List 通知列表
func (s *NotificationService) List(filter repository.NotificationListFilter) ([]models.Notification, int64, error) {
	return s.notificationRepo.List(filter)
}

// MarkRead 标记已读
func (s *NotificationService) MarkRead(id uint) error {
	return s.notificationRepo.MarkRead(id, time.Now())
}
