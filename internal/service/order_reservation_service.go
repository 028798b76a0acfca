package service

import (
	"fmt"
	"time"

	"github.com/tijara-next/internal/constants"
	"github.com/tijara-next/internal/logger"
	"github.com/tijara-next/internal/models"
	"github.com/tijara-next/internal/repository"

	"gorm.io/gorm"
)

// ReservationAction 一次预留同步的结果
type ReservationAction string

const (
	ReservationActionReleased ReservationAction = "released"
	ReservationActionKept     ReservationAction = "kept"
	ReservationActionNoChange ReservationAction = "no_change"
)

// SyncResult 预留同步结果
type SyncResult struct {
	Action       ReservationAction
	ItemsTouched int
	ItemErrors   []error
}

// OrderReservationService 订单预留协调服务。
// 按订单的配送方、订单状态与配送状态码对每个出库订单项逐一判定，
// 默认逐项尽力执行，strictTx 开启时整单包在一个事务里。
type OrderReservationService struct {
	db        *gorm.DB
	orderRepo repository.OrderRepository
	itemRepo  repository.OrderItemRepository
	stockSvc  *StockService
	strictTx  bool
}

// NewOrderReservationService 创建预留协调服务
func NewOrderReservationService(
	db *gorm.DB,
	orderRepo repository.OrderRepository,
	itemRepo repository.OrderItemRepository,
	stockSvc *StockService,
	strictTx bool,
) *OrderReservationService {
	return &OrderReservationService{
		db:        db,
		orderRepo: orderRepo,
		itemRepo:  itemRepo,
		stockSvc:  stockSvc,
		strictTx:  strictTx,
	}
}

func (s *OrderReservationService) withTx(tx *gorm.DB) *OrderReservationService {
	return &OrderReservationService{
		db:        tx,
		orderRepo: s.orderRepo.WithTx(tx),
		itemRepo:  s.itemRepo.WithTx(tx),
		stockSvc:  s.stockSvc.WithTx(tx),
		strictTx:  s.strictTx,
	}
}

// SyncOrderReservation 将订单的库存预留同步到当前状态。
// 入库方向的订单项不参与预留，跳过。
func (s *OrderReservationService) SyncOrderReservation(orderID uint) (*SyncResult, error) {
	if orderID == 0 {
		return nil, ErrOrderNotFound
	}

	if s.strictTx {
		var result *SyncResult
		err := s.db.Transaction(func(tx *gorm.DB) error {
			var syncErr error
			result, syncErr = s.withTx(tx).syncOnce(orderID, true)
			return syncErr
		})
		if err != nil {
			return nil, err
		}
		return result, nil
	}
	return s.syncOnce(orderID, false)
}

func (s *OrderReservationService) syncOnce(orderID uint, strict bool) (*SyncResult, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}

	result := &SyncResult{Action: ReservationActionNoChange}
	for i := range order.Items {
		item := &order.Items[i]
		if item.ItemDirection != constants.ItemDirectionOutgoing {
			continue
		}
		action, err := s.syncItem(order, item)
		if err != nil {
			if strict {
				return nil, err
			}
			result.ItemErrors = append(result.ItemErrors, fmt.Errorf("item %d: %w", item.ID, err))
			logger.Warnw("reservation_sync_item_failed",
				"order_id", order.ID,
				"item_id", item.ID,
				"error", err,
			)
			continue
		}
		if action != ReservationActionNoChange {
			result.ItemsTouched++
			result.Action = action
		}
	}
	return result, nil
}

// syncItem 同步单个出库订单项的预留
func (s *OrderReservationService) syncItem(order *models.Order, item *models.OrderItem) (ReservationAction, error) {
	policyItemStatus := item.ItemStatus
	if policyItemStatus == constants.ItemStatusReserved {
		policyItemStatus = ""
	}

	if ShouldReleaseStock(order.DeliveryPartner, order.Status, order.DeliveryStatus, policyItemStatus) {
		return s.releaseItem(order, item)
	}
	if ShouldKeepReservation(order.DeliveryPartner, order.Status, order.DeliveryStatus) {
		return s.keepItem(item)
	}
	return ReservationActionNoChange, nil
}

// releaseItem 释放订单项预留。已打过交付或退货戳记的订单项直接跳过，重复同步无副作用。
func (s *OrderReservationService) releaseItem(order *models.Order, item *models.OrderItem) (ReservationAction, error) {
	if item.DeliveredAt != nil || item.ReturnedAt != nil {
		return ReservationActionNoChange, nil
	}

	if err := s.stockSvc.Release(item.VariantID, item.Quantity); err != nil {
		// 超量释放已被兜底清零，继续打戳记
		if err != ErrOverRelease {
			return ReservationActionNoChange, err
		}
	}

	now := time.Now()
	if isReturnOutcome(order.DeliveryPartner, order.Status, order.DeliveryStatus) {
		if err := s.stockSvc.Return(item.VariantID, item.Quantity); err != nil {
			return ReservationActionNoChange, err
		}
		if err := s.itemRepo.UpdateFields(item.ID, map[string]interface{}{
			"item_status":       constants.ItemStatusReturned,
			"quantity_returned": item.Quantity,
			"returned_at":       now,
		}); err != nil {
			return ReservationActionNoChange, err
		}
		item.ItemStatus = constants.ItemStatusReturned
		item.ReturnedAt = &now
		return ReservationActionReleased, nil
	}

	if err := s.itemRepo.UpdateFields(item.ID, map[string]interface{}{
		"item_status":        constants.ItemStatusDelivered,
		"quantity_delivered": item.Quantity,
		"delivered_at":       now,
	}); err != nil {
		return ReservationActionNoChange, err
	}
	item.ItemStatus = constants.ItemStatusDelivered
	item.DeliveredAt = &now
	return ReservationActionReleased, nil
}

// keepItem 保障在途订单项的预留存在。仅对从未预占过的订单项补占，
// 预占不足按非致命告警处理。
func (s *OrderReservationService) keepItem(item *models.OrderItem) (ReservationAction, error) {
	if item.ReservedAt != nil || item.DeliveredAt != nil || item.ReturnedAt != nil {
		return ReservationActionNoChange, nil
	}

	if err := s.stockSvc.Reserve(item.VariantID, item.Quantity); err != nil {
		if err == ErrInsufficientStock {
			logger.Warnw("reservation_keep_insufficient_stock",
				"item_id", item.ID,
				"variant_id", item.VariantID,
				"quantity", item.Quantity,
			)
			return ReservationActionNoChange, nil
		}
		return ReservationActionNoChange, err
	}

	now := time.Now()
	if err := s.itemRepo.UpdateFields(item.ID, map[string]interface{}{
		"item_status": constants.ItemStatusReserved,
		"reserved_at": now,
	}); err != nil {
		return ReservationActionNoChange, err
	}
	item.ReservedAt = &now
	return ReservationActionKept, nil
}

// ReleaseDeliveredItems 部分交付：释放已交付订单项的预留，
// 其余仍预留的出库订单项转入 pending_return 等待回仓。
// 返回本次实际打上交付戳记的订单项数。
func (s *OrderReservationService) ReleaseDeliveredItems(orderID uint, deliveredItemIDs []uint) (int, error) {
	if orderID == 0 {
		return 0, ErrOrderNotFound
	}
	if len(deliveredItemIDs) == 0 {
		return 0, ErrOrderItemInvalid
	}

	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return 0, err
	}
	if order == nil {
		return 0, ErrOrderNotFound
	}

	delivered := make(map[uint]bool, len(deliveredItemIDs))
	for _, id := range deliveredItemIDs {
		delivered[id] = true
	}

	// 校验交付清单全部属于该订单且为出库方向
	known := make(map[uint]bool, len(order.Items))
	for i := range order.Items {
		item := &order.Items[i]
		if item.ItemDirection != constants.ItemDirectionOutgoing {
			continue
		}
		known[item.ID] = true
	}
	for id := range delivered {
		if !known[id] {
			return 0, fmt.Errorf("%w: item %d not an outgoing item of order %d", ErrOrderItemInvalid, id, orderID)
		}
	}

	now := time.Now()
	deliveredCount := 0
	for i := range order.Items {
		item := &order.Items[i]
		if item.ItemDirection != constants.ItemDirectionOutgoing {
			continue
		}
		if item.DeliveredAt != nil || item.ReturnedAt != nil {
			continue
		}

		if delivered[item.ID] {
			if err := s.stockSvc.Release(item.VariantID, item.Quantity); err != nil && err != ErrOverRelease {
				return deliveredCount, err
			}
			if err := s.itemRepo.UpdateFields(item.ID, map[string]interface{}{
				"item_status":        constants.ItemStatusDelivered,
				"quantity_delivered": item.Quantity,
				"delivered_at":       now,
			}); err != nil {
				return deliveredCount, err
			}
			deliveredCount++
			continue
		}

		// 未交付部分进入待退货状态，预留保持到货物回仓
		if item.ItemStatus == constants.ItemStatusPendingReturn {
			continue
		}
		if err := s.itemRepo.UpdateFields(item.ID, map[string]interface{}{
			"item_status": constants.ItemStatusPendingReturn,
		}); err != nil {
			return deliveredCount, err
		}
	}

	logger.Infow("partial_delivery_applied",
		"order_id", orderID,
		"delivered_items", deliveredCount,
	)
	return deliveredCount, nil
}

// ReturnUndeliveredItems 部分交付的收尾：把 pending_return 的订单项回仓，
// 释放预留并物理入库。返回回仓的订单项数。
func (s *OrderReservationService) ReturnUndeliveredItems(orderID uint) (int, error) {
	if orderID == 0 {
		return 0, ErrOrderNotFound
	}

	items, err := s.itemRepo.ListByOrder(orderID)
	if err != nil {
		return 0, err
	}

	now := time.Now()
	returned := 0
	for i := range items {
		item := &items[i]
		if item.ItemDirection != constants.ItemDirectionOutgoing {
			continue
		}
		if item.ItemStatus != constants.ItemStatusPendingReturn {
			continue
		}

		if err := s.stockSvc.Release(item.VariantID, item.Quantity); err != nil && err != ErrOverRelease {
			return returned, err
		}
		if err := s.stockSvc.Return(item.VariantID, item.Quantity); err != nil {
			return returned, err
		}
		if err := s.itemRepo.UpdateFields(item.ID, map[string]interface{}{
			"item_status":       constants.ItemStatusReturned,
			"quantity_returned": item.Quantity,
			"returned_at":       now,
		}); err != nil {
			return returned, err
		}
		returned++
	}

	if returned > 0 {
		logger.Infow("undelivered_items_returned",
			"order_id", orderID,
			"items", returned,
		)
	}
	return returned, nil
}

// ReleaseSurvivingReservations 删除订单前清理仍然有效的预留
func (s *OrderReservationService) ReleaseSurvivingReservations(orderID uint) error {
	items, err := s.itemRepo.ListByOrder(orderID)
	if err != nil {
		return err
	}
	for i := range items {
		item := &items[i]
		if item.ItemDirection != constants.ItemDirectionOutgoing {
			continue
		}
		if item.DeliveredAt != nil || item.ReturnedAt != nil {
			continue
		}
		if item.ReservedAt == nil {
			continue
		}
		if err := s.stockSvc.Release(item.VariantID, item.Quantity); err != nil && err != ErrOverRelease {
			return err
		}
	}
	return nil
}
