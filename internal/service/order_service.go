package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tijara-next/internal/constants"
	"github.com/tijara-next/internal/logger"
	"github.com/tijara-next/internal/models"
	"github.com/tijara-next/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CreateOrderItemInput 建单订单项输入
type CreateOrderItemInput struct {
	VariantID uint   `json:"variant_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,gt=0"`
	Direction string `json:"direction"`
}

// CreateOrderInput 建单输入
type CreateOrderInput struct {
	DeliveryPartner string                 `json:"delivery_partner"`
	TrackingNumber  string                 `json:"tracking_number"`
	PartnerOrderID  string                 `json:"partner_order_id"`
	QRID            string                 `json:"qr_id"`
	CustomerName    string                 `json:"customer_name"`
	CustomerPhone   string                 `json:"customer_phone"`
	Address         string                 `json:"address"`
	DeliveryFee     string                 `json:"delivery_fee"`
	EmployeeID      uint                   `json:"employee_id"`
	Notes           string                 `json:"notes"`
	Items           []CreateOrderItemInput `json:"items" binding:"required,min=1"`
}

// OrderService 订单服务
type OrderService struct {
	db              *gorm.DB
	orderRepo       repository.OrderRepository
	itemRepo        repository.OrderItemRepository
	variantRepo     repository.VariantRepository
	stockSvc        *StockService
	reservationSvc  *OrderReservationService
	profitSvc       *ProfitService
	verificationSvc *VerificationService
}

// NewOrderService 创建订单服务
func NewOrderService(
	db *gorm.DB,
	orderRepo repository.OrderRepository,
	itemRepo repository.OrderItemRepository,
	variantRepo repository.VariantRepository,
	stockSvc *StockService,
	reservationSvc *OrderReservationService,
	profitSvc *ProfitService,
	verificationSvc *VerificationService,
) *OrderService {
	return &OrderService{
		db:              db,
		orderRepo:       orderRepo,
		itemRepo:        itemRepo,
		variantRepo:     variantRepo,
		stockSvc:        stockSvc,
		reservationSvc:  reservationSvc,
		profitSvc:       profitSvc,
		verificationSvc: verificationSvc,
	}
}

// CreateOrder 建单并预占出库库存。
// 任一订单项预占失败时回滚已预占部分，整单失败。
func (s *OrderService) CreateOrder(input CreateOrderInput) (*models.Order, error) {
	if len(input.Items) == 0 {
		return nil, ErrOrderItemInvalid
	}
	partner := strings.TrimSpace(input.DeliveryPartner)
	if partner == "" {
		partner = constants.DeliveryPartnerLocal
	}

	variantIDs := make([]uint, 0, len(input.Items))
	for _, item := range input.Items {
		if item.VariantID == 0 || item.Quantity <= 0 {
			return nil, ErrOrderItemInvalid
		}
		variantIDs = append(variantIDs, item.VariantID)
	}
	variants, err := s.variantRepo.ListByIDs(variantIDs)
	if err != nil {
		return nil, err
	}
	variantByID := make(map[uint]*models.ProductVariant, len(variants))
	for i := range variants {
		variantByID[variants[i].ID] = &variants[i]
	}

	deliveryFee := decimal.Zero
	if strings.TrimSpace(input.DeliveryFee) != "" {
		deliveryFee, err = decimal.NewFromString(strings.TrimSpace(input.DeliveryFee))
		if err != nil {
			return nil, fmt.Errorf("%w: invalid delivery fee", ErrOrderItemInvalid)
		}
	}

	now := time.Now()
	salesAmount := decimal.Zero
	orderItems := make([]models.OrderItem, 0, len(input.Items))
	reserved := make([]CreateOrderItemInput, 0, len(input.Items))

	rollback := func() {
		for _, item := range reserved {
			if err := s.stockSvc.Release(item.VariantID, item.Quantity); err != nil && err != ErrOverRelease {
				logger.Errorw("order_create_rollback_failed",
					"variant_id", item.VariantID,
					"quantity", item.Quantity,
					"error", err,
				)
			}
		}
	}

	for _, item := range input.Items {
		variant := variantByID[item.VariantID]
		if variant == nil {
			rollback()
			return nil, ErrVariantNotFound
		}
		direction := strings.TrimSpace(item.Direction)
		if direction == "" {
			direction = constants.ItemDirectionOutgoing
		}

		orderItem := models.OrderItem{
			ProductID:     variant.ProductID,
			VariantID:     variant.ID,
			TitleSnapshot: variant.SKUCode,
			Quantity:      item.Quantity,
			UnitPrice:     variant.PriceAmount,
			CostPrice:     variant.CostPrice,
			ItemDirection: direction,
			ItemStatus:    constants.ItemStatusReserved,
		}
		if direction == constants.ItemDirectionOutgoing {
			if err := s.stockSvc.Reserve(variant.ID, item.Quantity); err != nil {
				rollback()
				return nil, err
			}
			reserved = append(reserved, item)
			orderItem.ReservedAt = &now
			salesAmount = salesAmount.Add(variant.PriceAmount.Decimal.Mul(decimal.NewFromInt(int64(item.Quantity))))
		}
		orderItems = append(orderItems, orderItem)
	}

	order := &models.Order{
		OrderNo:         generateOrderNo(),
		Status:          constants.OrderStatusPending,
		DeliveryPartner: partner,
		TrackingNumber:  strings.TrimSpace(input.TrackingNumber),
		PartnerOrderID:  strings.TrimSpace(input.PartnerOrderID),
		QRID:            strings.TrimSpace(input.QRID),
		CustomerName:    strings.TrimSpace(input.CustomerName),
		CustomerPhone:   strings.TrimSpace(input.CustomerPhone),
		Address:         strings.TrimSpace(input.Address),
		FinalAmount:     models.NewMoneyFromDecimal(salesAmount.Add(deliveryFee)),
		DeliveryFee:     models.NewMoneyFromDecimal(deliveryFee),
		SalesAmount:     models.NewMoneyFromDecimal(salesAmount),
		EmployeeID:      input.EmployeeID,
		Notes:           strings.TrimSpace(input.Notes),
		Items:           orderItems,
	}
	if err := s.orderRepo.Create(order); err != nil {
		rollback()
		return nil, err
	}

	if _, err := s.profitSvc.CreateForOrder(order); err != nil {
		logger.Warnw("order_profit_record_failed", "order_id", order.ID, "error", err)
	}

	logger.Infow("order_created",
		"order_id", order.ID,
		"order_no", order.OrderNo,
		"partner", order.DeliveryPartner,
		"items", len(order.Items),
	)
	return order, nil
}

// GetOrder 获取订单
func (s *OrderService) GetOrder(orderID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// ListOrders 管理端订单列表
func (s *OrderService) ListOrders(filter repository.OrderListFilter) ([]models.Order, int64, error) {
	return s.orderRepo.ListForAdmin(filter)
}

// UpdateStatus 更新订单状态并同步库存预留
func (s *OrderService) UpdateStatus(orderID uint, status, deliveryStatus string) (*SyncResult, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}

	updates := map[string]interface{}{}
	if v := strings.TrimSpace(status); v != "" && v != order.Status {
		updates["status"] = v
	}
	if v := strings.TrimSpace(deliveryStatus); v != "" && v != order.DeliveryStatus {
		updates["delivery_status"] = v
	}
	if len(updates) > 0 {
		if err := s.orderRepo.UpdateFields(orderID, updates); err != nil {
			return nil, err
		}
	}
	return s.reservationSvc.SyncOrderReservation(orderID)
}

// CompleteOrder 完结订单：已交付的出库订单项扣减在库数量并结算利润
func (s *OrderService) CompleteOrder(orderID uint) error {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return err
	}
	if order == nil {
		return ErrOrderNotFound
	}
	if order.Status == constants.OrderStatusCompleted {
		return nil
	}

	for i := range order.Items {
		item := &order.Items[i]
		if item.ItemDirection != constants.ItemDirectionOutgoing {
			continue
		}
		if item.ItemStatus != constants.ItemStatusDelivered {
			continue
		}
		if err := s.stockSvc.DeductOnHand(item.VariantID, item.Quantity); err != nil {
			if err == ErrInsufficientStock {
				logger.Warnw("order_complete_deduct_short",
					"order_id", orderID,
					"variant_id", item.VariantID,
					"quantity", item.Quantity,
				)
				continue
			}
			return err
		}
	}

	now := time.Now()
	if err := s.orderRepo.UpdateFields(orderID, map[string]interface{}{
		"status":       constants.OrderStatusCompleted,
		"completed_at": now,
	}); err != nil {
		return err
	}
	if err := s.profitSvc.Settle(orderID, now); err != nil {
		logger.Warnw("order_profit_settle_failed", "order_id", orderID, "error", err)
	}
	logger.Infow("order_completed", "order_id", orderID, "order_no", order.OrderNo)
	return nil
}

// DeleteOrder 删除订单。非本地配送的订单必须先通过远端双查确认不可见，
// 然后释放仍然有效的预留并清理利润记录。
func (s *OrderService) DeleteOrder(ctx context.Context, orderID uint) error {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return err
	}
	if order == nil {
		return ErrOrderNotFound
	}

	if order.DeliveryPartner != constants.DeliveryPartnerLocal {
		result, err := s.verificationSvc.VerifyOrderGone(ctx, order)
		if err != nil && err != ErrCredentialUnavailable {
			return err
		}
		if result.Exists && result.Verified {
			return ErrOrderStillRemote
		}
		if !result.Verified {
			return ErrVerificationAmbiguous
		}
	}

	if err := s.reservationSvc.ReleaseSurvivingReservations(orderID); err != nil {
		return err
	}
	if err := s.profitSvc.DeleteForOrder(orderID); err != nil {
		logger.Warnw("order_profit_delete_failed", "order_id", orderID, "error", err)
	}
	if err := s.orderRepo.Delete(orderID); err != nil {
		return err
	}
	logger.Infow("order_deleted", "order_id", orderID, "order_no", order.OrderNo)
	return nil
}

func generateOrderNo() string {
	return fmt.Sprintf("SO%s%s",
		time.Now().Format("20060102150405"),
		strings.ToUpper(uuid.NewString()[:8]),
	)
}
