package service

import (
	"time"

	"github.com/tijara-next/internal/constants"
	"github.com/tijara-next/internal/logger"
	"github.com/tijara-next/internal/models"
	"github.com/tijara-next/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ProfitService 订单利润服务。
// 成本基数在建单时按订单项成本快照，后续价格变化只重算营收侧。
type ProfitService struct {
	profitRepo             repository.ProfitRecordRepository
	defaultEmployeePercent decimal.Decimal
}

// NewProfitService 创建利润服务
func NewProfitService(profitRepo repository.ProfitRecordRepository, defaultEmployeePercent float64) *ProfitService {
	return &ProfitService{
		profitRepo:             profitRepo,
		defaultEmployeePercent: decimal.NewFromFloat(defaultEmployeePercent),
	}
}

// WithTx 绑定事务
func (s *ProfitService) WithTx(tx *gorm.DB) *ProfitService {
	if tx == nil {
		return s
	}
	return &ProfitService{
		profitRepo:             s.profitRepo.WithTx(tx),
		defaultEmployeePercent: s.defaultEmployeePercent,
	}
}

// CreateForOrder 建单时创建利润记录，成本基数按出库订单项成本快照
func (s *ProfitService) CreateForOrder(order *models.Order) (*models.ProfitRecord, error) {
	if order == nil || order.ID == 0 {
		return nil, ErrOrderNotFound
	}

	costBasis := decimal.Zero
	for i := range order.Items {
		item := &order.Items[i]
		if item.ItemDirection != constants.ItemDirectionOutgoing {
			continue
		}
		costBasis = costBasis.Add(item.CostPrice.Decimal.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	revenue := order.SalesAmount.Decimal
	profit := revenue.Sub(costBasis)
	share := profit.Mul(s.defaultEmployeePercent).Div(decimal.NewFromInt(100))

	record := &models.ProfitRecord{
		OrderID:         order.ID,
		EmployeeID:      order.EmployeeID,
		Revenue:         models.NewMoneyFromDecimal(revenue),
		CostBasis:       models.NewMoneyFromDecimal(costBasis),
		DeliveryFee:     models.NewMoneyFromDecimal(order.DeliveryFee.Decimal),
		Profit:          models.NewMoneyFromDecimal(profit),
		EmployeePercent: models.NewMoneyFromDecimal(s.defaultEmployeePercent),
		EmployeeShare:   models.NewMoneyFromDecimal(share),
	}
	if err := s.profitRepo.Create(record); err != nil {
		return nil, err
	}
	return record, nil
}

// RecomputeTopline 价格漂移后重算营收侧，成本基数保持快照值不变
func (s *ProfitService) RecomputeTopline(orderID uint, revenue, deliveryFee decimal.Decimal) error {
	record, err := s.profitRepo.GetByOrderID(orderID)
	if err != nil {
		return err
	}
	if record == nil {
		logger.Debugw("profit_record_missing", "order_id", orderID)
		return nil
	}
	if record.SettledAt != nil {
		logger.Warnw("profit_recompute_after_settlement_skipped", "order_id", orderID)
		return nil
	}

	profit := revenue.Sub(record.CostBasis.Decimal)
	share := profit.Mul(record.EmployeePercent.Decimal).Div(decimal.NewFromInt(100))

	return s.profitRepo.UpdateFields(record.ID, map[string]interface{}{
		"revenue":        models.NewMoneyFromDecimal(revenue),
		"delivery_fee":   models.NewMoneyFromDecimal(deliveryFee),
		"profit":         models.NewMoneyFromDecimal(profit),
		"employee_share": models.NewMoneyFromDecimal(share),
	})
}

// Settle 订单完结时结算利润
func (s *ProfitService) Settle(orderID uint, settledAt time.Time) error {
	record, err := s.profitRepo.GetByOrderID(orderID)
	if err != nil {
		return err
	}
	if record == nil {
		logger.Debugw("profit_record_missing", "order_id", orderID)
		return nil
	}
	if record.SettledAt != nil {
		return nil
	}
	return s.profitRepo.UpdateFields(record.ID, map[string]interface{}{
		"settled_at": settledAt,
	})
}

// DeleteForOrder 删除订单时清理利润记录
func (s *ProfitService) DeleteForOrder(orderID uint) error {
	return s.profitRepo.DeleteByOrderID(orderID)
}
