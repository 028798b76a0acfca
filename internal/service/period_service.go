package service

import (
	"strings"
	"time"

	"github.com/tijara-next/internal/logger"
	"github.com/tijara-next/internal/models"
	"github.com/tijara-next/internal/repository"

	"github.com/shopspring/decimal"
)

// ClosePeriodInput 关账输入
type ClosePeriodInput struct {
	Name     string    `json:"name" binding:"required"`
	StartsAt time.Time `json:"starts_at" binding:"required"`
	EndsAt   time.Time `json:"ends_at" binding:"required"`
}

// PeriodService 结算周期服务。
// 关账时按区间内已结算的利润记录快照营收、成本与运费。
type PeriodService struct {
	periodRepo repository.ClosedPeriodRepository
	profitRepo repository.ProfitRecordRepository
}

// NewPeriodService 创建结算周期服务
func NewPeriodService(periodRepo repository.ClosedPeriodRepository, profitRepo repository.ProfitRecordRepository) *PeriodService {
	return &PeriodService{periodRepo: periodRepo, profitRepo: profitRepo}
}

// ClosePeriod 关账，区间快照落为不可变记录
func (s *PeriodService) ClosePeriod(input ClosePeriodInput) (*models.ClosedPeriod, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrPeriodNameInvalid
	}
	if !input.EndsAt.After(input.StartsAt) {
		return nil, ErrPeriodRangeInvalid
	}

	existing, err := s.periodRepo.GetByName(name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrPeriodNameTaken
	}

	records, err := s.profitRepo.ListSettledBetween(input.StartsAt, input.EndsAt)
	if err != nil {
		return nil, err
	}

	revenue := decimal.Zero
	cogs := decimal.Zero
	fees := decimal.Zero
	for i := range records {
		revenue = revenue.Add(records[i].Revenue.Decimal)
		cogs = cogs.Add(records[i].CostBasis.Decimal)
		fees = fees.Add(records[i].DeliveryFee.Decimal)
	}

	period := &models.ClosedPeriod{
		Name:            name,
		StartsAt:        input.StartsAt,
		EndsAt:          input.EndsAt,
		RevenueSnapshot: models.NewMoneyFromDecimal(revenue),
		CogsSnapshot:    models.NewMoneyFromDecimal(cogs),
		DeliveryFees:    models.NewMoneyFromDecimal(fees),
		OrdersSettled:   len(records),
		ClosedAt:        time.Now(),
	}
	if err := s.periodRepo.Create(period); err != nil {
		return nil, err
	}

	logger.Infow("period_closed",
		"name", name,
		"orders_settled", period.OrdersSettled,
		"revenue", period.RevenueSnapshot.String(),
	)
	return period, nil
}

// ListPeriods 结算周期列表
func (s *PeriodService) ListPeriods(page, pageSize int) ([]models.ClosedPeriod, int64, error) {
	return s.periodRepo.List(page, pageSize)
}

// GetPeriod 获取结算周期
func (s *PeriodService) GetPeriod(id uint) (*models.ClosedPeriod, error) {
	return s.periodRepo.GetByID(id)
}
