package service

import (
	"errors"
	"testing"
	"time"

	"github.com/tijara-next/internal/models"
	"github.com/tijara-next/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func newPeriodService(db *gorm.DB) *PeriodService {
	return NewPeriodService(
		repository.NewClosedPeriodRepository(db),
		repository.NewProfitRecordRepository(db),
	)
}

func TestClosePeriodRejectsBlankName(t *testing.T) {
	db := newTestDB(t, "period_blank_name")
	svc := newPeriodService(db)

	_, err := svc.ClosePeriod(ClosePeriodInput{
		Name:     "   ",
		StartsAt: time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC),
		EndsAt:   time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
	})
	if !errors.Is(err, ErrPeriodNameInvalid) {
		t.Fatalf("expected ErrPeriodNameInvalid, got %v", err)
	}

	var count int64
	if err := db.Model(&models.ClosedPeriod{}).Count(&count).Error; err != nil {
		t.Fatalf("count periods failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("blank name must not create a period, got %d", count)
	}
}

func TestClosePeriodRejectsInvalidRange(t *testing.T) {
	db := newTestDB(t, "period_bad_range")
	svc := newPeriodService(db)

	at := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	_, err := svc.ClosePeriod(ClosePeriodInput{Name: "2026-07", StartsAt: at, EndsAt: at})
	if !errors.Is(err, ErrPeriodRangeInvalid) {
		t.Fatalf("expected ErrPeriodRangeInvalid, got %v", err)
	}
}

func TestClosePeriodRejectsDuplicateName(t *testing.T) {
	db := newTestDB(t, "period_dup_name")
	svc := newPeriodService(db)

	input := ClosePeriodInput{
		Name:     "2026-07",
		StartsAt: time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC),
		EndsAt:   time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
	}
	if _, err := svc.ClosePeriod(input); err != nil {
		t.Fatalf("first close failed: %v", err)
	}
	if _, err := svc.ClosePeriod(input); !errors.Is(err, ErrPeriodNameTaken) {
		t.Fatalf("expected ErrPeriodNameTaken, got %v", err)
	}
}

func TestClosePeriodSnapshotsSettledRecords(t *testing.T) {
	db := newTestDB(t, "period_snapshot")
	svc := newPeriodService(db)

	inRange := time.Date(2026, 7, 15, 0, 0, 0, 0, time.UTC)
	outOfRange := time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)
	records := []models.ProfitRecord{
		{
			OrderID:   1,
			Revenue:   models.NewMoneyFromDecimal(decimal.NewFromInt(25000)),
			CostBasis: models.NewMoneyFromDecimal(decimal.NewFromInt(15000)),
			Profit:    models.NewMoneyFromDecimal(decimal.NewFromInt(10000)),
			SettledAt: &inRange,
		},
		{
			OrderID:   2,
			Revenue:   models.NewMoneyFromDecimal(decimal.NewFromInt(8000)),
			CostBasis: models.NewMoneyFromDecimal(decimal.NewFromInt(5000)),
			Profit:    models.NewMoneyFromDecimal(decimal.NewFromInt(3000)),
			SettledAt: &outOfRange,
		},
		{
			OrderID:   3,
			Revenue:   models.NewMoneyFromDecimal(decimal.NewFromInt(9999)),
			CostBasis: models.NewMoneyFromDecimal(decimal.NewFromInt(9999)),
		},
	}
	for i := range records {
		if err := db.Create(&records[i]).Error; err != nil {
			t.Fatalf("create profit record failed: %v", err)
		}
	}

	period, err := svc.ClosePeriod(ClosePeriodInput{
		Name:     "2026-07",
		StartsAt: time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC),
		EndsAt:   time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("ClosePeriod: %v", err)
	}

	// 区间外与未结算的记录都不计入快照
	if period.OrdersSettled != 1 {
		t.Fatalf("expected 1 settled order, got %d", period.OrdersSettled)
	}
	if !period.RevenueSnapshot.Decimal.Equal(decimal.NewFromInt(25000)) {
		t.Fatalf("revenue snapshot wrong: %s", period.RevenueSnapshot)
	}
	if !period.CogsSnapshot.Decimal.Equal(decimal.NewFromInt(15000)) {
		t.Fatalf("cogs snapshot wrong: %s", period.CogsSnapshot)
	}
}
