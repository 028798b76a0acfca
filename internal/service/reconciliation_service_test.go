package service

import (
	"context"
	"errors"
	"testing"

	"github.com/tijara-next/internal/constants"
	"github.com/tijara-next/internal/delivery"
	"github.com/tijara-next/internal/models"
	"github.com/tijara-next/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// fakeGateway 按凭证标识返回预置订单
type fakeGateway struct {
	ordersByLabel map[string][]delivery.RemoteOrder
	failLabels    map[string]bool
	listCalls     int
}

func (g *fakeGateway) Partner() string { return constants.DeliveryPartnerAlWaseet }

func (g *fakeGateway) ListMerchantOrders(_ context.Context, cred delivery.Credential) ([]delivery.RemoteOrder, error) {
	g.listCalls++
	if g.failLabels[cred.Label] {
		return nil, errors.New("token rejected")
	}
	return g.ordersByLabel[cred.Label], nil
}

func (g *fakeGateway) GetOrderByID(_ context.Context, cred delivery.Credential, remoteID string) (*delivery.RemoteOrder, error) {
	for _, order := range g.ordersByLabel[cred.Label] {
		if order.ID == remoteID {
			o := order
			return &o, nil
		}
	}
	return nil, nil
}

func (g *fakeGateway) GetOrderByTracking(_ context.Context, cred delivery.Credential, tracking string) (*delivery.RemoteOrder, error) {
	for _, order := range g.ordersByLabel[cred.Label] {
		if order.TrackingNumber == tracking {
			o := order
			return &o, nil
		}
	}
	return nil, nil
}

func (g *fakeGateway) LocalStatusFor(code string) (string, bool) {
	switch code {
	case constants.AlWaseetCodeReceived:
		return constants.OrderStatusShipped, true
	case constants.AlWaseetCodeInTransit, constants.AlWaseetCodeOutForDelivery:
		return constants.OrderStatusInDelivery, true
	case constants.AlWaseetCodeDelivered:
		return constants.OrderStatusDelivered, true
	case constants.AlWaseetCodeReturnedInStock:
		return constants.OrderStatusReturnedInStock, true
	case constants.AlWaseetCodeCancelled, constants.AlWaseetCodeRejected:
		return constants.OrderStatusCancelled, true
	}
	return "", false
}

func (g *fakeGateway) TerminalStatuses() []string {
	return []string{
		constants.AlWaseetCodeDelivered,
		constants.AlWaseetCodeReturnedInStock,
		constants.AlWaseetCodeCancelled,
		constants.AlWaseetCodeRejected,
	}
}

func newSweepFixture(t *testing.T, db *gorm.DB, gw delivery.Gateway) *ReconciliationService {
	t.Helper()
	registry := delivery.NewRegistry()
	registry.Register(gw)
	orderRepo := repository.NewOrderRepository(db)
	itemRepo := repository.NewOrderItemRepository(db)
	stockSvc := NewStockService(repository.NewVariantRepository(db))
	reservationSvc := NewOrderReservationService(db, orderRepo, itemRepo, stockSvc, false)
	profitSvc := NewProfitService(repository.NewProfitRecordRepository(db), 10)
	notificationSvc := NewNotificationService(repository.NewNotificationRepository(db))
	return NewReconciliationService(
		registry,
		repository.NewDeliveryAccountRepository(db),
		orderRepo,
		repository.NewSweepLogRepository(db),
		reservationSvc,
		profitSvc,
		notificationSvc,
	)
}

func createSweepAccount(t *testing.T, db *gorm.DB, label string) *models.DeliveryAccount {
	t.Helper()
	account := models.DeliveryAccount{
		Partner:  constants.DeliveryPartnerAlWaseet,
		Label:    label,
		Token:    "tok-" + label,
		IsActive: true,
	}
	if err := db.Create(&account).Error; err != nil {
		t.Fatalf("create account failed: %v", err)
	}
	return &account
}

func TestSweepAppliesStatusAndReleasesStock(t *testing.T) {
	db := newTestDB(t, "sweep_status")
	variant := createTestVariant(t, db, 10, 2)
	order := createReservedOrder(t, db, constants.DeliveryPartnerAlWaseet,
		constants.OrderStatusInDelivery, constants.AlWaseetCodeInTransit, variant, 2)
	if err := db.Model(order).Updates(map[string]interface{}{
		"partner_order_id": "9001",
		"tracking_number":  "TRK-1",
	}).Error; err != nil {
		t.Fatalf("update order failed: %v", err)
	}
	createSweepAccount(t, db, "main")

	gw := &fakeGateway{ordersByLabel: map[string][]delivery.RemoteOrder{
		"main": {{
			ID:             "9001",
			TrackingNumber: "TRK-1",
			StatusCode:     constants.AlWaseetCodeDelivered,
			StatusLabel:    "Delivered",
		}},
	}}
	svc := newSweepFixture(t, db, gw)

	report, err := svc.Sweep(context.Background(), constants.DeliveryPartnerAlWaseet, "manual")
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if report.OrdersChecked != 1 || report.OrdersUpdated != 1 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if report.Changes[0].MatchedKey != "id_9001" {
		t.Fatalf("match must prefer partner order id, got %s", report.Changes[0].MatchedKey)
	}

	var updated models.Order
	if err := db.First(&updated, order.ID).Error; err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if updated.DeliveryStatus != constants.AlWaseetCodeDelivered || updated.Status != constants.OrderStatusDelivered {
		t.Fatalf("status delta not applied: %+v", updated)
	}
	if updated.StatusCheckedAt == nil {
		t.Fatal("status_checked_at not stamped")
	}
	if updated.DeliveryAccountUsed != "main" {
		t.Fatalf("account attribution missing, got %q", updated.DeliveryAccountUsed)
	}

	got := reloadVariant(t, db, variant.ID)
	if got.Reserved != 0 {
		t.Fatalf("reservation not released after status change, reserved=%d", got.Reserved)
	}

	var logCount int64
	if err := db.Model(&models.SweepLog{}).Count(&logCount).Error; err != nil {
		t.Fatalf("count sweep logs failed: %v", err)
	}
	if logCount != 1 {
		t.Fatalf("expected 1 sweep log, got %d", logCount)
	}

	var noticeCount int64
	if err := db.Model(&models.Notification{}).Count(&noticeCount).Error; err != nil {
		t.Fatalf("count notifications failed: %v", err)
	}
	if noticeCount != 1 {
		t.Fatalf("status delta must emit exactly 1 notification, got %d", noticeCount)
	}
}

func TestSweepRerunOnlyStampsTimestamp(t *testing.T) {
	db := newTestDB(t, "sweep_rerun")
	variant := createTestVariant(t, db, 10, 2)
	order := createReservedOrder(t, db, constants.DeliveryPartnerAlWaseet,
		constants.OrderStatusInDelivery, constants.AlWaseetCodeInTransit, variant, 2)
	if err := db.Model(order).Update("tracking_number", "TRK-1").Error; err != nil {
		t.Fatalf("update order failed: %v", err)
	}
	createSweepAccount(t, db, "main")

	gw := &fakeGateway{ordersByLabel: map[string][]delivery.RemoteOrder{
		"main": {{TrackingNumber: "TRK-1", StatusCode: constants.AlWaseetCodeInTransit}},
	}}
	svc := newSweepFixture(t, db, gw)

	first, err := svc.Sweep(context.Background(), constants.DeliveryPartnerAlWaseet, "manual")
	if err != nil {
		t.Fatalf("first sweep: %v", err)
	}
	// 归属账号首次写入也算一次变更
	if first.OrdersUpdated != 1 {
		t.Fatalf("unexpected first report: %+v", first)
	}

	second, err := svc.Sweep(context.Background(), constants.DeliveryPartnerAlWaseet, "manual")
	if err != nil {
		t.Fatalf("second sweep: %v", err)
	}
	if second.OrdersUpdated != 0 {
		t.Fatalf("rerun must not report updates: %+v", second)
	}

	var noticeCount int64
	if err := db.Model(&models.Notification{}).Count(&noticeCount).Error; err != nil {
		t.Fatalf("count notifications failed: %v", err)
	}
	if noticeCount != 0 {
		t.Fatalf("unchanged reruns must emit no notifications, got %d", noticeCount)
	}

	var updated models.Order
	if err := db.First(&updated, order.ID).Error; err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if updated.StatusCheckedAt == nil {
		t.Fatal("rerun must still stamp status_checked_at")
	}
	got := reloadVariant(t, db, variant.ID)
	if got.Reserved != 2 {
		t.Fatalf("in-transit order must keep reservation, reserved=%d", got.Reserved)
	}
}

func TestSweepPriceDriftRecomputesProfit(t *testing.T) {
	db := newTestDB(t, "sweep_price")
	variant := createTestVariant(t, db, 10, 1)
	order := createReservedOrder(t, db, constants.DeliveryPartnerAlWaseet,
		constants.OrderStatusInDelivery, constants.AlWaseetCodeInTransit, variant, 1)
	if err := db.Model(order).Updates(map[string]interface{}{
		"tracking_number": "TRK-9",
		"final_amount":    models.NewMoneyFromDecimal(decimal.NewFromInt(30000)),
		"delivery_fee":    models.NewMoneyFromDecimal(decimal.NewFromInt(5000)),
		"sales_amount":    models.NewMoneyFromDecimal(decimal.NewFromInt(25000)),
	}).Error; err != nil {
		t.Fatalf("update order failed: %v", err)
	}
	profit := models.ProfitRecord{
		OrderID:         order.ID,
		Revenue:         models.NewMoneyFromDecimal(decimal.NewFromInt(25000)),
		CostBasis:       models.NewMoneyFromDecimal(decimal.NewFromInt(15000)),
		Profit:          models.NewMoneyFromDecimal(decimal.NewFromInt(10000)),
		EmployeePercent: models.NewMoneyFromDecimal(decimal.NewFromInt(10)),
	}
	if err := db.Create(&profit).Error; err != nil {
		t.Fatalf("create profit record failed: %v", err)
	}
	createSweepAccount(t, db, "main")

	gw := &fakeGateway{ordersByLabel: map[string][]delivery.RemoteOrder{
		"main": {{
			TrackingNumber: "TRK-9",
			StatusCode:     constants.AlWaseetCodeInTransit,
			Price:          decimal.NewFromInt(27000),
			DeliveryFee:    decimal.NewFromInt(5000),
		}},
	}}
	svc := newSweepFixture(t, db, gw)

	report, err := svc.Sweep(context.Background(), constants.DeliveryPartnerAlWaseet, "manual")
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if report.OrdersUpdated != 1 {
		t.Fatalf("unexpected report: %+v", report)
	}

	var updated models.Order
	if err := db.First(&updated, order.ID).Error; err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if !updated.FinalAmount.Decimal.Equal(decimal.NewFromInt(27000)) {
		t.Fatalf("final amount not updated: %s", updated.FinalAmount)
	}
	if !updated.SalesAmount.Decimal.Equal(decimal.NewFromInt(22000)) {
		t.Fatalf("sales amount must exclude delivery fee: %s", updated.SalesAmount)
	}
	if updated.Notes == "" {
		t.Fatal("price drift must leave an audit note")
	}

	var updatedProfit models.ProfitRecord
	if err := db.Where("order_id = ?", order.ID).First(&updatedProfit).Error; err != nil {
		t.Fatalf("reload profit failed: %v", err)
	}
	// 成本基数保持快照，利润 = 22000 - 15000
	if !updatedProfit.CostBasis.Decimal.Equal(decimal.NewFromInt(15000)) {
		t.Fatalf("cost basis must stay snapshotted: %s", updatedProfit.CostBasis)
	}
	if !updatedProfit.Profit.Decimal.Equal(decimal.NewFromInt(7000)) {
		t.Fatalf("profit not recomputed: %s", updatedProfit.Profit)
	}
}

func TestSweepPartialCredentialFailure(t *testing.T) {
	db := newTestDB(t, "sweep_partial_cred")
	variant := createTestVariant(t, db, 10, 1)
	order := createReservedOrder(t, db, constants.DeliveryPartnerAlWaseet,
		constants.OrderStatusInDelivery, constants.AlWaseetCodeInTransit, variant, 1)
	if err := db.Model(order).Update("tracking_number", "TRK-2").Error; err != nil {
		t.Fatalf("update order failed: %v", err)
	}
	createSweepAccount(t, db, "broken")
	createSweepAccount(t, db, "working")

	gw := &fakeGateway{
		ordersByLabel: map[string][]delivery.RemoteOrder{
			"working": {{TrackingNumber: "TRK-2", StatusCode: constants.AlWaseetCodeDelivered}},
		},
		failLabels: map[string]bool{"broken": true},
	}
	svc := newSweepFixture(t, db, gw)

	report, err := svc.Sweep(context.Background(), constants.DeliveryPartnerAlWaseet, "manual")
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if report.AccountsUsed != 1 || report.AccountsFailed != 1 {
		t.Fatalf("unexpected credential accounting: %+v", report)
	}
	if report.OrdersUpdated != 1 {
		t.Fatalf("surviving credential must still reconcile: %+v", report)
	}
}

func TestSweepAllCredentialsFail(t *testing.T) {
	db := newTestDB(t, "sweep_all_fail")
	createSweepAccount(t, db, "broken")

	gw := &fakeGateway{failLabels: map[string]bool{"broken": true}}
	svc := newSweepFixture(t, db, gw)

	_, err := svc.Sweep(context.Background(), constants.DeliveryPartnerAlWaseet, "manual")
	if !errors.Is(err, ErrNoUsableCredentials) {
		t.Fatalf("expected ErrNoUsableCredentials, got %v", err)
	}
}

func TestSweepNoAccountsConfigured(t *testing.T) {
	db := newTestDB(t, "sweep_no_accounts")
	gw := &fakeGateway{}
	svc := newSweepFixture(t, db, gw)

	_, err := svc.Sweep(context.Background(), constants.DeliveryPartnerAlWaseet, "manual")
	if !errors.Is(err, ErrNoUsableCredentials) {
		t.Fatalf("expected ErrNoUsableCredentials, got %v", err)
	}
}

func TestSweepUnknownPartner(t *testing.T) {
	db := newTestDB(t, "sweep_unknown_partner")
	gw := &fakeGateway{}
	svc := newSweepFixture(t, db, gw)

	_, err := svc.Sweep(context.Background(), "nonexistent", "manual")
	if !errors.Is(err, delivery.ErrPartnerNotConfigured) {
		t.Fatalf("expected ErrPartnerNotConfigured, got %v", err)
	}
}

func TestSweepUnknownStatusCodeKeepsLocalState(t *testing.T) {
	db := newTestDB(t, "sweep_unknown_code")
	variant := createTestVariant(t, db, 10, 1)
	order := createReservedOrder(t, db, constants.DeliveryPartnerAlWaseet,
		constants.OrderStatusInDelivery, constants.AlWaseetCodeInTransit, variant, 1)
	if err := db.Model(order).Update("tracking_number", "TRK-3").Error; err != nil {
		t.Fatalf("update order failed: %v", err)
	}
	createSweepAccount(t, db, "main")

	gw := &fakeGateway{ordersByLabel: map[string][]delivery.RemoteOrder{
		"main": {{TrackingNumber: "TRK-3", StatusCode: "99"}},
	}}
	svc := newSweepFixture(t, db, gw)

	if _, err := svc.Sweep(context.Background(), constants.DeliveryPartnerAlWaseet, "manual"); err != nil {
		t.Fatalf("Sweep: %v", err)
	}

	var updated models.Order
	if err := db.First(&updated, order.ID).Error; err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if updated.DeliveryStatus != constants.AlWaseetCodeInTransit {
		t.Fatalf("unknown code must not overwrite local status, got %s", updated.DeliveryStatus)
	}
	if updated.StatusCheckedAt == nil {
		t.Fatal("matched order must still stamp status_checked_at")
	}
}

func TestSweepCancelledContext(t *testing.T) {
	db := newTestDB(t, "sweep_cancelled")
	variant := createTestVariant(t, db, 10, 1)
	createReservedOrder(t, db, constants.DeliveryPartnerAlWaseet,
		constants.OrderStatusInDelivery, constants.AlWaseetCodeInTransit, variant, 1)
	createSweepAccount(t, db, "main")

	gw := &fakeGateway{}
	svc := newSweepFixture(t, db, gw)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Sweep(ctx, constants.DeliveryPartnerAlWaseet, "manual")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
