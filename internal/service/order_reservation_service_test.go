package service

import (
	"testing"
	"time"

	"github.com/tijara-next/internal/constants"
	"github.com/tijara-next/internal/models"
	"github.com/tijara-next/internal/repository"

	"gorm.io/gorm"
)

func newReservationService(t *testing.T, db *gorm.DB, strictTx bool) *OrderReservationService {
	t.Helper()
	return NewOrderReservationService(
		db,
		repository.NewOrderRepository(db),
		repository.NewOrderItemRepository(db),
		NewStockService(repository.NewVariantRepository(db)),
		strictTx,
	)
}

func createReservedOrder(t *testing.T, db *gorm.DB, partner, status, deliveryStatus string, variant *models.ProductVariant, quantity int) *models.Order {
	t.Helper()
	now := time.Now()
	order := models.Order{
		OrderNo:         "SO-" + time.Now().Format("150405.000000000"),
		Status:          status,
		DeliveryPartner: partner,
		DeliveryStatus:  deliveryStatus,
		Items: []models.OrderItem{
			{
				ProductID:     variant.ProductID,
				VariantID:     variant.ID,
				Quantity:      quantity,
				ItemDirection: constants.ItemDirectionOutgoing,
				ItemStatus:    constants.ItemStatusReserved,
				ReservedAt:    &now,
			},
		},
	}
	if err := db.Create(&order).Error; err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	return &order
}

func reloadItem(t *testing.T, db *gorm.DB, id uint) *models.OrderItem {
	t.Helper()
	var item models.OrderItem
	if err := db.First(&item, id).Error; err != nil {
		t.Fatalf("reload item failed: %v", err)
	}
	return &item
}

func TestSyncReleasesOnDeliveredCode(t *testing.T) {
	db := newTestDB(t, "sync_delivered")
	svc := newReservationService(t, db, false)
	variant := createTestVariant(t, db, 10, 3)
	order := createReservedOrder(t, db, constants.DeliveryPartnerAlWaseet,
		constants.OrderStatusDelivered, constants.AlWaseetCodeDelivered, variant, 3)

	result, err := svc.SyncOrderReservation(order.ID)
	if err != nil {
		t.Fatalf("SyncOrderReservation: %v", err)
	}
	if result.Action != ReservationActionReleased || result.ItemsTouched != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}

	got := reloadVariant(t, db, variant.ID)
	if got.Reserved != 0 || got.Quantity != 10 {
		t.Fatalf("delivered release must not touch on-hand: quantity=%d reserved=%d", got.Quantity, got.Reserved)
	}
	item := reloadItem(t, db, order.Items[0].ID)
	if item.ItemStatus != constants.ItemStatusDelivered || item.DeliveredAt == nil {
		t.Fatalf("item not stamped delivered: %+v", item)
	}
	if item.QuantityDelivered != 3 {
		t.Fatalf("expected quantity_delivered 3, got %d", item.QuantityDelivered)
	}
}

func TestSyncIsIdempotent(t *testing.T) {
	db := newTestDB(t, "sync_idempotent")
	svc := newReservationService(t, db, false)
	variant := createTestVariant(t, db, 10, 3)
	order := createReservedOrder(t, db, constants.DeliveryPartnerAlWaseet,
		constants.OrderStatusDelivered, constants.AlWaseetCodeDelivered, variant, 3)

	if _, err := svc.SyncOrderReservation(order.ID); err != nil {
		t.Fatalf("first sync: %v", err)
	}
	result, err := svc.SyncOrderReservation(order.ID)
	if err != nil {
		t.Fatalf("second sync: %v", err)
	}
	if result.Action != ReservationActionNoChange || result.ItemsTouched != 0 {
		t.Fatalf("second sync must be a no-op: %+v", result)
	}
	got := reloadVariant(t, db, variant.ID)
	if got.Reserved != 0 || got.Quantity != 10 {
		t.Fatalf("stock moved on rerun: quantity=%d reserved=%d", got.Quantity, got.Reserved)
	}
}

func TestSyncReturnsStockOnCode17(t *testing.T) {
	db := newTestDB(t, "sync_returned")
	svc := newReservationService(t, db, false)
	variant := createTestVariant(t, db, 10, 2)
	order := createReservedOrder(t, db, constants.DeliveryPartnerAlWaseet,
		constants.OrderStatusReturnedInStock, constants.AlWaseetCodeReturnedInStock, variant, 2)

	if _, err := svc.SyncOrderReservation(order.ID); err != nil {
		t.Fatalf("SyncOrderReservation: %v", err)
	}

	got := reloadVariant(t, db, variant.ID)
	if got.Reserved != 0 {
		t.Fatalf("expected reserved 0, got %d", got.Reserved)
	}
	if got.Quantity != 12 {
		t.Fatalf("returned goods must re-enter on-hand: quantity=%d", got.Quantity)
	}
	item := reloadItem(t, db, order.Items[0].ID)
	if item.ItemStatus != constants.ItemStatusReturned || item.ReturnedAt == nil {
		t.Fatalf("item not stamped returned: %+v", item)
	}
}

func TestSyncKeepsReservationInTransit(t *testing.T) {
	db := newTestDB(t, "sync_keep")
	svc := newReservationService(t, db, false)
	variant := createTestVariant(t, db, 10, 2)
	order := createReservedOrder(t, db, constants.DeliveryPartnerAlWaseet,
		constants.OrderStatusInDelivery, constants.AlWaseetCodeInTransit, variant, 2)

	result, err := svc.SyncOrderReservation(order.ID)
	if err != nil {
		t.Fatalf("SyncOrderReservation: %v", err)
	}
	if result.Action != ReservationActionNoChange {
		t.Fatalf("in-transit order must not move stock: %+v", result)
	}
	got := reloadVariant(t, db, variant.ID)
	if got.Reserved != 2 {
		t.Fatalf("expected reserved 2, got %d", got.Reserved)
	}
}

func TestSyncReReservesWhenNeverReserved(t *testing.T) {
	db := newTestDB(t, "sync_rereserve")
	svc := newReservationService(t, db, false)
	variant := createTestVariant(t, db, 10, 0)

	order := models.Order{
		OrderNo:         "SO-rereserve",
		Status:          constants.OrderStatusPending,
		DeliveryPartner: constants.DeliveryPartnerLocal,
		Items: []models.OrderItem{
			{
				ProductID:     variant.ProductID,
				VariantID:     variant.ID,
				Quantity:      2,
				ItemDirection: constants.ItemDirectionOutgoing,
				ItemStatus:    constants.ItemStatusReserved,
			},
		},
	}
	if err := db.Create(&order).Error; err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	result, err := svc.SyncOrderReservation(order.ID)
	if err != nil {
		t.Fatalf("SyncOrderReservation: %v", err)
	}
	if result.Action != ReservationActionKept || result.ItemsTouched != 1 {
		t.Fatalf("expected kept action: %+v", result)
	}
	got := reloadVariant(t, db, variant.ID)
	if got.Reserved != 2 {
		t.Fatalf("expected reserved 2, got %d", got.Reserved)
	}
	item := reloadItem(t, db, order.Items[0].ID)
	if item.ReservedAt == nil {
		t.Fatal("reserved_at not stamped")
	}
}

func TestSyncLocalOrderCompleted(t *testing.T) {
	db := newTestDB(t, "sync_local")
	svc := newReservationService(t, db, false)
	variant := createTestVariant(t, db, 10, 1)
	order := createReservedOrder(t, db, constants.DeliveryPartnerLocal,
		constants.OrderStatusCompleted, "", variant, 1)

	if _, err := svc.SyncOrderReservation(order.ID); err != nil {
		t.Fatalf("SyncOrderReservation: %v", err)
	}
	got := reloadVariant(t, db, variant.ID)
	if got.Reserved != 0 {
		t.Fatalf("expected reserved 0, got %d", got.Reserved)
	}
}

func TestSyncSkipsIncomingItems(t *testing.T) {
	db := newTestDB(t, "sync_incoming")
	svc := newReservationService(t, db, false)
	variant := createTestVariant(t, db, 10, 0)

	order := models.Order{
		OrderNo:         "SO-incoming",
		Status:          constants.OrderStatusCompleted,
		DeliveryPartner: constants.DeliveryPartnerLocal,
		Items: []models.OrderItem{
			{
				ProductID:     variant.ProductID,
				VariantID:     variant.ID,
				Quantity:      5,
				ItemDirection: constants.ItemDirectionIncoming,
				ItemStatus:    constants.ItemStatusReserved,
			},
		},
	}
	if err := db.Create(&order).Error; err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	result, err := svc.SyncOrderReservation(order.ID)
	if err != nil {
		t.Fatalf("SyncOrderReservation: %v", err)
	}
	if result.ItemsTouched != 0 {
		t.Fatalf("incoming items must be skipped: %+v", result)
	}
}

func TestPartialDeliveryFlow(t *testing.T) {
	db := newTestDB(t, "partial_delivery")
	svc := newReservationService(t, db, false)
	variantA := createTestVariant(t, db, 10, 2)
	variantB := createTestVariant(t, db, 10, 3)

	now := time.Now()
	order := models.Order{
		OrderNo:         "SO-partial",
		Status:          constants.OrderStatusInDelivery,
		DeliveryPartner: constants.DeliveryPartnerAlWaseet,
		DeliveryStatus:  constants.AlWaseetCodeOutForDelivery,
		Items: []models.OrderItem{
			{
				ProductID:     variantA.ProductID,
				VariantID:     variantA.ID,
				Quantity:      2,
				ItemDirection: constants.ItemDirectionOutgoing,
				ItemStatus:    constants.ItemStatusReserved,
				ReservedAt:    &now,
			},
			{
				ProductID:     variantB.ProductID,
				VariantID:     variantB.ID,
				Quantity:      3,
				ItemDirection: constants.ItemDirectionOutgoing,
				ItemStatus:    constants.ItemStatusReserved,
				ReservedAt:    &now,
			},
		},
	}
	if err := db.Create(&order).Error; err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	deliveredID := order.Items[0].ID
	pendingID := order.Items[1].ID
	deliveredCount, err := svc.ReleaseDeliveredItems(order.ID, []uint{deliveredID})
	if err != nil {
		t.Fatalf("ReleaseDeliveredItems: %v", err)
	}
	if deliveredCount != 1 {
		t.Fatalf("delivered count want 1 got %d", deliveredCount)
	}

	gotA := reloadVariant(t, db, variantA.ID)
	if gotA.Reserved != 0 || gotA.Quantity != 10 {
		t.Fatalf("delivered item stock wrong: quantity=%d reserved=%d", gotA.Quantity, gotA.Reserved)
	}
	delivered := reloadItem(t, db, deliveredID)
	if delivered.ItemStatus != constants.ItemStatusDelivered || delivered.QuantityDelivered != 2 {
		t.Fatalf("delivered item not stamped: %+v", delivered)
	}
	pending := reloadItem(t, db, pendingID)
	if pending.ItemStatus != constants.ItemStatusPendingReturn {
		t.Fatalf("undelivered item must be pending_return, got %s", pending.ItemStatus)
	}
	gotB := reloadVariant(t, db, variantB.ID)
	if gotB.Reserved != 3 {
		t.Fatalf("pending_return item must keep reservation, reserved=%d", gotB.Reserved)
	}

	// 整单转为已回仓状态，pending_return 的订单项仍不受状态判定影响
	if err := db.Model(&models.Order{}).Where("id = ?", order.ID).Updates(map[string]interface{}{
		"status":          constants.OrderStatusReturnedInStock,
		"delivery_status": constants.AlWaseetCodeReturnedInStock,
	}).Error; err != nil {
		t.Fatalf("update order failed: %v", err)
	}
	if _, err := svc.SyncOrderReservation(order.ID); err != nil {
		t.Fatalf("SyncOrderReservation: %v", err)
	}
	gotB = reloadVariant(t, db, variantB.ID)
	if gotB.Reserved != 3 {
		t.Fatalf("sync must not release pending_return items, reserved=%d", gotB.Reserved)
	}

	returnedCount, err := svc.ReturnUndeliveredItems(order.ID)
	if err != nil {
		t.Fatalf("ReturnUndeliveredItems: %v", err)
	}
	if returnedCount != 1 {
		t.Fatalf("returned count want 1 got %d", returnedCount)
	}
	gotB = reloadVariant(t, db, variantB.ID)
	if gotB.Reserved != 0 || gotB.Quantity != 13 {
		t.Fatalf("returned goods not restocked: quantity=%d reserved=%d", gotB.Quantity, gotB.Reserved)
	}
	pending = reloadItem(t, db, pendingID)
	if pending.ItemStatus != constants.ItemStatusReturned || pending.QuantityReturned != 3 {
		t.Fatalf("pending item not stamped returned: %+v", pending)
	}
}

func TestReleaseDeliveredItemsRejectsForeignItem(t *testing.T) {
	db := newTestDB(t, "partial_foreign")
	svc := newReservationService(t, db, false)
	variant := createTestVariant(t, db, 10, 2)
	order := createReservedOrder(t, db, constants.DeliveryPartnerAlWaseet,
		constants.OrderStatusInDelivery, constants.AlWaseetCodeInTransit, variant, 2)

	_, err := svc.ReleaseDeliveredItems(order.ID, []uint{order.Items[0].ID, 9999})
	if err == nil {
		t.Fatal("expected error for foreign item id")
	}
	got := reloadVariant(t, db, variant.ID)
	if got.Reserved != 2 {
		t.Fatalf("stock must be untouched on validation failure, reserved=%d", got.Reserved)
	}
}

func TestSyncStrictTransaction(t *testing.T) {
	db := newTestDB(t, "sync_strict")
	svc := newReservationService(t, db, true)
	variant := createTestVariant(t, db, 10, 3)
	order := createReservedOrder(t, db, constants.DeliveryPartnerAlWaseet,
		constants.OrderStatusDelivered, constants.AlWaseetCodeDelivered, variant, 3)

	result, err := svc.SyncOrderReservation(order.ID)
	if err != nil {
		t.Fatalf("SyncOrderReservation: %v", err)
	}
	if result.Action != ReservationActionReleased {
		t.Fatalf("unexpected result: %+v", result)
	}
	got := reloadVariant(t, db, variant.ID)
	if got.Reserved != 0 {
		t.Fatalf("expected reserved 0, got %d", got.Reserved)
	}
}
