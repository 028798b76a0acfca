package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/tijara-next/internal/constants"
	"github.com/tijara-next/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupOrderRepositoryTest(t *testing.T) (*GormOrderRepository, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:order_repo_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Order{}, &models.OrderItem{}); err != nil {
		t.Fatalf("migrate order failed: %v", err)
	}
	return NewOrderRepository(db), db
}

func createPartnerOrder(t *testing.T, db *gorm.DB, orderNo, status, deliveryStatus string) *models.Order {
	t.Helper()
	order := &models.Order{
		OrderNo:         orderNo,
		Status:          status,
		DeliveryPartner: constants.DeliveryPartnerAlWaseet,
		DeliveryStatus:  deliveryStatus,
	}
	if err := db.Create(order).Error; err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	return order
}

func TestListActiveByPartnerSkipsTerminalOrders(t *testing.T) {
	repo, db := setupOrderRepositoryTest(t)
	terminal := []string{
		constants.AlWaseetCodeDelivered,
		constants.AlWaseetCodeReturnedInStock,
		constants.AlWaseetCodeCancelled,
		constants.AlWaseetCodeRejected,
	}

	active := createPartnerOrder(t, db, "SO-1", constants.OrderStatusShipped, constants.AlWaseetCodeInTransit)
	fresh := createPartnerOrder(t, db, "SO-2", constants.OrderStatusPending, "")
	createPartnerOrder(t, db, "SO-3", constants.OrderStatusCompleted, constants.AlWaseetCodeInTransit)
	createPartnerOrder(t, db, "SO-4", constants.OrderStatusCancelled, "")
	createPartnerOrder(t, db, "SO-5", constants.OrderStatusShipped, constants.AlWaseetCodeDelivered)

	orders, err := repo.ListActiveByPartner(constants.DeliveryPartnerAlWaseet, terminal)
	if err != nil {
		t.Fatalf("list active failed: %v", err)
	}
	if len(orders) != 2 {
		t.Fatalf("active orders want 2 got %d", len(orders))
	}
	if orders[0].ID != active.ID || orders[1].ID != fresh.ID {
		t.Fatalf("unexpected active order set: %v %v", orders[0].OrderNo, orders[1].OrderNo)
	}
}

func TestListActiveByPartnerIgnoresOtherPartners(t *testing.T) {
	repo, db := setupOrderRepositoryTest(t)
	createPartnerOrder(t, db, "SO-10", constants.OrderStatusShipped, "")
	local := &models.Order{
		OrderNo:         "SO-11",
		Status:          constants.OrderStatusShipped,
		DeliveryPartner: constants.DeliveryPartnerLocal,
	}
	if err := db.Create(local).Error; err != nil {
		t.Fatalf("create local order failed: %v", err)
	}

	orders, err := repo.ListActiveByPartner(constants.DeliveryPartnerAlWaseet, nil)
	if err != nil {
		t.Fatalf("list active failed: %v", err)
	}
	if len(orders) != 1 || orders[0].OrderNo != "SO-10" {
		t.Fatalf("want only SO-10 got %d orders", len(orders))
	}
}

func TestAppendNoteConcatenates(t *testing.T) {
	repo, db := setupOrderRepositoryTest(t)
	order := createPartnerOrder(t, db, "SO-20", constants.OrderStatusShipped, "")

	if err := repo.AppendNote(order.ID, "第一条审计记录"); err != nil {
		t.Fatalf("append note failed: %v", err)
	}
	if err := repo.AppendNote(order.ID, "第二条审计记录"); err != nil {
		t.Fatalf("append note failed: %v", err)
	}

	var got models.Order
	if err := db.First(&got, order.ID).Error; err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	want := "第一条审计记录\n第二条审计记录"
	if got.Notes != want {
		t.Fatalf("notes want %q got %q", want, got.Notes)
	}
}
