package service

import (
	"testing"

	"github.com/tijara-next/internal/constants"
)

func TestShouldReleaseStockAlWaseet(t *testing.T) {
	cases := []struct {
		name       string
		code       string
		itemStatus string
		want       bool
	}{
		{"received keeps reservation", constants.AlWaseetCodeReceived, "", false},
		{"in transit keeps reservation", constants.AlWaseetCodeInTransit, "", false},
		{"out for delivery keeps reservation", constants.AlWaseetCodeOutForDelivery, "", false},
		{"delivered releases", constants.AlWaseetCodeDelivered, "", true},
		{"returned in stock releases", constants.AlWaseetCodeReturnedInStock, "", true},
		{"cancelled keeps reservation", constants.AlWaseetCodeCancelled, "", false},
		{"rejected keeps reservation", constants.AlWaseetCodeRejected, "", false},
		{"unknown code keeps reservation", "99", "", false},
		{"delivered item requires code 4", constants.AlWaseetCodeDelivered, constants.ItemStatusDelivered, true},
		{"delivered item ignores code 17", constants.AlWaseetCodeReturnedInStock, constants.ItemStatusDelivered, false},
		{"returned item requires code 17", constants.AlWaseetCodeReturnedInStock, constants.ItemStatusReturned, true},
		{"returned item ignores code 4", constants.AlWaseetCodeDelivered, constants.ItemStatusReturned, false},
		{"pending return never releases on 4", constants.AlWaseetCodeDelivered, constants.ItemStatusPendingReturn, false},
		{"pending return never releases on 17", constants.AlWaseetCodeReturnedInStock, constants.ItemStatusPendingReturn, false},
		{"reserved item falls back to code table", constants.AlWaseetCodeDelivered, constants.ItemStatusReserved, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ShouldReleaseStock(constants.DeliveryPartnerAlWaseet, constants.OrderStatusInDelivery, tc.code, tc.itemStatus)
			if got != tc.want {
				t.Fatalf("code=%s itemStatus=%s: expected %v, got %v", tc.code, tc.itemStatus, tc.want, got)
			}
		})
	}
}

func TestShouldReleaseStockLocal(t *testing.T) {
	cases := []struct {
		status string
		want   bool
	}{
		{constants.OrderStatusPending, false},
		{constants.OrderStatusShipped, false},
		{constants.OrderStatusInDelivery, false},
		{constants.OrderStatusDelivered, true},
		{constants.OrderStatusCompleted, true},
		{constants.OrderStatusReturned, false},
		{constants.OrderStatusReturnedInStock, true},
		{constants.OrderStatusCancelled, false},
	}
	for _, tc := range cases {
		got := ShouldReleaseStock(constants.DeliveryPartnerLocal, tc.status, "", "")
		if got != tc.want {
			t.Fatalf("status=%s: expected %v, got %v", tc.status, tc.want, got)
		}
	}
}

func TestShouldReleaseStockLocalPendingReturn(t *testing.T) {
	if ShouldReleaseStock(constants.DeliveryPartnerLocal, constants.OrderStatusDelivered, "", constants.ItemStatusPendingReturn) {
		t.Fatal("pending_return item must never release")
	}
}

func TestShouldReleaseStockUnregisteredPartner(t *testing.T) {
	// 未注册状态码表的配送方按本地订单状态判定
	if !ShouldReleaseStock("courierx", constants.OrderStatusCompleted, "4", "") {
		t.Fatal("unregistered partner should follow local statuses")
	}
	if ShouldReleaseStock("courierx", constants.OrderStatusInDelivery, "4", "") {
		t.Fatal("unregistered partner must ignore delivery codes")
	}
}

func TestShouldKeepReservation(t *testing.T) {
	cases := []struct {
		name    string
		partner string
		status  string
		code    string
		want    bool
	}{
		{"alwaseet in transit keeps", constants.DeliveryPartnerAlWaseet, constants.OrderStatusInDelivery, constants.AlWaseetCodeInTransit, true},
		{"alwaseet returned keeps until 17", constants.DeliveryPartnerAlWaseet, constants.OrderStatusReturned, constants.AlWaseetCodeCancelled, true},
		{"alwaseet code 17 drops", constants.DeliveryPartnerAlWaseet, constants.OrderStatusReturned, constants.AlWaseetCodeReturnedInStock, false},
		{"alwaseet code 4 drops", constants.DeliveryPartnerAlWaseet, constants.OrderStatusInDelivery, constants.AlWaseetCodeDelivered, false},
		{"local pending keeps", constants.DeliveryPartnerLocal, constants.OrderStatusPending, "", true},
		{"local delivered drops", constants.DeliveryPartnerLocal, constants.OrderStatusDelivered, "", false},
		{"local cancelled drops", constants.DeliveryPartnerLocal, constants.OrderStatusCancelled, "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ShouldKeepReservation(tc.partner, tc.status, tc.code)
			if got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}
