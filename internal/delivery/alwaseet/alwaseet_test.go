package alwaseet

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/tijara-next/internal/constants"
	"github.com/tijara-next/internal/delivery"
)

func testCredential() delivery.Credential {
	return delivery.Credential{AccountID: 1, Label: "main", Token: "tok-123"}
}

func TestListMerchantOrders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/merchant/statuses" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("token") != "tok-123" {
			t.Errorf("unexpected token %s", r.URL.Query().Get("token"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"status": true,
			"data": [
				{"id": "9001", "qr_id": "QR-1", "tracking_number": "TRK-1", "status_id": "4", "status": "Delivered", "price": "25000", "delivery_price": 5000, "client_name": "main"},
				{"id": "9002", "qr_id": "", "tracking_number": "TRK-2", "status_id": "2", "status": "In transit", "price": 18000, "delivery_price": "4000", "client_name": "main"}
			]
		}`))
	}))
	defer server.Close()

	client, err := NewClient(Config{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	orders, err := client.ListMerchantOrders(context.Background(), testCredential())
	if err != nil {
		t.Fatalf("ListMerchantOrders: %v", err)
	}
	if len(orders) != 2 {
		t.Fatalf("expected 2 orders, got %d", len(orders))
	}
	first := orders[0]
	if first.ID != "9001" || first.StatusCode != "4" {
		t.Fatalf("unexpected first order: %+v", first)
	}
	if first.Price.String() != "25000" || first.DeliveryFee.String() != "5000" {
		t.Fatalf("unexpected amounts: price=%s fee=%s", first.Price, first.DeliveryFee)
	}
	keys := first.Keys()
	want := []string{"id_9001", "qr_QR-1", "track_TRK-1"}
	if len(keys) != len(want) {
		t.Fatalf("expected %d keys, got %v", len(want), keys)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("key %d: expected %s, got %s", i, want[i], keys[i])
		}
	}
	second := orders[1]
	if len(second.Keys()) != 2 {
		t.Fatalf("expected qr key skipped, got %v", second.Keys())
	}
}

func TestListMerchantOrdersTokenRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status": false, "errNum": "S280", "msg": "invalid token"}`))
	}))
	defer server.Close()

	client, err := NewClient(Config{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	_, err = client.ListMerchantOrders(context.Background(), testCredential())
	if err == nil {
		t.Fatal("expected error for rejected token")
	}
}

func TestGetOrderByTrackingNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status": false, "errNum": "S404", "msg": "not found"}`))
	}))
	defer server.Close()

	client, err := NewClient(Config{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	order, err := client.GetOrderByTracking(context.Background(), testCredential(), "TRK-MISSING")
	if err != nil {
		t.Fatalf("GetOrderByTracking: %v", err)
	}
	if order != nil {
		t.Fatalf("expected nil order, got %+v", order)
	}
}

func TestGetOrderByID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("order_id") != "9001" {
			t.Errorf("unexpected order_id %s", r.URL.Query().Get("order_id"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status": true, "data": [{"id": "9001", "status_id": "17", "price": "25000"}]}`))
	}))
	defer server.Close()

	client, err := NewClient(Config{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	order, err := client.GetOrderByID(context.Background(), testCredential(), "9001")
	if err != nil {
		t.Fatalf("GetOrderByID: %v", err)
	}
	if order == nil || order.StatusCode != constants.AlWaseetCodeReturnedInStock {
		t.Fatalf("unexpected order: %+v", order)
	}
}

func TestLocalStatusFor(t *testing.T) {
	client, err := NewClient(Config{BaseURL: "http://example.invalid"})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	cases := []struct {
		code   string
		status string
		known  bool
	}{
		{constants.AlWaseetCodeReceived, constants.OrderStatusShipped, true},
		{constants.AlWaseetCodeInTransit, constants.OrderStatusInDelivery, true},
		{constants.AlWaseetCodeOutForDelivery, constants.OrderStatusInDelivery, true},
		{constants.AlWaseetCodeDelivered, constants.OrderStatusDelivered, true},
		{constants.AlWaseetCodeReturnedInStock, constants.OrderStatusReturnedInStock, true},
		{constants.AlWaseetCodeCancelled, constants.OrderStatusCancelled, true},
		{constants.AlWaseetCodeRejected, constants.OrderStatusCancelled, true},
		{"99", "", false},
	}
	for _, tc := range cases {
		status, ok := client.LocalStatusFor(tc.code)
		if ok != tc.known || status != tc.status {
			t.Fatalf("code %s: expected (%s,%v), got (%s,%v)", tc.code, tc.status, tc.known, status, ok)
		}
	}
}
