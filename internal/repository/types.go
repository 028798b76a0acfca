package repository

import "time"

// OrderListFilter 管理端订单列表筛选
type OrderListFilter struct {
	Page        int
	PageSize    int
	Status      string
	Partner     string
	EmployeeID  uint
	OrderNo     string
	Tracking    string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// NotificationListFilter 通知列表筛选
type NotificationListFilter struct {
	Page       int
	PageSize   int
	UserID     uint
	Type       string
	UnreadOnly bool
}
