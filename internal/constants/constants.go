package constants

// 订单状态常量
const (
	OrderStatusPending         = "pending"
	OrderStatusShipped         = "shipped"
	OrderStatusInDelivery      = "in_delivery"
	OrderStatusDelivered       = "delivered"
	OrderStatusCompleted       = "completed"
	OrderStatusReturned        = "returned"
	OrderStatusReturnedInStock = "returned_in_stock"
	OrderStatusCancelled       = "cancelled"
)

// 订单项流向常量
const (
	ItemDirectionOutgoing = "outgoing"
	ItemDirectionIncoming = "incoming"
)

// 订单项交付子状态常量
const (
	ItemStatusReserved      = "reserved"
	ItemStatusDelivered     = "delivered"
	ItemStatusPendingReturn = "pending_return"
	ItemStatusReturned      = "returned"
)

// 配送方常量
const (
	DeliveryPartnerLocal    = "local"
	DeliveryPartnerAlWaseet = "alwaseet"
)

// Al-Waseet 配送状态码常量
const (
	AlWaseetCodeReceived        = "1"
	AlWaseetCodeInTransit       = "2"
	AlWaseetCodeOutForDelivery  = "3"
	AlWaseetCodeDelivered       = "4"
	AlWaseetCodeReturnedInStock = "17"
	AlWaseetCodeCancelled       = "31"
	AlWaseetCodeRejected        = "32"
)

// 队列常量
const (
	QueueDefault        = "default"
	TaskReservationSync = "order:reservation_sync"
	TaskDeliverySweep   = "delivery:sweep"
)

// 通知事件常量
const (
	NotificationTypeOrderStatusChanged = "order_status_changed"
	NotificationTypeOrderPriceChanged  = "order_price_changed"
	NotificationTypeSweepCompleted     = "sweep_completed"
)

// 缓存默认配置常量
const (
	RedisPrefixDefault = "tj"
)
