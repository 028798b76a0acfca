package service

import (
	"strings"

	"github.com/tijara-next/internal/constants"
)

// releaseCodesByPartner 各配送方允许释放预留的状态码。
// 未列出的配送方按本地订单状态判定。
var releaseCodesByPartner = map[string]map[string]bool{
	constants.DeliveryPartnerAlWaseet: {
		constants.AlWaseetCodeDelivered:       true,
		constants.AlWaseetCodeReturnedInStock: true,
	},
}

// localReleaseStatuses 本地订单允许释放预留的状态
var localReleaseStatuses = map[string]bool{
	constants.OrderStatusCompleted:       true,
	constants.OrderStatusDelivered:       true,
	constants.OrderStatusReturnedInStock: true,
}

// keepStatuses 保持预留的在途状态。
// returned 表示货物在回程途中，仍未回仓，预留不释放。
var keepStatuses = map[string]bool{
	constants.OrderStatusPending:    true,
	constants.OrderStatusShipped:    true,
	constants.OrderStatusInDelivery: true,
	constants.OrderStatusReturned:   true,
}

// ShouldReleaseStock 判定某订单项的预留是否应当释放。
// partner 为配送方标识，status 为订单状态，deliveryCode 为配送方状态码，
// itemStatus 为订单项交付子状态（可为空）。
// pending_return 的订单项在任何情况下都不释放。
func ShouldReleaseStock(partner, status, deliveryCode, itemStatus string) bool {
	itemStatus = strings.TrimSpace(itemStatus)
	if itemStatus == constants.ItemStatusPendingReturn {
		return false
	}

	codes, registered := releaseCodesByPartner[strings.TrimSpace(partner)]
	if registered {
		code := strings.TrimSpace(deliveryCode)
		// 订单项已有明确交付子状态时按子状态收紧判定
		if itemStatus != "" && itemStatus != constants.ItemStatusReserved {
			switch itemStatus {
			case constants.ItemStatusDelivered:
				return code == constants.AlWaseetCodeDelivered
			case constants.ItemStatusReturned:
				return code == constants.AlWaseetCodeReturnedInStock
			default:
				return false
			}
		}
		return codes[code]
	}

	return localReleaseStatuses[strings.TrimSpace(status)]
}

// ShouldKeepReservation 判定订单当前是否应保持预留
func ShouldKeepReservation(partner, status, deliveryCode string) bool {
	if ShouldReleaseStock(partner, status, deliveryCode, "") {
		return false
	}
	return keepStatuses[strings.TrimSpace(status)]
}

// isReturnOutcome 判定释放是否应同时回补在库数量。
// 注册了状态码表的配送方看 returned_in_stock 码，本地订单看订单状态。
func isReturnOutcome(partner, status, deliveryCode string) bool {
	if _, registered := releaseCodesByPartner[strings.TrimSpace(partner)]; registered {
		return strings.TrimSpace(deliveryCode) == constants.AlWaseetCodeReturnedInStock
	}
	return strings.TrimSpace(status) == constants.OrderStatusReturnedInStock
}
