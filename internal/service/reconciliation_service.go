package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/tijara-next/internal/delivery"
	"github.com/tijara-next/internal/logger"
	"github.com/tijara-next/internal/models"
	"github.com/tijara-next/internal/repository"

	"github.com/shopspring/decimal"
)

// SweepReport 一次对账扫描的汇总
type SweepReport struct {
	Partner        string        `json:"partner"`
	Trigger        string        `json:"trigger"`
	OrdersChecked  int           `json:"orders_checked"`
	OrdersUpdated  int           `json:"orders_updated"`
	AccountsUsed   int           `json:"accounts_used"`
	AccountsFailed int           `json:"accounts_failed"`
	Changes        []OrderChange `json:"changes,omitempty"`
}

// OrderChange 对账中命中的单笔订单变更
type OrderChange struct {
	OrderID       uint   `json:"order_id"`
	OrderNo       string `json:"order_no"`
	MatchedKey    string `json:"matched_key"`
	OldStatus     string `json:"old_status,omitempty"`
	NewStatus     string `json:"new_status,omitempty"`
	OldAmount     string `json:"old_amount,omitempty"`
	NewAmount     string `json:"new_amount,omitempty"`
	AccountBefore string `json:"account_before,omitempty"`
	AccountAfter  string `json:"account_after,omitempty"`
}

func (c *OrderChange) any() bool {
	return c.NewStatus != "" || c.NewAmount != "" || c.AccountAfter != ""
}

// ReconciliationService 配送状态对账服务。
// 逐凭证拉取配送方在途订单，三键索引匹配本地订单后回放状态、
// 金额与归属账号差异，状态变化统一走预留协调服务。
type ReconciliationService struct {
	registry        *delivery.Registry
	accountRepo     repository.DeliveryAccountRepository
	orderRepo       repository.OrderRepository
	sweepLogRepo    repository.SweepLogRepository
	reservationSvc  *OrderReservationService
	profitSvc       *ProfitService
	notificationSvc *NotificationService
}

// NewReconciliationService 创建对账服务
func NewReconciliationService(
	registry *delivery.Registry,
	accountRepo repository.DeliveryAccountRepository,
	orderRepo repository.OrderRepository,
	sweepLogRepo repository.SweepLogRepository,
	reservationSvc *OrderReservationService,
	profitSvc *ProfitService,
	notificationSvc *NotificationService,
) *ReconciliationService {
	return &ReconciliationService{
		registry:        registry,
		accountRepo:     accountRepo,
		orderRepo:       orderRepo,
		sweepLogRepo:    sweepLogRepo,
		reservationSvc:  reservationSvc,
		profitSvc:       profitSvc,
		notificationSvc: notificationSvc,
	}
}

// Sweep 对指定配送方执行一次全量对账。
// ctx 取消时返回已完成部分的报告和 ctx 错误。
func (s *ReconciliationService) Sweep(ctx context.Context, partner, trigger string) (*SweepReport, error) {
	startedAt := time.Now()
	report := &SweepReport{Partner: partner, Trigger: trigger}

	gateway, err := s.registry.Lookup(partner)
	if err != nil {
		return nil, err
	}

	accounts, err := s.accountRepo.ListActive(partner)
	if err != nil {
		return nil, err
	}
	if len(accounts) == 0 {
		return nil, ErrNoUsableCredentials
	}

	index, err := s.fetchRemoteIndex(ctx, gateway, accounts, report)
	if err != nil {
		return nil, err
	}

	orders, err := s.orderRepo.ListActiveByPartner(partner, gateway.TerminalStatuses())
	if err != nil {
		return nil, err
	}

	sweepErr := s.reconcileOrders(ctx, gateway, orders, index, report)

	s.persistSweepLog(report, startedAt)
	logger.Infow("delivery_sweep_finished",
		"partner", partner,
		"trigger", trigger,
		"orders_checked", report.OrdersChecked,
		"orders_updated", report.OrdersUpdated,
		"accounts_used", report.AccountsUsed,
		"accounts_failed", report.AccountsFailed,
	)
	return report, sweepErr
}

// fetchRemoteIndex 逐凭证拉取远端订单并建立三键索引。
// 单个凭证失败不终止扫描，全部失败时返回 ErrNoUsableCredentials。
func (s *ReconciliationService) fetchRemoteIndex(
	ctx context.Context,
	gateway delivery.Gateway,
	accounts []models.DeliveryAccount,
	report *SweepReport,
) (map[string]remoteHit, error) {
	index := make(map[string]remoteHit)
	for i := range accounts {
		account := &accounts[i]
		cred := delivery.Credential{
			AccountID:  account.ID,
			Label:      account.Label,
			Token:      account.Token,
			MerchantID: account.MerchantID,
		}
		remoteOrders, err := gateway.ListMerchantOrders(ctx, cred)
		if err != nil {
			report.AccountsFailed++
			logger.Warnw("sweep_account_fetch_failed",
				"partner", gateway.Partner(),
				"account", account.Label,
				"error", err,
			)
			continue
		}
		report.AccountsUsed++
		_ = s.accountRepo.StampUsed(account.ID, time.Now())

		for j := range remoteOrders {
			remote := remoteOrders[j]
			for _, key := range remote.Keys() {
				// 同键先到先得，避免跨账号覆盖
				if _, exists := index[key]; !exists {
					index[key] = remoteHit{order: remote, accountLabel: account.Label}
				}
			}
		}
	}
	if report.AccountsUsed == 0 {
		return nil, ErrNoUsableCredentials
	}
	return index, nil
}

type remoteHit struct {
	order        delivery.RemoteOrder
	accountLabel string
}

func (s *ReconciliationService) reconcileOrders(
	ctx context.Context,
	gateway delivery.Gateway,
	orders []models.Order,
	index map[string]remoteHit,
	report *SweepReport,
) error {
	for i := range orders {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		order := &orders[i]
		report.OrdersChecked++

		hit, matchedKey, found := matchOrder(order, index)
		if !found {
			logger.Debugw("sweep_order_unmatched",
				"order_id", order.ID,
				"order_no", order.OrderNo,
			)
			continue
		}

		change, err := s.applyDelta(ctx, gateway, order, hit, matchedKey)
		if err != nil {
			logger.Warnw("sweep_order_apply_failed",
				"order_id", order.ID,
				"error", err,
			)
			continue
		}
		if change.any() {
			report.OrdersUpdated++
			report.Changes = append(report.Changes, change)
		}
	}
	return nil
}

// matchOrder 按订单的外部键优先级在远端索引中匹配
func matchOrder(order *models.Order, index map[string]remoteHit) (remoteHit, string, bool) {
	for _, key := range order.ExternalKeys() {
		if hit, ok := index[key]; ok {
			return hit, key, true
		}
	}
	return remoteHit{}, "", false
}

// applyDelta 将远端订单快照的差异落到本地订单。
// 无论是否有差异，命中的订单都刷新 status_checked_at。
func (s *ReconciliationService) applyDelta(
	ctx context.Context,
	gateway delivery.Gateway,
	order *models.Order,
	hit remoteHit,
	matchedKey string,
) (OrderChange, error) {
	change := OrderChange{OrderID: order.ID, OrderNo: order.OrderNo, MatchedKey: matchedKey}
	remote := hit.order
	now := time.Now()
	updates := map[string]interface{}{
		"status_checked_at": now,
	}

	statusChanged := remote.StatusCode != "" && remote.StatusCode != order.DeliveryStatus
	if statusChanged {
		localStatus, known := gateway.LocalStatusFor(remote.StatusCode)
		if !known {
			// 未知状态码保持本地状态不动，只刷新对账时间
			logger.Warnw("sweep_unknown_remote_status",
				"order_id", order.ID,
				"code", remote.StatusCode,
			)
			statusChanged = false
		} else {
			change.OldStatus = order.DeliveryStatus
			change.NewStatus = remote.StatusCode
			updates["delivery_status"] = remote.StatusCode
			updates["status"] = localStatus
		}
	}

	priceChanged := remote.Price.IsPositive() && !remote.Price.Equal(order.FinalAmount.Decimal)
	if priceChanged {
		deliveryFee := order.DeliveryFee.Decimal
		if remote.DeliveryFee.IsPositive() {
			deliveryFee = remote.DeliveryFee
		}
		salesAmount := remote.Price.Sub(deliveryFee)
		if salesAmount.IsNegative() {
			salesAmount = decimal.Zero
		}
		change.OldAmount = order.FinalAmount.String()
		change.NewAmount = remote.Price.StringFixed(2)
		updates["final_amount"] = models.NewMoneyFromDecimal(remote.Price)
		updates["delivery_fee"] = models.NewMoneyFromDecimal(deliveryFee)
		updates["sales_amount"] = models.NewMoneyFromDecimal(salesAmount)
	}

	if hit.accountLabel != "" && hit.accountLabel != order.DeliveryAccountUsed {
		change.AccountBefore = order.DeliveryAccountUsed
		change.AccountAfter = hit.accountLabel
		updates["delivery_account_used"] = hit.accountLabel
	}

	if err := s.orderRepo.UpdateFields(order.ID, updates); err != nil {
		return change, err
	}

	if priceChanged {
		deliveryFee := order.DeliveryFee.Decimal
		if remote.DeliveryFee.IsPositive() {
			deliveryFee = remote.DeliveryFee
		}
		salesAmount := remote.Price.Sub(deliveryFee)
		if salesAmount.IsNegative() {
			salesAmount = decimal.Zero
		}
		if err := s.profitSvc.RecomputeTopline(order.ID, salesAmount, deliveryFee); err != nil {
			logger.Warnw("sweep_profit_recompute_failed", "order_id", order.ID, "error", err)
		}
		note := fmt.Sprintf("[对账] 金额由 %s 调整为 %s (%s)",
			change.OldAmount, change.NewAmount, now.Format("2006-01-02 15:04:05"))
		if err := s.orderRepo.AppendNote(order.ID, note); err != nil {
			logger.Warnw("sweep_audit_note_failed", "order_id", order.ID, "error", err)
		}
		if _, err := s.notificationSvc.NotifyOrderPriceChanged(ctx, order, change.OldAmount, change.NewAmount); err != nil {
			logger.Warnw("sweep_notify_failed", "order_id", order.ID, "error", err)
		}
	}

	if statusChanged {
		if _, err := s.notificationSvc.NotifyOrderStatusChanged(ctx, order, change.OldStatus, change.NewStatus, remote.StatusLabel); err != nil {
			logger.Warnw("sweep_notify_failed", "order_id", order.ID, "error", err)
		}
		// 状态变化后的预留处置统一走协调服务
		order.DeliveryStatus = remote.StatusCode
		if localStatus, known := gateway.LocalStatusFor(remote.StatusCode); known {
			order.Status = localStatus
		}
		if _, err := s.reservationSvc.SyncOrderReservation(order.ID); err != nil {
			logger.Warnw("sweep_reservation_sync_failed", "order_id", order.ID, "error", err)
		}
	}

	return change, nil
}

func (s *ReconciliationService) persistSweepLog(report *SweepReport, startedAt time.Time) {
	var changesJSON models.JSON
	if len(report.Changes) > 0 {
		if raw, err := json.Marshal(report.Changes); err == nil {
			var decoded []interface{}
			if err := json.Unmarshal(raw, &decoded); err == nil {
				changesJSON = models.JSON{"changes": decoded}
			}
		}
	}
	entry := &models.SweepLog{
		Partner:        report.Partner,
		Trigger:        report.Trigger,
		OrdersChecked:  report.OrdersChecked,
		OrdersUpdated:  report.OrdersUpdated,
		AccountsUsed:   report.AccountsUsed,
		AccountsFailed: report.AccountsFailed,
		ChangesJSON:    changesJSON,
		StartedAt:      startedAt,
		FinishedAt:     time.Now(),
	}
	if err := s.sweepLogRepo.Create(entry); err != nil {
		logger.Warnw("sweep_log_persist_failed", "partner", report.Partner, "error", err)
	}
}
