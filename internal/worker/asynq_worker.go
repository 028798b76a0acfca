package worker

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/tijara-next/internal/delivery"
	"github.com/tijara-next/internal/logger"
	"github.com/tijara-next/internal/provider"
	"github.com/tijara-next/internal/queue"
	"github.com/tijara-next/internal/service"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskReservationSync, c.handleReservationSync)
	mux.HandleFunc(queue.TaskDeliverySweep, c.handleDeliverySweep)
}

func (c *Consumer) handleReservationSync(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_reservation_sync_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.ReservationSyncPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_reservation_sync_unmarshal_failed", "error", err)
		return err
	}
	if payload.OrderID == 0 {
		logger.Debugw("worker_reservation_sync_skip_invalid_payload", "order_id", payload.OrderID)
		return nil
	}
	if c.ReservationService == nil {
		logger.Warnw("worker_reservation_sync_skip_service_nil", "order_id", payload.OrderID)
		return nil
	}
	result, err := c.ReservationService.SyncOrderReservation(payload.OrderID)
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			logger.Debugw("worker_reservation_sync_skip_order_not_found", "order_id", payload.OrderID)
			return nil
		}
		logger.Warnw("worker_reservation_sync_failed", "order_id", payload.OrderID, "error", err)
		return err
	}
	logger.Infow("worker_reservation_sync_done",
		"order_id", payload.OrderID,
		"action", result.Action,
		"items_touched", result.ItemsTouched,
	)
	return nil
}

func (c *Consumer) handleDeliverySweep(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_delivery_sweep_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.DeliverySweepPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_delivery_sweep_unmarshal_failed", "error", err)
		return err
	}
	partner := strings.TrimSpace(payload.Partner)
	if partner == "" {
		logger.Debugw("worker_delivery_sweep_skip_empty_partner")
		return nil
	}
	if c.ReconciliationService == nil {
		logger.Warnw("worker_delivery_sweep_skip_service_nil", "partner", partner)
		return nil
	}
	trigger := strings.TrimSpace(payload.Trigger)
	if trigger == "" {
		trigger = "queue"
	}
	_, err := c.ReconciliationService.Sweep(ctx, partner, trigger)
	if err != nil {
		switch {
		case errors.Is(err, delivery.ErrPartnerNotConfigured):
			logger.Debugw("worker_delivery_sweep_skip_partner_not_configured", "partner", partner)
			return nil
		case errors.Is(err, service.ErrNoUsableCredentials):
			logger.Warnw("worker_delivery_sweep_no_credentials", "partner", partner)
			return nil
		default:
			logger.Warnw("worker_delivery_sweep_failed", "partner", partner, "error", err)
			return err
		}
	}
	return nil
}
