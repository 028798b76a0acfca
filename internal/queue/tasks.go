package queue

import (
	"encoding/json"

	"github.com/tijara-next/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskReservationSync 订单预留同步任务
	TaskReservationSync = constants.TaskReservationSync
	// TaskDeliverySweep 配送对账任务
	TaskDeliverySweep = constants.TaskDeliverySweep
)

// ReservationSyncPayload 预留同步任务载荷
type ReservationSyncPayload struct {
	OrderID uint `json:"order_id"`
}

// DeliverySweepPayload 配送对账任务载荷
type DeliverySweepPayload struct {
	Partner string `json:"partner"`
	Trigger string `json:"trigger"`
}

// NewReservationSyncTask 创建预留同步任务
func NewReservationSyncTask(payload ReservationSyncPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReservationSync, body), nil
}

// NewDeliverySweepTask 创建配送对账任务
func NewDeliverySweepTask(payload DeliverySweepPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDeliverySweep, body), nil
}
