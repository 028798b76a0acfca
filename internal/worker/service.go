package worker

import (
	"context"
	"errors"
	"time"

	"github.com/tijara-next/internal/config"
	"github.com/tijara-next/internal/logger"
	"github.com/tijara-next/internal/queue"

	"github.com/hibiken/asynq"
)

const defaultSweepInterval = 10 * time.Minute

// Service 异步队列服务
type Service struct {
	name          string
	server        *asynq.Server
	mux           *asynq.ServeMux
	consumer      *Consumer
	sweepEnabled  bool
	sweepInterval time.Duration
}

// NewService 创建异步队列服务
func NewService(cfg *config.QueueConfig, deliveryCfg *config.DeliveryConfig, consumer *Consumer) (*Service, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, errors.New("queue disabled")
	}
	if consumer == nil {
		return nil, errors.New("consumer is nil")
	}
	opt, serverCfg := queue.BuildServerConfig(cfg)
	server := asynq.NewServer(opt, serverCfg)
	mux := asynq.NewServeMux()
	consumer.Register(mux)

	sweepEnabled := false
	sweepInterval := defaultSweepInterval
	if deliveryCfg != nil {
		sweepEnabled = deliveryCfg.SweepEnabled
		if deliveryCfg.SweepIntervalSeconds > 0 {
			sweepInterval = time.Duration(deliveryCfg.SweepIntervalSeconds) * time.Second
		}
	}

	return &Service{
		name:          "worker",
		server:        server,
		mux:           mux,
		consumer:      consumer,
		sweepEnabled:  sweepEnabled,
		sweepInterval: sweepInterval,
	}, nil
}

// Name 服务名称
func (s *Service) Name() string {
	if s == nil || s.name == "" {
		return "worker"
	}
	return s.name
}

// Start 启动服务
func (s *Service) Start(ctx context.Context) error {
	if s == nil || s.server == nil || s.mux == nil {
		return errors.New("worker not initialized")
	}
	if s.sweepEnabled && s.consumer != nil && s.consumer.ReconciliationService != nil {
		go s.runSweepLoop(ctx)
	}
	return s.server.Run(s.mux)
}

// Stop 停止服务
func (s *Service) Stop(ctx context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	_ = ctx
	s.server.Shutdown()
	return nil
}

// runSweepLoop 周期性对有启用账号的配送方发起对账
func (s *Service) runSweepLoop(ctx context.Context) {
	if s == nil || s.consumer == nil || s.consumer.ReconciliationService == nil {
		return
	}
	runOnce := func() {
		partners, err := s.consumer.DeliveryAccountRepo.ListActivePartners()
		if err != nil {
			logger.Warnw("worker_sweep_list_partners_failed", "error", err)
			return
		}
		for _, partner := range partners {
			report, err := s.consumer.ReconciliationService.Sweep(ctx, partner, "ticker")
			if err != nil {
				logger.Warnw("worker_sweep_failed", "partner", partner, "error", err)
				continue
			}
			logger.Debugw("worker_sweep_done",
				"partner", partner,
				"orders_checked", report.OrdersChecked,
				"orders_updated", report.OrdersUpdated,
			)
		}
	}
	runOnce()

	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runOnce()
		}
	}
}
