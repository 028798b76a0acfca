package provider

import (
	"github.com/tijara-next/internal/cache"
	"github.com/tijara-next/internal/config"
	"github.com/tijara-next/internal/constants"
	"github.com/tijara-next/internal/delivery"
	"github.com/tijara-next/internal/delivery/alwaseet"
	"github.com/tijara-next/internal/logger"
	"github.com/tijara-next/internal/models"
	"github.com/tijara-next/internal/queue"
	"github.com/tijara-next/internal/repository"
	"github.com/tijara-next/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client
	Registry    *delivery.Registry

	// Repositories
	ProductRepo         repository.ProductRepository
	VariantRepo         repository.VariantRepository
	OrderRepo           repository.OrderRepository
	OrderItemRepo       repository.OrderItemRepository
	DeliveryAccountRepo repository.DeliveryAccountRepository
	ProfitRecordRepo    repository.ProfitRecordRepository
	NotificationRepo    repository.NotificationRepository
	SweepLogRepo        repository.SweepLogRepository
	ClosedPeriodRepo    repository.ClosedPeriodRepository

	// Services
	StockService          *service.StockService
	ReservationService    *service.OrderReservationService
	ProfitService         *service.ProfitService
	NotificationService   *service.NotificationService
	ReconciliationService *service.ReconciliationService
	VerificationService   *service.VerificationService
	OrderService          *service.OrderService
	PeriodService         *service.PeriodService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}

	// 1. 初始化配送网关
	c.initGateways()

	// 2. 初始化 Repositories
	c.initRepositories()

	// 3. 初始化 Services
	c.initServices()

	return c
}

func (c *Container) initGateways() {
	c.Registry = delivery.NewRegistry()
	if c.Config.Delivery.AlWaseet.BaseURL != "" {
		client, err := alwaseet.NewClient(alwaseet.Config{
			BaseURL:   c.Config.Delivery.AlWaseet.BaseURL,
			TimeoutMS: c.Config.Delivery.AlWaseet.TimeoutMS,
		})
		if err != nil {
			logger.Errorw("provider_init_alwaseet_failed", "error", err)
		} else {
			c.Registry.Register(client)
			logger.Infow("provider_gateway_registered", "partner", constants.DeliveryPartnerAlWaseet)
		}
	}
}

func (c *Container) initRepositories() {
	db := models.DB
	c.ProductRepo = repository.NewProductRepository(db)
	c.VariantRepo = repository.NewVariantRepository(db)
	c.OrderRepo = repository.NewOrderRepository(db)
	c.OrderItemRepo = repository.NewOrderItemRepository(db)
	c.DeliveryAccountRepo = repository.NewDeliveryAccountRepository(db)
	c.ProfitRecordRepo = repository.NewProfitRecordRepository(db)
	c.NotificationRepo = repository.NewNotificationRepository(db)
	c.SweepLogRepo = repository.NewSweepLogRepository(db)
	c.ClosedPeriodRepo = repository.NewClosedPeriodRepository(db)
}

func (c *Container) initServices() {
	db := models.DB
	c.StockService = service.NewStockService(c.VariantRepo)
	c.ReservationService = service.NewOrderReservationService(
		db,
		c.OrderRepo,
		c.OrderItemRepo,
		c.StockService,
		c.Config.Stock.StrictOrderTransaction,
	)
	c.ProfitService = service.NewProfitService(c.ProfitRecordRepo, c.Config.Profit.DefaultEmployeePercent)
	c.NotificationService = service.NewNotificationService(c.NotificationRepo)
	c.ReconciliationService = service.NewReconciliationService(
		c.Registry,
		c.DeliveryAccountRepo,
		c.OrderRepo,
		c.SweepLogRepo,
		c.ReservationService,
		c.ProfitService,
		c.NotificationService,
	)
	c.VerificationService = service.NewVerificationService(
		c.Registry,
		c.DeliveryAccountRepo,
		c.Config.Delivery.DoubleCheckCooldownMS,
		c.Config.Delivery.DoubleCheckTimeoutMS,
	)
	c.OrderService = service.NewOrderService(
		db,
		c.OrderRepo,
		c.OrderItemRepo,
		c.VariantRepo,
		c.StockService,
		c.ReservationService,
		c.ProfitService,
		c.VerificationService,
	)
	c.PeriodService = service.NewPeriodService(c.ClosedPeriodRepo, c.ProfitRecordRepo)
}
