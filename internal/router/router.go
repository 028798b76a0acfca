package router

import (
	"fmt"
	"strings"

	"github.com/tijara-next/internal/cache"
	"github.com/tijara-next/internal/config"
	adminhandlers "github.com/tijara-next/internal/http/handlers/admin"
	"github.com/tijara-next/internal/logger"
	"github.com/tijara-next/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	adminHandler := adminhandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "tj"
	}
	redisClient := cache.Client()
	sweepRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:sweep", redisPrefix),
		WindowSeconds: cfg.Security.SweepRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.SweepRateLimit.MaxRequests,
		Message:       "对账触发过于频繁",
	}

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	// API 路由组
	apiV1 := r.Group("/api/v1")
	{
		admin := apiV1.Group("/admin")
		{
			// 订单管理
			admin.GET("/orders", adminHandler.AdminListOrders)
			admin.GET("/orders/:id", adminHandler.AdminGetOrder)
			admin.POST("/orders", adminHandler.AdminCreateOrder)
			admin.PATCH("/orders/:id", adminHandler.AdminUpdateOrderStatus)
			admin.POST("/orders/:id/complete", adminHandler.AdminCompleteOrder)
			admin.DELETE("/orders/:id", adminHandler.AdminDeleteOrder)
			admin.POST("/orders/:id/deliver-items", adminHandler.AdminDeliverItems)
			admin.POST("/orders/:id/return-items", adminHandler.AdminReturnItems)
			admin.POST("/orders/:id/sync-reservation", adminHandler.AdminSyncOrderReservation)

			// 商品与库存
			admin.GET("/products", adminHandler.AdminListProducts)
			admin.GET("/products/:id", adminHandler.AdminGetProduct)
			admin.POST("/products", adminHandler.AdminCreateProduct)
			admin.GET("/variants/:id", adminHandler.AdminGetVariant)
			admin.POST("/variants/:id/restock", adminHandler.AdminRestockVariant)

			// 对账
			admin.POST("/sweeps", RateLimitMiddleware(redisClient, sweepRule, KeyByIP), adminHandler.AdminTriggerSweep)
			admin.GET("/sweeps", adminHandler.AdminListSweeps)
			admin.GET("/sweeps/:id", adminHandler.AdminGetSweep)

			// 配送方账号
			admin.GET("/delivery-accounts", adminHandler.AdminListAccounts)
			admin.POST("/delivery-accounts", adminHandler.AdminCreateAccount)
			admin.PUT("/delivery-accounts/:id", adminHandler.AdminUpdateAccount)

			// 通知
			admin.GET("/notifications", adminHandler.AdminListNotifications)
			admin.POST("/notifications/:id/read", adminHandler.AdminMarkNotificationRead)

			// 结算周期
			admin.POST("/periods", adminHandler.AdminClosePeriod)
			admin.GET("/periods", adminHandler.AdminListPeriods)
			admin.GET("/periods/:id", adminHandler.AdminGetPeriod)
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}
