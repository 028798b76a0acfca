package main

import (
	"fmt"

	"github.com/tijara-next/internal/config"
	"github.com/tijara-next/internal/constants"
	"github.com/tijara-next/internal/logger"
	"github.com/tijara-next/internal/models"

	"github.com/shopspring/decimal"
)

func main() {
	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	// 添加商品与规格
	type variantSeed struct {
		SKUCode  string
		Spec     models.JSON
		Price    float64
		Cost     float64
		Quantity int
	}
	type productSeed struct {
		Name     string
		Barcode  string
		Tags     models.StringArray
		Variants []variantSeed
	}

	products := []productSeed{
		{
			Name:    "women-abaya-classic",
			Barcode: "6291041500213",
			Tags:    models.StringArray([]string{"abaya", "women"}),
			Variants: []variantSeed{
				{SKUCode: "ABY-BLK-S", Spec: models.JSON{"color": "black", "size": "S"}, Price: 35000, Cost: 21000, Quantity: 25},
				{SKUCode: "ABY-BLK-M", Spec: models.JSON{"color": "black", "size": "M"}, Price: 35000, Cost: 21000, Quantity: 40},
				{SKUCode: "ABY-BLK-L", Spec: models.JSON{"color": "black", "size": "L"}, Price: 36000, Cost: 21500, Quantity: 30},
			},
		},
		{
			Name:    "men-dishdasha-summer",
			Barcode: "6291041500220",
			Tags:    models.StringArray([]string{"dishdasha", "men", "summer"}),
			Variants: []variantSeed{
				{SKUCode: "DSH-WHT-M", Spec: models.JSON{"color": "white", "size": "M"}, Price: 28000, Cost: 16000, Quantity: 50},
				{SKUCode: "DSH-WHT-L", Spec: models.JSON{"color": "white", "size": "L"}, Price: 28000, Cost: 16000, Quantity: 45},
			},
		},
		{
			Name:    "kids-sneakers-velcro",
			Barcode: "6291041500237",
			Tags:    models.StringArray([]string{"shoes", "kids"}),
			Variants: []variantSeed{
				{SKUCode: "SNK-BLU-28", Spec: models.JSON{"color": "blue", "size": "28"}, Price: 18000, Cost: 9500, Quantity: 20},
				{SKUCode: "SNK-BLU-30", Spec: models.JSON{"color": "blue", "size": "30"}, Price: 18000, Cost: 9500, Quantity: 18},
				{SKUCode: "SNK-PNK-28", Spec: models.JSON{"color": "pink", "size": "28"}, Price: 18500, Cost: 9800, Quantity: 12},
			},
		},
	}

	for _, seed := range products {
		var product models.Product
		if err := models.DB.Where("name = ?", seed.Name).First(&product).Error; err != nil {
			product = models.Product{
				Name:     seed.Name,
				Barcode:  seed.Barcode,
				Tags:     seed.Tags,
				IsActive: true,
			}
			if err := models.DB.Create(&product).Error; err != nil {
				stdLog.Printf("Failed to create product %s: %v", seed.Name, err)
				continue
			}
			stdLog.Printf("Created product: %s", seed.Name)
		} else {
			stdLog.Printf("Product already exists: %s", seed.Name)
		}

		for _, v := range seed.Variants {
			var existing models.ProductVariant
			if err := models.DB.Where("product_id = ? AND sku_code = ?", product.ID, v.SKUCode).First(&existing).Error; err == nil {
				stdLog.Printf("Variant already exists: %s", v.SKUCode)
				continue
			}
			variant := models.ProductVariant{
				ProductID:      product.ID,
				SKUCode:        v.SKUCode,
				SpecValuesJSON: v.Spec,
				PriceAmount:    models.NewMoneyFromDecimal(decimal.NewFromFloat(v.Price)),
				CostPrice:      models.NewMoneyFromDecimal(decimal.NewFromFloat(v.Cost)),
				Quantity:       v.Quantity,
				IsActive:       true,
			}
			if err := models.DB.Create(&variant).Error; err != nil {
				stdLog.Printf("Failed to create variant %s: %v", v.SKUCode, err)
			} else {
				stdLog.Printf("Created variant: %s (qty=%d)", v.SKUCode, v.Quantity)
			}
		}
	}

	// 添加配送方账号
	accounts := []models.DeliveryAccount{
		{
			Partner:    constants.DeliveryPartnerAlWaseet,
			Label:      "main",
			Token:      "seed-alwaseet-main-token",
			MerchantID: "M-1001",
			IsActive:   true,
		},
		{
			Partner:    constants.DeliveryPartnerAlWaseet,
			Label:      "backup",
			Token:      "seed-alwaseet-backup-token",
			MerchantID: "M-1002",
			IsActive:   true,
		},
	}

	for _, acc := range accounts {
		var existing models.DeliveryAccount
		if err := models.DB.Where("partner = ? AND label = ?", acc.Partner, acc.Label).First(&existing).Error; err == nil {
			stdLog.Printf("Delivery account already exists: %s/%s", acc.Partner, acc.Label)
			continue
		}
		if err := models.DB.Create(&acc).Error; err != nil {
			stdLog.Printf("Failed to create delivery account %s/%s: %v", acc.Partner, acc.Label, err)
		} else {
			stdLog.Printf("Created delivery account: %s/%s", acc.Partner, acc.Label)
		}
	}

	fmt.Println("\n✅ Seed data created successfully!")
	fmt.Println("Summary:")
	fmt.Println("- 3 Products with 8 variants")
	fmt.Println("- 2 Al-Waseet delivery accounts")
}
