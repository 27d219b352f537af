package main

import (
	"github.com/shopfront/internal/config"
	"github.com/shopfront/internal/logger"
	"github.com/shopfront/internal/models"

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

	// 演示商品目录
	products := []models.Product{
		{
			Name:        "Wireless Bluetooth Earphones",
			Description: "High quality sound, long battery life, comfortable to wear.",
			SKU:         "SKU-EARPHONES-001",
			Price:       models.NewMoneyFromDecimal(decimal.NewFromFloat(99.99)),
			Stock:       120,
			ImageURL:    "https://images.unsplash.com/photo-1590658268037-6bf12165a8df?w=800",
			IsActive:    true,
		},
		{
			Name:        "Smart Watch",
			Description: "Health monitoring, fitness tracking, message notifications.",
			SKU:         "SKU-WATCH-001",
			Price:       models.NewMoneyFromDecimal(decimal.NewFromFloat(199.00)),
			Stock:       60,
			ImageURL:    "https://images.unsplash.com/photo-1523275335684-37898b6baf30?w=800",
			IsActive:    true,
		},
		{
			Name:        "Portable Power Bank 20000mAh",
			Description: "Fast charging, dual USB output, compact design.",
			SKU:         "SKU-POWERBANK-001",
			Price:       models.NewMoneyFromDecimal(decimal.NewFromFloat(39.50)),
			Stock:       200,
			ImageURL:    "https://images.unsplash.com/photo-1609592806596-4d1b5e5e1b1e?w=800",
			IsActive:    true,
		},
		{
			Name:        "Mechanical Keyboard",
			Description: "Hot-swappable switches, RGB backlight, aluminium frame.",
			SKU:         "SKU-KEYBOARD-001",
			Price:       models.NewMoneyFromDecimal(decimal.NewFromFloat(129.00)),
			Stock:       45,
			ImageURL:    "https://images.unsplash.com/photo-1541140532154-b024d705b90a?w=800",
			IsActive:    true,
		},
		{
			Name:        "USB-C Hub 7-in-1",
			Description: "HDMI, SD card reader, USB 3.0, power delivery passthrough.",
			SKU:         "SKU-HUB-001",
			Price:       models.NewMoneyFromDecimal(decimal.NewFromFloat(54.90)),
			Stock:       80,
			ImageURL:    "https://images.unsplash.com/photo-1625723044792-44de16ccb4e9?w=800",
			IsActive:    true,
		},
	}

	for _, product := range products {
		var existing models.Product
		if err := models.DB.Where("sku = ?", product.SKU).First(&existing).Error; err != nil {
			if err := models.DB.Create(&product).Error; err != nil {
				stdLog.Printf("Failed to create product %s: %v", product.SKU, err)
			} else {
				stdLog.Printf("Created product: %s", product.SKU)
			}
		} else {
			stdLog.Printf("Product already exists: %s", product.SKU)
		}
	}

	stdLog.Printf("Seed finished")
}
