package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopfront/internal/constants"
	"github.com/shopfront/internal/models"
	"github.com/shopfront/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupAnalyticsServiceTest(t *testing.T) (*AnalyticsService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:analytics_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Product{}, &models.Order{}, &models.OrderItem{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db
	return NewAnalyticsService(repository.NewAnalyticsRepository(db)), db
}

func seedAnalyticsOrder(t *testing.T, db *gorm.DB, orderNo, status string, total int64, createdAt time.Time, items []models.OrderItem) {
	t.Helper()
	order := &models.Order{
		OrderNo:     orderNo,
		Status:      status,
		Currency:    "usd",
		TotalAmount: models.NewMoneyFromDecimal(decimal.NewFromInt(total)),
	}
	if err := db.Create(order).Error; err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	// AutoCreateTime 会覆盖传入值，落库后再回写
	if err := db.Model(&models.Order{}).Where("id = ?", order.ID).
		Update("created_at", createdAt).Error; err != nil {
		t.Fatalf("backdate order failed: %v", err)
	}
	for i := range items {
		items[i].OrderID = order.ID
	}
	if len(items) > 0 {
		if err := db.Create(&items).Error; err != nil {
			t.Fatalf("create order items failed: %v", err)
		}
	}
}

func TestSalesReportExcludesUnsettledOrders(t *testing.T) {
	svc, db := setupAnalyticsServiceTest(t)

	base := time.Date(2026, 8, 10, 12, 0, 0, 0, time.UTC)
	seedAnalyticsOrder(t, db, "SF-A1", constants.OrderStatusPaid, 100, base, nil)
	seedAnalyticsOrder(t, db, "SF-A2", constants.OrderStatusDelivered, 50, base.Add(time.Hour), nil)
	seedAnalyticsOrder(t, db, "SF-A3", constants.OrderStatusPending, 999, base, nil)
	seedAnalyticsOrder(t, db, "SF-A4", constants.OrderStatusCancelled, 999, base, nil)

	report, err := svc.GetSalesReport(base.AddDate(0, 0, -1), base.AddDate(0, 0, 1), PeriodDay)
	if err != nil {
		t.Fatalf("sales report failed: %v", err)
	}
	if report.TotalOrders != 2 {
		t.Fatalf("expected 2 settled orders, got %d", report.TotalOrders)
	}
	if report.TotalRevenue != "150.00" {
		t.Fatalf("expected revenue 150.00, got %s", report.TotalRevenue)
	}
	if report.AvgOrderValue != "75.00" {
		t.Fatalf("expected avg 75.00, got %s", report.AvgOrderValue)
	}
	if len(report.Buckets) != 1 {
		t.Fatalf("expected 1 bucket, got %d", len(report.Buckets))
	}
	if report.Buckets[0].Period != "2026-08-10" {
		t.Fatalf("expected day bucket 2026-08-10, got %s", report.Buckets[0].Period)
	}
}

func TestSalesReportEmptyRange(t *testing.T) {
	svc, _ := setupAnalyticsServiceTest(t)

	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	report, err := svc.GetSalesReport(start, start.AddDate(0, 0, 7), PeriodWeek)
	if err != nil {
		t.Fatalf("sales report failed: %v", err)
	}
	if report.TotalOrders != 0 {
		t.Fatalf("expected 0 orders, got %d", report.TotalOrders)
	}
	if report.AvgOrderValue != "0.00" {
		t.Fatalf("expected avg 0.00, got %s", report.AvgOrderValue)
	}
}

func TestSalesReportInvalidInput(t *testing.T) {
	svc, _ := setupAnalyticsServiceTest(t)

	if _, err := svc.GetSalesReport(time.Time{}, time.Time{}, "hourly"); !errors.Is(err, ErrInvalidParam) {
		t.Fatalf("expected ErrInvalidParam for unknown period, got %v", err)
	}
	now := time.Now()
	if _, err := svc.GetSalesReport(now, now.AddDate(0, 0, -1), PeriodDay); !errors.Is(err, ErrInvalidParam) {
		t.Fatalf("expected ErrInvalidParam for inverted range, got %v", err)
	}
}

func TestTopProductsRanking(t *testing.T) {
	svc, db := setupAnalyticsServiceTest(t)

	widget := createOrderTestProduct(t, db, "SKU-TOP-1", "10.00", 7)
	gadget := createOrderTestProduct(t, db, "SKU-TOP-2", "20.00", 3)
	widgetID, gadgetID := widget.ID, gadget.ID

	base := time.Date(2026, 8, 10, 12, 0, 0, 0, time.UTC)
	seedAnalyticsOrder(t, db, "SF-T1", constants.OrderStatusPaid, 50, base, []models.OrderItem{
		{ProductID: &widgetID, ProductName: widget.Name, Quantity: 3, UnitPrice: widget.Price},
		{ProductID: &gadgetID, ProductName: gadget.Name, Quantity: 1, UnitPrice: gadget.Price},
	})
	seedAnalyticsOrder(t, db, "SF-T2", constants.OrderStatusShipped, 20, base.Add(time.Hour), []models.OrderItem{
		{ProductID: &widgetID, ProductName: widget.Name, Quantity: 2, UnitPrice: widget.Price},
	})
	seedAnalyticsOrder(t, db, "SF-T3", constants.OrderStatusPending, 100, base, []models.OrderItem{
		{ProductID: &gadgetID, ProductName: gadget.Name, Quantity: 50, UnitPrice: gadget.Price},
	})

	top, err := svc.GetTopProducts(base.AddDate(0, 0, -1), base.AddDate(0, 0, 1), 10)
	if err != nil {
		t.Fatalf("top products failed: %v", err)
	}
	if len(top) != 2 {
		t.Fatalf("expected 2 products, got %d", len(top))
	}
	if top[0].ProductID != widget.ID || top[0].UnitsSold != 5 {
		t.Fatalf("expected widget first with 5 units, got %+v", top[0])
	}
	if top[0].Revenue != "50.00" {
		t.Fatalf("expected widget revenue 50.00, got %s", top[0].Revenue)
	}
	if top[0].CurrentStock != 7 {
		t.Fatalf("expected widget stock 7, got %d", top[0].CurrentStock)
	}
	if top[1].ProductID != gadget.ID || top[1].UnitsSold != 1 {
		t.Fatalf("expected gadget second with 1 unit, got %+v", top[1])
	}
}
