package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopfront/internal/repository"

	"github.com/shopspring/decimal"
)

// AnalyticsService 销售统计服务
type AnalyticsService struct {
	analyticsRepo repository.AnalyticsRepository
}

// NewAnalyticsService 创建销售统计服务
func NewAnalyticsService(analyticsRepo repository.AnalyticsRepository) *AnalyticsService {
	return &AnalyticsService{analyticsRepo: analyticsRepo}
}

// 统计周期常量
const (
	PeriodDay   = "day"
	PeriodWeek  = "week"
	PeriodMonth = "month"
)

// SalesBucket 单个时间桶的销售统计
type SalesBucket struct {
	Period     string `json:"period"`
	OrderCount int64  `json:"order_count"`
	Revenue    string `json:"revenue"`
}

// SalesReport 销售统计报表
type SalesReport struct {
	Period        string        `json:"period"`
	StartAt       time.Time     `json:"start_at"`
	EndAt         time.Time     `json:"end_at"`
	Buckets       []SalesBucket `json:"buckets"`
	TotalOrders   int64         `json:"total_orders"`
	TotalRevenue  string        `json:"total_revenue"`
	AvgOrderValue string        `json:"avg_order_value"`
}

// TopProduct 商品销量排行条目
type TopProduct struct {
	ProductID    uint   `json:"product_id"`
	ProductName  string `json:"product_name"`
	UnitsSold    int64  `json:"units_sold"`
	Revenue      string `json:"revenue"`
	CurrentStock int64  `json:"current_stock"`
}

func normalizePeriod(period string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(period)) {
	case "", PeriodDay:
		return PeriodDay, nil
	case PeriodWeek:
		return PeriodWeek, nil
	case PeriodMonth:
		return PeriodMonth, nil
	default:
		return "", fmt.Errorf("%w: unknown period %q", ErrInvalidParam, period)
	}
}

func normalizeRange(startAt, endAt time.Time) (time.Time, time.Time, error) {
	if endAt.IsZero() {
		endAt = time.Now()
	}
	if startAt.IsZero() {
		startAt = endAt.AddDate(0, 0, -30)
	}
	if !startAt.Before(endAt) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: start must be before end", ErrInvalidParam)
	}
	return startAt, endAt, nil
}

// GetSalesReport 按周期聚合销售统计
//
// 只统计已结算订单（paid 及之后的状态），pending/cancelled 不计入。
func (s *AnalyticsService) GetSalesReport(startAt, endAt time.Time, period string) (*SalesReport, error) {
	normalized, err := normalizePeriod(period)
	if err != nil {
		return nil, err
	}
	startAt, endAt, err = normalizeRange(startAt, endAt)
	if err != nil {
		return nil, err
	}

	rows, err := s.analyticsRepo.GetSalesByPeriod(startAt, endAt, normalized)
	if err != nil {
		return nil, err
	}

	report := &SalesReport{
		Period:  normalized,
		StartAt: startAt,
		EndAt:   endAt,
		Buckets: make([]SalesBucket, 0, len(rows)),
	}
	totalRevenue := decimal.Zero
	for _, row := range rows {
		revenue := decimal.NewFromFloat(row.Revenue).Round(2)
		totalRevenue = totalRevenue.Add(revenue)
		report.TotalOrders += row.OrderCount
		report.Buckets = append(report.Buckets, SalesBucket{
			Period:     row.Period,
			OrderCount: row.OrderCount,
			Revenue:    revenue.StringFixed(2),
		})
	}
	report.TotalRevenue = totalRevenue.StringFixed(2)
	if report.TotalOrders > 0 {
		report.AvgOrderValue = totalRevenue.
			Div(decimal.NewFromInt(report.TotalOrders)).
			Round(2).
			StringFixed(2)
	} else {
		report.AvgOrderValue = "0.00"
	}
	return report, nil
}

// GetTopProducts 商品销量排行
func (s *AnalyticsService) GetTopProducts(startAt, endAt time.Time, limit int) ([]TopProduct, error) {
	startAt, endAt, err := normalizeRange(startAt, endAt)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 100 {
		limit = 10
	}

	rows, err := s.analyticsRepo.GetTopProducts(startAt, endAt, limit)
	if err != nil {
		return nil, err
	}

	products := make([]TopProduct, 0, len(rows))
	for _, row := range rows {
		products = append(products, TopProduct{
			ProductID:    row.ProductID,
			ProductName:  row.ProductName,
			UnitsSold:    row.UnitsSold,
			Revenue:      decimal.NewFromFloat(row.Revenue).Round(2).StringFixed(2),
			CurrentStock: row.CurrentStock,
		})
	}
	return products, nil
}
