package repository

import (
	"fmt"
	"time"

	"github.com/shopfront/internal/constants"
	"github.com/shopfront/internal/models"

	"gorm.io/gorm"
)

// AnalyticsRepository 销售统计聚合查询接口
// 说明：仅聚合统计数据，不承载业务规则。
type AnalyticsRepository interface {
	GetSalesByPeriod(startAt, endAt time.Time, period string) ([]SalesPeriodRow, error)
	GetTopProducts(startAt, endAt time.Time, limit int) ([]TopProductRow, error)
}

// SalesPeriodRow 按时间分桶的销售统计原始行
type SalesPeriodRow struct {
	Period     string
	OrderCount int64
	Revenue    float64
}

// TopProductRow 商品销量排行原始行
type TopProductRow struct {
	ProductID    uint
	ProductName  string
	UnitsSold    int64
	Revenue      float64
	CurrentStock int64
}

// GormAnalyticsRepository GORM 聚合实现
type GormAnalyticsRepository struct {
	db *gorm.DB
}

// NewAnalyticsRepository 创建统计仓库
func NewAnalyticsRepository(db *gorm.DB) *GormAnalyticsRepository {
	return &GormAnalyticsRepository{db: db}
}

func settledOrderStatuses() []string {
	return []string{
		constants.OrderStatusPaid,
		constants.OrderStatusProcessing,
		constants.OrderStatusShipped,
		constants.OrderStatusDelivered,
	}
}

// GetSalesByPeriod 按日/周/月统计订单数与营收
func (r *GormAnalyticsRepository) GetSalesByPeriod(startAt, endAt time.Time, period string) ([]SalesPeriodRow, error) {
	bucketExpr := periodBucketExpr(dbDialectName(r.db), period)

	var rows []SalesPeriodRow
	if err := r.db.Model(&models.Order{}).
		Select(fmt.Sprintf("%s as period, COUNT(*) as order_count, COALESCE(SUM(total_amount), 0) as revenue", bucketExpr)).
		Where("created_at >= ? AND created_at < ? AND status IN ?", startAt, endAt, settledOrderStatuses()).
		Group(bucketExpr).
		Order("period asc").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// GetTopProducts 按销量统计商品排行，关联当前库存
func (r *GormAnalyticsRepository) GetTopProducts(startAt, endAt time.Time, limit int) ([]TopProductRow, error) {
	if limit <= 0 {
		limit = 10
	}

	var rows []TopProductRow
	if err := r.db.Model(&models.OrderItem{}).
		Select("order_items.product_id as product_id, " +
			"order_items.product_name as product_name, " +
			"COALESCE(SUM(order_items.quantity), 0) as units_sold, " +
			"COALESCE(SUM(order_items.quantity * order_items.unit_price), 0) as revenue, " +
			"COALESCE(MAX(products.stock), 0) as current_stock").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Joins("LEFT JOIN products ON products.id = order_items.product_id").
		Where("orders.created_at >= ? AND orders.created_at < ? AND orders.status IN ?", startAt, endAt, settledOrderStatuses()).
		Group("order_items.product_id, order_items.product_name").
		Order("units_sold DESC").
		Limit(limit).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
