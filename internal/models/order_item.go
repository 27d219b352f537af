package models

import (
	"time"
)

// OrderItem 订单项表
//
// 商品名称与单价为下单时快照，商品后续变更或删除不影响历史订单。
type OrderItem struct {
	ID          uint      `gorm:"primarykey" json:"id"`                                     // 主键
	OrderID     uint      `gorm:"index;not null" json:"order_id"`                           // 订单ID
	ProductID   *uint     `gorm:"index" json:"product_id,omitempty"`                        // 商品ID（商品删除后置空）
	ProductName string    `gorm:"not null" json:"product_name"`                             // 商品名称快照
	Quantity    int       `gorm:"not null" json:"quantity"`                                 // 数量
	UnitPrice   Money     `gorm:"type:decimal(20,2);not null;default:0" json:"unit_price"` // 单价快照
	CreatedAt   time.Time `gorm:"index" json:"created_at"`                                  // 创建时间
}

// TableName 指定表名
func (OrderItem) TableName() string {
	return "order_items"
}
