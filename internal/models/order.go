package models

import (
	"time"

	"gorm.io/gorm"
)

// Order 订单表
//
// 创建后除 Status、PaymentID、StockReconciled 外不可变更。
type Order struct {
	ID              uint           `gorm:"primarykey" json:"id"`                                      // 主键
	OrderNo         string         `gorm:"uniqueIndex;not null" json:"order_no"`                      // 订单编号
	UserID          *uint          `gorm:"index" json:"user_id,omitempty"`                            // 用户ID（用户删除后置空）
	Status          string         `gorm:"index;not null" json:"status"`                              // 订单状态
	Currency        string         `gorm:"not null" json:"currency"`                                  // 币种
	TotalAmount     Money          `gorm:"type:decimal(20,2);not null;default:0" json:"total_amount"` // 实付金额
	ShippingAddress string         `gorm:"type:text" json:"shipping_address"`                         // 收货地址
	PaymentID       string         `gorm:"index" json:"payment_id,omitempty"`                         // 支付网关支付单号
	StockReconciled bool           `gorm:"not null;default:false" json:"-"`                           // 库存扣减是否已执行
	PaidAt          *time.Time     `gorm:"index" json:"paid_at"`                                      // 支付时间
	CreatedAt       time.Time      `gorm:"index" json:"created_at"`                                   // 创建时间
	UpdatedAt       time.Time      `gorm:"index" json:"updated_at"`                                   // 更新时间
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`                                            // 软删除时间

	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"` // 订单项
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}
