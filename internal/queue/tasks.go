package queue

import (
	"encoding/json"

	"github.com/shopfront/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskStockReconcile 订单库存扣减任务
	TaskStockReconcile = constants.TaskOrderStockReconcile
	// TaskOrderConfirmationEmail 订单确认邮件任务
	TaskOrderConfirmationEmail = constants.TaskOrderConfirmationEmail
)

// StockReconcilePayload 库存扣减任务载荷
type StockReconcilePayload struct {
	OrderID uint `json:"order_id"`
}

// OrderConfirmationEmailPayload 订单确认邮件任务载荷
type OrderConfirmationEmailPayload struct {
	OrderID uint `json:"order_id"`
}

// NewStockReconcileTask 创建库存扣减任务
func NewStockReconcileTask(payload StockReconcilePayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskStockReconcile, body), nil
}

// NewOrderConfirmationEmailTask 创建订单确认邮件任务
func NewOrderConfirmationEmailTask(payload OrderConfirmationEmailPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOrderConfirmationEmail, body), nil
}
