package worker

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/shopfront/internal/logger"
	"github.com/shopfront/internal/provider"
	"github.com/shopfront/internal/queue"
	"github.com/shopfront/internal/service"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskStockReconcile, c.handleStockReconcile)
	mux.HandleFunc(queue.TaskOrderConfirmationEmail, c.handleOrderConfirmationEmail)
}

func (c *Consumer) handleStockReconcile(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_stock_reconcile_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.StockReconcilePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_stock_reconcile_unmarshal_failed", "error", err)
		return err
	}
	if payload.OrderID == 0 {
		logger.Debugw("worker_stock_reconcile_skip_invalid_payload", "order_id", payload.OrderID)
		return nil
	}

	err := c.OrderService.ReconcileStock(payload.OrderID)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, service.ErrOrderNotFound):
		// 订单可能已被清理，重试无意义
		logger.Debugw("worker_stock_reconcile_skip_order_not_found", "order_id", payload.OrderID)
		return nil
	default:
		logger.Warnw("worker_stock_reconcile_failed", "order_id", payload.OrderID, "error", err)
		return err
	}
}

func (c *Consumer) handleOrderConfirmationEmail(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_order_confirmation_email_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.OrderConfirmationEmailPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_order_confirmation_email_unmarshal_failed", "error", err)
		return err
	}
	if payload.OrderID == 0 {
		logger.Debugw("worker_order_confirmation_email_skip_invalid_payload", "order_id", payload.OrderID)
		return nil
	}

	err := c.OrderService.SendConfirmationEmail(payload.OrderID)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, service.ErrEmailServiceDisabled),
		errors.Is(err, service.ErrEmailServiceNotConfigured):
		logger.Debugw("worker_order_confirmation_email_skip_disabled", "order_id", payload.OrderID)
		return nil
	case errors.Is(err, service.ErrOrderNotFound),
		errors.Is(err, service.ErrNotFound):
		logger.Debugw("worker_order_confirmation_email_skip_missing", "order_id", payload.OrderID)
		return nil
	default:
		logger.Warnw("worker_order_confirmation_email_failed", "order_id", payload.OrderID, "error", err)
		return err
	}
}
