package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopfront/internal/config"
	"github.com/shopfront/internal/constants"
	"github.com/shopfront/internal/logger"
	"github.com/shopfront/internal/models"
	"github.com/shopfront/internal/payment/stripe"
	"github.com/shopfront/internal/queue"
	"github.com/shopfront/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// StockReconciler 支付确认后触发的库存扣减入口
type StockReconciler interface {
	ReconcileStock(orderID uint) error
}

// PaymentService 支付网关服务
//
// 未配置 SecretKey 时网关视为关闭，下单流程走免支付路径。
type PaymentService struct {
	cfg         config.PaymentConfig
	orderRepo   repository.OrderRepository
	queueClient *queue.Client
	reconciler  StockReconciler
}

// NewPaymentService 创建支付网关服务
func NewPaymentService(cfg config.PaymentConfig, orderRepo repository.OrderRepository, queueClient *queue.Client) *PaymentService {
	return &PaymentService{
		cfg:         cfg,
		orderRepo:   orderRepo,
		queueClient: queueClient,
	}
}

// SetReconciler 注入库存扣减实现
//
// 下单服务依赖支付服务创建意向，库存扣减方向相反，容器装配完后回填。
func (s *PaymentService) SetReconciler(reconciler StockReconciler) {
	s.reconciler = reconciler
}

// Configured 是否已配置支付网关
func (s *PaymentService) Configured() bool {
	return s.cfg.Configured()
}

func (s *PaymentService) gatewayConfig() *stripe.Config {
	cfg := &stripe.Config{
		SecretKey:               s.cfg.SecretKey,
		WebhookSecret:           s.cfg.WebhookSecret,
		APIBaseURL:              s.cfg.Endpoint,
		WebhookToleranceSeconds: s.cfg.ToleranceSeconds,
	}
	cfg.Normalize()
	return cfg
}

// paymentLogger 支付日志统一带上网关字段
func paymentLogger(kv ...interface{}) *zap.SugaredLogger {
	fields := append([]interface{}{"provider", "stripe"}, kv...)
	return logger.SW(fields...)
}

// CreateIntentForOrder 为订单金额创建支付意向
func (s *PaymentService) CreateIntentForOrder(ctx context.Context, amount models.Money, currency string, metadata map[string]string) (*stripe.IntentResult, error) {
	if !s.Configured() {
		return nil, ErrPaymentNotConfigured
	}
	result, err := stripe.CreateIntent(ctx, s.gatewayConfig(), stripe.CreateIntentInput{
		Amount:         amount.String(),
		Currency:       currency,
		Description:    "Shopfront order",
		Metadata:       metadata,
		IdempotencyKey: uuid.NewString(),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPaymentGatewayRequestFailed, err)
	}
	return result, nil
}

// TagIntentWithOrder 回填订单号到支付意向元数据（尽力而为）
func (s *PaymentService) TagIntentWithOrder(ctx context.Context, intentID string, orderID uint, orderNo string) {
	if !s.Configured() || intentID == "" {
		return
	}
	_, err := stripe.UpdateIntentMetadata(ctx, s.gatewayConfig(), intentID, map[string]string{
		"order_id": fmt.Sprintf("%d", orderID),
		"order_no": orderNo,
	})
	if err != nil {
		paymentLogger(
			"intent_id", intentID,
			"order_id", orderID,
		).Warnw("payment_intent_tag_failed", "error", err)
	}
}

// WebhookEventResult Webhook 处理结果
type WebhookEventResult struct {
	EventType string
	OrderID   uint
	Updated   bool
}

// HandleWebhook 处理支付网关 Webhook 回调
//
// 验签失败返回错误；已知事件处理失败以外的情况一律确认收到，
// 让网关停止重试，具体原因记日志排查。
func (s *PaymentService) HandleWebhook(headers map[string]string, body []byte) (*WebhookEventResult, error) {
	log := paymentLogger("body_size", len(body))

	if s.cfg.WebhookSecret == "" {
		return nil, ErrPaymentNotConfigured
	}

	event, err := stripe.VerifyAndParseWebhook(s.gatewayConfig(), headers, body, time.Now())
	if err != nil {
		if errors.Is(err, stripe.ErrSignatureInvalid) {
			log.Warnw("payment_webhook_signature_invalid", "error", err)
			return nil, fmt.Errorf("%w: %v", ErrWebhookSignatureInvalid, err)
		}
		log.Warnw("payment_webhook_payload_invalid", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrWebhookPayloadInvalid, err)
	}

	result := &WebhookEventResult{EventType: event.EventType, OrderID: event.OrderID}

	switch event.EventType {
	case constants.PaymentEventSucceeded:
		updated, err := s.applyPaymentSucceeded(event)
		if err != nil {
			return nil, err
		}
		result.Updated = updated
		return result, nil
	case constants.PaymentEventFailed:
		log.Warnw("payment_intent_failed",
			"event_id", event.EventID,
			"intent_id", event.IntentID,
			"order_id", event.OrderID,
		)
		return result, nil
	default:
		log.Debugw("payment_webhook_event_ignored",
			"event_id", event.EventID,
			"event_type", event.EventType,
		)
		return result, nil
	}
}

// applyPaymentSucceeded 支付成功事件：pending -> paid，随后异步扣减库存
func (s *PaymentService) applyPaymentSucceeded(event *stripe.WebhookResult) (bool, error) {
	log := paymentLogger(
		"event_id", event.EventID,
		"intent_id", event.IntentID,
		"order_id", event.OrderID,
	)

	if event.OrderID == 0 {
		log.Infow("payment_webhook_order_missing_metadata")
		return false, nil
	}

	order, err := s.orderRepo.GetByID(event.OrderID)
	if err != nil {
		return false, err
	}
	if order == nil {
		log.Infow("payment_webhook_order_not_found")
		return false, nil
	}

	now := time.Now()
	affected, err := s.orderRepo.UpdateStatusIfCurrent(
		order.ID,
		constants.OrderStatusPending,
		constants.OrderStatusPaid,
		map[string]interface{}{
			"payment_id": event.IntentID,
			"paid_at":    &now,
		},
	)
	if err != nil {
		return false, err
	}
	if affected == 0 {
		// 重放或状态已推进，确认收到即可
		log.Infow("payment_webhook_replay_ignored", "status", order.Status)
		return false, nil
	}

	log.Infow("order_marked_paid", "order_no", order.OrderNo)
	s.dispatchStockReconcile(order.ID)
	return true, nil
}

// dispatchStockReconcile 推送库存扣减任务，队列未启用时进程内异步执行
func (s *PaymentService) dispatchStockReconcile(orderID uint) {
	if s.queueClient.Enabled() {
		if err := s.queueClient.EnqueueStockReconcile(queue.StockReconcilePayload{OrderID: orderID}); err != nil {
			logger.Warnw("order_enqueue_stock_reconcile_failed",
				"order_id", orderID,
				"error", err,
			)
		}
		return
	}
	if s.reconciler == nil {
		logger.Warnw("order_stock_reconciler_missing", "order_id", orderID)
		return
	}
	go func() {
		if err := s.reconciler.ReconcileStock(orderID); err != nil {
			logger.Warnw("order_stock_reconcile_failed",
				"order_id", orderID,
				"error", err,
			)
		}
	}()
}
