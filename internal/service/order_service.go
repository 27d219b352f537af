package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/shopfront/internal/constants"
	"github.com/shopfront/internal/logger"
	"github.com/shopfront/internal/models"
	"github.com/shopfront/internal/queue"
	"github.com/shopfront/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderService 订单服务
type OrderService struct {
	orderRepo    repository.OrderRepository
	productRepo  repository.ProductRepository
	cartRepo     repository.CartRepository
	userRepo     repository.UserRepository
	queueClient  *queue.Client
	payments     *PaymentService
	emailService *EmailService
	currency     string
}

// NewOrderService 创建订单服务
func NewOrderService(
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	cartRepo repository.CartRepository,
	userRepo repository.UserRepository,
	queueClient *queue.Client,
	payments *PaymentService,
	emailService *EmailService,
	currency string,
) *OrderService {
	currency = strings.ToLower(strings.TrimSpace(currency))
	if currency == "" {
		currency = constants.SiteCurrencyDefault
	}
	return &OrderService{
		orderRepo:    orderRepo,
		productRepo:  productRepo,
		cartRepo:     cartRepo,
		userRepo:     userRepo,
		queueClient:  queueClient,
		payments:     payments,
		emailService: emailService,
		currency:     currency,
	}
}

// allowedTransitions 订单状态机（单向推进，cancelled/delivered 为终态）
var allowedTransitions = map[string][]string{
	constants.OrderStatusPending:    {constants.OrderStatusPaid, constants.OrderStatusCancelled},
	constants.OrderStatusPaid:       {constants.OrderStatusProcessing, constants.OrderStatusCancelled},
	constants.OrderStatusProcessing: {constants.OrderStatusShipped, constants.OrderStatusCancelled},
	constants.OrderStatusShipped:    {constants.OrderStatusDelivered},
	constants.OrderStatusDelivered:  {},
	constants.OrderStatusCancelled:  {},
}

func transitionAllowed(from, to string) bool {
	for _, candidate := range allowedTransitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

// CreateOrderInput 下单输入
type CreateOrderInput struct {
	UserID          uint
	ShippingAddress string
}

// CreateOrderResult 下单结果
type CreateOrderResult struct {
	Order        *models.Order
	ClientSecret string
}

// CreateOrder 从购物车结算下单
//
// 金额按商品当前价格重新计价，购物车快照价不作数。
// 校验全部通过后才落库；支付意向创建失败不阻断下单。
func (s *OrderService) CreateOrder(ctx context.Context, input CreateOrderInput) (*CreateOrderResult, error) {
	cart, err := s.cartRepo.GetByUser(input.UserID)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		return nil, ErrCartEmpty
	}
	cartItems, err := s.cartRepo.ListItems(cart.ID)
	if err != nil {
		return nil, err
	}
	if len(cartItems) == 0 {
		return nil, ErrCartEmpty
	}

	total := decimal.Zero
	orderItems := make([]models.OrderItem, 0, len(cartItems))
	for _, item := range cartItems {
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("%w: product %d", ErrProductNotAvailable, item.ProductID)
		}
		product, err := s.productRepo.GetActiveByID(item.ProductID)
		if err != nil {
			return nil, err
		}
		if product == nil {
			return nil, fmt.Errorf("%w: product %d", ErrProductNotAvailable, item.ProductID)
		}
		if product.Stock < item.Quantity {
			return nil, fmt.Errorf("%w: product %d has %d left", ErrStockInsufficient, product.ID, product.Stock)
		}

		productID := product.ID
		orderItems = append(orderItems, models.OrderItem{
			ProductID:   &productID,
			ProductName: product.Name,
			Quantity:    item.Quantity,
			UnitPrice:   product.Price,
		})
		total = total.Add(product.Price.Decimal.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	userID := input.UserID
	order := &models.Order{
		OrderNo:         generateOrderNo(),
		UserID:          &userID,
		Status:          constants.OrderStatusPending,
		Currency:        s.currency,
		TotalAmount:     models.NewMoneyFromDecimal(total),
		ShippingAddress: strings.TrimSpace(input.ShippingAddress),
	}

	// 网关配置后先创建支付意向；失败不阻断下单，订单保持待支付
	var clientSecret string
	if s.payments != nil && s.payments.Configured() {
		intent, err := s.payments.CreateIntentForOrder(ctx, order.TotalAmount, s.currency, map[string]string{
			"user_id": fmt.Sprintf("%d", input.UserID),
		})
		if err != nil {
			logger.Warnw("order_payment_intent_create_failed",
				"user_id", input.UserID,
				"order_no", order.OrderNo,
				"error", err,
			)
		} else {
			order.PaymentID = intent.IntentID
			clientSecret = intent.ClientSecret
		}
	}

	if err := models.DB.Transaction(func(tx *gorm.DB) error {
		if err := s.orderRepo.WithTx(tx).Create(order, orderItems); err != nil {
			return err
		}
		return s.cartRepo.WithTx(tx).ClearItems(cart.ID)
	}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOrderCreateFailed, err)
	}

	logger.Infow("order_created",
		"order_id", order.ID,
		"order_no", order.OrderNo,
		"user_id", input.UserID,
		"total_amount", order.TotalAmount.String(),
		"item_count", len(orderItems),
	)

	if order.PaymentID != "" {
		// 意向先于订单存在，订单号此时才能回填
		s.payments.TagIntentWithOrder(ctx, order.PaymentID, order.ID, order.OrderNo)
	} else {
		// 免支付路径：直接标记已支付并扣减库存
		s.markPaidImmediately(order)
	}

	s.dispatchConfirmationEmail(order.ID)

	created, err := s.orderRepo.GetByID(order.ID)
	if err == nil && created != nil {
		order = created
	}
	return &CreateOrderResult{Order: order, ClientSecret: clientSecret}, nil
}

// markPaidImmediately 免支付路径直接置为已支付
func (s *OrderService) markPaidImmediately(order *models.Order) {
	now := time.Now()
	affected, err := s.orderRepo.UpdateStatusIfCurrent(
		order.ID,
		constants.OrderStatusPending,
		constants.OrderStatusPaid,
		map[string]interface{}{"paid_at": &now},
	)
	if err != nil {
		logger.Errorw("order_mark_paid_failed", "order_id", order.ID, "error", err)
		return
	}
	if affected == 0 {
		return
	}
	order.Status = constants.OrderStatusPaid
	order.PaidAt = &now
	s.dispatchStockReconcile(order.ID)
}

// ReconcileStock 已支付订单的库存扣减
//
// 可重复调用：已扣减或未支付的订单直接跳过。
// 扣减条数为 0 视为库存异常，记日志继续，不让已收款订单失败。
func (s *OrderService) ReconcileStock(orderID uint) error {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return err
	}
	if order == nil {
		return fmt.Errorf("%w: order %d", ErrOrderNotFound, orderID)
	}
	if order.Status != constants.OrderStatusPaid &&
		order.Status != constants.OrderStatusProcessing &&
		order.Status != constants.OrderStatusShipped &&
		order.Status != constants.OrderStatusDelivered {
		logger.Debugw("order_stock_reconcile_skipped",
			"order_id", orderID,
			"status", order.Status,
		)
		return nil
	}

	affected, err := s.orderRepo.MarkStockReconciled(order.ID)
	if err != nil {
		return err
	}
	if affected == 0 {
		logger.Debugw("order_stock_already_reconciled", "order_id", orderID)
		return nil
	}

	for _, item := range order.Items {
		if item.ProductID == nil {
			continue
		}
		rows, err := s.productRepo.DecrementStock(*item.ProductID, item.Quantity)
		if err != nil {
			logger.Warnw("order_stock_decrement_error",
				"order_id", order.ID,
				"product_id", *item.ProductID,
				"error", err,
			)
			continue
		}
		if rows == 0 {
			logger.Warnw("order_stock_anomaly",
				"order_id", order.ID,
				"order_no", order.OrderNo,
				"product_id", *item.ProductID,
				"quantity", item.Quantity,
			)
		}
	}

	logger.Infow("order_stock_reconciled", "order_id", order.ID, "order_no", order.OrderNo)
	return nil
}

// GetOrder 获取用户订单详情
func (s *OrderService) GetOrder(userID, orderID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByIDAndUser(orderID, userID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// ListOrders 用户订单列表
func (s *OrderService) ListOrders(filter repository.OrderListFilter) ([]models.Order, int64, error) {
	return s.orderRepo.ListByUser(filter)
}

// UpdateStatus 推进订单状态（管理端）
func (s *OrderService) UpdateStatus(orderID uint, target string) (*models.Order, error) {
	target = strings.ToLower(strings.TrimSpace(target))
	if _, ok := allowedTransitions[target]; !ok {
		return nil, fmt.Errorf("%w: unknown status %q", ErrOrderStatusInvalid, target)
	}

	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if !transitionAllowed(order.Status, target) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrOrderStatusInvalid, order.Status, target)
	}

	updates := map[string]interface{}{}
	if target == constants.OrderStatusPaid {
		now := time.Now()
		updates["paid_at"] = &now
	}
	affected, err := s.orderRepo.UpdateStatusIfCurrent(order.ID, order.Status, target, updates)
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, fmt.Errorf("%w: concurrent update", ErrOrderUpdateFailed)
	}

	logger.Infow("order_status_updated",
		"order_id", order.ID,
		"order_no", order.OrderNo,
		"from", order.Status,
		"to", target,
	)

	if target == constants.OrderStatusPaid {
		s.dispatchStockReconcile(order.ID)
	}
	return s.orderRepo.GetByID(order.ID)
}

// dispatchStockReconcile 推送库存扣减任务，队列未启用时进程内异步执行
func (s *OrderService) dispatchStockReconcile(orderID uint) {
	if s.queueClient.Enabled() {
		if err := s.queueClient.EnqueueStockReconcile(queue.StockReconcilePayload{OrderID: orderID}); err != nil {
			logger.Warnw("order_enqueue_stock_reconcile_failed",
				"order_id", orderID,
				"error", err,
			)
		}
		return
	}
	go func() {
		if err := s.ReconcileStock(orderID); err != nil {
			logger.Warnw("order_stock_reconcile_failed",
				"order_id", orderID,
				"error", err,
			)
		}
	}()
}

// dispatchConfirmationEmail 推送订单确认邮件任务（尽力而为）
func (s *OrderService) dispatchConfirmationEmail(orderID uint) {
	if s.queueClient.Enabled() {
		if err := s.queueClient.EnqueueOrderConfirmationEmail(queue.OrderConfirmationEmailPayload{OrderID: orderID}); err != nil {
			logger.Warnw("order_enqueue_confirmation_email_failed",
				"order_id", orderID,
				"error", err,
			)
		}
		return
	}
	go func() {
		if err := s.SendConfirmationEmail(orderID); err != nil {
			logger.Debugw("order_confirmation_email_skipped",
				"order_id", orderID,
				"reason", err.Error(),
			)
		}
	}()
}

// SendConfirmationEmail 发送订单确认邮件
func (s *OrderService) SendConfirmationEmail(orderID uint) error {
	if s.emailService == nil || !s.emailService.Enabled() {
		return ErrEmailServiceDisabled
	}
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return err
	}
	if order == nil {
		return fmt.Errorf("%w: order %d", ErrOrderNotFound, orderID)
	}
	if order.UserID == nil {
		return fmt.Errorf("%w: order %d has no user", ErrOrderNotFound, orderID)
	}
	user, err := s.userRepo.GetByID(*order.UserID)
	if err != nil {
		return err
	}
	if user == nil {
		return fmt.Errorf("%w: user %d", ErrNotFound, *order.UserID)
	}
	return s.emailService.SendOrderConfirmation(user, order)
}

// generateOrderNo 生成订单编号：SF + 时间戳 + 6 位随机数字
func generateOrderNo() string {
	return "SF" + time.Now().Format("20060102150405") + randNumeric(6)
}

func randNumeric(n int) string {
	const digits = "0123456789"
	b := make([]byte, n)
	for i := range b {
		idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(digits))))
		if err != nil {
			b[i] = '0'
			continue
		}
		b[i] = digits[idx.Int64()]
	}
	return string(b)
}
