package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopfront/internal/config"
	"github.com/shopfront/internal/constants"
	"github.com/shopfront/internal/models"
	"github.com/shopfront/internal/queue"
	"github.com/shopfront/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupOrderServiceTest(t *testing.T) (*OrderService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:order_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.Cart{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderItem{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db

	orderRepo := repository.NewOrderRepository(db)
	productRepo := repository.NewProductRepository(db)
	cartRepo := repository.NewCartRepository(db)
	userRepo := repository.NewUserRepository(db)
	queueClient, err := queue.NewClient(nil)
	if err != nil {
		t.Fatalf("new queue client failed: %v", err)
	}
	payments := NewPaymentService(config.PaymentConfig{}, orderRepo, queueClient)
	emailService := NewEmailService(config.EmailConfig{Enabled: false})
	orderService := NewOrderService(orderRepo, productRepo, cartRepo, userRepo, queueClient, payments, emailService, "usd")
	payments.SetReconciler(orderService)
	return orderService, db
}

func createOrderTestUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()
	user := &models.User{
		Email:        email,
		PasswordHash: "hash",
		IsActive:     true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	return user
}

func createOrderTestProduct(t *testing.T, db *gorm.DB, sku string, price string, stock int) *models.Product {
	t.Helper()
	amount, err := decimal.NewFromString(price)
	if err != nil {
		t.Fatalf("parse price failed: %v", err)
	}
	product := &models.Product{
		Name:     "Product " + sku,
		SKU:      sku,
		Price:    models.NewMoneyFromDecimal(amount),
		Stock:    stock,
		IsActive: true,
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	return product
}

func addToCart(t *testing.T, db *gorm.DB, userID uint, product *models.Product, quantity int) {
	t.Helper()
	cartRepo := repository.NewCartRepository(db)
	cart, err := cartRepo.GetOrCreateByUser(userID)
	if err != nil {
		t.Fatalf("get or create cart failed: %v", err)
	}
	item := &models.CartItem{
		CartID:    cart.ID,
		ProductID: product.ID,
		Quantity:  quantity,
		UnitPrice: product.Price,
	}
	if err := cartRepo.SaveItem(item); err != nil {
		t.Fatalf("save cart item failed: %v", err)
	}
}

func productStock(t *testing.T, db *gorm.DB, productID uint) int {
	t.Helper()
	var product models.Product
	if err := db.First(&product, productID).Error; err != nil {
		t.Fatalf("load product failed: %v", err)
	}
	return product.Stock
}

func cartItemCount(t *testing.T, db *gorm.DB, userID uint) int64 {
	t.Helper()
	var cart models.Cart
	if err := db.Where("user_id = ?", userID).First(&cart).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0
		}
		t.Fatalf("load cart failed: %v", err)
	}
	var count int64
	if err := db.Model(&models.CartItem{}).Where("cart_id = ?", cart.ID).Count(&count).Error; err != nil {
		t.Fatalf("count cart items failed: %v", err)
	}
	return count
}

func waitFor(t *testing.T, timeout time.Duration, check func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if check() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return check()
}

func TestCreateOrderEmptyCart(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	user := createOrderTestUser(t, db, "empty_cart@example.com")

	if _, err := svc.CreateOrder(context.Background(), CreateOrderInput{UserID: user.ID}); !errors.Is(err, ErrCartEmpty) {
		t.Fatalf("expected ErrCartEmpty, got %v", err)
	}
}

func TestCreateOrderRepricesAtCheckout(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	user := createOrderTestUser(t, db, "reprice@example.com")
	product := createOrderTestProduct(t, db, "SKU-REPRICE", "10.00", 100)
	addToCart(t, db, user.ID, product, 2)

	// 加入购物车后涨价，结算必须按当前价计
	if err := db.Model(&models.Product{}).Where("id = ?", product.ID).
		Update("price", "15.00").Error; err != nil {
		t.Fatalf("update price failed: %v", err)
	}

	result, err := svc.CreateOrder(context.Background(), CreateOrderInput{UserID: user.ID, ShippingAddress: "1 Test St"})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	order := result.Order
	if order.TotalAmount.String() != "30.00" {
		t.Fatalf("expected total 30.00, got %s", order.TotalAmount.String())
	}
	if len(order.Items) != 1 {
		t.Fatalf("expected 1 order item, got %d", len(order.Items))
	}
	if order.Items[0].UnitPrice.String() != "15.00" {
		t.Fatalf("expected unit price snapshot 15.00, got %s", order.Items[0].UnitPrice.String())
	}
	if order.Items[0].ProductName != product.Name {
		t.Fatalf("expected product name snapshot %q, got %q", product.Name, order.Items[0].ProductName)
	}
	if count := cartItemCount(t, db, user.ID); count != 0 {
		t.Fatalf("expected cart cleared, got %d items", count)
	}
}

func TestCreateOrderInactiveProductAborts(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	user := createOrderTestUser(t, db, "inactive@example.com")
	product := createOrderTestProduct(t, db, "SKU-INACTIVE", "9.99", 10)
	addToCart(t, db, user.ID, product, 1)

	if err := db.Model(&models.Product{}).Where("id = ?", product.ID).
		Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate product failed: %v", err)
	}

	_, err := svc.CreateOrder(context.Background(), CreateOrderInput{UserID: user.ID})
	if !errors.Is(err, ErrProductNotAvailable) {
		t.Fatalf("expected ErrProductNotAvailable, got %v", err)
	}

	var orderCount int64
	if err := db.Model(&models.Order{}).Count(&orderCount).Error; err != nil {
		t.Fatalf("count orders failed: %v", err)
	}
	if orderCount != 0 {
		t.Fatalf("expected no orders persisted, got %d", orderCount)
	}
	if count := cartItemCount(t, db, user.ID); count != 1 {
		t.Fatalf("expected cart untouched, got %d items", count)
	}
}

func TestCreateOrderInsufficientStockAborts(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	user := createOrderTestUser(t, db, "nostock@example.com")
	product := createOrderTestProduct(t, db, "SKU-NOSTOCK", "5.00", 1)
	addToCart(t, db, user.ID, product, 3)

	_, err := svc.CreateOrder(context.Background(), CreateOrderInput{UserID: user.ID})
	if !errors.Is(err, ErrStockInsufficient) {
		t.Fatalf("expected ErrStockInsufficient, got %v", err)
	}

	var orderCount int64
	if err := db.Model(&models.Order{}).Count(&orderCount).Error; err != nil {
		t.Fatalf("count orders failed: %v", err)
	}
	if orderCount != 0 {
		t.Fatalf("expected no orders persisted, got %d", orderCount)
	}
	if stock := productStock(t, db, product.ID); stock != 1 {
		t.Fatalf("expected stock unchanged, got %d", stock)
	}
	if count := cartItemCount(t, db, user.ID); count != 1 {
		t.Fatalf("expected cart untouched, got %d items", count)
	}
}

func TestCreateOrderWithoutGatewayMarksPaid(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	user := createOrderTestUser(t, db, "nogateway@example.com")
	product := createOrderTestProduct(t, db, "SKU-NOGATEWAY", "7.50", 5)
	addToCart(t, db, user.ID, product, 2)

	result, err := svc.CreateOrder(context.Background(), CreateOrderInput{UserID: user.ID})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	order := result.Order
	if order.Status != constants.OrderStatusPaid {
		t.Fatalf("expected status paid, got %s", order.Status)
	}
	if order.PaidAt == nil {
		t.Fatalf("expected paid_at set")
	}
	if result.ClientSecret != "" {
		t.Fatalf("expected no client secret without gateway, got %q", result.ClientSecret)
	}

	// 库存扣减在队列禁用时进程内异步执行
	if !waitFor(t, 2*time.Second, func() bool {
		return productStock(t, db, product.ID) == 3
	}) {
		t.Fatalf("expected stock 3 after reconcile, got %d", productStock(t, db, product.ID))
	}
	if count := cartItemCount(t, db, user.ID); count != 0 {
		t.Fatalf("expected cart cleared, got %d items", count)
	}
}

func TestReconcileStockRunsOnce(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	user := createOrderTestUser(t, db, "reconcile_once@example.com")
	product := createOrderTestProduct(t, db, "SKU-ONCE", "3.00", 10)

	now := time.Now()
	productID := product.ID
	order := &models.Order{
		OrderNo:     "SF20260101000000000001",
		UserID:      &user.ID,
		Status:      constants.OrderStatusPaid,
		Currency:    "usd",
		TotalAmount: models.NewMoneyFromDecimal(decimal.NewFromInt(6)),
		PaidAt:      &now,
	}
	if err := db.Create(order).Error; err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	item := models.OrderItem{
		OrderID:     order.ID,
		ProductID:   &productID,
		ProductName: product.Name,
		Quantity:    2,
		UnitPrice:   product.Price,
	}
	if err := db.Create(&item).Error; err != nil {
		t.Fatalf("create order item failed: %v", err)
	}

	if err := svc.ReconcileStock(order.ID); err != nil {
		t.Fatalf("first reconcile failed: %v", err)
	}
	if err := svc.ReconcileStock(order.ID); err != nil {
		t.Fatalf("second reconcile failed: %v", err)
	}
	if stock := productStock(t, db, product.ID); stock != 8 {
		t.Fatalf("expected stock decremented once to 8, got %d", stock)
	}
}

func TestReconcileStockSkipsUnpaidOrder(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	user := createOrderTestUser(t, db, "reconcile_pending@example.com")
	product := createOrderTestProduct(t, db, "SKU-PENDING", "3.00", 10)

	productID := product.ID
	order := &models.Order{
		OrderNo:     "SF20260101000000000002",
		UserID:      &user.ID,
		Status:      constants.OrderStatusPending,
		Currency:    "usd",
		TotalAmount: models.NewMoneyFromDecimal(decimal.NewFromInt(3)),
	}
	if err := db.Create(order).Error; err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	item := models.OrderItem{OrderID: order.ID, ProductID: &productID, ProductName: product.Name, Quantity: 1, UnitPrice: product.Price}
	if err := db.Create(&item).Error; err != nil {
		t.Fatalf("create order item failed: %v", err)
	}

	if err := svc.ReconcileStock(order.ID); err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}
	if stock := productStock(t, db, product.ID); stock != 10 {
		t.Fatalf("expected stock unchanged, got %d", stock)
	}
}

func TestReconcileStockAnomalyDoesNotFail(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	user := createOrderTestUser(t, db, "reconcile_anomaly@example.com")
	product := createOrderTestProduct(t, db, "SKU-ANOMALY", "3.00", 1)

	now := time.Now()
	productID := product.ID
	order := &models.Order{
		OrderNo:     "SF20260101000000000003",
		UserID:      &user.ID,
		Status:      constants.OrderStatusPaid,
		Currency:    "usd",
		TotalAmount: models.NewMoneyFromDecimal(decimal.NewFromInt(9)),
		PaidAt:      &now,
	}
	if err := db.Create(order).Error; err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	item := models.OrderItem{OrderID: order.ID, ProductID: &productID, ProductName: product.Name, Quantity: 3, UnitPrice: product.Price}
	if err := db.Create(&item).Error; err != nil {
		t.Fatalf("create order item failed: %v", err)
	}

	// 库存不够扣，只记异常不报错
	if err := svc.ReconcileStock(order.ID); err != nil {
		t.Fatalf("expected no error on anomaly, got %v", err)
	}
	if stock := productStock(t, db, product.ID); stock != 1 {
		t.Fatalf("expected stock unchanged on anomaly, got %d", stock)
	}
}

func TestUpdateStatusTransitions(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	user := createOrderTestUser(t, db, "transitions@example.com")

	now := time.Now()
	order := &models.Order{
		OrderNo:         "SF20260101000000000004",
		UserID:          &user.ID,
		Status:          constants.OrderStatusPaid,
		Currency:        "usd",
		TotalAmount:     models.NewMoneyFromDecimal(decimal.NewFromInt(10)),
		PaidAt:          &now,
		StockReconciled: true,
	}
	if err := db.Create(order).Error; err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	updated, err := svc.UpdateStatus(order.ID, constants.OrderStatusProcessing)
	if err != nil {
		t.Fatalf("paid -> processing failed: %v", err)
	}
	if updated.Status != constants.OrderStatusProcessing {
		t.Fatalf("expected processing, got %s", updated.Status)
	}

	if _, err := svc.UpdateStatus(order.ID, constants.OrderStatusDelivered); !errors.Is(err, ErrOrderStatusInvalid) {
		t.Fatalf("expected ErrOrderStatusInvalid for processing -> delivered, got %v", err)
	}
	if _, err := svc.UpdateStatus(order.ID, "refunded"); !errors.Is(err, ErrOrderStatusInvalid) {
		t.Fatalf("expected ErrOrderStatusInvalid for unknown status, got %v", err)
	}
}

func TestGenerateOrderNo(t *testing.T) {
	orderNo := generateOrderNo()
	if len(orderNo) != 2+14+6 {
		t.Fatalf("unexpected order no length: %s", orderNo)
	}
	if orderNo[:2] != "SF" {
		t.Fatalf("expected SF prefix, got %s", orderNo)
	}
}
