package public

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopfront/internal/config"
	"github.com/shopfront/internal/constants"
	"github.com/shopfront/internal/models"
	"github.com/shopfront/internal/provider"
	"github.com/shopfront/internal/queue"
	"github.com/shopfront/internal/repository"
	"github.com/shopfront/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const webhookTestSecret = "whsec_handler_test"

func setupWebhookHandlerTest(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:webhook_handler_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
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

	cfg := &config.Config{}
	cfg.Payment.SecretKey = "sk_test_handler"
	cfg.Payment.WebhookSecret = webhookTestSecret
	cfg.Payment.Currency = "usd"
	cfg.Payment.ToleranceSeconds = 300

	orderRepo := repository.NewOrderRepository(db)
	productRepo := repository.NewProductRepository(db)
	cartRepo := repository.NewCartRepository(db)
	userRepo := repository.NewUserRepository(db)
	queueClient, err := queue.NewClient(nil)
	if err != nil {
		t.Fatalf("new queue client failed: %v", err)
	}
	payments := service.NewPaymentService(cfg.Payment, orderRepo, queueClient)
	emailService := service.NewEmailService(config.EmailConfig{Enabled: false})
	orderService := service.NewOrderService(orderRepo, productRepo, cartRepo, userRepo, queueClient, payments, emailService, "usd")
	payments.SetReconciler(orderService)

	handler := New(&provider.Container{
		Config:         cfg,
		QueueClient:    queueClient,
		OrderRepo:      orderRepo,
		ProductRepo:    productRepo,
		PaymentService: payments,
		OrderService:   orderService,
	})

	r := gin.New()
	r.POST("/api/v1/payments/webhook/stripe", handler.StripeWebhook)
	return r, db
}

func signWebhookRequest(t *testing.T, body []byte) string {
	t.Helper()
	ts := time.Now().Unix()
	mac := hmac.New(sha256.New, []byte(webhookTestSecret))
	mac.Write([]byte(fmt.Sprintf("%d.%s", ts, body)))
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func webhookWaitFor(t *testing.T, timeout time.Duration, check func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if check() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("condition not met within %s", timeout)
}

func TestStripeWebhookEndpointMarksOrderPaid(t *testing.T) {
	r, db := setupWebhookHandlerTest(t)

	product := &models.Product{
		Name:     "Webhook Widget",
		SKU:      "SKU-WEBHOOK-H1",
		Price:    models.NewMoneyFromDecimal(decimal.NewFromInt(20)),
		Stock:    5,
		IsActive: true,
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	order := &models.Order{
		OrderNo:     "SF20260101000000000301",
		Status:      constants.OrderStatusPending,
		Currency:    "usd",
		TotalAmount: models.NewMoneyFromDecimal(decimal.NewFromInt(40)),
	}
	if err := db.Create(order).Error; err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	productID := product.ID
	item := models.OrderItem{OrderID: order.ID, ProductID: &productID, ProductName: product.Name, Quantity: 2, UnitPrice: product.Price}
	if err := db.Create(&item).Error; err != nil {
		t.Fatalf("create order item failed: %v", err)
	}

	body := []byte(fmt.Sprintf(`{"id":"evt_h1","type":"payment_intent.succeeded","data":{"object":{"id":"pi_handler_1","amount":4000,"currency":"usd","metadata":{"order_id":"%d"}}}}`, order.ID))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/webhook/stripe", bytes.NewReader(body))
	req.Header.Set("Stripe-Signature", signWebhookRequest(t, body))
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status want 200 got %d", w.Code)
	}
	var resp struct {
		StatusCode int `json:"status_code"`
		Data       struct {
			Accepted  bool   `json:"accepted"`
			EventType string `json:"event_type"`
			Updated   bool   `json:"updated"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v", err)
	}
	if resp.StatusCode != 0 || !resp.Data.Accepted || !resp.Data.Updated {
		t.Fatalf("unexpected response: %s", w.Body.String())
	}

	var stored models.Order
	if err := db.First(&stored, order.ID).Error; err != nil {
		t.Fatalf("load order failed: %v", err)
	}
	if stored.Status != constants.OrderStatusPaid {
		t.Fatalf("order status want paid got %s", stored.Status)
	}
	webhookWaitFor(t, 2*time.Second, func() bool {
		var p models.Product
		if err := db.First(&p, product.ID).Error; err != nil {
			return false
		}
		return p.Stock == 3
	})
}

func TestStripeWebhookEndpointRejectsBadSignature(t *testing.T) {
	r, db := setupWebhookHandlerTest(t)

	order := &models.Order{
		OrderNo:     "SF20260101000000000302",
		Status:      constants.OrderStatusPending,
		Currency:    "usd",
		TotalAmount: models.NewMoneyFromDecimal(decimal.NewFromInt(10)),
	}
	if err := db.Create(order).Error; err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	body := []byte(fmt.Sprintf(`{"id":"evt_h2","type":"payment_intent.succeeded","data":{"object":{"id":"pi_handler_2","amount":1000,"currency":"usd","metadata":{"order_id":"%d"}}}}`, order.ID))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/webhook/stripe", bytes.NewReader(body))
	req.Header.Set("Stripe-Signature", "t=123,v1=deadbeef")
	r.ServeHTTP(w, req)

	var resp struct {
		StatusCode int `json:"status_code"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v", err)
	}
	if resp.StatusCode != 400 {
		t.Fatalf("status_code want 400 got %d", resp.StatusCode)
	}

	var stored models.Order
	if err := db.First(&stored, order.ID).Error; err != nil {
		t.Fatalf("load order failed: %v", err)
	}
	if stored.Status != constants.OrderStatusPending {
		t.Fatalf("order status should stay pending, got %s", stored.Status)
	}
}

func TestStripeWebhookEndpointUnconfiguredGatewayIsServerError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{}
	queueClient, err := queue.NewClient(nil)
	if err != nil {
		t.Fatalf("new queue client failed: %v", err)
	}
	handler := New(&provider.Container{
		Config:         cfg,
		QueueClient:    queueClient,
		PaymentService: service.NewPaymentService(cfg.Payment, repository.NewOrderRepository(nil), queueClient),
	})
	r := gin.New()
	r.POST("/api/v1/payments/webhook/stripe", handler.StripeWebhook)

	body := []byte(`{"id":"evt_h3","type":"payment_intent.succeeded"}`)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/webhook/stripe", bytes.NewReader(body))
	req.Header.Set("Stripe-Signature", "t=123,v1=deadbeef")
	r.ServeHTTP(w, req)

	var resp struct {
		StatusCode int `json:"status_code"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v", err)
	}
	if resp.StatusCode != 500 {
		t.Fatalf("status_code want 500 got %d", resp.StatusCode)
	}
}

func TestStripeWebhookEndpointRejectsOversizedBody(t *testing.T) {
	r, _ := setupWebhookHandlerTest(t)

	big := bytes.Repeat([]byte("a"), int(defaultMaxWebhookBytes)+1)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/webhook/stripe", bytes.NewReader(big))
	req.Header.Set("Stripe-Signature", signWebhookRequest(t, big))
	r.ServeHTTP(w, req)

	var resp struct {
		StatusCode int    `json:"status_code"`
		Msg        string `json:"msg"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v", err)
	}
	if resp.StatusCode != 400 {
		t.Fatalf("status_code want 400 got %d", resp.StatusCode)
	}
}
