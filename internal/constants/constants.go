package constants

// 订单状态常量
const (
	OrderStatusPending    = "pending"
	OrderStatusPaid       = "paid"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
)

// 支付网关事件类型常量
const (
	PaymentEventSucceeded = "payment_intent.succeeded"
	PaymentEventFailed    = "payment_intent.payment_failed"
)

// 队列常量
const (
	QueueDefault               = "default"
	TaskOrderStockReconcile    = "order:stock_reconcile"
	TaskOrderConfirmationEmail = "order:confirmation_email"
)

// 验证码提供方常量
const (
	CaptchaProviderNone  = "none"
	CaptchaProviderImage = "image"
)

// 缓存默认配置常量
const (
	RedisPrefixDefault = "sf"
)

// 币种常量
const (
	SiteCurrencyDefault = "usd"
)

// 授权角色常量
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)
