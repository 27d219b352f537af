package service

import "errors"

// 业务错误定义，HTTP 层通过 errors.Is 映射为响应码。
var (
	ErrNotFound           = errors.New("resource not found")
	ErrInvalidParam       = errors.New("invalid parameter")
	ErrEmailExists        = errors.New("email already registered")
	ErrInvalidEmail       = errors.New("invalid email")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserDisabled       = errors.New("user disabled")
	ErrPermissionDenied   = errors.New("permission denied")

	ErrProductNotFound     = errors.New("product not found")
	ErrProductSKUExists    = errors.New("product sku already exists")
	ErrProductNotAvailable = errors.New("product not available")

	ErrCartEmpty         = errors.New("cart is empty")
	ErrCartItemNotFound  = errors.New("cart item not found")
	ErrStockInsufficient = errors.New("insufficient stock")

	ErrOrderNotFound      = errors.New("order not found")
	ErrOrderStatusInvalid = errors.New("invalid order status transition")
	ErrOrderCreateFailed  = errors.New("order create failed")
	ErrOrderUpdateFailed  = errors.New("order update failed")

	ErrWishlistItemExists   = errors.New("wishlist item already exists")
	ErrWishlistItemNotFound = errors.New("wishlist item not found")

	ErrPaymentNotConfigured        = errors.New("payment gateway not configured")
	ErrPaymentGatewayRequestFailed = errors.New("payment gateway request failed")
	ErrWebhookSignatureInvalid     = errors.New("webhook signature invalid")
	ErrWebhookPayloadInvalid       = errors.New("webhook payload invalid")
	ErrWebhookPayloadTooLarge      = errors.New("webhook payload too large")

	ErrEmailServiceDisabled      = errors.New("email service disabled")
	ErrEmailServiceNotConfigured = errors.New("email service not configured")

	ErrCaptchaRequired = errors.New("captcha required")
	ErrCaptchaInvalid  = errors.New("captcha invalid")
)
