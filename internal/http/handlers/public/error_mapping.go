package public

import (
	"errors"

	handlershared "github.com/shopfront/internal/http/handlers/shared"
	"github.com/shopfront/internal/http/response"
	"github.com/shopfront/internal/service"

	"github.com/gin-gonic/gin"
)

func respondError(c *gin.Context, code int, msg string, err error) {
	handlershared.RespondError(c, code, msg, err)
}

// mappedHandlerError 定义业务错误到接口错误响应的映射关系。
type mappedHandlerError struct {
	target error
	code   int
	msg    string
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackMsg string) {
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			respondError(c, rule.code, rule.msg, nil)
			return
		}
	}
	respondError(c, fallbackCode, fallbackMsg, err)
}

func concatMappedHandlerErrors(groups ...[]mappedHandlerError) []mappedHandlerError {
	total := 0
	for _, group := range groups {
		total += len(group)
	}
	result := make([]mappedHandlerError, 0, total)
	for _, group := range groups {
		result = append(result, group...)
	}
	return result
}

var captchaErrorRules = []mappedHandlerError{
	{target: service.ErrCaptchaRequired, code: response.CodeBadRequest, msg: "captcha required"},
	{target: service.ErrCaptchaInvalid, code: response.CodeBadRequest, msg: "captcha invalid"},
	{target: service.ErrCaptchaConfigInvalid, code: response.CodeInternal, msg: "captcha config invalid"},
}

var registerErrorRules = []mappedHandlerError{
	{target: service.ErrInvalidEmail, code: response.CodeBadRequest, msg: "email invalid"},
	{target: service.ErrEmailExists, code: response.CodeBadRequest, msg: "email already registered"},
	{target: service.ErrWeakPassword, code: response.CodeBadRequest, msg: "password too weak"},
}

var profileUpdateErrorRules = concatMappedHandlerErrors(registerErrorRules, []mappedHandlerError{
	{target: service.ErrNotFound, code: response.CodeNotFound, msg: "user not found"},
})

var loginErrorRules = []mappedHandlerError{
	{target: service.ErrInvalidCredentials, code: response.CodeUnauthorized, msg: "email or password incorrect"},
	{target: service.ErrUserDisabled, code: response.CodeForbidden, msg: "account disabled"},
}

var cartErrorRules = []mappedHandlerError{
	{target: service.ErrInvalidParam, code: response.CodeBadRequest, msg: "quantity invalid"},
	{target: service.ErrProductNotAvailable, code: response.CodeBadRequest, msg: "product not available"},
	{target: service.ErrCartItemNotFound, code: response.CodeNotFound, msg: "cart item not found"},
}

var orderCreateErrorRules = []mappedHandlerError{
	{target: service.ErrCartEmpty, code: response.CodeBadRequest, msg: "cart is empty"},
	{target: service.ErrProductNotAvailable, code: response.CodeBadRequest, msg: "product not available"},
	{target: service.ErrStockInsufficient, code: response.CodeBadRequest, msg: "stock insufficient"},
	{target: service.ErrOrderCreateFailed, code: response.CodeInternal, msg: "order create failed"},
}

var orderStatusErrorRules = []mappedHandlerError{
	{target: service.ErrOrderNotFound, code: response.CodeNotFound, msg: "order not found"},
	{target: service.ErrOrderStatusInvalid, code: response.CodeBadRequest, msg: "order status transition invalid"},
	{target: service.ErrOrderUpdateFailed, code: response.CodeInternal, msg: "order update failed"},
}

var wishlistErrorRules = []mappedHandlerError{
	{target: service.ErrProductNotAvailable, code: response.CodeBadRequest, msg: "product not available"},
	{target: service.ErrWishlistItemExists, code: response.CodeBadRequest, msg: "product already in wishlist"},
	{target: service.ErrWishlistItemNotFound, code: response.CodeNotFound, msg: "wishlist item not found"},
}

var productManageErrorRules = []mappedHandlerError{
	{target: service.ErrInvalidParam, code: response.CodeBadRequest, msg: "product payload invalid"},
	{target: service.ErrProductSKUExists, code: response.CodeBadRequest, msg: "sku already exists"},
	{target: service.ErrProductNotFound, code: response.CodeNotFound, msg: "product not found"},
}

var webhookErrorRules = []mappedHandlerError{
	{target: service.ErrPaymentNotConfigured, code: response.CodeInternal, msg: "payment gateway not configured"},
	{target: service.ErrWebhookSignatureInvalid, code: response.CodeBadRequest, msg: "webhook signature invalid"},
	{target: service.ErrWebhookPayloadTooLarge, code: response.CodeBadRequest, msg: "webhook payload too large"},
	{target: service.ErrWebhookPayloadInvalid, code: response.CodeBadRequest, msg: "webhook payload invalid"},
}
