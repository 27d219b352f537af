package public

import (
	"io"
	"strings"

	"github.com/shopfront/internal/http/response"
	"github.com/shopfront/internal/service"

	"github.com/gin-gonic/gin"
)

const defaultMaxWebhookBytes = int64(64 * 1024)

// StripeWebhook 支付网关 webhook 回调。
//
// 原始报文参与签名校验，读取时限制大小，超限按非法载荷拒绝。
func (h *Handler) StripeWebhook(c *gin.Context) {
	log := requestLog(c)

	maxBytes := defaultMaxWebhookBytes
	if h.Config != nil && h.Config.Payment.MaxWebhookBytes > 0 {
		maxBytes = h.Config.Payment.MaxWebhookBytes
	}
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBytes+1))
	if err != nil {
		log.Warnw("payment_webhook_body_read_failed", "error", err)
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	if int64(len(body)) > maxBytes {
		log.Warnw("payment_webhook_body_too_large", "body_size", len(body), "max_bytes", maxBytes)
		respondWithMappedError(c, service.ErrWebhookPayloadTooLarge, webhookErrorRules, response.CodeBadRequest, "webhook payload too large")
		return
	}

	log.Infow("payment_webhook_received",
		"client_ip", c.ClientIP(),
		"body_size", len(body),
		"signature_present", strings.TrimSpace(c.GetHeader("Stripe-Signature")) != "",
	)

	headers := make(map[string]string)
	for key, values := range c.Request.Header {
		if len(values) == 0 {
			continue
		}
		headers[key] = values[0]
	}

	result, err := h.PaymentService.HandleWebhook(headers, body)
	if err != nil {
		log.Warnw("payment_webhook_handle_failed", "error", err)
		respondWithMappedError(c, err, webhookErrorRules, response.CodeInternal, "webhook handle failed")
		return
	}

	log.Infow("payment_webhook_processed",
		"event_type", result.EventType,
		"order_id", result.OrderID,
		"updated", result.Updated,
	)
	response.Success(c, gin.H{
		"accepted":   true,
		"event_type": result.EventType,
		"updated":    result.Updated,
	})
}
