package public

import (
	"errors"
	"io"
	"strings"

	"github.com/studiocard/internal/http/response"
	"github.com/studiocard/internal/service"

	"github.com/gin-gonic/gin"
)

const webhookLogValueLimit = 256

// StripeWebhook 接收支付处理器 webhook 回调。
//
// 签名校验失败返回 400，其余处理错误返回 500 以便处理器重试投递。
func (h *Handler) StripeWebhook(c *gin.Context) {
	log := requestLog(c)
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		log.Warnw("stripe_webhook_body_read_failed", "error", err)
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	signature := strings.TrimSpace(c.GetHeader("Stripe-Signature"))
	log.Infow("stripe_webhook_received",
		"client_ip", c.ClientIP(),
		"body_size", len(body),
		"stripe_signature", truncateWebhookLogValue(signature),
	)

	if err := h.PaymentWebhookService.Handle(c.Request.Context(), body, signature); err != nil {
		switch {
		case errors.Is(err, service.ErrWebhookSignature):
			log.Warnw("stripe_webhook_signature_invalid", "error", err)
			respondError(c, response.CodeBadRequest, "webhook signature verification failed", nil)
		case errors.Is(err, service.ErrWebhookPayload):
			log.Warnw("stripe_webhook_payload_invalid", "error", err)
			respondError(c, response.CodeBadRequest, "webhook payload invalid", nil)
		default:
			log.Errorw("stripe_webhook_handle_failed", "error", err)
			respondError(c, response.CodeInternal, "webhook processing failed", err)
		}
		return
	}

	response.Success(c, gin.H{"received": true})
}

func truncateWebhookLogValue(value string) string {
	if len(value) <= webhookLogValueLimit {
		return value
	}
	return value[:webhookLogValueLimit] + "...(truncated)"
}
