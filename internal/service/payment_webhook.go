package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/studiocard/internal/cache"
	"github.com/studiocard/internal/constants"
	"github.com/studiocard/internal/logger"
	"github.com/studiocard/internal/payment/stripe"
	"github.com/studiocard/internal/queue"
	"github.com/studiocard/internal/repository"

	stripesdk "github.com/stripe/stripe-go/v78"
)

// webhookDedupTTL 事件去重键的保留时长；处理器按至少一次语义重投
const webhookDedupTTL = 24 * time.Hour

// WebhookVerifier 签名校验契约
type WebhookVerifier interface {
	VerifyWebhook(payload []byte, signatureHeader string) (*stripesdk.Event, error)
}

// IntentRetriever 支付意图查询契约
type IntentRetriever interface {
	RetrievePaymentIntent(ctx context.Context, paymentIntentID string) (*stripe.PaymentIntentResult, error)
}

// PaymentWebhookService 支付处理器回调服务
type PaymentWebhookService struct {
	verifier    WebhookVerifier
	intents     IntentRetriever
	invoiceRepo repository.InvoiceRepository
	fulfillment *FulfillmentService
	queue       *queue.Client
}

// NewPaymentWebhookService 创建回调服务
func NewPaymentWebhookService(
	verifier WebhookVerifier,
	intents IntentRetriever,
	invoiceRepo repository.InvoiceRepository,
	fulfillment *FulfillmentService,
	queueClient *queue.Client,
) *PaymentWebhookService {
	return &PaymentWebhookService{
		verifier:    verifier,
		intents:     intents,
		invoiceRepo: invoiceRepo,
		fulfillment: fulfillment,
		queue:       queueClient,
	}
}

// Handle 校验签名并处理回调事件
func (s *PaymentWebhookService) Handle(ctx context.Context, payload []byte, signatureHeader string) error {
	if s == nil || s.verifier == nil {
		return ErrWebhookPayload
	}
	event, err := s.verifier.VerifyWebhook(payload, signatureHeader)
	if err != nil {
		logger.Warnw("webhook_signature_rejected", "error", err)
		return ErrWebhookSignature
	}
	return s.HandleEvent(ctx, event.ID, string(event.Type), event.Data.Raw)
}

// HandleEvent 处理单个事件；重复投递与未知类型均为无操作。
func (s *PaymentWebhookService) HandleEvent(ctx context.Context, eventID, eventType string, raw json.RawMessage) error {
	if s == nil || s.invoiceRepo == nil || s.fulfillment == nil {
		return ErrWebhookPayload
	}
	if eventID != "" {
		fresh, err := cache.ClaimOnce(ctx, "webhook:evt:"+eventID, webhookDedupTTL)
		if err != nil {
			logger.Warnw("webhook_dedup_unavailable", "event_id", eventID, "error", err)
		} else if !fresh {
			logger.Infow("webhook_event_duplicate", "event_id", eventID, "event_type", eventType)
			return nil
		}
	}

	switch eventType {
	case "payment_intent.succeeded":
		return s.applyPaymentIntent(eventType, raw, s.fulfillOrDefer)
	case "payment_intent.payment_failed":
		return s.applyPaymentIntent(eventType, raw, func(invoiceID uint) error {
			return s.fulfillment.FailInvoice(invoiceID, constants.TransactionStatusFailed)
		})
	case "payment_intent.canceled":
		return s.applyPaymentIntent(eventType, raw, func(invoiceID uint) error {
			return s.fulfillment.FailInvoice(invoiceID, constants.TransactionStatusCancelled)
		})
	case "payment_intent.requires_action", "payment_intent.processing":
		return s.applyPaymentIntent(eventType, raw, func(invoiceID uint) error {
			return s.invoiceRepo.UpdateStatus(invoiceID, map[string]interface{}{
				"transaction_status": constants.TransactionStatusInProgress,
			})
		})
	case "payment_intent.partially_funded":
		return s.applyPaymentIntent(eventType, raw, func(invoiceID uint) error {
			return s.invoiceRepo.UpdateStatus(invoiceID, map[string]interface{}{
				"transaction_status": constants.TransactionStatusPartialPayment,
			})
		})
	case "checkout.session.async_payment_succeeded":
		return s.applyPaymentIntent(eventType, raw, s.fulfillOrDefer)
	case "account.updated":
		logger.Infow("webhook_account_updated", "event_id", eventID)
		return nil
	default:
		logger.Infow("webhook_event_ignored", "event_id", eventID, "event_type", eventType)
		return nil
	}
}

// ReconcileInvoice 主动向处理器核对支付意图状态并补齐发票状态。
//
// 用于回调丢失或延迟时的人工补账，返回处理器侧的意图状态。
func (s *PaymentWebhookService) ReconcileInvoice(ctx context.Context, invoiceID uint) (string, error) {
	if s == nil || s.invoiceRepo == nil || s.fulfillment == nil {
		return "", ErrProcessorUnavailable
	}
	if s.intents == nil {
		return "", ErrProcessorUnavailable
	}
	invoice, err := s.invoiceRepo.GetByID(invoiceID)
	if err != nil {
		return "", ErrInvoiceFetchFailed
	}
	if invoice == nil {
		return "", ErrInvoiceNotFound
	}
	if invoice.StripePaymentIntentID == "" {
		return "", ErrInvoiceNoPaymentIntent
	}

	intent, err := s.intents.RetrievePaymentIntent(ctx, invoice.StripePaymentIntentID)
	if err != nil {
		logger.Warnw("payment_reconcile_query_failed", "invoice_id", invoice.ID, "error", err)
		return "", ErrProcessorQueryFailed
	}

	switch intent.Status {
	case "succeeded":
		return intent.Status, s.fulfillment.FulfillInvoice(invoice.ID)
	case "canceled":
		return intent.Status, s.fulfillment.FailInvoice(invoice.ID, constants.TransactionStatusCancelled)
	case "processing", "requires_action", "requires_confirmation", "requires_capture":
		return intent.Status, s.invoiceRepo.UpdateStatus(invoice.ID, map[string]interface{}{
			"transaction_status": constants.TransactionStatusInProgress,
		})
	default:
		logger.Infow("payment_reconcile_noop", "invoice_id", invoice.ID, "intent_status", intent.Status)
		return intent.Status, nil
	}
}

// fulfillOrDefer 同步履约；瞬时失败时转投队列由 worker 重试
func (s *PaymentWebhookService) fulfillOrDefer(invoiceID uint) error {
	err := s.fulfillment.FulfillInvoice(invoiceID)
	if err == nil || errors.Is(err, ErrInvoiceNotFound) {
		return err
	}
	if s.queue != nil && s.queue.Enabled() {
		if enqueueErr := s.queue.EnqueueInvoiceFulfill(queue.InvoiceFulfillPayload{InvoiceID: invoiceID}); enqueueErr == nil {
			logger.Warnw("webhook_fulfill_deferred", "invoice_id", invoiceID, "error", err)
			return nil
		}
	}
	return err
}

// applyPaymentIntent 从事件载荷解析支付引用并对所属发票执行动作
func (s *PaymentWebhookService) applyPaymentIntent(eventType string, raw json.RawMessage, apply func(invoiceID uint) error) error {
	paymentIntentID, err := extractPaymentIntentID(raw)
	if err != nil {
		logger.Warnw("webhook_payload_invalid", "event_type", eventType, "error", err)
		return ErrWebhookPayload
	}
	invoice, err := s.invoiceRepo.GetByPaymentIntentID(paymentIntentID)
	if err != nil {
		return ErrInvoiceFetchFailed
	}
	if invoice == nil {
		logger.Warnw("webhook_invoice_not_found", "event_type", eventType, "payment_intent_id", paymentIntentID)
		return nil
	}
	return apply(invoice.ID)
}

// extractPaymentIntentID 兼容 payment_intent 对象与 checkout.session 载荷
func extractPaymentIntentID(raw json.RawMessage) (string, error) {
	var obj struct {
		ID            string          `json:"id"`
		Object        string          `json:"object"`
		PaymentIntent json.RawMessage `json:"payment_intent"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return "", err
	}
	if obj.Object == "payment_intent" && obj.ID != "" {
		return obj.ID, nil
	}
	if len(obj.PaymentIntent) > 0 {
		var intentID string
		if err := json.Unmarshal(obj.PaymentIntent, &intentID); err == nil && intentID != "" {
			return intentID, nil
		}
		var expanded struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(obj.PaymentIntent, &expanded); err == nil && expanded.ID != "" {
			return expanded.ID, nil
		}
	}
	if obj.ID != "" {
		return obj.ID, nil
	}
	return "", ErrWebhookPayload
}
