package worker

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/studiocard/internal/logger"
	"github.com/studiocard/internal/provider"
	"github.com/studiocard/internal/queue"
	"github.com/studiocard/internal/service"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskInvoiceFulfill, c.handleInvoiceFulfill)
	mux.HandleFunc(queue.TaskInvoiceEmail, c.handleInvoiceEmail)
	mux.HandleFunc(queue.TaskRedeemNotification, c.handleRedeemNotification)
}

func (c *Consumer) handleInvoiceFulfill(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_invoice_fulfill_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.InvoiceFulfillPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_invoice_fulfill_unmarshal_failed", "error", err)
		return err
	}
	if payload.InvoiceID == 0 {
		logger.Debugw("worker_invoice_fulfill_skip_invalid_payload", "invoice_id", payload.InvoiceID)
		return nil
	}
	if c.FulfillmentService == nil {
		logger.Warnw("worker_invoice_fulfill_skip_service_nil", "invoice_id", payload.InvoiceID)
		return nil
	}
	if err := c.FulfillmentService.FulfillInvoice(payload.InvoiceID); err != nil {
		switch {
		case errors.Is(err, service.ErrInvoiceNotFound):
			logger.Debugw("worker_invoice_fulfill_skip_invoice_not_found", "invoice_id", payload.InvoiceID)
			return nil
		default:
			logger.Warnw("worker_invoice_fulfill_failed", "invoice_id", payload.InvoiceID, "error", err)
			return err
		}
	}
	return nil
}

func (c *Consumer) handleInvoiceEmail(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_invoice_email_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.InvoiceEmailPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_invoice_email_unmarshal_failed", "error", err)
		return err
	}
	if payload.InvoiceID == 0 {
		logger.Debugw("worker_invoice_email_skip_invalid_payload", "invoice_id", payload.InvoiceID)
		return nil
	}
	if c.FulfillmentService == nil {
		logger.Warnw("worker_invoice_email_skip_service_nil", "invoice_id", payload.InvoiceID)
		return nil
	}
	var err error
	if payload.RefundInvoiceID != 0 {
		err = c.FulfillmentService.SendRefundEmail(payload.InvoiceID, payload.RefundInvoiceID)
	} else {
		err = c.FulfillmentService.SendInvoiceEmail(payload.InvoiceID)
	}
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvoiceNotFound):
			logger.Debugw("worker_invoice_email_skip_invoice_not_found",
				"invoice_id", payload.InvoiceID, "refund_invoice_id", payload.RefundInvoiceID)
			return nil
		case errors.Is(err, service.ErrEmailServiceDisabled), errors.Is(err, service.ErrEmailServiceNotConfigured):
			logger.Debugw("worker_invoice_email_skip_email_disabled", "invoice_id", payload.InvoiceID)
			return nil
		default:
			logger.Warnw("worker_invoice_email_failed",
				"invoice_id", payload.InvoiceID, "refund_invoice_id", payload.RefundInvoiceID, "error", err)
			return err
		}
	}
	return nil
}

func (c *Consumer) handleRedeemNotification(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_redeem_notification_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.RedeemNotificationPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_redeem_notification_unmarshal_failed", "error", err)
		return err
	}
	if payload.RedeemID == 0 {
		logger.Debugw("worker_redeem_notification_skip_invalid_payload", "redeem_id", payload.RedeemID)
		return nil
	}
	if c.FulfillmentService == nil {
		logger.Warnw("worker_redeem_notification_skip_service_nil", "redeem_id", payload.RedeemID)
		return nil
	}
	if err := c.FulfillmentService.SendRedeemNotification(payload.RedeemID); err != nil {
		switch {
		case errors.Is(err, service.ErrShopNotFound):
			logger.Debugw("worker_redeem_notification_skip_shop_not_found", "redeem_id", payload.RedeemID)
			return nil
		case errors.Is(err, service.ErrEmailServiceDisabled), errors.Is(err, service.ErrEmailServiceNotConfigured):
			logger.Debugw("worker_redeem_notification_skip_email_disabled", "redeem_id", payload.RedeemID)
			return nil
		default:
			logger.Warnw("worker_redeem_notification_failed", "redeem_id", payload.RedeemID, "error", err)
			return err
		}
	}
	return nil
}
