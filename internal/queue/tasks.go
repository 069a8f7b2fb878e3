package queue

import (
	"encoding/json"

	"github.com/studiocard/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskInvoiceFulfill 支付完成后的发票履约任务
	TaskInvoiceFulfill = constants.TaskInvoiceFulfill
	// TaskRedeemNotification 兑换通知任务
	TaskRedeemNotification = constants.TaskRedeemNotification
	// TaskInvoiceEmail 发票邮件投递任务
	TaskInvoiceEmail = constants.TaskInvoiceEmail
)

// InvoiceFulfillPayload 发票履约任务载荷
type InvoiceFulfillPayload struct {
	InvoiceID uint `json:"invoice_id"`
}

// RedeemNotificationPayload 兑换通知任务载荷
type RedeemNotificationPayload struct {
	RedeemID uint `json:"redeem_id"`
}

// InvoiceEmailPayload 发票邮件任务载荷
type InvoiceEmailPayload struct {
	InvoiceID       uint `json:"invoice_id"`
	RefundInvoiceID uint `json:"refund_invoice_id,omitempty"`
}

// NewInvoiceFulfillTask 创建发票履约任务
func NewInvoiceFulfillTask(payload InvoiceFulfillPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskInvoiceFulfill, body), nil
}

// NewRedeemNotificationTask 创建兑换通知任务
func NewRedeemNotificationTask(payload RedeemNotificationPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskRedeemNotification, body), nil
}

// NewInvoiceEmailTask 创建发票邮件任务
func NewInvoiceEmailTask(payload InvoiceEmailPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskInvoiceEmail, body), nil
}
