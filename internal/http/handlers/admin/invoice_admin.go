package admin

import (
	"errors"
	"strconv"
	"strings"

	"github.com/studiocard/internal/http/response"
	"github.com/studiocard/internal/service"

	"github.com/gin-gonic/gin"
)

// GetInvoices 获取发票列表
func (h *Handler) GetInvoices(c *gin.Context) {
	page, pageSize := queryPagination(c)

	var shopID uint
	if raw := strings.TrimSpace(c.Query("shop_id")); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			respondError(c, response.CodeBadRequest, "invalid shop_id", err)
			return
		}
		shopID = uint(parsed)
	}
	createdFrom, err := parseTimeNullable(c.Query("created_from"))
	if err != nil {
		respondError(c, response.CodeBadRequest, "invalid created_from", err)
		return
	}
	createdTo, err := parseTimeNullable(c.Query("created_to"))
	if err != nil {
		respondError(c, response.CodeBadRequest, "invalid created_to", err)
		return
	}

	invoices, total, err := h.InvoiceService.ListInvoices(service.InvoiceListInput{
		Page:              page,
		PageSize:          pageSize,
		ShopID:            shopID,
		InvoiceNo:         c.Query("invoice_no"),
		CustomerEmail:     c.Query("customer_email"),
		TransactionStatus: c.Query("transaction_status"),
		OrderStatus:       c.Query("order_status"),
		Mode:              c.Query("mode"),
		CreatedFrom:       createdFrom,
		CreatedTo:         createdTo,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "failed to fetch invoices", err)
		return
	}
	response.SuccessWithPage(c, invoices, buildPagination(page, pageSize, total))
}

// GetInvoice 获取发票详情，含卡片明细
func (h *Handler) GetInvoice(c *gin.Context) {
	id, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "invalid invoice id", nil)
		return
	}
	invoice, err := h.InvoiceService.GetInvoice(id)
	if err != nil {
		if errors.Is(err, service.ErrInvoiceNotFound) {
			respondError(c, response.CodeNotFound, "invoice not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "failed to fetch invoice", err)
		return
	}
	response.Success(c, invoice)
}

// SyncInvoicePayment 向支付处理器核对发票的支付状态。
//
// 回调丢失或延迟时的补账入口，按处理器侧意图状态补齐发票。
func (h *Handler) SyncInvoicePayment(c *gin.Context) {
	log := requestLog(c)
	id, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "invalid invoice id", nil)
		return
	}
	status, err := h.PaymentWebhookService.ReconcileInvoice(c.Request.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvoiceNotFound):
			respondError(c, response.CodeNotFound, "invoice not found", nil)
		case errors.Is(err, service.ErrInvoiceNoPaymentIntent):
			respondError(c, response.CodeBadRequest, "invoice has no payment intent", nil)
		case errors.Is(err, service.ErrProcessorUnavailable):
			respondError(c, response.CodeBadRequest, "payment processor is not configured", nil)
		case errors.Is(err, service.ErrProcessorQueryFailed):
			respondError(c, response.CodeInternal, "payment processor query failed", err)
		default:
			respondError(c, response.CodeInternal, "payment reconciliation failed", err)
		}
		return
	}
	log.Infow("invoice_payment_reconciled", "invoice_id", id, "intent_status", status)
	response.Success(c, gin.H{"intent_status": status})
}

// ResendInvoiceEmail 重发发票邮件
func (h *Handler) ResendInvoiceEmail(c *gin.Context) {
	id, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "invalid invoice id", nil)
		return
	}
	if err := h.FulfillmentService.SendInvoiceEmail(id); err != nil {
		switch {
		case errors.Is(err, service.ErrInvoiceNotFound):
			respondError(c, response.CodeNotFound, "invoice not found", nil)
		case errors.Is(err, service.ErrEmailServiceDisabled), errors.Is(err, service.ErrEmailServiceNotConfigured):
			respondError(c, response.CodeBadRequest, "email service is not configured", nil)
		default:
			respondError(c, response.CodeInternal, "failed to send invoice email", err)
		}
		return
	}
	response.Success(c, gin.H{"sent": true})
}
