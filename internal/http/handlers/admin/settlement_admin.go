package admin

import (
	"errors"
	"strconv"
	"strings"

	"github.com/studiocard/internal/http/response"
	"github.com/studiocard/internal/service"

	"github.com/gin-gonic/gin"
)

// GeneratePaymentInvoiceRequest 生成结算发票请求
type GeneratePaymentInvoiceRequest struct {
	ShopID      uint   `json:"shop_id" binding:"required"`
	PeriodStart string `json:"period_start" binding:"required"`
	PeriodEnd   string `json:"period_end" binding:"required"`
}

// GeneratePaymentInvoice 为店铺生成结算周期内的结算发票
func (h *Handler) GeneratePaymentInvoice(c *gin.Context) {
	log := requestLog(c)
	var req GeneratePaymentInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	periodStart, err := parseTimeNullable(req.PeriodStart)
	if err != nil || periodStart == nil {
		respondError(c, response.CodeBadRequest, "invalid period_start", err)
		return
	}
	periodEnd, err := parseTimeNullable(req.PeriodEnd)
	if err != nil || periodEnd == nil {
		respondError(c, response.CodeBadRequest, "invalid period_end", err)
		return
	}

	invoice, err := h.SettlementService.GeneratePaymentInvoice(req.ShopID, *periodStart, *periodEnd)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSettlementInvalid):
			respondError(c, response.CodeBadRequest, "invalid settlement request", nil)
		case errors.Is(err, service.ErrShopNotFound):
			respondError(c, response.CodeNotFound, "shop not found", nil)
		case errors.Is(err, service.ErrSettlementAlreadyExists):
			respondError(c, response.CodeBadRequest, "settlement invoice already exists for period", nil)
		case errors.Is(err, service.ErrSettlementNoInvoices):
			respondError(c, response.CodeBadRequest, "no unsettled invoices in period", nil)
		default:
			respondError(c, response.CodeInternal, "failed to generate settlement invoice", err)
		}
		return
	}

	log.Infow("payment_invoice_generated",
		"shop_id", req.ShopID,
		"payment_invoice_id", invoice.ID,
		"invoice_no", invoice.InvoiceNo,
	)
	response.Success(c, invoice)
}

// GetPaymentInvoices 获取结算发票列表
func (h *Handler) GetPaymentInvoices(c *gin.Context) {
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

	invoices, total, err := h.SettlementService.ListPaymentInvoices(shopID, page, pageSize)
	if err != nil {
		respondError(c, response.CodeInternal, "failed to fetch settlement invoices", err)
		return
	}
	response.SuccessWithPage(c, invoices, buildPagination(page, pageSize, total))
}

// GetPaymentInvoice 获取结算发票详情
func (h *Handler) GetPaymentInvoice(c *gin.Context) {
	id, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "invalid settlement invoice id", nil)
		return
	}
	invoice, err := h.SettlementService.GetPaymentInvoice(id)
	if err != nil {
		if errors.Is(err, service.ErrInvoiceNotFound) {
			respondError(c, response.CodeNotFound, "settlement invoice not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "failed to fetch settlement invoice", err)
		return
	}
	response.Success(c, invoice)
}

// IssuePaymentInvoice 将结算发票从草稿置为已开具
func (h *Handler) IssuePaymentInvoice(c *gin.Context) {
	id, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "invalid settlement invoice id", nil)
		return
	}
	if err := h.SettlementService.MarkIssued(id); err != nil {
		switch {
		case errors.Is(err, service.ErrInvoiceNotFound):
			respondError(c, response.CodeNotFound, "settlement invoice not found", nil)
		case errors.Is(err, service.ErrSettlementInvalid):
			respondError(c, response.CodeBadRequest, "settlement invoice is not in draft state", nil)
		default:
			respondError(c, response.CodeInternal, "failed to issue settlement invoice", err)
		}
		return
	}
	response.Success(c, gin.H{"issued": true})
}
