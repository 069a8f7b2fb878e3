package admin

import (
	"errors"

	"github.com/studiocard/internal/http/response"
	"github.com/studiocard/internal/service"

	"github.com/gin-gonic/gin"
)

// CreateRefundRequest 退款请求
type CreateRefundRequest struct {
	GiftCardIDs []uint `json:"gift_card_ids" binding:"required"`
}

// CreateRefund 对发票下选定的礼品卡发起退款。
//
// 任一选中卡不属于该发票或不可退款则整单拒绝。
func (h *Handler) CreateRefund(c *gin.Context) {
	log := requestLog(c)
	invoiceID, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "invalid invoice id", nil)
		return
	}
	var req CreateRefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	result, err := h.RefundService.Refund(c.Request.Context(), service.RefundInput{
		InvoiceID:   invoiceID,
		GiftCardIDs: req.GiftCardIDs,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRefundInvalid):
			respondError(c, response.CodeBadRequest, "invalid refund request", nil)
		case errors.Is(err, service.ErrInvoiceNotFound):
			respondError(c, response.CodeNotFound, "invoice not found", nil)
		case errors.Is(err, service.ErrRefundCardMismatch):
			respondError(c, response.CodeBadRequest, "gift card does not belong to the invoice", nil)
		case errors.Is(err, service.ErrRefundCardIneligible):
			respondError(c, response.CodeBadRequest, "gift card is not eligible for refund", nil)
		case errors.Is(err, service.ErrRefundConflict):
			respondError(c, response.CodeConflict, "gift card balance changed during refund, verify and retry", err)
		case errors.Is(err, service.ErrRefundProcessorFailed):
			respondError(c, response.CodeInternal, "payment processor refund failed", err)
		default:
			respondError(c, response.CodeInternal, "refund failed", err)
		}
		return
	}

	log.Infow("refund_created",
		"invoice_id", invoiceID,
		"refund_invoice_id", result.RefundInvoice.ID,
		"refund_no", result.RefundInvoice.RefundNo,
		"cards_refunded", result.CardsRefunded,
	)
	response.Success(c, gin.H{
		"refund_invoice": result.RefundInvoice,
		"cards_refunded": result.CardsRefunded,
	})
}

// GetRefunds 获取发票的退款列表
func (h *Handler) GetRefunds(c *gin.Context) {
	invoiceID, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "invalid invoice id", nil)
		return
	}
	refunds, err := h.RefundService.ListRefunds(invoiceID)
	if err != nil {
		respondError(c, response.CodeInternal, "failed to fetch refunds", err)
		return
	}
	response.Success(c, refunds)
}
