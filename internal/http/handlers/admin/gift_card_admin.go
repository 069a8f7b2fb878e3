package admin

import (
	"errors"
	"strconv"
	"strings"

	"github.com/studiocard/internal/http/response"
	"github.com/studiocard/internal/repository"
	"github.com/studiocard/internal/service"

	"github.com/gin-gonic/gin"
)

// BlockGiftCardRequest 封锁礼品卡请求
type BlockGiftCardRequest struct {
	Comment string `json:"comment"`
}

// UpdateGiftCardCommentRequest 更新礼品卡备注请求
type UpdateGiftCardCommentRequest struct {
	Comment string `json:"comment"`
}

// GetGiftCards 获取礼品卡列表
func (h *Handler) GetGiftCards(c *gin.Context) {
	page, pageSize := queryPagination(c)

	var shopID, invoiceID uint
	if raw := strings.TrimSpace(c.Query("shop_id")); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			respondError(c, response.CodeBadRequest, "invalid shop_id", err)
			return
		}
		shopID = uint(parsed)
	}
	if raw := strings.TrimSpace(c.Query("invoice_id")); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			respondError(c, response.CodeBadRequest, "invalid invoice_id", err)
			return
		}
		invoiceID = uint(parsed)
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

	cards, total, err := h.GiftCardService.ListGiftCards(service.GiftCardListInput{
		Page:        page,
		PageSize:    pageSize,
		ShopID:      shopID,
		InvoiceID:   invoiceID,
		Code:        c.Query("code"),
		Status:      c.Query("status"),
		Mode:        c.Query("mode"),
		CreatedFrom: createdFrom,
		CreatedTo:   createdTo,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "failed to fetch gift cards", err)
		return
	}
	response.SuccessWithPage(c, cards, buildPagination(page, pageSize, total))
}

// GetGiftCard 获取礼品卡详情
func (h *Handler) GetGiftCard(c *gin.Context) {
	id, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "invalid gift card id", nil)
		return
	}
	card, err := h.GiftCardService.GetGiftCard(id)
	if err != nil {
		if errors.Is(err, service.ErrGiftCardNotFound) {
			respondError(c, response.CodeNotFound, "gift card not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "failed to fetch gift card", err)
		return
	}
	response.Success(c, card)
}

// BlockGiftCard 手动封锁礼品卡。
//
// 手动封锁不设截止时间，只能由管理端解除。
func (h *Handler) BlockGiftCard(c *gin.Context) {
	id, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "invalid gift card id", nil)
		return
	}
	var req BlockGiftCardRequest
	_ = c.ShouldBindJSON(&req)

	card, err := h.GiftCardService.BlockGiftCard(id, strings.TrimSpace(req.Comment))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrGiftCardNotFound):
			respondError(c, response.CodeNotFound, "gift card not found", nil)
		case errors.Is(err, service.ErrGiftCardInvalid):
			respondError(c, response.CodeBadRequest, "gift card cannot be blocked in its current state", nil)
		default:
			respondError(c, response.CodeInternal, "failed to block gift card", err)
		}
		return
	}
	response.Success(c, card)
}

// UnblockGiftCard 解除礼品卡封锁
func (h *Handler) UnblockGiftCard(c *gin.Context) {
	id, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "invalid gift card id", nil)
		return
	}
	card, err := h.GiftCardService.UnblockGiftCard(id)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrGiftCardNotFound):
			respondError(c, response.CodeNotFound, "gift card not found", nil)
		case errors.Is(err, service.ErrGiftCardInvalid):
			respondError(c, response.CodeBadRequest, "gift card is not blocked", nil)
		default:
			respondError(c, response.CodeInternal, "failed to unblock gift card", err)
		}
		return
	}
	response.Success(c, card)
}

// UpdateGiftCardComment 更新礼品卡备注
func (h *Handler) UpdateGiftCardComment(c *gin.Context) {
	id, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "invalid gift card id", nil)
		return
	}
	var req UpdateGiftCardCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	if err := h.GiftCardService.UpdateComment(id, req.Comment); err != nil {
		switch {
		case errors.Is(err, service.ErrGiftCardNotFound):
			respondError(c, response.CodeNotFound, "gift card not found", nil)
		default:
			respondError(c, response.CodeInternal, "failed to update gift card", err)
		}
		return
	}
	response.Success(c, gin.H{"updated": true})
}

// GetRedemptions 获取兑换流水列表
func (h *Handler) GetRedemptions(c *gin.Context) {
	page, pageSize := queryPagination(c)

	filter := repository.RedeemListFilter{Page: page, PageSize: pageSize}
	if raw := strings.TrimSpace(c.Query("gift_card_id")); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			respondError(c, response.CodeBadRequest, "invalid gift_card_id", err)
			return
		}
		filter.GiftCardID = uint(parsed)
	}
	if raw := strings.TrimSpace(c.Query("shop_id")); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			respondError(c, response.CodeBadRequest, "invalid shop_id", err)
			return
		}
		filter.RedeemedShopID = uint(parsed)
	}

	records, total, err := h.RedeemService.ListRedemptions(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "failed to fetch redemptions", err)
		return
	}
	response.SuccessWithPage(c, records, buildPagination(page, pageSize, total))
}
