package public

import (
	"strings"

	"github.com/studiocard/internal/http/response"
	"github.com/studiocard/internal/service"

	"github.com/gin-gonic/gin"
)

// CreateRedemptionRequest 兑换礼品卡请求
type CreateRedemptionRequest struct {
	Code   string `json:"code" binding:"required"`
	Pin    string `json:"pin" binding:"required"`
	Amount string `json:"amount" binding:"required"`
	ShopID uint   `json:"shop_id" binding:"required"`
}

// CreateRedemption 在店铺兑换礼品卡余额
func (h *Handler) CreateRedemption(c *gin.Context) {
	log := requestLog(c)
	var req CreateRedemptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	amount, err := parseMoney(req.Amount)
	if err != nil {
		respondError(c, response.CodeBadRequest, "invalid redemption amount", err)
		return
	}

	result, err := h.RedeemService.Redeem(service.RedeemInput{
		Code:         strings.TrimSpace(req.Code),
		Pin:          strings.TrimSpace(req.Pin),
		Amount:       amount,
		RedeemShopID: req.ShopID,
	})
	if err != nil {
		respondRedeemError(c, err)
		return
	}

	log.Infow("redemption_created",
		"shop_id", req.ShopID,
		"gift_card_id", result.GiftCard.ID,
		"redeem_id", result.Record.ID,
		"amount", result.Record.Amount,
	)
	response.Success(c, gin.H{
		"gift_card": result.GiftCard,
		"record":    result.Record,
		"fees":      result.Fees,
	})
}
