package public

import (
	"strings"

	"github.com/studiocard/internal/http/response"

	"github.com/gin-gonic/gin"
)

// CheckBalanceRequest 余额查询请求
type CheckBalanceRequest struct {
	Pin string `json:"pin" binding:"required"`
}

// CheckBalance 查询礼品卡余额。
//
// 与兑换共用同一套 PIN 锁定计数，错误 PIN 会累计并触发冷却。
func (h *Handler) CheckBalance(c *gin.Context) {
	code := strings.TrimSpace(c.Param("code"))
	var req CheckBalanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	result, err := h.GiftCardService.CheckBalance(code, strings.TrimSpace(req.Pin))
	if err != nil {
		respondBalanceError(c, err)
		return
	}
	response.Success(c, result)
}
