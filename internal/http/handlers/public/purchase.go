package public

import (
	"strings"

	"github.com/studiocard/internal/http/response"
	"github.com/studiocard/internal/service"

	"github.com/gin-gonic/gin"
)

// PurchaseCartLine 购买请求中的单个卡位
type PurchaseCartLine struct {
	TemplateID uint   `json:"template_id" binding:"required"`
	Quantity   int    `json:"quantity" binding:"required"`
	Amount     string `json:"amount" binding:"required"`
	Message    string `json:"message"`
}

// CreatePurchaseRequest 购买礼品卡请求
type CreatePurchaseRequest struct {
	ShopID        uint               `json:"shop_id" binding:"required"`
	CustomerEmail string             `json:"customer_email" binding:"required"`
	Cart          []PurchaseCartLine `json:"cart" binding:"required"`
}

// CreatePurchase 顾客下单购买礼品卡
func (h *Handler) CreatePurchase(c *gin.Context) {
	log := requestLog(c)
	var req CreatePurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	cart := make([]service.CartLine, 0, len(req.Cart))
	for _, line := range req.Cart {
		amount, err := parseMoney(line.Amount)
		if err != nil {
			respondError(c, response.CodeBadRequest, "invalid cart line amount", err)
			return
		}
		cart = append(cart, service.CartLine{
			TemplateID: line.TemplateID,
			Quantity:   line.Quantity,
			Amount:     amount,
			Message:    strings.TrimSpace(line.Message),
		})
	}

	result, err := h.PurchaseService.Purchase(c.Request.Context(), service.PurchaseInput{
		ShopID:        req.ShopID,
		CustomerEmail: req.CustomerEmail,
		Cart:          cart,
	})
	if err != nil {
		respondPurchaseError(c, err)
		return
	}

	log.Infow("purchase_created",
		"shop_id", req.ShopID,
		"invoice_id", result.Invoice.ID,
		"invoice_no", result.Invoice.InvoiceNo,
		"cards", len(result.Invoice.GiftCards),
	)
	response.Success(c, gin.H{
		"invoice":       result.Invoice,
		"client_secret": result.ClientSecret,
	})
}
