package admin

import (
	"errors"
	"strings"

	"github.com/studiocard/internal/http/response"
	"github.com/studiocard/internal/models"
	"github.com/studiocard/internal/service"

	"github.com/gin-gonic/gin"
)

// ShopRequest 店铺创建/更新请求
type ShopRequest struct {
	Name                  string `json:"name" binding:"required"`
	Email                 string `json:"email" binding:"required"`
	OwnerUserID           uint   `json:"owner_user_id" binding:"required"`
	StudioMode            string `json:"studio_mode" binding:"required"`
	PlatformFee           string `json:"platform_fee"`
	FixedPaymentFee       string `json:"fixed_payment_fee"`
	PlatformRedeemFee     string `json:"platform_redeem_fee"`
	FixedPaymentRedeemFee string `json:"fixed_payment_redeem_fee"`
	TaxTypeID             uint   `json:"tax_type_id"`
	StripeAccountID       string `json:"stripe_account_id"`
	NotifyOnRedeem        bool   `json:"notify_on_redeem"`
}

// TemplateRequest 礼品卡模板创建/更新请求
type TemplateRequest struct {
	ShopID   uint   `json:"shop_id" binding:"required"`
	Name     string `json:"name" binding:"required"`
	ImageURL string `json:"image_url"`
	IsActive bool   `json:"is_active"`
}

func (req *ShopRequest) toServiceInput() (service.ShopInput, error) {
	input := service.ShopInput{
		Name:            strings.TrimSpace(req.Name),
		Email:           strings.TrimSpace(req.Email),
		OwnerUserID:     req.OwnerUserID,
		StudioMode:      strings.TrimSpace(strings.ToLower(req.StudioMode)),
		TaxTypeID:       req.TaxTypeID,
		StripeAccountID: strings.TrimSpace(req.StripeAccountID),
		NotifyOnRedeem:  req.NotifyOnRedeem,
	}
	for _, fee := range []struct {
		raw    string
		target *models.Money
	}{
		{req.PlatformFee, &input.PlatformFee},
		{req.FixedPaymentFee, &input.FixedPaymentFee},
		{req.PlatformRedeemFee, &input.PlatformRedeemFee},
		{req.FixedPaymentRedeemFee, &input.FixedPaymentRedeemFee},
	} {
		if strings.TrimSpace(fee.raw) == "" {
			continue
		}
		amount, err := parseMoney(fee.raw)
		if err != nil {
			return service.ShopInput{}, err
		}
		*fee.target = amount
	}
	return input, nil
}

// GetShops 获取店铺列表
func (h *Handler) GetShops(c *gin.Context) {
	page, pageSize := queryPagination(c)
	shops, total, err := h.ShopService.ListShops(page, pageSize)
	if err != nil {
		respondError(c, response.CodeInternal, "failed to fetch shops", err)
		return
	}
	response.SuccessWithPage(c, shops, buildPagination(page, pageSize, total))
}

// GetShop 获取店铺详情
func (h *Handler) GetShop(c *gin.Context) {
	id, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "invalid shop id", nil)
		return
	}
	shop, err := h.ShopService.GetShop(id)
	if err != nil {
		if errors.Is(err, service.ErrShopNotFound) {
			respondError(c, response.CodeNotFound, "shop not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "failed to fetch shop", err)
		return
	}
	response.Success(c, shop)
}

// CreateShop 创建店铺
func (h *Handler) CreateShop(c *gin.Context) {
	log := requestLog(c)
	var req ShopRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	input, err := req.toServiceInput()
	if err != nil {
		respondError(c, response.CodeBadRequest, "invalid fee amount", err)
		return
	}

	shop, err := h.ShopService.CreateShop(input)
	if err != nil {
		respondShopError(c, err)
		return
	}
	log.Infow("shop_created", "shop_id", shop.ID, "name", shop.Name)
	response.Success(c, shop)
}

// UpdateShop 更新店铺
func (h *Handler) UpdateShop(c *gin.Context) {
	id, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "invalid shop id", nil)
		return
	}
	var req ShopRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	input, err := req.toServiceInput()
	if err != nil {
		respondError(c, response.CodeBadRequest, "invalid fee amount", err)
		return
	}

	shop, err := h.ShopService.UpdateShop(id, input)
	if err != nil {
		respondShopError(c, err)
		return
	}
	response.Success(c, shop)
}

// GetTemplates 获取店铺的礼品卡模板
func (h *Handler) GetTemplates(c *gin.Context) {
	shopID, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "invalid shop id", nil)
		return
	}
	templates, err := h.ShopService.ListTemplates(shopID)
	if err != nil {
		respondError(c, response.CodeInternal, "failed to fetch templates", err)
		return
	}
	response.Success(c, templates)
}

// CreateTemplate 创建礼品卡模板
func (h *Handler) CreateTemplate(c *gin.Context) {
	var req TemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	template, err := h.ShopService.CreateTemplate(service.TemplateInput{
		ShopID:   req.ShopID,
		Name:     req.Name,
		ImageURL: strings.TrimSpace(req.ImageURL),
		IsActive: req.IsActive,
	})
	if err != nil {
		respondTemplateError(c, err)
		return
	}
	response.Success(c, template)
}

// UpdateTemplate 更新礼品卡模板
func (h *Handler) UpdateTemplate(c *gin.Context) {
	id, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "invalid template id", nil)
		return
	}
	var req TemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	template, err := h.ShopService.UpdateTemplate(id, service.TemplateInput{
		ShopID:   req.ShopID,
		Name:     req.Name,
		ImageURL: strings.TrimSpace(req.ImageURL),
		IsActive: req.IsActive,
	})
	if err != nil {
		respondTemplateError(c, err)
		return
	}
	response.Success(c, template)
}

func respondShopError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrShopInvalid):
		respondError(c, response.CodeBadRequest, "invalid shop request", nil)
	case errors.Is(err, service.ErrShopNotFound):
		respondError(c, response.CodeNotFound, "shop not found", nil)
	case errors.Is(err, service.ErrUserNotFound):
		respondError(c, response.CodeBadRequest, "owner user not found", nil)
	case errors.Is(err, service.ErrTaxTypeNotFound):
		respondError(c, response.CodeBadRequest, "tax type not found", nil)
	default:
		respondError(c, response.CodeInternal, "failed to save shop", err)
	}
}

func respondTemplateError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrTemplateInvalid):
		respondError(c, response.CodeBadRequest, "invalid template request", nil)
	case errors.Is(err, service.ErrTemplateNotFound):
		respondError(c, response.CodeNotFound, "template not found", nil)
	case errors.Is(err, service.ErrShopNotFound):
		respondError(c, response.CodeBadRequest, "shop not found", nil)
	default:
		respondError(c, response.CodeInternal, "failed to save template", err)
	}
}
