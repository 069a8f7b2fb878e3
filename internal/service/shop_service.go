package service

import (
	"context"
	"strings"

	"github.com/studiocard/internal/cache"
	"github.com/studiocard/internal/constants"
	"github.com/studiocard/internal/logger"
	"github.com/studiocard/internal/models"
	"github.com/studiocard/internal/repository"
)

// ShopService 店铺与模板管理服务
type ShopService struct {
	shopRepo     repository.ShopRepository
	templateRepo repository.GiftCardTemplateRepository
	taxRepo      repository.TaxTypeRepository
	userRepo     repository.UserRepository
}

// NewShopService 创建店铺服务
func NewShopService(
	shopRepo repository.ShopRepository,
	templateRepo repository.GiftCardTemplateRepository,
	taxRepo repository.TaxTypeRepository,
	userRepo repository.UserRepository,
) *ShopService {
	return &ShopService{
		shopRepo:     shopRepo,
		templateRepo: templateRepo,
		taxRepo:      taxRepo,
		userRepo:     userRepo,
	}
}

// ShopInput 店铺创建/更新请求
type ShopInput struct {
	Name                  string
	Email                 string
	OwnerUserID           uint
	StudioMode            string
	PlatformFee           models.Money
	FixedPaymentFee       models.Money
	PlatformRedeemFee     models.Money
	FixedPaymentRedeemFee models.Money
	TaxTypeID             uint
	StripeAccountID       string
	NotifyOnRedeem        bool
}

// GetShop 查询店铺
func (s *ShopService) GetShop(id uint) (*models.Shop, error) {
	if s == nil || s.shopRepo == nil {
		return nil, ErrShopNotFound
	}
	shop, err := s.shopRepo.GetByID(id)
	if err != nil {
		return nil, ErrShopNotFound
	}
	if shop == nil {
		return nil, ErrShopNotFound
	}
	return shop, nil
}

// GetShopByOwner 查询用户名下的店铺
func (s *ShopService) GetShopByOwner(userID uint) (*models.Shop, error) {
	if s == nil || s.shopRepo == nil {
		return nil, ErrShopNotFound
	}
	shop, err := s.shopRepo.GetByOwnerUserID(userID)
	if err != nil {
		return nil, ErrShopNotFound
	}
	if shop == nil {
		return nil, ErrShopNotFound
	}
	return shop, nil
}

// ListShops 分页查询店铺
func (s *ShopService) ListShops(page, pageSize int) ([]models.Shop, int64, error) {
	if s == nil || s.shopRepo == nil {
		return nil, 0, ErrShopNotFound
	}
	return s.shopRepo.List(page, pageSize)
}

// CreateShop 创建店铺
func (s *ShopService) CreateShop(input ShopInput) (*models.Shop, error) {
	if s == nil || s.shopRepo == nil {
		return nil, ErrShopNotFound
	}
	if err := s.validateShopInput(&input); err != nil {
		return nil, err
	}
	shop := &models.Shop{
		Name:                  input.Name,
		Email:                 input.Email,
		OwnerUserID:           input.OwnerUserID,
		StudioMode:            input.StudioMode,
		PlatformFee:           input.PlatformFee,
		FixedPaymentFee:       input.FixedPaymentFee,
		PlatformRedeemFee:     input.PlatformRedeemFee,
		FixedPaymentRedeemFee: input.FixedPaymentRedeemFee,
		TaxTypeID:             input.TaxTypeID,
		StripeAccountID:       input.StripeAccountID,
		NotifyOnRedeem:        input.NotifyOnRedeem,
	}
	if err := s.shopRepo.Create(shop); err != nil {
		logger.Errorw("shop_create_failed", "name", input.Name, "error", err)
		return nil, err
	}
	logger.Infow("shop_created", "shop_id", shop.ID, "name", shop.Name, "studio_mode", shop.StudioMode)
	return shop, nil
}

// UpdateShop 更新店铺
func (s *ShopService) UpdateShop(id uint, input ShopInput) (*models.Shop, error) {
	shop, err := s.GetShop(id)
	if err != nil {
		return nil, err
	}
	if err := s.validateShopInput(&input); err != nil {
		return nil, err
	}
	shop.Name = input.Name
	shop.Email = input.Email
	shop.OwnerUserID = input.OwnerUserID
	shop.StudioMode = input.StudioMode
	shop.PlatformFee = input.PlatformFee
	shop.FixedPaymentFee = input.FixedPaymentFee
	shop.PlatformRedeemFee = input.PlatformRedeemFee
	shop.FixedPaymentRedeemFee = input.FixedPaymentRedeemFee
	shop.TaxTypeID = input.TaxTypeID
	shop.StripeAccountID = input.StripeAccountID
	shop.NotifyOnRedeem = input.NotifyOnRedeem
	if err := s.shopRepo.Update(shop); err != nil {
		logger.Errorw("shop_update_failed", "shop_id", id, "error", err)
		return nil, err
	}
	return shop, nil
}

func (s *ShopService) validateShopInput(input *ShopInput) error {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	input.StudioMode = strings.ToLower(strings.TrimSpace(input.StudioMode))
	if input.Name == "" || input.Email == "" || input.OwnerUserID == 0 {
		return ErrShopInvalid
	}
	switch input.StudioMode {
	case constants.StudioModeLive, constants.StudioModeDemo:
	default:
		return ErrShopInvalid
	}
	if input.PlatformFee.IsNegative() || input.FixedPaymentFee.IsNegative() ||
		input.PlatformRedeemFee.IsNegative() || input.FixedPaymentRedeemFee.IsNegative() {
		return ErrShopInvalid
	}
	if s.userRepo != nil {
		owner, err := s.userRepo.GetByID(input.OwnerUserID)
		if err != nil || owner == nil {
			return ErrUserNotFound
		}
	}
	if input.TaxTypeID != 0 && s.taxRepo != nil {
		taxType, err := s.taxRepo.GetByID(input.TaxTypeID)
		if err != nil || taxType == nil {
			return ErrTaxTypeNotFound
		}
	}
	return nil
}

// ListTemplates 查询店铺可售模板
func (s *ShopService) ListTemplates(shopID uint) ([]models.GiftCardTemplate, error) {
	if s == nil || s.templateRepo == nil {
		return nil, ErrTemplateNotFound
	}
	return s.templateRepo.ListByShop(shopID)
}

// TemplateInput 模板创建/更新请求
type TemplateInput struct {
	ShopID   uint
	Name     string
	ImageURL string
	IsActive bool
}

// CreateTemplate 创建礼品卡模板
func (s *ShopService) CreateTemplate(input TemplateInput) (*models.GiftCardTemplate, error) {
	if s == nil || s.templateRepo == nil {
		return nil, ErrTemplateNotFound
	}
	input.Name = strings.TrimSpace(input.Name)
	if input.ShopID == 0 || input.Name == "" {
		return nil, ErrTemplateInvalid
	}
	if _, err := s.GetShop(input.ShopID); err != nil {
		return nil, err
	}
	template := &models.GiftCardTemplate{
		ShopID:   input.ShopID,
		Name:     input.Name,
		ImageURL: input.ImageURL,
		IsActive: input.IsActive,
	}
	if err := s.templateRepo.Create(template); err != nil {
		logger.Errorw("template_create_failed", "shop_id", input.ShopID, "error", err)
		return nil, err
	}
	s.invalidateTemplateCache(template.ShopID)
	return template, nil
}

// UpdateTemplate 更新礼品卡模板
func (s *ShopService) UpdateTemplate(id uint, input TemplateInput) (*models.GiftCardTemplate, error) {
	if s == nil || s.templateRepo == nil {
		return nil, ErrTemplateNotFound
	}
	template, err := s.templateRepo.GetByID(id)
	if err != nil {
		return nil, ErrTemplateNotFound
	}
	if template == nil {
		return nil, ErrTemplateNotFound
	}
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return nil, ErrTemplateInvalid
	}
	template.Name = input.Name
	template.ImageURL = input.ImageURL
	template.IsActive = input.IsActive
	if err := s.templateRepo.Update(template); err != nil {
		return nil, err
	}
	s.invalidateTemplateCache(template.ShopID)
	return template, nil
}

func (s *ShopService) invalidateTemplateCache(shopID uint) {
	if shopID == 0 {
		return
	}
	if err := cache.Del(context.Background(), cache.ShopTemplatesKey(shopID)); err != nil {
		logger.Warnw("template_cache_invalidate_failed", "shop_id", shopID, "error", err)
	}
}
