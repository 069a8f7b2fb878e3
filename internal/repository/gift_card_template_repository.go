package repository

import (
	"errors"

	"github.com/studiocard/internal/models"

	"gorm.io/gorm"
)

// GiftCardTemplateRepository 礼品卡模板数据访问接口
type GiftCardTemplateRepository interface {
	GetByID(id uint) (*models.GiftCardTemplate, error)
	ListByIDs(ids []uint) ([]models.GiftCardTemplate, error)
	ListByShop(shopID uint) ([]models.GiftCardTemplate, error)
	Create(template *models.GiftCardTemplate) error
	Update(template *models.GiftCardTemplate) error
}

// GormGiftCardTemplateRepository GORM 实现
type GormGiftCardTemplateRepository struct {
	db *gorm.DB
}

// NewGiftCardTemplateRepository 创建模板仓库
func NewGiftCardTemplateRepository(db *gorm.DB) *GormGiftCardTemplateRepository {
	return &GormGiftCardTemplateRepository{db: db}
}

// GetByID 根据 ID 查询模板
func (r *GormGiftCardTemplateRepository) GetByID(id uint) (*models.GiftCardTemplate, error) {
	if id == 0 {
		return nil, nil
	}
	var template models.GiftCardTemplate
	if err := r.db.First(&template, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &template, nil
}

// ListByIDs 批量查询模板
func (r *GormGiftCardTemplateRepository) ListByIDs(ids []uint) ([]models.GiftCardTemplate, error) {
	if len(ids) == 0 {
		return []models.GiftCardTemplate{}, nil
	}
	var templates []models.GiftCardTemplate
	if err := r.db.Where("id IN ?", ids).Find(&templates).Error; err != nil {
		return nil, err
	}
	return templates, nil
}

// ListByShop 查询店铺可售模板
func (r *GormGiftCardTemplateRepository) ListByShop(shopID uint) ([]models.GiftCardTemplate, error) {
	if shopID == 0 {
		return []models.GiftCardTemplate{}, nil
	}
	var templates []models.GiftCardTemplate
	if err := r.db.Where("shop_id = ? AND is_active = ?", shopID, true).
		Order("id asc").Find(&templates).Error; err != nil {
		return nil, err
	}
	return templates, nil
}

// Create 创建模板
func (r *GormGiftCardTemplateRepository) Create(template *models.GiftCardTemplate) error {
	if template == nil {
		return errors.New("invalid gift card template")
	}
	return r.db.Create(template).Error
}

// Update 更新模板
func (r *GormGiftCardTemplateRepository) Update(template *models.GiftCardTemplate) error {
	if template == nil {
		return errors.New("invalid gift card template")
	}
	return r.db.Save(template).Error
}
