package repository

import (
	"errors"

	"github.com/studiocard/internal/models"

	"gorm.io/gorm"
)

// ShopRepository 店铺数据访问接口
type ShopRepository interface {
	GetByID(id uint) (*models.Shop, error)
	GetByOwnerUserID(userID uint) (*models.Shop, error)
	List(page, pageSize int) ([]models.Shop, int64, error)
	Create(shop *models.Shop) error
	Update(shop *models.Shop) error
	WithTx(tx *gorm.DB) *GormShopRepository
}

// GormShopRepository GORM 实现
type GormShopRepository struct {
	db *gorm.DB
}

// NewShopRepository 创建店铺仓库
func NewShopRepository(db *gorm.DB) *GormShopRepository {
	return &GormShopRepository{db: db}
}

// WithTx 绑定事务
func (r *GormShopRepository) WithTx(tx *gorm.DB) *GormShopRepository {
	if tx == nil {
		return r
	}
	return &GormShopRepository{db: tx}
}

// GetByID 根据 ID 查询店铺（带所有者与税类）
func (r *GormShopRepository) GetByID(id uint) (*models.Shop, error) {
	if id == 0 {
		return nil, nil
	}
	var shop models.Shop
	if err := r.db.Preload("Owner").Preload("TaxType").First(&shop, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &shop, nil
}

// GetByOwnerUserID 根据所有者查询店铺
func (r *GormShopRepository) GetByOwnerUserID(userID uint) (*models.Shop, error) {
	if userID == 0 {
		return nil, nil
	}
	var shop models.Shop
	if err := r.db.Preload("Owner").Preload("TaxType").
		Where("owner_user_id = ?", userID).First(&shop).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &shop, nil
}

// List 查询店铺列表
func (r *GormShopRepository) List(page, pageSize int) ([]models.Shop, int64, error) {
	query := r.db.Model(&models.Shop{}).Preload("Owner")
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if pageSize > 0 {
		if page < 1 {
			page = 1
		}
		query = query.Limit(pageSize).Offset((page - 1) * pageSize)
	}
	var shops []models.Shop
	if err := query.Order("id asc").Find(&shops).Error; err != nil {
		return nil, 0, err
	}
	return shops, total, nil
}

// Create 创建店铺
func (r *GormShopRepository) Create(shop *models.Shop) error {
	if shop == nil {
		return errors.New("invalid shop")
	}
	return r.db.Create(shop).Error
}

// Update 更新店铺
func (r *GormShopRepository) Update(shop *models.Shop) error {
	if shop == nil {
		return errors.New("invalid shop")
	}
	return r.db.Save(shop).Error
}
