package repository

import (
	"errors"

	"github.com/studiocard/internal/models"

	"gorm.io/gorm"
)

// TaxTypeRepository 税类数据访问接口
type TaxTypeRepository interface {
	GetByID(id uint) (*models.TaxType, error)
	List() ([]models.TaxType, error)
	Create(taxType *models.TaxType) error
}

// GormTaxTypeRepository GORM 实现
type GormTaxTypeRepository struct {
	db *gorm.DB
}

// NewTaxTypeRepository 创建税类仓库
func NewTaxTypeRepository(db *gorm.DB) *GormTaxTypeRepository {
	return &GormTaxTypeRepository{db: db}
}

// GetByID 根据 ID 查询税类
func (r *GormTaxTypeRepository) GetByID(id uint) (*models.TaxType, error) {
	if id == 0 {
		return nil, nil
	}
	var taxType models.TaxType
	if err := r.db.First(&taxType, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &taxType, nil
}

// List 查询全部税类
func (r *GormTaxTypeRepository) List() ([]models.TaxType, error) {
	var taxTypes []models.TaxType
	if err := r.db.Order("id asc").Find(&taxTypes).Error; err != nil {
		return nil, err
	}
	return taxTypes, nil
}

// Create 创建税类
func (r *GormTaxTypeRepository) Create(taxType *models.TaxType) error {
	if taxType == nil {
		return errors.New("invalid tax type")
	}
	return r.db.Create(taxType).Error
}
