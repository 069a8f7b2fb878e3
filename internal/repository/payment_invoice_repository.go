package repository

import (
	"errors"
	"time"

	"github.com/studiocard/internal/models"

	"gorm.io/gorm"
)

// PaymentInvoiceRepository 结算发票数据访问接口
type PaymentInvoiceRepository interface {
	Create(invoice *models.PaymentInvoice) error
	GetByID(id uint) (*models.PaymentInvoice, error)
	ListByShop(shopID uint, page, pageSize int) ([]models.PaymentInvoice, int64, error)
	ExistsForPeriod(shopID uint, periodStart time.Time) (bool, error)
	UpdateStatus(id uint, status string) error
	WithTx(tx *gorm.DB) *GormPaymentInvoiceRepository
}

// GormPaymentInvoiceRepository GORM 实现
type GormPaymentInvoiceRepository struct {
	db *gorm.DB
}

// NewPaymentInvoiceRepository 创建结算发票仓库
func NewPaymentInvoiceRepository(db *gorm.DB) *GormPaymentInvoiceRepository {
	return &GormPaymentInvoiceRepository{db: db}
}

// WithTx 绑定事务
func (r *GormPaymentInvoiceRepository) WithTx(tx *gorm.DB) *GormPaymentInvoiceRepository {
	if tx == nil {
		return r
	}
	return &GormPaymentInvoiceRepository{db: tx}
}

// Create 创建结算发票
func (r *GormPaymentInvoiceRepository) Create(invoice *models.PaymentInvoice) error {
	if invoice == nil {
		return errors.New("invalid payment invoice")
	}
	return r.db.Create(invoice).Error
}

// GetByID 根据 ID 查询结算发票
func (r *GormPaymentInvoiceRepository) GetByID(id uint) (*models.PaymentInvoice, error) {
	if id == 0 {
		return nil, nil
	}
	var invoice models.PaymentInvoice
	if err := r.db.Preload("Shop").First(&invoice, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &invoice, nil
}

// ListByShop 查询店铺的结算发票
func (r *GormPaymentInvoiceRepository) ListByShop(shopID uint, page, pageSize int) ([]models.PaymentInvoice, int64, error) {
	query := r.db.Model(&models.PaymentInvoice{})
	if shopID > 0 {
		query = query.Where("shop_id = ?", shopID)
	}
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
	var invoices []models.PaymentInvoice
	if err := query.Order("period_start desc").Find(&invoices).Error; err != nil {
		return nil, 0, err
	}
	return invoices, total, nil
}

// ExistsForPeriod 判断店铺在该结算周期是否已生成结算发票
func (r *GormPaymentInvoiceRepository) ExistsForPeriod(shopID uint, periodStart time.Time) (bool, error) {
	if shopID == 0 {
		return false, nil
	}
	var count int64
	if err := r.db.Model(&models.PaymentInvoice{}).
		Where("shop_id = ? AND period_start = ?", shopID, periodStart).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// UpdateStatus 更新结算发票状态
func (r *GormPaymentInvoiceRepository) UpdateStatus(id uint, status string) error {
	if id == 0 {
		return errors.New("invalid payment invoice id")
	}
	return r.db.Model(&models.PaymentInvoice{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now(),
		}).Error
}
