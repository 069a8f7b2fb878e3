package repository

import (
	"errors"
	"strings"

	"github.com/studiocard/internal/models"

	"gorm.io/gorm"
)

// RefundInvoiceRepository 退款单数据访问接口
type RefundInvoiceRepository interface {
	Create(refund *models.RefundInvoice) error
	GetByID(id uint) (*models.RefundInvoice, error)
	GetByRefundNo(refundNo string) (*models.RefundInvoice, error)
	ListByInvoice(invoiceID uint) ([]models.RefundInvoice, error)
	NextReferenceNumber(invoiceID uint) (int, error)
	WithTx(tx *gorm.DB) *GormRefundInvoiceRepository
}

// GormRefundInvoiceRepository GORM 实现
type GormRefundInvoiceRepository struct {
	db *gorm.DB
}

// NewRefundInvoiceRepository 创建退款单仓库
func NewRefundInvoiceRepository(db *gorm.DB) *GormRefundInvoiceRepository {
	return &GormRefundInvoiceRepository{db: db}
}

// WithTx 绑定事务
func (r *GormRefundInvoiceRepository) WithTx(tx *gorm.DB) *GormRefundInvoiceRepository {
	if tx == nil {
		return r
	}
	return &GormRefundInvoiceRepository{db: tx}
}

// Create 创建退款单
func (r *GormRefundInvoiceRepository) Create(refund *models.RefundInvoice) error {
	if refund == nil {
		return errors.New("invalid refund invoice")
	}
	return r.db.Create(refund).Error
}

// GetByID 根据 ID 查询退款单
func (r *GormRefundInvoiceRepository) GetByID(id uint) (*models.RefundInvoice, error) {
	if id == 0 {
		return nil, nil
	}
	var refund models.RefundInvoice
	if err := r.db.Preload("Invoice").First(&refund, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &refund, nil
}

// GetByRefundNo 根据退款编号查询
func (r *GormRefundInvoiceRepository) GetByRefundNo(refundNo string) (*models.RefundInvoice, error) {
	refundNo = strings.TrimSpace(refundNo)
	if refundNo == "" {
		return nil, nil
	}
	var refund models.RefundInvoice
	if err := r.db.Where("refund_no = ?", refundNo).First(&refund).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &refund, nil
}

// ListByInvoice 查询发票下的退款单
func (r *GormRefundInvoiceRepository) ListByInvoice(invoiceID uint) ([]models.RefundInvoice, error) {
	if invoiceID == 0 {
		return []models.RefundInvoice{}, nil
	}
	var refunds []models.RefundInvoice
	if err := r.db.Where("invoice_id = ?", invoiceID).
		Order("reference_number asc").Find(&refunds).Error; err != nil {
		return nil, err
	}
	return refunds, nil
}

// NextReferenceNumber 计算发票内下一个退款序号，从 1 开始
func (r *GormRefundInvoiceRepository) NextReferenceNumber(invoiceID uint) (int, error) {
	if invoiceID == 0 {
		return 0, errors.New("invalid invoice id")
	}
	var count int64
	if err := r.db.Model(&models.RefundInvoice{}).
		Where("invoice_id = ?", invoiceID).Count(&count).Error; err != nil {
		return 0, err
	}
	return int(count) + 1, nil
}
