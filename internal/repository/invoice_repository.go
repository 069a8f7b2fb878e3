package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/studiocard/internal/constants"
	"github.com/studiocard/internal/models"

	"gorm.io/gorm"
)

// InvoiceRepository 发票数据访问接口
type InvoiceRepository interface {
	Create(invoice *models.Invoice) error
	GetByID(id uint) (*models.Invoice, error)
	GetByInvoiceNo(invoiceNo string) (*models.Invoice, error)
	GetByPaymentIntentID(paymentIntentID string) (*models.Invoice, error)
	List(filter InvoiceListFilter) ([]models.Invoice, int64, error)
	Update(invoice *models.Invoice) error
	UpdateStatus(id uint, updates map[string]interface{}) error
	FindCustomerRef(shopID uint, email string) (string, error)
	ListUnsettledCompleted(shopID uint, periodStart, periodEnd time.Time) ([]models.Invoice, error)
	AssignPaymentInvoice(invoiceIDs []uint, paymentInvoiceID uint, now time.Time) error
	WithTx(tx *gorm.DB) *GormInvoiceRepository
}

// GormInvoiceRepository GORM 实现
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewInvoiceRepository 创建发票仓库
func NewInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

// WithTx 绑定事务
func (r *GormInvoiceRepository) WithTx(tx *gorm.DB) *GormInvoiceRepository {
	if tx == nil {
		return r
	}
	return &GormInvoiceRepository{db: tx}
}

// Create 创建发票
func (r *GormInvoiceRepository) Create(invoice *models.Invoice) error {
	if invoice == nil {
		return errors.New("invalid invoice")
	}
	return r.db.Create(invoice).Error
}

// GetByID 根据 ID 查询发票（带礼品卡与店铺）
func (r *GormInvoiceRepository) GetByID(id uint) (*models.Invoice, error) {
	if id == 0 {
		return nil, nil
	}
	var invoice models.Invoice
	if err := r.db.Preload("GiftCards").Preload("Shop").Preload("Shop.Owner").Preload("Shop.TaxType").
		First(&invoice, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &invoice, nil
}

// GetByInvoiceNo 根据发票编号查询
func (r *GormInvoiceRepository) GetByInvoiceNo(invoiceNo string) (*models.Invoice, error) {
	invoiceNo = strings.TrimSpace(invoiceNo)
	if invoiceNo == "" {
		return nil, nil
	}
	var invoice models.Invoice
	if err := r.db.Preload("GiftCards").Where("invoice_no = ?", invoiceNo).
		First(&invoice).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &invoice, nil
}

// GetByPaymentIntentID 根据支付引用查询发票（webhook 回查入口）
func (r *GormInvoiceRepository) GetByPaymentIntentID(paymentIntentID string) (*models.Invoice, error) {
	paymentIntentID = strings.TrimSpace(paymentIntentID)
	if paymentIntentID == "" {
		return nil, nil
	}
	var invoice models.Invoice
	if err := r.db.Where("stripe_payment_intent_id = ?", paymentIntentID).
		First(&invoice).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &invoice, nil
}

// List 查询发票列表
func (r *GormInvoiceRepository) List(filter InvoiceListFilter) ([]models.Invoice, int64, error) {
	query := r.db.Model(&models.Invoice{}).Preload("Shop")
	if filter.ShopID > 0 {
		query = query.Where("shop_id = ?", filter.ShopID)
	}
	if invoiceNo := strings.TrimSpace(filter.InvoiceNo); invoiceNo != "" {
		query = query.Where("invoice_no LIKE ?", "%"+invoiceNo+"%")
	}
	if email := strings.TrimSpace(filter.CustomerEmail); email != "" {
		query = query.Where("customer_email = ?", strings.ToLower(email))
	}
	if status := strings.TrimSpace(filter.TransactionStatus); status != "" {
		query = query.Where("transaction_status = ?", status)
	}
	if status := strings.TrimSpace(filter.OrderStatus); status != "" {
		query = query.Where("order_status = ?", status)
	}
	if mode := strings.TrimSpace(filter.Mode); mode != "" {
		query = query.Where("mode = ?", mode)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if filter.PageSize > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		query = query.Limit(filter.PageSize).Offset((page - 1) * filter.PageSize)
	}
	var invoices []models.Invoice
	if err := query.Order("id desc").Find(&invoices).Error; err != nil {
		return nil, 0, err
	}
	return invoices, total, nil
}

// Update 更新发票
func (r *GormInvoiceRepository) Update(invoice *models.Invoice) error {
	if invoice == nil {
		return errors.New("invalid invoice")
	}
	return r.db.Save(invoice).Error
}

// UpdateStatus 按字段更新发票
func (r *GormInvoiceRepository) UpdateStatus(id uint, updates map[string]interface{}) error {
	if id == 0 {
		return errors.New("invalid invoice id")
	}
	if len(updates) == 0 {
		return nil
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now()
	}
	return r.db.Model(&models.Invoice{}).Where("id = ?", id).Updates(updates).Error
}

// FindCustomerRef 查找该店铺同一买家邮箱已有的处理器客户ID
func (r *GormInvoiceRepository) FindCustomerRef(shopID uint, email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if shopID == 0 || email == "" {
		return "", nil
	}
	var invoice models.Invoice
	if err := r.db.
		Where("shop_id = ? AND customer_email = ? AND stripe_customer_id <> ''", shopID, email).
		Order("id desc").First(&invoice).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", err
	}
	return invoice.StripeCustomerID, nil
}

// ListUnsettledCompleted 查询指定周期内已完成且未结算的发票
func (r *GormInvoiceRepository) ListUnsettledCompleted(shopID uint, periodStart, periodEnd time.Time) ([]models.Invoice, error) {
	if shopID == 0 {
		return []models.Invoice{}, nil
	}
	var invoices []models.Invoice
	if err := r.db.
		Where("shop_id = ? AND transaction_status = ? AND mode = ? AND payment_invoice_id IS NULL", shopID, constants.TransactionStatusCompleted, constants.StudioModeLive).
		Where("created_at >= ? AND created_at < ?", periodStart, periodEnd).
		Order("id asc").Find(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}

// AssignPaymentInvoice 将发票挂接到结算发票
func (r *GormInvoiceRepository) AssignPaymentInvoice(invoiceIDs []uint, paymentInvoiceID uint, now time.Time) error {
	if len(invoiceIDs) == 0 || paymentInvoiceID == 0 {
		return nil
	}
	return r.db.Model(&models.Invoice{}).
		Where("id IN ? AND payment_invoice_id IS NULL", invoiceIDs).
		Updates(map[string]interface{}{
			"payment_invoice_id": paymentInvoiceID,
			"updated_at":         now,
		}).Error
}
