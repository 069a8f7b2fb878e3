package service

import (
	"fmt"
	"time"

	"github.com/studiocard/internal/constants"
	"github.com/studiocard/internal/logger"
	"github.com/studiocard/internal/models"
	"github.com/studiocard/internal/money"
	"github.com/studiocard/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SettlementService 平台费结算服务
type SettlementService struct {
	invoiceRepo        repository.InvoiceRepository
	paymentInvoiceRepo repository.PaymentInvoiceRepository
	shopRepo           repository.ShopRepository
}

// NewSettlementService 创建结算服务
func NewSettlementService(
	invoiceRepo repository.InvoiceRepository,
	paymentInvoiceRepo repository.PaymentInvoiceRepository,
	shopRepo repository.ShopRepository,
) *SettlementService {
	return &SettlementService{
		invoiceRepo:        invoiceRepo,
		paymentInvoiceRepo: paymentInvoiceRepo,
		shopRepo:           shopRepo,
	}
}

// GeneratePaymentInvoice 汇总店铺在周期内已完成且未结算发票的平台手续费。
// 同一店铺同一周期只允许生成一张结算发票。
func (s *SettlementService) GeneratePaymentInvoice(shopID uint, periodStart, periodEnd time.Time) (*models.PaymentInvoice, error) {
	if s == nil || s.invoiceRepo == nil || s.paymentInvoiceRepo == nil {
		return nil, ErrSettlementInvalid
	}
	if shopID == 0 || !periodEnd.After(periodStart) {
		return nil, ErrSettlementInvalid
	}
	shop, err := s.shopRepo.GetByID(shopID)
	if err != nil {
		return nil, ErrShopNotFound
	}
	if shop == nil {
		return nil, ErrShopNotFound
	}

	exists, err := s.paymentInvoiceRepo.ExistsForPeriod(shopID, periodStart)
	if err != nil {
		return nil, ErrSettlementInvalid
	}
	if exists {
		return nil, ErrSettlementAlreadyExists
	}

	invoices, err := s.invoiceRepo.ListUnsettledCompleted(shopID, periodStart, periodEnd)
	if err != nil {
		return nil, ErrSettlementInvalid
	}
	if len(invoices) == 0 {
		return nil, ErrSettlementNoInvoices
	}

	totalFees := decimal.Zero
	invoiceIDs := make([]uint, 0, len(invoices))
	for i := range invoices {
		totalFees = totalFees.Add(invoices[i].Fees.Decimal)
		invoiceIDs = append(invoiceIDs, invoices[i].ID)
	}
	totalFees = money.Truncate(totalFees, 2)

	now := time.Now()
	paymentInvoice := &models.PaymentInvoice{
		ShopID:      shopID,
		InvoiceNo:   buildPaymentInvoiceNo(shopID, periodStart),
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
		TotalFees:   models.NewMoneyFromDecimal(totalFees),
		Status:      constants.PaymentInvoiceStatusDraft,
	}

	err = models.DB.Transaction(func(tx *gorm.DB) error {
		paymentRepo := s.paymentInvoiceRepo.WithTx(tx)
		invoiceRepo := s.invoiceRepo.WithTx(tx)
		if err := paymentRepo.Create(paymentInvoice); err != nil {
			return err
		}
		return invoiceRepo.AssignPaymentInvoice(invoiceIDs, paymentInvoice.ID, now)
	})
	if err != nil {
		logger.Errorw("settlement_persist_failed", "shop_id", shopID, "error", err)
		return nil, ErrSettlementInvalid
	}

	logger.Infow("payment_invoice_generated",
		"shop_id", shopID,
		"payment_invoice_no", paymentInvoice.InvoiceNo,
		"invoices", len(invoiceIDs),
		"total_fees", totalFees.StringFixed(2))
	return paymentInvoice, nil
}

// GetPaymentInvoice 查询结算发票
func (s *SettlementService) GetPaymentInvoice(id uint) (*models.PaymentInvoice, error) {
	if s == nil || s.paymentInvoiceRepo == nil {
		return nil, ErrSettlementInvalid
	}
	invoice, err := s.paymentInvoiceRepo.GetByID(id)
	if err != nil {
		return nil, ErrSettlementInvalid
	}
	if invoice == nil {
		return nil, ErrInvoiceNotFound
	}
	return invoice, nil
}

// ListPaymentInvoices 分页查询店铺结算发票
func (s *SettlementService) ListPaymentInvoices(shopID uint, page, pageSize int) ([]models.PaymentInvoice, int64, error) {
	if s == nil || s.paymentInvoiceRepo == nil {
		return nil, 0, ErrSettlementInvalid
	}
	return s.paymentInvoiceRepo.ListByShop(shopID, page, pageSize)
}

// MarkIssued 将结算发票从草稿置为已开具
func (s *SettlementService) MarkIssued(id uint) error {
	if s == nil || s.paymentInvoiceRepo == nil {
		return ErrSettlementInvalid
	}
	invoice, err := s.paymentInvoiceRepo.GetByID(id)
	if err != nil || invoice == nil {
		return ErrInvoiceNotFound
	}
	if invoice.Status != constants.PaymentInvoiceStatusDraft {
		return ErrSettlementInvalid
	}
	return s.paymentInvoiceRepo.UpdateStatus(id, constants.PaymentInvoiceStatusIssued)
}

// buildPaymentInvoiceNo 结算发票编号：前缀 + 周期起始 + 店铺ID
func buildPaymentInvoiceNo(shopID uint, periodStart time.Time) string {
	return fmt.Sprintf("%s-%s-%d", constants.PaymentInvoiceNoPrefix, periodStart.Format("200601"), shopID)
}
