package service

import (
	"fmt"
	"time"

	"github.com/studiocard/internal/config"
	"github.com/studiocard/internal/constants"
	"github.com/studiocard/internal/logger"
	"github.com/studiocard/internal/models"
	"github.com/studiocard/internal/pdf"
	"github.com/studiocard/internal/queue"
	"github.com/studiocard/internal/repository"

	"gorm.io/gorm"
)

// FulfillmentService 履约服务：支付完成后的激活与通知
type FulfillmentService struct {
	invoiceRepo repository.InvoiceRepository
	cardRepo    repository.GiftCardRepository
	shopRepo    repository.ShopRepository
	redeemRepo  repository.RedeemGiftCardRepository
	refundRepo  repository.RefundInvoiceRepository
	email       *EmailService
	queue       *queue.Client
	cfg         *config.GiftCardConfig
}

// NewFulfillmentService 创建履约服务
func NewFulfillmentService(
	invoiceRepo repository.InvoiceRepository,
	cardRepo repository.GiftCardRepository,
	shopRepo repository.ShopRepository,
	redeemRepo repository.RedeemGiftCardRepository,
	refundRepo repository.RefundInvoiceRepository,
	email *EmailService,
	queueClient *queue.Client,
	cfg *config.GiftCardConfig,
) *FulfillmentService {
	return &FulfillmentService{
		invoiceRepo: invoiceRepo,
		cardRepo:    cardRepo,
		shopRepo:    shopRepo,
		redeemRepo:  redeemRepo,
		refundRepo:  refundRepo,
		email:       email,
		queue:       queueClient,
		cfg:         cfg,
	}
}

// FulfillInvoice 激活发票下的待支付卡片并完成发票。
// 幂等：激活只命中 pending_payment 状态的卡片，重复调用是空操作。
func (s *FulfillmentService) FulfillInvoice(invoiceID uint) error {
	if s == nil || s.invoiceRepo == nil || s.cardRepo == nil {
		return ErrInvoiceFetchFailed
	}
	invoice, err := s.invoiceRepo.GetByID(invoiceID)
	if err != nil {
		return ErrInvoiceFetchFailed
	}
	if invoice == nil {
		return ErrInvoiceNotFound
	}

	now := time.Now()
	var activated int64
	err = models.DB.Transaction(func(tx *gorm.DB) error {
		cardRepo := s.cardRepo.WithTx(tx)
		invoiceRepo := s.invoiceRepo.WithTx(tx)
		rows, err := cardRepo.ActivateByInvoice(invoiceID, now)
		if err != nil {
			return err
		}
		activated = rows
		return invoiceRepo.UpdateStatus(invoiceID, map[string]interface{}{
			"transaction_status": constants.TransactionStatusCompleted,
			"order_status":       constants.OrderStatusCompleted,
		})
	})
	if err != nil {
		logger.Errorw("invoice_fulfill_failed", "invoice_id", invoiceID, "error", err)
		return ErrInvoiceFetchFailed
	}

	logger.Infow("invoice_fulfilled", "invoice_id", invoiceID, "cards_activated", activated)
	if activated > 0 {
		if err := s.queue.EnqueueInvoiceEmail(queue.InvoiceEmailPayload{InvoiceID: invoiceID}); err != nil {
			logger.Warnw("invoice_email_enqueue_failed", "invoice_id", invoiceID, "error", err)
		}
	}
	return nil
}

// FailInvoice 支付失败或取消时停用待支付卡片
func (s *FulfillmentService) FailInvoice(invoiceID uint, transactionStatus string) error {
	if s == nil || s.invoiceRepo == nil || s.cardRepo == nil {
		return ErrInvoiceFetchFailed
	}
	switch transactionStatus {
	case constants.TransactionStatusFailed, constants.TransactionStatusCancelled:
	default:
		return ErrWebhookPayload
	}
	now := time.Now()
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		cardRepo := s.cardRepo.WithTx(tx)
		invoiceRepo := s.invoiceRepo.WithTx(tx)
		if _, err := cardRepo.DeactivateByInvoice(invoiceID, now); err != nil {
			return err
		}
		orderStatus := constants.OrderStatusFailed
		if transactionStatus == constants.TransactionStatusCancelled {
			orderStatus = constants.OrderStatusCancelled
		}
		return invoiceRepo.UpdateStatus(invoiceID, map[string]interface{}{
			"transaction_status": transactionStatus,
			"order_status":       orderStatus,
		})
	})
	if err != nil {
		logger.Errorw("invoice_fail_mark_failed", "invoice_id", invoiceID, "error", err)
		return ErrInvoiceFetchFailed
	}
	logger.Infow("invoice_marked_failed", "invoice_id", invoiceID, "transaction_status", transactionStatus)
	return nil
}

// SendInvoiceEmail 渲染礼品卡与发票 PDF 并投递给买家
func (s *FulfillmentService) SendInvoiceEmail(invoiceID uint) error {
	if s == nil || s.invoiceRepo == nil || s.email == nil {
		return ErrInvoiceFetchFailed
	}
	invoice, err := s.invoiceRepo.GetByID(invoiceID)
	if err != nil {
		return ErrInvoiceFetchFailed
	}
	if invoice == nil {
		return ErrInvoiceNotFound
	}
	shop := invoice.Shop
	if shop == nil {
		return ErrShopNotFound
	}
	taxPercent := models.MoneyZero()
	if shop.TaxType != nil {
		taxPercent = shop.TaxType.Percent
	}

	attachments := make([]Attachment, 0, len(invoice.GiftCards)+1)
	for i := range invoice.GiftCards {
		card := &invoice.GiftCards[i]
		data, err := pdf.RenderGiftCard(card, shop.Name, card.Pin)
		if err != nil {
			logger.Warnw("gift_card_pdf_failed", "gift_card_id", card.ID, "error", err)
			continue
		}
		attachments = append(attachments, Attachment{
			Filename:    fmt.Sprintf("gift-card-%s.pdf", card.Code),
			ContentType: "application/pdf",
			Data:        data,
		})
	}
	if data, err := pdf.RenderInvoice(invoice, shop, taxPercent); err != nil {
		logger.Warnw("invoice_pdf_failed", "invoice_id", invoice.ID, "error", err)
	} else {
		attachments = append(attachments, Attachment{
			Filename:    fmt.Sprintf("invoice-%s.pdf", invoice.InvoiceNo),
			ContentType: "application/pdf",
			Data:        data,
		})
	}

	subject := fmt.Sprintf("Your gift cards from %s", shop.Name)
	body := fmt.Sprintf(
		"Thank you for your purchase at %s.\n\nInvoice %s, total %s EUR.\nYour gift cards and the invoice are attached.",
		shop.Name, invoice.InvoiceNo, invoice.TotalAmount.String())
	if err := s.email.SendWithAttachments(invoice.CustomerEmail, subject, body, attachments); err != nil {
		logger.Warnw("invoice_email_send_failed", "invoice_id", invoice.ID, "error", err)
		return err
	}
	logger.Infow("invoice_email_sent", "invoice_id", invoice.ID, "attachments", len(attachments))
	return nil
}

// SendRefundEmail 渲染退款单 PDF 并投递给买家
func (s *FulfillmentService) SendRefundEmail(invoiceID, refundInvoiceID uint) error {
	if s == nil || s.invoiceRepo == nil || s.refundRepo == nil || s.email == nil {
		return ErrInvoiceFetchFailed
	}
	invoice, err := s.invoiceRepo.GetByID(invoiceID)
	if err != nil {
		return ErrInvoiceFetchFailed
	}
	if invoice == nil {
		return ErrInvoiceNotFound
	}
	refund, err := s.refundRepo.GetByID(refundInvoiceID)
	if err != nil {
		return ErrInvoiceFetchFailed
	}
	if refund == nil || refund.InvoiceID != invoice.ID {
		return ErrInvoiceNotFound
	}
	shop := invoice.Shop
	if shop == nil {
		return ErrShopNotFound
	}

	data, err := pdf.RenderRefundInvoice(refund, invoice, shop)
	if err != nil {
		logger.Warnw("refund_invoice_pdf_failed", "refund_invoice_id", refund.ID, "error", err)
		return err
	}
	attachments := []Attachment{{
		Filename:    fmt.Sprintf("refund-invoice-%s.pdf", refund.RefundNo),
		ContentType: "application/pdf",
		Data:        data,
	}}

	subject := fmt.Sprintf("Your refund from %s", shop.Name)
	body := fmt.Sprintf(
		"Your purchase at %s has been partially or fully refunded.\n\nRefund invoice %s for invoice %s, amount %s EUR.\nThe refund invoice is attached.",
		shop.Name, refund.RefundNo, invoice.InvoiceNo, refund.RefundAmount.String())
	if err := s.email.SendWithAttachments(invoice.CustomerEmail, subject, body, attachments); err != nil {
		logger.Warnw("refund_email_send_failed", "refund_invoice_id", refund.ID, "error", err)
		return err
	}
	logger.Infow("refund_email_sent", "invoice_id", invoice.ID, "refund_invoice_id", refund.ID)
	return nil
}

// SendRedeemNotification 通知发卡店铺；平台卡跨店兑换时追加结算收件人
func (s *FulfillmentService) SendRedeemNotification(redeemID uint) error {
	if s == nil || s.redeemRepo == nil || s.shopRepo == nil || s.email == nil {
		return ErrRedeemFailed
	}
	record, err := s.redeemRepo.GetByID(redeemID)
	if err != nil {
		return ErrRedeemFailed
	}
	if record == nil {
		return ErrRedeemFailed
	}
	issuerShop, err := s.shopRepo.GetByID(record.IssuerShopID)
	if err != nil || issuerShop == nil {
		return ErrShopNotFound
	}
	redeemShop, err := s.shopRepo.GetByID(record.RedeemedShopID)
	if err != nil || redeemShop == nil {
		return ErrShopNotFound
	}

	subject := "Gift card redeemed"
	body := fmt.Sprintf(
		"A gift card issued by %s was redeemed at %s.\nAmount: %s EUR, fees: %s EUR, date: %s.",
		issuerShop.Name, redeemShop.Name,
		record.Amount.String(), record.Fees.String(),
		record.RedeemedDate.Format("02.01.2006 15:04"))

	if issuerShop.NotifyOnRedeem && issuerShop.Email != "" {
		if err := s.email.SendText(issuerShop.Email, subject, body); err != nil {
			logger.Warnw("redeem_notification_send_failed", "redeem_id", redeemID, "error", err)
		}
	}
	if issuerShop.IsAdminOwned() && issuerShop.ID != redeemShop.ID && s.settlementAddress() != "" {
		if err := s.email.SendText(s.settlementAddress(), subject, body); err != nil {
			logger.Warnw("redeem_settlement_notification_failed", "redeem_id", redeemID, "error", err)
		}
	}
	return nil
}

func (s *FulfillmentService) settlementAddress() string {
	if s != nil && s.cfg != nil {
		return s.cfg.SettlementAddress
	}
	return ""
}
