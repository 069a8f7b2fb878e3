package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/studiocard/internal/constants"
	"github.com/studiocard/internal/logger"
	"github.com/studiocard/internal/models"
	"github.com/studiocard/internal/money"
	"github.com/studiocard/internal/payment/stripe"
	"github.com/studiocard/internal/queue"
	"github.com/studiocard/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// RefundProcessor 退款处理器契约
type RefundProcessor interface {
	CreateRefund(ctx context.Context, input stripe.RefundInput) (*stripe.RefundResult, error)
}

// RefundService 退款服务
type RefundService struct {
	invoiceRepo repository.InvoiceRepository
	cardRepo    repository.GiftCardRepository
	refundRepo  repository.RefundInvoiceRepository
	processor   RefundProcessor
	queue       *queue.Client
}

// NewRefundService 创建退款服务
func NewRefundService(
	invoiceRepo repository.InvoiceRepository,
	cardRepo repository.GiftCardRepository,
	refundRepo repository.RefundInvoiceRepository,
	processor RefundProcessor,
	queueClient *queue.Client,
) *RefundService {
	return &RefundService{
		invoiceRepo: invoiceRepo,
		cardRepo:    cardRepo,
		refundRepo:  refundRepo,
		processor:   processor,
		queue:       queueClient,
	}
}

// RefundInput 退款请求
type RefundInput struct {
	InvoiceID   uint
	GiftCardIDs []uint
}

// RefundResult 退款结果
type RefundResult struct {
	RefundInvoice *models.RefundInvoice
	CardsRefunded int
}

// Refund 对发票下选定的礼品卡执行退款。
//
// 全有或全无：任一选中卡不属于该发票或不可退款则整单拒绝。
// 处理器退款先于本地写入，处理器失败时不产生任何本地变更。
// 卡片写入走乐观锁版本号，处理器调用期间发生兑换则返回
// ErrRefundConflict 并整单回滚。
func (s *RefundService) Refund(ctx context.Context, input RefundInput) (*RefundResult, error) {
	if s == nil || s.invoiceRepo == nil || s.cardRepo == nil || s.refundRepo == nil {
		return nil, ErrRefundFailed
	}
	if input.InvoiceID == 0 || len(input.GiftCardIDs) == 0 {
		return nil, ErrRefundInvalid
	}

	invoice, err := s.invoiceRepo.GetByID(input.InvoiceID)
	if err != nil {
		return nil, ErrInvoiceFetchFailed
	}
	if invoice == nil {
		return nil, ErrInvoiceNotFound
	}
	if invoice.StripePaymentIntentID == "" {
		return nil, ErrRefundInvalid
	}

	selected, remaining, err := partitionRefundCards(invoice, input.GiftCardIDs)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	refundAmount := decimal.Zero
	for i := range selected {
		refundAmount = refundAmount.Add(selected[i].AvailableAmount.Decimal)
	}
	refundAmount = money.Truncate(refundAmount, 2)

	taxAmount := decimal.Zero
	if invoice.Shop != nil && invoice.Shop.TaxType != nil && invoice.Shop.TaxType.Standard {
		_, taxAmount = money.SplitInclusiveTax(refundAmount, invoice.Shop.TaxType.Percent.Decimal)
	}

	referenceNumber, err := s.refundRepo.NextReferenceNumber(invoice.ID)
	if err != nil {
		return nil, ErrRefundFailed
	}
	refundNo := buildRefundNo(invoice.InvoiceNo, referenceNumber)

	if s.processor == nil {
		return nil, ErrRefundProcessorFailed
	}
	refundResult, err := s.processor.CreateRefund(ctx, stripe.RefundInput{
		PaymentIntentID: invoice.StripePaymentIntentID,
		Amount:          models.NewMoneyFromDecimal(refundAmount),
		IdempotencyKey:  "refund-" + refundNo,
		Metadata: map[string]string{
			"invoice_no": invoice.InvoiceNo,
			"refund_no":  refundNo,
		},
	})
	if err != nil {
		logger.Errorw("refund_processor_failed", "invoice_id", invoice.ID, "error", err)
		return nil, ErrRefundProcessorFailed
	}
	if refundResult == nil || refundResult.Status == "failed" {
		logger.Errorw("refund_processor_rejected", "invoice_id", invoice.ID, "refund_no", refundNo)
		return nil, ErrRefundProcessorFailed
	}

	refundInvoice := &models.RefundInvoice{
		InvoiceID:       invoice.ID,
		RefundNo:        refundNo,
		ReferenceNumber: referenceNumber,
		RefundAmount:    models.NewMoneyFromDecimal(refundAmount),
		TaxAmount:       models.NewMoneyFromDecimal(taxAmount),
		StripeRefundID:  refundResult.RefundID,
	}

	orderStatus := constants.OrderStatusRefunded
	if len(remaining) > 0 {
		orderStatus = constants.OrderStatusPartialRefund
	}
	newRefunded := money.Truncate(invoice.RefundedAmount.Add(refundAmount), 2)

	err = models.DB.Transaction(func(tx *gorm.DB) error {
		refundRepo := s.refundRepo.WithTx(tx)
		cardRepo := s.cardRepo.WithTx(tx)
		invoiceRepo := s.invoiceRepo.WithTx(tx)

		if err := refundRepo.Create(refundInvoice); err != nil {
			return err
		}
		refundedStatus := constants.GiftCardStatusRefunded
		zero := models.MoneyZero()
		for i := range selected {
			card := &selected[i]
			priorAvailable := card.AvailableAmount
			patch := repository.GiftCardPatch{
				Status:          &refundedStatus,
				AvailableAmount: &zero,
				RefundedAmount:  &priorAvailable,
				RefundInvoiceID: &refundInvoice.ID,
			}
			// 处理器调用期间卡片可能被并发兑换，退款额以读取时
			// 的版本号为准落库，版本冲突时整单回滚。
			if err := cardRepo.PatchWithVersion(card.ID, card.LockVersion, patch); err != nil {
				return err
			}
		}
		return invoiceRepo.UpdateStatus(invoice.ID, map[string]interface{}{
			"refunded_amount": models.NewMoneyFromDecimal(newRefunded),
			"order_status":    orderStatus,
			"updated_at":      now,
		})
	})
	if err != nil {
		if errors.Is(err, repository.ErrStaleGiftCard) {
			// 本地未落库但处理器侧退款已发出，凭 refund_id 人工核销
			logger.Errorw("refund_conflict",
				"invoice_id", invoice.ID,
				"refund_no", refundNo,
				"stripe_refund_id", refundResult.RefundID)
			return nil, ErrRefundConflict
		}
		logger.Errorw("refund_persist_failed", "invoice_id", invoice.ID, "refund_no", refundNo, "error", err)
		return nil, ErrRefundFailed
	}

	logger.Infow("refund_completed",
		"invoice_id", invoice.ID,
		"refund_no", refundNo,
		"amount", refundAmount.StringFixed(2),
		"cards", len(selected))

	if s.queue != nil {
		if err := s.queue.EnqueueInvoiceEmail(queue.InvoiceEmailPayload{
			InvoiceID:       invoice.ID,
			RefundInvoiceID: refundInvoice.ID,
		}); err != nil {
			logger.Warnw("refund_email_enqueue_failed", "refund_no", refundNo, "error", err)
		}
	}
	return &RefundResult{RefundInvoice: refundInvoice, CardsRefunded: len(selected)}, nil
}

// ListRefunds 查询发票下的退款单
func (s *RefundService) ListRefunds(invoiceID uint) ([]models.RefundInvoice, error) {
	if s == nil || s.refundRepo == nil {
		return nil, ErrRefundFailed
	}
	refunds, err := s.refundRepo.ListByInvoice(invoiceID)
	if err != nil {
		return nil, ErrRefundFailed
	}
	return refunds, nil
}

// partitionRefundCards 校验选中卡并切分为选中集合与剩余可退集合
func partitionRefundCards(invoice *models.Invoice, ids []uint) (selected, remaining []models.GiftCard, err error) {
	wanted := make(map[uint]bool, len(ids))
	for _, id := range ids {
		if id == 0 {
			return nil, nil, ErrRefundInvalid
		}
		wanted[id] = true
	}
	byID := make(map[uint]*models.GiftCard, len(invoice.GiftCards))
	for i := range invoice.GiftCards {
		byID[invoice.GiftCards[i].ID] = &invoice.GiftCards[i]
	}
	for id := range wanted {
		card, ok := byID[id]
		if !ok {
			return nil, nil, ErrRefundCardMismatch
		}
		if !isRefundEligible(card) {
			return nil, nil, ErrRefundCardIneligible
		}
	}
	for i := range invoice.GiftCards {
		card := invoice.GiftCards[i]
		if wanted[card.ID] {
			selected = append(selected, card)
		} else if isRefundEligible(&card) {
			remaining = append(remaining, card)
		}
	}
	return selected, remaining, nil
}

func isRefundEligible(card *models.GiftCard) bool {
	if card == nil || card.Mode != constants.StudioModeLive {
		return false
	}
	switch card.Status {
	case constants.GiftCardStatusActive, constants.GiftCardStatusBlocked, constants.GiftCardStatusInactive:
	default:
		return false
	}
	return card.AvailableAmount.IsPositive()
}

// buildRefundNo 由原发票编号派生退款编号并追加序号
func buildRefundNo(invoiceNo string, referenceNumber int) string {
	base := invoiceNo
	if strings.HasPrefix(base, constants.InvoiceNoPrefix) {
		base = constants.RefundInvoiceNoPrefix + strings.TrimPrefix(base, constants.InvoiceNoPrefix)
	} else {
		base = constants.RefundInvoiceNoPrefix + "-" + base
	}
	return fmt.Sprintf("%s-%d", base, referenceNumber)
}
