package repository

import (
	"time"

	"github.com/studiocard/internal/models"
)

// GiftCardListFilter 查询礼品卡列表的过滤条件
type GiftCardListFilter struct {
	Page        int
	PageSize    int
	ShopID      uint
	InvoiceID   uint
	Code        string
	Status      string
	Mode        string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// InvoiceListFilter 查询发票列表的过滤条件
type InvoiceListFilter struct {
	Page              int
	PageSize          int
	ShopID            uint
	InvoiceNo         string
	CustomerEmail     string
	TransactionStatus string
	OrderStatus       string
	Mode              string
	CreatedFrom       *time.Time
	CreatedTo         *time.Time
}

// RedeemListFilter 查询兑换记录的过滤条件
type RedeemListFilter struct {
	Page           int
	PageSize       int
	GiftCardID     uint
	RedeemedShopID uint
	IssuerShopID   uint
	RedeemedFrom   *time.Time
	RedeemedTo     *time.Time
}

// GiftCardPatch 礼品卡部分更新；nil 字段表示不变更
//
// BlockedUntil 为可空列，置空需显式设置 ClearBlockedUntil，
// 避免「未赋值即跳过」的歧义。
type GiftCardPatch struct {
	Status            *string
	AvailableAmount   *models.Money
	RefundedAmount    *models.Money
	IncorrectPinCount *int
	LastIncorrectPin  *string
	BlockedUntil      *time.Time
	ClearBlockedUntil bool
	RefundInvoiceID   *uint
	Comment           *string
}

// ToUpdates 展开为 gorm 更新字段
func (p GiftCardPatch) ToUpdates(now time.Time) map[string]interface{} {
	updates := map[string]interface{}{
		"updated_at": now,
	}
	if p.Status != nil {
		updates["status"] = *p.Status
	}
	if p.AvailableAmount != nil {
		updates["available_amount"] = *p.AvailableAmount
	}
	if p.RefundedAmount != nil {
		updates["refunded_amount"] = *p.RefundedAmount
	}
	if p.IncorrectPinCount != nil {
		updates["incorrect_pin_count"] = *p.IncorrectPinCount
	}
	if p.LastIncorrectPin != nil {
		updates["last_incorrect_pin"] = *p.LastIncorrectPin
	}
	if p.ClearBlockedUntil {
		updates["blocked_until"] = nil
	} else if p.BlockedUntil != nil {
		updates["blocked_until"] = *p.BlockedUntil
	}
	if p.RefundInvoiceID != nil {
		updates["refund_invoice_id"] = *p.RefundInvoiceID
	}
	if p.Comment != nil {
		updates["comment"] = *p.Comment
	}
	return updates
}
