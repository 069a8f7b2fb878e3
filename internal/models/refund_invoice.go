package models

import (
	"time"

	"gorm.io/gorm"
)

// RefundInvoice 退款发票表；reference_number 在同一张客户发票下递增
type RefundInvoice struct {
	ID              uint           `gorm:"primarykey" json:"id"`                                  // 主键
	InvoiceID       uint           `gorm:"index;not null" json:"invoice_id"`                      // 原购买发票ID
	RefundNo        string         `gorm:"type:varchar(48);uniqueIndex;not null" json:"refund_no"` // 退款发票编号（由原发票编号派生）
	ReferenceNumber int            `gorm:"not null" json:"reference_number"`                      // 同一发票下的序号（从 1 开始）
	RefundAmount    Money          `gorm:"type:decimal(20,2);not null" json:"refund_amount"`      // 退款总额
	TaxAmount       Money          `gorm:"type:decimal(20,2);not null;default:0" json:"tax_amount"` // 退款税额
	StripeRefundID  string         `gorm:"type:varchar(64)" json:"-"`                             // 处理器退款ID
	CreatedAt       time.Time      `gorm:"index" json:"created_at"`                               // 创建时间
	UpdatedAt       time.Time      `json:"updated_at"`                                            // 更新时间
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`                                        // 软删除时间

	Invoice *Invoice `gorm:"foreignKey:InvoiceID" json:"invoice,omitempty"` // 原发票
}

// TableName 指定表名
func (RefundInvoice) TableName() string {
	return "refund_invoices"
}
