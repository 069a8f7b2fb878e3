package models

import (
	"time"

	"gorm.io/gorm"
)

// PaymentInvoice 平台费结算发票表；按周期汇总店铺已完成发票的平台手续费
type PaymentInvoice struct {
	ID          uint           `gorm:"primarykey" json:"id"`                                    // 主键
	ShopID      uint           `gorm:"index;not null" json:"shop_id"`                           // 店铺ID
	InvoiceNo   string         `gorm:"type:varchar(40);uniqueIndex;not null" json:"invoice_no"` // 结算发票编号
	PeriodStart time.Time      `gorm:"index;not null" json:"period_start"`                      // 结算周期开始
	PeriodEnd   time.Time      `gorm:"index;not null" json:"period_end"`                        // 结算周期结束
	TotalFees   Money          `gorm:"type:decimal(20,2);not null;default:0" json:"total_fees"` // 手续费合计
	Status      string         `gorm:"type:varchar(16);index;not null;default:'draft'" json:"status"` // 状态
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`                                 // 创建时间
	UpdatedAt   time.Time      `json:"updated_at"`                                              // 更新时间
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`                                          // 软删除时间

	Shop *Shop `gorm:"foreignKey:ShopID" json:"shop,omitempty"` // 店铺
}

// TableName 指定表名
func (PaymentInvoice) TableName() string {
	return "payment_invoices"
}
