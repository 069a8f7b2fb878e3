package models

import (
	"time"

	"gorm.io/gorm"
)

// Invoice 购买发票表
//
// transaction_status 跟踪支付处理器侧状态，order_status 跟踪履约侧状态，
// 两条状态轨独立演进。一张发票拥有多张礼品卡（购物车每个单位一张）。
type Invoice struct {
	ID                    uint           `gorm:"primarykey" json:"id"`                                                   // 主键
	InvoiceNo             string         `gorm:"type:varchar(40);uniqueIndex;not null" json:"invoice_no"`                // 发票编号
	ShopID                uint           `gorm:"index;not null" json:"shop_id"`                                          // 店铺ID
	CustomerEmail         string         `gorm:"index;not null" json:"customer_email"`                                   // 买家邮箱
	TransactionStatus     string         `gorm:"type:varchar(24);index;not null;default:'pending'" json:"transaction_status"` // 支付状态
	OrderStatus           string         `gorm:"type:varchar(24);index;not null;default:'pending'" json:"order_status"`  // 履约状态
	TotalAmount           Money          `gorm:"type:decimal(20,2);not null;default:0" json:"total_amount"`              // 总金额（含税）
	NetAmount             Money          `gorm:"type:decimal(20,2);not null;default:0" json:"net_amount"`                // 净额
	TaxAmount             Money          `gorm:"type:decimal(20,2);not null;default:0" json:"tax_amount"`                // 税额
	Fees                  Money          `gorm:"type:decimal(20,2);not null;default:0" json:"fees"`                      // 平台手续费
	RefundedAmount        Money          `gorm:"type:decimal(20,2);not null;default:0" json:"refunded_amount"`           // 已退款金额
	Mode                  string         `gorm:"type:varchar(8);not null" json:"mode"`                                   // 模式（live/demo）
	StripeCustomerID      string         `gorm:"type:varchar(64)" json:"-"`                                              // 处理器客户ID
	StripePaymentIntentID string         `gorm:"type:varchar(64);index" json:"-"`                                        // 处理器支付引用
	PaymentInvoiceID      *uint          `gorm:"index" json:"payment_invoice_id,omitempty"`                              // 结算发票ID
	CreatedAt             time.Time      `gorm:"index" json:"created_at"`                                                // 创建时间
	UpdatedAt             time.Time      `gorm:"index" json:"updated_at"`                                                // 更新时间
	DeletedAt             gorm.DeletedAt `gorm:"index" json:"-"`                                                         // 软删除时间

	Shop      *Shop      `gorm:"foreignKey:ShopID" json:"shop,omitempty"`       // 店铺
	GiftCards []GiftCard `gorm:"foreignKey:InvoiceID" json:"gift_cards,omitempty"` // 关联礼品卡
}

// TableName 指定表名
func (Invoice) TableName() string {
	return "invoices"
}
