package models

import (
	"time"

	"gorm.io/gorm"
)

// GiftCard 礼品卡表
//
// code 在未软删除的卡中唯一；mode 在发卡时固定，之后不可变更；
// available_amount 只会因兑换与退款减少，始终满足 0 <= available_amount <= amount。
type GiftCard struct {
	ID                uint           `gorm:"primarykey" json:"id"`                                                   // 主键
	Code              string         `gorm:"type:varchar(16);uniqueIndex;not null" json:"code"`                      // 16 位数字卡号
	Pin               string         `gorm:"type:varchar(6);not null" json:"-"`                                      // 6 位数字 PIN（不返回给前端）
	Amount            Money          `gorm:"type:decimal(20,2);not null" json:"amount"`                              // 面额（发卡后不可变）
	AvailableAmount   Money          `gorm:"type:decimal(20,2);not null" json:"available_amount"`                    // 剩余可兑换金额
	RefundedAmount    Money          `gorm:"type:decimal(20,2);not null;default:0" json:"refunded_amount"`           // 已退款金额
	Status            string         `gorm:"type:varchar(24);index;not null;default:'pending_payment'" json:"status"` // 状态
	Mode              string         `gorm:"type:varchar(8);not null" json:"mode"`                                   // 模式（live/demo，发卡时镜像店铺模式）
	PurchaseDate      time.Time      `gorm:"index" json:"purchase_date"`                                             // 购买日期
	ValidTillDate     time.Time      `gorm:"index" json:"valid_till_date"`                                           // 有效期（购买 +N 年后的 12 月 31 日）
	IncorrectPinCount int            `gorm:"not null;default:0" json:"-"`                                            // 连续 PIN 错误次数
	LastIncorrectPin  string         `gorm:"type:varchar(6)" json:"-"`                                               // 最近一次被拒绝的 PIN
	BlockedUntil      *time.Time     `gorm:"index" json:"blocked_until,omitempty"`                                   // 临时锁定截止时间
	Comment           string         `gorm:"type:text" json:"comment"`                                               // 备注
	Message           string         `gorm:"type:text" json:"message"`                                               // 购买留言
	LockVersion       int64          `gorm:"not null;default:0" json:"-"`                                            // 乐观锁版本号
	ShopID            uint           `gorm:"index;not null" json:"shop_id"`                                          // 发卡店铺ID
	TemplateID        uint           `gorm:"index;not null" json:"template_id"`                                      // 模板ID
	InvoiceID         uint           `gorm:"index;not null" json:"invoice_id"`                                       // 购买发票ID
	RefundInvoiceID   *uint          `gorm:"index" json:"refund_invoice_id,omitempty"`                               // 退款发票ID
	CreatedAt         time.Time      `gorm:"index" json:"created_at"`                                                // 创建时间
	UpdatedAt         time.Time      `gorm:"index" json:"updated_at"`                                                // 更新时间
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`                                                         // 软删除时间

	Shop     *Shop             `gorm:"foreignKey:ShopID" json:"shop,omitempty"`         // 发卡店铺
	Template *GiftCardTemplate `gorm:"foreignKey:TemplateID" json:"template,omitempty"` // 模板
	Invoice  *Invoice          `gorm:"foreignKey:InvoiceID" json:"invoice,omitempty"`   // 购买发票
}

// TableName 指定表名
func (GiftCard) TableName() string {
	return "gift_cards"
}
