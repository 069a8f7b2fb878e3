package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/studiocard/internal/constants"
)

// Shop 店铺（租户）表；费率配置决定购买与兑换手续费
type Shop struct {
	ID                    uint           `gorm:"primarykey" json:"id"`                                           // 主键
	Name                  string         `gorm:"type:varchar(120);not null" json:"name"`                         // 店铺名称
	Email                 string         `gorm:"index;not null" json:"email"`                                    // 店铺联系邮箱
	OwnerUserID           uint           `gorm:"index;not null" json:"owner_user_id"`                            // 所有者用户ID
	StudioMode            string         `gorm:"type:varchar(8);not null;default:'live'" json:"studio_mode"`     // 运行模式（live/demo）
	PlatformFee           Money          `gorm:"type:decimal(6,2);not null;default:0" json:"platform_fee"`       // 平台抽成比例（百分比）
	FixedPaymentFee       Money          `gorm:"type:decimal(10,2);not null;default:0" json:"fixed_payment_fee"` // 支付固定手续费
	PlatformRedeemFee     Money          `gorm:"type:decimal(6,2);not null;default:0" json:"platform_redeem_fee"`
	FixedPaymentRedeemFee Money          `gorm:"type:decimal(10,2);not null;default:0" json:"fixed_payment_redeem_fee"`
	TaxTypeID             uint           `gorm:"index" json:"tax_type_id"`                              // 税类ID
	StripeAccountID       string         `gorm:"type:varchar(64)" json:"stripe_account_id,omitempty"`   // 关联子账户（Connect）
	NotifyOnRedeem        bool           `gorm:"not null;default:true" json:"notify_on_redeem"`         // 兑换通知开关
	CreatedAt             time.Time      `gorm:"index" json:"created_at"`                               // 创建时间
	UpdatedAt             time.Time      `gorm:"index" json:"updated_at"`                               // 更新时间
	DeletedAt             gorm.DeletedAt `gorm:"index" json:"-"`                                        // 软删除时间

	Owner   *User    `gorm:"foreignKey:OwnerUserID" json:"owner,omitempty"` // 所有者
	TaxType *TaxType `gorm:"foreignKey:TaxTypeID" json:"tax_type,omitempty"`
}

// TableName 指定表名
func (Shop) TableName() string {
	return "shops"
}

// IsLive 判断店铺是否处于正式模式
func (s *Shop) IsLive() bool {
	return s != nil && s.StudioMode == constants.StudioModeLive
}

// IsAdminOwned 判断店铺是否平台自营
func (s *Shop) IsAdminOwned() bool {
	return s != nil && s.Owner != nil && s.Owner.IsAdmin()
}
